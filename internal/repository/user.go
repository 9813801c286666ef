package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/merxio/marketplace/internal/domain/user"
)

const (
	userColumns = `id, username, full_name, email, password_hash, phone, role, addresses, cart, created_at`

	getUserByIDSQL = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	createUserSQL = `INSERT INTO users
		(id, username, full_name, email, password_hash, phone, role, addresses, cart)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateUserAddressesSQL = `UPDATE users SET addresses = $2 WHERE id = $1`

	updateUserCartSQL = `UPDATE users SET cart = $2 WHERE id = $1`

	clearUserCartSQL = `UPDATE users SET cart = '[]' WHERE id = $1`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL. The
// address book and the cart are serialized to JSONB.
type UserRepository struct {
	db querier
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: pool}
}

// GetByID returns a single user by their identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	rows, err := r.db.Query(ctx, getUserByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting user %q: %w", id, err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %q: %w", id, err)
	}
	return &u, nil
}

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	addressesJSON, err := marshalOrEmptyList(u.Addresses)
	if err != nil {
		return fmt.Errorf("marshaling addresses: %w", err)
	}
	cartJSON, err := marshalOrEmptyList(u.Cart)
	if err != nil {
		return fmt.Errorf("marshaling cart: %w", err)
	}

	_, err = r.db.Exec(ctx, createUserSQL,
		u.ID, u.Username, u.FullName, u.Email, u.PasswordHash,
		u.Phone, u.Role, addressesJSON, cartJSON,
	)
	if err != nil {
		return fmt.Errorf("creating user %q: %w", u.ID, err)
	}
	return nil
}

// UpdateAddresses replaces the user's address book.
func (r *UserRepository) UpdateAddresses(ctx context.Context, id string, addresses []user.Address) error {
	addressesJSON, err := marshalOrEmptyList(addresses)
	if err != nil {
		return fmt.Errorf("marshaling addresses: %w", err)
	}

	tag, err := r.db.Exec(ctx, updateUserAddressesSQL, id, addressesJSON)
	if err != nil {
		return fmt.Errorf("updating addresses for user %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// UpdateCart replaces the user's cart.
func (r *UserRepository) UpdateCart(ctx context.Context, id string, cart []user.CartItem) error {
	cartJSON, err := marshalOrEmptyList(cart)
	if err != nil {
		return fmt.Errorf("marshaling cart: %w", err)
	}

	tag, err := r.db.Exec(ctx, updateUserCartSQL, id, cartJSON)
	if err != nil {
		return fmt.Errorf("updating cart for user %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// ClearCart resets the user's cart to an empty list.
func (r *UserRepository) ClearCart(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, clearUserCartSQL, id)
	if err != nil {
		return fmt.Errorf("clearing cart for user %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var (
		u             user.User
		addressesJSON []byte
		cartJSON      []byte
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.FullName, &u.Email, &u.PasswordHash,
		&u.Phone, &u.Role, &addressesJSON, &cartJSON, &u.CreatedAt,
	)
	if err != nil {
		return u, err
	}
	if err := json.Unmarshal(addressesJSON, &u.Addresses); err != nil {
		return u, fmt.Errorf("unmarshaling addresses: %w", err)
	}
	if err := json.Unmarshal(cartJSON, &u.Cart); err != nil {
		return u, fmt.Errorf("unmarshaling cart: %w", err)
	}
	return u, nil
}

// marshalOrEmptyList marshals v, substituting an empty JSON array for a nil
// slice so the stored document is always a list.
func marshalOrEmptyList[T any](v []T) ([]byte, error) {
	if v == nil {
		return []byte(`[]`), nil
	}
	return json.Marshal(v)
}
