package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/merxio/marketplace/internal/domain/catalog"
	"github.com/merxio/marketplace/internal/domain/coupon"
	"github.com/merxio/marketplace/internal/domain/user"
)

const (
	upsertUserSQL = `INSERT INTO users
		(id, username, full_name, email, password_hash, phone, role, addresses, cart)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '[]')
		ON CONFLICT (id) DO UPDATE SET
		username = EXCLUDED.username, full_name = EXCLUDED.full_name,
		email = EXCLUDED.email, password_hash = EXCLUDED.password_hash,
		phone = EXCLUDED.phone, role = EXCLUDED.role, addresses = EXCLUDED.addresses`

	upsertCategorySQL = `INSERT INTO categories (id, name, description, picture)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, description = EXCLUDED.description, picture = EXCLUDED.picture`

	upsertProductSQL = `INSERT INTO products
		(id, name, description, images, stock, price, discount, status, condition, category_id, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, description = EXCLUDED.description, images = EXCLUDED.images,
		stock = EXCLUDED.stock, price = EXCLUDED.price, discount = EXCLUDED.discount,
		status = EXCLUDED.status, condition = EXCLUDED.condition,
		category_id = EXCLUDED.category_id, owner_id = EXCLUDED.owner_id, updated_at = now()`

	upsertCouponSQL = `INSERT INTO coupons
		(code, description, expiration_date, redemptions_left, discount, status,
		valid_categories, invalid_categories, is_public, owner_only, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (code) DO UPDATE SET
		description = EXCLUDED.description, expiration_date = EXCLUDED.expiration_date,
		redemptions_left = EXCLUDED.redemptions_left, discount = EXCLUDED.discount,
		status = EXCLUDED.status, is_public = EXCLUDED.is_public`

	upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, user_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
		key_hash = EXCLUDED.key_hash, name = EXCLUDED.name, user_id = EXCLUDED.user_id`
)

// Seeder provides idempotent upserts for fixtures and bulk imports. It is
// used by the seeding CLIs, not by the API server.
type Seeder struct {
	db querier
}

// NewSeeder returns a Seeder that uses the given pool.
func NewSeeder(pool *pgxpool.Pool) *Seeder {
	return &Seeder{db: pool}
}

// UpsertUser inserts or updates a user, preserving an existing cart.
func (s *Seeder) UpsertUser(ctx context.Context, u *user.User) error {
	addressesJSON, err := marshalOrEmptyList(u.Addresses)
	if err != nil {
		return fmt.Errorf("marshaling addresses: %w", err)
	}
	_, err = s.db.Exec(ctx, upsertUserSQL,
		u.ID, u.Username, u.FullName, u.Email, u.PasswordHash, u.Phone, u.Role, addressesJSON,
	)
	if err != nil {
		return fmt.Errorf("upserting user %q: %w", u.ID, err)
	}
	return nil
}

// UpsertCategory inserts or updates a category.
func (s *Seeder) UpsertCategory(ctx context.Context, c *catalog.Category) error {
	_, err := s.db.Exec(ctx, upsertCategorySQL, c.ID, c.Name, c.Description, c.Picture)
	if err != nil {
		return fmt.Errorf("upserting category %q: %w", c.ID, err)
	}
	return nil
}

// UpsertProduct inserts or updates a product.
func (s *Seeder) UpsertProduct(ctx context.Context, p *catalog.Product) error {
	_, err := s.db.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Description, p.Images, p.Stock, p.Price,
		p.Discount, p.Status, p.Condition, p.CategoryID, p.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

// UpsertCoupon inserts or updates a coupon.
func (s *Seeder) UpsertCoupon(ctx context.Context, c *coupon.Coupon) error {
	_, err := s.db.Exec(ctx, upsertCouponSQL,
		c.Code, c.Description, c.ExpirationDate, c.Limit, c.Discount, c.Status,
		c.ValidCategories, c.InvalidCategories, c.IsPublic, c.OwnerOnly, c.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", c.Code, err)
	}
	return nil
}

// UpsertAPIKey inserts or updates an API key record.
func (s *Seeder) UpsertAPIKey(ctx context.Context, id, keyHash, name, userID string) error {
	_, err := s.db.Exec(ctx, upsertAPIKeySQL, id, keyHash, name, userID)
	if err != nil {
		return fmt.Errorf("upserting api key %q: %w", id, err)
	}
	return nil
}
