package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/merxio/marketplace/internal/domain/coupon"
)

const (
	couponColumns = `code, description, expiration_date, redemptions_left, discount,
		status, valid_categories, invalid_categories, is_public, owner_only, owner_id, created_at`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC, code`

	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE UPPER(code) = UPPER($1)`

	createCouponSQL = `INSERT INTO coupons
		(code, description, expiration_date, redemptions_left, discount, status,
		valid_categories, invalid_categories, is_public, owner_only, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	updateCouponSQL = `UPDATE coupons SET
		description = $2, expiration_date = $3, redemptions_left = $4, discount = $5,
		status = $6, valid_categories = $7, invalid_categories = $8, is_public = $9, owner_only = $10
		WHERE code = $1`

	deleteCouponSQL = `DELETE FROM coupons WHERE code = $1`

	setCouponStatusSQL = `UPDATE coupons SET status = $2 WHERE code = $1`

	// Conditional decrement: only an active coupon with redemptions left
	// matches, so concurrent redemptions cannot drive the limit negative.
	// The status flips to redeemed_out on the row that consumes the last use.
	consumeCouponSQL = `UPDATE coupons SET
		redemptions_left = redemptions_left - 1,
		status = CASE WHEN redemptions_left - 1 <= 0 THEN 'redeemed_out' ELSE status END
		WHERE UPPER(code) = UPPER($1) AND status = 'active' AND redemptions_left > 0
		RETURNING ` + couponColumns
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	db querier
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{db: pool}
}

// List returns all coupons, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.db.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// FindByCode looks up a coupon by its code (case-insensitive).
// Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.db.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// Create persists a new coupon; returns coupon.ErrCodeTaken when the code
// already exists.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.db.Exec(ctx, createCouponSQL,
		c.Code, c.Description, c.ExpirationDate, c.Limit, c.Discount, c.Status,
		c.ValidCategories, c.InvalidCategories, c.IsPublic, c.OwnerOnly, c.OwnerID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return coupon.ErrCodeTaken
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Update overwrites the coupon's mutable fields.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	tag, err := r.db.Exec(ctx, updateCouponSQL,
		c.Code, c.Description, c.ExpirationDate, c.Limit, c.Discount, c.Status,
		c.ValidCategories, c.InvalidCategories, c.IsPublic, c.OwnerOnly,
	)
	if err != nil {
		return fmt.Errorf("updating coupon %q: %w", c.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// Delete removes the coupon; returns coupon.ErrNotFound if absent.
func (r *CouponRepository) Delete(ctx context.Context, code string) error {
	tag, err := r.db.Exec(ctx, deleteCouponSQL, code)
	if err != nil {
		return fmt.Errorf("deleting coupon %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// SetStatus overwrites the coupon's status.
func (r *CouponRepository) SetStatus(ctx context.Context, code string, status coupon.Status) error {
	tag, err := r.db.Exec(ctx, setCouponStatusSQL, code, status)
	if err != nil {
		return fmt.Errorf("setting status for coupon %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// ConsumeOne atomically decrements the redemption limit by one. When the
// conditional update matches no row the coupon is no longer redeemable and
// coupon.ErrRedeemedOut is returned.
func (r *CouponRepository) ConsumeOne(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.db.Query(ctx, consumeCouponSQL, code)
	if err != nil {
		return nil, fmt.Errorf("consuming coupon %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrRedeemedOut
		}
		return nil, fmt.Errorf("consuming coupon %q: %w", code, err)
	}
	return &c, nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c          coupon.Coupon
		expiration *time.Time
	)
	err := row.Scan(
		&c.Code, &c.Description, &expiration, &c.Limit, &c.Discount,
		&c.Status, &c.ValidCategories, &c.InvalidCategories,
		&c.IsPublic, &c.OwnerOnly, &c.OwnerID, &c.CreatedAt,
	)
	c.ExpirationDate = expiration
	return c, err
}
