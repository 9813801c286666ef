// Package coupon holds the discount-code entity and the single
// validate-and-redeem implementation shared by the standalone redeem
// endpoint and the order placement workflow.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Status enumerates the lifecycle states of a coupon.
type Status string

const (
	StatusActive      Status = "active"
	StatusExpired     Status = "expired"
	StatusRedeemedOut Status = "redeemed_out"
	StatusSuspend     Status = "suspend"
)

var (
	// ErrNotFound is returned when no coupon exists for a given code.
	ErrNotFound = errors.New("coupon not found")
	// ErrNotActive is returned when a coupon's status is anything but active.
	ErrNotActive = errors.New("coupon is not active")
	// ErrExpired is returned when a coupon's expiration date has passed.
	ErrExpired = errors.New("coupon has expired")
	// ErrRedeemedOut is returned when a coupon's redemption limit is exhausted.
	ErrRedeemedOut = errors.New("coupon has been redeemed out")
	// ErrCodeTaken is returned when creating a coupon with an existing code.
	ErrCodeTaken = errors.New("coupon code already exists")
)

// Coupon is a discount code. Limit counts the remaining redemptions; each
// successful redemption consumes one unit. Discount is a whole percentage
// in [0, 100] applied uniformly to every line item of an order.
//
// ValidCategories and InvalidCategories are stored and returned but not
// consulted when a discount is applied.
type Coupon struct {
	Code              string
	Description       string
	ExpirationDate    *time.Time
	Limit             int
	Discount          int
	Status            Status
	ValidCategories   []string
	InvalidCategories []string
	IsPublic          bool
	OwnerOnly         bool
	OwnerID           string
	CreatedAt         time.Time
}

// Repository defines persistence operations for coupons.
type Repository interface {
	List(ctx context.Context) ([]Coupon, error)
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, code string) error
	// SetStatus overwrites the coupon's status without touching the limit.
	SetStatus(ctx context.Context, code string, status Status) error
	// ConsumeOne atomically decrements the redemption limit by one and flips
	// the status to redeemed_out when the limit reaches zero. It only
	// succeeds while the coupon is active with a positive limit; otherwise
	// it returns ErrRedeemedOut without modifying the row. The returned
	// coupon reflects the post-decrement state.
	ConsumeOne(ctx context.Context, code string) (*Coupon, error)
}
