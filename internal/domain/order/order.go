// Package order implements the order placement workflow: line item and
// coupon validation, per-supplier sale generation, stock decrement, and
// cart clearing, executed as a single atomic unit.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/merxio/marketplace/internal/domain/user"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// ProductSnapshot is the subset of a catalog product that is denormalized
// into a line item at placement time. Later catalog edits do not affect
// placed orders.
type ProductSnapshot struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Images   string          `json:"images"`
	Price    decimal.Decimal `json:"price"`
	Discount int             `json:"discount"`
	OwnerID  string          `json:"ownerId"`
}

// LineItem is one (product, quantity, price) entry within an Order or Sale.
// UnitPrice is the effective per-unit price after any coupon discount.
type LineItem struct {
	Product   ProductSnapshot `json:"product"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Discount  int             `json:"discount,omitempty"`
}

// Order is the buyer-facing purchase aggregate. It owns its line items by
// copy; sales reference the order id for traceability only.
type Order struct {
	ID             string
	OwnerID        string
	OrderDate      time.Time
	ShippedDate    *time.Time
	ShipAddress    user.Address
	Details        []LineItem
	CouponCode     string
	CouponDiscount int
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// ListByOwner returns the user's orders, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]Order, error)
	Delete(ctx context.Context, id string) error
}
