package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/merxio/marketplace/internal/domain/user"
)

// ErrSaleNotFound is returned when a requested sale does not exist.
var ErrSaleNotFound = errors.New("sale not found")

// SaleStatus enumerates the fulfillment states of a sale.
type SaleStatus string

const (
	SalePending   SaleStatus = "pending"
	SaleShipped   SaleStatus = "shipped"
	SaleCompleted SaleStatus = "completed"
	SaleCancelled SaleStatus = "cancelled"
)

// ValidSaleStatus reports whether s is one of the known sale statuses.
func ValidSaleStatus(s SaleStatus) bool {
	switch s {
	case SalePending, SaleShipped, SaleCompleted, SaleCancelled:
		return true
	}
	return false
}

// Sale is one supplier's fulfillment obligation for one order: the subset
// of the order's line items whose products the supplier owns, plus a copy
// of the ship address. Exactly one sale exists per distinct supplier in an
// order. Every line item's product owner equals the sale's OwnerID.
type Sale struct {
	ID          string
	OrderID     string
	OrderDate   time.Time
	Details     []LineItem
	CustomerID  string
	ShipAddress user.Address
	Status      SaleStatus
	OwnerID     string
}

// SaleRepository defines persistence operations for sales.
type SaleRepository interface {
	Create(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, id string) (*Sale, error)
	// ListByOwner returns the supplier's sales, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]Sale, error)
	// UpdateStatus overwrites the sale's status unconditionally. Any
	// transition between known statuses is accepted.
	UpdateStatus(ctx context.Context, id string, status SaleStatus) (*Sale, error)
	Delete(ctx context.Context, id string) error
}
