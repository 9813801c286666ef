// Package catalog holds the product and category entities of the
// marketplace and the repository contracts for reading and mutating them.
package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned by DecrementStock when the remaining
	// stock does not cover the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Status enumerates the lifecycle states of a catalog product.
type Status string

const (
	StatusAvailable    Status = "available"
	StatusOutOfStock   Status = "out_of_stock"
	StatusNotAvailable Status = "not_available"
	StatusDiscontinued Status = "discontinued"
	StatusOnPromotion  Status = "on_promotion"
)

// ValidStatus reports whether s is one of the known product statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusAvailable, StatusOutOfStock, StatusNotAvailable, StatusDiscontinued, StatusOnPromotion:
		return true
	}
	return false
}

// Condition enumerates the physical condition of a product.
type Condition string

const (
	ConditionNew         Condition = "new"
	ConditionUsedLikeNew Condition = "used_like_new"
	ConditionUsedGood    Condition = "used_good"
	ConditionUsedFair    Condition = "used_fair"
)

// ValidCondition reports whether c is one of the known product conditions.
func ValidCondition(c Condition) bool {
	switch c {
	case ConditionNew, ConditionUsedLikeNew, ConditionUsedGood, ConditionUsedFair:
		return true
	}
	return false
}

// Product is a catalog item offered by a supplier. OwnerID identifies the
// supplier; sales generated from an order are grouped by it.
type Product struct {
	ID          string
	Name        string
	Description string
	Images      string
	Stock       int
	Price       decimal.Decimal
	Discount    int
	Status      Status
	Condition   Condition
	CategoryID  string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListFilter narrows a product listing. Zero values mean "no restriction".
type ListFilter struct {
	CategoryID string
	OwnerID    string
	Limit      int
	Offset     int
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context, f ListFilter) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	// DecrementStock atomically subtracts qty from the product's stock.
	// It fails with ErrInsufficientStock when stock < qty, leaving the row
	// untouched, and with ErrNotFound when the product does not exist.
	DecrementStock(ctx context.Context, id string, qty int) error
}
