package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrCategoryNotFound is returned when a requested category does not exist.
var ErrCategoryNotFound = errors.New("category not found")

// Category groups products for browsing and coupon restrictions.
type Category struct {
	ID          string
	Name        string
	Description string
	Picture     string
	CreatedAt   time.Time
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
}
