package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/merxio/marketplace/internal/domain/order"
)

const (
	orderColumns = `id, owner_id, order_date, shipped_date, ship_address, details, coupon_code, coupon_discount`

	createOrderSQL = `INSERT INTO orders
		(id, owner_id, order_date, ship_address, details, coupon_code, coupon_discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByOwnerSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE owner_id = $1 ORDER BY order_date DESC, id`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. The
// ship address and line items are serialized to JSONB.
type OrderRepository struct {
	db querier
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	detailsJSON, err := json.Marshal(o.Details)
	if err != nil {
		return fmt.Errorf("marshaling order details: %w", err)
	}
	addressJSON, err := json.Marshal(o.ShipAddress)
	if err != nil {
		return fmt.Errorf("marshaling ship address: %w", err)
	}

	_, err = r.db.Exec(ctx, createOrderSQL,
		o.ID, o.OwnerID, o.OrderDate, addressJSON, detailsJSON,
		o.CouponCode, o.CouponDiscount,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.db.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// ListByOwner returns the user's orders, newest first.
func (r *OrderRepository) ListByOwner(ctx context.Context, ownerID string) ([]order.Order, error) {
	rows, err := r.db.Query(ctx, listOrdersByOwnerSQL, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", ownerID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Delete removes the order; returns order.ErrNotFound if absent. Sales
// referencing the order are intentionally left in place.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o           order.Order
		addressJSON []byte
		detailsJSON []byte
	)
	err := row.Scan(
		&o.ID, &o.OwnerID, &o.OrderDate, &o.ShippedDate,
		&addressJSON, &detailsJSON, &o.CouponCode, &o.CouponDiscount,
	)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(addressJSON, &o.ShipAddress); err != nil {
		return o, fmt.Errorf("unmarshaling ship address: %w", err)
	}
	if err := json.Unmarshal(detailsJSON, &o.Details); err != nil {
		return o, fmt.Errorf("unmarshaling order details: %w", err)
	}
	return o, nil
}
