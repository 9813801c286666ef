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
	saleColumns = `id, order_id, order_date, details, customer_id, ship_address, status, owner_id`

	createSaleSQL = `INSERT INTO sales
		(id, order_id, order_date, details, customer_id, ship_address, status, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getSaleByIDSQL = `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`

	listSalesByOwnerSQL = `SELECT ` + saleColumns + ` FROM sales
		WHERE owner_id = $1 ORDER BY order_date DESC, id`

	updateSaleStatusSQL = `UPDATE sales SET status = $2 WHERE id = $1 RETURNING ` + saleColumns

	deleteSaleSQL = `DELETE FROM sales WHERE id = $1`
)

var _ order.SaleRepository = (*SaleRepository)(nil)

// SaleRepository implements order.SaleRepository backed by PostgreSQL.
type SaleRepository struct {
	db querier
}

// NewSaleRepository returns a SaleRepository that uses the given pool.
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{db: pool}
}

// Create persists a new sale.
func (r *SaleRepository) Create(ctx context.Context, s *order.Sale) error {
	detailsJSON, err := json.Marshal(s.Details)
	if err != nil {
		return fmt.Errorf("marshaling sale details: %w", err)
	}
	addressJSON, err := json.Marshal(s.ShipAddress)
	if err != nil {
		return fmt.Errorf("marshaling ship address: %w", err)
	}

	_, err = r.db.Exec(ctx, createSaleSQL,
		s.ID, s.OrderID, s.OrderDate, detailsJSON, s.CustomerID,
		addressJSON, s.Status, s.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("creating sale %q: %w", s.ID, err)
	}
	return nil
}

// GetByID returns a single sale by its identifier.
func (r *SaleRepository) GetByID(ctx context.Context, id string) (*order.Sale, error) {
	rows, err := r.db.Query(ctx, getSaleByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting sale %q: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanSale)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrSaleNotFound
		}
		return nil, fmt.Errorf("getting sale %q: %w", id, err)
	}
	return &s, nil
}

// ListByOwner returns the supplier's sales, newest first.
func (r *SaleRepository) ListByOwner(ctx context.Context, ownerID string) ([]order.Sale, error) {
	rows, err := r.db.Query(ctx, listSalesByOwnerSQL, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing sales for supplier %q: %w", ownerID, err)
	}
	return pgx.CollectRows(rows, scanSale)
}

// UpdateStatus overwrites the sale's status and returns the updated sale.
func (r *SaleRepository) UpdateStatus(ctx context.Context, id string, status order.SaleStatus) (*order.Sale, error) {
	rows, err := r.db.Query(ctx, updateSaleStatusSQL, id, status)
	if err != nil {
		return nil, fmt.Errorf("updating status for sale %q: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanSale)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrSaleNotFound
		}
		return nil, fmt.Errorf("updating status for sale %q: %w", id, err)
	}
	return &s, nil
}

// Delete removes the sale; returns order.ErrSaleNotFound if absent.
func (r *SaleRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, deleteSaleSQL, id)
	if err != nil {
		return fmt.Errorf("deleting sale %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrSaleNotFound
	}
	return nil
}

func scanSale(row pgx.CollectableRow) (order.Sale, error) {
	var (
		s           order.Sale
		detailsJSON []byte
		addressJSON []byte
	)
	err := row.Scan(
		&s.ID, &s.OrderID, &s.OrderDate, &detailsJSON,
		&s.CustomerID, &addressJSON, &s.Status, &s.OwnerID,
	)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(detailsJSON, &s.Details); err != nil {
		return s, fmt.Errorf("unmarshaling sale details: %w", err)
	}
	if err := json.Unmarshal(addressJSON, &s.ShipAddress); err != nil {
		return s, fmt.Errorf("unmarshaling ship address: %w", err)
	}
	return s, nil
}
