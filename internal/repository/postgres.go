// Package repository implements the domain repository interfaces on
// PostgreSQL via pgx.
package repository

import (
	"context"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/merxio/marketplace/db"
	"github.com/merxio/marketplace/internal/domain/order"
)

// querier is the subset of pgx operations shared by *pgxpool.Pool and
// pgx.Tx. Repositories run against either, so the same implementation
// serves both pooled calls and transaction-scoped calls.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool creates a pgxpool.Pool configured with shopspring/decimal support
// for NUMERIC columns.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, db.Schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

var _ order.TxRunner = (*TxRunner)(nil)

// TxRunner implements order.TxRunner: it opens one pgx transaction and
// hands the workflow repository instances bound to it, so the whole order
// placement commits or rolls back as a unit.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner returns a TxRunner that uses the given pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// InTx runs fn inside a single transaction. An error from fn rolls the
// transaction back and is returned unchanged so callers can classify it.
func (r *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context, s order.Stores) error) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(ctx, order.Stores{
			Orders:   &OrderRepository{db: tx},
			Sales:    &SaleRepository{db: tx},
			Products: &ProductRepository{db: tx},
			Coupons:  &CouponRepository{db: tx},
			Users:    &UserRepository{db: tx},
		})
	})
}
