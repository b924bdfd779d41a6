package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
	"github.com/egannguyen/go-retail-backoffice/internal/repository"
)

// lockNotAvailable is the Postgres error code raised when lock_timeout
// expires while waiting on the row lock.
const lockNotAvailable = "55P03"

type store struct {
	db       *sqlx.DB
	lockWait time.Duration
}

// NewStore creates a Store whose sale transactions lock product rows with
// SELECT ... FOR UPDATE, bounded by lockWait.
func NewStore(db *sqlx.DB, lockWait time.Duration) repository.Store {
	return &store{db: db, lockWait: lockWait}
}

type saleTx struct {
	tx *sqlx.Tx
}

func (t *saleTx) ProductForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	err := t.tx.GetContext(ctx, &p,
		"SELECT id, name, price, stock FROM products WHERE id = $1 FOR UPDATE", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, entity.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == lockNotAvailable {
		return nil, fmt.Errorf("lease on product %s: %w", id, entity.ErrBusy)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock product %s: %w", id, err)
	}
	return &p, nil
}

func (t *saleTx) Staff(ctx context.Context, id string) (*entity.StaffRef, error) {
	var st entity.StaffRef
	err := t.tx.GetContext(ctx, &st,
		"SELECT id, username, role FROM staff WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("staff %s: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query staff %s: %w", id, err)
	}
	return &st, nil
}

func (t *saleTx) UpdateProductStock(ctx context.Context, id string, stock int) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE products SET stock = $1 WHERE id = $2", stock, id)
	if err != nil {
		return fmt.Errorf("failed to update stock for product %s: %w", id, err)
	}
	return nil
}

func (t *saleTx) InsertSale(ctx context.Context, sale *entity.Sale) error {
	_, err := t.tx.NamedExecContext(ctx, `
		INSERT INTO sales (id, product_id, staff_id, quantity, total_amount, sold_at)
		VALUES (:id, :product_id, :staff_id, :quantity, :total_amount, :sold_at)`, sale)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}
	return nil
}

// InTx runs fn inside one database transaction with a bounded row-lock wait.
// Any error from fn rolls the whole transaction back.
func (s *store) InTx(ctx context.Context, fn func(tx repository.SaleTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// lock_timeout only accepts a literal, not a bind parameter.
	_, err = tx.ExecContext(ctx,
		fmt.Sprintf("SET LOCAL lock_timeout = %d", s.lockWait.Milliseconds()))
	if err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}

	if err := fn(&saleTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
