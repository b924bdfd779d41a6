package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
	"github.com/egannguyen/go-retail-backoffice/internal/repository"
)

type rollupRepository struct {
	db *sqlx.DB
}

// NewRollupRepository creates the analytics rollup projection on Postgres.
func NewRollupRepository(db *sqlx.DB) repository.RollupRepository {
	return &rollupRepository{db: db}
}

// ApplySale folds one sale-created event into the per-day rollup. The sale id
// is recorded first with ON CONFLICT DO NOTHING so a redelivered event is
// counted exactly once.
func (r *rollupRepository) ApplySale(ctx context.Context, data entity.SaleCreatedData) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rollup transaction: %w", err)
	}
	defer tx.Rollback()

	var applied bool
	err = tx.QueryRowContext(ctx,
		"INSERT INTO applied_sale_events (sale_id) VALUES ($1) ON CONFLICT (sale_id) DO NOTHING RETURNING true",
		data.ID,
	).Scan(&applied)
	if errors.Is(err, sql.ErrNoRows) {
		// Duplicate delivery, already counted.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to record sale event %s: %w", data.ID, err)
	}

	day := data.SoldAt.UTC().Format("2006-01-02")
	_, err = tx.ExecContext(ctx, `
		INSERT INTO daily_rollups (day, revenue, orders, units)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (day) DO UPDATE SET
			revenue = daily_rollups.revenue + EXCLUDED.revenue,
			orders = daily_rollups.orders + 1,
			units = daily_rollups.units + EXCLUDED.units`,
		day, data.TotalAmount, data.Quantity)
	if err != nil {
		return fmt.Errorf("failed to upsert rollup for %s: %w", day, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rollup: %w", err)
	}
	return nil
}

func (r *rollupRepository) FindRollup(ctx context.Context, day string) (*entity.DailyRevenue, error) {
	var out entity.DailyRevenue
	err := r.db.GetContext(ctx, &out, `
		SELECT to_char(day, 'YYYY-MM-DD') AS day, revenue, orders, units
		FROM daily_rollups WHERE day = $1`, day)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rollup for %s: %w", day, entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rollup for %s: %w", day, err)
	}
	return &out, nil
}
