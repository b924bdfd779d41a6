package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
	"github.com/egannguyen/go-retail-backoffice/internal/repository"
)

type saleRepository struct {
	db *sqlx.DB
}

// NewSaleRepository creates the read side of the sale ledger on Postgres.
func NewSaleRepository(db *sqlx.DB) repository.SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) FindRecent(ctx context.Context, limit int) ([]entity.Sale, error) {
	if limit <= 0 {
		limit = 50
	}
	var sales []entity.Sale
	err := r.db.SelectContext(ctx, &sales, `
		SELECT id, product_id, staff_id, quantity, total_amount, sold_at
		FROM sales ORDER BY sold_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	return sales, nil
}

// Day boundaries are computed in UTC on the database side so the bucket keys
// match the service's UTC anchoring no matter the session timezone.
const dailyRevenueSelect = `
	SELECT to_char(sold_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
	       SUM(total_amount) AS revenue,
	       COUNT(*) AS orders,
	       SUM(quantity) AS units
	FROM sales`

func (r *saleRepository) DailyRevenue(ctx context.Context, from, to time.Time) ([]entity.DailyRevenue, error) {
	var rows []entity.DailyRevenue
	err := r.db.SelectContext(ctx, &rows,
		dailyRevenueSelect+" WHERE sold_at >= $1 AND sold_at < $2 GROUP BY day ORDER BY day",
		from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily revenue: %w", err)
	}
	return rows, nil
}

func (r *saleRepository) DailyRevenueAll(ctx context.Context) ([]entity.DailyRevenue, error) {
	var rows []entity.DailyRevenue
	err := r.db.SelectContext(ctx, &rows, dailyRevenueSelect+" GROUP BY day ORDER BY day")
	if err != nil {
		return nil, fmt.Errorf("failed to query daily revenue: %w", err)
	}
	return rows, nil
}

func (r *saleRepository) Totals(ctx context.Context, from, to time.Time) (*entity.Totals, error) {
	var t entity.Totals
	err := r.db.GetContext(ctx, &t, `
		SELECT COALESCE(SUM(total_amount), 0) AS revenue,
		       COUNT(*) AS orders,
		       COALESCE(SUM(quantity), 0) AS units
		FROM sales WHERE sold_at >= $1 AND sold_at < $2`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	return &t, nil
}

func (r *saleRepository) TopProducts(ctx context.Context, limit int) ([]entity.TopProduct, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []entity.TopProduct
	err := r.db.SelectContext(ctx, &rows, `
		SELECT s.product_id, COALESCE(p.name, '') AS name,
		       SUM(s.total_amount) AS revenue,
		       SUM(s.quantity) AS units
		FROM sales s
		LEFT JOIN products p ON p.id = s.product_id
		GROUP BY s.product_id, p.name
		ORDER BY revenue DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	return rows, nil
}
