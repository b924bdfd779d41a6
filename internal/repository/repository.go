package repository

import (
	"context"
	"time"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
)

// SaleTx is the write surface available inside one atomic sale transaction.
type SaleTx interface {
	// ProductForUpdate resolves the product and acquires the exclusive
	// per-product lease for the remainder of the transaction. It returns
	// entity.ErrNotFound if the id does not resolve and entity.ErrBusy if
	// the lease could not be acquired within the store's bounded wait.
	ProductForUpdate(ctx context.Context, id string) (*entity.Product, error)

	// Staff resolves a staff reference or returns entity.ErrNotFound.
	Staff(ctx context.Context, id string) (*entity.StaffRef, error)

	// UpdateProductStock persists a new stock counter for a product whose
	// lease is held by this transaction.
	UpdateProductStock(ctx context.Context, id string, stock int) error

	// InsertSale appends a sale to the ledger.
	InsertSale(ctx context.Context, sale *entity.Sale) error
}

// Store opens atomic sale transactions. If fn returns an error nothing it
// did is observable; on nil the decrement and the sale commit together.
type Store interface {
	InTx(ctx context.Context, fn func(tx SaleTx) error) error
}

// ProductRepository handles read access to the catalog.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]entity.Product, error)
	FindByID(ctx context.Context, id string) (*entity.Product, error)
	// Seed inserts initial products if none exist.
	Seed(ctx context.Context, products []entity.Product) error
}

// StaffRepository resolves staff references owned by user management.
type StaffRepository interface {
	FindByID(ctx context.Context, id string) (*entity.StaffRef, error)
	// Seed inserts initial staff accounts if none exist.
	Seed(ctx context.Context, staff []entity.StaffRef) error
}

// SaleRepository is the read side of the sale ledger. All methods observe
// committed data only; none of them take locks.
type SaleRepository interface {
	FindRecent(ctx context.Context, limit int) ([]entity.Sale, error)

	// DailyRevenue returns per-day totals for sales with from <= sold_at < to,
	// UTC calendar days, chronological, days without sales omitted.
	DailyRevenue(ctx context.Context, from, to time.Time) ([]entity.DailyRevenue, error)

	// DailyRevenueAll returns per-day totals over the whole ledger,
	// chronological, days without sales omitted.
	DailyRevenueAll(ctx context.Context) ([]entity.DailyRevenue, error)

	// Totals aggregates the half-open window from <= sold_at < to.
	Totals(ctx context.Context, from, to time.Time) (*entity.Totals, error)

	TopProducts(ctx context.Context, limit int) ([]entity.TopProduct, error)
}

// RollupRepository is the projection maintained by the analytics consumer.
// ApplySale must be idempotent per sale id: redelivered events are counted
// once.
type RollupRepository interface {
	ApplySale(ctx context.Context, data entity.SaleCreatedData) error
	FindRollup(ctx context.Context, day string) (*entity.DailyRevenue, error)
}
