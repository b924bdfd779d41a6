package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
	"github.com/egannguyen/go-retail-backoffice/internal/repository"
)

// SaleNotifier schedules downstream delivery of a committed sale. It must
// not block beyond enqueueing and must never affect the sale itself.
type SaleNotifier interface {
	NotifySaleCreated(sale entity.Sale)
}

// OrderService is the order processor: it owns the atomic sell operation
// and is the only writer of the sale ledger.
type OrderService struct {
	store    repository.Store
	sales    repository.SaleRepository
	products repository.ProductRepository
	notifier SaleNotifier
	now      func() time.Time
}

func NewOrderService(
	store repository.Store,
	sales repository.SaleRepository,
	products repository.ProductRepository,
	notifier SaleNotifier,
) *OrderService {
	return &OrderService{
		store:    store,
		sales:    sales,
		products: products,
		notifier: notifier,
		now:      time.Now,
	}
}

// RecordSale sells quantity units of a product on behalf of a staff member.
//
// The stock check, the decrement and the sale insert happen inside one
// transaction holding the exclusive product lease, so two concurrent sales
// of the same product are serialized and stock can never go negative in any
// committed state. The price is re-read under the lock and snapshotted into
// the sale. Notification happens after commit and cannot roll it back.
func (s *OrderService) RecordSale(ctx context.Context, productID, staffID string, quantity int) (*entity.Sale, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d: %w", quantity, entity.ErrInvalidInput)
	}
	if productID == "" || staffID == "" {
		return nil, fmt.Errorf("product and staff ids are required: %w", entity.ErrInvalidInput)
	}

	var sale *entity.Sale
	err := s.store.InTx(ctx, func(tx repository.SaleTx) error {
		product, err := tx.ProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		staff, err := tx.Staff(ctx, staffID)
		if err != nil {
			return err
		}

		if product.Stock < quantity {
			return fmt.Errorf("product %s has %d units, %d requested: %w",
				product.ID, product.Stock, quantity, entity.ErrInsufficientStock)
		}

		if err := tx.UpdateProductStock(ctx, product.ID, product.Stock-quantity); err != nil {
			return err
		}

		sale = &entity.Sale{
			ID:          uuid.New().String(),
			ProductID:   product.ID,
			StaffID:     staff.ID,
			Quantity:    quantity,
			TotalAmount: int64(quantity) * product.Price,
			SoldAt:      s.now().UTC(),
		}
		return tx.InsertSale(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Sale recorded",
		"sale_id", sale.ID, "product_id", sale.ProductID,
		"quantity", sale.Quantity, "total_amount", sale.TotalAmount)

	// Best effort, decoupled from the committed transaction.
	s.notifier.NotifySaleCreated(*sale)
	return sale, nil
}

// GetRecentSales returns the latest ledger entries, newest first.
func (s *OrderService) GetRecentSales(ctx context.Context, limit int) ([]entity.Sale, error) {
	return s.sales.FindRecent(ctx, limit)
}

// GetProducts returns the catalog.
func (s *OrderService) GetProducts(ctx context.Context) ([]entity.Product, error) {
	return s.products.FindAll(ctx)
}
