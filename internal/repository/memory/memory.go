// Package memory implements the repository interfaces on an in-process
// store. It backs the service tests and the STORE=memory dev mode, and
// realizes the exclusive product lease as a per-key binary semaphore with a
// bounded wait.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
	"github.com/egannguyen/go-retail-backoffice/internal/repository"
)

// Store holds all retail state behind one RWMutex. Sale transactions stage
// their writes and apply them on commit only, so a failed transaction leaves
// no trace and readers never observe a decrement without its sale.
type Store struct {
	mu       sync.RWMutex
	products map[string]entity.Product
	staff    map[string]entity.StaffRef
	sales    []entity.Sale

	rollups  map[string]*entity.DailyRevenue
	applied  map[string]struct{}

	leaseMu  sync.Mutex
	leases   map[string]chan struct{}
	lockWait time.Duration
}

// New creates an empty Store. lockWait bounds how long a transaction waits
// for a product lease before failing with entity.ErrBusy.
func New(lockWait time.Duration) *Store {
	return &Store{
		products: make(map[string]entity.Product),
		staff:    make(map[string]entity.StaffRef),
		rollups:  make(map[string]*entity.DailyRevenue),
		applied:  make(map[string]struct{}),
		leases:   make(map[string]chan struct{}),
		lockWait: lockWait,
	}
}

// acquire takes the binary semaphore for a product id, waiting at most
// lockWait. Cancellation is honored only while waiting, matching the rule
// that a transaction past its lock acquisition runs to completion.
func (s *Store) acquire(ctx context.Context, id string) (release func(), err error) {
	s.leaseMu.Lock()
	ch, ok := s.leases[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.leases[id] = ch
	}
	s.leaseMu.Unlock()

	timer := time.NewTimer(s.lockWait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-timer.C:
		return nil, fmt.Errorf("lease on product %s: %w", id, entity.ErrBusy)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type saleTx struct {
	store *Store

	releases    []func()
	stagedStock map[string]int
	stagedSales []entity.Sale
}

func (t *saleTx) ProductForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	release, err := t.store.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	t.releases = append(t.releases, release)

	t.store.mu.RLock()
	p, ok := t.store.products[id]
	t.store.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, entity.ErrNotFound)
	}
	if stock, staged := t.stagedStock[id]; staged {
		p.Stock = stock
	}
	return &p, nil
}

func (t *saleTx) Staff(ctx context.Context, id string) (*entity.StaffRef, error) {
	t.store.mu.RLock()
	st, ok := t.store.staff[id]
	t.store.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("staff %s: %w", id, entity.ErrNotFound)
	}
	return &st, nil
}

func (t *saleTx) UpdateProductStock(ctx context.Context, id string, stock int) error {
	if stock < 0 {
		return fmt.Errorf("stock for product %s would go negative: %w", id, entity.ErrInsufficientStock)
	}
	t.stagedStock[id] = stock
	return nil
}

func (t *saleTx) InsertSale(ctx context.Context, sale *entity.Sale) error {
	t.stagedSales = append(t.stagedSales, *sale)
	return nil
}

// InTx runs fn as one atomic sale transaction. Staged writes become visible
// only after fn returns nil; leases are held until then.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.SaleTx) error) error {
	t := &saleTx{store: s, stagedStock: make(map[string]int)}
	defer func() {
		for _, release := range t.releases {
			release()
		}
	}()

	if err := fn(t); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, stock := range t.stagedStock {
		p := s.products[id]
		p.Stock = stock
		s.products[id] = p
	}
	s.sales = append(s.sales, t.stagedSales...)
	return nil
}

// --- ProductRepository ---

func (s *Store) FindAll(ctx context.Context) ([]entity.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, entity.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) Seed(ctx context.Context, products []entity.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.products) > 0 {
		return nil
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return nil
}

// --- StaffRepository ---

type staffRepo struct{ s *Store }

// StaffRepo returns the staff view of the store.
func (s *Store) StaffRepo() repository.StaffRepository { return staffRepo{s} }

func (r staffRepo) FindByID(ctx context.Context, id string) (*entity.StaffRef, error) {
	return r.s.findStaffByID(ctx, id)
}

func (r staffRepo) Seed(ctx context.Context, staff []entity.StaffRef) error {
	return r.s.seedStaff(ctx, staff)
}

func (s *Store) findStaffByID(ctx context.Context, id string) (*entity.StaffRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.staff[id]
	if !ok {
		return nil, fmt.Errorf("staff %s: %w", id, entity.ErrNotFound)
	}
	return &st, nil
}

func (s *Store) seedStaff(ctx context.Context, staff []entity.StaffRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.staff) > 0 {
		return nil
	}
	for _, st := range staff {
		s.staff[st.ID] = st
	}
	return nil
}

// --- SaleRepository ---

func (s *Store) FindRecent(ctx context.Context, limit int) ([]entity.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Sale, len(s.sales))
	copy(out, s.sales)
	sort.Slice(out, func(i, j int) bool { return out[i].SoldAt.After(out[j].SoldAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DailyRevenue(ctx context.Context, from, to time.Time) ([]entity.DailyRevenue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return bucketByDay(s.sales, func(sale entity.Sale) bool {
		return !sale.SoldAt.Before(from) && sale.SoldAt.Before(to)
	}), nil
}

func (s *Store) DailyRevenueAll(ctx context.Context) ([]entity.DailyRevenue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return bucketByDay(s.sales, func(entity.Sale) bool { return true }), nil
}

func bucketByDay(sales []entity.Sale, include func(entity.Sale) bool) []entity.DailyRevenue {
	buckets := make(map[string]*entity.DailyRevenue)
	for _, sale := range sales {
		if !include(sale) {
			continue
		}
		day := sale.SoldAt.UTC().Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			b = &entity.DailyRevenue{Date: day}
			buckets[day] = b
		}
		b.Revenue += sale.TotalAmount
		b.Orders++
		b.Units += sale.Quantity
	}
	out := make([]entity.DailyRevenue, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (s *Store) Totals(ctx context.Context, from, to time.Time) (*entity.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var t entity.Totals
	for _, sale := range s.sales {
		if sale.SoldAt.Before(from) || !sale.SoldAt.Before(to) {
			continue
		}
		t.Revenue += sale.TotalAmount
		t.Orders++
		t.Units += sale.Quantity
	}
	return &t, nil
}

func (s *Store) TopProducts(ctx context.Context, limit int) ([]entity.TopProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byProduct := make(map[string]*entity.TopProduct)
	for _, sale := range s.sales {
		tp, ok := byProduct[sale.ProductID]
		if !ok {
			tp = &entity.TopProduct{ProductID: sale.ProductID}
			if p, found := s.products[sale.ProductID]; found {
				tp.Name = p.Name
			}
			byProduct[sale.ProductID] = tp
		}
		tp.Revenue += sale.TotalAmount
		tp.Units += sale.Quantity
	}
	out := make([]entity.TopProduct, 0, len(byProduct))
	for _, tp := range byProduct {
		out = append(out, *tp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- RollupRepository ---

func (s *Store) ApplySale(ctx context.Context, data entity.SaleCreatedData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.applied[data.ID]; seen {
		return nil
	}
	s.applied[data.ID] = struct{}{}

	day := data.SoldAt.UTC().Format("2006-01-02")
	r, ok := s.rollups[day]
	if !ok {
		r = &entity.DailyRevenue{Date: day}
		s.rollups[day] = r
	}
	r.Revenue += data.TotalAmount
	r.Orders++
	r.Units += data.Quantity
	return nil
}

func (s *Store) FindRollup(ctx context.Context, day string) (*entity.DailyRevenue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rollups[day]
	if !ok {
		return nil, fmt.Errorf("rollup for %s: %w", day, entity.ErrNotFound)
	}
	out := *r
	return &out, nil
}
