package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
	"github.com/egannguyen/go-retail-backoffice/internal/repository"
)

// AnalyticsService turns the raw sale ledger into dense, UTC-anchored
// revenue series. It only reads committed data and takes no locks, so it can
// run concurrently with order transactions.
type AnalyticsService struct {
	sales repository.SaleRepository
	now   func() time.Time
}

func NewAnalyticsService(sales repository.SaleRepository) *AnalyticsService {
	return &AnalyticsService{sales: sales, now: time.Now}
}

// utcMidnight truncates t to the start of its UTC calendar day.
func utcMidnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RevenueByDay returns exactly dayCount buckets starting at start's UTC
// calendar day, zero-filled for days without sales.
func (s *AnalyticsService) RevenueByDay(ctx context.Context, start time.Time, dayCount int) ([]entity.DailyRevenue, error) {
	if dayCount <= 0 {
		return nil, fmt.Errorf("day count must be positive, got %d: %w", dayCount, entity.ErrInvalidInput)
	}

	from := utcMidnight(start)
	to := from.AddDate(0, 0, dayCount)
	rows, err := s.sales.DailyRevenue(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]entity.DailyRevenue, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r
	}

	out := make([]entity.DailyRevenue, 0, dayCount)
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if r, ok := byDate[key]; ok {
			out = append(out, r)
		} else {
			out = append(out, entity.DailyRevenue{Date: key})
		}
	}
	return out, nil
}

// RevenueByMonth returns twelve buckets for the given year, zero-filled.
func (s *AnalyticsService) RevenueByMonth(ctx context.Context, year int) ([]entity.MonthlyRevenue, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	rows, err := s.sales.DailyRevenue(ctx, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]entity.MonthlyRevenue, 12)
	for i := range out {
		out[i] = entity.MonthlyRevenue{Year: year, Month: i + 1}
	}
	for _, r := range rows {
		d, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			return nil, fmt.Errorf("malformed day bucket %q: %w", r.Date, err)
		}
		out[int(d.Month())-1].Revenue += r.Revenue
	}
	return out, nil
}

// RevenueByYear returns the most recent yearCount years ending at the
// current year, zero-filled.
func (s *AnalyticsService) RevenueByYear(ctx context.Context, yearCount int) ([]entity.YearlyRevenue, error) {
	if yearCount <= 0 {
		return nil, fmt.Errorf("year count must be positive, got %d: %w", yearCount, entity.ErrInvalidInput)
	}

	currentYear := s.now().UTC().Year()
	firstYear := currentYear - yearCount + 1
	from := time.Date(firstYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(currentYear+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows, err := s.sales.DailyRevenue(ctx, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]entity.YearlyRevenue, yearCount)
	for i := range out {
		out[i] = entity.YearlyRevenue{Year: firstYear + i}
	}
	for _, r := range rows {
		d, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			return nil, fmt.Errorf("malformed day bucket %q: %w", r.Date, err)
		}
		out[d.Year()-firstYear].Revenue += r.Revenue
	}
	return out, nil
}

// Summary compares the current calendar month to the previous one and the
// current year to the previous one.
func (s *AnalyticsService) Summary(ctx context.Context) (*entity.Summary, error) {
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	current, err := s.sales.Totals(ctx, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	previous, err := s.sales.Totals(ctx, monthStart.AddDate(0, -1, 0), monthStart)
	if err != nil {
		return nil, err
	}
	currentYear, err := s.sales.Totals(ctx, yearStart, yearStart.AddDate(1, 0, 0))
	if err != nil {
		return nil, err
	}
	previousYear, err := s.sales.Totals(ctx, yearStart.AddDate(-1, 0, 0), yearStart)
	if err != nil {
		return nil, err
	}

	return &entity.Summary{
		TotalRevenue:      current.Revenue,
		TotalOrders:       current.Orders,
		TotalProductsSold: current.Units,
		RevenueChangePct:  changePct(current.Revenue, previous.Revenue),
		OrdersChangePct:   changePct(int64(current.Orders), int64(previous.Orders)),
		ProductsChangePct: changePct(int64(current.Units), int64(previous.Units)),
		RevenueYoYPct:     changePct(currentYear.Revenue, previousYear.Revenue),
	}, nil
}

// TopProducts ranks products by all-time revenue.
func (s *AnalyticsService) TopProducts(ctx context.Context, limit int) ([]entity.TopProduct, error) {
	return s.sales.TopProducts(ctx, limit)
}

// changePct returns the percent change from previous to current. Both zero
// means no change (0); a zero previous with a non-zero current has no
// meaningful percentage and yields nil rather than a fabricated value.
func changePct(current, previous int64) *float64 {
	if previous == 0 {
		if current == 0 {
			zero := 0.0
			return &zero
		}
		return nil
	}
	pct := float64(current-previous) / math.Abs(float64(previous)) * 100
	return &pct
}
