package service

import (
	"context"
	"fmt"
	"math"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
	"github.com/egannguyen/go-retail-backoffice/internal/repository"
)

// ForecastService projects future daily revenue with an ordinary
// least-squares fit over the per-day revenue series. The projection is a
// pure function of the ledger: the same history always yields the same
// forecast.
type ForecastService struct {
	sales repository.SaleRepository
}

func NewForecastService(sales repository.SaleRepository) *ForecastService {
	return &ForecastService{sales: sales}
}

// ForecastNextDays extrapolates n points past the end of the daily series.
// Day indices 0..k-1 are the independent variable, per-day revenue the
// dependent one. Fewer than two distinct sale days yields
// entity.ErrInsufficientData.
func (s *ForecastService) ForecastNextDays(ctx context.Context, n int) ([]entity.ForecastPoint, error) {
	if n <= 0 {
		return nil, fmt.Errorf("forecast horizon must be positive, got %d: %w", n, entity.ErrInvalidInput)
	}

	days, err := s.sales.DailyRevenueAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(days) < 2 {
		return nil, fmt.Errorf("need at least 2 sale days, have %d: %w", len(days), entity.ErrInsufficientData)
	}

	slope, intercept := leastSquares(days)

	out := make([]entity.ForecastPoint, 0, n)
	for i := 1; i <= n; i++ {
		nextIndex := float64(len(days) + i - 1)
		predicted := intercept + slope*nextIndex
		out = append(out, entity.ForecastPoint{
			DayOffset:        i,
			PredictedRevenue: int64(math.Round(predicted)),
		})
	}
	return out, nil
}

// leastSquares fits revenue = intercept + slope*index over the series.
func leastSquares(days []entity.DailyRevenue) (slope, intercept float64) {
	n := float64(len(days))
	var sumX, sumY, sumXY, sumX2 float64
	for i, d := range days {
		x := float64(i)
		y := float64(d.Revenue)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		// Cannot happen with >= 2 distinct indices, but keep the guard.
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}
