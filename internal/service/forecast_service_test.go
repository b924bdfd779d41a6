package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
	"github.com/egannguyen/go-retail-backoffice/internal/repository/memory"
)

func TestForecastNextDays_LinearTrend(t *testing.T) {
	mem := memory.New(time.Second)
	svc := NewForecastService(mem)

	// Daily revenue 100, 200, 300 at indices 0, 1, 2:
	// slope 100, intercept 100, so index 3 predicts 400.
	addSale(t, mem, day("2024-01-01"), 1, 100)
	addSale(t, mem, day("2024-01-02"), 1, 200)
	addSale(t, mem, day("2024-01-03"), 1, 300)

	points, err := svc.ForecastNextDays(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, entity.ForecastPoint{DayOffset: 1, PredictedRevenue: 400}, points[0])
	assert.Equal(t, entity.ForecastPoint{DayOffset: 2, PredictedRevenue: 500}, points[1])
	assert.Equal(t, entity.ForecastPoint{DayOffset: 3, PredictedRevenue: 600}, points[2])
}

func TestForecastNextDays_Deterministic(t *testing.T) {
	mem := memory.New(time.Second)
	svc := NewForecastService(mem)

	addSale(t, mem, day("2024-01-01"), 1, 130)
	addSale(t, mem, day("2024-01-02"), 2, 410)
	addSale(t, mem, day("2024-01-05"), 1, 275)

	first, err := svc.ForecastNextDays(context.Background(), 7)
	require.NoError(t, err)
	second, err := svc.ForecastNextDays(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestForecastNextDays_IndexBasedOverGaps(t *testing.T) {
	mem := memory.New(time.Second)
	svc := NewForecastService(mem)

	// Calendar gaps don't matter: the regression runs over day indices, so
	// this is the same 100/200/300 series as three consecutive days.
	addSale(t, mem, day("2024-01-01"), 1, 100)
	addSale(t, mem, day("2024-01-02"), 1, 200)
	addSale(t, mem, day("2024-01-09"), 1, 300)

	points, err := svc.ForecastNextDays(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, int64(400), points[0].PredictedRevenue)
}

func TestForecastNextDays_InsufficientData(t *testing.T) {
	mem := memory.New(time.Second)
	svc := NewForecastService(mem)
	ctx := context.Background()

	_, err := svc.ForecastNextDays(ctx, 7)
	assert.ErrorIs(t, err, entity.ErrInsufficientData)

	// Several sales on a single day are still one bucket.
	addSale(t, mem, day("2024-01-01").Add(9*time.Hour), 1, 100)
	addSale(t, mem, day("2024-01-01").Add(17*time.Hour), 1, 200)

	_, err = svc.ForecastNextDays(ctx, 7)
	assert.ErrorIs(t, err, entity.ErrInsufficientData)
}

func TestForecastNextDays_InvalidHorizon(t *testing.T) {
	svc := NewForecastService(memory.New(time.Second))

	_, err := svc.ForecastNextDays(context.Background(), 0)

	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}
