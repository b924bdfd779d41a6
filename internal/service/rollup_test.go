package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
	"github.com/egannguyen/go-retail-backoffice/internal/repository/memory"
)

func saleCreatedPayload(t *testing.T, sale entity.Sale) []byte {
	t.Helper()
	payload, err := json.Marshal(entity.NewSaleCreated(sale))
	require.NoError(t, err)
	return payload
}

func TestRollupProjector_AppliesSale(t *testing.T) {
	mem := memory.New(time.Second)
	projector := NewRollupProjector(mem)
	ctx := context.Background()

	sale := entity.Sale{
		ID: "s1", ProductID: "p1", StaffID: "staff-a",
		Quantity: 2, TotalAmount: 800, SoldAt: day("2024-04-01").Add(12 * time.Hour),
	}
	require.NoError(t, projector.HandleMessage(ctx, saleCreatedPayload(t, sale)))

	rollup, err := mem.FindRollup(ctx, "2024-04-01")
	require.NoError(t, err)
	assert.Equal(t, int64(800), rollup.Revenue)
	assert.Equal(t, 1, rollup.Orders)
	assert.Equal(t, 2, rollup.Units)
}

func TestRollupProjector_DuplicateDeliveryCountedOnce(t *testing.T) {
	mem := memory.New(time.Second)
	projector := NewRollupProjector(mem)
	ctx := context.Background()

	sale := entity.Sale{
		ID: "s1", ProductID: "p1", StaffID: "staff-a",
		Quantity: 1, TotalAmount: 500, SoldAt: day("2024-04-01"),
	}
	payload := saleCreatedPayload(t, sale)

	require.NoError(t, projector.HandleMessage(ctx, payload))
	require.NoError(t, projector.HandleMessage(ctx, payload))

	rollup, err := mem.FindRollup(ctx, "2024-04-01")
	require.NoError(t, err)
	assert.Equal(t, int64(500), rollup.Revenue)
	assert.Equal(t, 1, rollup.Orders)
}

func TestRollupProjector_SkipsUnknownEvent(t *testing.T) {
	mem := memory.New(time.Second)
	projector := NewRollupProjector(mem)

	err := projector.HandleMessage(context.Background(),
		[]byte(`{"event":"product.updated","data":{"id":"x"}}`))

	assert.NoError(t, err)
}

func TestRollupProjector_RejectsMalformedPayload(t *testing.T) {
	projector := NewRollupProjector(memory.New(time.Second))

	err := projector.HandleMessage(context.Background(), []byte("{not json"))

	assert.Error(t, err)
}
