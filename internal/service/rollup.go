package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
	"github.com/egannguyen/go-retail-backoffice/internal/repository"
)

// RollupProjector consumes sale-created events from the broker and folds
// them into the per-day analytics rollup. Delivery is at-least-once; the
// repository deduplicates by sale id, so redelivered events are harmless.
type RollupProjector struct {
	rollups repository.RollupRepository
}

func NewRollupProjector(rollups repository.RollupRepository) *RollupProjector {
	return &RollupProjector{rollups: rollups}
}

// HandleMessage processes one raw broker payload. Unknown event types are
// acknowledged and skipped so an evolving producer can't wedge the consumer.
func (p *RollupProjector) HandleMessage(ctx context.Context, payload []byte) error {
	var event entity.SaleCreated
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to unmarshal sale event: %w", err)
	}

	if event.Event != entity.EventSaleCreated {
		slog.Debug("Skipping unknown event", "event", event.Event)
		return nil
	}
	if event.Data.ID == "" {
		slog.Warn("Skipping sale event without id")
		return nil
	}

	if err := p.rollups.ApplySale(ctx, event.Data); err != nil {
		return fmt.Errorf("failed to apply sale %s to rollup: %w", event.Data.ID, err)
	}

	slog.Info("Rollup updated", "sale_id", event.Data.ID, "total_amount", event.Data.TotalAmount)
	return nil
}
