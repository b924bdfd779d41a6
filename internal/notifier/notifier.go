// Package notifier delivers sale-created events to the message broker,
// decoupled from the order transaction that produced them.
package notifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
	"github.com/egannguyen/go-retail-backoffice/internal/messaging"
)

// Config tunes the delivery policy.
type Config struct {
	Topic          string
	QueueSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	PublishTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Topic == "" {
		c.Topic = "sales.events"
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 200 * time.Millisecond
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 5 * time.Second
	}
	return c
}

// Notifier queues committed sales and publishes them at-least-once with a
// bounded number of retries. A delivery failure after all retries is logged
// as a warning; the sale itself stays committed.
type Notifier struct {
	cfg       Config
	publisher messaging.Publisher

	queue  chan entity.Sale
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	sleep func(context.Context, time.Duration) // test hook for backoff waits
}

func New(publisher messaging.Publisher, cfg Config) *Notifier {
	cfg = cfg.withDefaults()
	return &Notifier{
		cfg:       cfg,
		publisher: publisher,
		queue:     make(chan entity.Sale, cfg.QueueSize),
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Start launches the delivery worker. It runs until Stop or parent
// cancellation.
func (n *Notifier) Start(parent context.Context) {
	n.ctx, n.cancel = context.WithCancel(parent)
	n.wg.Add(1)
	go n.worker()
}

// Stop drains nothing further and waits for the in-flight delivery to
// finish.
func (n *Notifier) Stop() {
	if n.cancel != nil {
		n.cancel()
	}
	n.wg.Wait()
}

// NotifySaleCreated schedules delivery for a committed sale. It never blocks
// the caller: if the queue is full the event is dropped with a warning
// rather than stalling order processing.
func (n *Notifier) NotifySaleCreated(sale entity.Sale) {
	select {
	case n.queue <- sale:
	default:
		slog.Warn("Notifier queue full, dropping sale event", "sale_id", sale.ID)
	}
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for {
		select {
		case <-n.ctx.Done():
			return
		case sale := <-n.queue:
			n.deliver(sale)
		}
	}
}

// deliver publishes one event, retrying with exponential backoff. Exhausting
// the retries is non-fatal: the failure is surfaced as a warning only.
func (n *Notifier) deliver(sale entity.Sale) {
	event := entity.NewSaleCreated(sale)
	backoff := n.cfg.InitialBackoff

	for attempt := 1; attempt <= n.cfg.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(n.ctx, n.cfg.PublishTimeout)
		err := n.publisher.PublishEvent(ctx, n.cfg.Topic, sale.ID, event)
		cancel()
		if err == nil {
			slog.Info("Sale event published", "sale_id", sale.ID, "attempt", attempt)
			return
		}

		slog.Error("Failed to publish sale event",
			"sale_id", sale.ID, "attempt", attempt, "err", err)

		if attempt < n.cfg.MaxAttempts {
			n.sleep(n.ctx, backoff)
			backoff *= 2
		}
		if n.ctx.Err() != nil {
			return
		}
	}

	slog.Warn("Sale event delivery failed after all retries, giving up",
		"sale_id", sale.ID, "attempts", n.cfg.MaxAttempts)
}
