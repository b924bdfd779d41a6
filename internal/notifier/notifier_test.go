package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
)

type flakyPublisher struct {
	mu      sync.Mutex
	failFor int // number of initial calls that fail
	calls   int
	events  []entity.SaleCreated
	topics  []string
	keys    []string
}

func (p *flakyPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failFor {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event.(entity.SaleCreated))
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, key)
	return nil
}

func (p *flakyPublisher) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *flakyPublisher) Delivered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func testConfig() Config {
	return Config{
		Topic:          "sales.events",
		QueueSize:      8,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		PublishTimeout: time.Second,
	}
}

func testSale() entity.Sale {
	return entity.Sale{
		ID: "sale-1", ProductID: "p1", StaffID: "staff-a",
		Quantity: 2, TotalAmount: 2000, SoldAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNotifier_PublishesEnvelope(t *testing.T) {
	pub := &flakyPublisher{}
	n := New(pub, testConfig())
	n.Start(context.Background())
	defer n.Stop()

	n.NotifySaleCreated(testSale())

	require.Eventually(t, func() bool { return pub.Delivered() == 1 },
		time.Second, 5*time.Millisecond)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	event := pub.events[0]
	assert.Equal(t, "sale.created", event.Event)
	assert.Equal(t, "sale-1", event.Data.ID)
	assert.Equal(t, int64(2000), event.Data.TotalAmount)
	assert.Equal(t, "sales.events", pub.topics[0])
	assert.Equal(t, "sale-1", pub.keys[0])
}

func TestNotifier_RetriesTransientFailures(t *testing.T) {
	pub := &flakyPublisher{failFor: 2}
	n := New(pub, testConfig())
	n.Start(context.Background())
	defer n.Stop()

	n.NotifySaleCreated(testSale())

	require.Eventually(t, func() bool { return pub.Delivered() == 1 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, pub.Calls())
}

func TestNotifier_GivesUpAfterMaxAttempts(t *testing.T) {
	pub := &flakyPublisher{failFor: 1000}
	n := New(pub, testConfig())
	n.Start(context.Background())
	defer n.Stop()

	n.NotifySaleCreated(testSale())

	// All three attempts burn out and the sale stays undelivered but the
	// worker keeps running.
	require.Eventually(t, func() bool { return pub.Calls() == 3 },
		time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 3, pub.Calls())
	assert.Zero(t, pub.Delivered())

	// The next event is processed independently of the failed one.
	pub.mu.Lock()
	pub.failFor = 0
	pub.calls = 0
	pub.mu.Unlock()
	n.NotifySaleCreated(testSale())
	require.Eventually(t, func() bool { return pub.Delivered() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestNotifier_NeverBlocksCaller(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 1
	n := New(&flakyPublisher{failFor: 1000}, cfg)
	// Worker intentionally not started: the queue fills immediately.

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			n.NotifySaleCreated(testSale())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifySaleCreated blocked on a full queue")
	}
}
