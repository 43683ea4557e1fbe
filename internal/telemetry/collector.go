// Package telemetry queues client events in the local outbox and ships them
// to the backend in batches. Delivery is at least once: rows are removed only
// after the server accepts the batch.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reelfeed/internal/api"
	"reelfeed/internal/config"
	"reelfeed/internal/logging"
)

// Event types recorded by the client.
const (
	EventEpisodeViewed     = "episode_viewed"
	EventPlaybackStarted   = "playback_started"
	EventEpisodeUnlocked   = "episode_unlocked"
	EventPurchaseInitiated = "purchase_initiated"
)

// Outbox is the persistent event queue. *statedb.Store satisfies it.
type Outbox interface {
	AppendEvent(ctx context.Context, event api.Event) error
	TrimOutbox(ctx context.Context, max int) error
	NextBatch(ctx context.Context, limit int) ([]api.Event, error)
	DeleteEvents(ctx context.Context, ids []string) error
}

// Sender ships event batches to the backend. *api.Client satisfies it.
type Sender interface {
	SendTelemetry(ctx context.Context, events []api.Event) error
}

// Option configures a Collector.
type Option func(*Collector)

// WithBatchSize sets how many events one flush request carries.
func WithBatchSize(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithMaxQueued bounds the outbox; the oldest rows are dropped past it.
func WithMaxQueued(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.maxQueued = n
		}
	}
}

// WithNow overrides the clock (used in tests).
func WithNow(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.log = logger.With(logging.FieldComponent, "telemetry")
		}
	}
}

// WithFlushInterval sets the minimum time between opportunistic flushes.
func WithFlushInterval(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.flushInterval = d
		}
	}
}

// Collector writes events through the outbox and drains it on Flush.
type Collector struct {
	outbox        Outbox
	sender        Sender
	enabled       bool
	batchSize     int
	maxQueued     int
	flushInterval time.Duration
	lastFlush     time.Time
	now           func() time.Time
	log           *slog.Logger
}

// New builds a collector with default sizing.
func New(outbox Outbox, sender Sender, opts ...Option) *Collector {
	c := &Collector{
		outbox:        outbox,
		sender:        sender,
		enabled:       true,
		batchSize:     25,
		maxQueued:     1000,
		flushInterval: 30 * time.Second,
		now:           time.Now,
		log:           logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lastFlush = c.now()
	return c
}

// NewFromConfig builds a collector sized from configuration. A disabled
// telemetry section yields a collector whose Record and Flush are no-ops.
func NewFromConfig(outbox Outbox, sender Sender, cfg *config.Config, opts ...Option) *Collector {
	base := []Option{
		WithBatchSize(cfg.Telemetry.BatchSize),
		WithMaxQueued(cfg.Telemetry.MaxQueued),
		WithFlushInterval(time.Duration(cfg.Telemetry.FlushInterval) * time.Second),
	}
	c := New(outbox, sender, append(base, opts...)...)
	c.enabled = cfg.Telemetry.Enabled
	return c
}

// Record queues one event. Recording never blocks on the network; events
// wait in the outbox until Flush.
func (c *Collector) Record(ctx context.Context, eventType string, attrs map[string]any) error {
	if !c.enabled {
		return nil
	}
	event := api.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: c.now().UTC(),
		Attrs:     attrs,
	}
	if err := c.outbox.AppendEvent(ctx, event); err != nil {
		return err
	}
	return c.outbox.TrimOutbox(ctx, c.maxQueued)
}

// MaybeFlush flushes when at least the configured interval has passed since
// the last attempt. Failures are logged and retried on a later call; the
// events stay queued either way.
func (c *Collector) MaybeFlush(ctx context.Context) {
	if !c.enabled {
		return
	}
	if now := c.now(); now.Sub(c.lastFlush) >= c.flushInterval {
		c.lastFlush = now
		if _, err := c.Flush(ctx); err != nil {
			c.log.Debug("periodic telemetry flush failed", "error", err)
		}
	}
}

// Flush drains the outbox in batches. Rows are deleted only after the server
// accepts their batch, so a crash or rejection re-sends them later. It
// returns the number of delivered events.
func (c *Collector) Flush(ctx context.Context) (int, error) {
	if !c.enabled {
		return 0, nil
	}
	delivered := 0
	for {
		batch, err := c.outbox.NextBatch(ctx, c.batchSize)
		if err != nil {
			return delivered, err
		}
		if len(batch) == 0 {
			return delivered, nil
		}
		if err := c.sender.SendTelemetry(ctx, batch); err != nil {
			c.log.Debug("telemetry flush deferred", "queued", len(batch), "error", err)
			return delivered, err
		}
		ids := make([]string, len(batch))
		for i, ev := range batch {
			ids[i] = ev.ID
		}
		if err := c.outbox.DeleteEvents(ctx, ids); err != nil {
			return delivered, err
		}
		delivered += len(batch)
		if len(batch) < c.batchSize {
			return delivered, nil
		}
	}
}
