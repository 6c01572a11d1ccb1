package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/kafka"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Tracker is what request handlers depend on. Nop discards everything.
type Tracker interface {
	Track(e QueryEvent)
}

type nop struct{}

func (nop) Track(QueryEvent) {}

// Nop is the Tracker used when event publishing is disabled.
var Nop Tracker = nop{}

type Options struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	// OnDrop is called once per event rejected because the buffer is full.
	OnDrop func()
}

// Collector buffers events in a channel and publishes them in batches of up
// to BatchSize, or every FlushInterval, whichever comes first.
type Collector struct {
	publisher Publisher
	opts      Options
	eventCh   chan QueryEvent
	logger    *slog.Logger

	mu      sync.RWMutex
	closed  bool
	started atomic.Bool
	done    chan struct{}
	dropped atomic.Int64
}

func NewCollector(publisher Publisher, opts Options) *Collector {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 10000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 2 * time.Second
	}
	return &Collector{
		publisher: publisher,
		opts:      opts,
		eventCh:   make(chan QueryEvent, opts.BufferSize),
		logger:    slog.Default().With("component", "event-collector"),
		done:      make(chan struct{}),
	}
}

// Start launches the publish loop. Cancelling ctx stops it after a final
// flush of whatever is buffered.
func (c *Collector) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go c.run(ctx)
	c.logger.Info("event collector started",
		"buffer_size", c.opts.BufferSize,
		"batch_size", c.opts.BatchSize,
		"flush_interval", c.opts.FlushInterval,
	)
}

// Track enqueues e without blocking.
func (c *Collector) Track(e QueryEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	default:
		c.dropped.Add(1)
		if c.opts.OnDrop != nil {
			c.opts.OnDrop()
		}
		c.logger.Warn("query event dropped (buffer full)", "operation", e.Operation)
	}
}

// Dropped returns the number of events rejected so far.
func (c *Collector) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops accepting events, publishes what is buffered and waits for the
// loop to exit.
func (c *Collector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.eventCh)
	c.mu.Unlock()

	if c.started.CompareAndSwap(false, true) {
		go c.run(context.Background())
	}
	<-c.done
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.opts.BatchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := c.publisher.PublishBatch(ctx, batch); err != nil {
			c.logger.Error("failed to publish query events", "count", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case e, ok := <-c.eventCh:
			if !ok {
				flush(context.Background())
				return
			}
			batch = append(batch, kafka.Event{Key: e.Key(), Value: e})
			if len(batch) >= c.opts.BatchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			c.drain(&batch)
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(flushCtx)
			cancel()
			return
		}
	}
}

func (c *Collector) drain(batch *[]kafka.Event) {
	for {
		select {
		case e, ok := <-c.eventCh:
			if !ok {
				return
			}
			*batch = append(*batch, kafka.Event{Key: e.Key(), Value: e})
		default:
			return
		}
	}
}
