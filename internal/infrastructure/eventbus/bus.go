// Package eventbus delivers committed outbox events to in-process handlers.
//
// Publish never blocks the caller: events go into a bounded queue drained by
// a fixed set of workers. A full queue rejects the event with ErrBusFull and
// the outbox relay picks it up later.
package eventbus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/clientledger/internal/domain"
)

var (
	ErrBusFull   = errors.New("event bus buffer is full")
	ErrBusClosed = errors.New("event bus is closed")
)

// Handler consumes events from the bus.
type Handler interface {
	Handle(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for Bus.
type Config struct {
	Buffer         int
	Workers        int
	HandlerTimeout time.Duration
	Logger         zerolog.Logger
}

// Bus implements usecase.EventBus.
type Bus struct {
	queue    chan *domain.OutboxEvent
	handlers []Handler
	workers  int
	timeout  time.Duration
	logger   zerolog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// New creates a Bus that fans every event out to handlers in order.
func New(cfg Config, handlers ...Handler) *Bus {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 10 * time.Second
	}

	return &Bus{
		queue:    make(chan *domain.OutboxEvent, cfg.Buffer),
		handlers: handlers,
		workers:  cfg.Workers,
		timeout:  cfg.HandlerTimeout,
		logger:   cfg.Logger,
	}
}

// Start launches the workers. Handlers run with contexts derived from ctx.
func (b *Bus) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started || b.closed {
		return
	}
	b.started = true

	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.work(ctx, i)
	}

	b.logger.Info().
		Int("workers", b.workers).
		Int("buffer", cap(b.queue)).
		Msg("event bus started")
}

// Publish enqueues the event without waiting for handlers.
func (b *Bus) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	select {
	case b.queue <- event:
		return nil
	default:
		return ErrBusFull
	}
}

// Close stops accepting events, drains the queue and waits for the workers.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info().Msg("event bus stopped")
}

// Pending returns the number of queued events.
func (b *Bus) Pending() int {
	return len(b.queue)
}

func (b *Bus) work(ctx context.Context, id int) {
	defer b.wg.Done()

	for event := range b.queue {
		b.dispatch(ctx, id, event)
	}
}

func (b *Bus) dispatch(ctx context.Context, worker int, event *domain.OutboxEvent) {
	for _, h := range b.handlers {
		hctx, cancel := context.WithTimeout(ctx, b.timeout)
		err := h.Handle(hctx, event)
		cancel()

		if err != nil {
			b.logger.Warn().
				Err(err).
				Int("worker", worker).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("event handler failed; left for outbox relay")
		}
	}
}
