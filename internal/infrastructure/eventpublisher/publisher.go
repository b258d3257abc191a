package eventpublisher

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/usecase"
)

// EventPublisher is the outbox relay: it re-drives outbox rows that the
// in-process bus dropped or failed to project.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	handler    Handler
	logger     zerolog.Logger
	batchSize  int
	interval   time.Duration
	minAge     time.Duration
	retention  time.Duration
	now        func() time.Time
}

// Handler applies one outbox event. It must tolerate events it has already applied.
type Handler interface {
	Handle(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Handler    Handler
	Logger     zerolog.Logger
	BatchSize  int           // Number of events to fetch per batch
	Interval   time.Duration // Polling interval
	MinAge     time.Duration // Rows younger than this are left to the bus
	Retention  time.Duration // Published rows older than this are purged; 0 keeps them
	Now        func() time.Time
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		handler:    cfg.Handler,
		logger:     cfg.Logger,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		minAge:     cfg.MinAge,
		retention:  cfg.Retention,
		now:        cfg.Now,
	}
}

// Start runs the relay until the context is cancelled. A failing outbox
// read backs off exponentially instead of polling at the fixed interval.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Dur("min_age", ep.minAge).
		Msg("outbox relay started")

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = ep.interval
	b.MaxInterval = 12 * ep.interval
	b.MaxElapsedTime = 0

	// Process immediately on start
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("outbox relay shutting down")
			return ctx.Err()
		case <-timer.C:
			next := ep.interval
			if _, err := ep.RunOnce(ctx); err != nil {
				next = b.NextBackOff()
				ep.logger.Error().Err(err).Dur("retry_in", next).Msg("error processing outbox")
			} else {
				b.Reset()
			}
			timer.Reset(next)
		}
	}
}

// RunOnce relays one batch and returns how many events were handled without error.
func (ep *EventPublisher) RunOnce(ctx context.Context) (int, error) {
	handled, err := ep.processEvents(ctx)
	if err != nil {
		return handled, err
	}

	ep.purge(ctx)

	return handled, nil
}

func (ep *EventPublisher) processEvents(ctx context.Context) (int, error) {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.now().Add(-ep.minAge), ep.batchSize)
	if err != nil {
		return 0, err
	}

	if len(events) == 0 {
		return 0, nil
	}

	ep.logger.Info().Int("count", len(events)).Msg("relaying pending outbox events")

	handled := 0
	for _, event := range events {
		if ctx.Err() != nil {
			return handled, ctx.Err()
		}

		if err := ep.handler.Handle(ctx, event); err != nil {
			gap := usecase.IsProjectionGap(err)
			level := zerolog.ErrorLevel
			if gap {
				level = zerolog.WarnLevel
			}
			ep.logger.WithLevel(level).
				Err(err).
				Bool("rebuild_required", gap).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Str("account_id", event.AggregateID).
				Msg("failed to relay event")
			// Continue processing other events even if one fails
			continue
		}
		handled++
	}

	return handled, nil
}

func (ep *EventPublisher) purge(ctx context.Context) {
	if ep.retention <= 0 {
		return
	}

	deleted, err := ep.outboxRepo.DeletePublished(ctx, ep.now().Add(-ep.retention))
	if err != nil {
		ep.logger.Error().Err(err).Msg("failed to purge published outbox events")
		return
	}
	if deleted > 0 {
		ep.logger.Debug().Int64("deleted", deleted).Msg("purged published outbox events")
	}
}

// LogHandler writes every event it receives to the log.
type LogHandler struct {
	logger zerolog.Logger
}

// NewLogHandler creates a new LogHandler.
func NewLogHandler(logger zerolog.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

// Handle logs the event.
func (h *LogHandler) Handle(ctx context.Context, event *domain.OutboxEvent) error {
	h.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		Interface("payload", event.Payload).
		Msg("event recorded")

	return nil
}
