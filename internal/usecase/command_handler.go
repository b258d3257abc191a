package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/clientledger/internal/domain"
)

// CommandDeps are the collaborators shared by the Deposit and Withdraw handlers.
type CommandDeps struct {
	TxManager TransactionManager
	Events    EventStore
	Outbox    OutboxRepository
	Bus       EventBus
	IDGen     IDGenerator
	Logger    zerolog.Logger
	Recorder  Recorder
}

// transactionWriter appends an event together with its pending outbox row
// and hands the outbox row to the bus once the transaction has committed.
type transactionWriter struct {
	deps    CommandDeps
	retrier Retrier
}

func newTransactionWriter(deps CommandDeps) transactionWriter {
	if deps.Recorder == nil {
		deps.Recorder = NopRecorder{}
	}
	return transactionWriter{deps: deps}
}

// run executes fn under DefaultTransactionTimeout, retrying through the
// configured retrier when one is set. All attempts share the deadline.
func (w *transactionWriter) run(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	attempt := func() error { return fn(ctx) }
	if w.retrier == nil {
		return attempt()
	}
	return w.retrier.Retry(ctx, attempt)
}

// append stores event and its outbox row inside tx and returns the outbox row.
func (w *transactionWriter) append(ctx context.Context, tx Transaction, event *domain.TransactionEvent) (*domain.OutboxEvent, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if err := w.deps.Events.Append(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("append %s event: %w", event.Type, err)
	}

	outbox := domain.NewTransactionOutboxEvent(w.deps.IDGen.Generate(), event, event.CreatedAt)
	if err := w.deps.Outbox.Create(ctx, tx, outbox); err != nil {
		return nil, fmt.Errorf("create outbox event: %w", err)
	}

	return outbox, nil
}

// publish never fails the command: the outbox relay re-drives anything the bus drops.
func (w *transactionWriter) publish(ctx context.Context, outbox *domain.OutboxEvent) {
	if w.deps.Bus == nil {
		return
	}

	if err := w.deps.Bus.Publish(ctx, outbox); err != nil {
		w.deps.Recorder.PublishFailed(outbox.EventType)
		w.deps.Logger.Warn().
			Err(err).
			Str("outbox_id", outbox.ID).
			Str("account_id", outbox.AggregateID).
			Str("event_type", outbox.EventType).
			Msg("publish failed, left for outbox relay")
	}
}

func (w *transactionWriter) observe(command string, started time.Time, err error) {
	w.deps.Recorder.ObserveCommand(command, commandOutcome(err), time.Since(started))
}

func isInsufficientFunds(err error) bool {
	return errors.Is(err, domain.ErrInsufficientFunds)
}

func isValidationError(err error) bool {
	return errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrAmountTooLarge) ||
		errors.Is(err, domain.ErrInvalidClientID) ||
		errors.Is(err, domain.ErrInvalidAccountID) ||
		errors.Is(err, domain.ErrInvalidTransactionType)
}
