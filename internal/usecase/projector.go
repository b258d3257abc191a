package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/clientledger/internal/domain"
)

// Projector applies committed transaction events to the materialized balances.
// Each outbox row is applied at most once: the row is claimed and marked
// published in the same transaction that moves the balance.
type Projector struct {
	txManager TransactionManager
	outbox    OutboxRepository
	balances  BalanceRepository
	cache     Cache
	logger    zerolog.Logger
	recorder  Recorder
}

// NewProjector creates a new Projector. cache may be nil.
func NewProjector(
	txManager TransactionManager,
	outbox OutboxRepository,
	balances BalanceRepository,
	cache Cache,
	logger zerolog.Logger,
	recorder Recorder,
) *Projector {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Projector{
		txManager: txManager,
		outbox:    outbox,
		balances:  balances,
		cache:     cache,
		logger:    logger,
		recorder:  recorder,
	}
}

// Handle applies one outbox event. Events that were already applied are ignored.
func (p *Projector) Handle(ctx context.Context, event *domain.OutboxEvent) error {
	applied, err := p.apply(ctx, event.ID)
	if err != nil {
		p.recorder.ProjectionFailed(event.EventType)
		p.logger.Error().
			Err(err).
			Str("outbox_id", event.ID).
			Str("account_id", event.AggregateID).
			Str("event_type", event.EventType).
			Msg("projection failed")
		return err
	}

	if !applied {
		p.logger.Debug().Str("outbox_id", event.ID).Msg("event already projected")
		return nil
	}

	p.recorder.ProjectionApplied(event.EventType)
	p.invalidate(ctx, event.AggregateID)

	return nil
}

func (p *Projector) apply(ctx context.Context, outboxID string) (bool, error) {
	tx, err := p.txManager.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	claimed, err := p.outbox.ClaimForUpdate(ctx, tx, outboxID)
	if err != nil {
		return false, fmt.Errorf("claim outbox event %s: %w", outboxID, err)
	}

	if claimed.Published {
		return false, nil
	}

	payload, err := claimed.TransactionPayload()
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()

	switch payload.Type {
	case domain.TransactionTypeDeposit:
		err = p.balances.Increment(ctx, tx, payload.AccountID, payload.Amount, payload.EventID, now)
	case domain.TransactionTypeWithdraw:
		err = p.balances.Decrement(ctx, tx, payload.AccountID, payload.Amount, payload.EventID, now)
	default:
		err = fmt.Errorf("%w: %s", domain.ErrUnknownEventType, payload.Type)
	}
	if err != nil {
		return false, fmt.Errorf("project %s for account %s: %w", payload.Type, payload.AccountID, err)
	}

	if err := p.outbox.MarkPublished(ctx, tx, claimed.ID, now); err != nil {
		return false, fmt.Errorf("mark outbox event %s published: %w", claimed.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	return true, nil
}

func (p *Projector) invalidate(ctx context.Context, accountID string) {
	if p.cache == nil {
		return
	}

	if err := p.cache.Delete(ctx, BalanceCacheKey(accountID)); err != nil {
		p.logger.Warn().Err(err).Str("account_id", accountID).Msg("balance cache invalidation failed")
	}
}

// IsProjectionGap reports whether err means the projection is missing state
// that only a rebuild can restore.
func IsProjectionGap(err error) bool {
	return errors.Is(err, domain.ErrBalanceProjectionNotFound)
}
