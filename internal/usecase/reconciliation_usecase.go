package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/domain"
)

// ReconciliationUseCase compares materialized balances with the event log
// and rebuilds projections that drifted.
type ReconciliationUseCase struct {
	txManager  TransactionManager
	events     EventStore
	outbox     OutboxRepository
	balances   BalanceRepository
	calculator *BalanceCalculator
	cache      Cache
	retrier    Retrier
	recorder   Recorder
	logger     zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case. cache may be nil.
func NewReconciliationUseCase(
	txManager TransactionManager,
	events EventStore,
	outbox OutboxRepository,
	balances BalanceRepository,
	cache Cache,
	recorder Recorder,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &ReconciliationUseCase{
		txManager:  txManager,
		events:     events,
		outbox:     outbox,
		balances:   balances,
		calculator: NewBalanceCalculator(events),
		cache:      cache,
		recorder:   recorder,
		logger:     logger,
	}
}

// WithRetrier sets the retrier used around projection rebuilds.
func (uc *ReconciliationUseCase) WithRetrier(r Retrier) *ReconciliationUseCase {
	uc.retrier = r
	return uc
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	LastChecked       time.Time
	AccountID         string
	ProjectedBalance  decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	ProjectionMissing bool
	IsReconciled      bool
}

// Err returns domain.ErrProjectionInconsistent when the account did not reconcile.
func (r *ReconciliationResult) Err() error {
	if r.IsReconciled {
		return nil
	}
	return fmt.Errorf("%w: account %s projected %s, calculated %s",
		domain.ErrProjectionInconsistent, r.AccountID, r.ProjectedBalance, r.CalculatedBalance)
}

// ReconcileAccount compares the materialized balance of one account with its folded history.
// A gap is expected while events are still in flight.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	calculated, err := uc.calculator.ComputeBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}

	result := &ReconciliationResult{
		AccountID:         accountID,
		CalculatedBalance: calculated,
		ProjectedBalance:  decimal.Zero,
		LastChecked:       time.Now().UTC(),
	}

	record, err := uc.balances.Get(ctx, accountID)
	switch {
	case err == nil:
		result.ProjectedBalance = record.Balance
	case errors.Is(err, domain.ErrBalanceProjectionNotFound):
		result.ProjectionMissing = true
	default:
		return nil, err
	}

	result.Difference = result.ProjectedBalance.Sub(calculated)
	result.IsReconciled = result.Difference.IsZero()

	return result, nil
}

// ReconcileAllAccounts reconciles every account that has events or a projection.
func (uc *ReconciliationUseCase) ReconcileAllAccounts(ctx context.Context) ([]*ReconciliationResult, error) {
	accountIDs, err := uc.knownAccounts(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*ReconciliationResult, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		result, err := uc.ReconcileAccount(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile account %s: %w", accountID, err)
		}
		results = append(results, result)
	}

	return results, nil
}

func (uc *ReconciliationUseCase) knownAccounts(ctx context.Context) ([]string, error) {
	ids, err := uc.events.ListAccountIDs(ctx)
	if err != nil {
		return nil, err
	}

	projections, err := uc.balances.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(ids)+len(projections))
	accountIDs := make([]string, 0, len(ids)+len(projections))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			accountIDs = append(accountIDs, id)
		}
	}
	for _, p := range projections {
		if !seen[p.AccountID] {
			seen[p.AccountID] = true
			accountIDs = append(accountIDs, p.AccountID)
		}
	}

	sort.Strings(accountIDs)
	return accountIDs, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	CheckedAt          time.Time
	Discrepancies      []*ReconciliationResult
	TotalAccounts      int
	ReconciledAccounts int
}

// Consistent reports whether every account reconciled.
func (r *ReconciliationReport) Consistent() bool {
	return len(r.Discrepancies) == 0
}

// GenerateReconciliationReport reconciles every account and collects the discrepancies.
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalAccounts: len(results),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	uc.recorder.Discrepancies(len(report.Discrepancies))

	return report, nil
}

// RebuildProjection recomputes an account's materialized balance from the event log.
// Pending outbox rows of the account are claimed and marked published in the same
// snapshot so the projector cannot apply them a second time.
func (uc *ReconciliationUseCase) RebuildProjection(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	if err := domain.ValidateAccountID(accountID); err != nil {
		return nil, err
	}

	rebuild := func() error {
		tx, err := uc.txManager.BeginSnapshot(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		pending, err := uc.outbox.ClaimPendingByAggregate(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("claim pending events: %w", err)
		}

		balance, err := uc.events.GetBalanceTx(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("fold balance: %w", err)
		}

		now := time.Now().UTC()
		record := &domain.MaterializedBalance{
			AccountID:   accountID,
			Balance:     balance,
			LastEventID: uc.lastEventID(ctx, accountID, pending),
			UpdatedAt:   now,
		}

		if err := uc.balances.Set(ctx, tx, record); err != nil {
			return fmt.Errorf("store rebuilt balance: %w", err)
		}

		for _, event := range pending {
			if err := uc.outbox.MarkPublished(ctx, tx, event.ID, now); err != nil {
				return fmt.Errorf("mark outbox event %s published: %w", event.ID, err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		uc.logger.Info().
			Str("account_id", accountID).
			Str("balance", balance.String()).
			Int("pending_claimed", len(pending)).
			Msg("projection rebuilt")

		return nil
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, rebuild)
	} else {
		err = rebuild()
	}
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Delete(ctx, BalanceCacheKey(accountID)); err != nil {
			uc.logger.Warn().Err(err).Str("account_id", accountID).Msg("balance cache invalidation failed")
		}
	}

	return uc.ReconcileAccount(ctx, accountID)
}

func (uc *ReconciliationUseCase) lastEventID(ctx context.Context, accountID string, pending []*domain.OutboxEvent) string {
	if n := len(pending); n > 0 {
		if payload, err := pending[n-1].TransactionPayload(); err == nil {
			return payload.EventID
		}
	}

	if record, err := uc.balances.Get(ctx, accountID); err == nil {
		return record.LastEventID
	}

	return ""
}
