// Package reconciler periodically compares materialized balances with the
// event log and optionally rebuilds the ones that drifted.
package reconciler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/clientledger/internal/usecase"
)

// Reconciler is the subset of the reconciliation use case the worker drives.
type Reconciler interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
	RebuildProjection(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
}

// Config for Worker.
type Config struct {
	Reconciler Reconciler
	Logger     zerolog.Logger
	Interval   time.Duration
	Repair     bool // rebuild every account that did not reconcile
}

// Worker runs reconciliation on a fixed interval.
type Worker struct {
	reconciler Reconciler
	logger     zerolog.Logger
	interval   time.Duration
	repair     bool
}

// NewWorker creates a new Worker.
func NewWorker(cfg Config) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Worker{
		reconciler: cfg.Reconciler,
		logger:     cfg.Logger,
		interval:   cfg.Interval,
		repair:     cfg.Repair,
	}
}

// Start runs until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().
		Dur("interval", w.interval).
		Bool("repair", w.repair).
		Msg("reconciler started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("reconciler shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error().Err(err).Msg("reconciliation run failed")
			}
		}
	}
}

// RunOnce reconciles every account and returns the report taken before any repair.
func (w *Worker) RunOnce(ctx context.Context) (*usecase.ReconciliationReport, error) {
	report, err := w.reconciler.GenerateReconciliationReport(ctx)
	if err != nil {
		return nil, err
	}

	if report.Consistent() {
		w.logger.Debug().Int("accounts", report.TotalAccounts).Msg("projections consistent")
		return report, nil
	}

	for _, d := range report.Discrepancies {
		w.logger.Warn().
			Str("account_id", d.AccountID).
			Str("projected", d.ProjectedBalance.String()).
			Str("calculated", d.CalculatedBalance.String()).
			Bool("projection_missing", d.ProjectionMissing).
			Msg("projection discrepancy")

		if !w.repair {
			continue
		}

		if _, err := w.reconciler.RebuildProjection(ctx, d.AccountID); err != nil {
			w.logger.Error().Err(err).Str("account_id", d.AccountID).Msg("projection rebuild failed")
		}
	}

	return report, nil
}
