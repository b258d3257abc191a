package reconciler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/clientledger/internal/usecase"
)

type stubReconciler struct {
	mu       sync.Mutex
	report   *usecase.ReconciliationReport
	err      error
	rebuilt  []string
	runs     int
	rebuildE error
}

func (s *stubReconciler) GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	return s.report, s.err
}

func (s *stubReconciler) RebuildProjection(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuilt = append(s.rebuilt, accountID)
	if s.rebuildE != nil {
		return nil, s.rebuildE
	}
	return &usecase.ReconciliationResult{AccountID: accountID, IsReconciled: true}, nil
}

func driftedReport(ids ...string) *usecase.ReconciliationReport {
	report := &usecase.ReconciliationReport{TotalAccounts: len(ids) + 1, ReconciledAccounts: 1}
	for _, id := range ids {
		report.Discrepancies = append(report.Discrepancies, &usecase.ReconciliationResult{
			AccountID:         id,
			ProjectedBalance:  decimal.NewFromInt(1),
			CalculatedBalance: decimal.NewFromInt(2),
			Difference:        decimal.NewFromInt(-1),
		})
	}
	return report
}

func TestRunOnceRepairsDiscrepancies(t *testing.T) {
	stub := &stubReconciler{report: driftedReport("a", "b")}
	w := NewWorker(Config{Reconciler: stub, Logger: zerolog.Nop(), Repair: true})

	report, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Consistent())
	assert.Equal(t, []string{"a", "b"}, stub.rebuilt)
}

func TestRunOnceReportOnly(t *testing.T) {
	stub := &stubReconciler{report: driftedReport("a")}
	w := NewWorker(Config{Reconciler: stub, Logger: zerolog.Nop()})

	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stub.rebuilt)
}

func TestRunOnceContinuesAfterRebuildFailure(t *testing.T) {
	stub := &stubReconciler{report: driftedReport("a", "b"), rebuildE: errors.New("serialization failure")}
	w := NewWorker(Config{Reconciler: stub, Logger: zerolog.Nop(), Repair: true})

	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, stub.rebuilt)
}

func TestRunOncePropagatesReportError(t *testing.T) {
	stub := &stubReconciler{err: errors.New("db down")}
	w := NewWorker(Config{Reconciler: stub, Logger: zerolog.Nop()})

	_, err := w.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestStartRunsUntilCancelled(t *testing.T) {
	stub := &stubReconciler{report: &usecase.ReconciliationReport{}}
	w := NewWorker(Config{Reconciler: stub, Logger: zerolog.Nop(), Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err := w.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Greater(t, stub.runs, 0)
}
