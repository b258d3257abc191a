package integration

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/infrastructure/eventpublisher"
	"github.com/iho/clientledger/internal/usecase"
	"github.com/iho/clientledger/tests/testutil"
)

func TestReconciliationDetectsAndRepairsDrift(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	ledger := testDB.NewLedger(usecase.BalanceViewProjection)
	relay := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: ledger.Outbox,
		Handler:    ledger.Projector,
		Logger:     zerolog.Nop(),
		BatchSize:  50,
	})

	for _, id := range []string{"steady", "drifted"} {
		if _, err := ledger.Dispatcher.Deposit(ctx, id, decimal.NewFromInt(90)); err != nil {
			t.Fatalf("deposit failed: %v", err)
		}
		if _, err := ledger.Dispatcher.Withdraw(ctx, id, decimal.NewFromInt(15)); err != nil {
			t.Fatalf("withdraw failed: %v", err)
		}
	}

	if _, err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay failed: %v", err)
	}

	report, err := ledger.Reconciliation.GenerateReconciliationReport(ctx)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !report.Consistent() || report.TotalAccounts != 2 {
		t.Fatalf("expected 2 consistent accounts, got %+v", report)
	}

	testDB.OverwriteBalance(ctx, "drifted", "1000")

	report, err = ledger.Reconciliation.GenerateReconciliationReport(ctx)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if report.Consistent() {
		t.Fatal("expected drift to be reported")
	}
	if len(report.Discrepancies) != 1 || report.Discrepancies[0].AccountID != "drifted" {
		t.Fatalf("expected a single discrepancy for drifted, got %+v", report.Discrepancies)
	}
	if !report.Discrepancies[0].Difference.Equal(decimal.NewFromInt(925)) {
		t.Errorf("expected difference 925, got %s", report.Discrepancies[0].Difference)
	}

	result, err := ledger.Reconciliation.RebuildProjection(ctx, "drifted")
	if err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	if !result.IsReconciled || !result.ProjectedBalance.Equal(decimal.NewFromInt(75)) {
		t.Errorf("expected rebuilt balance 75, got %+v", result)
	}

	balance, err := ledger.Dispatcher.Balance(ctx, "drifted")
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if !balance.Balance.Equal(decimal.NewFromInt(75)) {
		t.Errorf("expected projected balance 75 after rebuild, got %s", balance.Balance)
	}
}

func TestRebuildAbsorbsPendingEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	ledger := testDB.NewLedger(usecase.BalanceViewProjection)

	if _, err := ledger.Dispatcher.Deposit(ctx, "lagging", decimal.NewFromInt(30)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	result, err := ledger.Reconciliation.ReconcileAccount(ctx, "lagging")
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !result.ProjectionMissing {
		t.Errorf("expected missing projection before any relay, got %+v", result)
	}

	if _, err := ledger.Reconciliation.RebuildProjection(ctx, "lagging"); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}

	relay := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: ledger.Outbox,
		Handler:    ledger.Projector,
		Logger:     zerolog.Nop(),
		BatchSize:  10,
	})

	// The rebuild already counted the pending deposit, so relaying it must not apply it twice
	if _, err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay failed: %v", err)
	}

	balance, err := ledger.Dispatcher.Balance(ctx, "lagging")
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if !balance.Balance.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected balance 30, got %s", balance.Balance)
	}
}
