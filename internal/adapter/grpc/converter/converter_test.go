package converter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/usecase"
)

func TestTransactionToReply(t *testing.T) {
	if TransactionToReply(nil) != nil {
		t.Fatal("expected nil for nil transaction")
	}

	reply := TransactionToReply(&domain.Transaction{
		AccountID: "c1",
		ClientID:  "c1",
		Type:      domain.TransactionTypeDeposit,
		Amount:    decimal.RequireFromString("100.10"),
	})
	if reply.Type != "DEPOSIT" || reply.Amount != "100.1" || reply.AccountID != "c1" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestEventsToPb(t *testing.T) {
	now := time.Now().UTC()
	events := []*domain.TransactionEvent{
		{ID: "e1", AccountID: "c1", ClientID: "c1", Type: domain.TransactionTypeDeposit, Amount: decimal.NewFromInt(100), CreatedAt: now},
		{ID: "e2", AccountID: "c1", ClientID: "c1", Type: domain.TransactionTypeWithdraw, Amount: decimal.NewFromInt(60), CreatedAt: now},
	}

	out := EventsToPb(events)
	if len(out) != 2 || out[0].ID != "e1" || out[1].Type != "WITHDRAW" || out[1].Amount != "60" {
		t.Fatalf("unexpected events: %+v", out)
	}
	if !out[0].CreatedAt.Equal(now) {
		t.Fatalf("timestamp not preserved")
	}
	if EventToPb(nil) != nil {
		t.Fatal("expected nil for nil event")
	}
}

func TestBalanceToReply(t *testing.T) {
	reply := BalanceToReply("c1", &usecase.BalanceResult{Balance: decimal.NewFromInt(40)})
	if reply.Balance != "40" || reply.ClientID != "c1" {
		t.Fatalf("unexpected balance reply: %+v", reply)
	}
}
