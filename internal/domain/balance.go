package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FoldBalance reduces an event history to a balance: deposits add, withdrawals subtract.
// The order of events does not change the result.
func FoldBalance(events []*TransactionEvent) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range events {
		balance = balance.Add(e.SignedAmount())
	}
	return balance
}

// MaterializedBalance is the projected balance of one account.
type MaterializedBalance struct {
	UpdatedAt   time.Time
	AccountID   string
	LastEventID string
	Balance     decimal.Decimal
}
