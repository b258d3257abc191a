package memory

import (
	"context"

	"github.com/iho/clientledger/internal/usecase"
)

// AccountLocker implements usecase.AccountLocker with a per-account mutex
// released when the transaction commits or rolls back.
type AccountLocker struct{}

// NewAccountLocker creates a new AccountLocker.
func NewAccountLocker() *AccountLocker {
	return &AccountLocker{}
}

// LockAccount blocks until the account is free or ctx is done.
func (l *AccountLocker) LockAccount(ctx context.Context, tx usecase.Transaction, accountID string) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	return t.lock(ctx, "account:"+accountID)
}
