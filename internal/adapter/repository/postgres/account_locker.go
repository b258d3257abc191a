package postgres

import (
	"context"

	"github.com/iho/clientledger/internal/infrastructure/postgres/generated"
	"github.com/iho/clientledger/internal/usecase"
)

// AccountLocker implements usecase.AccountLocker with transaction-scoped
// advisory locks. The lock is released when the transaction ends.
type AccountLocker struct{}

// NewAccountLocker creates a new AccountLocker.
func NewAccountLocker() *AccountLocker {
	return &AccountLocker{}
}

// LockAccount blocks until tx holds the advisory lock for accountID.
func (l *AccountLocker) LockAccount(ctx context.Context, tx usecase.Transaction, accountID string) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	return generated.New(pgxTx).LockAccount(ctx, "account:"+accountID)
}
