package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/domain"
)

// Dispatcher routes requests of an already resolved client to the command and
// query handlers. A client owns one account whose id is the client id.
type Dispatcher struct {
	deposit  *DepositHandler
	withdraw *WithdrawHandler
	balance  *GetAccountBalanceHandler
	list     *ListTransactionsByAccountHandler
	recent   *GetTransactionsByClientHandler
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(
	deposit *DepositHandler,
	withdraw *WithdrawHandler,
	balance *GetAccountBalanceHandler,
	list *ListTransactionsByAccountHandler,
	recent *GetTransactionsByClientHandler,
) *Dispatcher {
	return &Dispatcher{
		deposit:  deposit,
		withdraw: withdraw,
		balance:  balance,
		list:     list,
		recent:   recent,
	}
}

// Deposit credits the client's account.
func (d *Dispatcher) Deposit(ctx context.Context, clientID string, amount decimal.Decimal) (*domain.Transaction, error) {
	return d.deposit.Execute(ctx, DepositCommand{
		AccountID: clientID,
		ClientID:  clientID,
		Amount:    amount,
	})
}

// Withdraw debits the client's account.
func (d *Dispatcher) Withdraw(ctx context.Context, clientID string, amount decimal.Decimal) (*domain.Transaction, error) {
	return d.withdraw.Execute(ctx, WithdrawCommand{
		AccountID: clientID,
		ClientID:  clientID,
		Amount:    amount,
	})
}

// Balance returns the client's balance.
func (d *Dispatcher) Balance(ctx context.Context, clientID string) (*BalanceResult, error) {
	return d.balance.Execute(ctx, clientID)
}

// ListTransactions returns the client's history oldest first.
func (d *Dispatcher) ListTransactions(ctx context.Context, clientID string) ([]*domain.TransactionEvent, error) {
	return d.list.Execute(ctx, clientID)
}

// RecentTransactions returns the client's history newest first.
func (d *Dispatcher) RecentTransactions(ctx context.Context, clientID string) ([]*domain.TransactionEvent, error) {
	return d.recent.Execute(ctx, clientID)
}
