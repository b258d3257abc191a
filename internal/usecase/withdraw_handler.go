package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/domain"
)

// WithdrawCommand debits Amount from the client's account.
// The sign of Amount is ignored.
type WithdrawCommand struct {
	AccountID string
	ClientID  string
	Amount    decimal.Decimal
}

// WithdrawHandler records WITHDRAW events after checking the folded balance
// while holding the account lock.
type WithdrawHandler struct {
	transactionWriter
	locker AccountLocker
}

// NewWithdrawHandler creates a new WithdrawHandler.
func NewWithdrawHandler(deps CommandDeps, locker AccountLocker) *WithdrawHandler {
	return &WithdrawHandler{
		transactionWriter: newTransactionWriter(deps),
		locker:            locker,
	}
}

// WithRetrier sets the retrier used around the storage transaction.
func (h *WithdrawHandler) WithRetrier(r Retrier) *WithdrawHandler {
	h.retrier = r
	return h
}

// Execute appends the withdrawal when the balance covers it and publishes it after commit.
func (h *WithdrawHandler) Execute(ctx context.Context, cmd WithdrawCommand) (*domain.Transaction, error) {
	started := time.Now()
	result, err := h.execute(ctx, cmd)
	h.observe("withdraw", started, err)
	return result, err
}

func (h *WithdrawHandler) execute(ctx context.Context, cmd WithdrawCommand) (*domain.Transaction, error) {
	if err := validateCommandIDs(cmd.AccountID, cmd.ClientID); err != nil {
		return nil, err
	}

	amount := cmd.Amount.Abs()
	if amount.IsZero() {
		return nil, domain.ErrInvalidAmount
	}

	var (
		event  *domain.TransactionEvent
		outbox *domain.OutboxEvent
	)

	err := h.run(ctx, func(ctx context.Context) error {
		tx, err := h.deps.TxManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		// Held until commit or rollback.
		if err := h.locker.LockAccount(ctx, tx, cmd.AccountID); err != nil {
			return fmt.Errorf("lock account %s: %w", cmd.AccountID, err)
		}

		balance, err := h.deps.Events.GetBalanceTx(ctx, tx, cmd.ClientID)
		if err != nil {
			return fmt.Errorf("read balance: %w", err)
		}

		if balance.LessThan(amount) {
			return fmt.Errorf("%w: balance %s, requested %s", domain.ErrInsufficientFunds, balance, amount)
		}

		event = &domain.TransactionEvent{
			AccountID: cmd.AccountID,
			ClientID:  cmd.ClientID,
			Type:      domain.TransactionTypeWithdraw,
			Amount:    amount,
		}

		outbox, err = h.append(ctx, tx, event)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	h.publish(ctx, outbox)

	return event.Transaction(), nil
}
