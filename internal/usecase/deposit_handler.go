package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/domain"
)

// DepositCommand credits Amount to the client's account.
type DepositCommand struct {
	AccountID string
	ClientID  string
	Amount    decimal.Decimal
}

// DepositHandler records DEPOSIT events. It never reads the balance.
type DepositHandler struct {
	transactionWriter
}

// NewDepositHandler creates a new DepositHandler.
func NewDepositHandler(deps CommandDeps) *DepositHandler {
	return &DepositHandler{transactionWriter: newTransactionWriter(deps)}
}

// WithRetrier sets the retrier used around the storage transaction.
func (h *DepositHandler) WithRetrier(r Retrier) *DepositHandler {
	h.retrier = r
	return h
}

// Execute appends the deposit and publishes it after commit.
// The returned transaction carries the submitted fields only.
func (h *DepositHandler) Execute(ctx context.Context, cmd DepositCommand) (*domain.Transaction, error) {
	started := time.Now()
	result, err := h.execute(ctx, cmd)
	h.observe("deposit", started, err)
	return result, err
}

func (h *DepositHandler) execute(ctx context.Context, cmd DepositCommand) (*domain.Transaction, error) {
	if err := validateCommandIDs(cmd.AccountID, cmd.ClientID); err != nil {
		return nil, err
	}

	if err := domain.ValidateDepositAmount(cmd.Amount); err != nil {
		return nil, err
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

		event = &domain.TransactionEvent{
			AccountID: cmd.AccountID,
			ClientID:  cmd.ClientID,
			Type:      domain.TransactionTypeDeposit,
			Amount:    cmd.Amount,
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

func validateCommandIDs(accountID, clientID string) error {
	if err := domain.ValidateClientID(clientID); err != nil {
		return err
	}
	return domain.ValidateAccountID(accountID)
}
