package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/domain"
)

// BalanceResult is the answer to a balance query.
type BalanceResult struct {
	Balance decimal.Decimal
}

// GetAccountBalanceHandler answers balance queries through the configured view.
type GetAccountBalanceHandler struct {
	view BalanceView
}

// NewGetAccountBalanceHandler creates a new GetAccountBalanceHandler.
func NewGetAccountBalanceHandler(view BalanceView) *GetAccountBalanceHandler {
	return &GetAccountBalanceHandler{view: view}
}

// Execute returns the client's balance; an unknown client has a zero balance.
func (h *GetAccountBalanceHandler) Execute(ctx context.Context, clientID string) (*BalanceResult, error) {
	if err := domain.ValidateClientID(clientID); err != nil {
		return nil, err
	}

	balance, err := h.view.Balance(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return &BalanceResult{Balance: balance}, nil
}

// ListTransactionsByAccountHandler lists an account's history oldest first.
type ListTransactionsByAccountHandler struct {
	events EventStore
}

// NewListTransactionsByAccountHandler creates a new ListTransactionsByAccountHandler.
func NewListTransactionsByAccountHandler(events EventStore) *ListTransactionsByAccountHandler {
	return &ListTransactionsByAccountHandler{events: events}
}

// Execute returns the account's events ascending by creation time.
func (h *ListTransactionsByAccountHandler) Execute(ctx context.Context, accountID string) ([]*domain.TransactionEvent, error) {
	if err := domain.ValidateAccountID(accountID); err != nil {
		return nil, err
	}

	events, err := h.events.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return nonNil(events), nil
}

// GetTransactionsByClientHandler lists a client's history newest first.
type GetTransactionsByClientHandler struct {
	events EventStore
}

// NewGetTransactionsByClientHandler creates a new GetTransactionsByClientHandler.
func NewGetTransactionsByClientHandler(events EventStore) *GetTransactionsByClientHandler {
	return &GetTransactionsByClientHandler{events: events}
}

// Execute returns the client's events descending by creation time.
func (h *GetTransactionsByClientHandler) Execute(ctx context.Context, clientID string) ([]*domain.TransactionEvent, error) {
	if err := domain.ValidateClientID(clientID); err != nil {
		return nil, err
	}

	events, err := h.events.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return nonNil(events), nil
}

func nonNil(events []*domain.TransactionEvent) []*domain.TransactionEvent {
	if events == nil {
		return []*domain.TransactionEvent{}
	}
	return events
}
