package dto

import (
	"time"

	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/usecase"
)

// TransactionResponse is the result of a deposit or withdraw.
type TransactionResponse struct {
	AccountID string `json:"account_id"`
	ClientID  string `json:"client_id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
}

// TransactionFromDomain converts a domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		AccountID: t.AccountID,
		ClientID:  t.ClientID,
		Type:      string(t.Type),
		Amount:    t.Amount.String(),
	}
}

// TransactionEventResponse represents a stored transaction event.
type TransactionEventResponse struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	ClientID  string    `json:"client_id"`
	Type      string    `json:"type"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// EventFromDomain converts a domain event to response.
func EventFromDomain(e *domain.TransactionEvent) *TransactionEventResponse {
	return &TransactionEventResponse{
		ID:        e.ID,
		AccountID: e.AccountID,
		ClientID:  e.ClientID,
		Type:      string(e.Type),
		Amount:    e.Amount.String(),
		CreatedAt: e.CreatedAt,
	}
}

// EventsFromDomain converts domain events to responses, preserving order.
func EventsFromDomain(events []*domain.TransactionEvent) []*TransactionEventResponse {
	result := make([]*TransactionEventResponse, len(events))
	for i, e := range events {
		result[i] = EventFromDomain(e)
	}
	return result
}

// ListTransactionsResponse wraps a transaction history.
type ListTransactionsResponse struct {
	Transactions []*TransactionEventResponse `json:"transactions"`
	Total        int                         `json:"total"`
}

// BalanceResponse represents an account balance.
type BalanceResponse struct {
	ClientID string `json:"client_id"`
	Balance  string `json:"balance"`
}

// BalanceFromResult converts a balance query result to response.
func BalanceFromResult(clientID string, r *usecase.BalanceResult) *BalanceResponse {
	return &BalanceResponse{
		ClientID: clientID,
		Balance:  r.Balance.String(),
	}
}

// ClientResponse represents a client in API responses.
type ClientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ClientFromDomain converts a domain client to response.
func ClientFromDomain(c *domain.Client) *ClientResponse {
	return &ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
	}
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	Token  string          `json:"token"`
	Client *ClientResponse `json:"client"`
}

// ReconciliationResultResponse compares one account's projection with its history.
type ReconciliationResultResponse struct {
	AccountID         string    `json:"account_id"`
	ProjectedBalance  string    `json:"projected_balance"`
	CalculatedBalance string    `json:"calculated_balance"`
	Difference        string    `json:"difference"`
	ProjectionMissing bool      `json:"projection_missing"`
	IsReconciled      bool      `json:"is_reconciled"`
	LastChecked       time.Time `json:"last_checked"`
}

// ReconciliationResultFromUseCase converts a reconciliation result to response.
func ReconciliationResultFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResultResponse {
	return &ReconciliationResultResponse{
		AccountID:         r.AccountID,
		ProjectedBalance:  r.ProjectedBalance.String(),
		CalculatedBalance: r.CalculatedBalance.String(),
		Difference:        r.Difference.String(),
		ProjectionMissing: r.ProjectionMissing,
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// ReconciliationReportResponse summarizes a full reconciliation run.
type ReconciliationReportResponse struct {
	CheckedAt          time.Time                       `json:"checked_at"`
	TotalAccounts      int                             `json:"total_accounts"`
	ReconciledAccounts int                             `json:"reconciled_accounts"`
	Consistent         bool                            `json:"consistent"`
	Discrepancies      []*ReconciliationResultResponse `json:"discrepancies"`
}

// ReconciliationReportFromUseCase converts a report to response.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResultResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationResultFromUseCase(d)
	}

	return &ReconciliationReportResponse{
		CheckedAt:          r.CheckedAt,
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Consistent:         r.Consistent(),
		Discrepancies:      discrepancies,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
