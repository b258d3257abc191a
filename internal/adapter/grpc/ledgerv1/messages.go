// Package ledgerv1 defines the clientledger.v1.LedgerService gRPC contract.
package ledgerv1

import "time"

// AmountRequest submits a deposit or withdrawal for the calling client.
type AmountRequest struct {
	Amount string `json:"amount"`
}

// TransactionReply echoes an accepted transaction.
type TransactionReply struct {
	AccountID string `json:"account_id"`
	ClientID  string `json:"client_id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
}

// BalanceRequest asks for the calling client's balance.
type BalanceRequest struct{}

// BalanceReply carries a balance as a decimal string.
type BalanceReply struct {
	ClientID string `json:"client_id"`
	Balance  string `json:"balance"`
}

// ListTransactionsRequest asks for the calling client's history.
// Recent selects newest-first order; Limit applies only to recent listings.
type ListTransactionsRequest struct {
	Recent bool  `json:"recent,omitempty"`
	Limit  int32 `json:"limit,omitempty"`
}

// TransactionEvent is one stored deposit or withdrawal.
type TransactionEvent struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	ClientID  string    `json:"client_id"`
	Type      string    `json:"type"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// ListTransactionsReply wraps a transaction history.
type ListTransactionsReply struct {
	Transactions []*TransactionEvent `json:"transactions"`
	Total        int32               `json:"total"`
}
