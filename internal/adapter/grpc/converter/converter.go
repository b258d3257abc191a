package converter

import (
	"github.com/iho/clientledger/internal/adapter/grpc/ledgerv1"
	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/usecase"
)

// TransactionToReply converts domain.Transaction to its reply message
func TransactionToReply(t *domain.Transaction) *ledgerv1.TransactionReply {
	if t == nil {
		return nil
	}
	return &ledgerv1.TransactionReply{
		AccountID: t.AccountID,
		ClientID:  t.ClientID,
		Type:      string(t.Type),
		Amount:    t.Amount.String(),
	}
}

// EventToPb converts a stored transaction event to its message
func EventToPb(e *domain.TransactionEvent) *ledgerv1.TransactionEvent {
	if e == nil {
		return nil
	}
	return &ledgerv1.TransactionEvent{
		ID:        e.ID,
		AccountID: e.AccountID,
		ClientID:  e.ClientID,
		Type:      string(e.Type),
		Amount:    e.Amount.String(),
		CreatedAt: e.CreatedAt,
	}
}

// EventsToPb converts a slice of events, keeping order
func EventsToPb(events []*domain.TransactionEvent) []*ledgerv1.TransactionEvent {
	result := make([]*ledgerv1.TransactionEvent, len(events))
	for i, e := range events {
		result[i] = EventToPb(e)
	}
	return result
}

// BalanceToReply converts a balance query result
func BalanceToReply(clientID string, r *usecase.BalanceResult) *ledgerv1.BalanceReply {
	return &ledgerv1.BalanceReply{
		ClientID: clientID,
		Balance:  r.Balance.String(),
	}
}
