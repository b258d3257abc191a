package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeDepositRecorded  = "transaction.deposited"
	EventTypeWithdrawRecorded = "transaction.withdrawn"
)

// Aggregate types
const (
	AggregateTypeAccount = "account"
)

// OutboxEvent is a domain event waiting to be projected.
// An unpublished row is the pending-projection marker for its transaction event.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransactionRecordedEvent payload
type TransactionRecordedEvent struct {
	EventID   string          `json:"event_id"`
	AccountID string          `json:"account_id"`
	ClientID  string          `json:"client_id"`
	Type      TransactionType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
}

// EventTypeFor maps a transaction type to its outbox event type.
func EventTypeFor(t TransactionType) string {
	if t == TransactionTypeWithdraw {
		return EventTypeWithdrawRecorded
	}
	return EventTypeDepositRecorded
}

// NewTransactionOutboxEvent builds the pending outbox row for a stored transaction event.
func NewTransactionOutboxEvent(id string, event *TransactionEvent, createdAt time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   event.AccountID,
		AggregateType: AggregateTypeAccount,
		EventType:     EventTypeFor(event.Type),
		Payload: map[string]any{
			"event_id":   event.ID,
			"account_id": event.AccountID,
			"client_id":  event.ClientID,
			"type":       string(event.Type),
			"amount":     event.Amount.String(),
		},
		CreatedAt: createdAt,
	}
}

// TransactionPayload decodes the payload of a transaction outbox event.
func (e *OutboxEvent) TransactionPayload() (*TransactionRecordedEvent, error) {
	str := func(key string) string {
		v, _ := e.Payload[key].(string)
		return v
	}

	amount, err := decimal.NewFromString(str("amount"))
	if err != nil {
		return nil, fmt.Errorf("outbox event %s: invalid amount: %w", e.ID, err)
	}

	payload := &TransactionRecordedEvent{
		EventID:   str("event_id"),
		AccountID: str("account_id"),
		ClientID:  str("client_id"),
		Type:      TransactionType(str("type")),
		Amount:    amount,
	}

	if !payload.Type.IsValid() {
		return nil, fmt.Errorf("outbox event %s: %w: %q", e.ID, ErrUnknownEventType, payload.Type)
	}

	if payload.AccountID == "" {
		return nil, fmt.Errorf("outbox event %s: %w", e.ID, ErrInvalidAccountID)
	}

	return payload, nil
}
