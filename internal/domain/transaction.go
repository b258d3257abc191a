package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of monetary movement an event records.
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdraw
}

// TransactionEvent is an immutable record of one deposit or withdrawal.
// ID and CreatedAt are assigned by the event store on append.
type TransactionEvent struct {
	CreatedAt time.Time
	ID        string
	AccountID string
	ClientID  string
	Type      TransactionType
	Amount    decimal.Decimal
}

// Validate checks the invariants every stored event must hold.
func (e *TransactionEvent) Validate() error {
	if !e.Type.IsValid() {
		return ErrInvalidTransactionType
	}

	if e.AccountID == "" {
		return ErrInvalidAccountID
	}

	if e.ClientID == "" {
		return ErrInvalidClientID
	}

	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}

// SignedAmount returns the amount with the sign implied by the event type.
func (e *TransactionEvent) SignedAmount() decimal.Decimal {
	if e.Type == TransactionTypeWithdraw {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Transaction returns the submitted shape of the event, without store-assigned fields.
func (e *TransactionEvent) Transaction() *Transaction {
	return &Transaction{
		AccountID: e.AccountID,
		ClientID:  e.ClientID,
		Type:      e.Type,
		Amount:    e.Amount,
	}
}

// Transaction is what a command handler hands back to its caller.
type Transaction struct {
	AccountID string
	ClientID  string
	Type      TransactionType
	Amount    decimal.Decimal
}
