package domain

import "errors"

var (
	// Command errors
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidAccountID       = errors.New("account id is required")
	ErrInvalidClientID        = errors.New("client id is required")

	// Client errors
	ErrClientNotFound      = errors.New("client not found")
	ErrClientAlreadyExists = errors.New("client with this email already exists")

	// Projection errors
	ErrBalanceProjectionNotFound = errors.New("materialized balance not found")
	ErrProjectionInconsistent    = errors.New("materialized balance diverges from event history")
	ErrOutboxEventNotFound       = errors.New("outbox event not found")
	ErrUnknownEventType          = errors.New("unknown event type")

	// Storage errors
	ErrConcurrentUpdate = errors.New("concurrent update detected")
)

var (
	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)
