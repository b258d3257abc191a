package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/domain"
)

// EventStore is the append-only log of transaction events.
type EventStore interface {
	// Append assigns ID and CreatedAt and stores the event inside tx.
	Append(ctx context.Context, tx Transaction, event *domain.TransactionEvent) error
	// FindByAccount returns the account's events ascending by CreatedAt.
	FindByAccount(ctx context.Context, accountID string) ([]*domain.TransactionEvent, error)
	// FindByClientID returns the client's events descending by CreatedAt.
	FindByClientID(ctx context.Context, clientID string) ([]*domain.TransactionEvent, error)
	// GetBalance folds the client's events.
	GetBalance(ctx context.Context, clientID string) (decimal.Decimal, error)
	// GetBalanceTx folds the client's events as seen by tx.
	GetBalanceTx(ctx context.Context, tx Transaction, clientID string) (decimal.Decimal, error)
	ListAccountIDs(ctx context.Context) ([]string, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	// GetUnpublished returns pending rows created before olderThan, oldest first.
	GetUnpublished(ctx context.Context, olderThan time.Time, limit int) ([]*domain.OutboxEvent, error)
	// ClaimForUpdate locks the row for the rest of tx.
	ClaimForUpdate(ctx context.Context, tx Transaction, id string) (*domain.OutboxEvent, error)
	// ClaimPendingByAggregate locks every pending row of an aggregate, oldest first.
	ClaimPendingByAggregate(ctx context.Context, tx Transaction, aggregateID string) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, tx Transaction, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) (int64, error)
}

// BalanceRepository defines data access for materialized balances.
type BalanceRepository interface {
	Get(ctx context.Context, accountID string) (*domain.MaterializedBalance, error)
	// Increment creates the record with amount when it does not exist yet.
	Increment(ctx context.Context, tx Transaction, accountID string, amount decimal.Decimal, eventID string, at time.Time) error
	// Decrement fails with domain.ErrBalanceProjectionNotFound when there is no record.
	Decrement(ctx context.Context, tx Transaction, accountID string, amount decimal.Decimal, eventID string, at time.Time) error
	Set(ctx context.Context, tx Transaction, balance *domain.MaterializedBalance) error
	List(ctx context.Context) ([]*domain.MaterializedBalance, error)
}

// AccountLocker serializes balance-dependent commands per account for the life of tx.
type AccountLocker interface {
	LockAccount(ctx context.Context, tx Transaction, accountID string) error
}

// EventBus delivers committed domain events to the projector.
type EventBus interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// ClientRepository resolves principals to clients.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	GetByEmail(ctx context.Context, email string) (*domain.Client, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
	// BeginSnapshot starts a transaction that sees one consistent snapshot for all reads.
	BeginSnapshot(ctx context.Context) (Transaction, error)
}

// Retrier re-runs fn on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, fn func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
// Get returns ErrCacheMiss when the key is absent.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// TokenIssuer issues access tokens for authenticated clients.
type TokenIssuer interface {
	Generate(userID, email, role string) (string, error)
}
