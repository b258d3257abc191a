package usecase

import (
	"errors"
	"time"
)

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultBalanceCacheTTL is how long a projected balance stays in the cache
	DefaultBalanceCacheTTL = 30 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	balanceCachePrefix = "balance:"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// BalanceCacheKey is the cache key of an account's projected balance.
func BalanceCacheKey(accountID string) string {
	return balanceCachePrefix + accountID
}
