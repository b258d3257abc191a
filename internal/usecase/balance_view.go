package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/domain"
)

// Balance view kinds
const (
	BalanceViewFold       = "fold"
	BalanceViewProjection = "projection"
)

// BalanceView answers balance queries. The account and client ids are the same value.
type BalanceView interface {
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// FoldBalanceView reads the balance by folding the event log in the store.
type FoldBalanceView struct {
	events EventStore
}

// NewFoldBalanceView creates a new FoldBalanceView.
func NewFoldBalanceView(events EventStore) *FoldBalanceView {
	return &FoldBalanceView{events: events}
}

// Balance implements BalanceView.
func (v *FoldBalanceView) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return v.events.GetBalance(ctx, accountID)
}

// ProjectedBalanceView reads the materialized balance through an optional cache.
// It is eventually consistent with the event log.
type ProjectedBalanceView struct {
	balances BalanceRepository
	cache    Cache
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewProjectedBalanceView creates a new ProjectedBalanceView. cache may be nil.
func NewProjectedBalanceView(balances BalanceRepository, cache Cache, ttl time.Duration, logger zerolog.Logger) *ProjectedBalanceView {
	if ttl <= 0 {
		ttl = DefaultBalanceCacheTTL
	}
	return &ProjectedBalanceView{
		balances: balances,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

// Balance implements BalanceView. An account without a projection reads as zero.
func (v *ProjectedBalanceView) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	key := BalanceCacheKey(accountID)

	if v.cache != nil {
		raw, err := v.cache.Get(ctx, key)
		switch {
		case err == nil:
			if balance, perr := decimal.NewFromString(string(raw)); perr == nil {
				return balance, nil
			}
			v.logger.Warn().Str("key", key).Msg("discarding malformed cached balance")
		case !errors.Is(err, ErrCacheMiss):
			v.logger.Warn().Err(err).Str("key", key).Msg("balance cache read failed")
		}
	}

	balance, err := v.read(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	if v.cache == nil {
		return balance, nil
	}

	if err := v.cache.Set(ctx, key, []byte(balance.String()), v.ttl); err != nil {
		v.logger.Warn().Err(err).Str("key", key).Msg("balance cache write failed")
		return balance, nil
	}

	// The projector invalidates after commit. If it committed between the read
	// above and the Set, its delete may have run first, so check again.
	if fresh, err := v.read(ctx, accountID); err != nil || !fresh.Equal(balance) {
		if err := v.cache.Delete(ctx, key); err != nil {
			v.logger.Warn().Err(err).Str("key", key).Msg("stale balance cache eviction failed")
		}
	}

	return balance, nil
}

func (v *ProjectedBalanceView) read(ctx context.Context, accountID string) (decimal.Decimal, error) {
	record, err := v.balances.Get(ctx, accountID)
	switch {
	case err == nil:
		return record.Balance, nil
	case errors.Is(err, domain.ErrBalanceProjectionNotFound):
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("read materialized balance: %w", err)
	}
}

// NewBalanceView selects the strategy named by kind.
func NewBalanceView(kind string, events EventStore, balances BalanceRepository, cache Cache, ttl time.Duration, logger zerolog.Logger) (BalanceView, error) {
	switch kind {
	case "", BalanceViewFold:
		return NewFoldBalanceView(events), nil
	case BalanceViewProjection:
		return NewProjectedBalanceView(balances, cache, ttl, logger), nil
	default:
		return nil, fmt.Errorf("unknown balance view %q", kind)
	}
}
