package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/usecase"
)

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	db *DB
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(db *DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// Get returns the materialized balance of an account.
func (r *BalanceRepository) Get(ctx context.Context, accountID string) (*domain.MaterializedBalance, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rec, ok := r.db.balances[accountID]
	if !ok {
		return nil, domain.ErrBalanceProjectionNotFound
	}

	b := rec.MaterializedBalance
	return &b, nil
}

// Increment adds amount at commit, creating the record when it does not exist.
func (r *BalanceRepository) Increment(ctx context.Context, tx usecase.Transaction, accountID string, amount decimal.Decimal, eventID string, at time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	return t.stage(op{apply: func() {
		rec, ok := r.db.balances[accountID]
		if !ok {
			rec = &balanceRecord{MaterializedBalance: domain.MaterializedBalance{
				AccountID: accountID,
				Balance:   decimal.Zero,
			}}
			r.db.balances[accountID] = rec
		}
		rec.Balance = rec.Balance.Add(amount)
		rec.LastEventID = eventID
		rec.UpdatedAt = at
		rec.version++
	}})
}

// Decrement subtracts amount at commit. The record must exist.
func (r *BalanceRepository) Decrement(ctx context.Context, tx usecase.Transaction, accountID string, amount decimal.Decimal, eventID string, at time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	r.db.mu.RLock()
	_, exists := r.db.balances[accountID]
	r.db.mu.RUnlock()
	if !exists {
		return domain.ErrBalanceProjectionNotFound
	}

	return t.stage(op{
		check: func() error {
			if _, ok := r.db.balances[accountID]; !ok {
				return domain.ErrBalanceProjectionNotFound
			}
			return nil
		},
		apply: func() {
			rec := r.db.balances[accountID]
			rec.Balance = rec.Balance.Sub(amount)
			rec.LastEventID = eventID
			rec.UpdatedAt = at
			rec.version++
		},
	})
}

// Set overwrites the record at commit. In a snapshot transaction the record
// must not have changed since the snapshot was taken.
func (r *BalanceRepository) Set(ctx context.Context, tx usecase.Transaction, balance *domain.MaterializedBalance) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	next := *balance
	snap := t.snap

	return t.stage(op{
		check: func() error {
			if snap == nil {
				return nil
			}
			var current uint64
			if rec, ok := r.db.balances[next.AccountID]; ok {
				current = rec.version
			}
			if current != snap.versions[next.AccountID] {
				return fmt.Errorf("balance of %s: %w", next.AccountID, domain.ErrConcurrentUpdate)
			}
			return nil
		},
		apply: func() {
			rec, ok := r.db.balances[next.AccountID]
			if !ok {
				rec = &balanceRecord{}
				r.db.balances[next.AccountID] = rec
			}
			version := rec.version + 1
			rec.MaterializedBalance = next
			rec.version = version
		},
	})
}

// List returns every materialized balance ordered by account.
func (r *BalanceRepository) List(ctx context.Context) ([]*domain.MaterializedBalance, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	balances := make([]*domain.MaterializedBalance, 0, len(r.db.balances))
	for _, rec := range r.db.balances {
		b := rec.MaterializedBalance
		balances = append(balances, &b)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].AccountID < balances[j].AccountID })
	return balances, nil
}
