package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/infrastructure/postgres/generated"
	"github.com/iho/clientledger/internal/usecase"
)

// BalanceRepository implements usecase.BalanceRepository on account_balances.
type BalanceRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(pool *pgxpool.Pool) *BalanceRepository {
	return &BalanceRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Get returns the materialized balance of an account.
func (r *BalanceRepository) Get(ctx context.Context, accountID string) (*domain.MaterializedBalance, error) {
	row, err := r.queries.GetAccountBalance(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBalanceProjectionNotFound
		}
		return nil, err
	}

	return rowToBalance(row), nil
}

// Increment adds amount, creating the record on first deposit.
func (r *BalanceRepository) Increment(ctx context.Context, tx usecase.Transaction, accountID string, amount decimal.Decimal, eventID string, at time.Time) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	return generated.New(pgxTx).IncrementAccountBalance(ctx, generated.IncrementAccountBalanceParams{
		AccountID:   accountID,
		Balance:     decimalToNumeric(amount),
		LastEventID: eventID,
		UpdatedAt:   timeToPgTimestamptz(at),
	})
}

// Decrement subtracts amount from an existing record.
func (r *BalanceRepository) Decrement(ctx context.Context, tx usecase.Transaction, accountID string, amount decimal.Decimal, eventID string, at time.Time) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	affected, err := generated.New(pgxTx).DecrementAccountBalance(ctx, generated.DecrementAccountBalanceParams{
		AccountID:   accountID,
		Balance:     decimalToNumeric(amount),
		LastEventID: eventID,
		UpdatedAt:   timeToPgTimestamptz(at),
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrBalanceProjectionNotFound
	}

	return nil
}

// Set overwrites the record.
func (r *BalanceRepository) Set(ctx context.Context, tx usecase.Transaction, balance *domain.MaterializedBalance) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	return generated.New(pgxTx).SetAccountBalance(ctx, generated.SetAccountBalanceParams{
		AccountID:   balance.AccountID,
		Balance:     decimalToNumeric(balance.Balance),
		LastEventID: balance.LastEventID,
		UpdatedAt:   timeToPgTimestamptz(balance.UpdatedAt),
	})
}

// List returns every materialized balance ordered by account.
func (r *BalanceRepository) List(ctx context.Context) ([]*domain.MaterializedBalance, error) {
	rows, err := r.queries.ListAccountBalances(ctx)
	if err != nil {
		return nil, err
	}

	balances := make([]*domain.MaterializedBalance, 0, len(rows))
	for _, row := range rows {
		balances = append(balances, rowToBalance(row))
	}

	return balances, nil
}

func rowToBalance(row generated.AccountBalance) *domain.MaterializedBalance {
	return &domain.MaterializedBalance{
		AccountID:   row.AccountID,
		Balance:     numericToDecimal(row.Balance),
		LastEventID: row.LastEventID,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}
