package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/infrastructure/postgres/generated"
	"github.com/iho/clientledger/internal/usecase"
)

// EventStore implements usecase.EventStore on the transaction_events table.
type EventStore struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
	idGen   usecase.IDGenerator
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *pgxpool.Pool, idGen usecase.IDGenerator) *EventStore {
	return &EventStore{
		pool:    pool,
		queries: generated.New(pool),
		idGen:   idGen,
	}
}

// Append inserts the event inside tx. The database clock assigns CreatedAt.
func (s *EventStore) Append(ctx context.Context, tx usecase.Transaction, event *domain.TransactionEvent) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	id := s.idGen.Generate()

	createdAt, err := generated.New(pgxTx).AppendTransactionEvent(ctx, generated.AppendTransactionEventParams{
		ID:        id,
		AccountID: event.AccountID,
		ClientID:  event.ClientID,
		Type:      string(event.Type),
		Amount:    decimalToNumeric(event.Amount),
	})
	if err != nil {
		return fmt.Errorf("append transaction event: %w", err)
	}

	event.ID = id
	event.CreatedAt = createdAt.Time

	return nil
}

// FindByAccount returns the account's events ascending by CreatedAt.
func (s *EventStore) FindByAccount(ctx context.Context, accountID string) ([]*domain.TransactionEvent, error) {
	rows, err := s.queries.ListTransactionEventsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return rowsToEvents(rows), nil
}

// FindByClientID returns the client's events descending by CreatedAt.
func (s *EventStore) FindByClientID(ctx context.Context, clientID string) ([]*domain.TransactionEvent, error) {
	rows, err := s.queries.ListTransactionEventsByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return rowsToEvents(rows), nil
}

// GetBalance sums the client's committed events.
func (s *EventStore) GetBalance(ctx context.Context, clientID string) (decimal.Decimal, error) {
	sum, err := s.queries.SumTransactionEventsByClient(ctx, clientID)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// GetBalanceTx sums the client's events as seen by tx.
func (s *EventStore) GetBalanceTx(ctx context.Context, tx usecase.Transaction, clientID string) (decimal.Decimal, error) {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return decimal.Zero, err
	}

	sum, err := generated.New(pgxTx).SumTransactionEventsByClient(ctx, clientID)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// ListAccountIDs returns every account with at least one event.
func (s *EventStore) ListAccountIDs(ctx context.Context) ([]string, error) {
	ids, err := s.queries.ListEventAccountIDs(ctx)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func rowsToEvents(rows []generated.TransactionEvent) []*domain.TransactionEvent {
	events := make([]*domain.TransactionEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, &domain.TransactionEvent{
			ID:        row.ID,
			AccountID: row.AccountID,
			ClientID:  row.ClientID,
			Type:      domain.TransactionType(row.Type),
			Amount:    numericToDecimal(row.Amount),
			CreatedAt: row.CreatedAt.Time,
		})
	}
	return events
}
