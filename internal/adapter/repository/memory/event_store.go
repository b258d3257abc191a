package memory

import (
	"context"
	"sort"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/usecase"
)

// EventStore implements usecase.EventStore.
type EventStore struct {
	db *DB
}

// NewEventStore creates a new EventStore.
func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

// Append assigns the event's ID and CreatedAt and stages it in tx.
func (s *EventStore) Append(ctx context.Context, tx usecase.Transaction, event *domain.TransactionEvent) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	event.ID = ulid.Make().String()
	event.CreatedAt = s.db.timestamp()

	stored := copyEvent(event)
	if err := t.stage(op{apply: func() {
		s.db.events = append(s.db.events, stored)
	}}); err != nil {
		return err
	}
	t.staged = append(t.staged, stored)

	return nil
}

// FindByAccount returns the account's events ascending by CreatedAt.
func (s *EventStore) FindByAccount(ctx context.Context, accountID string) ([]*domain.TransactionEvent, error) {
	events := s.filter(func(e *domain.TransactionEvent) bool { return e.AccountID == accountID })
	sort.SliceStable(events, func(i, j int) bool { return eventLess(events[i], events[j]) })
	return events, nil
}

// FindByClientID returns the client's events descending by CreatedAt.
func (s *EventStore) FindByClientID(ctx context.Context, clientID string) ([]*domain.TransactionEvent, error) {
	events := s.filter(func(e *domain.TransactionEvent) bool { return e.ClientID == clientID })
	sort.SliceStable(events, func(i, j int) bool { return eventLess(events[j], events[i]) })
	return events, nil
}

// GetBalance folds the client's committed events.
func (s *EventStore) GetBalance(ctx context.Context, clientID string) (decimal.Decimal, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return foldClient(s.db.events, clientID), nil
}

// GetBalanceTx folds the client's events as seen by tx, including its own staged events.
func (s *EventStore) GetBalanceTx(ctx context.Context, tx usecase.Transaction, clientID string) (decimal.Decimal, error) {
	t, err := asTx(tx)
	if err != nil {
		return decimal.Zero, err
	}

	s.db.mu.RLock()
	visible := s.db.events
	if t.snap != nil {
		visible = visible[:t.snap.eventCount]
	}
	balance := foldClient(visible, clientID)
	s.db.mu.RUnlock()

	return balance.Add(foldClient(t.staged, clientID)), nil
}

// ListAccountIDs returns every account that has at least one event.
func (s *EventStore) ListAccountIDs(ctx context.Context) ([]string, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, e := range s.db.events {
		if !seen[e.AccountID] {
			seen[e.AccountID] = true
			ids = append(ids, e.AccountID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *EventStore) filter(match func(*domain.TransactionEvent) bool) []*domain.TransactionEvent {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	events := make([]*domain.TransactionEvent, 0)
	for _, e := range s.db.events {
		if match(e) {
			events = append(events, copyEvent(e))
		}
	}
	return events
}

func foldClient(events []*domain.TransactionEvent, clientID string) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range events {
		if e.ClientID == clientID {
			balance = balance.Add(e.SignedAmount())
		}
	}
	return balance
}

func eventLess(a, b *domain.TransactionEvent) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
