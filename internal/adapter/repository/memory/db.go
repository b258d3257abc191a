// Package memory is an in-process implementation of the ledger storage ports.
// It keeps the transactional guarantees the use cases rely on: staged writes
// become visible atomically on commit, and row claims and account locks are
// held until the owning transaction ends.
package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/iho/clientledger/internal/domain"
)

var (
	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("transaction already committed or rolled back")
	// ErrForeignTransaction is returned when a transaction from another driver is passed in.
	ErrForeignTransaction = errors.New("transaction does not belong to the memory store")
)

type balanceRecord struct {
	domain.MaterializedBalance
	version uint64
}

// DB holds all ledger state.
type DB struct {
	mu sync.RWMutex

	events      []*domain.TransactionEvent
	outbox      map[string]*domain.OutboxEvent
	outboxOrder []string
	balances    map[string]*balanceRecord
	clients     map[string]*domain.Client

	locks *keyedMutex

	clockMu  sync.Mutex
	lastTime time.Time
	now      func() time.Time
}

// NewDB creates an empty store.
func NewDB() *DB {
	return &DB{
		outbox:   make(map[string]*domain.OutboxEvent),
		balances: make(map[string]*balanceRecord),
		clients:  make(map[string]*domain.Client),
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// timestamp returns strictly increasing UTC times.
func (db *DB) timestamp() time.Time {
	db.clockMu.Lock()
	defer db.clockMu.Unlock()

	t := db.now().UTC()
	if !t.After(db.lastTime) {
		t = db.lastTime.Add(time.Microsecond)
	}
	db.lastTime = t
	return t
}

type snapshot struct {
	eventCount int
	pending    []string
	versions   map[string]uint64
}

// takeSnapshot must be called with db.mu held.
func (db *DB) takeSnapshot() *snapshot {
	s := &snapshot{
		eventCount: len(db.events),
		versions:   make(map[string]uint64, len(db.balances)),
	}
	for _, id := range db.outboxOrder {
		if e := db.outbox[id]; e != nil && !e.Published {
			s.pending = append(s.pending, id)
		}
	}
	for id, rec := range db.balances {
		s.versions[id] = rec.version
	}
	return s
}

func copyEvent(e *domain.TransactionEvent) *domain.TransactionEvent {
	c := *e
	return &c
}

func copyOutbox(e *domain.OutboxEvent) *domain.OutboxEvent {
	c := *e
	c.Payload = make(map[string]any, len(e.Payload))
	for k, v := range e.Payload {
		c.Payload[k] = v
	}
	if e.PublishedAt != nil {
		at := *e.PublishedAt
		c.PublishedAt = &at
	}
	return &c
}
