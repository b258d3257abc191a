package memory

import (
	"context"

	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/usecase"
)

type op struct {
	check func() error
	apply func()
}

// Tx stages writes and applies them atomically on Commit.
// Reads outside the staged set see committed state.
type Tx struct {
	db       *DB
	ops      []op
	staged   []*domain.TransactionEvent
	held     map[string]bool
	heldKeys []string
	snap     *snapshot
	done     bool
}

// Commit validates every staged write and applies them all, or none.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	defer t.finish()

	if err := ctx.Err(); err != nil {
		return err
	}

	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	for _, o := range t.ops {
		if o.check == nil {
			continue
		}
		if err := o.check(); err != nil {
			return err
		}
	}

	for _, o := range t.ops {
		o.apply()
	}

	return nil
}

// Rollback discards staged writes. It is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *Tx) finish() {
	t.done = true
	t.ops = nil
	t.staged = nil
	for i := len(t.heldKeys) - 1; i >= 0; i-- {
		t.db.locks.Unlock(t.heldKeys[i])
	}
	t.heldKeys = nil
	t.held = nil
}

func (t *Tx) stage(o op) error {
	if t.done {
		return ErrTxDone
	}
	t.ops = append(t.ops, o)
	return nil
}

// lock takes key for the rest of the transaction. Re-locking a held key is a no-op.
func (t *Tx) lock(ctx context.Context, key string) error {
	if t.done {
		return ErrTxDone
	}
	if t.held[key] {
		return nil
	}
	if err := t.db.locks.Lock(ctx, key); err != nil {
		return err
	}
	if t.held == nil {
		t.held = make(map[string]bool)
	}
	t.held[key] = true
	t.heldKeys = append(t.heldKeys, key)
	return nil
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, ErrForeignTransaction
	}
	if t.done {
		return nil, ErrTxDone
	}
	return t, nil
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	db *DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *DB) *TxManager {
	return &TxManager{db: db}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{db: m.db}, nil
}

// BeginSnapshot starts a transaction whose event and outbox reads are pinned to
// the state at begin time. Writes to balances that changed after that point
// fail on commit with domain.ErrConcurrentUpdate.
func (m *TxManager) BeginSnapshot(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.db.mu.RLock()
	snap := m.db.takeSnapshot()
	m.db.mu.RUnlock()

	return &Tx{db: m.db, snap: snap}, nil
}
