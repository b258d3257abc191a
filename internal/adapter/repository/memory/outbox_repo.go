package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	db *DB
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(db *DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func outboxLockKey(id string) string {
	return "outbox:" + id
}

// Create stages a new outbox row in tx.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	stored := copyOutbox(event)
	return t.stage(op{
		check: func() error {
			if _, exists := r.db.outbox[stored.ID]; exists {
				return fmt.Errorf("outbox event %s already exists", stored.ID)
			}
			return nil
		},
		apply: func() {
			r.db.outbox[stored.ID] = stored
			r.db.outboxOrder = append(r.db.outboxOrder, stored.ID)
		},
	})
}

// GetUnpublished returns pending rows created before olderThan, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, olderThan time.Time, limit int) ([]*domain.OutboxEvent, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	events := make([]*domain.OutboxEvent, 0)
	for _, id := range r.db.outboxOrder {
		if limit > 0 && len(events) >= limit {
			break
		}
		e := r.db.outbox[id]
		if e == nil || e.Published || !e.CreatedAt.Before(olderThan) {
			continue
		}
		events = append(events, copyOutbox(e))
	}
	return events, nil
}

// ClaimForUpdate locks the row until tx ends and returns its committed state.
func (r *OutboxRepository) ClaimForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.OutboxEvent, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	if err := t.lock(ctx, outboxLockKey(id)); err != nil {
		return nil, err
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	e, ok := r.db.outbox[id]
	if !ok {
		return nil, domain.ErrOutboxEventNotFound
	}
	return copyOutbox(e), nil
}

// ClaimPendingByAggregate locks every pending row of the aggregate, oldest first.
// In a snapshot transaction a row published after the snapshot was taken is a
// conflict, reported as domain.ErrConcurrentUpdate.
func (r *OutboxRepository) ClaimPendingByAggregate(ctx context.Context, tx usecase.Transaction, aggregateID string) ([]*domain.OutboxEvent, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	candidates := r.pendingIDs(t, aggregateID)

	claimed := make([]*domain.OutboxEvent, 0, len(candidates))
	for _, id := range candidates {
		if err := t.lock(ctx, outboxLockKey(id)); err != nil {
			return nil, err
		}

		r.db.mu.RLock()
		e := r.db.outbox[id]
		var c *domain.OutboxEvent
		if e != nil {
			c = copyOutbox(e)
		}
		r.db.mu.RUnlock()

		if c == nil {
			continue
		}
		if c.Published {
			if t.snap != nil {
				return nil, fmt.Errorf("outbox event %s: %w", id, domain.ErrConcurrentUpdate)
			}
			continue
		}
		claimed = append(claimed, c)
	}

	sort.SliceStable(claimed, func(i, j int) bool { return claimed[i].CreatedAt.Before(claimed[j].CreatedAt) })
	return claimed, nil
}

func (r *OutboxRepository) pendingIDs(t *Tx, aggregateID string) []string {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	source := r.db.outboxOrder
	if t.snap != nil {
		source = t.snap.pending
	}

	ids := make([]string, 0)
	for _, id := range source {
		e := r.db.outbox[id]
		if e == nil || e.AggregateID != aggregateID {
			continue
		}
		if t.snap == nil && e.Published {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// MarkPublished stages the publication of a row. The row must still be pending at commit.
func (r *OutboxRepository) MarkPublished(ctx context.Context, tx usecase.Transaction, id string, publishedAt time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	r.db.mu.RLock()
	_, exists := r.db.outbox[id]
	r.db.mu.RUnlock()
	if !exists {
		return domain.ErrOutboxEventNotFound
	}

	at := publishedAt
	return t.stage(op{
		check: func() error {
			e, ok := r.db.outbox[id]
			if !ok {
				return domain.ErrOutboxEventNotFound
			}
			if e.Published {
				return fmt.Errorf("outbox event %s: %w", id, domain.ErrConcurrentUpdate)
			}
			return nil
		},
		apply: func() {
			e := r.db.outbox[id]
			e.Published = true
			e.PublishedAt = &at
		},
	})
}

// DeletePublished removes rows published before the cutoff.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var deleted int64
	kept := r.db.outboxOrder[:0]
	for _, id := range r.db.outboxOrder {
		e := r.db.outbox[id]
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			delete(r.db.outbox, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	r.db.outboxOrder = kept

	return deleted, nil
}
