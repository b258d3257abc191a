package memory

import (
	"context"
	"strings"

	"github.com/iho/clientledger/internal/domain"
)

// ClientRepository implements usecase.ClientRepository.
type ClientRepository struct {
	db *DB
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(db *DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// Create stores a client. Emails are unique regardless of case.
func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, c := range r.db.clients {
		if strings.EqualFold(c.Email, client.Email) {
			return domain.ErrClientAlreadyExists
		}
	}

	stored := *client
	r.db.clients[client.ID] = &stored
	return nil
}

// GetByID retrieves a client by ID.
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.clients[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	found := *c
	return &found, nil
}

// GetByEmail retrieves a client by email, ignoring case.
func (r *ClientRepository) GetByEmail(ctx context.Context, email string) (*domain.Client, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, c := range r.db.clients {
		if strings.EqualFold(c.Email, email) {
			found := *c
			return &found, nil
		}
	}
	return nil, domain.ErrClientNotFound
}
