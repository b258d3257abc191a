package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/infrastructure/postgres/generated"
)

// ClientRepository implements usecase.ClientRepository.
type ClientRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create stores a new client.
func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	err := r.queries.CreateClient(ctx, generated.CreateClientParams{
		ID:             client.ID,
		Name:           client.Name,
		Email:          client.Email,
		HashedPassword: client.HashedPassword,
		CreatedAt:      timeToPgTimestamptz(client.CreatedAt),
	})
	if isUniqueViolation(err) {
		return domain.ErrClientAlreadyExists
	}

	return err
}

// GetByID retrieves a client by ID.
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	row, err := r.queries.GetClientByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}

	return rowToClient(row), nil
}

// GetByEmail retrieves a client by email, ignoring case.
func (r *ClientRepository) GetByEmail(ctx context.Context, email string) (*domain.Client, error) {
	row, err := r.queries.GetClientByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}

	return rowToClient(row), nil
}

func rowToClient(row generated.Client) *domain.Client {
	return &domain.Client{
		ID:             row.ID,
		Name:           row.Name,
		Email:          row.Email,
		HashedPassword: row.HashedPassword,
		CreatedAt:      row.CreatedAt.Time,
	}
}
