package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iho/clientledger/internal/domain"
)

// ClientUseCase registers clients and resolves principals to clients.
type ClientUseCase struct {
	clientRepo ClientRepository
	idGen      IDGenerator
	tokens     TokenIssuer
	operators  map[string]bool
}

// NewClientUseCase creates a new client use case. tokens may be nil when auth is disabled.
func NewClientUseCase(clientRepo ClientRepository, idGen IDGenerator, tokens TokenIssuer) *ClientUseCase {
	return &ClientUseCase{
		clientRepo: clientRepo,
		idGen:      idGen,
		tokens:     tokens,
		operators:  map[string]bool{},
	}
}

// WithOperators grants the operator role to tokens issued for these emails.
func (uc *ClientUseCase) WithOperators(emails ...string) *ClientUseCase {
	for _, email := range emails {
		if email = normalizeEmail(email); email != "" {
			uc.operators[email] = true
		}
	}
	return uc
}

func (uc *ClientUseCase) roleFor(client *domain.Client) string {
	if uc.operators[normalizeEmail(client.Email)] {
		return domain.RoleOperator
	}
	return domain.RoleClient
}

// RegisterClientInput represents input for registering a client
type RegisterClientInput struct {
	Name     string
	Email    string
	Password string
}

// RegisterClient creates a client with a hashed password.
func (uc *ClientUseCase) RegisterClient(ctx context.Context, input RegisterClientInput) (*domain.Client, error) {
	email := normalizeEmail(input.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}

	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	existing, err := uc.clientRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, domain.ErrClientAlreadyExists
	}
	if err != nil && !errors.Is(err, domain.ErrClientNotFound) {
		return nil, err
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	client := &domain.Client{
		ID:             uc.idGen.Generate(),
		Name:           strings.TrimSpace(input.Name),
		Email:          email,
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now().UTC(),
	}

	if err := uc.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}

	client.HashedPassword = ""
	return client, nil
}

// IssueToken verifies the client's credentials and returns an access token.
func (uc *ClientUseCase) IssueToken(ctx context.Context, email, password string) (string, *domain.Client, error) {
	if uc.tokens == nil {
		return "", nil, domain.ErrUnauthorized
	}

	client, err := uc.clientRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", nil, domain.ErrUnauthorized
	}

	if err := verifyPassword(client.HashedPassword, password); err != nil {
		return "", nil, domain.ErrUnauthorized
	}

	token, err := uc.tokens.Generate(client.ID, client.Email, uc.roleFor(client))
	if err != nil {
		return "", nil, err
	}

	client.HashedPassword = ""
	return token, client, nil
}

// ResolveByEmail maps an authenticated principal to its client.
func (uc *ClientUseCase) ResolveByEmail(ctx context.Context, email string) (*domain.Client, error) {
	client, err := uc.clientRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	client.HashedPassword = ""
	return client, nil
}

// GetClient retrieves a client by ID
func (uc *ClientUseCase) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	client, err := uc.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	client.HashedPassword = ""
	return client, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// hashPassword hashes a password using bcrypt
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword verifies a password against a hash
func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
