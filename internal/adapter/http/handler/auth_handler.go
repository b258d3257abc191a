package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iho/clientledger/internal/adapter/http/dto"
	"github.com/iho/clientledger/internal/adapter/http/middleware"
	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/usecase"
)

// ClientService registers clients and issues their tokens.
type ClientService interface {
	RegisterClient(ctx context.Context, input usecase.RegisterClientInput) (*domain.Client, error)
	IssueToken(ctx context.Context, email, password string) (string, *domain.Client, error)
	GetClient(ctx context.Context, id string) (*domain.Client, error)
}

// AuthHandler handles registration and token endpoints
type AuthHandler struct {
	clients ClientService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(clients ClientService) *AuthHandler {
	return &AuthHandler{clients: clients}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	client, err := h.clients.RegisterClient(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ClientFromDomain(client))
}

// Token handles POST /auth/token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	token, client, err := h.clients.IssueToken(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{
		Token:  token,
		Client: dto.ClientFromDomain(client),
	})
}

// Me returns the calling client
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.ClientIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	client, err := h.clients.GetClient(r.Context(), clientID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ClientFromDomain(client))
}
