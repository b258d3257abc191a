package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/adapter/http/dto"
	"github.com/iho/clientledger/internal/adapter/http/middleware"
	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/usecase"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

// TransactionService is the command and query surface of the ledger.
type TransactionService interface {
	Deposit(ctx context.Context, clientID string, amount decimal.Decimal) (*domain.Transaction, error)
	Withdraw(ctx context.Context, clientID string, amount decimal.Decimal) (*domain.Transaction, error)
	Balance(ctx context.Context, clientID string) (*usecase.BalanceResult, error)
	ListTransactions(ctx context.Context, clientID string) ([]*domain.TransactionEvent, error)
	RecentTransactions(ctx context.Context, clientID string) ([]*domain.TransactionEvent, error)
}

// TransactionHandler handles deposit, withdraw and history requests for the calling client.
type TransactionHandler struct {
	service TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(service TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// Deposit handles POST /transactions/deposit.
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.service.Deposit)
}

// Withdraw handles POST /transactions/withdraw.
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.service.Withdraw)
}

type submitFunc func(ctx context.Context, clientID string, amount decimal.Decimal) (*domain.Transaction, error)

func (h *TransactionHandler) submit(w http.ResponseWriter, r *http.Request, fn submitFunc) {
	clientID, ok := middleware.ClientIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	tx, err := fn(r.Context(), clientID, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(tx))
}

// Balance handles GET /transactions/balance.
func (h *TransactionHandler) Balance(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.ClientIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	result, err := h.service.Balance(r.Context(), clientID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromResult(clientID, result))
}

// List handles GET /transactions. Events are returned oldest first.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.ClientIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	events, err := h.service.ListTransactions(r.Context(), clientID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.EventsFromDomain(events),
		Total:        len(events),
	})
}

// Recent handles GET /transactions/recent?limit=N. Events are returned newest first.
func (h *TransactionHandler) Recent(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.ClientIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	limit := parseIntQuery(r, "limit", defaultRecentLimit)
	if limit <= 0 || limit > maxRecentLimit {
		limit = defaultRecentLimit
	}

	events, err := h.service.RecentTransactions(r.Context(), clientID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	total := len(events)
	if len(events) > limit {
		events = events[:limit]
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.EventsFromDomain(events),
		Total:        total,
	})
}
