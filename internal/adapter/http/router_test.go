package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/clientledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/clientledger/internal/adapter/http/middleware"
	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/infrastructure/auth"
	"github.com/iho/clientledger/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/deposit", strings.NewReader(`{"amount":10}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.ClientIDHeader, "client-1")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
	if !strings.HasPrefix(store.lastKey, "client-1:") {
		t.Fatalf("expected key scoped to client, got %q", store.lastKey)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestNewRouter_HeaderIdentityWhenAuthDisabled(t *testing.T) {
	router := NewRouter(newRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/balance", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without X-Client-ID, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/transactions/balance", nil)
	req.Header.Set(apimiddleware.ClientIDHeader, "client-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"client_id":"client-1"`) {
		t.Fatalf("unexpected balance response %d %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_BearerAuthResolvesClient(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.TokenVerifier = manager
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/balance", nil)
	req.Header.Set(apimiddleware.ClientIDHeader, "client-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected header identity to be refused with auth on, got %d", rec.Code)
	}

	token, err := manager.Generate("ignored", "ada@example.com", "client")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/transactions/balance", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"client_id":"client-ada"`) {
		t.Fatalf("unexpected balance response %d %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/token",
		"POST /api/v1/transactions/deposit",
		"POST /api/v1/transactions/withdraw",
		"GET /api/v1/transactions/balance",
		"GET /api/v1/transactions/recent",
		"GET /api/v1/transactions/",
		"GET /api/v1/clients/me",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}

	for route := range seen {
		if strings.Contains(route, "/reconciliation") {
			t.Fatalf("reconciliation route %s must not be mounted without token auth", route)
		}
	}
}

func TestNewRouter_ReconciliationRequiresOperator(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.TokenVerifier = manager
	}))

	clientToken, err := manager.Generate("client-ada", "ada@example.com", domain.RoleClient)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	operatorToken, err := manager.Generate("op", "ops@example.com", domain.RoleOperator)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	requests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/reconciliation/"},
		{http.MethodGet, "/api/v1/reconciliation/someone-else"},
		{http.MethodPost, "/api/v1/reconciliation/someone-else/rebuild"},
	}

	for _, rq := range requests {
		for _, tc := range []struct {
			token string
			want  int
		}{
			{"", http.StatusUnauthorized},
			{clientToken, http.StatusForbidden},
			{operatorToken, http.StatusOK},
		} {
			req := httptest.NewRequest(rq.method, rq.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("%s %s: expected %d, got %d", rq.method, rq.path, tc.want, rec.Code)
			}
		}
	}
}

func TestNewRouter_ReconciliationHiddenWithoutAuth(t *testing.T) {
	router := NewRouter(newRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reconciliation/", nil)
	req.Header.Set(apimiddleware.ClientIDHeader, "client-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without token auth, got %d", rec.Code)
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	clients := &stubClientService{}

	cfg := RouterConfig{
		HealthHandler:         handler.NewHealthHandler(),
		TransactionHandler:    handler.NewTransactionHandler(&stubTransactionService{}),
		AuthHandler:           handler.NewAuthHandler(clients),
		ReconciliationHandler: handler.NewReconciliationHandler(&stubReconciler{}),
		Clients:               clients,
		Logger:                zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubTransactionService struct{}

func (stubTransactionService) Deposit(ctx context.Context, clientID string, amount decimal.Decimal) (*domain.Transaction, error) {
	return &domain.Transaction{AccountID: clientID, ClientID: clientID, Type: domain.TransactionTypeDeposit, Amount: amount}, nil
}

func (stubTransactionService) Withdraw(ctx context.Context, clientID string, amount decimal.Decimal) (*domain.Transaction, error) {
	return &domain.Transaction{AccountID: clientID, ClientID: clientID, Type: domain.TransactionTypeWithdraw, Amount: amount}, nil
}

func (stubTransactionService) Balance(ctx context.Context, clientID string) (*usecase.BalanceResult, error) {
	return &usecase.BalanceResult{Balance: decimal.Zero}, nil
}

func (stubTransactionService) ListTransactions(ctx context.Context, clientID string) ([]*domain.TransactionEvent, error) {
	return []*domain.TransactionEvent{}, nil
}

func (stubTransactionService) RecentTransactions(ctx context.Context, clientID string) ([]*domain.TransactionEvent, error) {
	return []*domain.TransactionEvent{}, nil
}

type stubClientService struct{}

func (stubClientService) RegisterClient(ctx context.Context, input usecase.RegisterClientInput) (*domain.Client, error) {
	return &domain.Client{ID: "client", Name: input.Name, Email: input.Email}, nil
}

func (stubClientService) IssueToken(ctx context.Context, email, password string) (string, *domain.Client, error) {
	return "", nil, domain.ErrUnauthorized
}

func (stubClientService) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	return &domain.Client{ID: id}, nil
}

func (stubClientService) ResolveByEmail(ctx context.Context, email string) (*domain.Client, error) {
	if email == "ada@example.com" {
		return &domain.Client{ID: "client-ada", Email: email}, nil
	}
	return nil, domain.ErrClientNotFound
}

type stubReconciler struct{}

func (stubReconciler) GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return &usecase.ReconciliationReport{}, nil
}

func (stubReconciler) ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error) {
	return &usecase.ReconciliationResult{AccountID: accountID, IsReconciled: true}, nil
}

func (stubReconciler) RebuildProjection(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error) {
	return &usecase.ReconciliationResult{AccountID: accountID, IsReconciled: true}, nil
}

type stubIdempotencyStore struct {
	checkCalled bool
	lastKey     string
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	s.lastKey = key
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
