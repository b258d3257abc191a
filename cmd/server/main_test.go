package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/clientledger/internal/adapter/http/dto"
	"github.com/iho/clientledger/internal/adapter/http/middleware"
	"github.com/iho/clientledger/internal/infrastructure/config"
	"github.com/iho/clientledger/internal/usecase"
)

func memoryConfig() *config.Config {
	return &config.Config{
		StoreDriver:         config.DriverMemory,
		BalanceView:         usecase.BalanceViewFold,
		BalanceCacheTTL:     time.Minute,
		EventBusBuffer:      64,
		EventBusWorkers:     1,
		OutboxBatchSize:     10,
		OutboxInterval:      time.Second,
		OutboxMinAge:        time.Second,
		IdempotencyTTL:      time.Hour,
		RateLimitRPS:        1000,
		RateLimitBurst:      1000,
		JWTExpiration:       time.Hour,
		HTTPShutdownTimeout: time.Second,
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *app {
	t.Helper()

	a, err := buildApp(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a
}

type call struct {
	method  string
	path    string
	body    any
	headers map[string]string
}

func do(t *testing.T, h http.Handler, c call) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}

	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBuildApp_MemoryLedgerFlow(t *testing.T) {
	a := newTestApp(t, memoryConfig())
	client := map[string]string{middleware.ClientIDHeader: "alice"}

	rec := do(t, a.router, call{http.MethodPost, "/api/v1/transactions/deposit", map[string]string{"amount": "100"}, client})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, a.router, call{http.MethodPost, "/api/v1/transactions/withdraw", map[string]string{"amount": "30"}, client})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, a.router, call{http.MethodPost, "/api/v1/transactions/withdraw", map[string]string{"amount": "1000"}, client})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, a.router, call{http.MethodGet, "/api/v1/transactions/balance", nil, client})
	require.Equal(t, http.StatusOK, rec.Code)

	var balance dto.BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balance))
	assert.Equal(t, "alice", balance.ClientID)
	assert.Equal(t, "70", balance.Balance)

	rec = do(t, a.router, call{http.MethodGet, "/api/v1/transactions/", nil, client})
	require.Equal(t, http.StatusOK, rec.Code)

	var list dto.ListTransactionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Transactions, 2)
	assert.Equal(t, "DEPOSIT", list.Transactions[0].Type)
	assert.Equal(t, "WITHDRAW", list.Transactions[1].Type)
}

func TestBuildApp_ClientsAreIsolated(t *testing.T) {
	a := newTestApp(t, memoryConfig())

	rec := do(t, a.router, call{http.MethodPost, "/api/v1/transactions/deposit", map[string]string{"amount": "40"},
		map[string]string{middleware.ClientIDHeader: "alice"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, a.router, call{http.MethodPost, "/api/v1/transactions/withdraw", map[string]string{"amount": "10"},
		map[string]string{middleware.ClientIDHeader: "bob"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBuildApp_MissingClientID(t *testing.T) {
	a := newTestApp(t, memoryConfig())

	rec := do(t, a.router, call{http.MethodGet, "/api/v1/transactions/balance", nil, nil})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBuildApp_TokenAuthFlow(t *testing.T) {
	cfg := memoryConfig()
	cfg.AuthEnabled = true
	cfg.JWTSecret = "test-secret"
	a := newTestApp(t, cfg)

	rec := do(t, a.router, call{http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "correct-horse",
	}, nil})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, a.router, call{http.MethodPost, "/api/v1/auth/token", map[string]string{
		"email": "alice@example.com", "password": "correct-horse",
	}, nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var token dto.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	require.NotEmpty(t, token.Token)

	bearer := map[string]string{"Authorization": "Bearer " + token.Token}

	rec = do(t, a.router, call{http.MethodPost, "/api/v1/transactions/deposit", map[string]string{"amount": "25"}, bearer})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var tx dto.TransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tx))
	assert.Equal(t, token.Client.ID, tx.ClientID)

	rec = do(t, a.router, call{http.MethodGet, "/api/v1/clients/me", nil, bearer})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, a.router, call{http.MethodGet, "/api/v1/reconciliation/" + token.Client.ID, nil, bearer})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// the header fallback is off once tokens are required
	rec = do(t, a.router, call{http.MethodGet, "/api/v1/transactions/balance", nil,
		map[string]string{middleware.ClientIDHeader: token.Client.ID}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBuildApp_OperatorReconciles(t *testing.T) {
	cfg := memoryConfig()
	cfg.AuthEnabled = true
	cfg.JWTSecret = "test-secret"
	cfg.OperatorEmails = []string{"ops@example.com"}
	a := newTestApp(t, cfg)

	rec := do(t, a.router, call{http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Ops", "email": "ops@example.com", "password": "correct-horse",
	}, nil})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, a.router, call{http.MethodPost, "/api/v1/auth/token", map[string]string{
		"email": "ops@example.com", "password": "correct-horse",
	}, nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var token dto.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))

	rec = do(t, a.router, call{http.MethodGet, "/api/v1/reconciliation/", nil,
		map[string]string{"Authorization": "Bearer " + token.Token}})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestBuildApp_ReconciliationNotMountedWithoutAuth(t *testing.T) {
	a := newTestApp(t, memoryConfig())

	rec := do(t, a.router, call{http.MethodGet, "/api/v1/reconciliation/", nil,
		map[string]string{middleware.ClientIDHeader: "alice"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuildApp_IdempotentDepositWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := memoryConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	a := newTestApp(t, cfg)

	headers := map[string]string{
		middleware.ClientIDHeader:       "carol",
		middleware.IdempotencyKeyHeader: "deposit-1",
	}

	first := do(t, a.router, call{http.MethodPost, "/api/v1/transactions/deposit", map[string]string{"amount": "50"}, headers})
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := do(t, a.router, call{http.MethodPost, "/api/v1/transactions/deposit", map[string]string{"amount": "50"}, headers})
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(middleware.IdempotencyReplayHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	rec := do(t, a.router, call{http.MethodGet, "/api/v1/transactions/balance", nil,
		map[string]string{middleware.ClientIDHeader: "carol"}})
	require.Equal(t, http.StatusOK, rec.Code)

	var balance dto.BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balance))
	assert.Equal(t, "50", balance.Balance)

	rec = do(t, a.router, call{http.MethodGet, "/ready", nil, nil})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildApp_GRPCServerOptional(t *testing.T) {
	cfg := memoryConfig()
	a := newTestApp(t, cfg)
	assert.Nil(t, a.grpcServer)

	cfg = memoryConfig()
	cfg.GRPCPort = "50051"
	a = newTestApp(t, cfg)
	assert.NotNil(t, a.grpcServer)
	assert.NotNil(t, a.grpcHealth)
}

func TestBuildApp_ReconcilerOptional(t *testing.T) {
	cfg := memoryConfig()
	a := newTestApp(t, cfg)
	assert.Nil(t, a.reconciler)

	cfg.ReconcileInterval = time.Minute
	a = newTestApp(t, cfg)
	assert.NotNil(t, a.reconciler)
}

func TestBuildApp_UnknownBalanceView(t *testing.T) {
	cfg := memoryConfig()
	cfg.BalanceView = "guess"

	_, err := buildApp(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
	assert.Error(t, err)
}

func TestListenAddr(t *testing.T) {
	assert.Equal(t, ":8080", listenAddr("8080"))
}
