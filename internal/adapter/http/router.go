package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iho/clientledger/internal/adapter/http/handler"
	"github.com/iho/clientledger/internal/adapter/http/middleware"
	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	TransactionHandler    *handler.TransactionHandler
	AuthHandler           *handler.AuthHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler
	IdempotencyStore      usecase.IdempotencyStore
	IdempotencyTTL        time.Duration
	RateLimiter           *middleware.RateLimiter
	// TokenVerifier enables bearer auth. When nil the caller is identified by X-Client-ID
	// and the reconciliation routes are not mounted.
	TokenVerifier  middleware.TokenVerifier
	Clients        middleware.ClientDirectory
	AuthFailures   *prometheus.CounterVec
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	authEnabled := cfg.TokenVerifier != nil

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.AuthHandler != nil {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/token", cfg.AuthHandler.Token)
		}

		// Client-scoped endpoints
		r.Group(func(r chi.Router) {
			if authEnabled {
				r.Use(middleware.AuthMiddleware(cfg.TokenVerifier, cfg.AuthFailures))
			}
			r.Use(middleware.ResolveClient(cfg.Clients, !authEnabled))

			// Idempotency keys are scoped to the resolved client
			if cfg.IdempotencyStore != nil {
				r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
			}

			r.Route("/transactions", func(r chi.Router) {
				r.Post("/deposit", cfg.TransactionHandler.Deposit)
				r.Post("/withdraw", cfg.TransactionHandler.Withdraw)
				r.Get("/balance", cfg.TransactionHandler.Balance)
				r.Get("/recent", cfg.TransactionHandler.Recent)
				r.Get("/", cfg.TransactionHandler.List)
			})

			if cfg.AuthHandler != nil {
				r.Get("/clients/me", cfg.AuthHandler.Me)
			}
		})

		// Operator endpoints read and rewrite any account, so they need an operator token
		if cfg.ReconciliationHandler != nil && authEnabled {
			r.Route("/reconciliation", func(r chi.Router) {
				r.Use(middleware.AuthMiddleware(cfg.TokenVerifier, cfg.AuthFailures))
				r.Use(middleware.RequireRole(domain.RoleOperator))
				r.Get("/", cfg.ReconciliationHandler.Report)
				r.Get("/{accountID}", cfg.ReconciliationHandler.Account)
				r.Post("/{accountID}/rebuild", cfg.ReconciliationHandler.Rebuild)
			})
		}
	})

	return r
}
