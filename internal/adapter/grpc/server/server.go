package server

import (
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/iho/clientledger/internal/adapter/grpc/ledgerv1"
	"github.com/iho/clientledger/internal/adapter/grpc/middleware"
)

// Config wires the gRPC server.
type Config struct {
	Ledger LedgerUseCase
	// TokenVerifier enables bearer auth. When nil callers send x-client-id.
	TokenVerifier    middleware.TokenVerifier
	Clients          middleware.ClientDirectory
	IdempotencyStore middleware.IdempotencyStore
	IdempotencyTTL   time.Duration
	Logger           zerolog.Logger
}

// New builds a gRPC server exposing LedgerService and the standard health service.
// The returned health server starts SERVING for the ledger service.
func New(cfg Config) (*grpc.Server, *health.Server) {
	interceptors := []grpc.UnaryServerInterceptor{
		middleware.AuthInterceptor(cfg.TokenVerifier, cfg.Clients),
	}
	if cfg.IdempotencyStore != nil {
		interceptors = append(interceptors, middleware.IdempotencyInterceptor(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger))
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	ledgerv1.RegisterLedgerServiceServer(srv, NewLedgerServer(cfg.Ledger))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(srv, healthServer)
	healthServer.SetServingStatus(ledgerv1.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv, healthServer
}
