package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	grpcserver "github.com/iho/clientledger/internal/adapter/grpc/server"
	httpAdapter "github.com/iho/clientledger/internal/adapter/http"
	"github.com/iho/clientledger/internal/adapter/http/handler"
	"github.com/iho/clientledger/internal/adapter/http/middleware"
	memoryRepo "github.com/iho/clientledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/clientledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/clientledger/internal/adapter/repository/redis"
	"github.com/iho/clientledger/internal/infrastructure/auth"
	"github.com/iho/clientledger/internal/infrastructure/config"
	"github.com/iho/clientledger/internal/infrastructure/eventbus"
	"github.com/iho/clientledger/internal/infrastructure/eventpublisher"
	"github.com/iho/clientledger/internal/infrastructure/logger"
	"github.com/iho/clientledger/internal/infrastructure/metrics"
	"github.com/iho/clientledger/internal/infrastructure/postgres"
	"github.com/iho/clientledger/internal/infrastructure/reconciler"
	"github.com/iho/clientledger/internal/infrastructure/redis"
	"github.com/iho/clientledger/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("server failed")
	}

	appLogger.Info().Msg("server stopped")
}

// storage is the set of repositories backing one store driver.
type storage struct {
	txManager usecase.TransactionManager
	events    usecase.EventStore
	outbox    usecase.OutboxRepository
	balances  usecase.BalanceRepository
	clients   usecase.ClientRepository
	locker    usecase.AccountLocker
	retrier   usecase.Retrier
	checks    map[string]handler.HealthCheck
	close     func()
}

// app is the fully wired server.
type app struct {
	router     http.Handler
	grpcServer *grpc.Server
	grpcHealth *health.Server
	bus        *eventbus.Bus
	relay      *eventpublisher.EventPublisher
	reconciler *reconciler.Worker
	limiter    *middleware.RateLimiter
	close      func()
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger, idGen usecase.IDGenerator) (*storage, error) {
	if cfg.StoreDriver == config.DriverMemory {
		store := memoryRepo.NewStore()
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return &storage{
			txManager: store.TxManager,
			events:    store.Events,
			outbox:    store.Outbox,
			balances:  store.Balances,
			clients:   store.Clients,
			locker:    store.Locker,
			checks:    map[string]handler.HealthCheck{},
			close:     func() {},
		}, nil
	}

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	log.Info().Msg("connected to postgres")

	return &storage{
		txManager: postgresRepo.NewTxManager(pool),
		events:    postgresRepo.NewEventStore(pool, idGen),
		outbox:    postgresRepo.NewOutboxRepository(pool),
		balances:  postgresRepo.NewBalanceRepository(pool),
		clients:   postgresRepo.NewClientRepository(pool),
		locker:    postgresRepo.NewAccountLocker(),
		retrier:   postgresRepo.NewRetrier(log),
		checks: map[string]handler.HealthCheck{
			"postgres": pool.Ping,
		},
		close: pool.Close,
	}, nil
}

func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer) (*app, error) {
	idGen := postgresRepo.NewIDGenerator()

	store, err := openStorage(ctx, cfg, log, idGen)
	if err != nil {
		return nil, err
	}
	closers := []func(){store.close}

	m := metrics.NewWithRegisterer(reg)

	// Redis backs the balance cache and idempotency keys
	var (
		cache            usecase.Cache
		idempotencyStore *redisRepo.IdempotencyStore
	)
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL, redis.Options{PoolSize: cfg.RedisPoolSize})
		if err != nil {
			store.close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		closers = append(closers, func() { redisClient.Close() })
		log.Info().Msg("connected to redis")

		cache = redisRepo.NewCache(redisClient)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		store.checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	projector := usecase.NewProjector(store.txManager, store.outbox, store.balances, cache, log, m)

	busHandlers := []eventbus.Handler{projector}
	if cfg.EventLogEnabled {
		busHandlers = append(busHandlers, eventpublisher.NewLogHandler(log))
	}
	bus := eventbus.New(eventbus.Config{
		Buffer:  cfg.EventBusBuffer,
		Workers: cfg.EventBusWorkers,
		Logger:  log,
	}, busHandlers...)

	deps := usecase.CommandDeps{
		TxManager: store.txManager,
		Events:    store.events,
		Outbox:    store.outbox,
		Bus:       bus,
		IDGen:     idGen,
		Logger:    log,
		Recorder:  m,
	}
	depositHandler := usecase.NewDepositHandler(deps)
	withdrawHandler := usecase.NewWithdrawHandler(deps, store.locker)

	view, err := usecase.NewBalanceView(cfg.BalanceView, store.events, store.balances, cache, cfg.BalanceCacheTTL, log)
	if err != nil {
		store.close()
		return nil, err
	}

	dispatcher := usecase.NewDispatcher(
		depositHandler,
		withdrawHandler,
		usecase.NewGetAccountBalanceHandler(view),
		usecase.NewListTransactionsByAccountHandler(store.events),
		usecase.NewGetTransactionsByClientHandler(store.events),
	)

	reconciliation := usecase.NewReconciliationUseCase(store.txManager, store.events, store.outbox, store.balances, cache, m, log)

	if store.retrier != nil {
		depositHandler.WithRetrier(store.retrier)
		withdrawHandler.WithRetrier(store.retrier)
		reconciliation.WithRetrier(store.retrier)
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret = randomSecret()
		log.Warn().Msg("JWT_SECRET not set, issued tokens will not survive a restart")
	}
	jwtManager := auth.NewJWTManager(secret, cfg.JWTExpiration)
	clients := usecase.NewClientUseCase(store.clients, idGen, jwtManager).WithOperators(cfg.OperatorEmails...)

	healthHandler := handler.NewHealthHandler()
	for name, check := range store.checks {
		healthHandler.WithCheck(name, check)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithHitCounter(m.RateLimitHits)

	routerCfg := httpAdapter.RouterConfig{
		TransactionHandler:    handler.NewTransactionHandler(dispatcher),
		AuthHandler:           handler.NewAuthHandler(clients),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliation),
		HealthHandler:         healthHandler,
		IdempotencyTTL:        cfg.IdempotencyTTL,
		RateLimiter:           limiter,
		Clients:               clients,
		AuthFailures:          m.AuthFailures,
		MetricsHandler:        promhttp.Handler(),
		Logger:                log,
	}
	grpcCfg := grpcserver.Config{
		Ledger:         dispatcher,
		Clients:        clients,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Logger:         log,
	}
	if idempotencyStore != nil {
		routerCfg.IdempotencyStore = idempotencyStore
		grpcCfg.IdempotencyStore = idempotencyStore
	}
	if cfg.AuthEnabled {
		routerCfg.TokenVerifier = jwtManager
		grpcCfg.TokenVerifier = jwtManager
	}

	a := &app{
		router:  httpAdapter.NewRouter(routerCfg),
		bus:     bus,
		limiter: limiter,
		relay: eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: store.outbox,
			Handler:    projector,
			Logger:     log,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			MinAge:     cfg.OutboxMinAge,
			Retention:  cfg.OutboxRetention,
		}),
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}

	if cfg.GRPCPort != "" {
		a.grpcServer, a.grpcHealth = grpcserver.New(grpcCfg)
	}

	if cfg.ReconcileInterval > 0 {
		a.reconciler = reconciler.NewWorker(reconciler.Config{
			Reconciler: reconciliation,
			Logger:     log,
			Interval:   cfg.ReconcileInterval,
			Repair:     cfg.ReconcileRepair,
		})
	}

	return a, nil
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	a, err := buildApp(ctx, cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer a.close()

	var grpcListener net.Listener
	if a.grpcServer != nil {
		grpcListener, err = net.Listen("tcp", listenAddr(cfg.GRPCPort))
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
	}

	// Background workers stop when workerCtx is cancelled, after the servers drain
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	a.bus.Start(workerCtx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreCanceled(a.relay.Start(workerCtx))
	})

	if a.reconciler != nil {
		g.Go(func() error {
			return ignoreCanceled(a.reconciler.Start(workerCtx))
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return nil
			case <-ticker.C:
				a.limiter.CleanupLimiters(30 * time.Minute)
			}
		}
	})

	server := &http.Server{
		Addr:         listenAddr(cfg.HTTPPort),
		Handler:      a.router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.grpcServer != nil {
		g.Go(func() error {
			log.Info().Str("port", cfg.GRPCPort).Msg("starting grpc server")
			return a.grpcServer.Serve(grpcListener)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()

		if a.grpcHealth != nil {
			a.grpcHealth.Shutdown()
		}
		if a.grpcServer != nil {
			a.grpcServer.GracefulStop()
		}
		err := server.Shutdown(shutdownCtx)

		// Drain queued events before the workers stop
		a.bus.Close()
		cancelWorkers()
		return err
	})

	return g.Wait()
}

func listenAddr(port string) string {
	return fmt.Sprintf(":%s", port)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
