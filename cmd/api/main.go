package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-ledger/config"
	httpHandler "wallet-ledger/internal/adapter/http/handler"
	memStorage "wallet-ledger/internal/adapter/storage/memory"
	pgStorage "wallet-ledger/internal/adapter/storage/postgres"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/service"
	"wallet-ledger/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ledgerStore bundles the repositories of one storage backend.
type ledgerStore struct {
	wallets      ports.WalletRepository
	transactions ports.TransactionRepository
	idempotency  ports.IdempotencyRepository
	transactor   ports.DBTransactor
	health       ports.HealthChecker
	close        func()
}

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	log.Info().
		Str("mode", cfg.Server.Mode).
		Str("store", cfg.Ledger.Store).
		Int("port", cfg.Server.Port).
		Msg("Starting Wallet Ledger")

	ctx := context.Background()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	defer store.close()

	checkers := []ports.HealthChecker{store.health}

	// Redis is an optional fast path for duplicate detection.
	var idempotencyCache ports.IdempotencyCache
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		idempotencyCache = redisStorage.NewIdempotencyCache(rdb)
		checkers = append(checkers, redisStorage.NewHealthCheck(rdb))
	}

	walletSvc := service.NewWalletService(store.wallets, store.transactions, logger.Component(log, "wallets"))
	ledgerSvc := service.NewLedgerService(
		store.wallets,
		store.transactions,
		store.idempotency,
		idempotencyCache,
		store.transactor,
		cfg.Ledger.IdempotencyCacheTTL,
		logger.Component(log, "ledger"),
	)

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletSvc:      walletSvc,
		LedgerSvc:      ledgerSvc,
		HealthCheckers: checkers,
		Logger:         logger.Component(log, "http"),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// openStore builds the configured storage backend.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*ledgerStore, error) {
	switch cfg.Ledger.Store {
	case config.StoreMemory:
		mem := memStorage.NewStore(cfg.Ledger.LockTimeout)
		log.Warn().Msg("Using in-memory ledger store, balances are lost on exit")
		return &ledgerStore{
			wallets:      memStorage.NewWalletRepo(mem),
			transactions: memStorage.NewTransactionRepo(mem),
			idempotency:  memStorage.NewIdempotencyRepo(mem),
			transactor:   memStorage.NewTransactor(mem),
			health:       memStorage.NewHealthCheck(),
			close:        func() {},
		}, nil

	case config.StorePostgres:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("PostgreSQL connected")
		return &ledgerStore{
			wallets:      pgStorage.NewWalletRepo(pool),
			transactions: pgStorage.NewTransactionRepo(pool),
			idempotency:  pgStorage.NewIdempotencyRepo(pool),
			transactor:   pgStorage.NewTransactor(pool, cfg.Ledger),
			health:       pgStorage.NewHealthCheck(pool),
			close:        pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown ledger store %q", cfg.Ledger.Store)
	}
}
