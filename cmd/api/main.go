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

	"coin-ledger/config"
	httpHandler "coin-ledger/internal/adapter/http/handler"
	"coin-ledger/internal/adapter/messaging/kafka"
	"coin-ledger/internal/adapter/pricefeed"
	"coin-ledger/internal/adapter/storage/memory"
	pgStorage "coin-ledger/internal/adapter/storage/postgres"
	redisStorage "coin-ledger/internal/adapter/storage/redis"
	"coin-ledger/internal/core/ports"
	"coin-ledger/internal/service"
	"coin-ledger/pkg/logger"

	"github.com/rs/zerolog"
)

// storage bundles the repositories of one database driver.
type storage struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	auditRepo  ports.AuditRepository
	transactor ports.DBTransactor
	health     ports.HealthChecker
	close      func()
}

func openStorage(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*storage, error) {
	switch cfg.Driver {
	case "memory":
		log.Warn().Msg("Using in-memory storage, data is lost on exit")
		store := memory.New()
		return &storage{
			walletRepo: memory.NewWalletRepo(store),
			txRepo:     memory.NewTransactionRepo(store),
			auditRepo:  memory.NewAuditRepo(store),
			transactor: store,
			health:     store,
			close:      func() {},
		}, nil
	case "postgres", "":
		pool, err := pgStorage.NewPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if cfg.Migrate {
			if err := pgStorage.Migrate(ctx, pool, log); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &storage{
			walletRepo: pgStorage.NewWalletRepo(pool),
			txRepo:     pgStorage.NewTransactionRepo(pool),
			auditRepo:  pgStorage.NewAuditRepo(pool),
			transactor: pgStorage.NewTransactor(pool),
			health:     pgStorage.NewHealthCheck(pool),
			close:      pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Caller: cfg.Log.Level == "debug",
	})

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("driver", cfg.Database.Driver).
		Msg("Starting coin ledger")

	ctx := context.Background()

	// Initialize storage
	store, err := openStorage(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.close()
	log.Info().Str("storage", store.health.Name()).Msg("Storage ready")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	priceCache := redisStorage.NewPriceCache(rdb, cfg.PriceFeed.VsCurrency)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Price lookup
	feed := pricefeed.NewCoinGecko(&http.Client{Timeout: cfg.PriceFeed.Timeout}, cfg.PriceFeed)
	prices := service.NewCachedPriceProvider(feed, priceCache, cfg.PriceFeed.CacheTTL, logger.Component(log, "pricefeed"))

	// Ledger events
	var publisher ports.EventPublisher = kafka.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = kafka.NewPublisher(kafka.NewWriter(cfg.Kafka))
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Kafka publisher enabled")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close event publisher")
		}
	}()

	// Initialize business services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	ledgerSvc := service.NewLedgerService(
		store.txRepo,
		store.walletRepo,
		store.transactor,
		idempotencyCache,
		publisher,
		cfg.Ledger.FutureTolerance,
		logger.Component(log, "ledger"),
	)
	walletSvc := service.NewWalletService(store.walletRepo, logger.Component(log, "wallets"))
	portfolioSvc := service.NewPortfolioService(store.txRepo, store.walletRepo, prices)
	auditSvc := service.NewAuditService(store.auditRepo, logger.Component(log, "audit"))

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		LedgerSvc:      ledgerSvc,
		WalletSvc:      walletSvc,
		PortfolioSvc:   portfolioSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{store.health, redisStorage.NewHealthCheck(rdb)},
		AuditSvc:       auditSvc,
		VsCurrency:     cfg.PriceFeed.VsCurrency,
		Mode:           cfg.Server.Mode,
		Logger:         logger.Component(log, "http"),
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
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

	// Drain pending audit writes before the pool closes.
	auditSvc.Wait()

	log.Info().Msg("Server exited")
}
