package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	redislib "github.com/redis/go-redis/v9"

	"github.com/momentfi/moment-server/internal/adapter/classifier"
	httpAdapter "github.com/momentfi/moment-server/internal/adapter/http"
	"github.com/momentfi/moment-server/internal/adapter/http/handler"
	postgresRepo "github.com/momentfi/moment-server/internal/adapter/repository/postgres"
	redisRepo "github.com/momentfi/moment-server/internal/adapter/repository/redis"
	"github.com/momentfi/moment-server/internal/infrastructure/bus"
	"github.com/momentfi/moment-server/internal/infrastructure/config"
	"github.com/momentfi/moment-server/internal/infrastructure/logger"
	"github.com/momentfi/moment-server/internal/infrastructure/metrics"
	"github.com/momentfi/moment-server/internal/infrastructure/postgres"
	"github.com/momentfi/moment-server/internal/infrastructure/redis"
	"github.com/momentfi/moment-server/internal/usecase"
)

const migrationsPath = "internal/infrastructure/postgres/migrations"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	// Connect to PostgreSQL and apply migrations
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, migrationsPath, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis when configured; idempotency caching degrades to
	// off without it.
	var redisClient *redislib.Client
	var idempotencyStore usecase.IdempotencyStore
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		log.Info().Msg("connected to redis")

		redisClient = client
		idempotencyStore = redisRepo.NewIdempotencyStore(client)
	}

	m := metrics.New()

	// Initialize repositories
	retrier := postgresRepo.NewRetrier(log)
	transactionRepo := postgresRepo.NewTransactionRepository(pool, retrier)
	accountRepo := postgresRepo.NewAccountRepository(pool, retrier)
	categoryRepo := postgresRepo.NewCategoryRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize the notification channel and use cases
	channel := bus.New(log, m)

	reconciler := usecase.NewReconciler(accountRepo, log, m, cfg.ReconcileMaxRetries, cfg.ReconcileRetryDelay)
	impact := usecase.NewImpactAnalyzer(transactionRepo, log, m)
	deletionUC := usecase.NewDeletionUseCase(
		transactionRepo, reconciler, impact, channel, idGen, log, m,
		cfg.UndoWindow, cfg.DeletionTick,
	)
	defer deletionUC.Close()

	var suggester usecase.CategorySuggester
	if cfg.ClassifierURL != "" {
		suggester = classifier.New(cfg.ClassifierURL, cfg.ClassifierTimeout, log, m)
		log.Info().Str("url", cfg.ClassifierURL).Msg("classifier sidecar enabled")
	}

	transactionUC := usecase.NewTransactionUseCase(transactionRepo, accountRepo, categoryRepo, suggester, idGen, log, m)
	accountUC := usecase.NewAccountUseCase(accountRepo, idGen, log)
	categoryUC := usecase.NewCategoryUseCase(categoryRepo, idGen, log)

	// Initialize handlers
	transactionHandler := handler.NewTransactionHandler(transactionUC, deletionUC)
	accountHandler := handler.NewAccountHandler(accountUC)
	categoryHandler := handler.NewCategoryHandler(categoryUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		TransactionHandler: transactionHandler,
		AccountHandler:     accountHandler,
		CategoryHandler:    categoryHandler,
		HealthHandler:      healthHandler,
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		Logger:             log,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown. Closing the deletion use case (deferred above)
	// cancels in-flight undo timers; pending flags stay persisted and are
	// recoverable after restart.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
