package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"remit-backoffice/config"
	httpHandler "remit-backoffice/internal/adapter/http/handler"
	pgStorage "remit-backoffice/internal/adapter/storage/postgres"
	redisStorage "remit-backoffice/internal/adapter/storage/redis"
	"remit-backoffice/internal/core/ports"
	"remit-backoffice/internal/service"
	"remit-backoffice/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Remit Backoffice")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Run schema migrations and seed system accounts
	if err := pgStorage.Migrate(ctx, pool, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	journalRepo := pgStorage.NewJournalRepo(pool)
	transferRepo := pgStorage.NewTransferRepo(pool)
	agentRepo := pgStorage.NewAgentRepo(pool)
	scheduleRepo := pgStorage.NewScheduleRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	attemptStore := redisStorage.NewAttemptStore(rdb,
		cfg.Transfer.MaxPinAttempts, cfg.Transfer.AttemptWindow, cfg.Transfer.LockoutDuration)
	eventPublisher := redisStorage.NewEventPublisher(rdb, cfg.Transfer.EventChannel)

	// Initialize services
	pinHasher := service.NewArgon2PinHasher()
	ledgerSvc := service.NewLedgerService(accountRepo, journalRepo, log)
	commissionSvc := service.NewCommissionService(scheduleRepo, cfg.Transfer.MissingRatePolicy, log)
	transferSvc := service.NewTransferService(
		transferRepo,
		agentRepo,
		walletRepo,
		ledgerSvc,
		commissionSvc,
		attemptStore,
		eventPublisher,
		pinHasher,
		transactor,
		log,
	)
	walletSvc := service.NewWalletService(walletRepo, agentRepo, ledgerSvc, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		TransferSvc:    transferSvc,
		LedgerSvc:      ledgerSvc,
		WalletSvc:      walletSvc,
		JWTSecret:      cfg.JWT.Secret,
		JWTIssuer:      cfg.JWT.Issuer,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
