package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"

	"github.com/yuchialin/expense-claim/internal/common"
	"github.com/yuchialin/expense-claim/internal/expenses"
	"github.com/yuchialin/expense-claim/internal/export"
	"github.com/yuchialin/expense-claim/internal/identity"
	"github.com/yuchialin/expense-claim/internal/repository"
	"github.com/yuchialin/expense-claim/internal/server"
	"github.com/yuchialin/expense-claim/internal/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// a .env file is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("could not load .env file", "error", err)
	}

	var cfg common.Config
	if err := env.Parse(&cfg); err != nil {
		logger.Error("failed to parse configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbCfg := repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}
	db, pool, err := repository.Open(ctx, dbCfg, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, pool, logger)

	if err := repository.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	store := storage.NewClient(storage.Config{
		BaseURL:    cfg.Storage.BaseURL,
		ServiceKey: cfg.Storage.ServiceKey,
		Bucket:     cfg.Storage.Bucket,
		Timeout:    cfg.Storage.Timeout,
	}, logger)

	verifier := identity.NewHTTPVerifier(identity.Config{
		BaseURL: cfg.Identity.BaseURL,
		Timeout: cfg.Identity.Timeout,
	}, logger)

	expenseRepo := repository.NewExpenseRepository(db, logger)
	userRepo := repository.NewProviderUserRepository(db, logger)

	svc := expenses.NewService(expenseRepo, store, cfg.Storage.SignedURLTTL, logger)
	exporter := export.NewService(expenseRepo, logger)

	srv := server.New(svc, exporter, verifier, userRepo, cfg.Webhook, db, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
