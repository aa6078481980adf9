package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "coinvault/docs"

	"coinvault/internal/asset"
	"coinvault/internal/config"
	"coinvault/internal/db"
	"coinvault/internal/idempotency"
	"coinvault/internal/logger"
	"coinvault/internal/recon"
	"coinvault/internal/server"
)

// @title CoinVault API
// @version 1.0
// @description Multi-asset virtual currency ledger with treasury-backed balances.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {

	logger.Init()
	logger.Info("Starting CoinVault application")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	registry, err := asset.LoadRegistry(context.Background(), database)
	if err != nil {
		logger.Fatalf("Failed to load asset registry: %v", err)
	}
	logger.Info("Asset registry loaded", "assets", registry.Names())

	cache := idempotency.NewCache(cfg.RedisAddr)
	defer cache.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := recon.NewWorker(database, registry, time.Duration(cfg.ReconInterval)*time.Second)
	go worker.Start(ctx)

	srv := server.New(database, cfg, registry, cache)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
