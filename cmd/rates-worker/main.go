// Standalone exchange-rate refresher. Runs the same refresh loop as the API
// server for deployments that schedule rate updates separately.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"kopilka/internal/config"
	applog "kopilka/internal/log"
	"kopilka/internal/rates"
	"kopilka/internal/services"
	"kopilka/internal/storage"
	"kopilka/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	slog.SetDefault(logger.Logger)

	logger.Info("Starting rates-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	store := services.NewStore(repo)
	currency := services.NewCurrencyService(store, []rates.Source{
		rates.NewCentralBankSource(cfg.CentralBankURL),
		rates.NewOpenExchangeSource(cfg.OpenExchangeURL, cfg.OpenExchangeAppID),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refresher := worker.NewRateRefresher(currency, cfg.RefreshInterval)
	refresher.Start(ctx)

	logger.Info("Rate refresher started", "interval", cfg.RefreshInterval.String())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	refresher.Stop()
	logger.Info("Rates worker stopped gracefully")
}
