package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kopilka/internal/cache"
	"kopilka/internal/config"
	"kopilka/internal/core"
	"kopilka/internal/httpapi"
	applog "kopilka/internal/log"
	"kopilka/internal/notify"
	"kopilka/internal/rates"
	"kopilka/internal/services"
	"kopilka/internal/storage"
	"kopilka/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	slog.SetDefault(logger.Logger)

	logger.Info("Starting kopilka")

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

	// Events degrade to log lines when no broker is configured.
	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
		logger.Info("AMQP notifier initialized", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled, events will be logged only")
	}

	store := services.NewStore(repo)
	sources := []rates.Source{
		rates.NewCentralBankSource(cfg.CentralBankURL),
		rates.NewOpenExchangeSource(cfg.OpenExchangeURL, cfg.OpenExchangeAppID),
	}
	currency := services.NewCurrencyService(store, sources).
		WithCache(cache.NewLRUCache[core.ExchangeRate](100, 5*time.Minute))
	budgets := services.NewBudgetService(store, notifier)
	transactions := services.NewTransactionService(store, currency, budgets)
	imports := services.NewImportService(store, currency, budgets, notifier, services.ImportConfig{
		ChunkSize:   cfg.ImportChunkSize,
		SkipLimit:   cfg.ImportSkipLimit,
		Concurrency: cfg.ImportConcurrency,
	})

	refresher := worker.NewRateRefresher(currency, cfg.RefreshInterval)
	refresher.Start(context.Background())
	defer refresher.Stop()

	srv := httpapi.NewServer(":"+cfg.Port, httpapi.Services{
		Users:        services.NewUserService(store),
		Transactions: transactions,
		Budgets:      budgets,
		Analytics:    services.NewAnalyticsService(transactions),
		Currency:     currency,
		Imports:      imports,
	}, logger)

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting HTTP server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	// Let in-flight imports finish before exiting.
	imports.Wait()

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
