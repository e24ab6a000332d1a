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

	"github.com/damon-houk/currency-converter/internal/application/service"
	"github.com/damon-houk/currency-converter/internal/config"
	"github.com/damon-houk/currency-converter/internal/infrastructure/api"
	"github.com/damon-houk/currency-converter/internal/infrastructure/cache"
	"github.com/damon-houk/currency-converter/internal/infrastructure/db"
	"github.com/damon-houk/currency-converter/internal/infrastructure/handler"
	"github.com/damon-houk/currency-converter/internal/infrastructure/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	bootLog := logger.GetDefaultLogger()

	cfg, err := config.Load(bootLog)
	if err != nil {
		bootLog.Fatal("Failed to load configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}

	jsonLog := logger.NewJSONLogger(os.Stdout, logger.ParseLevel(cfg.LogLevel))
	defer jsonLog.Sync()
	logger.SetDefaultLogger(jsonLog)
	log := jsonLog.WithField("component", "server")

	log.Info("Starting currency converter", nil)

	badgerDB, err := db.Open(cfg.DataDir)
	if err != nil {
		log.Fatal("Failed to open database", map[string]interface{}{
			"error":    err.Error(),
			"data_dir": cfg.DataDir,
		})
	}
	defer func() {
		if err := badgerDB.Close(); err != nil {
			log.Error("Error closing BadgerDB", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Initialize repositories
	historyRepo := db.NewBadgerHistoryRepository(badgerDB, jsonLog)
	snapshotRepo := db.NewBadgerRateSnapshotRepository(badgerDB, jsonLog)

	// Initialize the rate provider chain
	sources := api.NewHTTPRateSources(cfg.Rates.Sources, cfg.Rates.HTTPTimeout, cfg.Rates.MaxRetries, jsonLog)
	rateCache := cache.NewExchangeRateCache(cfg.Rates.CacheSizeBytes, cfg.Rates.CacheTTL)
	provider := api.NewFallbackRateProvider(sources, rateCache, jsonLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	converter := service.NewConverterService(provider, historyRepo, snapshotRepo, jsonLog)
	status := converter.Initialize(ctx)
	log.Info("Rates ready", map[string]interface{}{
		"status":     status.Label,
		"source":     status.Source,
		"currencies": status.Currencies,
	})
	converter.StartAutoRefresh(ctx, cfg.Rates.RefreshInterval)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.NewRouter(converter, jsonLog),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"addr": server.Addr,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down", nil)
	case err := <-serverErr:
		if err != nil {
			log.Error("Server failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
