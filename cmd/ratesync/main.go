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

	"github.com/damon-houk/notion-rate-sync/internal/application/scheduler"
	"github.com/damon-houk/notion-rate-sync/internal/application/service"
	"github.com/damon-houk/notion-rate-sync/internal/config"
	domain "github.com/damon-houk/notion-rate-sync/internal/domain/service"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/api"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/cache"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/db"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/handler"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/logger"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	startupCheckTimeout = 30 * time.Second
	shutdownTimeout     = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewJSONLogger(os.Stderr, logger.InfoLevel).Fatal("Invalid configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log := newLogger(cfg.Log)
	logger.SetDefaultLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()

	if err != nil {
		log.Fatal("Rate sync stopped", map[string]interface{}{
			"error": err.Error(),
		})
	}
	log.Info("Shutdown complete", nil)
}

// run wires the process and blocks until ctx is cancelled. Every resource it
// opens is released before it returns, including on startup errors.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	log.Info("Starting Notion rate sync", map[string]interface{}{
		"database_id":      cfg.Notion.DatabaseID,
		"update_frequency": cfg.Sync.UpdateFrequency,
		"schedule":         cfg.Sync.Schedule,
		"bank_quote":       cfg.Bank.Quote,
		"secondary":        cfg.Secondary.Enabled,
		"static_rates":     cfg.Secondary.StaticEnabled,
	})

	schedule, err := scheduler.ParseSchedule(cfg.Sync.Schedule, cfg.Sync.Interval())
	if err != nil {
		return err
	}

	// Initialize API clients
	store := api.NewNotionClient(api.NotionConfig{
		BaseURL:          cfg.Notion.BaseURL,
		Token:            cfg.Notion.Token,
		APIVersion:       cfg.Notion.APIVersion,
		DatabaseID:       cfg.Notion.DatabaseID,
		CurrencyProperty: cfg.Notion.CurrencyProperty,
		RateProperty:     cfg.Notion.RateProperty,
	}, &http.Client{Timeout: cfg.Notion.Timeout}, log)

	bank := api.NewBelarusbankClient(api.BelarusbankConfig{
		BaseURL: cfg.Bank.BaseURL,
		City:    cfg.Bank.City,
		Quote:   cfg.Bank.Quote,
	}, &http.Client{Timeout: cfg.Bank.Timeout}, log)

	if err := checkConnectivity(ctx, log, store, bank); err != nil {
		return err
	}

	// Setup BadgerDB
	badgerDB, err := db.OpenBadger(cfg.Server.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open sync journal in %s: %w", cfg.Server.DataDir, err)
	}
	defer func() {
		if err := badgerDB.Close(); err != nil {
			log.Error("Error closing BadgerDB", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
	runs := db.NewBadgerSyncRunRepository(badgerDB)

	// Build the rate source chain
	primary := cache.NewRateCache(service.SourceBelarusbank, bank, cache.DefaultTTL, log)
	caches := []handler.RateSnapshotter{primary}
	sources := []domain.RateSource{service.NewCachedSource(service.SourceBelarusbank, primary)}

	if cfg.Secondary.Enabled {
		openExchange := api.NewOpenExchangeClient(cfg.Secondary.BaseURL, cfg.Secondary.USDReferenceRate,
			&http.Client{Timeout: cfg.Secondary.Timeout}, log)
		secondary := cache.NewRateCache(service.SourceOpenExchange, openExchange, cache.DefaultTTL, log)
		caches = append(caches, secondary)
		sources = append(sources, service.NewCachedSource(service.SourceOpenExchange, secondary))
	}
	if cfg.Secondary.StaticEnabled {
		sources = append(sources, service.NewStaticSource(nil, log))
	}

	chain := service.NewRateSourceChain(log, sources...)
	extractor := service.NewCurrencyFieldExtractor(nil, log)
	syncService := service.NewSyncService(store, chain, extractor, runs, cfg.Sync.WriteDelay, log)
	sched := scheduler.New(syncService, schedule, cfg.Sync.ErrorCooldown, log)

	server := newStatusServer(cfg.Server.Addr, runs, sched, caches, log)
	if server != nil {
		go func() {
			log.Info("Status API listening", map[string]interface{}{
				"addr": cfg.Server.Addr,
			})
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Status API stopped", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}()
	}

	sched.Run(ctx)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("Status API shutdown incomplete", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return nil
}

func newLogger(cfg config.LogConfig) logger.Logger {
	level := logger.ParseLevel(cfg.Level)
	if cfg.Pretty {
		return logger.NewConsoleLogger(os.Stdout, level)
	}
	return logger.NewJSONLogger(os.Stdout, level)
}

// checkConnectivity verifies the store and the primary provider before the
// first cycle. Only an unreachable store is an error; the bank is optional
// because the fallback sources cover it.
func checkConnectivity(ctx context.Context, log logger.Logger, store *api.NotionClient, bank *api.BelarusbankClient) error {
	checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()

	if err := store.Ping(checkCtx); err != nil {
		return fmt.Errorf("notion database is not reachable: %w", err)
	}
	log.Info("Notion database reachable", nil)

	if err := bank.Ping(checkCtx); err != nil {
		log.Warn("Belarusbank is not reachable, fallback rates will be used", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	log.Info("Belarusbank reachable", nil)

	return nil
}

// newStatusServer builds the status API; an empty addr disables it
func newStatusServer(addr string, runs *db.BadgerSyncRunRepository, sched *scheduler.Scheduler,
	caches []handler.RateSnapshotter, log logger.Logger) *http.Server {
	if addr == "" {
		return nil
	}

	router := mux.NewRouter()
	router.Use(
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware(log),
		middleware.RecoveryMiddleware(log),
	)
	handler.NewStatusHandler(runs, sched, caches, log).RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
