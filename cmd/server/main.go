package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/damon-houk/currency-exchange-app/internal/application/service"
	"github.com/damon-houk/currency-exchange-app/internal/config"
	"github.com/damon-houk/currency-exchange-app/internal/domain/repository"
	domainservice "github.com/damon-houk/currency-exchange-app/internal/domain/service"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/api"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/cache"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/db"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/handler"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/logger"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/metrics"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/middleware"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/provider"
	"github.com/gorilla/mux"
)

// configFileEnv optionally points at a YAML config file
const configFileEnv = "FX_CONFIG_FILE"

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(os.Getenv(configFileEnv))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewJSONLogger(os.Stdout, logger.ParseLevel(cfg.Log.Level))
	logger.SetDefaultLogger(appLogger)

	os.Exit(exitCode(appLogger, run(cfg, appLogger)))
}

// exitCode logs err and flushes the logger, since os.Exit skips deferred calls
func exitCode(log *logger.JSONLogger, err error) int {
	code := 0
	if err != nil {
		log.Error("Server stopped with error", map[string]interface{}{"error": err.Error()})
		code = 1
	}
	if syncErr := log.Sync(); syncErr != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush logs: %v\n", syncErr)
	}
	return code
}

func run(cfg *config.Config, log logger.Logger) error {
	log.Info("Starting currency exchange service", map[string]interface{}{
		"address":        cfg.Address(),
		"cache_ttl":      cfg.Cache.TTL.String(),
		"storage_driver": cfg.Storage.Driver,
	})

	appMetrics := metrics.NewMetrics()

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("Error closing preferences store", map[string]interface{}{"error": err.Error()})
		}
	}()

	clientCfg := api.ClientConfig{
		Timeout:     cfg.Sources.HTTPTimeout,
		MaxAttempts: cfg.Sources.MaxAttempts,
		BackoffBase: cfg.Sources.BackoffBase,
	}
	httpClient := &http.Client{Timeout: cfg.Sources.HTTPTimeout}

	var mockOpts []provider.MockOption
	if cfg.Sources.MockSeed != 0 {
		mockOpts = append(mockOpts, provider.WithSeed(cfg.Sources.MockSeed))
	}
	mock := provider.NewMockRateSource(mockOpts...)

	externalCfg := clientCfg
	externalCfg.BaseURL = cfg.Sources.ExternalAPIURL
	external := api.NewOpenERAPIClient(httpClient, externalCfg, log.WithField("component", "open_er_api"))

	// The market-data routes answer uncached from external then mock
	serverChain := provider.NewFallbackRateSource([]provider.Tier{
		{Name: "external", Source: external},
		{Name: "mock", Source: mock},
	},
		provider.WithFailureRecorder(appMetrics),
		provider.WithFallbackLogger(log.WithField("component", "marketdata_chain")),
	)

	var clientTiers []provider.Tier
	if cfg.Sources.InternalAPIEnabled {
		internalCfg := clientCfg
		internalCfg.BaseURL = cfg.MarketDataURL()
		clientTiers = append(clientTiers, provider.Tier{
			Name:   "internal",
			Source: api.NewMarketDataClient(httpClient, internalCfg, log.WithField("component", "marketdata_client")),
		})
	}
	clientTiers = append(clientTiers,
		provider.Tier{Name: "external", Source: external},
		provider.Tier{Name: "mock", Source: mock},
	)
	clientChain := provider.NewFallbackRateSource(clientTiers,
		provider.WithFailureRecorder(appMetrics),
		provider.WithFallbackLogger(log.WithField("component", "rate_chain")),
	)

	cacheOpts := []cache.Option{
		cache.WithExpiration(cfg.Cache.TTL),
		cache.WithStatsRecorder(appMetrics),
	}
	if cfg.Cache.CollapseRequests {
		cacheOpts = append(cacheOpts, cache.WithRequestCollapsing())
	}

	exchangeService := service.NewExchangeService(clientChain, log, cacheOpts...)
	preferencesService := service.NewPreferencesService(store, log)

	router := newRouter(log, appMetrics, serverChain, exchangeService, preferencesService)

	server := &http.Server{
		Addr:    cfg.Address(),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", map[string]interface{}{
			"address": cfg.Address(),
			"tiers":   clientChain.Tiers(),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info("Shutting down server", map[string]interface{}{"signal": sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited", nil)
	return nil
}

func newRouter(
	log logger.Logger,
	appMetrics *metrics.Metrics,
	marketData domainservice.RateSource,
	exchangeService *service.ExchangeService,
	preferencesService *service.PreferencesService,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.MetricsMiddleware(appMetrics))

	handler.NewMarketDataHandler(marketData, log).RegisterRoutes(router)
	handler.NewExchangeHandler(exchangeService, log).RegisterRoutes(router)
	handler.NewPreferencesHandler(preferencesService, log).RegisterRoutes(router)

	router.Handle("/metrics", appMetrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	return router
}

// openStore opens the configured preferences backend and returns its closer
func openStore(cfg *config.Config, log logger.Logger) (repository.KeyValueStore, func() error, error) {
	switch cfg.Storage.Driver {
	case config.DriverRedis:
		store, err := db.NewRedisKVStore(cfg.Storage.RedisURL, cfg.Storage.RedisPrefix, log.WithField("component", "redis_store"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		if err := store.Ping(context.Background()); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return store, store.Close, nil
	default:
		if !cfg.Storage.InMemory {
			if err := os.MkdirAll(cfg.Storage.BadgerDir, 0755); err != nil {
				return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		badgerDB, err := db.OpenBadger(cfg.Storage.BadgerDir, cfg.Storage.InMemory)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db.NewBadgerKVStore(badgerDB), badgerDB.Close, nil
	}
}
