package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pricewise/backend/config"
	httpDelivery "github.com/pricewise/backend/internal/delivery/http"
	"github.com/pricewise/backend/internal/domain"
	"github.com/pricewise/backend/internal/infrastructure/cache"
	"github.com/pricewise/backend/internal/infrastructure/events"
	"github.com/pricewise/backend/internal/infrastructure/geocoding"
	"github.com/pricewise/backend/internal/infrastructure/logging"
	"github.com/pricewise/backend/internal/infrastructure/metrics"
	"github.com/pricewise/backend/internal/infrastructure/storage/memory"
	"github.com/pricewise/backend/internal/infrastructure/storage/pebblestore"
	"github.com/pricewise/backend/internal/usecase"
	"go.uber.org/zap"
)

// repositories is satisfied by both storage backends
type repositories interface {
	domain.ProductRepository
	domain.PriceRepository
	domain.ShoppingListRepository
	domain.SupermarketRepository
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pricewise: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting PriceWise backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Type))

	// Storage
	var store repositories
	switch cfg.Storage.Type {
	case "pebble":
		ps, err := pebblestore.Open(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open pebble store: %w", err)
		}
		defer func() {
			if err := ps.Close(); err != nil {
				logger.Error("closing pebble store", zap.Error(err))
			}
		}()
		store = ps
		logger.Info("pebble storage opened", zap.String("path", cfg.Storage.Path))
	default:
		store = memory.NewStore()
	}

	memoryCache := cache.NewMemoryCache(cfg.Cache.CleanupInterval)
	defer memoryCache.Close()
	logger.Info("cache configured", zap.Duration("ttl", cfg.Cache.TTL))

	geocoder := geocoding.NewClient(geocoding.Config{
		BaseURL:           cfg.Geocoding.BaseURL,
		APIKey:            cfg.Geocoding.APIKey,
		UserAgent:         cfg.Geocoding.UserAgent,
		RequestsPerSecond: cfg.Geocoding.RequestsPerSecond,
		Burst:             cfg.Geocoding.Burst,
		Timeout:           cfg.Geocoding.Timeout,
	}, logger)

	// Enable debug mode in development environment
	if cfg.Geocoding.Debug || cfg.Server.Environment == "development" {
		geocoder.SetDebug(true)
		logger.Debug("geocoding client debug mode enabled")
	}

	var publisher domain.EventPublisher = events.NoopPublisher{}
	if cfg.Events.Brokers != "" {
		kp, err := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic)
		if err != nil {
			return fmt.Errorf("failed to create event publisher: %w", err)
		}
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Error("closing event publisher", zap.Error(err))
			}
		}()
		publisher = kp
		logger.Info("price events enabled",
			zap.String("brokers", cfg.Events.Brokers),
			zap.String("topic", cfg.Events.Topic))
	} else {
		logger.Warn("no event brokers configured, price events are dropped")
	}

	registry := metrics.NewRegistry()

	// Initialize usecase layer
	comparator := usecase.NewPriceComparator(domain.MissingItemPolicy(cfg.Comparison.MissingItemPolicy))
	catalogService := usecase.NewCatalogService(store, store, store, publisher, registry, logger)
	listService := usecase.NewShoppingListService(store, logger)
	searchService := usecase.NewProductSearchService(store, logger, usecase.ProductSearchConfig{
		MinScore:            cfg.Search.MinScore,
		EnableFuzzyMatching: cfg.Search.Fuzzy,
		DefaultLimit:        cfg.Search.Limit,
	})
	locationService := usecase.NewLocationService(store, memoryCache, geocoder, registry, logger,
		usecase.LocationServiceConfig{CacheTTL: cfg.Cache.TTL})
	comparisonService := usecase.NewComparisonService(catalogService, store, locationService, comparator, registry, logger)

	logger.Info("comparison configured",
		zap.String("missing_item_policy", cfg.Comparison.MissingItemPolicy),
		zap.Float64("search_min_score", cfg.Search.MinScore),
		zap.Bool("search_fuzzy", cfg.Search.Fuzzy))

	handler := httpDelivery.NewHandler(catalogService, listService, searchService, comparisonService)
	router := httpDelivery.SetupRouter(cfg, handler, logger, registry)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
