// Package app assembles stores, caches and services from configuration. The HTTP server
// and the operator CLI share it so both see the same catalogs and rates.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/pharmavoz/backend/config"
	"github.com/pharmavoz/backend/internal/domain"
	"github.com/pharmavoz/backend/internal/infrastructure/cache"
	"github.com/pharmavoz/backend/internal/infrastructure/spreadsheet"
	"github.com/pharmavoz/backend/internal/infrastructure/storage"
	"github.com/pharmavoz/backend/internal/infrastructure/vision"
	"github.com/pharmavoz/backend/internal/usecase"
)

// store is what both persistence drivers provide
type store interface {
	domain.CatalogRepository
	domain.RateRepository
	io.Closer
}

// cacheStore is what both cache backends provide
type cacheStore interface {
	domain.CacheRepository
	io.Closer
}

// App holds the wired services
type App struct {
	Pricing *usecase.PricingService
	Catalog *usecase.CatalogService
	Rates   *usecase.RateService

	closers []io.Closer
	logger  zerolog.Logger
}

// Open connects the configured store and cache and builds the services.
// On error everything opened so far is closed again.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{logger: logger}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st)

	c, err := openCache(ctx, cfg.Cache)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, c)

	reader, err := spreadsheet.NewReader(spreadsheet.Config{
		NameColumn:   cfg.Catalog.NameColumn,
		PriceColumn:  cfg.Catalog.PriceColumn,
		StockColumn:  cfg.Catalog.StockColumn,
		HasHeader:    cfg.Catalog.HasHeader,
		CSVDelimiter: cfg.Catalog.CSVDelimiter,
		Logger:       &logger,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("catalog reader: %w", err)
	}

	var visionClient domain.VisionClient
	if cfg.Vision.Enabled() {
		gemini, err := vision.NewGeminiClient(ctx, vision.Config{
			APIKey:            cfg.Vision.APIKey,
			Model:             cfg.Vision.Model,
			RequestsPerMinute: cfg.Vision.RequestsPerMinute,
			Logger:            &logger,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("vision client: %w", err)
		}
		a.closers = append(a.closers, gemini)
		visionClient = gemini
	} else {
		logger.Warn().Str("provider", cfg.Vision.Provider).Msg("prescription reading disabled")
	}

	// Per-candidate score traces are logged at trace level
	matchLogger := logger
	if cfg.Matching.Debug {
		matchLogger = logger.Level(zerolog.TraceLevel)
	}

	snapshots := usecase.NewSnapshotLoader(st, c, cfg.Cache.SnapshotTTL, &logger)
	a.Rates = usecase.NewRateService(st, c, usecase.RateServiceConfig{
		CacheTTL:    cfg.Cache.RateTTL,
		DefaultRate: cfg.Pricing.DefaultRate,
		Logger:      &logger,
	})
	a.Catalog = usecase.NewCatalogService(st, reader, snapshots, &logger)

	phrases := usecase.DefaultPhrasePools()
	if cfg.Pricing.DecimalWord != "" {
		phrases.DecimalWord = cfg.Pricing.DecimalWord
	}
	phrases.CurrencyWord = cfg.Pricing.CurrencyWord

	a.Pricing = usecase.NewPricingService(snapshots, a.Rates, visionClient, usecase.PricingServiceConfig{
		ConversationalThreshold: cfg.Matching.ConversationalThreshold,
		InventoryThreshold:      cfg.Matching.InventoryThreshold,
		NoisePhrases:            cfg.Matching.NoisePhrases,
		Phrases:                 phrases,
		Logger:                  &matchLogger,
	})

	logger.Info().
		Str("store", cfg.Store.Driver).
		Str("cache", cfg.Cache.Type).
		Bool("vision", visionClient != nil).
		Float64("conversational_threshold", cfg.Matching.ConversationalThreshold).
		Float64("inventory_threshold", cfg.Matching.InventoryThreshold).
		Msg("services ready")

	return a, nil
}

// Close releases connections in reverse order of opening
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store, error) {
	switch cfg.Driver {
	case "sqlite":
		st, err := storage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		return st, nil
	case "postgres":
		st, err := storage.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func openCache(ctx context.Context, cfg config.CacheConfig) (cacheStore, error) {
	switch cfg.Type {
	case "memory":
		return cache.NewMemoryCache(0), nil
	case "redis":
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: cfg.RedisURL})
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}
