package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pharmavoz/backend/internal/domain"
)

// DefaultRateTTL is how long a tenant rate may be served from cache
const DefaultRateTTL = 10 * time.Minute

// RateServiceConfig holds configuration for the rate service
type RateServiceConfig struct {
	CacheTTL time.Duration
	// DefaultRate is used for tenants that never set a rate; 0 disables the fallback
	DefaultRate float64
	Logger      *zerolog.Logger
}

// RateService owns per-tenant exchange rates and their staleness window
type RateService struct {
	rates       domain.RateRepository
	cache       domain.CacheRepository
	cacheTTL    time.Duration
	defaultRate domain.ExchangeRate
	logger      zerolog.Logger
}

// NewRateService creates a new rate service. cache may be nil.
func NewRateService(rates domain.RateRepository, cache domain.CacheRepository, config RateServiceConfig) *RateService {
	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = DefaultRateTTL
	}
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}
	return &RateService{
		rates:       rates,
		cache:       cache,
		cacheTTL:    ttl,
		defaultRate: domain.ExchangeRate(config.DefaultRate),
		logger:      logger,
	}
}

// GetRate returns the tenant rate: cache first, then the store, then the default rate
func (s *RateService) GetRate(ctx context.Context, tenantID string) (domain.ExchangeRate, error) {
	if strings.TrimSpace(tenantID) == "" {
		return 0, domain.ErrInvalidRequest
	}

	key := rateCacheKey(tenantID)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			if v, perr := strconv.ParseFloat(string(data), 64); perr == nil {
				return domain.ExchangeRate(v), nil
			}
		}
	}

	rate, err := s.rates.GetRate(ctx, tenantID)
	switch {
	case errors.Is(err, domain.ErrRateNotSet):
		if s.defaultRate.Validate() != nil {
			return 0, domain.ErrRateNotSet
		}
		rate = s.defaultRate
	case err != nil:
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}

	if err := rate.Validate(); err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, []byte(strconv.FormatFloat(float64(rate), 'f', -1, 64)), s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("tenant", tenantID).Msg("failed to cache exchange rate")
		}
	}

	return rate, nil
}

// SetRate validates and stores a tenant rate, then drops the cached value
func (s *RateService) SetRate(ctx context.Context, tenantID string, rate domain.ExchangeRate) error {
	if strings.TrimSpace(tenantID) == "" {
		return domain.ErrInvalidRequest
	}
	if err := rate.Validate(); err != nil {
		return err
	}

	if err := s.rates.SetRate(ctx, tenantID, rate); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, rateCacheKey(tenantID)); err != nil {
			s.logger.Warn().Err(err).Str("tenant", tenantID).Msg("failed to invalidate exchange rate")
		}
	}

	s.logger.Info().Str("tenant", tenantID).Float64("rate", float64(rate)).Msg("exchange rate updated")
	return nil
}

func rateCacheKey(tenantID string) string {
	return "rate:" + tenantID
}
