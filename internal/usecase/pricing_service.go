package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pharmavoz/backend/internal/domain"
)

// PricingServiceConfig holds configuration for the pricing service
type PricingServiceConfig struct {
	ConversationalThreshold float64
	InventoryThreshold      float64
	NoisePhrases            []string
	Phrases                 PhrasePools
	Rand                    RandSource
	Scorer                  SimilarityScorer
	Logger                  *zerolog.Logger
}

// PricingService answers price questions against a tenant catalog
type PricingService struct {
	snapshots  *SnapshotLoader
	rates      *RateService
	vision     domain.VisionClient
	normalizer Normalizer
	matcher    *MatchingService
	formatter  *PriceFormatter

	conversationalThreshold float64
	inventoryThreshold      float64
	logger                  zerolog.Logger
}

// NewPricingService creates a new pricing service with dependencies.
// vision may be nil, in which case prescription lookups are unavailable.
func NewPricingService(
	snapshots *SnapshotLoader,
	rates *RateService,
	vision domain.VisionClient,
	config PricingServiceConfig,
) *PricingService {
	conversational := config.ConversationalThreshold
	if conversational <= 0 {
		conversational = DefaultConversationalThreshold
	}
	inventory := config.InventoryThreshold
	if inventory <= 0 {
		inventory = DefaultInventoryThreshold
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &PricingService{
		snapshots:               snapshots,
		rates:                   rates,
		vision:                  vision,
		normalizer:              NewQueryNormalizer(NormalizerConfig{NoisePhrases: config.NoisePhrases, Logger: config.Logger}),
		matcher:                 NewMatchingService(MatchConfig{Scorer: config.Scorer, Logger: config.Logger}),
		formatter:               NewPriceFormatter(config.Phrases, config.Rand),
		conversationalThreshold: conversational,
		inventoryThreshold:      inventory,
		logger:                  logger,
	}
}

// QuotePrice answers a typed or spoken question using the recall-oriented threshold
func (s *PricingService) QuotePrice(ctx context.Context, tenantID, question string, verbose bool) (*domain.QuoteResult, error) {
	return s.quote(ctx, tenantID, question, verbose, s.conversationalThreshold)
}

// QuoteInventory looks up a product name using the precision-oriented threshold
func (s *PricingService) QuoteInventory(ctx context.Context, tenantID, name string, verbose bool) (*domain.QuoteResult, error) {
	return s.quote(ctx, tenantID, name, verbose, s.inventoryThreshold)
}

// QuotePrescription reads a medicine name from a prescription photo and looks it up
// through the inventory path
func (s *PricingService) QuotePrescription(ctx context.Context, tenantID string, image []byte, mimeType string, verbose bool) (*domain.QuoteResult, error) {
	if s.vision == nil {
		return nil, domain.ErrVisionUnavailable
	}
	if len(image) == 0 || strings.TrimSpace(tenantID) == "" {
		return nil, domain.ErrInvalidRequest
	}

	name, err := s.vision.ExtractMedicineName(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrVisionNoResult
	}

	s.logger.Debug().Str("tenant", tenantID).Str("medicine", name).Msg("medicine name read from prescription")

	return s.QuoteInventory(ctx, tenantID, name, verbose)
}

// quote runs normalize -> match -> format.
// A miss is a regular result carrying the not-found sentence, not an error.
func (s *PricingService) quote(ctx context.Context, tenantID, raw string, verbose bool, threshold float64) (*domain.QuoteResult, error) {
	if strings.TrimSpace(raw) == "" || strings.TrimSpace(tenantID) == "" {
		return nil, domain.ErrInvalidRequest
	}

	normalized := s.normalizer.Normalize(raw)

	snapshot, err := s.snapshots.Load(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	match := s.matcher.Match(normalized, snapshot, threshold)
	result := &domain.QuoteResult{
		Query:           raw,
		NormalizedQuery: normalized,
		Match:           match,
	}

	if !match.Matched {
		result.NotFoundText = s.formatter.NotFound(normalized)
		return result, nil
	}

	rate, err := s.rates.GetRate(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	quote, err := s.formatter.Format(*match.Entry, rate, verbose)
	if err != nil {
		return nil, err
	}

	result.Rate = &rate
	result.Quote = quote
	return result, nil
}
