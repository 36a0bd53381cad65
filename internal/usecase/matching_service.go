package usecase

import (
	"github.com/rs/zerolog"

	"github.com/pharmavoz/backend/internal/domain"
)

// Default acceptance thresholds for the two lookup paths
const (
	DefaultConversationalThreshold = 45.0 // typed or spoken questions, favors recall
	DefaultInventoryThreshold      = 60.0 // names read from prescription photos, favors precision
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	Scorer SimilarityScorer
	Logger *zerolog.Logger
}

// MatchingService picks the catalog entry that best matches a normalized query
type MatchingService struct {
	scorer SimilarityScorer
	logger zerolog.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	scorer := config.Scorer
	if scorer == nil {
		scorer = PartialRatioScorer{}
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &MatchingService{
		scorer: scorer,
		logger: logger,
	}
}

// Match scores every entry of the snapshot against query and returns the best one.
// Ties keep the entry that comes first in the snapshot. The result is a hit only when
// the best score reaches threshold; an empty snapshot is a miss, never an error.
func (s *MatchingService) Match(query string, snapshot *domain.CatalogSnapshot, threshold float64) domain.MatchResult {
	result := domain.MatchResult{QueryResidual: query}
	if snapshot.Len() == 0 || query == "" {
		return result
	}

	bestIdx := -1
	highestScore := -1.0 // so that a 0 score still selects a candidate

	for i, entry := range snapshot.Entries {
		// Keys keep their accents; queries lost theirs in normalization
		score := s.scorer.Score(query, foldText(entry.NormalizedKey))

		s.logger.Trace().
			Str("query", query).
			Str("candidate", entry.NormalizedKey).
			Float64("score", score).
			Msg("match candidate")

		if score > highestScore {
			highestScore = score
			bestIdx = i
		}
	}

	result.Score = highestScore
	best := snapshot.Entries[bestIdx]

	s.logger.Debug().
		Str("query", query).
		Str("best", best.DisplayName).
		Float64("score", highestScore).
		Float64("threshold", threshold).
		Msg("best match")

	if highestScore < threshold {
		return result
	}

	result.Matched = true
	result.Entry = &best
	return result
}
