package domain

import "math"

// ExchangeRate is the per-tenant multiplier from catalog currency to local currency
type ExchangeRate float64

// Validate rejects rates that would produce a zero, negative or undefined local price
func (r ExchangeRate) Validate() error {
	v := float64(r)
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return ErrInvalidRate
	}
	return nil
}

// MatchResult represents the outcome of matching a query against a catalog snapshot
type MatchResult struct {
	Matched       bool          `json:"matched"`
	Entry         *CatalogEntry `json:"entry,omitempty"`
	Score         float64       `json:"score"` // Similarity score 0-100
	QueryResidual string        `json:"queryResidual"`
}

// PriceQuote is the rendered price of a matched entry
type PriceQuote struct {
	LocalAmount       float64 `json:"localAmount"`
	DisplayPriceLocal string  `json:"displayPriceLocal"`
	SpeechText        string  `json:"speechText"`
}

// QuoteResult is what the pricing service hands back to transports
type QuoteResult struct {
	Query           string        `json:"query"`
	NormalizedQuery string        `json:"normalizedQuery"`
	Match           MatchResult   `json:"match"`
	Rate            *ExchangeRate `json:"rate,omitempty"`
	Quote           *PriceQuote   `json:"quote,omitempty"`
	NotFoundText    string        `json:"notFoundText,omitempty"`
}

// QueryRequest represents a conversational price question
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
	Verbose  bool   `json:"verbose,omitempty"`
}

// RateRequest sets a tenant exchange rate
type RateRequest struct {
	Rate float64 `json:"rate" binding:"required"`
}

// CatalogUploadRequest carries already-extracted rows as JSON
type CatalogUploadRequest struct {
	Rows []RawRow `json:"rows" binding:"required"`
}
