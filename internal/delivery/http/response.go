package http

import "github.com/pharmavoz/backend/internal/domain"

// Quote statuses
const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
)

// QuoteResponse is the JSON answer of the query endpoints. Response always carries the
// sentence to read aloud, for hits and misses alike.
type QuoteResponse struct {
	Status          string   `json:"status"`
	Query           string   `json:"query"`
	NormalizedQuery string   `json:"normalized_query"`
	Matched         bool     `json:"matched"`
	Score           float64  `json:"score"`
	Product         string   `json:"product,omitempty"`
	UnitPrice       *float64 `json:"unit_price,omitempty"`
	Stock           *int     `json:"stock,omitempty"`
	Rate            *float64 `json:"rate,omitempty"`
	LocalPrice      *float64 `json:"local_price,omitempty"`
	DisplayPrice    string   `json:"display_price,omitempty"`
	Response        string   `json:"response"`
}

func newQuoteResponse(result *domain.QuoteResult) QuoteResponse {
	resp := QuoteResponse{
		Status:          StatusNotFound,
		Query:           result.Query,
		NormalizedQuery: result.NormalizedQuery,
		Matched:         result.Match.Matched,
		Score:           result.Match.Score,
		Response:        result.NotFoundText,
	}

	if !result.Match.Matched || result.Match.Entry == nil || result.Quote == nil {
		return resp
	}

	entry := *result.Match.Entry
	resp.Status = StatusSuccess
	resp.Product = entry.DisplayName
	resp.UnitPrice = &entry.UnitPrice
	resp.Stock = &entry.Stock
	if result.Rate != nil {
		rate := float64(*result.Rate)
		resp.Rate = &rate
	}
	local := result.Quote.LocalAmount
	resp.LocalPrice = &local
	resp.DisplayPrice = result.Quote.DisplayPriceLocal
	resp.Response = result.Quote.SpeechText
	return resp
}
