package domain

import "time"

// RawRow is a catalog row as extracted by the upload collaborator, before any parsing
type RawRow struct {
	Name     string `json:"name"`
	PriceRaw string `json:"price"`
	StockRaw string `json:"stock,omitempty"`
}

// CatalogEntry is a single product of a tenant catalog
type CatalogEntry struct {
	DisplayName   string  `json:"displayName"`
	NormalizedKey string  `json:"normalizedKey"`
	UnitPrice     float64 `json:"unitPrice"`
	Stock         int     `json:"stock"`
}

// CatalogSnapshot is the complete set of products of one tenant at one point in time.
// Entries keep upload order and NormalizedKey is unique among them.
type CatalogSnapshot struct {
	TenantID string         `json:"tenantId"`
	Entries  []CatalogEntry `json:"entries"`
	BuiltAt  time.Time      `json:"builtAt"`
}

// Len returns the number of products in the snapshot
func (s *CatalogSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// UploadSummary describes the outcome of a catalog replacement
type UploadSummary struct {
	TenantID     string `json:"tenant"`
	RowsReceived int    `json:"rowsReceived"`
	RowsSkipped  int    `json:"rowsSkipped"`
	Products     int    `json:"products"`
	Duplicates   int    `json:"duplicates"`
}
