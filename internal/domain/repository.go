package domain

import (
	"context"
	"io"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque byte payloads so memory and Redis backends behave the same.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// CatalogRepository persists the raw rows of each tenant catalog
type CatalogRepository interface {
	// ReplaceCatalog discards the tenant's catalog and stores rows in order
	ReplaceCatalog(ctx context.Context, tenantID string, rows []RawRow) error
	// LoadCatalog returns the rows of the latest upload, in upload order
	LoadCatalog(ctx context.Context, tenantID string) ([]RawRow, error)
}

// RateRepository persists per-tenant exchange rates.
// GetRate returns ErrRateNotSet when the tenant never stored one.
type RateRepository interface {
	GetRate(ctx context.Context, tenantID string) (ExchangeRate, error)
	SetRate(ctx context.Context, tenantID string, rate ExchangeRate) error
}

// CatalogReader extracts raw rows from an uploaded catalog file
type CatalogReader interface {
	ReadRows(ctx context.Context, filename string, r io.Reader) ([]RawRow, error)
}

// VisionClient reads a best-guess medicine name from a prescription photo
type VisionClient interface {
	ExtractMedicineName(ctx context.Context, image []byte, mimeType string) (string, error)
}
