package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pharmavoz/backend/internal/domain"
)

// CatalogService replaces and lists tenant catalogs
type CatalogService struct {
	catalogs  domain.CatalogRepository
	reader    domain.CatalogReader
	snapshots *SnapshotLoader
	logger    zerolog.Logger
}

// NewCatalogService creates a catalog service. reader is only needed for file imports.
func NewCatalogService(
	catalogs domain.CatalogRepository,
	reader domain.CatalogReader,
	snapshots *SnapshotLoader,
	logger *zerolog.Logger,
) *CatalogService {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &CatalogService{
		catalogs:  catalogs,
		reader:    reader,
		snapshots: snapshots,
		logger:    l,
	}
}

// ReplaceCatalog discards the tenant catalog and stores rows in its place.
// An upload without a single named product is rejected and the previous catalog kept.
func (s *CatalogService) ReplaceCatalog(ctx context.Context, tenantID string, rows []domain.RawRow) (*domain.UploadSummary, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.ErrInvalidRequest
	}

	kept := make([]domain.RawRow, 0, len(rows))
	for _, row := range rows {
		if NormalizeKey(row.Name) == "" {
			continue
		}
		kept = append(kept, row)
	}

	snapshot, duplicates := buildSnapshot(tenantID, kept)
	if snapshot.Len() == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	if err := s.catalogs.ReplaceCatalog(ctx, tenantID, kept); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}

	if err := s.snapshots.Invalidate(ctx, tenantID); err != nil {
		s.logger.Warn().Err(err).Str("tenant", tenantID).Msg("failed to invalidate catalog snapshot")
	}

	summary := &domain.UploadSummary{
		TenantID:     tenantID,
		RowsReceived: len(rows),
		RowsSkipped:  len(rows) - len(kept),
		Products:     snapshot.Len(),
		Duplicates:   duplicates,
	}

	s.logger.Info().
		Str("tenant", tenantID).
		Int("rows", summary.RowsReceived).
		Int("products", summary.Products).
		Int("duplicates", summary.Duplicates).
		Msg("catalog replaced")

	return summary, nil
}

// ImportFile reads an uploaded spreadsheet and replaces the tenant catalog with it
func (s *CatalogService) ImportFile(ctx context.Context, tenantID, filename string, r io.Reader) (*domain.UploadSummary, error) {
	if s.reader == nil {
		return nil, fmt.Errorf("%w: no catalog reader configured", domain.ErrUnsupportedFile)
	}

	rows, err := s.reader.ReadRows(ctx, filename, r)
	if err != nil {
		return nil, err
	}

	return s.ReplaceCatalog(ctx, tenantID, rows)
}

// Snapshot returns the current catalog of a tenant
func (s *CatalogService) Snapshot(ctx context.Context, tenantID string) (*domain.CatalogSnapshot, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.ErrInvalidRequest
	}
	return s.snapshots.Load(ctx, tenantID)
}
