package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pharmavoz/backend/internal/domain"
)

// DefaultSnapshotTTL bounds how stale a cached catalog snapshot may be
const DefaultSnapshotTTL = 5 * time.Minute

// generationTTL keeps the upload generation well past any snapshot it names
const generationTTL = 7 * 24 * time.Hour

// SnapshotLoader builds tenant snapshots from the catalog store, memoizing them in a
// short-lived cache. Only fully built snapshots are ever cached or returned.
type SnapshotLoader struct {
	catalogs domain.CatalogRepository
	cache    domain.CacheRepository
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewSnapshotLoader creates a loader. cache may be nil to always rebuild.
func NewSnapshotLoader(catalogs domain.CatalogRepository, cache domain.CacheRepository, ttl time.Duration, logger *zerolog.Logger) *SnapshotLoader {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &SnapshotLoader{
		catalogs: catalogs,
		cache:    cache,
		ttl:      ttl,
		logger:   l,
	}
}

// Load returns the current snapshot of a tenant catalog.
// Snapshots are cached under the upload generation read before the store, so a load
// that races an upload can only cache the old rows under a generation nobody reads.
func (l *SnapshotLoader) Load(ctx context.Context, tenantID string) (*domain.CatalogSnapshot, error) {
	key := snapshotCacheKey(tenantID, l.generation(ctx, tenantID))

	if cached, err := l.getFromCache(ctx, key); err == nil {
		return cached, nil
	}

	rows, err := l.catalogs.LoadCatalog(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}

	snapshot := BuildSnapshot(tenantID, rows)

	if err := l.setInCache(ctx, key, snapshot); err != nil {
		// A cold cache only costs a rebuild
		l.logger.Warn().Err(err).Str("tenant", tenantID).Msg("failed to cache catalog snapshot")
	}

	return snapshot, nil
}

// Invalidate starts a new upload generation and drops the snapshots of older ones.
// Call it after the new rows are persisted.
func (l *SnapshotLoader) Invalidate(ctx context.Context, tenantID string) error {
	if l.cache == nil {
		return nil
	}
	if err := l.cache.Set(ctx, generationCacheKey(tenantID), []byte(uuid.NewString()), generationTTL); err != nil {
		return err
	}
	return l.cache.DeleteByPrefix(ctx, snapshotCacheKey(tenantID, ""))
}

// generation returns the current upload generation, "" when none is cached
func (l *SnapshotLoader) generation(ctx context.Context, tenantID string) string {
	if l.cache == nil {
		return ""
	}
	data, err := l.cache.Get(ctx, generationCacheKey(tenantID))
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			l.logger.Warn().Err(err).Str("tenant", tenantID).Msg("catalog generation read failed")
		}
		return ""
	}
	return string(data)
}

func (l *SnapshotLoader) getFromCache(ctx context.Context, key string) (*domain.CatalogSnapshot, error) {
	if l.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	data, err := l.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			l.logger.Warn().Err(err).Str("key", key).Msg("snapshot cache read failed")
		}
		return nil, err
	}

	var snapshot domain.CatalogSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return &snapshot, nil
}

func (l *SnapshotLoader) setInCache(ctx context.Context, key string, snapshot *domain.CatalogSnapshot) error {
	if l.cache == nil {
		return nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return l.cache.Set(ctx, key, data, l.ttl)
}

// snapshotCacheKey format: "catalog:{tenant}:{generation}"
func snapshotCacheKey(tenantID, generation string) string {
	return "catalog:" + tenantID + ":" + generation
}

// generationCacheKey format: "catalog-gen:{tenant}"
func generationCacheKey(tenantID string) string {
	return "catalog-gen:" + tenantID
}
