package usecase

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pharmavoz/backend/internal/domain"
)

// BuildSnapshot turns raw upload rows into a tenant catalog snapshot.
// Rows without a name are dropped. When two rows share a normalized key the later
// row's values win while the product keeps the position of its first occurrence.
func BuildSnapshot(tenantID string, rows []domain.RawRow) *domain.CatalogSnapshot {
	snapshot, _ := buildSnapshot(tenantID, rows)
	return snapshot
}

// buildSnapshot also reports how many rows overwrote an earlier product
func buildSnapshot(tenantID string, rows []domain.RawRow) (*domain.CatalogSnapshot, int) {
	entries := make([]domain.CatalogEntry, 0, len(rows))
	positions := make(map[string]int, len(rows))
	duplicates := 0

	for _, row := range rows {
		key := NormalizeKey(row.Name)
		if key == "" {
			continue
		}

		entry := domain.CatalogEntry{
			DisplayName:   strings.TrimSpace(row.Name),
			NormalizedKey: key,
			UnitPrice:     ParsePrice(row.PriceRaw),
			Stock:         ParseStock(row.StockRaw),
		}

		if idx, ok := positions[key]; ok {
			entries[idx] = entry
			duplicates++
			continue
		}
		positions[key] = len(entries)
		entries = append(entries, entry)
	}

	return &domain.CatalogSnapshot{
		TenantID: tenantID,
		Entries:  entries,
		BuiltAt:  time.Now(),
	}, duplicates
}

// NormalizeKey is the catalog-side normalization: lowercase and trimmed, nothing else
func NormalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ParsePrice reads prices the way shop owners type them ("Ref 1.50$", "1,50", "1.234,56").
// Every character other than digits, '.' and ',' is dropped, commas become dots and
// all dots but the last are treated as thousands separators. Unparseable input is 0.
func ParsePrice(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',':
			b.WriteRune('.')
		}
	}

	cleaned := b.String()
	if strings.Count(cleaned, ".") > 1 {
		last := strings.LastIndex(cleaned, ".")
		cleaned = strings.ReplaceAll(cleaned[:last], ".", "") + cleaned[last:]
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0
	}
	return price
}

// ParseStock reads a stock count. Blank, "...", "None" and anything unparseable is 0;
// "10.0" style values are truncated to their integer part.
func ParseStock(raw string) int {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "...", "none", "nan", "null":
		return 0
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return 0
	}
	if value > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(value)
}
