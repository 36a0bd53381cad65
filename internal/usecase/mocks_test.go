package usecase

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/pharmavoz/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data        map[string][]byte
	getError    error
	setError    error
	deleteError error
	getCalled   bool
	setCalled   bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) DeleteByPrefix(ctx context.Context, prefix string) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

// MockCatalogRepository is a mock implementation of domain.CatalogRepository
type MockCatalogRepository struct {
	rows         map[string][]domain.RawRow
	loadError    error
	replaceError error
	loadCalls    int
	replaceCalls int
	// afterLoad runs once the rows have been read, before they are returned
	afterLoad func()
}

func NewMockCatalogRepository() *MockCatalogRepository {
	return &MockCatalogRepository{
		rows: make(map[string][]domain.RawRow),
	}
}

func (m *MockCatalogRepository) ReplaceCatalog(ctx context.Context, tenantID string, rows []domain.RawRow) error {
	m.replaceCalls++
	if m.replaceError != nil {
		return m.replaceError
	}
	m.rows[tenantID] = append([]domain.RawRow(nil), rows...)
	return nil
}

func (m *MockCatalogRepository) LoadCatalog(ctx context.Context, tenantID string) ([]domain.RawRow, error) {
	m.loadCalls++
	if m.loadError != nil {
		return nil, m.loadError
	}
	rows := m.rows[tenantID]
	if m.afterLoad != nil {
		hook := m.afterLoad
		m.afterLoad = nil
		hook()
	}
	return rows, nil
}

// MockRateRepository is a mock implementation of domain.RateRepository
type MockRateRepository struct {
	rates     map[string]domain.ExchangeRate
	getError  error
	setError  error
	getCalled bool
}

func NewMockRateRepository() *MockRateRepository {
	return &MockRateRepository{
		rates: make(map[string]domain.ExchangeRate),
	}
}

func (m *MockRateRepository) GetRate(ctx context.Context, tenantID string) (domain.ExchangeRate, error) {
	m.getCalled = true
	if m.getError != nil {
		return 0, m.getError
	}
	rate, ok := m.rates[tenantID]
	if !ok {
		return 0, domain.ErrRateNotSet
	}
	return rate, nil
}

func (m *MockRateRepository) SetRate(ctx context.Context, tenantID string, rate domain.ExchangeRate) error {
	if m.setError != nil {
		return m.setError
	}
	m.rates[tenantID] = rate
	return nil
}

// MockVisionClient is a mock implementation of domain.VisionClient
type MockVisionClient struct {
	name      string
	err       error
	lastImage []byte
	lastMime  string
}

func (m *MockVisionClient) ExtractMedicineName(ctx context.Context, image []byte, mimeType string) (string, error) {
	m.lastImage = image
	m.lastMime = mimeType
	if m.err != nil {
		return "", m.err
	}
	return m.name, nil
}

// MockCatalogReader is a mock implementation of domain.CatalogReader
type MockCatalogReader struct {
	rows []domain.RawRow
	err  error
}

func (m *MockCatalogReader) ReadRows(ctx context.Context, filename string, r io.Reader) ([]domain.RawRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

// firstPick always picks the first phrase of a pool
type firstPick struct{}

func (firstPick) IntN(n int) int { return 0 }
