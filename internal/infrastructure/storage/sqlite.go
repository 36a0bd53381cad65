// Package storage persists tenant catalogs and exchange rates
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pharmavoz/backend/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS catalog_rows (
	tenant_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	price_raw TEXT NOT NULL DEFAULT '',
	stock_raw TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (tenant_id, position)
);
CREATE TABLE IF NOT EXISTS exchange_rates (
	tenant_id TEXT PRIMARY KEY,
	rate REAL NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// SQLiteStore implements domain.CatalogRepository and domain.RateRepository on a local file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path must not be empty")
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// ReplaceCatalog discards the tenant catalog and stores rows in order, atomically
func (s *SQLiteStore) ReplaceCatalog(ctx context.Context, tenantID string, rows []domain.RawRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_rows WHERE tenant_id = ?`, tenantID); err != nil {
		tx.Rollback()
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO catalog_rows (tenant_id, position, name, price_raw, stock_raw) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, tenantID, i, row.Name, row.PriceRaw, row.StockRaw); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// LoadCatalog returns the rows of the latest upload in upload order
func (s *SQLiteStore) LoadCatalog(ctx context.Context, tenantID string) ([]domain.RawRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, price_raw, stock_raw FROM catalog_rows WHERE tenant_id = ? ORDER BY position`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RawRow
	for rows.Next() {
		var row domain.RawRow
		if err := rows.Scan(&row.Name, &row.PriceRaw, &row.StockRaw); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// GetRate returns the stored rate or domain.ErrRateNotSet
func (s *SQLiteStore) GetRate(ctx context.Context, tenantID string) (domain.ExchangeRate, error) {
	var rate float64
	err := s.db.QueryRowContext(ctx, `SELECT rate FROM exchange_rates WHERE tenant_id = ?`, tenantID).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrRateNotSet
	}
	if err != nil {
		return 0, err
	}
	return domain.ExchangeRate(rate), nil
}

// SetRate upserts the tenant rate
func (s *SQLiteStore) SetRate(ctx context.Context, tenantID string, rate domain.ExchangeRate) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO exchange_rates (tenant_id, rate, updated_at) VALUES (?, ?, ?)
ON CONFLICT(tenant_id) DO UPDATE SET rate = excluded.rate, updated_at = excluded.updated_at`,
		tenantID, float64(rate), time.Now().UTC())
	return err
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
