package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pharmavoz/backend/internal/domain"
)

const postgresSchema = `
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
	rate DOUBLE PRECISION NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore implements domain.CatalogRepository and domain.RateRepository on PostgreSQL
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn, verifies the connection and creates the schema
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// ReplaceCatalog discards the tenant catalog and stores rows in order, atomically
func (s *PostgresStore) ReplaceCatalog(ctx context.Context, tenantID string, rows []domain.RawRow) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM catalog_rows WHERE tenant_id = $1`, tenantID); err != nil {
			return err
		}

		batch := make([][]any, 0, len(rows))
		for i, row := range rows {
			batch = append(batch, []any{tenantID, i, row.Name, row.PriceRaw, row.StockRaw})
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"catalog_rows"},
			[]string{"tenant_id", "position", "name", "price_raw", "stock_raw"},
			pgx.CopyFromRows(batch),
		)
		return err
	})
}

// LoadCatalog returns the rows of the latest upload in upload order
func (s *PostgresStore) LoadCatalog(ctx context.Context, tenantID string) ([]domain.RawRow, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, price_raw, stock_raw FROM catalog_rows WHERE tenant_id = $1 ORDER BY position`, tenantID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RawRow, error) {
		var r domain.RawRow
		err := row.Scan(&r.Name, &r.PriceRaw, &r.StockRaw)
		return r, err
	})
}

// GetRate returns the stored rate or domain.ErrRateNotSet
func (s *PostgresStore) GetRate(ctx context.Context, tenantID string) (domain.ExchangeRate, error) {
	var rate float64
	err := s.pool.QueryRow(ctx, `SELECT rate FROM exchange_rates WHERE tenant_id = $1`, tenantID).Scan(&rate)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrRateNotSet
	}
	if err != nil {
		return 0, err
	}
	return domain.ExchangeRate(rate), nil
}

// SetRate upserts the tenant rate
func (s *PostgresStore) SetRate(ctx context.Context, tenantID string, rate domain.ExchangeRate) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO exchange_rates (tenant_id, rate, updated_at) VALUES ($1, $2, now())
ON CONFLICT (tenant_id) DO UPDATE SET rate = EXCLUDED.rate, updated_at = EXCLUDED.updated_at`,
		tenantID, float64(rate))
	return err
}

// Close releases the pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
