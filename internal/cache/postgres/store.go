// Package postgres provides a Postgres-backed record cache.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/JakeFAU/company-registry-scraper/internal/cache/entry"
	"github.com/JakeFAU/company-registry-scraper/internal/cache/migrations"
	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DefaultTable is created by the embedded migrations.
const DefaultTable = "organizations"

// Config controls the Postgres connection pool used for cached records.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	TTL             time.Duration
	AutoMigrate     bool
}

type queryCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// Store keeps one JSONB document per tax ID.
type Store struct {
	pool  queryCloser
	table string
	ttl   time.Duration
	clock registry.Clock
}

// New connects to Postgres and optionally applies the embedded migrations.
func New(ctx context.Context, cfg Config, clock registry.Clock, logger *zap.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if cfg.AutoMigrate {
		if err := Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}
	store, err := NewWithPool(pool, cfg.Table, cfg.TTL, clock)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// Migrate applies the embedded schema through a database/sql view of pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close() //nolint:errcheck
	return migrations.Up(ctx, db, migrations.Postgres, logger)
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool queryCloser, table string, ttl time.Duration, clock registry.Clock) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table, ttl: ttl, clock: clock}, nil
}

// Get returns the stored record for id if it is younger than the TTL.
func (s *Store) Get(ctx context.Context, id registry.Identifier) (registry.CompanyRecord, bool, error) {
	column, err := entry.Column(id.Kind)
	if err != nil {
		return registry.CompanyRecord{}, false, err
	}
	query := fmt.Sprintf(
		`SELECT data, updated_at FROM %s WHERE %s = $1 ORDER BY updated_at DESC LIMIT 1`,
		s.table, column,
	)

	var (
		data      []byte
		updatedAt time.Time
	)
	if err := s.pool.QueryRow(ctx, query, id.Value).Scan(&data, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registry.CompanyRecord{}, false, nil
		}
		return registry.CompanyRecord{}, false, fmt.Errorf("%w: select %s: %w", registry.ErrCacheUnavailable, id, err)
	}
	if !entry.Fresh(updatedAt, s.clock.Now(), s.ttl) {
		return registry.CompanyRecord{}, false, nil
	}
	rec, err := entry.Decode(data, updatedAt)
	if err != nil {
		return registry.CompanyRecord{}, false, fmt.Errorf("%w: %w", registry.ErrCacheUnavailable, err)
	}
	return rec, true, nil
}

// Put upserts rec keyed by its tax ID.
func (s *Store) Put(ctx context.Context, rec registry.CompanyRecord) error {
	if rec.TaxID == "" {
		return fmt.Errorf("record tax id is required")
	}
	data, err := entry.Encode(rec)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (tax_id, registration_number, data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (tax_id) DO UPDATE SET
	registration_number = EXCLUDED.registration_number,
	data = EXCLUDED.data,
	updated_at = EXCLUDED.updated_at`, s.table)

	if _, err := s.pool.Exec(ctx, query, rec.TaxID, rec.RegistrationNumber, data, s.clock.Now()); err != nil {
		return fmt.Errorf("%w: upsert %s: %w", registry.ErrCacheUnavailable, rec.TaxID, err)
	}
	return nil
}

// Stats reports the entry count, the earliest first write and the latest write.
func (s *Store) Stats(ctx context.Context) (registry.Stats, error) {
	query := fmt.Sprintf(`SELECT COUNT(*), MIN(created_at), MAX(updated_at) FROM %s`, s.table)
	var stats registry.Stats
	if err := s.pool.QueryRow(ctx, query).Scan(&stats.TotalCached, &stats.OldestEntry, &stats.NewestEntry); err != nil {
		return registry.Stats{}, fmt.Errorf("%w: stats: %w", registry.ErrCacheUnavailable, err)
	}
	return stats, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
