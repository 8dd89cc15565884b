// Package sqlite provides a single-file record cache for local deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/JakeFAU/company-registry-scraper/internal/cache/entry"
	"github.com/JakeFAU/company-registry-scraper/internal/cache/migrations"
	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

// timeLayout is fixed-width so MIN and MAX over the text column order chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Config locates the database file.
type Config struct {
	Path string
	TTL  time.Duration
}

// Store keeps one JSON document per tax ID in the organizations table.
type Store struct {
	db    *sql.DB
	ttl   time.Duration
	clock registry.Clock
}

// Open opens or creates the database file and applies the embedded schema.
func Open(ctx context.Context, cfg Config, clock registry.Clock, logger *zap.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite.path is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	// One connection: sqlite allows a single writer and ":memory:" is per-connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", cfg.Path, err)
	}
	if err := migrations.Up(ctx, db, migrations.SQLite, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, ttl: cfg.TTL, clock: clock}, nil
}

// DB exposes the underlying handle for schema tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Get returns the stored record for id if it is younger than the TTL.
func (s *Store) Get(ctx context.Context, id registry.Identifier) (registry.CompanyRecord, bool, error) {
	column, err := entry.Column(id.Kind)
	if err != nil {
		return registry.CompanyRecord{}, false, err
	}
	query := fmt.Sprintf(
		`SELECT data, updated_at FROM organizations WHERE %s = ? ORDER BY updated_at DESC LIMIT 1`, column,
	)

	var data, stamp string
	if err := s.db.QueryRowContext(ctx, query, id.Value).Scan(&data, &stamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return registry.CompanyRecord{}, false, nil
		}
		return registry.CompanyRecord{}, false, fmt.Errorf("%w: select %s: %w", registry.ErrCacheUnavailable, id, err)
	}
	updatedAt, err := time.Parse(timeLayout, stamp)
	if err != nil {
		return registry.CompanyRecord{}, false, fmt.Errorf("%w: parse updated_at: %w", registry.ErrCacheUnavailable, err)
	}
	if !entry.Fresh(updatedAt, s.clock.Now(), s.ttl) {
		return registry.CompanyRecord{}, false, nil
	}
	rec, err := entry.Decode([]byte(data), updatedAt)
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
	stamp := s.clock.Now().UTC().Format(timeLayout)
	const query = `
INSERT INTO organizations (tax_id, registration_number, data, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (tax_id) DO UPDATE SET
	registration_number = excluded.registration_number,
	data = excluded.data,
	updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, rec.TaxID, rec.RegistrationNumber, string(data), stamp, stamp); err != nil {
		return fmt.Errorf("%w: upsert %s: %w", registry.ErrCacheUnavailable, rec.TaxID, err)
	}
	return nil
}

// Stats reports the entry count, the earliest first write and the latest write.
func (s *Store) Stats(ctx context.Context) (registry.Stats, error) {
	var (
		stats          registry.Stats
		oldest, newest sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), MIN(created_at), MAX(updated_at) FROM organizations`).
		Scan(&stats.TotalCached, &oldest, &newest)
	if err != nil {
		return registry.Stats{}, fmt.Errorf("%w: stats: %w", registry.ErrCacheUnavailable, err)
	}
	if stats.OldestEntry, err = parseStamp(oldest); err != nil {
		return registry.Stats{}, err
	}
	if stats.NewestEntry, err = parseStamp(newest); err != nil {
		return registry.Stats{}, err
	}
	return stats, nil
}

func parseStamp(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, v.String)
	if err != nil {
		return nil, fmt.Errorf("%w: parse timestamp %q: %w", registry.ErrCacheUnavailable, v.String, err)
	}
	return &t, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
