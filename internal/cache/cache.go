// Package cache selects and constructs the record cache backend.
package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/company-registry-scraper/internal/cache/memory"
	"github.com/JakeFAU/company-registry-scraper/internal/cache/postgres"
	"github.com/JakeFAU/company-registry-scraper/internal/cache/sqlite"
	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

// Supported providers.
const (
	ProviderPostgres = "postgres"
	ProviderSQLite   = "sqlite"
	ProviderMemory   = "memory"
	ProviderNone     = "none"
)

// Config selects a provider and carries its settings.
type Config struct {
	Provider string
	TTL      time.Duration
	Postgres postgres.Config
	SQLite   sqlite.Config
}

// New builds the configured cache. The TTL in cfg overrides any per-provider TTL.
func New(ctx context.Context, cfg Config, clock registry.Clock, logger *zap.Logger) (registry.Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case ProviderPostgres:
		pgCfg := cfg.Postgres
		pgCfg.TTL = cfg.TTL
		store, err := postgres.New(ctx, pgCfg, clock, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres cache: %w", err)
		}
		return store, nil
	case ProviderSQLite:
		liteCfg := cfg.SQLite
		liteCfg.TTL = cfg.TTL
		store, err := sqlite.Open(ctx, liteCfg, clock, logger)
		if err != nil {
			return nil, fmt.Errorf("sqlite cache: %w", err)
		}
		return store, nil
	case ProviderMemory:
		return memory.NewStore(cfg.TTL, clock), nil
	case ProviderNone, "":
		return NoOp{}, nil
	default:
		return nil, fmt.Errorf("unknown cache provider %q", cfg.Provider)
	}
}

// NoOp is a cache that stores nothing. Lookups always miss and Stats reports
// the cache as unavailable.
type NoOp struct{}

// Get always misses.
func (NoOp) Get(context.Context, registry.Identifier) (registry.CompanyRecord, bool, error) {
	return registry.CompanyRecord{}, false, nil
}

// Put discards rec.
func (NoOp) Put(context.Context, registry.CompanyRecord) error { return nil }

// Stats reports registry.ErrCacheUnavailable.
func (NoOp) Stats(context.Context) (registry.Stats, error) {
	return registry.Stats{}, registry.ErrCacheUnavailable
}

// Close does nothing.
func (NoOp) Close() error { return nil }
