package lookup

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/JakeFAU/company-registry-scraper/internal/metrics"
	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

// Resolver produces records and search results from live upstream data.
type Resolver interface {
	Lookup(ctx context.Context, id registry.Identifier) (registry.CompanyRecord, error)
	Search(ctx context.Context, query string) ([]registry.SearchResult, error)
}

// Service fronts a Resolver with the record cache. Concurrent lookups of the
// same identifier share one live resolution.
type Service struct {
	cache    registry.Cache
	resolver Resolver
	clock    registry.Clock
	logger   *zap.Logger
	inflight singleflight.Group
}

// NewService builds a Service.
func NewService(cache registry.Cache, resolver Resolver, clock registry.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cache:    cache,
		resolver: resolver,
		clock:    clock,
		logger:   logger.Named("lookup"),
	}
}

// Company returns the record for id. Unless force is set, a fresh cached
// record is returned without contacting upstream. Cache failures never fail
// the lookup.
func (s *Service) Company(ctx context.Context, id registry.Identifier, force bool) (registry.CompanyRecord, error) {
	if force {
		metrics.ObserveCacheLookup("bypass")
	} else if rec, ok := s.cached(ctx, id); ok {
		metrics.ObserveLookup(string(id.Kind), "cached")
		return rec, nil
	}

	v, err, shared := s.inflight.Do(id.String(), func() (any, error) {
		return s.resolve(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		return registry.CompanyRecord{}, err
	}
	if shared {
		s.logger.Debug("joined in-flight lookup", zap.Stringer("id", id))
	}
	return v.(registry.CompanyRecord), nil
}

func (s *Service) cached(ctx context.Context, id registry.Identifier) (registry.CompanyRecord, bool) {
	rec, ok, err := s.cache.Get(ctx, id)
	switch {
	case err != nil:
		metrics.ObserveCacheLookup("error")
		s.logger.Warn("cache read failed", zap.Stringer("id", id), zap.Error(err))
		return registry.CompanyRecord{}, false
	case !ok:
		metrics.ObserveCacheLookup("miss")
		return registry.CompanyRecord{}, false
	}
	metrics.ObserveCacheLookup("hit")
	rec.Cached = true
	return rec, true
}

func (s *Service) resolve(ctx context.Context, id registry.Identifier) (registry.CompanyRecord, error) {
	rec, err := s.resolver.Lookup(ctx, id)
	if err != nil {
		outcome := "error"
		if errors.Is(err, registry.ErrNotFound) {
			outcome = "not_found"
		}
		metrics.ObserveLookup(string(id.Kind), outcome)
		return registry.CompanyRecord{}, err
	}

	rec.Cached = false
	if rec.Incomplete {
		metrics.ObserveLookup(string(id.Kind), "incomplete")
		return rec, nil
	}
	metrics.ObserveLookup(string(id.Kind), "found")

	now := s.clock.Now()
	if err := s.cache.Put(ctx, rec); err != nil {
		metrics.ObserveCacheWriteFailure()
		s.logger.Warn("cache write failed", zap.Stringer("id", id), zap.Error(err))
		return rec, nil
	}
	rec.CachedAt = &now
	return rec, nil
}

// Search runs a free-text search. It never consults the cache.
func (s *Service) Search(ctx context.Context, query string) ([]registry.SearchResult, error) {
	results, err := s.resolver.Search(ctx, query)
	if err != nil {
		metrics.ObserveLookup("search", "error")
		return nil, err
	}
	outcome := "found"
	if len(results) == 0 {
		outcome = "not_found"
	}
	metrics.ObserveLookup("search", outcome)
	return results, nil
}

// Stats reports cache contents.
func (s *Service) Stats(ctx context.Context) (registry.Stats, error) {
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		if errors.Is(err, registry.ErrCacheUnavailable) {
			return registry.Stats{}, err
		}
		return registry.Stats{}, fmt.Errorf("%w: %w", registry.ErrCacheUnavailable, err)
	}
	return stats, nil
}
