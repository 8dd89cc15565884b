package cmd

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/company-registry-scraper/internal/api"
	"github.com/JakeFAU/company-registry-scraper/internal/cache"
	"github.com/JakeFAU/company-registry-scraper/internal/cache/postgres"
	"github.com/JakeFAU/company-registry-scraper/internal/cache/sqlite"
	"github.com/JakeFAU/company-registry-scraper/internal/clock/system"
	"github.com/JakeFAU/company-registry-scraper/internal/config"
	"github.com/JakeFAU/company-registry-scraper/internal/extract"
	collyfetcher "github.com/JakeFAU/company-registry-scraper/internal/fetcher/colly"
	"github.com/JakeFAU/company-registry-scraper/internal/lookup"
	"github.com/JakeFAU/company-registry-scraper/internal/policy/ratelimit"
	"github.com/JakeFAU/company-registry-scraper/internal/registry"
	"github.com/JakeFAU/company-registry-scraper/internal/search"
)

// App is the set of wired services a command runs against. It is an
// interface so tests can substitute the live stack.
type App interface {
	Service() api.CompanyService
	Close()
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	return buildApp(ctx, cfg, logger), nil
}

type liveApp struct {
	service *lookup.Service
	cache   registry.Cache
	logger  *zap.Logger
}

func (a *liveApp) Service() api.CompanyService { return a.service }

func (a *liveApp) Close() {
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("cache close failed", zap.Error(err))
	}
}

// buildApp wires gate, transport, search, extraction, cache and service.
// A cache that cannot be opened is replaced by cache.NoOp so lookups still run live.
func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) *liveApp {
	clock := system.New()
	gate := ratelimit.NewGate(cfg.Upstream.RequestDelay)
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgents:       cfg.Upstream.UserAgents,
		AcceptLanguage:   cfg.Upstream.AcceptLanguage,
		Referer:          cfg.Upstream.BaseURL + "/",
		SearchTimeout:    cfg.Upstream.SearchTimeout,
		PageTimeout:      cfg.Upstream.PageTimeout,
		MaxBodyBytes:     cfg.Upstream.MaxBodyBytes,
		CloudflareBypass: cfg.Upstream.CloudflareBypass,
	}, gate, logger)
	adapter := search.NewAdapter(fetcher, search.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Path:    cfg.Upstream.SearchPath,
		Action:  cfg.Upstream.SearchAction,
	}, logger)
	pipeline := lookup.NewPipeline(adapter, fetcher, extract.New(logger), logger)

	store, err := cache.New(ctx, cacheConfig(cfg), clock, logger)
	if err != nil {
		logger.Warn("cache unavailable, serving live lookups without caching",
			zap.String("provider", cfg.Cache.Provider),
			zap.Error(err),
		)
		store = cache.NoOp{}
	} else {
		logger.Info("cache ready",
			zap.String("provider", cfg.Cache.Provider),
			zap.Duration("ttl", cfg.Cache.TTL),
		)
	}

	return &liveApp{
		service: lookup.NewService(store, pipeline, clock, logger),
		cache:   store,
		logger:  logger,
	}
}

func cacheConfig(cfg config.Config) cache.Config {
	return cache.Config{
		Provider: cfg.Cache.Provider,
		TTL:      cfg.Cache.TTL,
		Postgres: postgres.Config{
			DSN:             cfg.DB.DSN,
			Table:           cfg.DB.Table,
			MaxConns:        cfg.DB.MaxConns,
			MinConns:        cfg.DB.MinConns,
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
			AutoMigrate:     cfg.DB.AutoMigrate,
		},
		SQLite: sqlite.Config{Path: cfg.SQLite.Path},
	}
}
