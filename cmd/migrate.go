package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/company-registry-scraper/internal/cache"
	"github.com/JakeFAU/company-registry-scraper/internal/cache/migrations"
	"github.com/JakeFAU/company-registry-scraper/internal/cache/postgres"
	"github.com/JakeFAU/company-registry-scraper/internal/cache/sqlite"
	"github.com/JakeFAU/company-registry-scraper/internal/clock/system"
	"github.com/JakeFAU/company-registry-scraper/internal/config"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Applies the cache schema for the configured SQL provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}
			version, err := migrate(cmd.Context(), rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s cache schema at version %d\n", rt.cfg.Cache.Provider, version)
			return nil
		},
	}
}

func migrate(ctx context.Context, cfg config.Config, logger *zap.Logger) (int64, error) {
	switch cfg.Cache.Provider {
	case cache.ProviderPostgres:
		pool, err := pgxpool.New(ctx, cfg.DB.DSN)
		if err != nil {
			return 0, fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			return 0, err
		}
		db := stdlib.OpenDBFromPool(pool)
		defer db.Close() //nolint:errcheck
		return migrations.Version(ctx, db, migrations.Postgres)
	case cache.ProviderSQLite:
		store, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.SQLite.Path, TTL: cfg.Cache.TTL}, system.New(), logger)
		if err != nil {
			return 0, err
		}
		defer store.Close() //nolint:errcheck
		return migrations.Version(ctx, store.DB(), migrations.SQLite)
	default:
		return 0, fmt.Errorf("cache provider %q has no schema to migrate", cfg.Cache.Provider)
	}
}
