package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/company-registry-scraper/internal/cache/memory"
	"github.com/JakeFAU/company-registry-scraper/internal/cache/sqlite"
	"github.com/JakeFAU/company-registry-scraper/internal/clock/system"
	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

func TestNewSelectsProvider(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := system.New()

	c, err := New(ctx, Config{Provider: ProviderMemory, TTL: time.Hour}, clock, nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, c)

	c, err = New(ctx, Config{}, clock, nil)
	require.NoError(t, err)
	assert.IsType(t, NoOp{}, c)

	c, err = New(ctx, Config{
		Provider: ProviderSQLite,
		TTL:      time.Hour,
		SQLite:   sqlite.Config{Path: filepath.Join(t.TempDir(), "cache.db")},
	}, clock, nil)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, c)
	require.NoError(t, c.Close())

	_, err = New(ctx, Config{Provider: "redis"}, clock, nil)
	assert.Error(t, err)

	_, err = New(ctx, Config{Provider: ProviderPostgres}, clock, nil)
	assert.ErrorContains(t, err, "db.dsn is required")
}

func TestNoOp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var c registry.Cache = NoOp{}
	require.NoError(t, c.Put(ctx, registry.CompanyRecord{TaxID: "7700000000"}))
	_, ok, err := c.Get(ctx, registry.Identifier{Kind: registry.KindTaxID, Value: "7700000000"})
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = c.Stats(ctx)
	assert.ErrorIs(t, err, registry.ErrCacheUnavailable)
	assert.NoError(t, c.Close())
}
