package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/company-registry-scraper/internal/cache/migrations"
	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

type movableClock struct{ now time.Time }

func (c *movableClock) Now() time.Time { return c.now }

func openStore(t *testing.T) (*Store, *movableClock) {
	t.Helper()
	clock := &movableClock{now: time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)}
	store, err := Open(context.Background(), Config{
		Path: filepath.Join(t.TempDir(), "cache.db"),
		TTL:  24 * time.Hour,
	}, clock, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestOpenAppliesSchema(t *testing.T) {
	t.Parallel()

	store, _ := openStore(t)
	version, err := migrations.Version(context.Background(), store.DB(), migrations.SQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{}, &movableClock{}, nil)
	assert.Error(t, err)
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()

	store, clock := openStore(t)
	ctx := context.Background()
	count := 4
	rec := registry.CompanyRecord{
		TaxID:              "7700000000",
		RegistrationNumber: "1027700132195",
		Name:               "Acme",
		Status:             registry.StatusActive,
		EnforcementCount:   &count,
		Sections: map[registry.SectionKey]registry.Section{
			registry.SectionArbitration: {Exists: true, Count: &count},
		},
	}
	require.NoError(t, store.Put(ctx, rec))

	clock.now = clock.now.Add(time.Hour)
	got, ok, err := store.Get(ctx, registry.Identifier{Kind: registry.KindTaxID, Value: "7700000000"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Cached)
	require.NotNil(t, got.CachedAt)
	assert.True(t, got.CachedAt.Equal(clock.now.Add(-time.Hour)))
	assert.Equal(t, 4, *got.EnforcementCount)
	assert.Equal(t, rec.Sections, got.Sections)

	byNumber, ok, err := store.Get(ctx, registry.Identifier{Kind: registry.KindRegistrationNumber, Value: "1027700132195"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Acme", byNumber.Name)
}

func TestGetExpiredIsMiss(t *testing.T) {
	t.Parallel()

	store, clock := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, registry.CompanyRecord{TaxID: "7700000000"}))

	clock.now = clock.now.Add(25 * time.Hour)
	_, ok, err := store.Get(ctx, registry.Identifier{Kind: registry.KindTaxID, Value: "7700000000"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetUnknownIsMiss(t *testing.T) {
	t.Parallel()

	store, _ := openStore(t)
	_, ok, err := store.Get(context.Background(), registry.Identifier{Kind: registry.KindTaxID, Value: "7700000001"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutUpsertsAndStats(t *testing.T) {
	t.Parallel()

	store, clock := openStore(t)
	ctx := context.Background()

	empty, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, registry.Stats{}, empty)

	first := clock.now
	require.NoError(t, store.Put(ctx, registry.CompanyRecord{TaxID: "7700000000", Name: "Acme"}))
	clock.now = clock.now.Add(2 * time.Hour)
	require.NoError(t, store.Put(ctx, registry.CompanyRecord{TaxID: "7700000001", Name: "Beta"}))
	clock.now = clock.now.Add(time.Hour)
	require.NoError(t, store.Put(ctx, registry.CompanyRecord{TaxID: "7700000000", Name: "Acme Renamed"}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalCached)
	require.NotNil(t, stats.OldestEntry)
	require.NotNil(t, stats.NewestEntry)
	assert.True(t, stats.OldestEntry.Equal(first), "re-upserting keeps the original creation time")
	assert.True(t, stats.NewestEntry.Equal(clock.now))

	got, ok, err := store.Get(ctx, registry.Identifier{Kind: registry.KindTaxID, Value: "7700000000"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Acme Renamed", got.Name)
}

func TestPutRequiresTaxID(t *testing.T) {
	t.Parallel()

	store, _ := openStore(t)
	assert.Error(t, store.Put(context.Background(), registry.CompanyRecord{Name: "nameless"}))
}
