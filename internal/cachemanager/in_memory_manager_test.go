package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type compiledPack struct {
	Path  string
	Rules int
}

func newPackCache() *InMemoryCacheManager[string, *compiledPack] {
	return NewInMemoryCacheManager[string, *compiledPack]("packs", DefaultExpiration, DefaultCleanupInterval)
}

func TestNewInMemoryCacheManager(t *testing.T) {
	cache := newPackCache()
	require.NotNil(t, cache)
	require.Equal(t, "packs", cache.useCase)
	require.Equal(t, 0, cache.Len())
}

func TestInMemoryCacheManager_GetExistingValue(t *testing.T) {
	cache := newPackCache()
	pack := &compiledPack{Path: "rules/peppol.yaml", Rules: 12}
	cache.Set(context.Background(), "rules/peppol.yaml", pack, time.Minute)

	got, ok := cache.Get(context.Background(), "rules/peppol.yaml")

	require.True(t, ok)
	require.Same(t, pack, got)
}

func TestInMemoryCacheManager_GetMissingValue(t *testing.T) {
	cache := newPackCache()

	got, ok := cache.Get(context.Background(), "rules/missing.yaml")

	require.False(t, ok)
	require.Nil(t, got)
}

func TestInMemoryCacheManager_GetWrongType(t *testing.T) {
	cache := newPackCache()
	cache.cache.Set("rules/peppol.yaml", "not a pack", time.Minute)

	got, ok := cache.Get(context.Background(), "rules/peppol.yaml")

	require.False(t, ok)
	require.Nil(t, got)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	cache := newPackCache()
	cache.Set(context.Background(), "rules/peppol.yaml", &compiledPack{}, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "rules/peppol.yaml")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	cache := newPackCache()

	_, ok := cache.GetWithRefresh(context.Background(), "rules/peppol.yaml", time.Minute)
	require.False(t, ok)

	cache.Set(context.Background(), "rules/peppol.yaml", &compiledPack{Rules: 1}, time.Minute)
	got, ok := cache.GetWithRefresh(context.Background(), "rules/peppol.yaml", time.Hour)
	require.True(t, ok)
	require.Equal(t, 1, got.Rules)

	_, expires, found := cache.cache.GetWithExpiration("rules/peppol.yaml")
	require.True(t, found)
	require.True(t, expires.After(time.Now().Add(30*time.Minute)))
}

func TestInMemoryCacheManager_Delete(t *testing.T) {
	cache := newPackCache()
	ctx := context.Background()
	cache.Set(ctx, "a.yaml", &compiledPack{}, time.Minute)
	cache.Set(ctx, "b.yaml", &compiledPack{}, time.Minute)

	require.NoError(t, cache.Delete(ctx))
	require.Equal(t, 2, cache.Len())

	require.NoError(t, cache.Delete(ctx, "a.yaml"))
	_, ok := cache.Get(ctx, "a.yaml")
	require.False(t, ok)
	_, ok = cache.Get(ctx, "b.yaml")
	require.True(t, ok)
}

func TestInMemoryCacheManager_Flush(t *testing.T) {
	cache := newPackCache()
	ctx := context.Background()
	cache.Set(ctx, "a.yaml", &compiledPack{}, time.Minute)
	cache.Set(ctx, "b.yaml", &compiledPack{}, time.Minute)

	require.NoError(t, cache.Flush(ctx))

	require.Equal(t, 0, cache.Len())
}
