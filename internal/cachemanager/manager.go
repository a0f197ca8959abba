// Package cachemanager caches compiled rule packs keyed by resource path.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager stores values with a per-entry TTL.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
	Len() int
}

// Flusher drops every cached entry. Watchers hold caches by this interface.
type Flusher interface {
	Flush(ctx context.Context) error
}
