package cachemanager

import (
	"context"
	"sync"
	"time"
)

// LoadFunc produces the value for a key on a cache miss.
type LoadFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// ReadThroughCache loads missing values through fn and caches successes.
// Concurrent misses for the same key share one load. Errors are not cached.
type ReadThroughCache[K comparable, V any] struct {
	cache           CacheManager[K, V]
	fn              LoadFunc[K, V]
	ttl             time.Duration
	shouldSkipCache bool

	mu       sync.Mutex
	inflight map[K]*call[V]
}

type call[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// NewReadThroughCache wraps cache. With shouldSkipCache every Get calls fn.
func NewReadThroughCache[K comparable, V any](
	cache CacheManager[K, V],
	fn LoadFunc[K, V],
	ttl time.Duration,
	shouldSkipCache bool,
) *ReadThroughCache[K, V] {
	return &ReadThroughCache[K, V]{
		cache:           cache,
		fn:              fn,
		ttl:             ttl,
		shouldSkipCache: shouldSkipCache,
		inflight:        make(map[K]*call[V]),
	}
}

// Get returns the cached value for key, loading it on a miss.
func (r *ReadThroughCache[K, V]) Get(ctx context.Context, key K) (V, error) {
	if r.shouldSkipCache {
		return r.fn(ctx, key)
	}
	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}
	return r.load(ctx, key)
}

// GetWithRefresh is Get, restarting the TTL on a hit.
func (r *ReadThroughCache[K, V]) GetWithRefresh(ctx context.Context, key K) (V, error) {
	if r.shouldSkipCache {
		return r.fn(ctx, key)
	}
	if value, ok := r.cache.GetWithRefresh(ctx, key, r.ttl); ok {
		return value, nil
	}
	return r.load(ctx, key)
}

// Invalidate drops keys so the next Get reloads them.
func (r *ReadThroughCache[K, V]) Invalidate(ctx context.Context, keys ...K) error {
	return r.cache.Delete(ctx, keys...)
}

// Flush drops every cached value.
func (r *ReadThroughCache[K, V]) Flush(ctx context.Context) error {
	return r.cache.Flush(ctx)
}

func (r *ReadThroughCache[K, V]) load(ctx context.Context, key K) (V, error) {
	r.mu.Lock()
	if c, ok := r.inflight[key]; ok {
		r.mu.Unlock()
		select {
		case <-c.done:
			return c.value, c.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}
	if value, ok := r.cache.Get(ctx, key); ok {
		r.mu.Unlock()
		return value, nil
	}
	c := &call[V]{done: make(chan struct{})}
	r.inflight[key] = c
	r.mu.Unlock()

	c.value, c.err = r.fn(ctx, key)
	if c.err == nil {
		r.cache.Set(ctx, key, c.value, r.ttl)
	}

	r.mu.Lock()
	delete(r.inflight, key)
	r.mu.Unlock()
	close(c.done)

	return c.value, c.err
}
