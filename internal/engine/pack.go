// Package engine holds what the rule technologies share: loading YAML rule
// packs from a file tree and caching their compiled form per resource path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"strings"
	"time"

	"github.com/zjrosen/docval/internal/cachemanager"
	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/log"
)

// Pack errors
var (
	ErrInvalidPack = errors.New("invalid rule pack")
)

// CacheOptions controls compiled-pack caching.
type CacheOptions struct {
	Expiration      time.Duration
	CleanupInterval time.Duration
	// Sliding restarts a pack's expiration on every hit.
	Sliding  bool
	Disabled bool
}

// DefaultCacheOptions keeps compiled packs until flushed.
func DefaultCacheOptions() CacheOptions {
	return CacheOptions{
		Expiration:      cachemanager.NoExpiration,
		CleanupInterval: cachemanager.DefaultCleanupInterval,
	}
}

// CompileFunc turns raw pack bytes into the engine's compiled form.
type CompileFunc[P any] func(name string, data []byte) (P, error)

// PackCache reads packs from fsys and compiles each path once.
type PackCache[P any] struct {
	name    string
	fsys    fs.FS
	sliding bool
	cache   *cachemanager.ReadThroughCache[string, P]
}

// NewPackCache creates a cache for one engine. name tags logs and errors.
func NewPackCache[P any](name string, fsys fs.FS, compile CompileFunc[P], opts CacheOptions) *PackCache[P] {
	store := cachemanager.NewInMemoryCacheManager[string, P](name, opts.Expiration, opts.CleanupInterval)
	c := &PackCache[P]{name: name, fsys: fsys, sliding: opts.Sliding}
	c.cache = cachemanager.NewReadThroughCache[string, P](store, func(_ context.Context, key string) (P, error) {
		var zero P
		data, err := fs.ReadFile(c.fsys, key)
		if err != nil {
			return zero, fmt.Errorf("read %s pack %s: %w", name, key, err)
		}
		pack, err := compile(key, data)
		if err != nil {
			log.ErrorErr(log.CatEngine, "pack compile failed", err, "engine", name, "resource", key)
			return zero, err
		}
		log.Debug(log.CatEngine, "pack compiled", "engine", name, "resource", key)
		return pack, nil
	}, opts.Expiration, opts.Disabled)
	return c
}

// Get returns the compiled pack for res.
func (c *PackCache[P]) Get(ctx context.Context, res validation.Resource) (P, error) {
	key, err := Key(res)
	if err != nil {
		var zero P
		return zero, err
	}
	if c.sliding {
		return c.cache.GetWithRefresh(ctx, key)
	}
	return c.cache.Get(ctx, key)
}

// Flush drops every compiled pack.
func (c *PackCache[P]) Flush(ctx context.Context) error {
	return c.cache.Flush(ctx)
}

// Key normalizes a resource path to an fs.FS path.
func Key(res validation.Resource) (string, error) {
	p := path.Clean(strings.TrimPrefix(strings.ReplaceAll(res.Path(), "\\", "/"), "./"))
	if res.IsZero() || !fs.ValidPath(p) {
		return "", fmt.Errorf("%w: resource path %q", ErrInvalidPack, res.Path())
	}
	return p, nil
}

// Severity parses a pack flag, defaulting when the flag is empty.
func Severity(flag string, def validation.Severity) (validation.Severity, error) {
	if strings.TrimSpace(flag) == "" {
		return def, nil
	}
	s, err := validation.ParseSeverity(strings.ToLower(strings.TrimSpace(flag)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPack, err)
	}
	return s, nil
}

// MergeNamespaces returns outer overlaid with inner.
func MergeNamespaces(outer, inner map[string]string) map[string]string {
	if len(inner) == 0 {
		return outer
	}
	out := make(map[string]string, len(outer)+len(inner))
	maps.Copy(out, outer)
	maps.Copy(out, inner)
	return out
}
