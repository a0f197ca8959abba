// Package config provides configuration types and defaults for docval.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/docval/internal/cachemanager"
	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/log"
	"github.com/zjrosen/docval/internal/tracing"
)

// Config holds all configuration options for docval.
type Config struct {
	// RulesDir is the root of the rule tree; catalog and rule packs are read from it.
	RulesDir string `mapstructure:"rules_dir"`

	// Catalog is the catalog file, relative to RulesDir.
	Catalog string `mapstructure:"catalog"`

	// UnresolvedPolicy is "ignore" (default) or "fail".
	UnresolvedPolicy string `mapstructure:"unresolved_policy"`

	Cache   CacheConfig    `mapstructure:"cache"`
	Watch   WatchConfig    `mapstructure:"watch"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

// CacheConfig controls the compiled rule pack cache.
type CacheConfig struct {
	// Expiration of a compiled pack. Zero or negative keeps packs until flushed.
	Expiration time.Duration `mapstructure:"expiration"`
	// CleanupInterval between expired item sweeps.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	// Sliding restarts a pack's expiration every time it is used.
	Sliding bool `mapstructure:"sliding"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	// Debounce coalesces bursts of file events.
	Debounce time.Duration `mapstructure:"debounce"`
}

// Policy returns the parsed unresolved reference policy.
func (c Config) Policy() (validation.UnresolvedPolicy, error) {
	return validation.ParseUnresolvedPolicy(c.UnresolvedPolicy)
}

// CatalogPath returns the catalog file path relative to RulesDir, in
// slash form as used by fs.FS.
func (c Config) CatalogPath() string {
	return filepath.ToSlash(filepath.Clean(c.Catalog))
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/docval/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "docval", "traces", "traces.jsonl")
}

// Validate checks the whole configuration.
func Validate(cfg Config) error {
	if cfg.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	if filepath.IsAbs(cfg.Catalog) {
		return fmt.Errorf("catalog must be relative to rules_dir, got %q", cfg.Catalog)
	}
	if _, err := cfg.Policy(); err != nil {
		return fmt.Errorf("unresolved_policy must be \"ignore\" or \"fail\", got %q", cfg.UnresolvedPolicy)
	}
	if err := ValidateCache(cfg.Cache); err != nil {
		return err
	}
	if err := ValidateWatch(cfg.Watch); err != nil {
		return err
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateCache checks cache configuration for errors.
func ValidateCache(cache CacheConfig) error {
	if cache.CleanupInterval < 0 {
		return fmt.Errorf("cache.cleanup_interval must not be negative, got %v", cache.CleanupInterval)
	}
	return nil
}

// ValidateWatch checks watch configuration for errors.
func ValidateWatch(watch WatchConfig) error {
	if watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", watch.Debounce)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tc tracing.Config) error {
	// Validate SampleRate is in range [0.0, 1.0]
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tc.SampleRate)
	}

	if tc.Exporter != "" {
		switch tc.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tc.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tc.Enabled {
		if tc.Exporter == "file" && tc.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tc.Exporter == "otlp" && tc.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()
	return Config{
		RulesDir:         ".",
		Catalog:          "catalog.yaml",
		UnresolvedPolicy: validation.PolicyIgnore.String(),
		Cache: CacheConfig{
			Expiration:      cachemanager.NoExpiration,
			CleanupInterval: cachemanager.DefaultCleanupInterval,
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
		Tracing: tc,
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# docval configuration

# Root of the rule tree (default: current directory)
rules_dir: .

# Catalog of executor sets, relative to rules_dir
catalog: catalog.yaml

# What to do with by-reference layers nobody can resolve:
#   ignore - the layer is reported as ignored (unresolved-reference)
#   fail   - loading the catalog fails
unresolved_policy: ignore

# Compiled rule pack cache
cache:
  # expiration: 30m       # Keep compiled packs for this long (default: until flushed)
  cleanup_interval: 10m   # Sweep interval for expired packs
  sliding: false          # Restart a pack's expiration on every use

# watch command
watch:
  debounce: 250ms         # Coalesce bursts of file events

# Tracing of validation runs
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/docval/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
#
# Example: Send traces to Jaeger via OTLP
# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: jaeger.internal:4317
#   sample_rate: 0.1  # Sample 10% of runs
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
