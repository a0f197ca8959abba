package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/docval/internal/catalog"
	"github.com/zjrosen/docval/internal/config"
	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/engine"
	"github.com/zjrosen/docval/internal/engine/builtin"
	"github.com/zjrosen/docval/internal/log"
	"github.com/zjrosen/docval/internal/pubsub"
	"github.com/zjrosen/docval/internal/service"
	"github.com/zjrosen/docval/internal/source"
	"github.com/zjrosen/docval/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

// runtime is the wiring shared by every command: engines over the rule tree,
// the registry built from the catalog and a validator on top.
type runtime struct {
	cfg       config.Config
	rulesDir  string
	engines   *builtin.Engines
	registry  *validation.Registry[*source.Document]
	validator *service.Validator
	tracing   *tracing.Provider
	events    *pubsub.Broker[service.RunEvent]
}

// loadRuntime builds the runtime from the config resolved by initConfig.
func loadRuntime() (*runtime, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}
	return newRuntime(cfg)
}

func newRuntime(c config.Config) (*runtime, error) {
	if err := config.Validate(c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	rulesDir, err := filepath.Abs(c.RulesDir)
	if err != nil {
		return nil, fmt.Errorf("resolving rules dir: %w", err)
	}
	if fi, err := os.Stat(rulesDir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("rules dir %s is not a directory", rulesDir)
	}

	tp, err := tracing.NewProvider(c.Tracing)
	if err != nil {
		return nil, fmt.Errorf("creating tracing provider: %w", err)
	}

	rt := &runtime{
		cfg:      c,
		rulesDir: rulesDir,
		engines: builtin.New(os.DirFS(rulesDir), engine.CacheOptions{
			Expiration:      c.Cache.Expiration,
			CleanupInterval: c.Cache.CleanupInterval,
			Sliding:         c.Cache.Sliding,
		}),
		tracing: tp,
		events:  pubsub.NewBroker[service.RunEvent](),
	}
	if err := rt.reload(); err != nil {
		rt.close()
		return nil, err
	}
	return rt, nil
}

// reload rebuilds the registry from the catalog and swaps in a new validator.
func (rt *runtime) reload() error {
	policy, err := rt.cfg.Policy()
	if err != nil {
		return err
	}
	reg := validation.NewRegistry[*source.Document]()
	n, err := catalog.LoadInto(reg, os.DirFS(rt.rulesDir), rt.cfg.CatalogPath(), catalog.Options{
		Engines: rt.engines.Table(),
		Policy:  policy,
	})
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	log.Info(log.CatCatalog, "catalog loaded", "sets", n, "rules", rt.rulesDir)

	rt.registry = reg
	rt.validator = service.NewValidator(reg,
		service.WithTracer(rt.tracing.Tracer()),
		service.WithPublisher(rt.events),
	)
	return nil
}

// validateFiles parses and validates each file with the set id.
func (rt *runtime) validateFiles(ctx context.Context, id validation.VESID, files []string) ([]*validation.Result, error) {
	docs := make([]*source.Document, 0, len(files))
	for _, f := range files {
		doc, err := source.ParseFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		docs = append(docs, doc)
	}
	return rt.validator.ValidateAll(ctx, id, docs)
}

func (rt *runtime) close() {
	if n := rt.events.Dropped(); n > 0 {
		log.Warn(log.CatExec, "run events dropped by slow subscribers", "count", n)
	}
	rt.events.Close()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = rt.tracing.Shutdown(ctx)
}
