package cmd

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/log"
	"github.com/zjrosen/docval/internal/presentation"
	"github.com/zjrosen/docval/internal/pubsub"
	"github.com/zjrosen/docval/internal/watcher"
)

var watchSet string

var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Revalidate documents whenever they or the rules change",
	Long: `Validate every XML document under DIR, then keep watching.

A changed document is validated again. A changed rule pack flushes the
compiled rule cache and revalidates every document; a changed catalog also
rebuilds the executor sets. Reports are written as text.

Example:
  docval watch --set eu.peppol.bis3:invoice:3.13.0 ./inbox`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchSet, "set", "s", "", "Executor set ID (group:artifact:version)")
	_ = watchCmd.MarkFlagRequired("set")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	id, err := validation.ParseVESID(watchSet)
	if err != nil {
		return fmt.Errorf("--set: %w", err)
	}
	docsDir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	changes := pubsub.NewBroker[[]string]()
	defer func() {
		if n := changes.Dropped(); n > 0 {
			log.Warn(log.CatWatcher, "change batches dropped", "count", n)
		}
		changes.Close()
	}()

	rulesWatcher, err := watcher.New(watcher.Config{
		Dirs:        []string{rt.rulesDir},
		Extensions:  []string{".yaml", ".yml"},
		DebounceDur: rt.cfg.Watch.Debounce,
		Publisher:   changes,
		Event:       pubsub.RulesChanged,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rulesWatcher.Stop() }()
	docsWatcher, err := watcher.New(watcher.Config{
		Dirs:        []string{docsDir},
		Extensions:  []string{".xml"},
		DebounceDur: rt.cfg.Watch.Debounce,
		Publisher:   changes,
		Event:       pubsub.DocumentsChanged,
	})
	if err != nil {
		return err
	}
	defer func() { _ = docsWatcher.Stop() }()

	if _, err := rulesWatcher.Start(); err != nil {
		return err
	}
	if _, err := docsWatcher.Start(); err != nil {
		return err
	}

	s := newWatchSession(rt, id, docsDir, cmd.OutOrStdout())
	s.revalidateAll(ctx)

	listener := pubsub.NewListener[[]string](ctx, changes, pubsub.RulesChanged, pubsub.DocumentsChanged)
	listener.Each(func(e pubsub.Event[[]string]) bool {
		s.handle(ctx, e)
		return true
	})
	return nil
}

// watchSession reacts to change batches for one set and one document tree.
// Reports are written by the goroutine that ran the validation.
type watchSession struct {
	rt        *runtime
	id        validation.VESID
	docsDir   string
	out       io.Writer
	formatter *presentation.Formatter
}

func newWatchSession(rt *runtime, id validation.VESID, docsDir string, out io.Writer) *watchSession {
	return &watchSession{rt: rt, id: id, docsDir: docsDir, out: out, formatter: presentation.NewFormatter(out)}
}

func (s *watchSession) handle(ctx context.Context, e pubsub.Event[[]string]) {
	switch e.Type {
	case pubsub.RulesChanged:
		if err := s.rt.engines.Flush(ctx); err != nil {
			log.ErrorErr(log.CatCache, "flush failed", err)
		}
		if touchesCatalog(s.rt.rulesDir, s.rt.cfg.CatalogPath(), e.Payload) {
			if err := s.rt.reload(); err != nil {
				// Keep the previous sets.
				log.ErrorErr(log.CatCatalog, "reload failed", err)
				return
			}
		}
		s.revalidateAll(ctx)
	case pubsub.DocumentsChanged:
		for _, p := range e.Payload {
			if _, err := os.Stat(p); err != nil {
				continue
			}
			s.validate(ctx, p)
		}
	}
}

func (s *watchSession) revalidateAll(ctx context.Context) {
	files, err := xmlFiles(s.docsDir)
	if err != nil {
		log.ErrorErr(log.CatWatcher, "listing documents", err, "dir", s.docsDir)
		return
	}
	for _, f := range files {
		if ctx.Err() != nil {
			return
		}
		s.validate(ctx, f)
	}
}

func (s *watchSession) validate(ctx context.Context, path string) {
	results, err := s.rt.validateFiles(ctx, s.id, []string{path})
	if err != nil {
		log.ErrorErr(log.CatExec, "validation failed", err, "document", path)
		_, _ = fmt.Fprintf(s.out, "%s: run failed: %v\n", path, err)
		return
	}
	if err := s.formatter.FormatText(presentation.FromResults(results)); err != nil {
		log.ErrorErr(log.CatExec, "writing report", err, "document", path)
	}
}

// xmlFiles lists the .xml files under dir in lexical order.
func xmlFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".xml") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// touchesCatalog reports whether any changed path is the catalog file.
func touchesCatalog(rulesDir, catalogPath string, changed []string) bool {
	catalogFile := filepath.Join(rulesDir, filepath.FromSlash(catalogPath))
	return slices.Contains(changed, catalogFile)
}
