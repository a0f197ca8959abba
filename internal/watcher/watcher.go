// Package watcher provides file system watching with debouncing for rule
// trees and document directories.
package watcher

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/docval/internal/log"
	"github.com/zjrosen/docval/internal/pubsub"
)

// Watcher monitors directory trees and reports changed files in batches.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	dirs       []string
	extensions []string
	debounce   time.Duration
	publisher  pubsub.Publisher[[]string]
	event      pubsub.EventType
	onChange   chan []string
	done       chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	// Dirs are watched recursively; subdirectories created later are not added.
	Dirs []string
	// Extensions limits events to these file extensions, e.g. ".xml". Empty means all files.
	Extensions  []string
	DebounceDur time.Duration
	// Publisher, when set, also receives each batch under Event.
	Publisher pubsub.Publisher[[]string]
	Event     pubsub.EventType
}

// DefaultConfig returns sensible defaults for watching a rule tree.
func DefaultConfig(dirs ...string) Config {
	return Config{
		Dirs:        dirs,
		Extensions:  []string{".yaml", ".yml"},
		DebounceDur: 250 * time.Millisecond,
		Event:       pubsub.RulesChanged,
	}
}

// New creates a new watcher.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Dirs) == 0 {
		return nil, fmt.Errorf("watcher needs at least one directory")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	exts := make([]string, len(cfg.Extensions))
	for i, e := range cfg.Extensions {
		exts[i] = strings.ToLower(e)
	}
	return &Watcher{
		fsWatcher:  fsw,
		dirs:       cfg.Dirs,
		extensions: exts,
		debounce:   cfg.DebounceDur,
		publisher:  cfg.Publisher,
		event:      cfg.Event,
		onChange:   make(chan []string, 1),
		done:       make(chan struct{}),
	}, nil
}

// Start begins watching every directory tree.
// Returns a channel that receives the changed paths after each quiet period.
func (w *Watcher) Start() (<-chan []string, error) {
	for _, root := range w.dirs {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if err := w.fsWatcher.Add(path); err != nil {
				return fmt.Errorf("watching directory %s: %w", path, err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		log.Debug(log.CatWatcher, "watching", "dir", root)
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending = map[string]struct{}{}
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if !w.isRelevantEvent(event) {
				continue
			}
			pending[filepath.Clean(event.Name)] = struct{}{}

			// Reset or start debounce timer
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if len(pending) > 0 {
				w.flush(pending)
				pending = map[string]struct{}{}
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) flush(pending map[string]struct{}) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	log.Debug(log.CatWatcher, "changes", "count", len(paths))

	if w.publisher != nil {
		w.publisher.Publish(w.event, paths)
	}
	// Non-blocking send - drop if channel full
	select {
	case w.onChange <- paths:
	default:
	}
}

// isRelevantEvent checks if the event should trigger a batch.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if len(w.extensions) == 0 {
		return true
	}
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(event.Name)))
}
