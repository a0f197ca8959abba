package watcher_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/docval/internal/pubsub"
	"github.com/zjrosen/docval/internal/watcher"
)

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	err := os.WriteFile(rulesPath, []byte("id: r"), 0644)
	require.NoError(t, err, "failed to create test file")

	w, err := watcher.New(watcher.Config{
		Dirs:        []string{dir},
		Extensions:  []string{".yaml"},
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")

	// Rapid writes should coalesce into a single batch
	for i := 0; i < 10; i++ {
		err := os.WriteFile(rulesPath, []byte(fmt.Sprintf("id: r%d", i)), 0644)
		require.NoError(t, err, "failed to write file")
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case paths := <-onChange:
		require.Equal(t, []string{rulesPath}, paths)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	otherPath := filepath.Join(dir, "notes.txt")
	err := os.WriteFile(otherPath, []byte("initial"), 0644)
	require.NoError(t, err, "failed to create other file")

	w, err := watcher.New(watcher.Config{
		Dirs:        []string{dir},
		Extensions:  []string{".xml"},
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")

	err = os.WriteFile(otherPath, []byte("other content"), 0644)
	require.NoError(t, err, "failed to write other file")

	select {
	case <-onChange:
		t.Fatal("should not notify for unrelated files")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_WatchesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "codelists")
	require.NoError(t, os.Mkdir(sub, 0o755))

	w, err := watcher.New(watcher.Config{
		Dirs:        []string{dir},
		Extensions:  []string{".YAML"},
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err)

	path := filepath.Join(sub, "currency.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lists: []"), 0644))

	select {
	case paths := <-onChange:
		require.Contains(t, paths, path)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for file in subdirectory")
	}
}

func TestWatcher_Publishes(t *testing.T) {
	dir := t.TempDir()
	broker := pubsub.NewBroker[[]string]()
	defer broker.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := broker.Subscribe(ctx, pubsub.DocumentsChanged)

	w, err := watcher.New(watcher.Config{
		Dirs:        []string{dir},
		Extensions:  []string{".xml"},
		DebounceDur: 50 * time.Millisecond,
		Publisher:   broker,
		Event:       pubsub.DocumentsChanged,
	})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	_, err = w.Start()
	require.NoError(t, err)

	path := filepath.Join(dir, "invoice.xml")
	require.NoError(t, os.WriteFile(path, []byte("<Invoice/>"), 0644))

	select {
	case e := <-events:
		require.Equal(t, pubsub.DocumentsChanged, e.Type)
		require.Equal(t, []string{path}, e.Payload)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected published batch")
	}
}

func TestWatcher_Stop(t *testing.T) {
	w, err := watcher.New(watcher.Config{
		Dirs:        []string{t.TempDir()},
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")

	_, err = w.Start()
	require.NoError(t, err, "failed to start watcher")

	// Stop should not hang or panic
	done := make(chan struct{})
	go func() {
		err := w.Stop()
		assert.NoError(t, err, "Stop returned error")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := watcher.New(watcher.Config{Dirs: []string{filepath.Join(t.TempDir(), "missing")}})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	_, err = w.Start()
	require.Error(t, err)
}

func TestNew_NoDirectories(t *testing.T) {
	_, err := watcher.New(watcher.Config{})
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/rules")

	assert.Equal(t, []string{"/rules"}, cfg.Dirs)
	assert.Equal(t, []string{".yaml", ".yml"}, cfg.Extensions)
	assert.Equal(t, 250*time.Millisecond, cfg.DebounceDur)
	assert.Equal(t, pubsub.RulesChanged, cfg.Event)
}
