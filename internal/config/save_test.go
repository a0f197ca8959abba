package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveValue_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SaveValue(path, "tracing.exporter", "stdout"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "tracing:\n  exporter: stdout\n", string(data))
}

func TestSaveValue_PreservesComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, SaveValue(path, "catalog", "peppol/catalog.yaml"))
	require.NoError(t, SaveValue(path, "watch.debounce", "1s"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	require.Contains(t, content, "# docval configuration")
	require.Contains(t, content, "catalog: peppol/catalog.yaml")
	require.Contains(t, content, "debounce: 1s")
	require.NotContains(t, content, "catalog: catalog.yaml")
}

func TestSaveValue_NotAScalar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveValue(path, "cache.expiration", "1h"))

	err := SaveValue(path, "cache", "off")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a scalar")

	err = SaveValue(path, "cache.expiration.unit", "h")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a mapping")
}

func TestSaveValue_InvalidKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := SaveValue(path, "tracing..enabled", "true")
	require.Error(t, err)
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}
