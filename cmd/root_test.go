package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/docval/internal/config"
	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/presentation"
	"github.com/zjrosen/docval/internal/pubsub"
	"github.com/zjrosen/docval/internal/service"
)

const (
	invoiceSet = "example:invoice:1.0"
	validDoc   = "testdata/docs/valid.xml"
	invalidDoc = "testdata/docs/invalid.xml"
)

// execute runs the root command against the testdata rule tree with a
// throwaway config file.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rules, err := filepath.Abs("testdata/rules")
	require.NoError(t, err)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("rules_dir: "+rules+"\ncatalog: catalog.yaml\n"), 0o600))

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err = rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag of cmd and its subcommands to its default,
// since flag values outlive a single Execute.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestValidate_JSON(t *testing.T) {
	out, err := execute(t, "validate", "--set", invoiceSet, "--format", "json", "--fail-on-error=false", validDoc)
	require.NoError(t, err)

	var results []presentation.ResultDTO
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	r := results[0]
	require.Equal(t, "passed", r.Outcome)
	require.True(t, r.Valid)
	require.NotEmpty(t, r.RunID)
	require.Equal(t, filepath.Clean(validDoc), r.Document)
	require.Len(t, r.Layers, 4)
	require.Equal(t, "schema", r.Layers[0].Type)
	require.Equal(t, "ignored", r.Layers[3].Status)
	require.Equal(t, "precondition-not-met", r.Layers[3].IgnoreReason)
}

func TestValidate_Text(t *testing.T) {
	out, err := execute(t, "validate", "--set", invoiceSet, "--format", "text", "--fail-on-error=false", invalidDoc)
	require.NoError(t, err)

	require.Contains(t, out, "invalid.xml: error (2 errors, 1 warnings, 0 infos, 0 ignored)")
	require.Contains(t, out, "BR-02")
	require.Contains(t, out, "ISO4217")
	require.Contains(t, out, "AT-01")
}

func TestValidate_FailsOnErrorByDefault(t *testing.T) {
	out, err := execute(t, "validate", "--set", invoiceSet, "--format", "json", invalidDoc)

	require.ErrorIs(t, err, ErrValidationFailed)
	require.Contains(t, out, `"outcome": "error"`)
}

func TestValidate_FailOnError(t *testing.T) {
	_, err := execute(t, "validate", "--set", invoiceSet, "--format", "json", "--fail-on-error", validDoc, invalidDoc)
	require.ErrorIs(t, err, ErrValidationFailed)
	require.Contains(t, err.Error(), "invalid.xml")

	_, err = execute(t, "validate", "--set", invoiceSet, "--format", "json", "--fail-on-error", validDoc)
	require.NoError(t, err)
}

func TestValidate_UnknownSet(t *testing.T) {
	_, err := execute(t, "validate", "--set", "example:invoice:9.9", "--format", "json", validDoc)
	require.ErrorIs(t, err, service.ErrSetNotFound)
}

func TestValidate_InvalidArguments(t *testing.T) {
	_, err := execute(t, "validate", "--set", "not-an-id", "--format", "json", validDoc)
	require.Error(t, err)

	_, err = execute(t, "validate", "--set", invoiceSet, "--format", "xml", validDoc)
	require.Error(t, err)
	require.Contains(t, err.Error(), "--format")

	_, err = execute(t, "validate", "--set", invoiceSet, "--format", "json", "testdata/docs/missing.xml")
	require.Error(t, err)
}

func TestSetsList(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "current sets", args: nil, want: []string{"example:invoice-base:1.0", "example:invoice:1.0"}},
		{name: "include deprecated", args: []string{"--include-deprecated"}, want: []string{"example:invoice-base:1.0", "example:invoice:1.0", "example:invoice:0.9"}},
		{name: "by artifact", args: []string{"--group", "example", "--artifact", "invoice", "--include-deprecated"}, want: []string{"example:invoice:1.0", "example:invoice:0.9"}},
		{name: "unknown group", args: []string{"--group", "other"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Flag values persist between executions of the same command tree.
			args := append([]string{"sets:list", "--group=", "--artifact=", "--include-deprecated=false"}, tt.args...)
			out, err := execute(t, args...)
			require.NoError(t, err)

			var sets []presentation.SetDTO
			require.NoError(t, json.Unmarshal([]byte(out), &sets))
			ids := make([]string, 0, len(sets))
			for _, s := range sets {
				ids = append(ids, s.ID)
			}
			require.Equal(t, tt.want, ids)
		})
	}
}

func TestSetsList_ArtifactNeedsGroup(t *testing.T) {
	_, err := execute(t, "sets:list", "--group=", "--artifact", "invoice")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--artifact requires --group")
}

func TestInitConfig_AndConfigSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docval", "config.yaml")

	out, err := execute(t, "init-config", "--force=false", path)
	require.NoError(t, err)
	require.Contains(t, out, "wrote "+path)

	_, err = execute(t, "init-config", "--force=false", path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")

	// config:set edits the file named by --config; execute always passes one,
	// so edit the new file through SaveValue's command path directly.
	cfgFile = path
	require.NoError(t, configSetCmd.RunE(configSetCmd, []string{"unresolved_policy", "fail"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "unresolved_policy: fail")
	require.Contains(t, string(data), "# docval configuration")
}

func testRuntime(t *testing.T) *runtime {
	t.Helper()
	c := config.Defaults()
	c.RulesDir = "testdata/rules"
	rt, err := newRuntime(c)
	require.NoError(t, err)
	t.Cleanup(rt.close)
	return rt
}

func TestNewRuntime_InvalidConfig(t *testing.T) {
	c := config.Defaults()
	c.RulesDir = "testdata/missing"
	_, err := newRuntime(c)
	require.Error(t, err)

	c = config.Defaults()
	c.RulesDir = "testdata/rules"
	c.UnresolvedPolicy = "sometimes"
	_, err = newRuntime(c)
	require.Error(t, err)
}

func TestWatchSession_Handle(t *testing.T) {
	rt := testRuntime(t)
	docsDir, err := filepath.Abs("testdata/docs")
	require.NoError(t, err)
	var out bytes.Buffer
	s := newWatchSession(rt, validation.MustVESID("example", "invoice", "1.0"), docsDir, &out)
	ctx := context.Background()

	// A changed document is validated; a removed one is skipped.
	s.handle(ctx, pubsub.Event[[]string]{Type: pubsub.DocumentsChanged, Payload: []string{
		filepath.Join(docsDir, "gone.xml"),
		filepath.Join(docsDir, "valid.xml"),
	}})
	require.Contains(t, out.String(), filepath.Join(docsDir, "valid.xml")+": passed")
	require.NotContains(t, out.String(), "gone.xml")

	// A catalog change rebuilds the sets and revalidates every document.
	out.Reset()
	before := rt.registry
	s.handle(ctx, pubsub.Event[[]string]{Type: pubsub.RulesChanged, Payload: []string{
		filepath.Join(rt.rulesDir, "catalog.yaml"),
	}})
	require.NotSame(t, before, rt.registry)
	report := out.String()
	invalidAt := strings.Index(report, filepath.Join(docsDir, "invalid.xml")+": error")
	validAt := strings.Index(report, filepath.Join(docsDir, "valid.xml")+": passed")
	require.GreaterOrEqual(t, invalidAt, 0, report)
	require.Greater(t, validAt, invalidAt, report)
}

func TestWatchSession_ReportsEveryDocument(t *testing.T) {
	rt := testRuntime(t)
	valid, err := os.ReadFile(validDoc)
	require.NoError(t, err)
	docsDir := t.TempDir()
	const docs = 100
	for i := 0; i < docs; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(docsDir, fmt.Sprintf("doc-%03d.xml", i)), valid, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "broken.xml"), []byte("<Invoice>"), 0o644))
	var out bytes.Buffer
	s := newWatchSession(rt, validation.MustVESID("example", "invoice", "1.0"), docsDir, &out)

	s.revalidateAll(context.Background())

	require.Equal(t, docs, strings.Count(out.String(), ": passed ("))
	require.Contains(t, out.String(), filepath.Join(docsDir, "broken.xml")+": run failed")
}

func TestXMLFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"b.xml", "a.XML", "notes.txt", "sub/c.xml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("<x/>"), 0o644))
	}

	files, err := xmlFiles(dir)

	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.XML"),
		filepath.Join(dir, "b.xml"),
		filepath.Join(dir, "sub", "c.xml"),
	}, files)
}

func TestTouchesCatalog(t *testing.T) {
	require.True(t, touchesCatalog("/rules", "sets/catalog.yaml", []string{"/rules/a.yaml", "/rules/sets/catalog.yaml"}))
	require.False(t, touchesCatalog("/rules", "catalog.yaml", []string{"/rules/rules/catalog.yaml"}))
}

func TestValidate_BadConfigValue(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("cache:\n  expiration: soon\n"), 0o600))

	resetFlags(rootCmd)
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"--config", cfgPath, "validate", "--set", invoiceSet, validDoc})
	err := rootCmd.Execute()

	require.Error(t, err)
	require.Contains(t, err.Error(), "decoding config")
}
