// Package cmd implements the docval command line.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/docval/internal/config"
	"github.com/zjrosen/docval/internal/log"
)

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
	cfgErr    error

	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "docval",
	Short: "Layered validation of business documents",
	Long: `docval validates XML business documents against executor sets: ordered
chains of schema, rule-assertion and code-list layers declared in a catalog.

Every layer runs, in order, and reports its own findings. Layers gated by a
prerequisite that does not hold are reported as ignored.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initLogging,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .docval/config.yaml, then ~/.config/docval/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write debug logs (file from DOCVAL_LOG, default debug.log)")
	rootCmd.PersistentFlags().StringP("rules", "r", "",
		"rules directory (overrides rules_dir)")

	_ = viper.BindPFlag("rules_dir", rootCmd.PersistentFlags().Lookup("rules"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("rules_dir", defaults.RulesDir)
	viper.SetDefault("catalog", defaults.Catalog)
	viper.SetDefault("unresolved_policy", defaults.UnresolvedPolicy)
	viper.SetDefault("cache.expiration", defaults.Cache.Expiration)
	viper.SetDefault("cache.cleanup_interval", defaults.Cache.CleanupInterval)
	viper.SetDefault("cache.sliding", defaults.Cache.Sliding)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	viper.SetEnvPrefix("DOCVAL")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .docval/config.yaml (current directory)
		// 2. ~/.config/docval/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "docval"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// A missing config file is fine; defaults apply.
	cfgErr = nil
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			cfgErr = fmt.Errorf("reading config: %w", err)
		}
	}

	cfg = defaults
	if err := viper.Unmarshal(&cfg); err != nil && cfgErr == nil {
		cfgErr = fmt.Errorf("decoding config: %w", err)
	}
}

const localConfigPath = ".docval/config.yaml"

// initLogging enables file logging when --debug or DOCVAL_DEBUG is set.
func initLogging(_ *cobra.Command, _ []string) error {
	if !debugFlag && os.Getenv("DOCVAL_DEBUG") == "" {
		return nil
	}
	logPath := os.Getenv("DOCVAL_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.Init(logPath)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	logCleanup = cleanup
	log.Info(log.CatConfig, "docval starting", "version", version, "config", viper.ConfigFileUsed())
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
