package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/docval/internal/config"
)

var initConfigForce bool

var initConfigCmd = &cobra.Command{
	Use:   "init-config [PATH]",
	Short: "Write the default configuration file",
	Long: `Write a commented default configuration to PATH (default: .docval/config.yaml).

An existing file is kept unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := localConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !initConfigForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "config:set KEY VALUE",
	Short: "Set one configuration value",
	Long: `Set a configuration value by its dotted key, keeping the comments of the file.

The file is the one given by --config, else the config file in use, else
.docval/config.yaml.

Examples:
  docval config:set catalog peppol/catalog.yaml
  docval config:set tracing.exporter stdout`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = viper.ConfigFileUsed()
		}
		if path == "" {
			path = localConfigPath
		}
		if err := config.SaveValue(path, args[0], args[1]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s = %s\n", path, args[0], args[1])
		return nil
	},
}

func init() {
	initConfigCmd.Flags().BoolVar(&initConfigForce, "force", false, "Overwrite an existing file")
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(configSetCmd)
}
