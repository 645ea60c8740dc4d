package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/lessonkit/internal/config"
	"github.com/jackzampolin/lessonkit/internal/home"
	"github.com/jackzampolin/lessonkit/internal/svcctx"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write the default configuration to --config, or to config.yaml in the
lessonkit home directory. API keys are written as ${ENV_VAR} references.`,
	// Runs without loading config: the file may not exist yet.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := setupOutput(cmd)
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			h, err := home.New(homeDir)
			if err != nil {
				return err
			}
			path = h.ConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		return printer.Print(map[string]string{"config": path})
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, the config file and LESSONKIT_*
environment overrides are applied. ${ENV_VAR} references are shown unexpanded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := svcctx.ConfigFrom(cmd.Context())
		// Round-trip through YAML so JSON output uses the same snake_case keys.
		data, err := yaml.Marshal(mgr.Get())
		if err != nil {
			return err
		}
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return err
		}
		tree["config_file"] = mgr.ConfigFile()
		return printer.Print(tree)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
}
