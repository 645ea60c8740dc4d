package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/lessonkit/internal/api"
	"github.com/jackzampolin/lessonkit/internal/config"
	"github.com/jackzampolin/lessonkit/internal/home"
	"github.com/jackzampolin/lessonkit/internal/llmcall"
	"github.com/jackzampolin/lessonkit/internal/svcctx"
	"github.com/jackzampolin/lessonkit/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool

	printer api.Printer
)

var rootCmd = &cobra.Command{
	Use:   "lessonkit",
	Short: "Adapt lessons to a student profile with LLM rewriting and media",
	Long: `Lessonkit adapts lesson material to an individual student. A student
profile selects adaptation rules from a knowledge base; the lesson is then
rewritten under those rules and supplemented with generated documents.

The pipeline includes:
  - Rule extraction and cleaning from a student profile
  - Day-by-day lesson rewriting
  - Narration audio and image placeholders
  - Lesson plan, slide deck, worksheet and reference text generation`,
	Version:           version.GitRelease,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.lessonkit/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "lessonkit home directory (default: ~/.lessonkit)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "log debug detail, including every LLM call",
	)

	rootCmd.AddCommand(adaptCmd, placeholdersCmd, rulesCmd, stagesCmd, callsCmd, watchCmd, configCmd, versionCmd)
}

// setupOutput configures the printer and logger.
func setupOutput(cmd *cobra.Command) (*slog.Logger, error) {
	format, err := api.ParseOutputFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	printer = api.Printer{W: cmd.OutOrStdout(), Format: format}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, nil
}

// setup loads configuration and attaches the shared services to the
// command's context before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	logger, err := setupOutput(cmd)
	if err != nil {
		return err
	}
	h, err := home.New(homeDir)
	if err != nil {
		return err
	}
	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return err
	}
	// The config file may move the home; the flag still wins.
	if homeDir == "" && mgr.Get().Home != "" {
		if h, err = home.New(mgr.Get().Home); err != nil {
			return err
		}
	}
	logger.Debug("config loaded", "file", mgr.ConfigFile(), "home", h.Path())

	cmd.SetContext(svcctx.WithServices(cmd.Context(), &svcctx.Services{
		Config:  mgr,
		Home:    h,
		Logger:  logger,
		CallLog: llmcall.NewStore(h.CallLogPath()),
	}))
	return nil
}
