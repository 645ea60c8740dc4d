package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/lessonkit/internal/jobcfg"
	"github.com/jackzampolin/lessonkit/internal/knowledge"
	"github.com/jackzampolin/lessonkit/internal/rules"
	"github.com/jackzampolin/lessonkit/internal/svcctx"
)

var (
	rulesProfile string
	rulesRaw     bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the adaptation rules for a student profile",
	Long: `Look up a profile's rules in the knowledge base and clean them with the
model. --raw skips cleaning and makes no model call.

Examples:
  lessonkit rules --profile student.yaml
  lessonkit rules --profile student.yaml --raw`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if rulesProfile == "" {
			return fmt.Errorf("--profile is required")
		}
		profile, err := knowledge.LoadProfile(rulesProfile)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		svc := svcctx.ServicesFrom(ctx)
		cfg := svc.Config.Get()
		extractor := &knowledge.Extractor{Path: cfg.KnowledgeBase.Path}

		raw, err := extractor.Extract(profile)
		if err != nil {
			return err
		}
		if rulesRaw {
			return printer.Print(map[string]any{"rules": nonNil(raw)})
		}

		b := jobcfg.NewBuilder(cfg, svc.Home, svc.Logger)
		resolver, err := b.Prompts()
		if err != nil {
			return err
		}
		client, err := b.LLMClient(resolver)
		if err != nil {
			return err
		}
		cleaner := &rules.Cleaner{Client: client, Prompts: resolver, Model: cfg.LLM.Model, Logger: svc.Logger}
		cleaned, err := cleaner.Clean(ctx, raw)
		if err != nil {
			return err
		}
		return printer.Print(map[string]any{
			"extracted": len(raw),
			"rules":     cleaned,
		})
	},
}

func init() {
	rulesCmd.Flags().StringVarP(&rulesProfile, "profile", "p", "", "student profile file (YAML or JSON)")
	rulesCmd.Flags().BoolVar(&rulesRaw, "raw", false, "print extracted rules without cleaning")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
