package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/lessonkit/internal/llmcall"
	"github.com/jackzampolin/lessonkit/internal/svcctx"
)

var (
	callsPrompt  string
	callsModel   string
	callsSince   time.Duration
	callsFailed  bool
	callsLimit   int
	callsSummary bool
)

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Inspect the LLM call log",
	Long: `List recorded LLM calls, most recent last, or summarise them per prompt.

Examples:
  lessonkit calls --limit 5
  lessonkit calls --prompt lesson.adapt --failed
  lessonkit calls --since 24h --summary`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := llmcall.QueryFilter{
			PromptKey: callsPrompt,
			Model:     callsModel,
			Limit:     callsLimit,
		}
		if callsSince > 0 {
			after := time.Now().Add(-callsSince)
			filter.After = &after
		}
		if callsFailed {
			ok := false
			filter.Success = &ok
		}

		calls, err := svcctx.CallLogFrom(cmd.Context()).List(filter)
		if err != nil {
			return err
		}
		if callsSummary {
			return printer.Print(llmcall.Summarize(calls))
		}
		if calls == nil {
			calls = []llmcall.Call{}
		}
		return printer.Print(calls)
	},
}

func init() {
	f := callsCmd.Flags()
	f.StringVar(&callsPrompt, "prompt", "", "only calls for this prompt key")
	f.StringVar(&callsModel, "model", "", "only calls to this model")
	f.DurationVar(&callsSince, "since", 0, "only calls newer than this, e.g. 2h")
	f.BoolVar(&callsFailed, "failed", false, "only failed calls")
	f.IntVar(&callsLimit, "limit", 20, "most recent N calls (0 for all)")
	f.BoolVar(&callsSummary, "summary", false, "print per-prompt totals instead of calls")
}
