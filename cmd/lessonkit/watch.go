package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/lessonkit/internal/config"
	"github.com/jackzampolin/lessonkit/internal/jobs"
	"github.com/jackzampolin/lessonkit/internal/pipeline/stages"
	"github.com/jackzampolin/lessonkit/internal/request"
	"github.com/jackzampolin/lessonkit/internal/svcctx"
)

var watchPipeline string

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Run every request file dropped into a directory",
	Long: `Watch a directory for request files (.yaml, .yml, .json) and run each
through a pipeline, one at a time. Finished requests move to done/ or failed/
with a <name>.result.yaml record. Edits to the config file apply to the next
request without a restart. Stop with Ctrl-C.

Examples:
  lessonkit watch ./inbox
  lessonkit watch ./inbox --pipeline placeholder`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc := svcctx.ServicesFrom(ctx)
		if _, err := newRunner(watchPipeline, &stages.Deps{}, false); err != nil {
			return err
		}

		if svc.Config.ConfigFile() != "" {
			svc.Config.OnChange(func(cfg *config.Config) {
				svc.Logger.Info("config reloaded", "file", svc.Config.ConfigFile(), "model", cfg.LLM.Model)
			})
			svc.Config.WatchConfig()
		}

		handler := func(ctx context.Context, path string) (map[string]any, error) {
			req, err := request.Load(path)
			if err != nil {
				return nil, err
			}
			if err := req.Validate(); err != nil {
				return nil, err
			}
			st, err := runRequest(ctx, svc, watchPipeline, req)
			if err != nil {
				return nil, err
			}
			return outputs(watchPipeline, st), nil
		}
		return jobs.NewInbox(args[0], handler, svc.Logger).Run(ctx)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchPipeline, "pipeline", stages.LessonPipelineName, "pipeline to run: lesson or placeholder")
}
