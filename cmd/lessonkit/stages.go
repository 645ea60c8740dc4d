package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/lessonkit/internal/pipeline"
	"github.com/jackzampolin/lessonkit/internal/pipeline/stages"
)

var stagesPresetRules bool

type stageInfo struct {
	Name        string   `yaml:"name" json:"name"`
	Icon        string   `yaml:"icon" json:"icon"`
	Description string   `yaml:"description" json:"description"`
	After       []string `yaml:"after,omitempty" json:"after,omitempty"`
	Requires    []string `yaml:"requires,omitempty" json:"requires,omitempty"`
	Provides    []string `yaml:"provides,omitempty" json:"provides,omitempty"`
}

var stagesCmd = &cobra.Command{
	Use:       "stages [lesson|placeholder]",
	Short:     "Print a pipeline's stages in execution order",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{stages.LessonPipelineName, stages.PlaceholderPipelineName},
	RunE: func(cmd *cobra.Command, args []string) error {
		graph := stages.LessonPipelineName
		if len(args) == 1 {
			graph = args[0]
		}
		runner, err := newRunner(graph, &stages.Deps{}, stagesPresetRules)
		if err != nil {
			return err
		}
		ordered, err := runner.Stages()
		if err != nil {
			return err
		}

		out := make([]stageInfo, len(ordered))
		for i, s := range ordered {
			out[i] = stageInfo{
				Name:        s.Name(),
				Icon:        s.Icon(),
				Description: s.Description(),
				After:       s.Dependencies(),
				Requires:    fieldNames(s.Requires()),
				Provides:    fieldNames(s.Provides()),
			}
		}
		return printer.Print(map[string]any{"pipeline": graph, "stages": out})
	},
}

func init() {
	stagesCmd.Flags().BoolVar(&stagesPresetRules, "preset-rules", false, "show the graph used when the request supplies rules")
}

func fieldNames(fields []pipeline.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return names
}
