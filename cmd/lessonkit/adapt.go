package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/lessonkit/internal/jobcfg"
	"github.com/jackzampolin/lessonkit/internal/pipeline"
	"github.com/jackzampolin/lessonkit/internal/pipeline/stages"
	"github.com/jackzampolin/lessonkit/internal/request"
	"github.com/jackzampolin/lessonkit/internal/svcctx"
)

// requestFlags describe a request on the command line. Flags override the
// matching fields of --request.
type requestFlags struct {
	file              string
	profile           string
	rules             []string
	source            string
	lessonObjective   string
	languageObjective map[string]string
	targetLanguage    string
	category          string
	days              int
	full              bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.file, "request", "r", "", "request file (YAML or JSON)")
	fl.StringVarP(&f.profile, "profile", "p", "", "student profile file (YAML or JSON)")
	fl.StringArrayVar(&f.rules, "rule", nil, "adaptation rule; repeat to skip knowledge base extraction")
	fl.StringVarP(&f.source, "source", "s", "", "lesson source: URL or file path")
	fl.StringVar(&f.lessonObjective, "lesson-objective", "", "content objective for the lesson")
	fl.StringToStringVar(&f.languageObjective, "language-objective", nil, "language objectives, e.g. reading=...,writing=...")
	fl.StringVar(&f.targetLanguage, "target-language", "", "language for worksheet translations")
	fl.StringVar(&f.category, "category", "", `file category: "Lesson" (default) or "Worksheet"`)
	fl.IntVar(&f.days, "days", 0, "number of days to split the lesson into (default 1)")
	fl.BoolVar(&f.full, "full", false, "print the whole pipeline state instead of the outputs")
}

func (f *requestFlags) load() (*request.Request, error) {
	req := &request.Request{}
	if f.file != "" {
		var err error
		if req, err = request.Load(f.file); err != nil {
			return nil, err
		}
	}
	if f.profile != "" {
		req.ProfileFile = f.profile
		if err := req.ResolveProfile(); err != nil {
			return nil, err
		}
	}
	if len(f.rules) > 0 {
		req.Rules = f.rules
	}
	if f.source != "" {
		req.Source = f.source
	}
	if f.lessonObjective != "" {
		req.LessonObjective = f.lessonObjective
	}
	if len(f.languageObjective) > 0 {
		req.LanguageObjective = f.languageObjective
	}
	if f.targetLanguage != "" {
		req.TargetLanguage = f.targetLanguage
	}
	if f.category != "" {
		req.FileCategory = f.category
	}
	if f.days > 0 {
		req.NumberOfDays = f.days
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

var adaptFlags requestFlags

var adaptCmd = &cobra.Command{
	Use:   "adapt",
	Short: "Run the lesson pipeline",
	Long: `Run the lesson pipeline: rules, lesson retrieval and rewriting, narration,
images, lesson plan sections, slides, worksheet, reference text and lesson plan.

Examples:
  lessonkit adapt --request sun.yaml
  lessonkit adapt --profile student.json --source https://example.com/sun --days 2
  lessonkit adapt --rule "Use short sentences" --source lesson.txt -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, stages.LessonPipelineName, &adaptFlags)
	},
}

var placeholderFlags requestFlags

var placeholdersCmd = &cobra.Command{
	Use:   "placeholders",
	Short: "Run the placeholder pipeline",
	Long: `Run the placeholder pipeline: rules, lesson retrieval and rewriting with
media placeholders, then plain text, JSON and Markdown outputs.

Examples:
  lessonkit placeholders --request sun.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, stages.PlaceholderPipelineName, &placeholderFlags)
	},
}

func init() {
	adaptFlags.register(adaptCmd)
	placeholderFlags.register(placeholdersCmd)
}

func runCommand(cmd *cobra.Command, graph string, flags *requestFlags) error {
	req, err := flags.load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	st, err := runRequest(ctx, svcctx.ServicesFrom(ctx), graph, req)
	if err != nil {
		return err
	}
	if flags.full {
		return printer.Print(st.Snapshot())
	}
	return printer.Print(outputs(graph, st))
}

// runRequest builds collaborators from the current config, so a reloaded
// config applies to the next request, and runs one pipeline.
func runRequest(ctx context.Context, svc *svcctx.Services, graph string, req *request.Request) (pipeline.State, error) {
	deps, err := jobcfg.NewBuilder(svc.Config.Get(), svc.Home, svc.Logger).Deps()
	if err != nil {
		return pipeline.State{}, err
	}
	runner, err := newRunner(graph, deps, req.HasPresetRules())
	if err != nil {
		return pipeline.State{}, err
	}
	return runner.Run(ctx, req.State())
}

func newRunner(graph string, deps *stages.Deps, presetRules bool) (*pipeline.Runner, error) {
	switch graph {
	case stages.LessonPipelineName:
		return stages.LessonPipeline(deps, presetRules)
	case stages.PlaceholderPipelineName:
		return stages.PlaceholderPipeline(deps, presetRules)
	default:
		return nil, fmt.Errorf("unknown pipeline %q (want %s or %s)", graph, stages.LessonPipelineName, stages.PlaceholderPipelineName)
	}
}

var outputFields = []pipeline.Field{
	pipeline.FieldRules,
	pipeline.FieldAudioPaths,
	pipeline.FieldImagePaths,
	pipeline.FieldLessonPlanPath,
	pipeline.FieldSlideDeckPath,
	pipeline.FieldWorksheetPath,
	pipeline.FieldSourceMaterialPath,
	pipeline.FieldFinalTxtPath,
	pipeline.FieldFinalJSONPath,
	pipeline.FieldFinalMDPath,
}

// outputs picks the applied rules and generated files out of a final state.
func outputs(graph string, st pipeline.State) map[string]any {
	snap := st.Snapshot()
	out := map[string]any{"pipeline": graph}
	for _, f := range outputFields {
		if v, ok := snap[string(f)]; ok {
			out[string(f)] = v
		}
	}
	return out
}
