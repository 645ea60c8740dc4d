// Package stages defines the lesson pipeline stages and the two graphs built
// from them.
package stages

import (
	"log/slog"

	"github.com/jackzampolin/lessonkit/internal/lesson"
	"github.com/jackzampolin/lessonkit/internal/media"
	"github.com/jackzampolin/lessonkit/internal/pipeline"
	"github.com/jackzampolin/lessonkit/internal/render"
	"github.com/jackzampolin/lessonkit/internal/rules"
	"github.com/jackzampolin/lessonkit/internal/sections"
)

// Stage names.
const (
	SetRules         = "set-rules"
	ExtractRules     = "extract-rules"
	RetrieveLesson   = "retrieve-lesson"
	ModifyLesson     = "modify-lesson"
	Audio            = "audio"
	Visuals          = "visuals"
	GenerateSections = "generate-sections"
	Slides           = "slides"
	Worksheet        = "worksheet"
	ReferenceText    = "reference-text"
	LessonPlan       = "lesson-plan"
	FinalOutput      = "final-output"
)

// Pipeline names.
const (
	LessonPipelineName      = "lesson"
	PlaceholderPipelineName = "placeholder"
)

// Deps holds the collaborators stages call. Narrator and Illustrator may be
// nil, in which case their stages pass the text through with no media.
type Deps struct {
	Rules       *rules.Service
	Retriever   lesson.Retriever
	Transformer *lesson.Transformer
	Narrator    *media.Narrator
	Illustrator *media.Illustrator
	Generator   *sections.Generator
	Renderer    *render.Renderer
	Logger      *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// LessonPipeline builds the graph producing the lesson plan, slide deck,
// worksheet and reference text. presetRules selects set-rules over
// extract-rules.
func LessonPipeline(d *Deps, presetRules bool) (*pipeline.Runner, error) {
	return pipeline.NewRunner(LessonPipelineName, d.Logger, chain(
		rulesStage(d, presetRules),
		newRetrieveLesson(d),
		newModifyLesson(d),
		newAudio(d),
		newVisuals(d),
		newGenerateSections(d),
		newSlides(d),
		newWorksheet(d),
		newReferenceText(d),
		newLessonPlan(d),
	)...)
}

// PlaceholderPipeline builds the graph that stops at the rewritten text and
// writes it as txt, json and markdown.
func PlaceholderPipeline(d *Deps, presetRules bool) (*pipeline.Runner, error) {
	return pipeline.NewRunner(PlaceholderPipelineName, d.Logger, chain(
		rulesStage(d, presetRules),
		newRetrieveLesson(d),
		newModifyLesson(d),
		newFinalOutput(d),
	)...)
}

func rulesStage(d *Deps, preset bool) linked {
	if preset {
		return newSetRules(d)
	}
	return newExtractRules(d)
}

// linked is a stage whose predecessor is assigned when the graph is built.
type linked interface {
	pipeline.Stage
	after(name string)
}

// chain makes each stage depend on the one before it.
func chain(stages ...linked) []pipeline.Stage {
	out := make([]pipeline.Stage, len(stages))
	for i, s := range stages {
		if i > 0 {
			s.after(stages[i-1].Name())
		}
		out[i] = s
	}
	return out
}

// base supplies the metadata half of every stage.
type base struct {
	pipeline.Info
}

func (b *base) after(name string) { b.After = []string{name} }
