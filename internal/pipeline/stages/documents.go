package stages

import (
	"context"

	"github.com/jackzampolin/lessonkit/internal/failure"
	"github.com/jackzampolin/lessonkit/internal/pipeline"
	"github.com/jackzampolin/lessonkit/internal/sections"
)

// request gathers the lesson context the section generator needs.
func request(st pipeline.State) sections.Request {
	return sections.Request{
		Profile:           st.StudentProfile,
		LessonObjective:   st.LessonObjective,
		LanguageObjective: st.LanguageObjective,
		TargetLanguage:    st.TargetLanguage,
		LessonContent:     st.LessonContent,
		AdaptedContent:    st.ModifiedLessonText,
	}
}

type generateSections struct {
	base
	deps *Deps
}

func newGenerateSections(d *Deps) *generateSections {
	return &generateSections{deps: d, base: base{pipeline.Info{
		StageName:   GenerateSections,
		StageIcon:   "🗂️",
		Summary:     "Generate the twelve lesson plan sections",
		NeedsFields: []pipeline.Field{pipeline.FieldLessonContent, pipeline.FieldModifiedLessonText},
		SetsFields:  []pipeline.Field{pipeline.FieldSections},
	}}}
}

func (s *generateSections) Run(ctx context.Context, st pipeline.State) (pipeline.State, error) {
	if err := s.Check(st); err != nil {
		return st, err
	}
	if s.deps.Generator == nil {
		return st, failure.Configuration(GenerateSections, ErrNotConfigured)
	}
	m, err := s.deps.Generator.Sections(ctx, request(st))
	if err != nil {
		return st, err
	}
	return st.With(pipeline.SetSections(m)), nil
}

type slides struct {
	base
	deps *Deps
}

func newSlides(d *Deps) *slides {
	return &slides{deps: d, base: base{pipeline.Info{
		StageName:   Slides,
		StageIcon:   "🎞️",
		Summary:     "Generate slide content and render the slide deck",
		NeedsFields: []pipeline.Field{pipeline.FieldLessonContent, pipeline.FieldSections},
		SetsFields: []pipeline.Field{
			pipeline.FieldSlideData, pipeline.FieldProcessedParagraphs, pipeline.FieldSlideDeckPath,
		},
	}}}
}

func (s *slides) Run(ctx context.Context, st pipeline.State) (pipeline.State, error) {
	if err := s.Check(st); err != nil {
		return st, err
	}
	if s.deps.Generator == nil || s.deps.Renderer == nil {
		return st, failure.Configuration(Slides, ErrNotConfigured)
	}
	deck, paragraphs, err := s.deps.Generator.Slides(ctx, request(st), st.Sections)
	if err != nil {
		return st, err
	}
	path, err := s.deps.Renderer.SlideDeck(deck)
	if err != nil {
		return st, err
	}
	return st.With(
		pipeline.SetSlideData(deck),
		pipeline.SetProcessedParagraphs(paragraphs),
		pipeline.SetSlideDeckPath(path),
	), nil
}

type worksheet struct {
	base
	deps *Deps
}

func newWorksheet(d *Deps) *worksheet {
	return &worksheet{deps: d, base: base{pipeline.Info{
		StageName:   Worksheet,
		StageIcon:   "📝",
		Summary:     "Generate and render the student worksheet",
		NeedsFields: []pipeline.Field{pipeline.FieldLessonContent, pipeline.FieldSections, pipeline.FieldSlideData},
		SetsFields:  []pipeline.Field{pipeline.FieldWorksheetPath},
	}}}
}

func (s *worksheet) Run(ctx context.Context, st pipeline.State) (pipeline.State, error) {
	if err := s.Check(st); err != nil {
		return st, err
	}
	if s.deps.Generator == nil || s.deps.Renderer == nil {
		return st, failure.Configuration(Worksheet, ErrNotConfigured)
	}
	records, err := s.deps.Generator.Worksheet(ctx, request(st), st.Sections, st.SlideData)
	if err != nil {
		return st, err
	}
	path, err := s.deps.Renderer.Worksheet(records)
	if err != nil {
		return st, err
	}
	return st.With(pipeline.SetWorksheetPath(path)), nil
}

type referenceText struct {
	base
	deps *Deps
}

func newReferenceText(d *Deps) *referenceText {
	return &referenceText{deps: d, base: base{pipeline.Info{
		StageName:   ReferenceText,
		StageIcon:   "📚",
		Summary:     "Render the processed paragraphs as a reference text",
		NeedsFields: []pipeline.Field{pipeline.FieldProcessedParagraphs},
		SetsFields:  []pipeline.Field{pipeline.FieldSourceMaterialPath},
	}}}
}

func (s *referenceText) Run(_ context.Context, st pipeline.State) (pipeline.State, error) {
	if err := s.Check(st); err != nil {
		return st, err
	}
	if s.deps.Renderer == nil {
		return st, failure.Configuration(ReferenceText, ErrNotConfigured)
	}
	path, err := s.deps.Renderer.SourceMaterial(st.ProcessedParagraphs)
	if err != nil {
		return st, err
	}
	return st.With(pipeline.SetSourceMaterialPath(path)), nil
}

type lessonPlan struct {
	base
	deps *Deps
}

func newLessonPlan(d *Deps) *lessonPlan {
	return &lessonPlan{deps: d, base: base{pipeline.Info{
		StageName:   LessonPlan,
		StageIcon:   "📄",
		Summary:     "Render the lesson plan document",
		NeedsFields: []pipeline.Field{pipeline.FieldSections},
		SetsFields:  []pipeline.Field{pipeline.FieldLessonPlanPath},
	}}}
}

func (s *lessonPlan) Run(_ context.Context, st pipeline.State) (pipeline.State, error) {
	if err := s.Check(st); err != nil {
		return st, err
	}
	if s.deps.Renderer == nil {
		return st, failure.Configuration(LessonPlan, ErrNotConfigured)
	}
	path, err := s.deps.Renderer.LessonPlan(st.Sections)
	if err != nil {
		return st, err
	}
	return st.With(pipeline.SetLessonPlanPath(path)), nil
}

type finalOutput struct {
	base
	deps *Deps
}

func newFinalOutput(d *Deps) *finalOutput {
	return &finalOutput{deps: d, base: base{pipeline.Info{
		StageName:   FinalOutput,
		StageIcon:   "💾",
		Summary:     "Write the rewritten lesson as txt, json and markdown",
		NeedsFields: []pipeline.Field{pipeline.FieldModifiedLessonText},
		SetsFields: []pipeline.Field{
			pipeline.FieldFinalTxtPath, pipeline.FieldFinalJSONPath, pipeline.FieldFinalMDPath,
		},
	}}}
}

func (s *finalOutput) Run(_ context.Context, st pipeline.State) (pipeline.State, error) {
	if err := s.Check(st); err != nil {
		return st, err
	}
	if s.deps.Renderer == nil {
		return st, failure.Configuration(FinalOutput, ErrNotConfigured)
	}
	paths, err := s.deps.Renderer.FinalOutput(st.ModifiedLessonText)
	if err != nil {
		return st, err
	}
	return st.With(
		pipeline.SetFinalTxtPath(paths.Text),
		pipeline.SetFinalJSONPath(paths.JSON),
		pipeline.SetFinalMDPath(paths.Markdown),
	), nil
}
