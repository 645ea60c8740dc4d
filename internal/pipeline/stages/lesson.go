package stages

import (
	"context"

	"github.com/jackzampolin/lessonkit/internal/failure"
	"github.com/jackzampolin/lessonkit/internal/pipeline"
)

type retrieveLesson struct {
	base
	deps *Deps
}

func newRetrieveLesson(d *Deps) *retrieveLesson {
	return &retrieveLesson{deps: d, base: base{pipeline.Info{
		StageName:   RetrieveLesson,
		StageIcon:   "📥",
		Summary:     "Fetch the lesson text from a URL or file",
		NeedsFields: []pipeline.Field{pipeline.FieldLessonSource},
		SetsFields:  []pipeline.Field{pipeline.FieldLessonContent},
	}}}
}

func (s *retrieveLesson) Run(ctx context.Context, st pipeline.State) (pipeline.State, error) {
	if err := s.Check(st); err != nil {
		return st, err
	}
	if s.deps.Retriever == nil {
		return st, failure.Configuration(RetrieveLesson, ErrNotConfigured)
	}
	text, err := s.deps.Retriever.Retrieve(ctx, st.LessonSource)
	if err != nil {
		return st, err
	}
	return st.With(pipeline.SetLessonContent(text)), nil
}

type modifyLesson struct {
	base
	deps *Deps
}

func newModifyLesson(d *Deps) *modifyLesson {
	return &modifyLesson{deps: d, base: base{pipeline.Info{
		StageName:   ModifyLesson,
		StageIcon:   "✏️",
		Summary:     "Rewrite the lesson under the rules, one chunk per day",
		NeedsFields: []pipeline.Field{pipeline.FieldRules, pipeline.FieldLessonContent},
		SetsFields:  []pipeline.Field{pipeline.FieldModifiedLessonText},
	}}}
}

func (s *modifyLesson) Run(ctx context.Context, st pipeline.State) (pipeline.State, error) {
	if err := s.Check(st); err != nil {
		return st, err
	}
	if s.deps.Transformer == nil {
		return st, failure.Configuration(ModifyLesson, ErrNotConfigured)
	}
	text, err := s.deps.Transformer.Transform(ctx, st.LessonContent, st.Rules, st.Category(), st.Days())
	if err != nil {
		return st, err
	}
	s.deps.logger().Info("lesson modified", "days", st.Days(), "category", st.Category(), "chars", len(text))
	return st.With(pipeline.SetModifiedLessonText(text)), nil
}
