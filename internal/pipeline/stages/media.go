package stages

import (
	"context"

	"github.com/jackzampolin/lessonkit/internal/pipeline"
)

type audio struct {
	base
	deps *Deps
}

func newAudio(d *Deps) *audio {
	return &audio{deps: d, base: base{pipeline.Info{
		StageName:   Audio,
		StageIcon:   "🔊",
		Summary:     "Narrate the lesson and resolve audio placeholders",
		NeedsFields: []pipeline.Field{pipeline.FieldRules, pipeline.FieldModifiedLessonText},
		SetsFields:  []pipeline.Field{pipeline.FieldModifiedLessonText, pipeline.FieldAudioPaths},
	}}}
}

func (s *audio) Run(ctx context.Context, st pipeline.State) (pipeline.State, error) {
	if err := s.Check(st); err != nil {
		return st, err
	}
	if s.deps.Narrator == nil {
		s.deps.logger().Info("narration disabled")
		return st.With(pipeline.SetAudioPaths(nil)), nil
	}
	text, paths, err := s.deps.Narrator.Narrate(ctx, st.ModifiedLessonText, st.Rules)
	if err != nil {
		return st, err
	}
	return st.With(pipeline.SetModifiedLessonText(text), pipeline.SetAudioPaths(paths)), nil
}

type visuals struct {
	base
	deps *Deps
}

func newVisuals(d *Deps) *visuals {
	return &visuals{deps: d, base: base{pipeline.Info{
		StageName:   Visuals,
		StageIcon:   "🖼️",
		Summary:     "Find images and resolve image placeholders",
		NeedsFields: []pipeline.Field{pipeline.FieldRules, pipeline.FieldModifiedLessonText},
		SetsFields:  []pipeline.Field{pipeline.FieldModifiedLessonText, pipeline.FieldImagePaths},
	}}}
}

func (s *visuals) Run(ctx context.Context, st pipeline.State) (pipeline.State, error) {
	if err := s.Check(st); err != nil {
		return st, err
	}
	if s.deps.Illustrator == nil {
		s.deps.logger().Info("image search disabled")
		return st.With(pipeline.SetImagePaths(nil)), nil
	}
	text, paths, err := s.deps.Illustrator.Illustrate(ctx, st.ModifiedLessonText, st.Rules)
	if err != nil {
		return st, err
	}
	return st.With(pipeline.SetModifiedLessonText(text), pipeline.SetImagePaths(paths)), nil
}
