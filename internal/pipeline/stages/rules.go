package stages

import (
	"context"
	"errors"
	"strings"

	"github.com/jackzampolin/lessonkit/internal/failure"
	"github.com/jackzampolin/lessonkit/internal/pipeline"
)

// ErrEmptyRules is returned when a request presets an empty rule list.
var ErrEmptyRules = errors.New("preset rule list is empty")

// ErrNotConfigured is returned when a stage's collaborator is missing from Deps.
var ErrNotConfigured = errors.New("collaborator not configured")

type setRules struct {
	base
	deps *Deps
}

func newSetRules(d *Deps) *setRules {
	return &setRules{deps: d, base: base{pipeline.Info{
		StageName:   SetRules,
		StageIcon:   "📋",
		Summary:     "Use the rules supplied with the request",
		NeedsFields: []pipeline.Field{pipeline.FieldRules},
		SetsFields:  []pipeline.Field{pipeline.FieldRules},
	}}}
}

func (s *setRules) Run(_ context.Context, st pipeline.State) (pipeline.State, error) {
	if err := s.Check(st); err != nil {
		return st, err
	}
	var kept []string
	for _, r := range st.Rules {
		if r = strings.TrimSpace(r); r != "" {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return st, &failure.Error{Kind: failure.KindPrecondition, Op: SetRules, Field: string(pipeline.FieldRules), Err: ErrEmptyRules}
	}
	s.deps.logger().Info("rules set", "count", len(kept))
	return st.With(pipeline.SetRules(kept)), nil
}

type extractRules struct {
	base
	deps *Deps
}

func newExtractRules(d *Deps) *extractRules {
	return &extractRules{deps: d, base: base{pipeline.Info{
		StageName:   ExtractRules,
		StageIcon:   "🧠",
		Summary:     "Look up the profile's rules in the knowledge base and clean them",
		NeedsFields: []pipeline.Field{pipeline.FieldStudentProfile},
		SetsFields:  []pipeline.Field{pipeline.FieldRules},
	}}}
}

func (s *extractRules) Run(ctx context.Context, st pipeline.State) (pipeline.State, error) {
	if err := s.Check(st); err != nil {
		return st, err
	}
	if s.deps.Rules == nil {
		return st, failure.Configuration(ExtractRules, ErrNotConfigured)
	}
	rules, err := s.deps.Rules.Generate(ctx, st.StudentProfile)
	if err != nil {
		return st, err
	}
	s.deps.logger().Info("rules extracted", "count", len(rules), "attributes", st.StudentProfile.Attributes())
	return st.With(pipeline.SetRules(rules)), nil
}
