// Package pipeline runs an ordered graph of stages over a shared State.
//
// Every stage declares the fields it needs and the fields it guarantees.
// The Runner checks both around each stage, so a missing input aborts the
// invocation before the stage makes any external call.
package pipeline

import "context"

// Stage is one node of a pipeline graph.
type Stage interface {
	// Identity
	Name() string           // e.g., "modify-lesson", "generate-sections"
	Dependencies() []string // Stages that must complete first

	// Metadata
	Icon() string
	Description() string

	// Requires lists the fields that must be present before Run.
	Requires() []Field
	// Provides lists the fields Run guarantees to set.
	Provides() []Field

	// Run returns st extended with the stage's outputs.
	Run(ctx context.Context, st State) (State, error)
}

// Info is the metadata half of Stage. Concrete stages embed it and add Run.
type Info struct {
	StageName   string
	After       []string
	StageIcon   string
	Summary     string
	NeedsFields []Field
	SetsFields  []Field
}

func (i Info) Name() string           { return i.StageName }
func (i Info) Dependencies() []string { return i.After }
func (i Info) Icon() string           { return i.StageIcon }
func (i Info) Description() string    { return i.Summary }
func (i Info) Requires() []Field      { return i.NeedsFields }
func (i Info) Provides() []Field      { return i.SetsFields }

// Check verifies the stage's required fields, for stages invoked directly
// rather than through a Runner.
func (i Info) Check(st State) error {
	return st.Require(i.StageName, i.NeedsFields...)
}
