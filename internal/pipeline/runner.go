package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/lessonkit/internal/failure"
)

// ErrMissingOutput marks a stage that returned without setting a field it
// promised.
var ErrMissingOutput = errors.New("stage did not set promised field")

// Runner executes one pipeline graph. Stages run one at a time; the first
// error aborts the invocation.
type Runner struct {
	Name     string
	Registry *Registry
	Logger   *slog.Logger
}

// NewRunner registers stages and validates the graph.
func NewRunner(name string, logger *slog.Logger, stages ...Stage) (*Runner, error) {
	reg := NewRegistry()
	for _, s := range stages {
		if err := reg.Register(s); err != nil {
			return nil, err
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", name, err)
	}
	return &Runner{Name: name, Registry: reg, Logger: logger}, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Stages returns the stages in execution order.
func (r *Runner) Stages() ([]Stage, error) {
	return r.Registry.Ordered()
}

// Run executes every stage in order and returns the final state. On error
// the returned state holds the outputs of the stages that completed.
func (r *Runner) Run(ctx context.Context, st State) (State, error) {
	ordered, err := r.Registry.Ordered()
	if err != nil {
		return st, fmt.Errorf("pipeline %s: %w", r.Name, err)
	}

	logger := r.logger().With("pipeline", r.Name)
	start := time.Now()
	for _, stage := range ordered {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		name := stage.Name()
		if err := st.Require(name, stage.Requires()...); err != nil {
			logger.Error("stage precondition failed", "stage", name, "error", err)
			return st, err
		}

		logger.Info("stage started", "stage", name)
		stageStart := time.Now()
		next, err := stage.Run(ctx, st)
		if err != nil {
			logger.Error("stage failed", "stage", name, "kind", failure.KindOf(err), "error", err)
			return st, err
		}

		for _, f := range stage.Provides() {
			if !next.Has(f) {
				err := &failure.Error{Kind: failure.KindPrecondition, Op: name, Field: string(f), Err: ErrMissingOutput}
				logger.Error("stage postcondition failed", "stage", name, "error", err)
				return st, err
			}
		}
		st = next
		logger.Info("stage finished", "stage", name, "duration", time.Since(stageStart).Round(time.Millisecond))
	}

	logger.Info("pipeline finished", "stages", len(ordered), "duration", time.Since(start).Round(time.Millisecond))
	return st, nil
}
