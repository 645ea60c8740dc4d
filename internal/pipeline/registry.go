package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStageAlreadyRegistered = errors.New("stage already registered")
	ErrStageNotFound          = errors.New("stage not found")
	ErrDependencyCycle        = errors.New("dependency cycle detected")
)

// Registry holds the stages of one pipeline graph. A registry is filled once
// when its runner is built and only read afterwards, so it has no lock.
type Registry struct {
	stages []Stage
	index  map[string]int
}

// NewRegistry creates an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds a stage. Names must be unique.
func (r *Registry) Register(s Stage) error {
	name := s.Name()
	if _, exists := r.index[name]; exists {
		return fmt.Errorf("%w: %s", ErrStageAlreadyRegistered, name)
	}
	r.index[name] = len(r.stages)
	r.stages = append(r.stages, s)
	return nil
}

// Get returns a stage by name.
func (r *Registry) Get(name string) (Stage, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.stages[i], true
}

// Names returns stage names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.stages))
	for i, s := range r.stages {
		names[i] = s.Name()
	}
	return names
}

// Ordered returns the stages so that each comes after its dependencies.
// Among stages whose dependencies are met at the same point, registration
// order wins.
func (r *Registry) Ordered() ([]Stage, error) {
	unmet := make([]int, len(r.stages))
	dependents := make([][]int, len(r.stages))
	for i, s := range r.stages {
		for _, dep := range s.Dependencies() {
			j, ok := r.index[dep]
			if !ok {
				return nil, fmt.Errorf("%w: %s depends on %s", ErrStageNotFound, s.Name(), dep)
			}
			unmet[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	var ready []int
	for i, n := range unmet {
		if n == 0 {
			ready = append(ready, i)
		}
	}
	ordered := make([]Stage, 0, len(r.stages))
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		ordered = append(ordered, r.stages[i])
		for _, j := range dependents[i] {
			unmet[j]--
			if unmet[j] == 0 {
				ready = append(ready, j)
			}
		}
	}

	if len(ordered) < len(r.stages) {
		var stuck []string
		for i, n := range unmet {
			if n > 0 {
				stuck = append(stuck, r.stages[i].Name())
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(stuck, ", "))
	}
	return ordered, nil
}

// Validate checks that every dependency exists and the graph is acyclic.
func (r *Registry) Validate() error {
	_, err := r.Ordered()
	return err
}
