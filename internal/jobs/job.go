// Package jobs runs lesson requests dropped into a watched inbox directory,
// one at a time, and files each request under done/ or failed/ with a result
// record beside it.
package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Handler runs one request file and returns what it produced.
type Handler func(ctx context.Context, path string) (map[string]any, error)

// Status represents the current state of a job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record describes one processed request. It is written as
// <request name>.result.yaml next to the filed request.
type Record struct {
	ID          string         `yaml:"id" json:"id"`
	Request     string         `yaml:"request" json:"request"`
	Status      Status         `yaml:"status" json:"status"`
	StartedAt   time.Time      `yaml:"started_at" json:"started_at"`
	CompletedAt *time.Time     `yaml:"completed_at,omitempty" json:"completed_at,omitempty"`
	Error       string         `yaml:"error,omitempty" json:"error,omitempty"`
	Outputs     map[string]any `yaml:"outputs,omitempty" json:"outputs,omitempty"`
}

// ResultPath returns where the record for a request filed in dir is written.
func ResultPath(dir, request string) string {
	name := strings.TrimSuffix(request, filepath.Ext(request))
	return filepath.Join(dir, name+".result.yaml")
}

// LoadRecord reads a result record.
func LoadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", path, err)
	}
	return &rec, nil
}

func (r *Record) write(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
