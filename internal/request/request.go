// Package request decodes lesson requests from YAML or JSON files and turns
// them into the initial pipeline state.
package request

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/lessonkit/internal/knowledge"
	"github.com/jackzampolin/lessonkit/internal/pipeline"
)

// Extensions lists the file suffixes accepted as request files.
var Extensions = []string{".yaml", ".yml", ".json"}

var ErrNoSource = errors.New("request has no lesson source")

// Request is one lesson adaptation job. Profile may be given inline or as a
// path to a profile file; ProfileFile is resolved relative to the request file.
type Request struct {
	Profile           knowledge.Profile `yaml:"profile,omitempty" json:"profile,omitempty"`
	ProfileFile       string            `yaml:"profile_file,omitempty" json:"profile_file,omitempty"`
	Rules             []string          `yaml:"rules,omitempty" json:"rules,omitempty"`
	Source            string            `yaml:"source" json:"source"`
	LessonObjective   string            `yaml:"lesson_objective,omitempty" json:"lesson_objective,omitempty"`
	LanguageObjective map[string]string `yaml:"language_objective,omitempty" json:"language_objective,omitempty"`
	TargetLanguage    string            `yaml:"target_language,omitempty" json:"target_language,omitempty"`
	FileCategory      string            `yaml:"file_category,omitempty" json:"file_category,omitempty"`
	NumberOfDays      int               `yaml:"number_of_days,omitempty" json:"number_of_days,omitempty"`
}

// IsRequestFile reports whether path has a request file extension.
func IsRequestFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads a request file and resolves its profile file, if any.
func Load(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request %s: %w", path, err)
	}
	var r Request
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode request %s: %w", path, err)
	}
	if r.ProfileFile != "" && !filepath.IsAbs(r.ProfileFile) {
		r.ProfileFile = filepath.Join(filepath.Dir(path), r.ProfileFile)
	}
	if err := r.ResolveProfile(); err != nil {
		return nil, err
	}
	return &r, nil
}

// ResolveProfile loads ProfileFile into Profile. Inline attributes win over
// the file's.
func (r *Request) ResolveProfile() error {
	if r.ProfileFile == "" {
		return nil
	}
	p, err := knowledge.LoadProfile(r.ProfileFile)
	if err != nil {
		return err
	}
	for k, v := range r.Profile {
		p[k] = v
	}
	r.Profile = p
	return nil
}

// Validate checks the request carries what every pipeline needs.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Source) == "" {
		return ErrNoSource
	}
	if r.NumberOfDays < 0 {
		return fmt.Errorf("number_of_days must not be negative, got %d", r.NumberOfDays)
	}
	return nil
}

// HasPresetRules reports whether the request supplies its own rule set, in
// which case extraction is skipped.
func (r *Request) HasPresetRules() bool {
	return len(r.Rules) > 0
}

// State builds the initial pipeline state. Optional inputs are only set when
// given so their documented defaults apply. Preset rules go into the state
// for the set-rules stage to clean up.
func (r *Request) State() pipeline.State {
	updates := []pipeline.Update{
		pipeline.SetLessonSource(r.Source),
	}
	if r.Profile != nil {
		updates = append(updates, pipeline.SetStudentProfile(r.Profile))
	}
	if r.HasPresetRules() {
		updates = append(updates, pipeline.SetRules(r.Rules))
	}
	if r.LessonObjective != "" {
		updates = append(updates, pipeline.SetLessonObjective(r.LessonObjective))
	}
	if len(r.LanguageObjective) > 0 {
		updates = append(updates, pipeline.SetLanguageObjective(r.LanguageObjective))
	}
	if r.TargetLanguage != "" {
		updates = append(updates, pipeline.SetTargetLanguage(r.TargetLanguage))
	}
	if r.FileCategory != "" {
		updates = append(updates, pipeline.SetFileCategory(r.FileCategory))
	}
	if r.NumberOfDays > 0 {
		updates = append(updates, pipeline.SetNumberOfDays(r.NumberOfDays))
	}
	return pipeline.NewState(updates...)
}
