package request

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jackzampolin/lessonkit/internal/knowledge"
	"github.com/jackzampolin/lessonkit/internal/pipeline"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("yaml with inline profile", func(t *testing.T) {
		path := write(t, t.TempDir(), "sun.yaml", `
source: https://example.com/sun
profile:
  Dominant Language: Spanish
  Learning Preference: [Auditory, Visual]
lesson_objective: Explain the sun
language_objective:
  reading: Read a short text
target_language: Spanish
number_of_days: 2
`)
		r, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		want := &Request{
			Source: "https://example.com/sun",
			Profile: knowledge.Profile{
				"Dominant Language":   {"Spanish"},
				"Learning Preference": {"Auditory", "Visual"},
			},
			LessonObjective:   "Explain the sun",
			LanguageObjective: map[string]string{"reading": "Read a short text"},
			TargetLanguage:    "Spanish",
			NumberOfDays:      2,
		}
		if diff := cmp.Diff(want, r); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("json with profile file", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, "student.json", `{"Dominant Language": "Spanish", "Grade": "3"}`)
		path := write(t, dir, "req.json", `{"source": "lesson.txt", "profile_file": "student.json", "profile": {"Grade": "4"}}`)

		r, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		want := knowledge.Profile{"Dominant Language": {"Spanish"}, "Grade": {"4"}}
		if diff := cmp.Diff(want, r.Profile); diff != "" {
			t.Errorf("profile mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing profile file", func(t *testing.T) {
		path := write(t, t.TempDir(), "req.yaml", "source: x\nprofile_file: nope.json\n")
		if _, err := Load(path); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("malformed", func(t *testing.T) {
		path := write(t, t.TempDir(), "req.yaml", "source: [\n")
		if _, err := Load(path); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"ok", Request{Source: "a.txt"}, false},
		{"blank source", Request{Source: "  "}, true},
		{"negative days", Request{Source: "a.txt", NumberOfDays: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	if err := (&Request{}).Validate(); !errors.Is(err, ErrNoSource) {
		t.Errorf("Validate() = %v, want ErrNoSource", err)
	}
}

func TestState(t *testing.T) {
	t.Run("only given fields are set", func(t *testing.T) {
		st := (&Request{Source: "a.txt", Profile: knowledge.Profile{"Grade": {"3"}}}).State()

		want := []pipeline.Field{pipeline.FieldStudentProfile, pipeline.FieldLessonSource}
		if diff := cmp.Diff(want, st.Present()); diff != "" {
			t.Errorf("Present() mismatch (-want +got):\n%s", diff)
		}
		if st.Days() != pipeline.DefaultNumberOfDays || st.Category() != pipeline.DefaultFileCategory {
			t.Errorf("defaults not applied: days=%d category=%s", st.Days(), st.Category())
		}
	})

	t.Run("preset rules", func(t *testing.T) {
		r := &Request{Source: "a.txt", Rules: []string{"Use short sentences"}, FileCategory: "Worksheet", NumberOfDays: 3}
		if !r.HasPresetRules() {
			t.Fatal("HasPresetRules() = false")
		}
		st := r.State()
		if !st.Has(pipeline.FieldRules) || st.Has(pipeline.FieldStudentProfile) {
			t.Errorf("present = %v", st.Present())
		}
		if st.Category() != "Worksheet" || st.Days() != 3 {
			t.Errorf("category=%s days=%d", st.Category(), st.Days())
		}
	})
}

func TestIsRequestFile(t *testing.T) {
	for path, want := range map[string]bool{
		"a.yaml": true, "b.YML": true, "c.json": true, "d.txt": false, "e": false,
	} {
		if got := IsRequestFile(path); got != want {
			t.Errorf("IsRequestFile(%q) = %v, want %v", path, got, want)
		}
	}
}
