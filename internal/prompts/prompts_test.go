package prompts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jackzampolin/lessonkit/internal/failure"
)

func TestExtractVariables(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Hello {{.Name}}, you have {{ .Count }} items", []string{"Count", "Name"}},
		{"{{range .Rules}}- {{.}}\n{{end}}", []string{"Rules"}},
		{"{{- if .Day}}day {{.Day}}{{- end}}", []string{"Day"}},
		{"{{.Book.Title}}", []string{"Book.Title"}},
		{"no variables", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ExtractVariables(tt.text)); diff != "" {
			t.Errorf("ExtractVariables(%q) mismatch (-want +got):\n%s", tt.text, diff)
		}
	}
}

func TestRegisterDefaults(t *testing.T) {
	r, err := NewDefaultResolver("", nil)
	if err != nil {
		t.Fatalf("NewDefaultResolver() error = %v", err)
	}
	for _, key := range Keys() {
		p, ok := r.GetEmbedded(key)
		if !ok {
			t.Errorf("%s not registered", key)
			continue
		}
		if strings.TrimSpace(p.Text) == "" {
			t.Errorf("%s has empty text", key)
		}
		if p.Hash != HashText(p.Text) {
			t.Errorf("%s hash mismatch", key)
		}
	}
	if got := len(r.AllEmbedded()); got != len(Keys()) {
		t.Errorf("AllEmbedded() = %d prompts, want %d", got, len(Keys()))
	}
}

func TestRender_RulesClean(t *testing.T) {
	r, err := NewDefaultResolver("", nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Render(RulesClean, struct{ Rules []string }{[]string{"Add visuals", "Avoid visuals"}})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{"- Add visuals", "- Avoid visuals", "remove BOTH"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered prompt missing %q", want)
		}
	}
}

func TestRender_MissingField(t *testing.T) {
	r, err := NewDefaultResolver("", nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Render(LessonAdapt, map[string]any{"Rules": []string{"x"}})
	if !errors.Is(err, failure.ErrConfiguration) {
		t.Fatalf("Render() error = %v, want configuration error", err)
	}
}

func TestResolve_Unknown(t *testing.T) {
	r := NewResolver("", nil)
	_, err := r.Resolve("nope")
	if !errors.Is(err, ErrPromptNotFound) || !errors.Is(err, failure.ErrConfiguration) {
		t.Fatalf("Resolve() error = %v", err)
	}
}

func TestResolve_Override(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "rules.clean.tmpl"), []byte("Only {{len .Rules}} rules"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := NewDefaultResolver(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	p, err := r.Resolve(RulesClean)
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsOverride {
		t.Error("expected override")
	}
	out, err := r.Render(RulesClean, struct{ Rules []string }{[]string{"a", "b"}})
	if err != nil {
		t.Fatal(err)
	}
	if out != "Only 2 rules" {
		t.Errorf("Render() = %q", out)
	}

	// Keys without an override still resolve to the embedded text.
	p, err = r.Resolve(MediaVisualTopics)
	if err != nil {
		t.Fatal(err)
	}
	if p.IsOverride {
		t.Error("unexpected override")
	}
}

func TestMessages(t *testing.T) {
	r, err := NewDefaultResolver("", nil)
	if err != nil {
		t.Fatal(err)
	}
	data := struct {
		Rules []string
		Text  string
		Day   int
		Days  int
	}{[]string{"Add Spanish translations for key vocabulary"}, "The sun is a star.", 1, 1}

	msgs, err := r.Messages(LessonAdapt, data)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != "system" || msgs[1].Role != "user" {
		t.Fatalf("Messages() = %+v", msgs)
	}
	if !strings.Contains(msgs[1].Content, "The sun is a star.") {
		t.Error("user message missing lesson text")
	}

	// rules.clean has no system prompt.
	msgs, err = r.Messages(RulesClean, struct{ Rules []string }{nil})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Role != "user" {
		t.Errorf("Messages(rules.clean) = %+v", msgs)
	}
}
