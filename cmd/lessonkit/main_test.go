package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/lessonkit/internal/failure"
	"github.com/jackzampolin/lessonkit/internal/llmcall"
	"github.com/jackzampolin/lessonkit/internal/pipeline"
	"github.com/jackzampolin/lessonkit/internal/pipeline/stages"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--home", t.TempDir()}, args...))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRequestFlags_Load(t *testing.T) {
	dir := t.TempDir()
	reqPath := filepath.Join(dir, "req.yaml")
	if err := os.WriteFile(reqPath, []byte("source: a.txt\nnumber_of_days: 2\ntarget_language: French\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("flags override file", func(t *testing.T) {
		f := &requestFlags{file: reqPath, source: "b.txt", rules: []string{"Use visuals"}}
		req, err := f.load()
		if err != nil {
			t.Fatalf("load() error = %v", err)
		}
		if req.Source != "b.txt" || req.NumberOfDays != 2 || req.TargetLanguage != "French" {
			t.Errorf("request = %+v", req)
		}
		if !req.HasPresetRules() {
			t.Error("rules flag not applied")
		}
	})

	t.Run("no source", func(t *testing.T) {
		if _, err := (&requestFlags{days: 1}).load(); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestOutputs(t *testing.T) {
	st := pipeline.NewState(
		pipeline.SetLessonSource("a.txt"),
		pipeline.SetRules([]string{"r1"}),
		pipeline.SetAudioPaths(nil),
		pipeline.SetFinalMDPath("/out/a.md"),
	)
	want := map[string]any{
		"pipeline":      stages.PlaceholderPipelineName,
		"rules":         []string{"r1"},
		"audio_paths":   []string{},
		"final_md_path": "/out/a.md",
	}
	if diff := cmp.Diff(want, outputs(stages.PlaceholderPipelineName, st)); diff != "" {
		t.Errorf("outputs() mismatch (-want +got):\n%s", diff)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"precondition", failure.Precondition("modify-lesson", "rules"), 2},
		{"configuration", failure.Configuration("llm", errors.New("no key")), 2},
		{"completion", failure.Completion("clean-rules", errors.New("timeout")), 1},
		{"plain", errors.New("x"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStagesCommand(t *testing.T) {
	out, err := execute(t, "stages", "placeholder", "-o", "yaml")
	if err != nil {
		t.Fatalf("stages error = %v", err)
	}
	var got struct {
		Pipeline string      `yaml:"pipeline"`
		Stages   []stageInfo `yaml:"stages"`
	}
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not yaml: %v\n%s", err, out)
	}
	if got.Pipeline != stages.PlaceholderPipelineName || len(got.Stages) == 0 {
		t.Fatalf("output = %+v", got)
	}
	if got.Stages[0].Name != stages.ExtractRules {
		t.Errorf("first stage = %s, want %s", got.Stages[0].Name, stages.ExtractRules)
	}
	if last := got.Stages[len(got.Stages)-1].Name; last != stages.FinalOutput {
		t.Errorf("last stage = %s, want %s", last, stages.FinalOutput)
	}

	if _, err := execute(t, "stages", "nonsense"); err == nil {
		t.Error("expected error for unknown pipeline")
	}
}

func TestConfigInitCommand(t *testing.T) {
	t.Cleanup(func() { cfgFile = "" })

	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")
		if _, err := execute(t, "--config", path, "config", "init"); err != nil {
			t.Fatalf("config init error = %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "${OPENAI_API_KEY}") {
			t.Error("default config missing key reference")
		}
		cfgFile = ""
	})

	t.Run("home path and overwrite guard", func(t *testing.T) {
		home := t.TempDir()
		rootCmd.SetArgs([]string{"--home", home, "config", "init"})
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("config init error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(home, "config.yaml")); err != nil {
			t.Fatal(err)
		}

		rootCmd.SetArgs([]string{"--home", home, "config", "init"})
		if err := rootCmd.Execute(); err == nil {
			t.Error("expected error when config exists")
		}

		// The written file loads.
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs([]string{"--home", home, "-o", "yaml", "config", "show"})
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("config show error = %v", err)
		}
		if !strings.Contains(out.String(), "config_file: "+filepath.Join(home, "config.yaml")) {
			t.Errorf("config show output:\n%s", out.String())
		}
	})
}

func TestCallsCommand(t *testing.T) {
	home := t.TempDir()
	store := llmcall.NewStore(filepath.Join(home, "logs", "llm_calls.jsonl"))
	for _, c := range []llmcall.Call{
		{ID: "1", PromptKey: "rules.clean", Success: true, InputTokens: 10},
		{ID: "2", PromptKey: "lesson.adapt", Success: false},
		{ID: "3", PromptKey: "lesson.adapt", Success: true, InputTokens: 5},
	} {
		if err := store.Append(&c); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--home", home, "-o", "json", "calls", "--summary"})
	t.Cleanup(func() { callsSummary = false })
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("calls error = %v", err)
	}
	for _, want := range []string{`"prompt_key": "rules.clean"`, `"prompt_key": "lesson.adapt"`, `"failures": 1`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %s:\n%s", want, out.String())
		}
	}
}
