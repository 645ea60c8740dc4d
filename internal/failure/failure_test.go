package failure

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"precondition", Precondition("modify-lesson", "rules"), ErrPrecondition, true},
		{"precondition is not parsing", Precondition("modify-lesson", "rules"), ErrParsing, false},
		{"rule parsing matches itself", RuleParsing("clean-rules", "x", nil), ErrRuleParsing, true},
		{"rule parsing matches parsing", RuleParsing("clean-rules", "x", nil), ErrParsing, true},
		{"parsing does not match rule parsing", Parsing("slides", "x", nil), ErrRuleParsing, false},
		{"wrapped completion", fmt.Errorf("stage: %w", Completion("llm", errors.New("timeout"))), ErrCompletion, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transformation("modify-lesson", Completion("openai", cause))

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through the chain")
	}
	if !errors.Is(err, ErrCompletion) {
		t.Error("expected nested completion kind to match")
	}
	if KindOf(err) != KindTransformation {
		t.Errorf("KindOf() = %q, want %q", KindOf(err), KindTransformation)
	}
}

func TestError_Message(t *testing.T) {
	err := Precondition("modify-lesson", "lesson_content")
	want := `modify-lesson: precondition: missing "lesson_content"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsFatal(t *testing.T) {
	if IsFatal(nil) {
		t.Error("nil should not be fatal")
	}
	if !IsFatal(errors.New("plain")) {
		t.Error("errors outside the taxonomy should be fatal")
	}
	if !IsFatal(Retrieval("retrieve-lesson", errors.New("404"))) {
		t.Error("lesson retrieval should be fatal")
	}
	if IsFatal(SkippableRetrieval("fetch-image", errors.New("404"))) {
		t.Error("media retrieval should be skippable")
	}
}

func TestParsingKeepsText(t *testing.T) {
	err := Parsing("slides", `[{"title": "x"`, errors.New("unexpected end"))

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatal("expected *Error")
	}
	if fe.Text != `[{"title": "x"` {
		t.Errorf("Text = %q", fe.Text)
	}
}
