package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackzampolin/lessonkit/internal/failure"
)

func TestMockClient(t *testing.T) {
	t.Run("scripted replies", func(t *testing.T) {
		c := NewMockClient("first", "second")
		for _, want := range []string{"first", "second", "second"} {
			result, err := c.Chat(context.Background(), &ChatRequest{
				Messages: []Message{UserMessage("test")},
			})
			if err != nil {
				t.Fatalf("Chat() error = %v", err)
			}
			if result.Content != want {
				t.Errorf("Content = %q, want %q", result.Content, want)
			}
		}
		if c.RequestCount() != 3 {
			t.Errorf("RequestCount = %d, want 3", c.RequestCount())
		}
	})

	t.Run("respond func sees request", func(t *testing.T) {
		c := NewMockClient()
		c.Respond = func(req *ChatRequest) (string, error) {
			return req.PromptKey, nil
		}
		result, err := c.Chat(context.Background(), &ChatRequest{PromptKey: "rules.clean"})
		if err != nil {
			t.Fatal(err)
		}
		if result.Content != "rules.clean" {
			t.Errorf("Content = %q", result.Content)
		}
	})

	t.Run("fail after", func(t *testing.T) {
		c := NewMockClient("ok")
		c.FailAfter = 1
		if _, err := c.Chat(context.Background(), &ChatRequest{}); err != nil {
			t.Fatalf("first call error = %v", err)
		}
		result, err := c.Chat(context.Background(), &ChatRequest{})
		if err == nil {
			t.Fatal("expected failure on second call")
		}
		if result.Success {
			t.Error("Success = true on failure")
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		c := NewMockClient("slow")
		c.Latency = time.Second
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := c.Chat(ctx, &ChatRequest{}); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})

	t.Run("records requests", func(t *testing.T) {
		c := NewMockClient()
		_, _ = c.Chat(context.Background(), &ChatRequest{PromptKey: "a"})
		_, _ = c.Chat(context.Background(), &ChatRequest{PromptKey: "b"})
		reqs := c.Requests()
		if len(reqs) != 2 || reqs[1].PromptKey != "b" {
			t.Errorf("Requests() = %+v", reqs)
		}
		c.Reset()
		if c.RequestCount() != 0 || len(c.Requests()) != 0 {
			t.Error("Reset did not clear state")
		}
	})
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name    string
		client  *MockClient
		want    string
		wantErr bool
	}{
		{"trims reply", NewMockClient("  hello \n"), "hello", false},
		{"empty reply", NewMockClient("   "), "", true},
		{"service failure", &MockClient{ShouldFail: true}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Complete(context.Background(), tt.client, &ChatRequest{PromptKey: "lesson.adapt"})
			if tt.wantErr {
				if !errors.Is(err, failure.ErrCompletion) {
					t.Fatalf("error = %v, want completion error", err)
				}
				var fe *failure.Error
				if errors.As(err, &fe) && fe.Op != "lesson.adapt" {
					t.Errorf("Op = %q, want prompt key", fe.Op)
				}
				return
			}
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Complete() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMockTTS(t *testing.T) {
	m := &MockTTS{FailOn: map[string]bool{"bad": true}}
	if _, err := m.Generate(context.Background(), &TTSRequest{Text: "good"}); err != nil {
		t.Fatalf("Generate(good) error = %v", err)
	}
	if _, err := m.Generate(context.Background(), &TTSRequest{Text: "bad"}); err == nil {
		t.Fatal("expected failure for configured text")
	}
	if got := m.Texts(); len(got) != 2 {
		t.Errorf("Texts() = %v", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("3"); got != 3*time.Second {
		t.Errorf("parseRetryAfter(3) = %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("parseRetryAfter(empty) = %v", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Errorf("parseRetryAfter(soon) = %v", got)
	}
}
