package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOpenAITTSGenerateSuccess(t *testing.T) {
	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	client := NewOpenAITTSClient(OpenAITTSConfig{
		APIKey:       "test-key",
		Model:        "gpt-4o-mini-tts",
		Voice:        "nova",
		Instructions: "Default instructions",
		BaseURL:      server.URL,
	})

	result, err := client.Generate(context.Background(), &TTSRequest{
		Text:         "The sun is a star.",
		Instructions: "Read slowly for a young learner.",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success result")
	}
	if string(result.Audio) != "mp3-bytes" {
		t.Fatalf("unexpected audio bytes: %q", string(result.Audio))
	}
	if result.Format != "mp3" {
		t.Errorf("Format = %q, want mp3", result.Format)
	}
	if got, _ := payload["model"].(string); got != "gpt-4o-mini-tts" {
		t.Fatalf("expected model gpt-4o-mini-tts, got %q", got)
	}
	if got, _ := payload["voice"].(string); got != "nova" {
		t.Fatalf("expected voice nova, got %q", got)
	}
	if got, _ := payload["response_format"].(string); got != "mp3" {
		t.Fatalf("expected response_format mp3, got %q", got)
	}
	if got, _ := payload["instructions"].(string); got != "Read slowly for a young learner." {
		t.Fatalf("expected instructions override, got %q", got)
	}
}

func TestOpenAITTSGenerateRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit","type":"rate_limit_error","param":"","code":"rate_limit"}}`))
	}))
	defer server.Close()

	client := NewOpenAITTSClient(OpenAITTSConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	_, err := client.Generate(context.Background(), &TTSRequest{Text: "Hello world."})
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	rle, ok := IsRateLimitError(err)
	if !ok {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if rle.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rle.StatusCode)
	}
	if rle.RetryAfter != 3*time.Second {
		t.Fatalf("expected RetryAfter=3s, got %v", rle.RetryAfter)
	}
}

func TestOpenAITTSGenerateValidation(t *testing.T) {
	client := NewOpenAITTSClient(OpenAITTSConfig{APIKey: "test-key"})

	for name, req := range map[string]*TTSRequest{"nil": nil, "blank": {Text: "  "}} {
		t.Run(name, func(t *testing.T) {
			res, err := client.Generate(context.Background(), req)
			if !errors.Is(err, ErrEmptyNarration) {
				t.Fatalf("Generate() error = %v, want ErrEmptyNarration", err)
			}
			if res == nil || res.Success || res.ErrorMessage == "" {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestOpenAITTSDefaults(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		_, _ = w.Write([]byte("wav-bytes"))
	}))
	defer server.Close()

	client := NewOpenAITTSClient(OpenAITTSConfig{
		APIKey:       "test-key",
		Model:        "tts-1",
		Format:       "WAV",
		Instructions: "ignored by tts-1",
		BaseURL:      server.URL,
	})
	res, err := client.Generate(context.Background(), &TTSRequest{Text: "Hello."})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Format != "wav" || res.CharCount != len("Hello.") {
		t.Errorf("result = %+v", res)
	}
	if got, _ := payload["voice"].(string); got != openAITTSDefaultVoice {
		t.Errorf("voice = %q", got)
	}
	if _, ok := payload["instructions"]; ok {
		t.Error("instructions sent to a model that does not accept them")
	}
}

func TestSpeechFormat(t *testing.T) {
	tests := map[string]string{
		"":       "mp3",
		"MP3":    "mp3",
		"wav":    "wav",
		" opus ": "opus",
		"ogg":    "mp3",
	}
	for in, want := range tests {
		if got, _ := speechFormat(in); got != want {
			t.Errorf("speechFormat(%q) = %q, want %q", in, got, want)
		}
	}
}
