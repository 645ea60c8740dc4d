package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackzampolin/lessonkit/internal/failure"
)

// LLMClient is the completion service every LLM-driven stage depends on.
type LLMClient interface {
	// Chat sends a chat completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g., "openai").
	Name() string
}

// TTSProvider synthesizes narration audio.
type TTSProvider interface {
	Name() string
	Generate(ctx context.Context, req *TTSRequest) (*TTSResult, error)
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// SystemMessage and UserMessage build role-tagged messages.
func SystemMessage(content string) Message { return Message{Role: "system", Content: content} }
func UserMessage(content string) Message   { return Message{Role: "user", Content: content} }

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	// Required
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Generation parameters
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	// Timeout bounds the whole call. Zero uses the client default.
	Timeout time.Duration `json:"-"`

	// PromptKey identifies the template that produced the messages.
	PromptKey string `json:"-"`

	// Request tracking
	RequestID string `json:"-"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	Content string `json:"content"`

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	ExecutionTime time.Duration `json:"execution_time"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	RequestID string `json:"request_id"`

	// Success/error
	Success      bool   `json:"success"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// TTSRequest is a single narration request.
type TTSRequest struct {
	Text         string
	Voice        string // Provider default if empty
	Format       string // "mp3" (default), "wav", "opus", ...
	Instructions string // Style guidance for models that accept it
}

// TTSResult is the response from a TTS provider. Format doubles as the
// file extension for the saved audio.
type TTSResult struct {
	Success       bool
	Audio         []byte
	Format        string
	CharCount     int
	ExecutionTime time.Duration
	ErrorMessage  string
}

// ErrEmptyCompletion is returned when the service replies with no text.
var ErrEmptyCompletion = errors.New("completion returned no text")

// Complete sends req and returns the trimmed reply text. Any failure,
// including a timeout or an empty reply, is returned as a completion error
// tagged with the request's prompt key.
func Complete(ctx context.Context, client LLMClient, req *ChatRequest) (string, error) {
	op := req.PromptKey
	if op == "" {
		op = client.Name()
	}
	result, err := client.Chat(ctx, req)
	if err != nil {
		return "", failure.Completion(op, err)
	}
	text := strings.TrimSpace(result.Content)
	if text == "" {
		return "", failure.Completion(op, ErrEmptyCompletion)
	}
	return text, nil
}
