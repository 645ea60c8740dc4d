package llmcall

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackzampolin/lessonkit/internal/prompts"
	"github.com/jackzampolin/lessonkit/internal/providers"
)

// Recorder wraps an LLMClient and records every call to a Store. Recording
// failures are logged and never fail the call.
type Recorder struct {
	Client providers.LLMClient
	Store  *Store
	// Prompts, when set, supplies the hash of the template behind each call.
	Prompts *prompts.Resolver
	Logger  *slog.Logger
}

var _ providers.LLMClient = (*Recorder)(nil)

// NewRecorder wraps client.
func NewRecorder(client providers.LLMClient, store *Store, resolver *prompts.Resolver, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{Client: client, Store: store, Prompts: resolver, Logger: logger}
}

// Name returns the wrapped client's name.
func (r *Recorder) Name() string { return r.Client.Name() }

// Chat forwards req and records the outcome.
func (r *Recorder) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
	start := time.Now()
	result, err := r.Client.Chat(ctx, req)

	if result == nil {
		// Clients may return only an error; record the attempt anyway.
		result = &providers.ChatResult{Provider: r.Client.Name(), ExecutionTime: time.Since(start)}
		if err != nil {
			result.ErrorMessage = err.Error()
		}
	}

	temp := req.Temperature
	opts := RecordOptions{PromptKey: req.PromptKey, Temperature: &temp, Model: req.Model}
	if r.Prompts != nil && req.PromptKey != "" {
		if p, perr := r.Prompts.Resolve(req.PromptKey); perr == nil {
			opts.PromptHash = p.Hash
		}
	}

	call := FromChatResult(result, opts)
	if err != nil {
		call.Success = false
		call.Error = err.Error()
	}

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if r.Store != nil {
		if serr := r.Store.Append(call); serr != nil {
			logger.Warn("failed to record llm call", "prompt_key", call.PromptKey, "error", serr)
		}
	}
	logger.Debug("llm call",
		"id", call.ID,
		"prompt_key", call.PromptKey,
		"model", call.Model,
		"latency_ms", call.LatencyMs,
		"input_tokens", call.InputTokens,
		"output_tokens", call.OutputTokens,
		"success", call.Success)

	return result, err
}
