package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
//
// Replies are taken from Responses in order; once exhausted the last reply
// repeats. Respond, when set, takes precedence and may inspect the request.
type MockClient struct {
	// Configurable behavior
	Latency    time.Duration
	ShouldFail bool
	FailAfter  int // Fail after N requests (0 = never)
	Responses  []string
	Respond    func(req *ChatRequest) (string, error)

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	requests     []ChatRequest
}

// NewMockClient creates a mock that answers every request with the given
// replies in turn.
func NewMockClient(responses ...string) *MockClient {
	if len(responses) == 0 {
		responses = []string{"mock response"}
	}
	return &MockClient{Responses: responses}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat sends a mock chat request.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.requests = append(c.requests, *req)
	c.mu.Unlock()

	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
	}
	fail := func(errType string, err error) (*ChatResult, error) {
		result.Success = false
		result.ErrorType = errType
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	if c.ShouldFail {
		return fail("mock_failure", errors.New("mock client configured to fail"))
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		return fail("mock_failure", fmt.Errorf("mock client failed after %d requests", c.FailAfter))
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return fail("context_cancelled", ctx.Err())
		}
	}

	var text string
	if c.Respond != nil {
		var err error
		if text, err = c.Respond(req); err != nil {
			return fail("mock_failure", err)
		}
	} else if len(c.Responses) > 0 {
		i := int(count) - 1
		if i >= len(c.Responses) {
			i = len(c.Responses) - 1
		}
		text = c.Responses[i]
	}

	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += len(m.Content) / 4 // Rough estimate
	}

	result.Success = true
	result.Content = text
	result.PromptTokens = promptTokens
	result.CompletionTokens = len(text) / 4
	result.TotalTokens = result.PromptTokens + result.CompletionTokens
	result.ExecutionTime = time.Since(start)
	return result, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Requests returns a copy of every request received.
func (c *MockClient) Requests() []ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ChatRequest(nil), c.requests...)
}

// Reset clears the request counter and history.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
	c.mu.Lock()
	c.requests = nil
	c.mu.Unlock()
}

var _ LLMClient = (*MockClient)(nil)

// MockTTS is a TTSProvider for testing. Texts listed in FailOn fail.
type MockTTS struct {
	Audio  []byte
	FailOn map[string]bool

	mu    sync.Mutex
	texts []string
}

// Name returns the provider identifier.
func (m *MockTTS) Name() string { return "mock-tts" }

// Generate returns the configured audio bytes.
func (m *MockTTS) Generate(_ context.Context, req *TTSRequest) (*TTSResult, error) {
	m.mu.Lock()
	m.texts = append(m.texts, req.Text)
	m.mu.Unlock()

	if m.FailOn[req.Text] {
		err := errors.New("mock tts configured to fail")
		return &TTSResult{Success: false, ErrorMessage: err.Error()}, err
	}
	audio := m.Audio
	if audio == nil {
		audio = []byte("ID3mock")
	}
	return &TTSResult{Success: true, Audio: audio, Format: "mp3", CharCount: len(req.Text)}, nil
}

// Texts returns every text submitted for synthesis.
func (m *MockTTS) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

var _ TTSProvider = (*MockTTS)(nil)
