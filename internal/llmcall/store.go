package llmcall

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store appends calls to a JSON Lines file and reads them back.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by path. The file is created on first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// QueryFilter specifies filters for listing LLM calls.
type QueryFilter struct {
	PromptKey string
	Model     string
	After     *time.Time
	Success   *bool
	Limit     int // most recent N after filtering; 0 = all
}

func (f QueryFilter) match(c *Call) bool {
	if f.PromptKey != "" && c.PromptKey != f.PromptKey {
		return false
	}
	if f.Model != "" && c.Model != f.Model {
		return false
	}
	if f.After != nil && !c.Timestamp.After(*f.After) {
		return false
	}
	if f.Success != nil && c.Success != *f.Success {
		return false
	}
	return true
}

// Append writes one call as a single line.
func (s *Store) Append(call *Call) error {
	if call == nil {
		return nil
	}
	line, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("encode call: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create call log dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open call log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write call log: %w", err)
	}
	return nil
}

// List returns the calls matching filter in the order they were recorded.
// A missing log is empty. Lines that fail to decode are skipped.
func (s *Store) List(filter QueryFilter) ([]Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Call{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open call log: %w", err)
	}
	defer f.Close()

	calls := []Call{}
	sc := bufio.NewScanner(f)
	// Responses can be long.
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		var c Call
		if err := json.Unmarshal(sc.Bytes(), &c); err != nil {
			continue
		}
		if filter.match(&c) {
			calls = append(calls, c)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read call log: %w", err)
	}

	if filter.Limit > 0 && len(calls) > filter.Limit {
		calls = calls[len(calls)-filter.Limit:]
	}
	return calls, nil
}

// Summary aggregates token usage and failures per prompt key.
type Summary struct {
	PromptKey    string `json:"prompt_key" yaml:"prompt_key"`
	Calls        int    `json:"calls" yaml:"calls"`
	Failures     int    `json:"failures" yaml:"failures"`
	InputTokens  int    `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int    `json:"output_tokens" yaml:"output_tokens"`
	AvgLatencyMs int    `json:"avg_latency_ms" yaml:"avg_latency_ms"`
}

// Summarize groups calls by prompt key, in order of first appearance.
func Summarize(calls []Call) []Summary {
	index := map[string]int{}
	var out []Summary
	totalLatency := map[string]int{}
	for _, c := range calls {
		i, ok := index[c.PromptKey]
		if !ok {
			i = len(out)
			index[c.PromptKey] = i
			out = append(out, Summary{PromptKey: c.PromptKey})
		}
		s := &out[i]
		s.Calls++
		if !c.Success {
			s.Failures++
		}
		s.InputTokens += c.InputTokens
		s.OutputTokens += c.OutputTokens
		totalLatency[c.PromptKey] += c.LatencyMs
	}
	for i := range out {
		out[i].AvgLatencyMs = totalLatency[out[i].PromptKey] / out[i].Calls
	}
	return out
}
