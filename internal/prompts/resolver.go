package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/jackzampolin/lessonkit/internal/failure"
	"github.com/jackzampolin/lessonkit/internal/providers"
)

// ErrPromptNotFound is returned for an unregistered key.
var ErrPromptNotFound = errors.New("prompt not found")

// Resolver resolves prompts with file overrides.
// Resolution order: override directory > embedded default.
type Resolver struct {
	overrideDir string
	embedded    map[string]EmbeddedPrompt
	mu          sync.RWMutex
	logger      *slog.Logger
}

// NewResolver creates a resolver. overrideDir may be empty.
func NewResolver(overrideDir string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		overrideDir: overrideDir,
		embedded:    make(map[string]EmbeddedPrompt),
		logger:      logger,
	}
}

// NewDefaultResolver returns a resolver with every embedded prompt registered.
func NewDefaultResolver(overrideDir string, logger *slog.Logger) (*Resolver, error) {
	r := NewResolver(overrideDir, logger)
	if err := RegisterDefaults(r); err != nil {
		return nil, failure.Configuration("prompts", err)
	}
	return r, nil
}

// Register registers an embedded prompt.
func (r *Resolver) Register(prompt EmbeddedPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Compute hash if not provided
	if prompt.Hash == "" {
		prompt.Hash = HashText(prompt.Text)
	}

	// Extract variables if not provided
	if prompt.Variables == nil {
		prompt.Variables = ExtractVariables(prompt.Text)
	}

	r.embedded[prompt.Key] = prompt
	r.logger.Debug("registered embedded prompt", "key", prompt.Key, "vars", prompt.Variables)
}

// Resolve returns the override for key if one exists, otherwise the embedded
// default. An unknown key or unreadable override is a configuration error.
func (r *Resolver) Resolve(key string) (*ResolvedPrompt, error) {
	if r.overrideDir != "" {
		path := filepath.Join(r.overrideDir, key+templateFileExtension)
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			text := string(data)
			return &ResolvedPrompt{
				Key:        key,
				Text:       text,
				Variables:  ExtractVariables(text),
				IsOverride: true,
				Hash:       HashText(text),
			}, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, failure.Configuration("prompts", fmt.Errorf("read override %s: %w", path, err))
		}
	}

	r.mu.RLock()
	embedded, ok := r.embedded[key]
	r.mu.RUnlock()
	if !ok {
		return nil, failure.Configuration("prompts", fmt.Errorf("%w: %s", ErrPromptNotFound, key))
	}

	return &ResolvedPrompt{
		Key:       key,
		Text:      embedded.Text,
		Variables: embedded.Variables,
		Hash:      embedded.Hash,
	}, nil
}

// Render resolves key and executes it against data. A template that fails to
// parse or execute is a configuration error.
func (r *Resolver) Render(key string, data any) (string, error) {
	p, err := r.Resolve(key)
	if err != nil {
		return "", err
	}
	out, err := Execute(key, p.Text, data)
	if err != nil {
		return "", failure.Configuration("prompts", fmt.Errorf("render %s: %w", key, err))
	}
	return out, nil
}

// GetEmbedded returns the embedded default for a key.
func (r *Resolver) GetEmbedded(key string) (*EmbeddedPrompt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.embedded[key]
	return &p, ok
}

// AllEmbedded returns all registered embedded prompts sorted by key.
func (r *Resolver) AllEmbedded() []EmbeddedPrompt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]EmbeddedPrompt, 0, len(r.embedded))
	for _, p := range r.embedded {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// Messages renders the system prompt paired with key, when one exists, and
// key itself as the user message.
func (r *Resolver) Messages(key string, data any) ([]providers.Message, error) {
	user, err := r.Render(key, data)
	if err != nil {
		return nil, err
	}

	var msgs []providers.Message
	if r.has(System(key)) {
		system, err := r.Render(System(key), data)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, providers.SystemMessage(system))
	}
	return append(msgs, providers.UserMessage(user)), nil
}

func (r *Resolver) has(key string) bool {
	r.mu.RLock()
	_, ok := r.embedded[key]
	r.mu.RUnlock()
	if ok || r.overrideDir == "" {
		return ok
	}
	_, err := os.Stat(filepath.Join(r.overrideDir, key+templateFileExtension))
	return err == nil
}
