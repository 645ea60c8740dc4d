// Package rules turns a student profile into a cleaned, actionable rule set.
package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/lessonkit/internal/failure"
	"github.com/jackzampolin/lessonkit/internal/knowledge"
	"github.com/jackzampolin/lessonkit/internal/parse"
	"github.com/jackzampolin/lessonkit/internal/prompts"
	"github.com/jackzampolin/lessonkit/internal/providers"
)

const (
	cleanTemperature = 0.2
	cleanTimeout     = 30 * time.Second
	cleanMaxTokens   = 1024
)

// Cleaner asks the model to reduce a raw rule set to its actionable,
// non-contradictory subset.
type Cleaner struct {
	Client  providers.LLMClient
	Prompts *prompts.Resolver
	Model   string
	Logger  *slog.Logger
}

// Clean returns the cleaned rules. Empty input returns an empty set without
// contacting the model.
func (c *Cleaner) Clean(ctx context.Context, raw []string) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	msgs, err := c.Prompts.Messages(prompts.RulesClean, struct{ Rules []string }{raw})
	if err != nil {
		return nil, err
	}
	reply, err := providers.Complete(ctx, c.Client, &providers.ChatRequest{
		Messages:    msgs,
		Model:       c.Model,
		Temperature: cleanTemperature,
		MaxTokens:   cleanMaxTokens,
		Timeout:     cleanTimeout,
		PromptKey:   prompts.RulesClean,
	})
	if err != nil {
		return nil, err
	}

	cleaned, err := parse.StringList(reply)
	if err != nil {
		var fe *failure.Error
		text := reply
		if errors.As(err, &fe) && fe.Text != "" {
			text = fe.Text
		}
		return nil, failure.RuleParsing("clean-rules", text, err)
	}

	logger.Debug("rules cleaned", "in", len(raw), "out", len(cleaned))
	return cleaned, nil
}

// Service combines knowledge base extraction with cleaning.
type Service struct {
	Extractor *knowledge.Extractor
	Cleaner   *Cleaner
}

// Generate extracts the rules that apply to profile and cleans them.
func (s *Service) Generate(ctx context.Context, profile knowledge.Profile) ([]string, error) {
	raw, err := s.Extractor.Extract(profile)
	if err != nil {
		return nil, err
	}
	cleaned, err := s.Cleaner.Clean(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("clean %d rules: %w", len(raw), err)
	}
	return cleaned, nil
}
