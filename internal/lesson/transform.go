package lesson

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackzampolin/lessonkit/internal/failure"
	"github.com/jackzampolin/lessonkit/internal/prompts"
	"github.com/jackzampolin/lessonkit/internal/providers"
)

// Content categories. Anything other than a worksheet is treated as a lesson.
const (
	CategoryLesson    = "Lesson"
	CategoryWorksheet = "Worksheet"
)

const (
	adaptTemperature = 0.4
	adaptTimeout     = 60 * time.Second
	adaptMaxTokens   = 4096
)

var (
	ErrNoRules = errors.New("no adaptation rules")
	ErrNoText  = errors.New("no lesson text")
)

// Transformer rewrites lesson text under a rule set.
type Transformer struct {
	Client  providers.LLMClient
	Prompts *prompts.Resolver
	Model   string
	Logger  *slog.Logger
}

// IsWorksheet reports whether category selects whole-document worksheet mode.
func IsWorksheet(category string) bool {
	return strings.EqualFold(strings.TrimSpace(category), CategoryWorksheet)
}

// Transform rewrites text. Worksheets are adapted in a single call. Lessons
// are split into days paragraphs-wise, each day adapted independently and
// prefixed with a "### Day N" heading. A day with no paragraphs gets its
// heading but no model call.
func (t *Transformer) Transform(ctx context.Context, text string, rules []string, category string, days int) (string, error) {
	if len(rules) == 0 {
		return "", failure.Transformation("modify-lesson", ErrNoRules)
	}
	if strings.TrimSpace(text) == "" {
		return "", failure.Transformation("modify-lesson", ErrNoText)
	}
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if IsWorksheet(category) {
		out, err := t.adapt(ctx, prompts.LessonWorksheet, struct {
			Rules []string
			Text  string
		}{rules, text})
		if err != nil {
			return "", failure.Transformation("modify-lesson", err)
		}
		logger.Info("worksheet adapted", "chars", len(out))
		return out, nil
	}

	chunks := Chunk(SplitParagraphs(text), days)
	sections := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		header := fmt.Sprintf("### Day %d", i+1)
		if len(chunk) == 0 {
			sections = append(sections, header)
			continue
		}
		out, err := t.adapt(ctx, prompts.LessonAdapt, struct {
			Rules []string
			Day   int
			Days  int
			Text  string
		}{rules, i + 1, len(chunks), strings.Join(chunk, "\n\n")})
		if err != nil {
			return "", failure.Transformation("modify-lesson", fmt.Errorf("day %d: %w", i+1, err))
		}
		logger.Info("lesson day adapted", "day", i+1, "of", len(chunks), "paragraphs", len(chunk))
		sections = append(sections, header+"\n\n"+out)
	}
	return strings.Join(sections, "\n\n"), nil
}

func (t *Transformer) adapt(ctx context.Context, key string, data any) (string, error) {
	msgs, err := t.Prompts.Messages(key, data)
	if err != nil {
		return "", err
	}
	return providers.Complete(ctx, t.Client, &providers.ChatRequest{
		Messages:    msgs,
		Model:       t.Model,
		Temperature: adaptTemperature,
		MaxTokens:   adaptMaxTokens,
		Timeout:     adaptTimeout,
		PromptKey:   key,
	})
}
