package sections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackzampolin/lessonkit/internal/failure"
	"github.com/jackzampolin/lessonkit/internal/knowledge"
	"github.com/jackzampolin/lessonkit/internal/parse"
	"github.com/jackzampolin/lessonkit/internal/prompts"
	"github.com/jackzampolin/lessonkit/internal/providers"
)

const (
	generateTemperature = 0.7
	generateTimeout     = 120 * time.Second
	generateMaxTokens   = 4096
)

// ErrNoSections is returned when a reply carries no section headers.
var ErrNoSections = errors.New("no section headers in reply")

// Generator makes the section, slide and worksheet completion calls.
type Generator struct {
	Client  providers.LLMClient
	Prompts *prompts.Resolver
	Model   string
	Logger  *slog.Logger
}

// Request carries the lesson context shared by every generation call.
type Request struct {
	Profile           knowledge.Profile
	LessonObjective   string
	LanguageObjective map[string]string
	TargetLanguage    string
	// LessonContent is the source lesson text.
	LessonContent string
	// AdaptedContent is the rewritten lesson; sections are generated from it
	// when present.
	AdaptedContent string
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func (g *Generator) complete(ctx context.Context, key string, data any) (string, error) {
	msgs, err := g.Prompts.Messages(key, data)
	if err != nil {
		return "", err
	}
	return providers.Complete(ctx, g.Client, &providers.ChatRequest{
		Messages:    msgs,
		Model:       g.Model,
		Temperature: generateTemperature,
		MaxTokens:   generateMaxTokens,
		Timeout:     generateTimeout,
		PromptKey:   key,
	})
}

// Sections generates the twelve plan sections in one call.
func (g *Generator) Sections(ctx context.Context, req Request) (Map, error) {
	content := req.AdaptedContent
	if strings.TrimSpace(content) == "" {
		content = req.LessonContent
	}
	reply, err := g.complete(ctx, prompts.SectionsGenerate, struct {
		Profile           knowledge.Profile
		LessonObjective   string
		LanguageObjective map[string]string
		TargetLanguage    string
		LessonContent     string
	}{req.Profile, req.LessonObjective, req.LanguageObjective, req.TargetLanguage, content})
	if err != nil {
		return nil, err
	}

	m := Parse(reply)
	if len(m) == 0 {
		return nil, failure.Parsing(prompts.SectionsGenerate, reply, ErrNoSections)
	}
	if missing := m.Missing(); len(missing) > 0 {
		g.logger().Warn("sections missing from reply", "keys", missing)
	}
	g.logger().Info("sections generated", "count", len(m))
	return m, nil
}

// Slides rewrites the lesson into slide-ready paragraph chunks, then builds
// the slide list from them. The chunk bodies are returned as the processed
// paragraphs for the reference text.
func (g *Generator) Slides(ctx context.Context, req Request, m Map) ([]parse.Record, []string, error) {
	reply, err := g.complete(ctx, prompts.SlidesParagraphs, struct {
		LessonObjective   string
		LanguageObjective map[string]string
		IDoTeacher        string
		LessonContent     string
	}{req.LessonObjective, req.LanguageObjective, m.Text(IDoTeacher), req.LessonContent})
	if err != nil {
		return nil, nil, err
	}
	chunks, err := parse.Records(reply)
	if err != nil {
		return nil, nil, err
	}

	var paragraphs []string
	for _, c := range chunks {
		if s := strings.TrimSpace(c.Content); s != "" {
			paragraphs = append(paragraphs, s)
		}
	}

	reply, err = g.complete(ctx, prompts.SlidesDeck, struct {
		LessonObjective   string
		LanguageObjective map[string]string
		IntroTeacher      string
		IDoTeacher        string
		WeDoTeacher       string
		LessonContent     string
	}{req.LessonObjective, req.LanguageObjective, m.Text(IntroTeacher), m.Text(IDoTeacher), m.Text(WeDoTeacher), strings.Join(paragraphs, "\n\n")})
	if err != nil {
		return nil, nil, err
	}
	slides, err := parse.Records(reply)
	if err != nil {
		return nil, nil, err
	}

	g.logger().Info("slides generated", "slides", len(slides), "paragraphs", len(paragraphs))
	return slides, paragraphs, nil
}

// Worksheet generates the student worksheet sections.
func (g *Generator) Worksheet(ctx context.Context, req Request, m Map, slides []parse.Record) ([]parse.Record, error) {
	slidesJSON := "[]"
	if len(slides) > 0 {
		b, err := json.MarshalIndent(slides, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode slides: %w", err)
		}
		slidesJSON = string(b)
	}

	reply, err := g.complete(ctx, prompts.WorksheetStudent, struct {
		IntroStudent   string
		IDoStudent     string
		WeDoStudent    string
		YouDoStudent   string
		LessonContent  string
		SlidesJSON     string
		TargetLanguage string
	}{m.Text(IntroStudent), m.Text(IDoStudent), m.Text(WeDoStudent), m.Text(YouDoStudent), req.LessonContent, slidesJSON, req.TargetLanguage})
	if err != nil {
		return nil, err
	}
	records, err := parse.Records(reply)
	if err != nil {
		return nil, err
	}
	g.logger().Info("worksheet generated", "sections", len(records))
	return records, nil
}
