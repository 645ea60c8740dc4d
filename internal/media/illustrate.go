package media

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackzampolin/lessonkit/internal/failure"
	"github.com/jackzampolin/lessonkit/internal/parse"
	"github.com/jackzampolin/lessonkit/internal/prompts"
	"github.com/jackzampolin/lessonkit/internal/providers"
)

const (
	topicsTemperature = 0.5
	topicsTimeout     = 30 * time.Second
	topicsMaxTokens   = 256
)

// Illustrator finds and downloads images for lesson text.
type Illustrator struct {
	Searcher ImageSearcher
	Fetcher  Fetcher
	// Client and Prompts suggest topics when the text has no image directives.
	Client   providers.LLMClient
	Prompts  *prompts.Resolver
	Model    string
	PerQuery int
	Logger   *slog.Logger
}

// Illustrate resolves image directives in text. Each directive's description
// is searched and its first usable image replaces the directive. Without
// directives the model suggests topics and the results are appended. Searches
// with no results and failed downloads leave their directive in place.
func (il *Illustrator) Illustrate(ctx context.Context, text string, rules []string) (string, []string, error) {
	logger := il.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if !RuleActive(rules, Image) {
		logger.Info("no visual rule, skipping images")
		return text, []string{}, nil
	}

	var queries []Target
	if directives := FindDirectives(text, Image); len(directives) > 0 {
		for _, d := range directives {
			if d.Description != "" {
				queries = append(queries, Target{Text: d.Description, Slot: d.Slot})
			}
		}
	} else {
		topics, err := il.topics(ctx, text, rules)
		if err != nil {
			return "", nil, err
		}
		for _, t := range topics {
			queries = append(queries, Target{Text: t, Slot: NoSlot})
		}
	}

	perQuery := il.PerQuery
	if perQuery < 1 {
		perQuery = 1
	}

	var artifacts []Artifact
	paths := []string{}
	for _, q := range queries {
		urls, err := il.Searcher.Search(ctx, q.Text, perQuery)
		if err != nil {
			if failure.IsFatal(err) {
				return "", nil, err
			}
			logger.Warn("image search failed, skipping", "query", q.Text, "error", err)
			continue
		}
		if len(urls) == 0 {
			logger.Info("no images found", "query", q.Text)
			continue
		}

		for _, u := range urls {
			path, err := il.Fetcher.Fetch(ctx, u)
			if err != nil {
				if failure.IsFatal(err) {
					return "", nil, err
				}
				logger.Warn("image download failed, skipping", "url", u, "error", err)
				continue
			}
			artifacts = append(artifacts, Artifact{Path: path, Slot: q.Slot})
			paths = append(paths, path)
			// A directive takes one image; extras are appended by Resolve.
			q.Slot = NoSlot
		}
	}

	logger.Info("images fetched", "queries", len(queries), "files", len(paths))
	return Resolve(text, Image, rules, artifacts), paths, nil
}

func (il *Illustrator) topics(ctx context.Context, text string, rules []string) ([]string, error) {
	msgs, err := il.Prompts.Messages(prompts.MediaVisualTopics, struct {
		Text  string
		Rules []string
	}{text, rules})
	if err != nil {
		return nil, err
	}
	reply, err := providers.Complete(ctx, il.Client, &providers.ChatRequest{
		Messages:    msgs,
		Model:       il.Model,
		Temperature: topicsTemperature,
		MaxTokens:   topicsMaxTokens,
		Timeout:     topicsTimeout,
		PromptKey:   prompts.MediaVisualTopics,
	})
	if err != nil {
		return nil, err
	}
	return parse.StringList(reply)
}
