// Package jobcfg builds pipeline dependencies from configuration. Settings are
// read each time a run is built, so a reloaded config applies to the next run
// without a restart.
package jobcfg

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackzampolin/lessonkit/internal/config"
	"github.com/jackzampolin/lessonkit/internal/failure"
	"github.com/jackzampolin/lessonkit/internal/home"
	"github.com/jackzampolin/lessonkit/internal/knowledge"
	"github.com/jackzampolin/lessonkit/internal/lesson"
	"github.com/jackzampolin/lessonkit/internal/llmcall"
	"github.com/jackzampolin/lessonkit/internal/media"
	"github.com/jackzampolin/lessonkit/internal/pipeline/stages"
	"github.com/jackzampolin/lessonkit/internal/prompts"
	"github.com/jackzampolin/lessonkit/internal/providers"
	"github.com/jackzampolin/lessonkit/internal/render"
	"github.com/jackzampolin/lessonkit/internal/rules"
	"github.com/jackzampolin/lessonkit/internal/sections"
)

const (
	defaultLLMTimeout    = 120 * time.Second
	defaultTTSTimeout    = 60 * time.Second
	defaultImagesTimeout = 30 * time.Second
)

var (
	ErrUnknownLLMType = errors.New("unknown llm type")
	ErrMissingAPIKey  = errors.New("llm api_key is empty")
)

// Builder turns a Config into the collaborators a pipeline run needs.
type Builder struct {
	config *config.Config
	home   *home.Dir
	logger *slog.Logger

	// Overrides for the configured services, used by tests.
	LLM      providers.LLMClient
	TTS      media.Synthesizer
	Searcher media.ImageSearcher
}

// NewBuilder creates a builder. ${ENV_VAR} references in cfg are expanded
// here.
func NewBuilder(cfg *config.Config, h *home.Dir, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{config: cfg.Resolved(), home: h, logger: logger}
}

// CallStore returns the LLM call log.
func (b *Builder) CallStore() *llmcall.Store {
	return llmcall.NewStore(b.home.CallLogPath())
}

// Prompts returns a resolver reading overrides from the configured directory.
func (b *Builder) Prompts() (*prompts.Resolver, error) {
	dir := b.config.Prompts.OverrideDir
	if dir == "" {
		dir = b.home.PromptsPath()
	}
	return prompts.NewDefaultResolver(dir, b.logger)
}

// LLMClient returns the completion client, wrapped in a call recorder when
// record_calls is on.
func (b *Builder) LLMClient(resolver *prompts.Resolver) (providers.LLMClient, error) {
	cfg := b.config.LLM
	client := b.LLM
	if client == nil {
		if cfg.APIKey == "" {
			return nil, failure.Configuration("llm", ErrMissingAPIKey)
		}
		oc := providers.OpenAIConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
			Timeout:      config.Timeout(cfg.TimeoutSeconds, defaultLLMTimeout),
			BaseURL:      cfg.BaseURL,
		}
		switch cfg.Type {
		case "", providers.OpenAIName:
		case providers.OpenRouterName:
			oc.Name = providers.OpenRouterName
			if oc.BaseURL == "" {
				oc.BaseURL = providers.OpenRouterBaseURL
			}
		default:
			return nil, failure.Configuration("llm", fmt.Errorf("%w: %q", ErrUnknownLLMType, cfg.Type))
		}
		client = providers.NewOpenAIClient(oc)
	}

	if cfg.RecordCalls {
		return llmcall.NewRecorder(client, b.CallStore(), resolver, b.logger), nil
	}
	return client, nil
}

// Deps builds every stage collaborator. Narration and images are left nil
// when disabled or when their API key is missing; their stages then pass the
// text through.
func (b *Builder) Deps() (*stages.Deps, error) {
	if err := b.home.EnsureExists(); err != nil {
		return nil, err
	}
	resolver, err := b.Prompts()
	if err != nil {
		return nil, err
	}
	client, err := b.LLMClient(resolver)
	if err != nil {
		return nil, err
	}
	model := b.config.LLM.Model

	return &stages.Deps{
		Rules: &rules.Service{
			Extractor: &knowledge.Extractor{Path: b.config.KnowledgeBase.Path},
			Cleaner:   &rules.Cleaner{Client: client, Prompts: resolver, Model: model, Logger: b.logger},
		},
		Retriever:   &lesson.SourceRetriever{UserAgent: b.config.Source.UserAgent, Logger: b.logger},
		Transformer: &lesson.Transformer{Client: client, Prompts: resolver, Model: model, Logger: b.logger},
		Narrator:    b.narrator(),
		Illustrator: b.illustrator(client, resolver),
		Generator:   &sections.Generator{Client: client, Prompts: resolver, Model: model, Logger: b.logger},
		Renderer:    render.New(b.home, b.logger),
		Logger:      b.logger,
	}, nil
}

func (b *Builder) narrator() *media.Narrator {
	cfg := b.config.TTS
	if !cfg.Enabled {
		b.logger.Info("narration disabled")
		return nil
	}
	tts := b.TTS
	if tts == nil {
		if cfg.APIKey == "" {
			b.logger.Warn("tts api_key is empty, narration disabled")
			return nil
		}
		tts = providers.NewOpenAITTSClient(providers.OpenAITTSConfig{
			APIKey:       cfg.APIKey,
			Model:        cfg.Model,
			Voice:        cfg.Voice,
			Format:       cfg.Format,
			Speed:        cfg.Speed,
			Instructions: cfg.Instructions,
			Timeout:      config.Timeout(cfg.TimeoutSeconds, defaultTTSTimeout),
		})
	}
	return &media.Narrator{
		TTS:          tts,
		Dir:          b.home.Output(home.AudioDir),
		Voice:        cfg.Voice,
		Format:       cfg.Format,
		Instructions: cfg.Instructions,
		Logger:       b.logger,
	}
}

func (b *Builder) illustrator(client providers.LLMClient, resolver *prompts.Resolver) *media.Illustrator {
	cfg := b.config.Images
	if !cfg.Enabled {
		b.logger.Info("images disabled")
		return nil
	}
	timeout := config.Timeout(cfg.TimeoutSeconds, defaultImagesTimeout)

	searcher := b.Searcher
	if searcher == nil {
		if cfg.SerpAPIKey == "" {
			b.logger.Warn("images serpapi_key is empty, images disabled")
			return nil
		}
		s := media.NewSerpAPISearcher(cfg.SerpAPIKey)
		s.HTTPClient = &http.Client{Timeout: timeout}
		searcher = s
	}

	fetcher := media.NewHTTPFetcher(b.home.Output(home.ImagesDir), cfg.DownloadAttempts)
	fetcher.HTTPClient = &http.Client{Timeout: timeout}
	if ua := b.config.Source.UserAgent; ua != "" {
		fetcher.UserAgent = ua
	}

	return &media.Illustrator{
		Searcher: searcher,
		Fetcher:  fetcher,
		Client:   client,
		Prompts:  resolver,
		Model:    b.config.LLM.Model,
		PerQuery: cfg.PerQuery,
		Logger:   b.logger,
	}
}
