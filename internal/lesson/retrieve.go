package lesson

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"strings"

	"github.com/gocolly/colly/v2"

	"github.com/jackzampolin/lessonkit/internal/failure"
)

// ErrEmptySource is returned when a source yields no text.
var ErrEmptySource = errors.New("lesson source has no text")

// Retriever resolves a lesson source reference to raw lesson text.
type Retriever interface {
	Retrieve(ctx context.Context, ref string) (string, error)
}

// SourceRetriever fetches http(s) references over the network and reads
// anything else from the local filesystem.
type SourceRetriever struct {
	UserAgent string
	Logger    *slog.Logger
}

// Retrieve returns the lesson text for ref. HTML pages contribute their
// paragraph text in document order, one paragraph per line; plain-text bodies
// are returned as-is.
func (r *SourceRetriever) Retrieve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", failure.Retrieval("retrieve-lesson", errors.New("empty lesson source reference"))
	}

	var (
		text string
		err  error
	)
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		text, err = r.fetch(ctx, ref)
	default:
		text, err = readFile(strings.TrimPrefix(ref, "file://"))
	}
	if err != nil {
		return "", failure.Retrieval("retrieve-lesson", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", failure.Retrieval("retrieve-lesson", fmt.Errorf("%s: %w", ref, ErrEmptySource))
	}

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("lesson retrieved", "source", ref, "paragraphs", len(SplitParagraphs(text)))
	return text, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read lesson: %w", err)
	}
	return string(data), nil
}

func (r *SourceRetriever) fetch(ctx context.Context, url string) (string, error) {
	opts := []colly.CollectorOption{
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	}
	if r.UserAgent != "" {
		opts = append(opts, colly.UserAgent(r.UserAgent))
	}
	c := colly.NewCollector(opts...)

	var (
		paragraphs []string
		plain      string
	)
	c.OnResponse(func(resp *colly.Response) {
		mediaType, _, _ := mime.ParseMediaType(resp.Headers.Get("Content-Type"))
		if mediaType == "text/plain" {
			plain = string(resp.Body)
		}
	})
	c.OnHTML("p", func(e *colly.HTMLElement) {
		if t := strings.TrimSpace(e.Text); t != "" {
			paragraphs = append(paragraphs, t)
		}
	})

	if err := c.Visit(url); err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	if plain != "" {
		return plain, nil
	}
	return strings.Join(paragraphs, "\n"), nil
}

// StaticRetriever returns fixed text for any reference.
type StaticRetriever string

// Retrieve implements Retriever.
func (s StaticRetriever) Retrieve(context.Context, string) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", failure.Retrieval("retrieve-lesson", ErrEmptySource)
	}
	return string(s), nil
}
