package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/jackzampolin/lessonkit/internal/failure"
)

// Fetcher materializes a media URL as a local file and returns its path.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

const (
	defaultFetchAttempts = 3
	defaultFetchDelay    = 500 * time.Millisecond
	defaultFetchTimeout  = 10 * time.Second
	maxImageBytes        = 20 << 20
)

var ErrNotImage = errors.New("response is not an image")

// HTTPFetcher downloads images into Dir with a bounded number of attempts.
// Client errors (4xx) and non-image bodies are not retried.
type HTTPFetcher struct {
	Dir        string
	Attempts   uint
	Delay      time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// NewHTTPFetcher creates a fetcher writing into dir.
func NewHTTPFetcher(dir string, attempts uint) *HTTPFetcher {
	if attempts == 0 {
		attempts = defaultFetchAttempts
	}
	return &HTTPFetcher{
		Dir:        dir,
		Attempts:   attempts,
		Delay:      defaultFetchDelay,
		UserAgent:  "Mozilla/5.0",
		HTTPClient: &http.Client{Timeout: defaultFetchTimeout},
	}
}

var imageExtensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// Fetch downloads url. Any failure is a skippable retrieval error.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var (
		body []byte
		ext  string
	)
	attempts := f.Attempts
	if attempts == 0 {
		attempts = defaultFetchAttempts
	}

	err := retry.Do(
		func() error {
			var err error
			body, ext, err = f.download(ctx, url)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(f.Delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", failure.SkippableRetrieval("image-fetch", fmt.Errorf("%s: %w", url, err))
	}

	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	path := filepath.Join(f.Dir, "image_"+strings.ReplaceAll(uuid.NewString(), "-", "")+ext)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}

func (f *HTTPFetcher) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", retry.Unrecoverable(err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, "", retry.Unrecoverable(fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", err
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(body))
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, "", retry.Unrecoverable(fmt.Errorf("%w: %s", ErrNotImage, mediaType))
	}
	ext, ok := imageExtensions[mediaType]
	if !ok {
		ext = ".jpg"
	}
	return body, ext, nil
}
