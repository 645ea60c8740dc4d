package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jackzampolin/lessonkit/internal/failure"
)

// ImageSearcher finds image URLs for a query. Zero results is not an error.
type ImageSearcher interface {
	Search(ctx context.Context, query string, count int) ([]string, error)
}

const (
	SerpAPIBaseURL  = "https://serpapi.com/search.json"
	serpAPITimeout  = 30 * time.Second
	serpAPILocation = "United States"
)

var ErrMissingSerpAPIKey = errors.New("serpapi key not configured")

// SerpAPISearcher searches Google Images through SerpAPI.
type SerpAPISearcher struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewSerpAPISearcher creates a searcher with default endpoint and timeout.
func NewSerpAPISearcher(apiKey string) *SerpAPISearcher {
	return &SerpAPISearcher{
		APIKey:     apiKey,
		BaseURL:    SerpAPIBaseURL,
		HTTPClient: &http.Client{Timeout: serpAPITimeout},
	}
}

// Search returns up to count original image URLs for query. Failures are
// skippable retrieval errors.
func (s *SerpAPISearcher) Search(ctx context.Context, query string, count int) ([]string, error) {
	if s.APIKey == "" {
		return nil, failure.SkippableRetrieval("image-search", ErrMissingSerpAPIKey)
	}
	if count < 1 {
		count = 1
	}

	params := url.Values{}
	params.Set("engine", "google_images")
	params.Set("q", query)
	params.Set("location", serpAPILocation)
	params.Set("num", strconv.Itoa(count))
	params.Set("api_key", s.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, failure.SkippableRetrieval("image-search", err)
	}
	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, failure.SkippableRetrieval("image-search", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.SkippableRetrieval("image-search", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error").String()
		return nil, failure.SkippableRetrieval("image-search", fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}
	if !gjson.ValidBytes(body) {
		return nil, failure.SkippableRetrieval("image-search", errors.New("invalid JSON response"))
	}

	var urls []string
	for _, u := range gjson.GetBytes(body, "images_results.#.original").Array() {
		if u.String() == "" {
			continue
		}
		urls = append(urls, u.String())
		if len(urls) == count {
			break
		}
	}
	return urls, nil
}
