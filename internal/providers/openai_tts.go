package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	openAITTSDefaultModel   = "gpt-4o-mini-tts"
	openAITTSDefaultVoice   = "alloy"
	openAITTSDefaultFormat  = "mp3"
	openAITTSDefaultTimeout = 60 * time.Second
)

var (
	ErrEmptyNarration = errors.New("narration text is empty")
	ErrEmptyAudio     = errors.New("speech endpoint returned no audio")
)

// speechFormats maps accepted format names to the API's response formats.
// Anything else falls back to mp3.
var speechFormats = map[string]openai.AudioSpeechNewParamsResponseFormat{
	"mp3":  openai.AudioSpeechNewParamsResponseFormatMP3,
	"opus": openai.AudioSpeechNewParamsResponseFormatOpus,
	"aac":  openai.AudioSpeechNewParamsResponseFormatAAC,
	"flac": openai.AudioSpeechNewParamsResponseFormatFLAC,
	"wav":  openai.AudioSpeechNewParamsResponseFormatWAV,
}

// OpenAITTSConfig holds configuration for the narration client.
type OpenAITTSConfig struct {
	APIKey string
	Model  string // "gpt-4o-mini-tts" (default), "tts-1", "tts-1-hd"
	Voice  string
	Format string
	Speed  float64 // 0.25-4.0, default 1
	// Instructions steer delivery; only gpt-4o-mini-tts models accept them.
	Instructions string
	Timeout      time.Duration // per request
	BaseURL      string        // Optional (tests)
	HTTPClient   *http.Client  // Optional (tests)
}

// OpenAITTSClient synthesizes narration with the OpenAI speech endpoint.
// Like the chat client, SDK retries are off.
type OpenAITTSClient struct {
	cfg    OpenAITTSConfig
	client openai.Client
}

// NewOpenAITTSClient creates a new narration client.
func NewOpenAITTSClient(cfg OpenAITTSConfig) *OpenAITTSClient {
	if cfg.Model == "" {
		cfg.Model = openAITTSDefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = openAITTSDefaultVoice
	}
	if cfg.Format == "" {
		cfg.Format = openAITTSDefaultFormat
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1.0
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = openAITTSDefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAITTSClient{cfg: cfg, client: openai.NewClient(opts...)}
}

// Name returns the provider identifier.
func (c *OpenAITTSClient) Name() string {
	return OpenAIName
}

// Generate synthesizes req.Text. Request fields override the client's
// configured voice, format and instructions. On failure the result is still
// returned with ErrorMessage set.
func (c *OpenAITTSClient) Generate(ctx context.Context, req *TTSRequest) (*TTSResult, error) {
	start := time.Now()
	result := &TTSResult{}
	fail := func(err error) (*TTSResult, error) {
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	if req == nil || strings.TrimSpace(req.Text) == "" {
		return fail(ErrEmptyNarration)
	}
	text := strings.TrimSpace(req.Text)
	result.CharCount = len(text)

	name, format := speechFormat(firstNonEmpty(req.Format, c.cfg.Format))
	result.Format = name
	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(c.cfg.Model),
		Voice:          openai.AudioSpeechNewParamsVoice(firstNonEmpty(req.Voice, c.cfg.Voice)),
		ResponseFormat: format,
		Speed:          openai.Float(c.cfg.Speed),
	}
	if instr := firstNonEmpty(req.Instructions, c.cfg.Instructions); instr != "" && acceptsInstructions(c.cfg.Model) {
		params.Instructions = openai.String(instr)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return fail(mapOpenAIError("openai tts", err))
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(fmt.Errorf("read speech response: %w", err))
	}
	if len(audio) == 0 {
		return fail(ErrEmptyAudio)
	}

	result.Success = true
	result.Audio = audio
	result.ExecutionTime = time.Since(start)
	return result, nil
}

// speechFormat returns the normalized format name and its API value.
func speechFormat(name string) (string, openai.AudioSpeechNewParamsResponseFormat) {
	name = strings.ToLower(strings.TrimSpace(name))
	if f, ok := speechFormats[name]; ok {
		return name, f
	}
	return openAITTSDefaultFormat, speechFormats[openAITTSDefaultFormat]
}

func acceptsInstructions(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-4o-mini-tts")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var _ TTSProvider = (*OpenAITTSClient)(nil)
