package config

import "time"

// Config holds lessonkit configuration.
// Stored at: {home}/config.yaml or ./config.yaml
type Config struct {
	LLM           LLMConfig           `mapstructure:"llm" yaml:"llm"`
	TTS           TTSConfig           `mapstructure:"tts" yaml:"tts"`
	Images        ImagesConfig        `mapstructure:"images" yaml:"images"`
	KnowledgeBase KnowledgeBaseConfig `mapstructure:"knowledge_base" yaml:"knowledge_base"`
	Source        SourceConfig        `mapstructure:"source" yaml:"source"`
	Prompts       PromptsConfig       `mapstructure:"prompts" yaml:"prompts"`
	// Home is the output root (default: ~/.lessonkit).
	Home string `mapstructure:"home" yaml:"home"`
}

// LLMConfig configures the completion service.
type LLMConfig struct {
	Type           string `mapstructure:"type" yaml:"type"`         // "openai", "openrouter"
	Model          string `mapstructure:"model" yaml:"model"`       // Model name
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`   // API key (supports ${ENV_VAR} syntax)
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"` // Optional OpenAI-compatible endpoint
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	// RecordCalls appends every call to {home}/logs/llm_calls.jsonl.
	RecordCalls bool `mapstructure:"record_calls" yaml:"record_calls"`
}

// TTSConfig configures narration.
type TTSConfig struct {
	Enabled        bool    `mapstructure:"enabled" yaml:"enabled"`
	Model          string  `mapstructure:"model" yaml:"model"`
	Voice          string  `mapstructure:"voice" yaml:"voice"`
	Format         string  `mapstructure:"format" yaml:"format"`
	Speed          float64 `mapstructure:"speed" yaml:"speed"`
	Instructions   string  `mapstructure:"instructions" yaml:"instructions"`
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// ImagesConfig configures image search and download.
type ImagesConfig struct {
	Enabled          bool   `mapstructure:"enabled" yaml:"enabled"`
	SerpAPIKey       string `mapstructure:"serpapi_key" yaml:"serpapi_key"`
	PerQuery         int    `mapstructure:"per_query" yaml:"per_query"`
	DownloadAttempts uint   `mapstructure:"download_attempts" yaml:"download_attempts"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// KnowledgeBaseConfig locates the profile rule table.
type KnowledgeBaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"` // JSON or YAML file
}

// SourceConfig configures lesson retrieval.
type SourceConfig struct {
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// PromptsConfig configures prompt overrides.
type PromptsConfig struct {
	// OverrideDir holds <key>.tmpl files that replace embedded prompts.
	// Empty means {home}/prompts.
	OverrideDir string `mapstructure:"override_dir" yaml:"override_dir"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Type:           "openai",
			Model:          "gpt-4o",
			APIKey:         "${OPENAI_API_KEY}",
			TimeoutSeconds: 120,
			RecordCalls:    true,
		},
		TTS: TTSConfig{
			Enabled:        true,
			Model:          "gpt-4o-mini-tts",
			Voice:          "alloy",
			Format:         "mp3",
			Speed:          1.0,
			Instructions:   "Speak slowly and clearly for a young language learner.",
			APIKey:         "${OPENAI_API_KEY}",
			TimeoutSeconds: 60,
		},
		Images: ImagesConfig{
			Enabled:          true,
			SerpAPIKey:       "${SERPAPI_API_KEY}",
			PerQuery:         1,
			DownloadAttempts: 3,
			TimeoutSeconds:   30,
		},
		KnowledgeBase: KnowledgeBaseConfig{
			Path: "knowledge_base.json",
		},
	}
}

// Timeout converts a seconds setting, falling back to def when unset.
func Timeout(seconds int, def time.Duration) time.Duration {
	if seconds <= 0 {
		return def
	}
	return time.Duration(seconds) * time.Second
}
