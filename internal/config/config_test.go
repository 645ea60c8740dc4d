package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.APIKey != "${OPENAI_API_KEY}" {
		t.Error("expected openai API key placeholder")
	}
	if cfg.Images.SerpAPIKey != "${SERPAPI_API_KEY}" {
		t.Error("expected serpapi key placeholder")
	}
	if cfg.Images.DownloadAttempts == 0 || cfg.Images.PerQuery == 0 {
		t.Errorf("images defaults = %+v", cfg.Images)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "secret123")

		if result := ResolveEnvVars("${TEST_API_KEY}"); result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		if result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}"); result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		if result := ResolveEnvVars("literal-value"); result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})

	t.Run("expands inside a string", func(t *testing.T) {
		t.Setenv("TEST_HOST", "example.com")
		if result := ResolveEnvVars("https://${TEST_HOST}/v1"); result != "https://example.com/v1" {
			t.Errorf("got %s", result)
		}
	})
}

func TestConfig_Resolved(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-123")
	t.Setenv("TEST_SERP_KEY", "serp-456")

	cfg := DefaultConfig()
	cfg.LLM.APIKey = "${TEST_OPENAI_KEY}"
	cfg.TTS.APIKey = "direct-key"
	cfg.Images.SerpAPIKey = "${TEST_SERP_KEY}"

	got := cfg.Resolved()
	if got.LLM.APIKey != "sk-123" || got.TTS.APIKey != "direct-key" || got.Images.SerpAPIKey != "serp-456" {
		t.Errorf("resolved = %+v", got)
	}
	if cfg.LLM.APIKey != "${TEST_OPENAI_KEY}" {
		t.Error("Resolved modified the receiver")
	}
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		path := writeConfig(t, `
llm:
  model: "gpt-4o-mini"
knowledge_base:
  path: "/data/kb.yaml"
`)
		mgr, err := NewManager(path, "")
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.LLM.Model != "gpt-4o-mini" {
			t.Errorf("expected gpt-4o-mini, got %s", cfg.LLM.Model)
		}
		if cfg.KnowledgeBase.Path != "/data/kb.yaml" {
			t.Errorf("knowledge base path = %s", cfg.KnowledgeBase.Path)
		}
		// Unset keys keep their defaults.
		if cfg.TTS.Voice != "alloy" || cfg.Images.DownloadAttempts != 3 {
			t.Errorf("defaults lost: tts=%+v images=%+v", cfg.TTS, cfg.Images)
		}
		if mgr.ConfigFile() != path {
			t.Errorf("ConfigFile() = %s", mgr.ConfigFile())
		}
	})

	t.Run("missing default file uses defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())
		mgr, err := NewManager("", t.TempDir())
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if mgr.Get().LLM.Model != DefaultConfig().LLM.Model {
			t.Errorf("model = %s", mgr.Get().LLM.Model)
		}
	})

	t.Run("reads config from home dir", func(t *testing.T) {
		t.Chdir(t.TempDir())
		home := t.TempDir()
		if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte("home: /srv/lessons\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		mgr, err := NewManager("", home)
		if err != nil {
			t.Fatal(err)
		}
		if mgr.Get().Home != "/srv/lessons" {
			t.Errorf("home = %q", mgr.Get().Home)
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("LESSONKIT_LLM_MODEL", "from-env")
		t.Setenv("LESSONKIT_IMAGES_PER_QUERY", "4")
		path := writeConfig(t, "llm:\n  model: from-file\n")

		mgr, err := NewManager(path, "")
		if err != nil {
			t.Fatal(err)
		}
		cfg := mgr.Get()
		if cfg.LLM.Model != "from-env" || cfg.Images.PerQuery != 4 {
			t.Errorf("llm=%+v images=%+v", cfg.LLM, cfg.Images)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := writeConfig(t, "llm: [unclosed\n")
		if _, err := NewManager(path, ""); err == nil {
			t.Fatal("expected error for malformed config")
		}
	})
}

func TestTimeout(t *testing.T) {
	if got := Timeout(0, time.Minute); got != time.Minute {
		t.Errorf("Timeout(0) = %v", got)
	}
	if got := Timeout(5, time.Minute); got != 5*time.Second {
		t.Errorf("Timeout(5) = %v", got)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# lessonkit configuration") {
		t.Error("missing header")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config does not parse: %v", err)
	}
	if cfg.LLM.Model != DefaultConfig().LLM.Model || cfg.Images.SerpAPIKey != "${SERPAPI_API_KEY}" {
		t.Errorf("round trip = %+v", cfg)
	}

	// The written file loads through the manager.
	mgr, err := NewManager(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if mgr.Get().TTS.Model != DefaultConfig().TTS.Model {
		t.Errorf("tts model = %s", mgr.Get().TTS.Model)
	}
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "home: /tmp\n"), "")
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "home: /tmp\n"), "")
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				_ = mgr.Get().LLM.Model
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	configFile := writeConfig(t, "llm:\n  model: initial\n")

	mgr, err := NewManager(configFile, "")
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	if got := mgr.Get().LLM.Model; got != "initial" {
		t.Fatalf("initial value mismatch: %s", got)
	}

	var callbackCount atomic.Int32
	var lastValue atomic.Value
	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(cfg.LLM.Model)
	})

	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("llm:\n  model: updated\n"), 0o644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	// Wait for the watcher to detect the change (fsnotify is async)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if got := mgr.Get().LLM.Model; got != "updated" {
		t.Errorf("config not updated: got %s", got)
	}
	if v := lastValue.Load(); v != "updated" {
		t.Errorf("callback received wrong value: %v", v)
	}
}
