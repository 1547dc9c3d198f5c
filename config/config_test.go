package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Retrieve.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.Retrieve.TopK)
	}
	if cfg.LLM.Model != "mistralai/Mistral-7B-Instruct-v0.3" {
		t.Errorf("unexpected default model %s", cfg.LLM.Model)
	}
	if cfg.LLM.TokenEnv != "HF_TOKEN" {
		t.Errorf("expected TokenEnv=HF_TOKEN, got %s", cfg.LLM.TokenEnv)
	}
	if cfg.LLM.Temperature != 0.5 {
		t.Errorf("expected Temperature=0.5, got %f", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxNewTokens != 512 {
		t.Errorf("expected MaxNewTokens=512, got %d", cfg.LLM.MaxNewTokens)
	}
	if cfg.LLM.TimeoutSecs != 0 {
		t.Errorf("expected no default timeout, got %d", cfg.LLM.TimeoutSecs)
	}
	if cfg.Retrieve.CacheSize != 100 || cfg.Retrieve.CacheTTL != 10*time.Minute {
		t.Errorf("unexpected cache defaults %d/%s", cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL)
	}
	if cfg.Embedding.Dimension != 384 {
		t.Errorf("expected Dimension=384, got %d", cfg.Embedding.Dimension)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ragchat.yaml")

	content := `
retrieve:
  top_k: 5
llm:
  provider: openai
  model: gpt-4o-mini
server:
  session_ttl: 30m
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Retrieve.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Retrieve.TopK)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("unexpected llm config %+v", cfg.LLM)
	}
	if cfg.Server.SessionTTL != 30*time.Minute {
		t.Errorf("expected SessionTTL=30m, got %s", cfg.Server.SessionTTL)
	}
	// untouched sections keep their defaults
	if cfg.LLM.TokenEnv != "HF_TOKEN" {
		t.Errorf("expected default TokenEnv, got %s", cfg.LLM.TokenEnv)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ragchat.yaml")
	if err := os.WriteFile(configPath, []byte("retrieve: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".ragchat"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".ragchat", "config.yaml")

	content := `
index:
  path: data/index.db
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := filepath.Join(tmpDir, "data", "index.db")
	if got := cfg.IndexPath(tmpDir); got != expected {
		t.Errorf("expected %s, got %s", expected, got)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RAGCHAT_ADDR", ":9999")
	t.Setenv("RAGCHAT_LOG_LEVEL", "debug")

	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("expected addr :9999, got %s", cfg.Server.Addr)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %s", cfg.Logging.Level)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ragchat.yaml")
	cfg := DefaultConfig()
	cfg.UI.Title = "Medical Assistant"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.UI.Title != "Medical Assistant" {
		t.Errorf("expected saved title, got %q", loaded.UI.Title)
	}
}

func TestIndexPath_Absolute(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Index.Path = "/var/lib/ragchat/index.db"
	if got := cfg.IndexPath("/home/user/project"); got != "/var/lib/ragchat/index.db" {
		t.Errorf("expected absolute path unchanged, got %s", got)
	}
}
