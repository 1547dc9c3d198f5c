package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the chatbot and the index builder.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Server    ServerConfig    `yaml:"server"`
	UI        UIConfig        `yaml:"ui"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IndexConfig holds the vector index location and how it is built.
type IndexConfig struct {
	Path         string   `yaml:"path"` // relative to the root directory
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	ChunkTokens  int      `yaml:"chunk_tokens"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int           `yaml:"top_k"`
	MinScore  float64       `yaml:"min_score"`  // Filter results below this score (0 = disabled)
	CacheSize int           `yaml:"cache_size"` // Repeated-question cache entries (0 = disabled)
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "huggingface", "openai", "ollama", "mock"
	Model     string `yaml:"model"`       // e.g., "sentence-transformers/all-MiniLM-L6-v2"
	BaseURL   string `yaml:"base_url"`    // empty = provider default
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// LLMConfig holds the hosted model configuration.
type LLMConfig struct {
	Provider       string  `yaml:"provider"` // "huggingface", "openai"
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	TokenEnv       string  `yaml:"token_env"` // read at call time
	Temperature    float64 `yaml:"temperature"`
	MaxNewTokens   int     `yaml:"max_new_tokens"`
	TimeoutSecs    int     `yaml:"timeout_secs"`    // 0 = bound only by the request context
	PromptTemplate string  `yaml:"prompt_template"` // optional file overriding the built-in template
}

// ServerConfig holds the web UI listener configuration.
type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// UIConfig holds the static texts of the page.
type UIConfig struct {
	Title    string `yaml:"title"`
	Greeting string `yaml:"greeting"`
	Info     string `yaml:"info"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Path:         filepath.Join("vectorstore", "db_bolt"),
			Includes:     []string{"**/*.txt", "**/*.md"},
			Excludes:     []string{"**/.git/**", "**/node_modules/**", "**/vendor/**", "vectorstore/**", ".ragchat/**"},
			ChunkTokens:  500,
			ChunkOverlap: 50,
		},
		Retrieve: RetrieveConfig{
			TopK:      3,
			CacheSize: 100,
			CacheTTL:  10 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			Provider:  "huggingface",
			Model:     "sentence-transformers/all-MiniLM-L6-v2",
			APIKeyEnv: "HF_TOKEN",
			Dimension: 384,
			BatchSize: 32,
		},
		LLM: LLMConfig{
			Provider:     "huggingface",
			Model:        "mistralai/Mistral-7B-Instruct-v0.3",
			TokenEnv:     "HF_TOKEN",
			Temperature:  0.5,
			MaxNewTokens: 512,
		},
		Server: ServerConfig{
			Addr:       ":8501",
			SessionTTL: 2 * time.Hour,
		},
		UI: UIConfig{
			Title:    "AI Chat Assistant",
			Greeting: "Hello! I'm your AI assistant. How can I help you today?",
			Info:     "Ask me anything! I can help with information from my knowledge base.",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for ragchat.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragchat.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".ragchat", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv lets deployments override the listener and log level without a file.
func (c *Config) applyEnv() {
	if v := os.Getenv("RAGCHAT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("RAGCHAT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexPath resolves the vector index location against the root directory.
func (c *Config) IndexPath(dir string) string {
	if filepath.IsAbs(c.Index.Path) {
		return c.Index.Path
	}
	return filepath.Join(dir, c.Index.Path)
}
