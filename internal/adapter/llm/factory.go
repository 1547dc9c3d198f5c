package llm

import (
	"fmt"
	"time"

	"ragchat/config"
	"ragchat/internal/port"
)

// Options are the provider-independent client settings.
type Options struct {
	BaseURL      string
	Model        string
	TokenEnv     string
	Temperature  float64
	MaxNewTokens int
	Timeout      time.Duration // zero means no client-side timeout
}

// New builds the LLM client selected by configuration.
func New(cfg config.LLMConfig) (port.LLM, error) {
	opts := Options{
		BaseURL:      cfg.BaseURL,
		Model:        cfg.Model,
		TokenEnv:     cfg.TokenEnv,
		Temperature:  cfg.Temperature,
		MaxNewTokens: cfg.MaxNewTokens,
		Timeout:      time.Duration(cfg.TimeoutSecs) * time.Second,
	}

	switch cfg.Provider {
	case "huggingface", "":
		return NewHuggingFaceClient(opts), nil
	case "openai":
		return NewOpenAIClient(opts), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
