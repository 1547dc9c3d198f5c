package embedding

import (
	"fmt"

	"ragchat/config"
	"ragchat/internal/port"
)

// New builds the embedder selected by configuration.
func New(cfg config.EmbeddingConfig) (port.Embedder, error) {
	switch cfg.Provider {
	case "huggingface", "":
		return NewHuggingFaceEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL, cfg.Dimension), nil
	case "openai":
		return NewOpenAICompatibleEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL)
	case "ollama":
		return NewOllamaEmbedder(cfg.Model, cfg.BaseURL)
	case "mock":
		return NewMockEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
