package cli

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"ragchat/config"
	"ragchat/internal/adapter/cache"
	"ragchat/internal/adapter/embedding"
	"ragchat/internal/adapter/llm"
	"ragchat/internal/session"
	"ragchat/internal/usecase"
)

// app is the wired chat pipeline shared by serve, ask and chat.
type app struct {
	chat     *usecase.ChatService
	retrieve *usecase.RetrieveUseCase
	composer *usecase.Composer
	model    string
}

func newApp(cfg *config.Config, dir string, log zerolog.Logger) (*app, error) {
	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	answerer, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	templatePath := cfg.LLM.PromptTemplate
	if templatePath != "" && !filepath.IsAbs(templatePath) {
		templatePath = filepath.Join(dir, templatePath)
	}
	composer, err := usecase.LoadComposer(templatePath)
	if err != nil {
		return nil, err
	}

	var queryCache *cache.QueryCache
	if cfg.Retrieve.CacheSize > 0 {
		queryCache = cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL)
	}

	retrieve := usecase.NewRetrieveUseCase(
		usecase.OpenBoltIndex(cfg.IndexPath(dir), embedder, queryCache),
		cfg.Retrieve.TopK,
		cfg.Retrieve.MinScore,
		log,
	)

	chat := usecase.NewChatService(retrieve, composer, answerer, session.NewRegistry(), cfg.Retrieve.TopK, log)

	return &app{
		chat:     chat,
		retrieve: retrieve,
		composer: composer,
		model:    answerer.ModelName(),
	}, nil
}

func (a *app) Close() error {
	return a.retrieve.Close()
}
