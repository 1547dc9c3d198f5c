package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"ragchat/internal/adapter/cache"
	"ragchat/internal/adapter/retriever"
	"ragchat/internal/adapter/store"
	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// Index is an opened, read-only vector index.
type Index struct {
	Retriever port.Retriever
	Info      domain.IndexInfo
	closer    io.Closer
}

func (i *Index) Close() error {
	if i.closer == nil {
		return nil
	}
	return i.closer.Close()
}

// IndexLoader opens the index. It is called lazily by RetrieveUseCase.
type IndexLoader func() (*Index, error)

// OpenBoltIndex returns a loader for the bbolt index at path. The index must
// have been built with the same embedding model as embedder. A non-nil
// queryCache serves repeated questions without re-embedding them.
func OpenBoltIndex(path string, embedder port.Embedder, queryCache *cache.QueryCache) IndexLoader {
	return func() (*Index, error) {
		st, err := store.OpenReadOnly(path)
		if err != nil {
			return nil, err
		}

		info, err := st.Validate(embedder.ModelName(), embedder.Dimension())
		if err != nil {
			st.Close()
			return nil, err
		}

		vectors, err := store.NewBoltVectorStore(st, info.Dimension)
		if err != nil {
			st.Close()
			return nil, err
		}

		var search port.Retriever = retriever.NewSemanticRetriever(vectors, embedder, st)
		if queryCache != nil {
			search = cache.NewCachedRetriever(search, queryCache)
		}

		return &Index{
			Retriever: search,
			Info:      info,
			closer:    st,
		}, nil
	}
}

// RetrieveUseCase answers similarity queries against the vector index.
// The index is loaded on first use and then shared for the process lifetime;
// a failed load is retried on the next query.
type RetrieveUseCase struct {
	load              IndexLoader
	defaultK          int
	minScoreThreshold float64 // Filter results below this score (0 = disabled)
	log               zerolog.Logger

	mu  sync.Mutex
	idx *Index
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(load IndexLoader, defaultK int, minScoreThreshold float64, log zerolog.Logger) *RetrieveUseCase {
	if defaultK <= 0 {
		defaultK = 3
	}
	return &RetrieveUseCase{
		load:              load,
		defaultK:          defaultK,
		minScoreThreshold: minScoreThreshold,
		log:               log,
	}
}

func (u *RetrieveUseCase) index() (*Index, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.idx != nil {
		return u.idx, nil
	}

	idx, err := u.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load vector index: %w", err)
	}
	u.log.Info().
		Int("chunks", idx.Info.Chunks).
		Str("embedding_model", idx.Info.EmbeddingModel).
		Msg("vector index loaded")
	u.idx = idx
	return idx, nil
}

// Query returns at most k passages most similar to text, best first.
// k <= 0 uses the configured default.
func (u *RetrieveUseCase) Query(ctx context.Context, text string, k int) ([]domain.Passage, error) {
	if k <= 0 {
		k = u.defaultK
	}

	idx, err := u.index()
	if err != nil {
		return nil, err
	}

	results, err := idx.Retriever.Search(ctx, text, k)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	passages := make([]domain.Passage, 0, len(results))
	for _, r := range results {
		if u.minScoreThreshold > 0 && r.Score < u.minScoreThreshold {
			continue
		}
		passages = append(passages, domain.Passage{
			Text:   r.Chunk.Text,
			Source: r.Chunk.Source,
			Score:  r.Score,
		})
	}
	return passages, nil
}

// Info reports the metadata of the loaded index, loading it if needed.
func (u *RetrieveUseCase) Info() (domain.IndexInfo, error) {
	idx, err := u.index()
	if err != nil {
		return domain.IndexInfo{}, err
	}
	return idx.Info, nil
}

// Close releases the index if it was loaded.
func (u *RetrieveUseCase) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.idx == nil {
		return nil
	}
	err := u.idx.Close()
	u.idx = nil
	return err
}

// PassageTexts extracts the text of each passage, preserving order.
func PassageTexts(passages []domain.Passage) []string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	return texts
}
