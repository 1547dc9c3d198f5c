package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

type stubSearch struct {
	results []domain.ScoredChunk
}

func (s *stubSearch) Search(_ context.Context, _ string, k int) ([]domain.ScoredChunk, error) {
	if k < len(s.results) {
		return s.results[:k], nil
	}
	return s.results, nil
}

func TestRetrieveUseCase_LoadsIndexOnce(t *testing.T) {
	var mu sync.Mutex
	loads := 0
	loader := func() (*Index, error) {
		mu.Lock()
		loads++
		mu.Unlock()
		return &Index{Retriever: &stubSearch{results: []domain.ScoredChunk{
			{Chunk: domain.Chunk{Text: "a", Source: "a.txt"}, Score: 0.9},
		}}}, nil
	}
	u := NewRetrieveUseCase(loader, 3, 0, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := u.Query(context.Background(), "q", 3)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, loads)
}

func TestRetrieveUseCase_FailedLoadIsRetried(t *testing.T) {
	calls := 0
	loader := func() (*Index, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("no index found")
		}
		return &Index{Retriever: &stubSearch{}}, nil
	}
	u := NewRetrieveUseCase(loader, 3, 0, zerolog.Nop())

	_, err := u.Query(context.Background(), "q", 3)
	assert.ErrorContains(t, err, "no index found")

	passages, err := u.Query(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Empty(t, passages)
	assert.Equal(t, 2, calls)
}

func TestRetrieveUseCase_DefaultKAndMinScore(t *testing.T) {
	search := &stubSearch{results: []domain.ScoredChunk{
		{Chunk: domain.Chunk{Text: "high", Source: "h.txt"}, Score: 0.9},
		{Chunk: domain.Chunk{Text: "mid", Source: "m.txt"}, Score: 0.5},
		{Chunk: domain.Chunk{Text: "low", Source: "l.txt"}, Score: 0.1},
		{Chunk: domain.Chunk{Text: "lowest", Source: "x.txt"}, Score: 0.05},
	}}
	loader := func() (*Index, error) { return &Index{Retriever: search}, nil }

	u := NewRetrieveUseCase(loader, 3, 0, zerolog.Nop())
	passages, err := u.Query(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "mid", "low"}, PassageTexts(passages))

	filtered := NewRetrieveUseCase(loader, 3, 0.3, zerolog.Nop())
	passages, err = filtered.Query(context.Background(), "q", 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "mid"}, PassageTexts(passages))
	assert.Equal(t, "m.txt", passages[1].Source)
}
