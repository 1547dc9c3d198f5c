package port

import (
	"context"

	"ragchat/internal/domain"
)

// Retriever defines the interface for searching indexed content.
type Retriever interface {
	// Search searches for chunks matching the query and returns top-k results.
	Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)
}

// ChunkReader resolves chunk IDs returned by a vector search.
type ChunkReader interface {
	GetChunk(id string) (domain.Chunk, error)
}
