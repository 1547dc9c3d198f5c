package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ragchat/internal/adapter/fs"
	"ragchat/internal/adapter/store"
	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// ProgressFunc reports how many chunks have been embedded out of total.
type ProgressFunc func(done, total int)

// IndexUseCase builds the on-disk vector index from a directory of text files.
type IndexUseCase struct {
	walker    port.FileWalker
	chunker   port.Chunker
	embedder  port.Embedder
	batchSize int
	log       zerolog.Logger
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(
	walker port.FileWalker,
	chunker port.Chunker,
	embedder port.Embedder,
	batchSize int,
	log zerolog.Logger,
) *IndexUseCase {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &IndexUseCase{
		walker:    walker,
		chunker:   chunker,
		embedder:  embedder,
		batchSize: batchSize,
		log:       log,
	}
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	FilesIndexed  int
	FilesSkipped  int
	ChunksCreated int
	Errors        []string
}

// Build replaces the contents of st with an index of the files under root.
// Index info is written last, so an interrupted build leaves an index that
// fails validation instead of a partial one that loads.
func (u *IndexUseCase) Build(ctx context.Context, root string, st *store.BoltStore, configHash string, progress ProgressFunc) (*IndexResult, error) {
	result := &IndexResult{}

	if err := st.Clear(); err != nil {
		return nil, fmt.Errorf("failed to clear index: %w", err)
	}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	var chunks []domain.Chunk
	for _, file := range files {
		fileChunks, err := u.chunkFile(file)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to index %s: %v", file.RelPath, err))
			continue
		}
		if len(fileChunks) == 0 {
			result.FilesSkipped++
			continue
		}
		chunks = append(chunks, fileChunks...)
		result.FilesIndexed++
	}

	if err := st.PutChunks(chunks); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	vectors, err := store.NewBoltVectorStore(st, u.embedder.Dimension())
	if err != nil {
		return nil, err
	}

	for start := 0; start < len(chunks); start += u.batchSize {
		end := start + u.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := u.embedBatch(ctx, vectors, chunks[start:end]); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(end, len(chunks))
		}
	}

	if len(chunks) == 0 {
		u.log.Warn().Str("root", root).Msg("no text found to index")
	}

	err = st.SetIndexInfo(domain.IndexInfo{
		EmbeddingModel: u.embedder.ModelName(),
		Dimension:      u.embedder.Dimension(),
		ConfigHash:     configHash,
		Chunks:         len(chunks),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write index info: %w", err)
	}

	result.ChunksCreated = len(chunks)
	return result, nil
}

func (u *IndexUseCase) chunkFile(file port.FileInfo) ([]domain.Chunk, error) {
	content, err := fs.ReadFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	doc := domain.Document{
		ID:      generateDocID(file.RelPath),
		Path:    file.Path,
		Source:  file.RelPath,
		ModTime: time.Unix(file.ModTime, 0),
	}

	chunks, err := u.chunker.Chunk(doc, content)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk content: %w", err)
	}
	return chunks, nil
}

func (u *IndexUseCase) embedBatch(ctx context.Context, vectors port.VectorStore, batch []domain.Chunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	embeddings, err := u.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(batch))
	}

	items := make([]port.VectorItem, len(batch))
	for i, c := range batch {
		items[i] = port.VectorItem{
			ID:       c.ID,
			Vector:   embeddings[i],
			Metadata: map[string]string{"source": c.Source},
		}
	}
	if err := vectors.Upsert(items); err != nil {
		return fmt.Errorf("failed to store vectors: %w", err)
	}
	return nil
}

// generateDocID creates a stable ID for a document from its source label.
func generateDocID(source string) string {
	hash := sha256.Sum256([]byte(source))
	return hex.EncodeToString(hash[:8])
}
