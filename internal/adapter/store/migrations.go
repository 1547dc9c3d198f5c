package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"ragchat/config"
	"ragchat/internal/domain"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var keyIndexInfo = []byte("index_info")

// ComputeConfigHash computes a hash of index-relevant configuration.
// Changes to this hash indicate the index should be rebuilt.
func ComputeConfigHash(cfg *config.Config) string {
	relevant := struct {
		ChunkTokens  int    `json:"chunk_tokens"`
		ChunkOverlap int    `json:"chunk_overlap"`
		EmbProvider  string `json:"emb_provider"`
		EmbModel     string `json:"emb_model"`
	}{
		ChunkTokens:  cfg.Index.ChunkTokens,
		ChunkOverlap: cfg.Index.ChunkOverlap,
		EmbProvider:  cfg.Embedding.Provider,
		EmbModel:     cfg.Embedding.Model,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// GetIndexInfo reads the build metadata. A zero SchemaVersion means the
// index was never completed.
func (s *BoltStore) GetIndexInfo() (domain.IndexInfo, error) {
	var info domain.IndexInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyIndexInfo)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &info)
	})
	return info, err
}

// SetIndexInfo records the build metadata. Written last by the builder so a
// crashed build leaves no info behind.
func (s *BoltStore) SetIndexInfo(info domain.IndexInfo) error {
	info.SchemaVersion = CurrentSchemaVersion
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyIndexInfo, data)
	})
}

// Validate checks that the index is complete, has a known schema and was
// built with the embedding model used for queries.
func (s *BoltStore) Validate(embeddingModel string, dimension int) (domain.IndexInfo, error) {
	info, err := s.GetIndexInfo()
	if err != nil {
		return info, fmt.Errorf("failed to read index info: %w", err)
	}

	switch {
	case info.SchemaVersion == 0:
		return info, fmt.Errorf("index is incomplete; run 'ragchat index' to build it")
	case info.SchemaVersion > CurrentSchemaVersion:
		return info, fmt.Errorf("index created by newer version (v%d > v%d)", info.SchemaVersion, CurrentSchemaVersion)
	case info.EmbeddingModel != embeddingModel:
		return info, fmt.Errorf("index was built with embedding model %q but queries use %q", info.EmbeddingModel, embeddingModel)
	case dimension > 0 && info.Dimension != dimension:
		return info, fmt.Errorf("index dimension %d does not match embedder dimension %d", info.Dimension, dimension)
	}

	return info, nil
}

// Clear removes all data from the database (for rebuild).
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketChunks, bucketBlobs, bucketVectors, bucketMeta} {
			if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}
