package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"ragchat/internal/domain"
)

var (
	bucketChunks = []byte("chunks")
	bucketBlobs  = []byte("blobs")
	bucketMeta   = []byte("meta")
)

// BoltStore is the on-disk vector index: chunk metadata, chunk text,
// vectors and build metadata share one bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (creating if needed) a writable index at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketChunks, bucketBlobs, bucketMeta, bucketVectors} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// OpenReadOnly opens an existing index for querying. The file must exist.
func OpenReadOnly(path string) (*BoltStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no index found at %s: %w", path, err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true, Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.View(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketChunks, bucketBlobs, bucketMeta, bucketVectors} {
			if tx.Bucket(b) == nil {
				return fmt.Errorf("index is missing bucket %s", b)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

type chunkMeta struct {
	DocID     string `json:"doc_id"`
	Source    string `json:"source"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// PutChunks stores chunk metadata and text in one transaction.
func (s *BoltStore) PutChunks(chunks []domain.Chunk) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		metaBucket := tx.Bucket(bucketChunks)
		blobBucket := tx.Bucket(bucketBlobs)
		for _, chunk := range chunks {
			data, err := json.Marshal(chunkMeta{
				DocID:     chunk.DocID,
				Source:    chunk.Source,
				StartLine: chunk.StartLine,
				EndLine:   chunk.EndLine,
			})
			if err != nil {
				return err
			}
			if err := metaBucket.Put([]byte(chunk.ID), data); err != nil {
				return err
			}
			if err := blobBucket.Put([]byte(chunk.ID), []byte(chunk.Text)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) GetChunk(id string) (domain.Chunk, error) {
	var chunk domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketChunks).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("chunk not found: %s", id)
		}
		var meta chunkMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		text := tx.Bucket(bucketBlobs).Get([]byte(id))
		chunk = domain.Chunk{
			ID:        id,
			DocID:     meta.DocID,
			Source:    meta.Source,
			StartLine: meta.StartLine,
			EndLine:   meta.EndLine,
			Text:      string(text),
		}
		return nil
	})
	return chunk, err
}

// CountChunks returns the number of stored chunks.
func (s *BoltStore) CountChunks() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketChunks).Stats().KeyN
		return nil
	})
	return n, err
}
