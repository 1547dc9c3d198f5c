package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"ragchat/internal/port"
)

var bucketVectors = []byte("vectors")

// BoltVectorStore implements port.VectorStore on top of the index file.
// Vectors are held in memory in key order; search is brute-force cosine.
type BoltVectorStore struct {
	db        *bbolt.DB
	dimension int

	mu      sync.RWMutex
	entries []vectorEntry
	byID    map[string]int
}

type vectorEntry struct {
	id       string
	vector   []float32
	metadata map[string]string
}

type storedVector struct {
	Vector   []float32         `json:"v"`
	Metadata map[string]string `json:"m,omitempty"`
}

// NewBoltVectorStore loads every stored vector of s into memory.
func NewBoltVectorStore(s *BoltStore, dimension int) (*BoltVectorStore, error) {
	vs := &BoltVectorStore{
		db:        s.db,
		dimension: dimension,
		byID:      make(map[string]int),
	}
	if err := vs.loadVectors(); err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}
	return vs, nil
}

func (s *BoltVectorStore) loadVectors() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("corrupted vector %s: %w", k, err)
			}
			if len(stored.Vector) != s.dimension {
				return fmt.Errorf("vector %s has dimension %d, expected %d", k, len(stored.Vector), s.dimension)
			}
			s.byID[string(k)] = len(s.entries)
			s.entries = append(s.entries, vectorEntry{
				id:       string(k),
				vector:   stored.Vector,
				metadata: stored.Metadata,
			})
			return nil
		})
	})
}

// Upsert adds or updates vectors in the store.
func (s *BoltVectorStore) Upsert(items []port.VectorItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return fmt.Errorf("vectors bucket not found")
		}

		for _, item := range items {
			if len(item.Vector) != s.dimension {
				return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.dimension, len(item.Vector))
			}

			data, err := json.Marshal(storedVector{Vector: item.Vector, Metadata: item.Metadata})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(item.ID), data); err != nil {
				return err
			}

			entry := vectorEntry{id: item.ID, vector: item.Vector, metadata: item.Metadata}
			if i, ok := s.byID[item.ID]; ok {
				s.entries[i] = entry
			} else {
				s.byID[item.ID] = len(s.entries)
				s.entries = append(s.entries, entry)
			}
		}

		return nil
	})
}

// Search finds the k nearest vectors to the query using cosine similarity.
// Equal scores keep insertion order.
func (s *BoltVectorStore) Search(query []float32, k int) ([]port.VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(query) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(query))
	}
	if len(s.entries) == 0 || k <= 0 {
		return nil, nil
	}

	results := make([]port.VectorResult, len(s.entries))
	for i, entry := range s.entries {
		results[i] = port.VectorResult{
			ID:       entry.id,
			Score:    cosineSimilarity(query, entry.vector),
			Metadata: entry.metadata,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Count returns the number of vectors in the store.
func (s *BoltVectorStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
