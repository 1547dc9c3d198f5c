package domain

import "time"

// Document is a source file fed to the index builder.
type Document struct {
	ID      string
	Path    string
	Source  string
	ModTime time.Time
}

// Chunk is the unit stored in the vector index.
type Chunk struct {
	ID        string
	DocID     string
	Source    string
	StartLine int
	EndLine   int
	Text      string
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Passage is a retrieved piece of context together with its source label.
type Passage struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a conversation log.
type Turn struct {
	Role    Role     `json:"role"`
	Content string   `json:"content"`
	Sources []string `json:"sources,omitempty"`
}

// IndexInfo describes how an on-disk index was built.
type IndexInfo struct {
	SchemaVersion  int    `json:"schema_version"`
	EmbeddingModel string `json:"embedding_model"`
	Dimension      int    `json:"dimension"`
	ConfigHash     string `json:"config_hash"`
	Chunks         int    `json:"chunks"`
}

// Sources returns the distinct source labels of passages in retrieval order.
func Sources(passages []Passage) []string {
	seen := make(map[string]struct{}, len(passages))
	var out []string
	for _, p := range passages {
		if p.Source == "" {
			continue
		}
		if _, ok := seen[p.Source]; ok {
			continue
		}
		seen[p.Source] = struct{}{}
		out = append(out, p.Source)
	}
	return out
}
