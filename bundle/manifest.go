package bundle

import "time"

// FormatVersion is the semantic-versioned bundle format tag written to
// new bundles and to the version marker file.
const FormatVersion = "1.0.0"

// Model records which embedding model produced the bundle's vectors.
// Callers compare its name against their query-time embedder to detect
// a model mismatch, which would make every similarity score meaningless.
type Model struct {
	Name string `json:"name"`
	Dim  int    `json:"dim"`
}

// Manifest summarizes one corpus partition.
type Manifest struct {
	Class          int       `json:"class"`
	Subject        string    `json:"subject"`
	Chapter        string    `json:"chapter"`
	Language       string    `json:"language"`
	Textbook       string    `json:"textbook"`
	ChunkCount     int       `json:"chunk_count"`
	EmbeddingDim   int       `json:"embedding_dim"`
	FormatVersion  string    `json:"format_version"`
	CreatedAt      time.Time `json:"created_at"`
	HashStrategy   string    `json:"hash_strategy"`
	Codec          string    `json:"codec"`
	Checksum       string    `json:"checksum,omitempty"`
	DegenerateRows []int     `json:"degenerate_rows,omitempty"`
}
