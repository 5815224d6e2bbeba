// Package docstore is the authoring-time staging store: ingested chunks
// and their vectors accumulate here before being exported as an
// immutable bundle. It sits entirely outside the serve-time read path.
package docstore

import (
	"context"

	"github.com/vidyalab/vidya/chunk"
)

// Record is one staged chunk with its vector.
type Record struct {
	Chunk  chunk.Chunk
	Vector []float32
}

// Hit is one nearest-neighbor result from a staging query.
type Hit struct {
	Record Record
	Score  float32
}

// Store stages chunks during ingestion. Add is idempotent on chunk id:
// re-ingesting identical content overwrites rather than duplicates,
// which keeps repeated builds of the same corpus stable.
type Store interface {
	// Add stages records, replacing any existing record with the same
	// chunk id.
	Add(ctx context.Context, records []Record) error

	// All returns every staged record in insertion order. The order is
	// what fixes bundle row positions, so it must be deterministic.
	All(ctx context.Context) ([]Record, error)

	// Query returns the k staged records most similar to the query
	// vector. Authoring-time sanity checks only; serve-time search
	// goes through the flat index.
	Query(ctx context.Context, query []float32, k int) ([]Hit, error)

	// Count returns the number of staged records.
	Count(ctx context.Context) (int, error)

	// Clear removes all staged records.
	Clear(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
