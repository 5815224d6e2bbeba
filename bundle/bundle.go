// Package bundle implements the immutable on-disk corpus package: the
// writer that exports it and the loader that validates and opens it.
//
// A bundle is created once from a validated chunk list and a row-aligned
// vector matrix, read many times, and never mutated in place. A corpus
// update produces a new bundle directory; deletion removes the whole
// directory, never a subset of its files.
package bundle

import (
	"github.com/vidyalab/vidya/chunk"
	"github.com/vidyalab/vidya/index/flat"
)

// Artifact file names inside a bundle directory.
const (
	ChunksFile   = "chunks.jsonl"
	VectorsFile  = "embeddings.bin"
	IDsFile      = "ids.json"
	IndexFile    = "index.bin"
	ModelFile    = "model.json"
	ManifestFile = "manifest.json"
	VersionFile  = "version.txt"
)

// artifacts lists every file a complete bundle must contain.
var artifacts = []string{
	ChunksFile,
	VectorsFile,
	IDsFile,
	IndexFile,
	ModelFile,
	ManifestFile,
	VersionFile,
}

// Bundle is an opened, validated corpus partition.
//
// The central invariant: row i of the vector matrix corresponds to
// IDs[i] and Chunks[i] for all i. The loader re-validates this and
// refuses to open anything that violates it. Bundles are immutable, so
// arbitrarily many concurrent readers may share one without coordination.
type Bundle struct {
	Dir      string
	Vectors  []float32 // row-major, unit-normalized
	Dim      int
	IDs      []string
	Chunks   []chunk.Chunk
	Index    *flat.Flat
	Model    Model
	Manifest Manifest
}

// Len returns the number of chunks in the bundle.
func (b *Bundle) Len() int { return len(b.IDs) }

// Row returns the i-th vector row.
// The returned slice aliases bundle memory and must be treated as read-only.
func (b *Bundle) Row(i int) []float32 {
	return b.Vectors[i*b.Dim : (i+1)*b.Dim]
}
