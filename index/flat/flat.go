// Package flat implements an exact inner-product similarity index over
// pre-normalized vectors.
//
// Exactness is deliberate: corpora are small enough that brute-force
// search is fast and, unlike approximate structures, returns
// deterministic, reproducible top-k results independent of build
// parameters.
package flat

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vidyalab/vidya/distance"
)

// ErrInvalidK is returned when k is not positive.
var ErrInvalidK = errors.New("k must be positive")

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// SearchResult is one (score, position) pair.
type SearchResult struct {
	Position int
	Score    float32
}

// Flat is an exact inner-product index over a row-major matrix.
// It is read-only after construction and safe for concurrent searches.
type Flat struct {
	dim  int
	rows int
	data []float32 // row-major, len rows*dim
}

// New builds a flat index over a row-major float32 matrix.
// The matrix is expected to be unit-normalized already; New does not
// normalize.
func New(data []float32, rows, dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, &ErrInvalidDimension{Dimension: dim}
	}
	if rows < 0 || len(data) != rows*dim {
		return nil, fmt.Errorf("matrix shape mismatch: %d floats for %d rows of dimension %d", len(data), rows, dim)
	}
	return &Flat{dim: dim, rows: rows, data: data}, nil
}

// FromRows builds a flat index from individual row vectors.
// All rows must share the same dimension.
func FromRows(vectors [][]float32) (*Flat, error) {
	if len(vectors) == 0 {
		return nil, &ErrInvalidDimension{Dimension: 0}
	}
	dim := len(vectors[0])
	if dim <= 0 {
		return nil, &ErrInvalidDimension{Dimension: dim}
	}
	data := make([]float32, 0, len(vectors)*dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, &ErrDimensionMismatch{Expected: dim, Actual: len(v)}
		}
		data = append(data, v...)
	}
	return New(data, len(vectors), dim)
}

// Dimension returns the vector dimensionality of the index.
func (f *Flat) Dimension() int { return f.dim }

// Rows returns the number of stored vectors.
func (f *Flat) Rows() int { return f.rows }

// Row returns the i-th stored vector.
// The returned slice aliases index memory and must be treated as read-only.
func (f *Flat) Row(i int) []float32 {
	return f.data[i*f.dim : (i+1)*f.dim]
}

// Search returns up to k (score, position) pairs in descending score
// order. Ties are broken by ascending original position, so ordering is
// stable and reproducible. Positions beyond the corpus size are never
// returned; an empty index returns nothing.
func (f *Flat) Search(query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if f.rows == 0 {
		return nil, nil
	}
	if len(query) != f.dim {
		return nil, &ErrDimensionMismatch{Expected: f.dim, Actual: len(query)}
	}

	results := make([]SearchResult, f.rows)
	for i := 0; i < f.rows; i++ {
		results[i] = SearchResult{
			Position: i,
			Score:    distance.Dot(query, f.data[i*f.dim:(i+1)*f.dim]),
		}
	}

	// A full sort keeps tie-breaking trivially correct; corpora here are
	// small enough that the O(n log n) cost is irrelevant.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Position < results[j].Position
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}
