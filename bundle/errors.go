package bundle

import (
	"errors"
	"fmt"
)

// ErrEmptyCorpus is returned when the writer is given no chunks.
var ErrEmptyCorpus = errors.New("bundle: empty corpus")

// ErrShapeMismatch indicates the chunk list and vector matrix disagree
// in length. It is fatal to the build; no output directory is created.
type ErrShapeMismatch struct {
	Chunks int
	Rows   int
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("bundle: %d chunks but %d vector rows", e.Chunks, e.Rows)
}

// ErrCorruptBundle indicates a bundle directory that cannot be opened:
// a missing artifact or one whose bytes cannot be decoded.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrCorruptBundle struct {
	Artifact string
	Reason   string
	cause    error
}

func (e *ErrCorruptBundle) Error() string {
	return fmt.Sprintf("corrupt bundle: artifact %q %s", e.Artifact, e.Reason)
}

func (e *ErrCorruptBundle) Unwrap() error { return e.cause }

// ErrInconsistentBundle indicates that the positional alignment between
// ids, chunks and vector rows does not hold.
type ErrInconsistentBundle struct {
	IDs    int
	Chunks int
	Rows   int
}

func (e *ErrInconsistentBundle) Error() string {
	return fmt.Sprintf("inconsistent bundle: %d ids, %d chunks, %d vector rows", e.IDs, e.Chunks, e.Rows)
}

// ErrDimensionUnknown indicates the embedding dimension is neither
// recorded in the model metadata nor inferable from the vector buffer.
type ErrDimensionUnknown struct {
	Floats int
	IDs    int
}

func (e *ErrDimensionUnknown) Error() string {
	return fmt.Sprintf("dimension mismatch: %d floats not divisible by %d ids", e.Floats, e.IDs)
}
