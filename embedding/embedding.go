// Package embedding defines the text-to-vector collaborator interface.
//
// The same model must be used at bundle-build time and at query time,
// or similarity scores are meaningless. Callers compare ModelName
// against the bundle's recorded model to detect a mismatch.
package embedding

import "context"

// Service converts text into a fixed-dimension vector. Implementations
// must be deterministic for a fixed model.
type Service interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}
