// Package llm defines the text-generation collaborator interface. The
// generator is treated as opaque and unreliable: it may be slow, fail,
// or ignore the requested output contract, so its output always passes
// through the grounding validator before reaching a user.
package llm

import "context"

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
}
