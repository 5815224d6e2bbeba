// Package retrieval ranks bundle chunks against a query vector and
// applies the confidence gate that turns a weak match into an explicit
// refusal rather than a misleading answer.
package retrieval

import (
	"github.com/vidyalab/vidya/bundle"
	"github.com/vidyalab/vidya/chunk"
	"github.com/vidyalab/vidya/distance"
	"github.com/vidyalab/vidya/index/flat"
)

// DefaultThreshold is the confidence gate applied when no override is
// given: if the best score falls below it, the engine refuses. The
// value encodes "an answer must be substantially similar to some corpus
// passage or it is not trustworthy".
const DefaultThreshold = 0.60

// DefaultK is the number of chunks returned when the caller passes k <= 0.
const DefaultK = 3

// Status is the outcome of one retrieval.
type Status string

const (
	// StatusOK means the top match cleared the confidence gate.
	StatusOK Status = "ok"

	// StatusRefuse means the corpus holds no sufficiently similar
	// passage. This is an expected outcome, not an error.
	StatusRefuse Status = "refuse"
)

// Item is one retrieved chunk with its rank and similarity score.
type Item struct {
	ID    string     `json:"id"`
	Rank  int        `json:"rank"`
	Score float32    `json:"score"`
	Text  string     `json:"text"`
	Hash  string     `json:"hash"`
	Meta  chunk.Meta `json:"metadata"`
}

// Result is either a refusal or an ordered item list, best match first.
type Result struct {
	Status Status `json:"status"`
	Items  []Item `json:"items,omitempty"`
}

// Options configures an Engine.
type Options struct {
	// Threshold is the minimum top-1 score required to answer.
	Threshold float32
}

// DefaultOptions are the options used when none are given.
var DefaultOptions = Options{
	Threshold: DefaultThreshold,
}

// WithThreshold overrides the confidence gate.
func WithThreshold(threshold float32) func(o *Options) {
	return func(o *Options) {
		o.Threshold = threshold
	}
}

// Engine answers query vectors against a single loaded bundle.
//
// The engine holds no mutable state, so one instance may serve
// arbitrarily many goroutines concurrently.
type Engine struct {
	bundle    *bundle.Bundle
	threshold float32
}

// New creates an Engine over an opened bundle.
func New(b *bundle.Bundle, optFns ...func(o *Options)) *Engine {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{
		bundle:    b,
		threshold: opts.Threshold,
	}
}

// Threshold returns the engine's confidence gate.
func (e *Engine) Threshold() float32 { return e.threshold }

// Retrieve ranks the corpus against query and returns the top k chunks,
// or a refusal when the best score falls below the threshold.
//
// The query is normalized on a copy; the caller's slice is never
// modified. A zero query vector is searched as-is. Identical
// (bundle, query, k) inputs always produce identical ordered results.
func (e *Engine) Retrieve(query []float32, k int) (Result, error) {
	if len(query) != e.bundle.Dim {
		return Result{}, &flat.ErrDimensionMismatch{Expected: e.bundle.Dim, Actual: len(query)}
	}
	if k <= 0 {
		k = DefaultK
	}

	q, _ := distance.NormalizeL2Copy(query)

	hits, err := e.bundle.Index.Search(q, k)
	if err != nil {
		return Result{}, err
	}
	if len(hits) == 0 || hits[0].Score < e.threshold {
		return Result{Status: StatusRefuse}, nil
	}

	items := make([]Item, len(hits))
	for rank, hit := range hits {
		c := e.bundle.Chunks[hit.Position]
		items[rank] = Item{
			ID:    c.ID,
			Rank:  rank,
			Score: hit.Score,
			Text:  c.Text,
			Hash:  c.Hash,
			Meta:  c.Meta,
		}
	}
	return Result{Status: StatusOK, Items: items}, nil
}
