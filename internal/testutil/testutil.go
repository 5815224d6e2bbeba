// Package testutil provides seeded random vector generation for tests.
package testutil

import (
	"math/rand"
	"sync"

	"github.com/vidyalab/vidya/distance"
)

// RNG encapsulates a seeded random number generator.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Float32 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// UniformVectors generates num random vectors with values in [-1, 1).
func (r *RNG) UniformVectors(num, dim int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	vectors := make([][]float32, num)
	for i := 0; i < num; i++ {
		vec := data[i*dim : (i+1)*dim]
		for j := range vec {
			vec[j] = r.rand.Float32()*2 - 1
		}
		vectors[i] = vec
	}
	return vectors
}

// UnitVectors generates num random vectors normalized to unit L2 norm.
func (r *RNG) UnitVectors(num, dim int) [][]float32 {
	vectors := r.UniformVectors(num, dim)
	for _, v := range vectors {
		if !distance.NormalizeL2InPlace(v) {
			v[0] = 1 // zero draw is astronomically unlikely, but stay deterministic
		}
	}
	return vectors
}
