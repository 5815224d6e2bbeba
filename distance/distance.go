// Package distance provides the float32 vector kernels used by the
// similarity index and the retrieval engine.
//
// All similarity in this system is inner product over unit-normalized
// vectors, which is equivalent to cosine similarity.
package distance

import (
	"math"
	"slices"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var ret float32
	for i := range a {
		ret += a[i] * b[i]
	}
	return ret
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// NormalizeL2InPlace scales v to unit L2 norm.
// A zero vector is left unchanged and false is returned; callers treat
// such vectors as degenerate rather than failing.
func NormalizeL2InPlace(v []float32) bool {
	norm2 := Dot(v, v)
	if norm2 == 0 {
		return false
	}
	inv := 1 / float32(math.Sqrt(float64(norm2)))
	for i := range v {
		v[i] *= inv
	}
	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// For a zero vector the copy is returned unmodified, with false.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	ok := NormalizeL2InPlace(dst)
	return dst, ok
}
