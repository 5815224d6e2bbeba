// Package conv provides checked numeric casts and the little-endian
// float32 byte layout shared by the vector buffer artifact, the index
// serialization and the staging store.
package conv

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Float32SliceToBytes encodes v as little-endian IEEE 754 bytes.
func Float32SliceToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// BytesToFloat32Slice decodes little-endian IEEE 754 bytes into float32s.
// The byte length must be a multiple of 4.
func BytesToFloat32Slice(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// IntToUint32 converts an int to uint32, failing on overflow or negatives.
func IntToUint32(v int) (uint32, error) {
	if v < 0 || int64(v) > int64(math.MaxUint32) {
		return 0, fmt.Errorf("value %d out of uint32 range", v)
	}
	return uint32(v), nil
}
