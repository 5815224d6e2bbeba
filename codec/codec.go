// Package codec centralizes metadata encoding for bundle artifacts.
//
// Codec selection is a breaking-change boundary: bundles record the codec
// name in their manifest so that a loader can refuse bytes it cannot decode.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	default:
		return nil, false
	}
}

// Default is the codec used for newly-written bundles.
var Default Codec = JSON{}
