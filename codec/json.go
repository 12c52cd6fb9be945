package codec

import (
	"encoding/json"
	"io"
)

// JSON is the standard-library JSON codec (text mode).
//
// Notes:
// - JSON is stable and portable, and files remain human-inspectable.
// - Time, complex numbers, funcs, channels, etc may not be supported.
// - Numbers decode as float64 when the target is an interface.
//
// If you need custom encoding (e.g. protobuf/msgpack), implement Codec and
// pass it via the store's codec option.
type JSON struct{}

// Encode writes the JSON encoding of v to w.
func (JSON) Encode(w io.Writer, v any) error {
	return encodeErr("json", json.NewEncoder(w).Encode(v))
}

// Decode reads a JSON value from r into v.
func (JSON) Decode(r io.Reader, v any) error {
	return decodeErr("json", json.NewDecoder(r).Decode(v))
}

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Binary reports text stream semantics.
func (JSON) Binary() bool { return false }
