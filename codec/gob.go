package codec

import (
	"encoding/gob"
	"io"
)

// Gob is the generic binary object serializer backed by encoding/gob.
//
// Notes:
//   - Handles typical structs/maps/slices without registration when the
//     decode target has a concrete type.
//   - Values containing funcs or channels cannot be encoded.
//   - Streams written from a concrete value cannot be decoded into an
//     interface target; stores with an interface value type should use a
//     JSON codec instead.
type Gob struct{}

// Encode writes the gob encoding of v to w.
func (Gob) Encode(w io.Writer, v any) error {
	return encodeErr("gob", gob.NewEncoder(w).Encode(v))
}

// Decode reads a gob-encoded value from r into v.
func (Gob) Decode(r io.Reader, v any) error {
	return decodeErr("gob", gob.NewDecoder(r).Decode(v))
}

// Name returns the unique name of the codec ("gob").
func (Gob) Name() string { return "gob" }

// Binary reports binary stream semantics.
func (Gob) Binary() bool { return true }
