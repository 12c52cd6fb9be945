// Package codec centralizes value encoding for disk-resident entries.
//
// Chest intentionally treats codec selection as a breaking-change boundary:
// if you change codecs, files created by older codecs may no longer decode.
package codec

import (
	"fmt"
	"io"
)

// Codec encodes/decodes values to and from streams.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Encode writes v to w. Failures are reported as *SerializationError.
	Encode(w io.Writer, v any) error
	// Decode reads a value from r into v (a non-nil pointer).
	// Failures are reported as *DeserializationError.
	Decode(r io.Reader, v any) error
	Name() string
	// Binary reports whether the codec emits binary (as opposed to text)
	// stream content.
	Binary() bool
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "gob":
		return Gob{}, true
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Default is the default codec used by the library.
var Default Codec = Gob{}

// SerializationError reports that a value could not be encoded.
//
// The underlying failure can be accessed via errors.Unwrap.
type SerializationError struct {
	Codec string
	cause error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("codec %s: encode failed: %v", e.Codec, e.cause)
}

func (e *SerializationError) Unwrap() error { return e.cause }

// DeserializationError reports that stream content could not be decoded.
//
// The underlying failure can be accessed via errors.Unwrap.
type DeserializationError struct {
	Codec string
	cause error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("codec %s: decode failed: %v", e.Codec, e.cause)
}

func (e *DeserializationError) Unwrap() error { return e.cause }

func encodeErr(name string, err error) error {
	if err == nil {
		return nil
	}
	return &SerializationError{Codec: name, cause: err}
}

func decodeErr(name string, err error) error {
	if err == nil {
		return nil
	}
	return &DeserializationError{Codec: name, cause: err}
}
