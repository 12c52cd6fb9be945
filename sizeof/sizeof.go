// Package sizeof estimates the resident byte footprint of arbitrary values.
//
// Estimates drive the store's eviction decisions; they need to be cheap and
// roughly proportional to real memory use, not exact. A registry of
// (predicate, estimator) pairs handles container/buffer types whose footprint
// the generic reflection walk would badly underestimate.
package sizeof

import (
	"reflect"
	"sync"
)

// fallbackSize is returned when nothing better can be computed. Estimation
// must never fail for a value the store accepts.
const fallbackSize = 64

// mapEntryOverhead approximates per-entry bucket cost of a Go map.
const mapEntryOverhead = 16

// maxDepth bounds recursion through pointers and interfaces.
const maxDepth = 8

// EstimatorFunc computes the approximate byte size of a value.
type EstimatorFunc func(v any) int64

// MatchFunc reports whether an estimator applies to a value.
type MatchFunc func(v any) bool

type registration struct {
	match MatchFunc
	fn    EstimatorFunc
}

// Registry resolves value sizes. Registered estimators are consulted in
// registration order, first match wins, with a generic reflection-based
// fallback last. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries []registration
}

// New creates a Registry with fast paths for string and []byte pre-registered.
func New() *Registry {
	r := &Registry{}
	r.Register(
		func(v any) bool { _, ok := v.(string); return ok },
		func(v any) int64 { return int64(len(v.(string))) + int64(stringHeaderSize) },
	)
	r.Register(
		func(v any) bool { _, ok := v.([]byte); return ok },
		func(v any) int64 { return int64(cap(v.([]byte))) + int64(sliceHeaderSize) },
	)
	return r
}

// Default is the registry used by stores unless configured otherwise.
var Default = New()

// Register appends an estimator consulted before the generic fallback.
func (r *Registry) Register(match MatchFunc, fn EstimatorFunc) {
	if match == nil || fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, registration{match: match, fn: fn})
}

// Estimate returns the approximate byte size of v. It never panics and never
// returns a negative number.
func (r *Registry) Estimate(v any) (size int64) {
	defer func() {
		if recover() != nil {
			size = fallbackSize
		}
	}()

	r.mu.RLock()
	entries := r.entries
	r.mu.RUnlock()

	for _, e := range entries {
		if e.match(v) {
			if n := e.fn(v); n > 0 {
				return n
			}
			return 0
		}
	}
	return generic(v)
}

var (
	stringHeaderSize = int(reflect.TypeOf("").Size())
	sliceHeaderSize  = int(reflect.TypeOf([]byte(nil)).Size())
	ifaceSize        = int64(reflect.TypeOf((*any)(nil)).Elem().Size())
)

func generic(v any) int64 {
	if v == nil {
		return ifaceSize
	}
	return ifaceSize + valueSize(reflect.ValueOf(v), 0)
}

// valueSize returns the footprint of rv: its inline representation plus
// whatever it points at, up to maxDepth indirections.
func valueSize(rv reflect.Value, depth int) int64 {
	t := rv.Type()
	n := int64(t.Size())
	if depth >= maxDepth {
		return n
	}

	switch rv.Kind() {
	case reflect.String:
		n += int64(rv.Len())
	case reflect.Slice:
		if rv.IsNil() {
			break
		}
		elem := t.Elem()
		if isInline(elem.Kind()) {
			n += int64(rv.Cap()) * int64(elem.Size())
			break
		}
		n += int64(rv.Cap()-rv.Len()) * int64(elem.Size())
		for i := 0; i < rv.Len(); i++ {
			n += valueSize(rv.Index(i), depth+1)
		}
	case reflect.Array:
		// Inline elements are already covered by t.Size(); only add what
		// the elements point at.
		if !isInline(t.Elem().Kind()) {
			for i := 0; i < rv.Len(); i++ {
				n += indirectSize(rv.Index(i), depth+1)
			}
		}
	case reflect.Map:
		if rv.IsNil() {
			break
		}
		iter := rv.MapRange()
		for iter.Next() {
			n += valueSize(iter.Key(), depth+1)
			n += valueSize(iter.Value(), depth+1)
			n += mapEntryOverhead
		}
	case reflect.Pointer, reflect.Interface:
		if !rv.IsNil() {
			n += valueSize(rv.Elem(), depth+1)
		}
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			n += indirectSize(rv.Field(i), depth+1)
		}
	}
	return n
}

// indirectSize returns only the out-of-line portion of rv's footprint; the
// inline portion is accounted for by the enclosing type's Size.
func indirectSize(rv reflect.Value, depth int) int64 {
	if isInline(rv.Kind()) {
		return 0
	}
	return valueSize(rv, depth) - int64(rv.Type().Size())
}

func isInline(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}
