// Package keycodec maps arbitrary store keys to filesystem-safe filenames.
//
// The mapping is deterministic within a process run and collision-resistant
// for heterogeneous key sets: distinct composite keys (structs, arrays) get
// distinct filenames because the encoding is derived from a structural
// rendering of the key, not its display string.
package keycodec

import (
	"fmt"
	"hash/crc32"
)

// crc32cTable is pre-computed for CRC32-Castagnoli polynomial.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// maxStemLen bounds the readable prefix so filenames stay well under
// filesystem name limits.
const maxStemLen = 120

// Filename returns the filename for key. The result always matches
// ^[A-Za-z0-9_]+$ and is stable across repeated calls with an equal key.
//
// String keys that already consist solely of safe characters pass through
// unchanged for debuggability, unless they end in the reserved hash-suffix
// shape (an underscore followed by eight lowercase hex digits), which only
// hashed filenames may carry. Everything else is rendered structurally
// (Go-syntax representation), sanitized, and suffixed with a CRC32C of the
// unsanitized rendering so that sanitization cannot collapse distinct keys.
// The two name populations are therefore disjoint.
func Filename(key any) string {
	if s, ok := key.(string); ok && isSafe(s) && !hasHashSuffix(s) {
		return s
	}

	structural := fmt.Sprintf("%#v", key)
	sum := crc32.Checksum([]byte(structural), crc32cTable)

	stem := sanitize(structural)
	if len(stem) > maxStemLen {
		stem = stem[:maxStemLen]
	}
	if stem == "" {
		stem = "k"
	}
	return fmt.Sprintf("%s_%08x", stem, sum)
}

// hasHashSuffix reports whether s ends in "_" plus eight lowercase hex
// digits, the shape every hashed filename carries.
func hasHashSuffix(s string) bool {
	if len(s) < 9 || s[len(s)-9] != '_' {
		return false
	}
	for i := len(s) - 8; i < len(s); i++ {
		b := s[i]
		if (b < '0' || b > '9') && (b < 'a' || b > 'f') {
			return false
		}
	}
	return true
}

func isSafe(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isSafeByte(s[i]) {
			return false
		}
	}
	return true
}

func isSafeByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '_':
		return true
	}
	return false
}

// sanitize replaces every unsafe byte with an underscore. Runs of unsafe
// bytes collapse to a single underscore to keep names readable.
func sanitize(s string) string {
	out := make([]byte, 0, len(s))
	lastUnsafe := false
	for i := 0; i < len(s); i++ {
		if isSafeByte(s[i]) {
			out = append(out, s[i])
			lastUnsafe = false
			continue
		}
		if !lastUnsafe {
			out = append(out, '_')
			lastUnsafe = true
		}
	}
	return string(out)
}
