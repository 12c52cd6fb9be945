// Package disk persists individual store entries as one file per key under a
// single directory.
//
// Writes go to a temporary file and are renamed into place only after a clean
// encode, sync, and close, so a failed persist never leaves a file that would
// later decode as a valid entry.
package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/hupe1980/chest/codec"
	"github.com/hupe1980/chest/internal/fs"
	"github.com/hupe1980/chest/internal/keycodec"
)

// ErrNotFound is returned when no file exists for a key.
var ErrNotFound = errors.New("entry not found on disk")

// manifestName is the key-manifest file written on flush. The leading dot
// keeps it disjoint from entry filenames, which never start with one.
const manifestName = ".keys"

// Tier manages the on-disk representation of entries.
// Methods are not synchronized; the owning store serializes access, except
// that concurrent Persist calls for distinct keys are safe.
type Tier struct {
	fsys    fs.FileSystem
	dir     string
	codec   codec.Codec
	limiter *rate.Limiter // nil: unthrottled
}

// New creates a Tier rooted at dir. A nil limiter disables write throttling.
func New(fsys fs.FileSystem, dir string, c codec.Codec, limiter *rate.Limiter) *Tier {
	if fsys == nil {
		fsys = fs.Default
	}
	if c == nil {
		c = codec.Default
	}
	return &Tier{fsys: fsys, dir: dir, codec: c, limiter: limiter}
}

// Dir returns the backing directory.
func (t *Tier) Dir() string { return t.dir }

// Path returns the file path that stores key.
func (t *Tier) Path(key any) string {
	return filepath.Join(t.dir, keycodec.Filename(key))
}

// Persist encodes value into the file for key.
//
// Codec failures propagate untouched (the eviction engine matches on them);
// everything else is an I/O failure. Either way, no partially-written file
// remains at the target path.
func (t *Tier) Persist(key, value any) error {
	return t.writeFile(keycodec.Filename(key), value)
}

// Load decodes the file for key into value, a non-nil pointer.
// Returns ErrNotFound if no file exists for the key.
func (t *Tier) Load(key, value any) error {
	return t.readFile(keycodec.Filename(key), value)
}

// Remove deletes the file for key. Removing an absent key is a no-op.
func (t *Tier) Remove(key any) error {
	err := t.fsys.Remove(t.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("disk: remove %s: %w", t.Path(key), err)
	}
	return nil
}

// Exists reports whether a file exists for key.
func (t *Tier) Exists(key any) bool {
	_, err := t.fsys.Stat(t.Path(key))
	return err == nil
}

// DestroyAll removes the backing directory and everything in it.
// Destroying an already-absent directory is a no-op.
func (t *Tier) DestroyAll() error {
	if err := t.fsys.RemoveAll(t.dir); err != nil {
		return fmt.Errorf("disk: destroy %s: %w", t.dir, err)
	}
	return nil
}

// SaveManifest persists the store's key set.
func (t *Tier) SaveManifest(keys any) error {
	return t.writeFile(manifestName, keys)
}

// LoadManifest reads a previously saved key set into keys, a pointer to a
// slice. Returns ErrNotFound when no manifest exists.
func (t *Tier) LoadManifest(keys any) error {
	return t.readFile(manifestName, keys)
}

func (t *Tier) writeFile(name string, value any) error {
	target := filepath.Join(t.dir, name)
	tmp := target + ".tmp"

	f, err := t.fsys.Create(tmp)
	if err != nil {
		return fmt.Errorf("disk: create %s: %w", tmp, err)
	}

	w := &errWriter{w: newLimitedWriter(f, t.limiter)}
	if err := t.codec.Encode(w, value); err != nil {
		_ = f.Close()
		_ = t.fsys.Remove(tmp)
		// Codecs encode straight into the file, so a failed write surfaces
		// through the codec's own error wrapping. The captured writer error
		// distinguishes an I/O failure from a genuinely unencodable value.
		if w.err != nil {
			return fmt.Errorf("disk: write %s: %w", tmp, w.err)
		}
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = t.fsys.Remove(tmp)
		return fmt.Errorf("disk: sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = t.fsys.Remove(tmp)
		return fmt.Errorf("disk: close %s: %w", tmp, err)
	}
	if err := t.fsys.Rename(tmp, target); err != nil {
		_ = t.fsys.Remove(tmp)
		return fmt.Errorf("disk: rename %s: %w", target, err)
	}
	return nil
}

func (t *Tier) readFile(name string, value any) error {
	path := filepath.Join(t.dir, name)

	f, err := t.fsys.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("disk: open %s: %w", path, err)
	}
	defer f.Close()

	return t.codec.Decode(f, value)
}

// errWriter records the first write failure so callers can tell an
// underlying I/O error apart from an encoding error reported by a codec
// writing through it.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	n, err := ew.w.Write(p)
	if err != nil && ew.err == nil {
		ew.err = err
	}
	return n, err
}

// limitedWriter throttles write throughput with a token-bucket limiter.
// Large writes are split so no single chunk exceeds the limiter's burst.
type limitedWriter struct {
	w   fs.File
	lim *rate.Limiter
}

func newLimitedWriter(w fs.File, lim *rate.Limiter) *limitedWriter {
	return &limitedWriter{w: w, lim: lim}
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	if lw.lim == nil {
		return lw.w.Write(p)
	}

	written := 0
	for written < len(p) {
		chunk := len(p) - written
		if burst := lw.lim.Burst(); chunk > burst {
			chunk = burst
		}
		if err := lw.lim.WaitN(context.Background(), chunk); err != nil {
			return written, err
		}
		n, err := lw.w.Write(p[written : written+chunk])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
