package chest

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/chest/codec"
	"github.com/hupe1980/chest/internal/disk"
	"github.com/hupe1980/chest/internal/sysmem"
	"github.com/hupe1980/chest/sizeof"
)

// defaultBudget is used when no budget option is given and the host's free
// memory cannot be determined.
const defaultBudget = 1 << 30

// maxFlushConcurrency bounds parallel file writes during Flush.
const maxFlushConcurrency = 8

// Item is a key/value pair returned by Items.
type Item[K comparable, V any] struct {
	Key   K
	Value V
}

// Chest is a hybrid in-memory/on-disk map.
//
// Every entry is in exactly one of three residency states: memory-only,
// disk-only, or memory-resident because a persist attempt failed (such
// entries never silently disappear). A later Set of the same key always
// creates a fresh memory-resident entry that shadows any stale disk file.
//
// All methods are safe for concurrent use by multiple goroutines.
type Chest[K comparable, V any] struct {
	mu sync.Mutex

	path      string
	ephemeral bool
	budget    int64

	keys       map[K]struct{} // every key, memory- or disk-resident
	inmem      map[K]V
	order      []K // first-insert order of memory-resident keys
	undumpable map[K]struct{}
	usage      int64

	tier      *disk.Tier
	estimator *sizeof.Registry
	logger    *Logger

	hits, misses, diskLoads, evictions, undumped, flushes atomic.Int64
}

// Open creates a Chest.
//
// Without WithDir the store backs onto a fresh uniquely-named temporary
// directory that Close removes. With WithDir the directory is persistent; if
// it holds a key manifest from an earlier Flush, those keys are visible
// immediately.
func Open[K comparable, V any](optFns ...Option) (*Chest[K, V], error) {
	o := applyOptions(optFns)

	path := o.dir
	ephemeral := false
	if path == "" {
		p, err := o.fsys.MkdirTemp("", "chest-")
		if err != nil {
			return nil, fmt.Errorf("chest: create temp directory: %w", err)
		}
		path = p
		ephemeral = true
	} else if err := o.fsys.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("chest: create directory %s: %w", path, err)
	}

	budget := o.availableMemory
	if budget < 0 {
		budget = sysmem.FreeBytes()
		if budget == 0 {
			budget = defaultBudget
		}
	}

	c := &Chest[K, V]{
		path:       path,
		ephemeral:  ephemeral,
		budget:     budget,
		keys:       make(map[K]struct{}),
		inmem:      make(map[K]V),
		undumpable: make(map[K]struct{}),
		tier:       disk.New(o.fsys, path, o.codec, o.limiter),
		estimator:  o.estimator,
		logger:     o.logger.WithPath(path),
	}

	if !ephemeral {
		if err := c.reconcileManifest(); err != nil {
			c.logger.Warn("key manifest unreadable, starting with empty key set", "error", err)
		}
	}

	return c, nil
}

// reconcileManifest loads the key set a previous store flushed to this
// directory. Files physically present are the ground truth: manifest entries
// whose file has since vanished are dropped.
func (c *Chest[K, V]) reconcileManifest() error {
	var persisted []K
	switch err := c.tier.LoadManifest(&persisted); {
	case err == nil:
	case errors.Is(err, disk.ErrNotFound):
		return nil // fresh directory
	default:
		return err
	}

	for _, k := range persisted {
		if c.tier.Exists(k) {
			c.keys[k] = struct{}{}
		}
	}
	return nil
}

// Set inserts or overwrites key. The new entry is always memory-resident,
// even if the key had been evicted before. If the write pushes memory usage
// over the budget, a synchronous shrink pass runs before Set returns; its
// disk I/O failures (never serialization failures) are returned.
func (c *Chest[K, V]) Set(key K, value V) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, resident := c.inmem[key]; resident {
		c.usage -= c.estimator.Estimate(old)
	} else {
		c.order = append(c.order, key)
	}
	c.inmem[key] = value
	c.keys[key] = struct{}{}
	// A fresh value gets a fresh chance at serialization.
	delete(c.undumpable, key)
	c.usage += c.estimator.Estimate(value)

	return c.shrinkLocked()
}

// Get returns the value for key. Memory-resident entries are returned
// directly, shadowing any stale disk file; otherwise the entry is decoded
// from disk without being cached back into memory.
func (c *Chest[K, V]) Get(key K) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *Chest[K, V]) getLocked(key K) (V, error) {
	var zero V

	if v, resident := c.inmem[key]; resident {
		c.hits.Add(1)
		return v, nil
	}
	if _, exists := c.keys[key]; !exists {
		c.misses.Add(1)
		return zero, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}

	var v V
	if err := c.tier.Load(key, &v); err != nil {
		if errors.Is(err, disk.ErrNotFound) {
			c.misses.Add(1)
			return zero, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
		}
		return zero, err
	}
	c.diskLoads.Add(1)
	return v, nil
}

// GetFromDisk returns the entry for key without touching residency. For a
// memory-resident key this is a no-op read of the live value, not a way to
// force a reload from a stale file.
func (c *Chest[K, V]) GetFromDisk(key K) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, resident := c.inmem[key]; resident {
		c.hits.Add(1)
		return v, nil
	}

	var v V
	if err := c.tier.Load(key, &v); err != nil {
		if errors.Is(err, disk.ErrNotFound) {
			c.misses.Add(1)
			var zero V
			return zero, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
		}
		var zero V
		return zero, err
	}
	c.diskLoads.Add(1)
	return v, nil
}

// Delete removes key from the store: the in-memory entry, the disk file, and
// the key set. Deleting an absent key returns ErrKeyNotFound.
func (c *Chest[K, V]) Delete(key K) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.keys[key]; !exists {
		c.misses.Add(1)
		return fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}

	if v, resident := c.inmem[key]; resident {
		c.usage -= c.estimator.Estimate(v)
		delete(c.inmem, key)
		c.removeOrderLocked(key)
	}
	delete(c.keys, key)
	delete(c.undumpable, key)

	// Also clears any stale shadowed file left behind by an earlier flush.
	return c.tier.Remove(key)
}

// Contains reports whether key exists, memory- or disk-resident.
func (c *Chest[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.keys[key]
	return ok
}

// InMemory reports whether key is currently memory-resident.
func (c *Chest[K, V]) InMemory(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inmem[key]
	return ok
}

// Len returns the number of keys in the store, regardless of residency.
func (c *Chest[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

// Keys returns every key in the store, in unspecified order.
func (c *Chest[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keysLocked()
}

func (c *Chest[K, V]) keysLocked() []K {
	out := make([]K, 0, len(c.keys))
	for k := range c.keys {
		out = append(out, k)
	}
	return out
}

// Values returns every value in the store, resolving disk-resident entries.
func (c *Chest[K, V]) Values() ([]V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]V, 0, len(c.keys))
	for k := range c.keys {
		v, err := c.getLocked(k)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Items returns every key/value pair, resolving disk-resident entries.
func (c *Chest[K, V]) Items() ([]Item[K, V], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Item[K, V], 0, len(c.keys))
	for k := range c.keys {
		v, err := c.getLocked(k)
		if err != nil {
			return nil, err
		}
		out = append(out, Item[K, V]{Key: k, Value: v})
	}
	return out, nil
}

// MemoryUsage returns the estimated bytes held by memory-resident entries.
func (c *Chest[K, V]) MemoryUsage() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

// Budget returns the configured available-memory budget in bytes.
func (c *Chest[K, V]) Budget() int64 {
	return c.budget
}

// Flush persists every memory-resident, serializable entry to disk without
// evicting it, then writes the key manifest so a later store at the same
// path can reconstruct the key set. Entries that fail serialization are
// marked and skipped, never an error; I/O failures are returned after all
// entries have been attempted.
func (c *Chest[K, V]) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		failedMu sync.Mutex
		failed   []K
	)

	g := new(errgroup.Group)
	g.SetLimit(maxFlushConcurrency)

	persisted := 0
	skipped := 0
	for key, value := range c.inmem {
		if _, bad := c.undumpable[key]; bad {
			skipped++
			continue
		}
		persisted++
		key, value := key, value
		g.Go(func() error {
			err := c.tier.Persist(key, value)
			var se *codec.SerializationError
			if errors.As(err, &se) {
				failedMu.Lock()
				failed = append(failed, key)
				failedMu.Unlock()
				return nil
			}
			return err
		})
	}

	err := g.Wait()

	for _, k := range failed {
		c.undumpable[k] = struct{}{}
		c.undumped.Add(1)
		persisted--
		skipped++
	}

	if mErr := c.tier.SaveManifest(c.keysLocked()); err == nil {
		err = mErr
	}

	c.flushes.Add(1)
	c.logger.LogFlush(persisted, skipped, err)
	return err
}

// removeOrderLocked drops key from the insertion-order slice.
func (c *Chest[K, V]) removeOrderLocked(key K) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
