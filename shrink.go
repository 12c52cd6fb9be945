package chest

import (
	"errors"
	"fmt"

	"github.com/hupe1980/chest/codec"
)

// shrinkLocked moves the oldest memory-resident entries to disk until usage
// fits the budget. Caller must hold c.mu.
//
// Candidates are taken in first-insert order (FIFO), skipping entries already
// known to be unserializable. A serialization failure marks the entry and
// moves on to the next-oldest candidate; the pass ends when usage fits the
// budget or no eligible candidate remains. Running out of candidates with
// usage still over budget is expected, not an error: a single oversized or
// unserializable value can legitimately exceed the budget.
func (c *Chest[K, V]) shrinkLocked() error {
	if c.usage <= c.budget {
		return nil
	}

	moved := 0
	for c.usage > c.budget {
		key, ok := c.oldestDumpableLocked()
		if !ok {
			break
		}

		value := c.inmem[key]
		if err := c.tier.Persist(key, value); err != nil {
			var se *codec.SerializationError
			if errors.As(err, &se) {
				c.undumpable[key] = struct{}{}
				c.undumped.Add(1)
				c.logger.LogEvict(key, err)
				continue
			}
			return err
		}

		c.dropResidentLocked(key, value)
		c.evictions.Add(1)
		c.logger.LogEvict(key, nil)
		moved++
	}

	c.logger.LogShrink(moved, c.usage, c.budget)
	return nil
}

// oldestDumpableLocked returns the earliest-inserted memory-resident key not
// marked unserializable.
func (c *Chest[K, V]) oldestDumpableLocked() (K, bool) {
	for _, k := range c.order {
		if _, bad := c.undumpable[k]; bad {
			continue
		}
		return k, true
	}
	var zero K
	return zero, false
}

// dropResidentLocked removes key's value from the in-memory table after a
// successful persist. The key itself stays in the key set.
func (c *Chest[K, V]) dropResidentLocked(key K, value V) {
	c.usage -= c.estimator.Estimate(value)
	delete(c.inmem, key)
	c.removeOrderLocked(key)
}

// MoveToDisk persists key and drops its in-memory copy, like a single
// eviction step, regardless of the budget. A key already on disk is a no-op.
// Unlike shrink, a serialization failure surfaces to the caller (the entry is
// still marked and stays memory-resident).
func (c *Chest[K, V]) MoveToDisk(key K) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, resident := c.inmem[key]
	if !resident {
		if _, exists := c.keys[key]; exists {
			return nil // already on disk
		}
		return fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}

	if err := c.tier.Persist(key, value); err != nil {
		var se *codec.SerializationError
		if errors.As(err, &se) {
			c.undumpable[key] = struct{}{}
			c.undumped.Add(1)
		}
		return err
	}

	c.dropResidentLocked(key, value)
	c.evictions.Add(1)
	return nil
}
