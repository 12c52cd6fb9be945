package chest

// Path returns the store's backing directory.
func (c *Chest[K, V]) Path() string {
	return c.path
}

// Ephemeral reports whether the backing directory was auto-created and will
// be removed by Close.
func (c *Chest[K, V]) Ephemeral() bool {
	return c.ephemeral
}

// Drop deletes the entire store: the in-memory table, the key set, and the
// backing directory with all entry files. Dropping a store whose directory is
// already absent is a no-op.
func (c *Chest[K, V]) Drop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropLocked()
}

func (c *Chest[K, V]) dropLocked() error {
	c.inmem = make(map[K]V)
	c.keys = make(map[K]struct{})
	c.undumpable = make(map[K]struct{})
	c.order = nil
	c.usage = 0

	err := c.tier.DestroyAll()
	c.logger.LogDrop(c.path, err)
	return err
}

// Close releases the store. An ephemeral directory is removed best-effort; a
// persistent directory is left intact for a later store opened at the same
// path (call Flush first if disk-resident state should be complete).
func (c *Chest[K, V]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ephemeral {
		return c.dropLocked()
	}
	return nil
}

// With runs fn against a freshly opened store and removes the store's entire
// directory on the way out, whether fn succeeds or fails, regardless of the
// ephemeral/persistent tagging. fn's error propagates unchanged; a cleanup
// failure is only reported when fn itself succeeded.
func With[K comparable, V any](fn func(c *Chest[K, V]) error, optFns ...Option) error {
	c, err := Open[K, V](optFns...)
	if err != nil {
		return err
	}

	fnErr := fn(c)
	if dropErr := c.Drop(); fnErr == nil {
		return dropErr
	}
	return fnErr
}
