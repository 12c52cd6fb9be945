package chest

// Stats is a point-in-time snapshot of operation counters.
type Stats struct {
	Hits       int64 // Gets served from memory
	Misses     int64 // Gets/Deletes of absent keys
	DiskLoads  int64 // Gets served from disk
	Evictions  int64 // entries moved to disk by shrink or MoveToDisk
	Undumpable int64 // serialization failures converted to residency marks
	Flushes    int64 // completed Flush calls
}

// Stats returns current operation counters.
func (c *Chest[K, V]) Stats() Stats {
	return Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		DiskLoads:  c.diskLoads.Load(),
		Evictions:  c.evictions.Load(),
		Undumpable: c.undumped.Load(),
		Flushes:    c.flushes.Load(),
	}
}
