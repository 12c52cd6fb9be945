// Package chest provides an out-of-core associative store for Go.
//
// A Chest behaves like a map whose working set may exceed memory: entries are
// held in an in-memory table until a configured byte budget is exceeded, at
// which point the oldest-inserted entries spill to one file per key under the
// store's directory. Reads consult memory first and fall back to disk
// transparently.
//
// # Quick Start
//
//	c, _ := chest.Open[string, []float64]()
//	defer c.Close() // ephemeral directory is removed
//
//	c.Set("xs", xs)
//	xs, _ = c.Get("xs")
//
// A caller-supplied directory survives the store and can be reopened:
//
//	c, _ := chest.Open[string, []float64](chest.WithDir("./data"))
//	c.Set("xs", xs)
//	c.Flush() // durability checkpoint, keys become visible to later opens
//	c.Close() // directory kept
//
// # Memory Budget
//
// The budget defaults to the host's free memory and can be set explicitly:
//
//	c, _ := chest.Open[string, Matrix](chest.WithAvailableMemory(256 << 20))
//
// Eviction is FIFO over insertion order and runs synchronously inside the
// mutating call that overran the budget. Values that cannot be serialized are
// never dropped: they stay memory-resident even under budget pressure.
//
// # Codecs
//
// Entries are encoded with gob by default. JSON (stdlib or goccy/go-json) and
// zstd/lz4 compressing wrappers are available, or bring your own codec:
//
//	c, _ := chest.Open[string, Row](chest.WithCodec(codec.Zstd(codec.JSON{})))
//
// # Concurrency
//
// A single mutex guards the composite state (key set, in-memory table, usage
// counter). This is intentionally coarse-grained: disk I/O dominates
// operation cost, and correctness of the coupled state surfaces takes
// priority over fine-grained parallelism.
package chest
