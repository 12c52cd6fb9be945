package chest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chest/codec"
	"github.com/hupe1980/chest/internal/fs"
)

func TestShrink_FIFOOrder(t *testing.T) {
	c, err := Open[string, sized](
		WithAvailableMemory(100),
		WithEstimator(sizedRegistry()),
	)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("one", sized{ID: 1, Size: 80}))
	assert.True(t, c.InMemory("one"))

	require.NoError(t, c.Set("two", sized{ID: 2, Size: 40}))

	// The earliest-inserted entry spills first.
	assert.False(t, c.InMemory("one"))
	assert.True(t, c.InMemory("two"))
	assert.Equal(t, int64(40), c.MemoryUsage())
}

func TestShrink_EvictsUntilUnderBudget(t *testing.T) {
	c, err := Open[int, sized](
		WithAvailableMemory(100),
		WithEstimator(sizedRegistry()),
	)
	require.NoError(t, err)
	defer c.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Set(i, sized{ID: i, Size: 40}))
	}

	// 5 x 40 = 200; the three oldest must have spilled.
	assert.LessOrEqual(t, c.MemoryUsage(), int64(100))
	assert.False(t, c.InMemory(0))
	assert.False(t, c.InMemory(1))
	assert.False(t, c.InMemory(2))
	assert.True(t, c.InMemory(3))
	assert.True(t, c.InMemory(4))
}

func TestShrink_OversizedValueStillSpills(t *testing.T) {
	c, err := Open[string, sized](
		WithAvailableMemory(100),
		WithEstimator(sizedRegistry()),
	)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("huge", sized{ID: 1, Size: 500}))
	assert.False(t, c.InMemory("huge"))
	assert.Zero(t, c.MemoryUsage())
}

func TestShrink_OverBudgetWithOnlyUndumpable(t *testing.T) {
	c, err := Open[string, any](WithAvailableMemory(0))
	require.NoError(t, err)
	defer c.Close()

	// Terminating over budget is expected, not an error.
	require.NoError(t, c.Set("a", undumpable{Ch: make(chan int)}))
	assert.Positive(t, c.MemoryUsage())
	assert.True(t, c.InMemory("a"))
}

func TestShrink_StorageFailurePropagates(t *testing.T) {
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("evictme", fs.Fault{FailOnWrite: true})

	c, err := Open[string, string](
		WithAvailableMemory(0),
		withFileSystem(ffs),
	)
	require.NoError(t, err)
	defer func() { _ = c.Drop() }()

	err = c.Set("evictme", "payload")
	require.ErrorIs(t, err, fs.ErrInjected)

	// The entry survives the failed eviction.
	assert.True(t, c.InMemory("evictme"))
	v, gerr := c.Get("evictme")
	require.NoError(t, gerr)
	assert.Equal(t, "payload", v)
}

func TestShrink_IOFailureDoesNotMarkUndumpable(t *testing.T) {
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("flaky", fs.Fault{FailOnWrite: true})

	c, err := Open[string, string](
		WithAvailableMemory(0),
		withFileSystem(ffs),
	)
	require.NoError(t, err)
	defer func() { _ = c.Drop() }()

	err = c.Set("flaky", "payload")
	require.ErrorIs(t, err, fs.ErrInjected)
	var se *codec.SerializationError
	require.False(t, errors.As(err, &se), "a disk failure must not be reported as a codec failure")

	// A disk failure is transient; the entry must not carry a permanent
	// unserializable mark.
	assert.Zero(t, c.Stats().Undumpable)
	assert.True(t, c.InMemory("flaky"))

	// Once the disk recovers, the entry spills like any other.
	ffs.AddRule("flaky", fs.Fault{})
	require.NoError(t, c.MoveToDisk("flaky"))
	assert.False(t, c.InMemory("flaky"))

	v, err := c.Get("flaky")
	require.NoError(t, err)
	assert.Equal(t, "payload", v)
}

func TestMoveToDisk(t *testing.T) {
	c, err := Open[string, string]()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("k", "v"))
	assert.True(t, c.InMemory("k"))

	// Explicit eviction works even when well under budget.
	require.NoError(t, c.MoveToDisk("k"))
	assert.False(t, c.InMemory("k"))
	assert.True(t, c.Contains("k"))

	v, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	// Already on disk: no-op.
	require.NoError(t, c.MoveToDisk("k"))

	require.ErrorIs(t, c.MoveToDisk("absent"), ErrKeyNotFound)
}

func TestMoveToDisk_UndumpableSurfaces(t *testing.T) {
	c, err := Open[string, any]()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("a", undumpable{Ch: make(chan int)}))

	err = c.MoveToDisk("a")
	var se *codec.SerializationError
	require.ErrorAs(t, err, &se)
	assert.True(t, c.InMemory("a"))
}

func TestShrink_UndumpableNotRetried(t *testing.T) {
	c, err := Open[string, any](WithAvailableMemory(50))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("bad", undumpable{Ch: make(chan int)}))
	require.NoError(t, c.Set("ok1", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	require.NoError(t, c.Set("ok2", "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"))

	// Only the first failed persist attempt counts; later shrink passes skip
	// the marked entry instead of retrying it.
	assert.Equal(t, int64(1), c.Stats().Undumpable)
	assert.True(t, c.InMemory("bad"))
}
