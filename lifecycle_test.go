package chest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_EphemeralCloseRemovesDir(t *testing.T) {
	c, err := Open[string, string]()
	require.NoError(t, err)
	require.True(t, c.Ephemeral())

	path := c.Path()
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, c.Set("k", "v"))
	require.NoError(t, c.Close())

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLifecycle_PersistentCloseKeepsDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")

	c, err := Open[string, string](WithDir(dir))
	require.NoError(t, err)
	require.False(t, c.Ephemeral())

	require.NoError(t, c.Set("k", "v"))
	require.NoError(t, c.Flush())
	require.NoError(t, c.Close())

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestLifecycle_DropIdempotent(t *testing.T) {
	c, err := Open[string, string]()
	require.NoError(t, err)

	require.NoError(t, c.Set("k", "v"))
	require.NoError(t, c.Drop())

	_, err = os.Stat(c.Path())
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Zero(t, c.Len())
	assert.Zero(t, c.MemoryUsage())

	// Directory already gone: still not an error.
	require.NoError(t, c.Drop())
}

func TestWith_RemovesDirOnSuccess(t *testing.T) {
	var path string

	err := With(func(c *Chest[string, string]) error {
		path = c.Path()
		if err := c.Set("k", "v"); err != nil {
			return err
		}
		return c.Flush()
	})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWith_RemovesDirOnFailureAndPropagates(t *testing.T) {
	boom := errors.New("boom")
	var path string

	err := With(func(c *Chest[string, string]) error {
		path = c.Path()
		_ = c.Set("k", "v")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWith_RemovesPersistentDirToo(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")

	err := With(func(c *Chest[string, string]) error {
		return c.Set("k", "v")
	}, WithDir(dir))
	require.NoError(t, err)

	// Scoped use drops the directory regardless of tagging.
	_, err = os.Stat(dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
