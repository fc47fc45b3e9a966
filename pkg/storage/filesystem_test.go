package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageWriteAtomicReplacesContent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	require.NoError(t, store.WriteAtomic("events.json", []byte(`{"1":[]}`)))
	require.NoError(t, store.WriteAtomic("events.json", []byte(`{}`)))

	data, err := store.Read("events.json")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocalStorageReadMissing(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Read("missing.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLocalStorageRenameAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)
	require.NoError(t, store.WriteAtomic("a.json", []byte("x")))

	require.NoError(t, store.Rename("a.json", "b.json"))
	_, err = os.Stat(filepath.Join(dir, "b.json"))
	require.NoError(t, err)

	require.NoError(t, store.Delete("b.json"))
	require.NoError(t, store.Delete("b.json"))
	assert.Equal(t, filepath.Join(dir, "b.json"), store.Path("b.json"))
}

func TestLocalStorageProbe(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	require.NoError(t, store.Probe())
	_, err = os.Stat(filepath.Join(dir, ".probe"))
	assert.True(t, os.IsNotExist(err))
}
