package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("acc-1/report.csv", []byte("date,severity\n"))
	require.NoError(t, err)
	assert.Equal(t, "acc-1/report.csv", name)

	f, err := store.Open(name)
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "date,severity\n", string(body))

	require.NoError(t, store.Delete(name))
	require.NoError(t, store.Delete(name))
	_, err = store.Open(name)
	require.Error(t, err)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../escape.csv", "a/../../escape.csv", "/etc/passwd", ""} {
		_, err := store.Save(name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidPath, name)
	}
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("old.csv", []byte("x"))
	require.NoError(t, err)
	_, err = store.Save("new.csv", []byte("y"))
	require.NoError(t, err)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.csv"), past, past))

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.csv"}, deleted)
}

func TestLocalStorageWriteIsAtomic(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Write("acc-1/report.csv", func(w io.Writer) error {
		_, _ = io.WriteString(w, "half a file")
		return errors.New("renderer failed")
	})
	require.EqualError(t, err, "renderer failed")
	_, err = os.Stat(filepath.Join(dir, "acc-1", "report.csv"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	leftovers, _ := filepath.Glob(filepath.Join(dir, "acc-1", ".partial-*"))
	assert.Empty(t, leftovers)

	name, err := store.Write("acc-1/report.csv", func(w io.Writer) error {
		_, err := io.WriteString(w, "date\n")
		return err
	})
	require.NoError(t, err)
	body, err := os.ReadFile(filepath.Join(dir, "acc-1", "report.csv"))
	require.NoError(t, err)
	assert.Equal(t, "date\n", string(body))
	assert.Equal(t, "acc-1/report.csv", name)
}
