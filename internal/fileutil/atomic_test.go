package fileutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAtomic(t *testing.T) {
	t.Parallel()

	t.Run("writes new file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "out.json")

		require.NoError(t, WriteAtomic(path, []byte("hello"), 0o600))

		data, err := os.ReadFile(path) //nolint:gosec // test-controlled path
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("replaces existing file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "out.json")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

		require.NoError(t, WriteAtomic(path, []byte("new"), 0o600))

		data, err := os.ReadFile(path) //nolint:gosec // test-controlled path
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("sets permissions", func(t *testing.T) {
		t.Parallel()
		if runtime.GOOS == "windows" {
			t.Skip("permission bits not meaningful on windows")
		}
		path := filepath.Join(t.TempDir(), "out.json")

		require.NoError(t, WriteAtomic(path, []byte("x"), 0o600))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("empty path rejected", func(t *testing.T) {
		t.Parallel()
		err := WriteAtomic("", []byte("x"), 0o600)
		require.ErrorIs(t, err, ErrEmptyPath)
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "out.json")

		require.NoError(t, WriteAtomic(path, []byte("x"), 0o600))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "out.json", entries[0].Name())
	})
}
