// Package fileutil holds the atomic write primitive the vault store
// and the durable store persist through.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrEmptyPath rejects a write with no destination.
var ErrEmptyPath = errors.New("fileutil: empty path")

// WriteAtomic persists data to path so that a crash at any point
// leaves either the old content or the new, never a torn file. The
// vault envelope and the watch set both depend on this.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}

	tmp, err := stageTemp(path, data, perm)
	if err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}

	syncDir(filepath.Dir(path))
	return nil
}

// stageTemp writes data into a sibling temp file, fsynced and with
// perm applied, and returns its path. On error the temp file is gone.
func stageTemp(path string, data []byte, perm os.FileMode) (string, error) {
	dir, base := filepath.Split(path)

	f, err := os.CreateTemp(dir, "."+base+".*")
	if err != nil {
		return "", fmt.Errorf("staging %s: %w", base, err)
	}
	tmp := f.Name()

	write := func() error {
		if _, err := f.Write(data); err != nil {
			return err
		}
		if err := f.Chmod(perm); err != nil {
			return err
		}
		return f.Sync()
	}

	if err := write(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("staging %s: %w", base, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("staging %s: %w", base, err)
	}

	return tmp, nil
}

// syncDir makes the rename itself durable. Best effort; some
// filesystems do not support fsync on directories.
func syncDir(dir string) {
	d, err := os.Open(dir) //nolint:gosec // G304: derived from the caller's own path
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
