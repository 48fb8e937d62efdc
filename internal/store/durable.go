// Package store provides the two key/value stores the core runs on: a
// durable file-backed store for non-secret metadata (watched deposit
// addresses, cached identifiers) and a volatile in-memory store for
// secret material that must not survive a restart.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lumenwallet/lumen/internal/fileutil"
)

const (
	// durableFileName is the backing file under the data directory.
	durableFileName = "store.json"

	// durableFilePermissions is the permission mode for the store file.
	durableFilePermissions = 0o600

	// durableDirPermissions is the permission mode for the data directory.
	durableDirPermissions = 0o700
)

// Durable is a file-backed string key/value store with atomic writes.
// Values are opaque strings; callers JSON-encode structured values.
type Durable struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// OpenDurable loads (or initializes) the durable store in the data dir.
func OpenDurable(basePath string) (*Durable, error) {
	d := &Durable{
		path: filepath.Join(basePath, durableFileName),
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(d.path) //nolint:gosec // G304: fixed file under the data dir
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return nil, fmt.Errorf("reading store file: %w", err)
	}

	if err := json.Unmarshal(raw, &d.data); err != nil {
		return nil, fmt.Errorf("parsing store file: %w", err)
	}

	return d, nil
}

// Get returns the value for key and whether it was present.
func (d *Durable) Get(key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.data[key]
	return v, ok
}

// Set stores key=value and persists immediately.
func (d *Durable) Set(key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data[key] = value
	return d.flushLocked()
}

// Delete removes key and persists. Removing an absent key is a no-op.
func (d *Durable) Delete(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.data[key]; !ok {
		return nil
	}
	delete(d.data, key)
	return d.flushLocked()
}

// flushLocked writes the current map atomically. Caller holds d.mu.
func (d *Durable) flushLocked() error {
	if err := os.MkdirAll(filepath.Dir(d.path), durableDirPermissions); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	raw, err := json.MarshalIndent(d.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling store: %w", err)
	}

	if err := fileutil.WriteAtomic(d.path, raw, durableFilePermissions); err != nil {
		return fmt.Errorf("writing store file: %w", err)
	}

	return nil
}
