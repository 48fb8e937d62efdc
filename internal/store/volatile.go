package store

import (
	"sync"

	"github.com/lumenwallet/lumen/internal/vault"
)

// Well-known volatile keys. At most one of the two secret caches is
// populated at a time: the plaintext recovery phrase after a successful
// unlock, or a raw seed for non-password flows.
const (
	// KeyCachedPhrase holds the plaintext recovery phrase after unlock.
	KeyCachedPhrase = "cached_phrase"

	// KeyRawSeed holds a raw seed for flows that never set a password.
	KeyRawSeed = "raw_seed"
)

// Volatile is a process-scoped in-memory byte store for secret material.
// It is never persisted; contents die with the process (a restart always
// re-derives secrets through the vault).
type Volatile struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewVolatile creates an empty volatile store.
func NewVolatile() *Volatile {
	return &Volatile{data: make(map[string][]byte)}
}

// Get returns a copy of the value for key, or nil if absent. Returning
// a copy keeps callers from holding references into the store; the
// original can then be wiped independently.
func (v *Volatile) Get(key string) []byte {
	v.mu.Lock()
	defer v.mu.Unlock()

	val, ok := v.data[key]
	if !ok {
		return nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out
}

// Set copies value into the store under key, replacing (and zeroing) any
// prior value.
func (v *Volatile) Set(key string, value []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if old, ok := v.data[key]; ok {
		vault.ZeroBytes(old)
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	v.data[key] = stored
}

// Delete zeroes and removes the value under key. No-op if absent.
func (v *Volatile) Delete(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if old, ok := v.data[key]; ok {
		vault.ZeroBytes(old)
		delete(v.data, key)
	}
}

// Wipe zeroes and removes every value. Called on reset/logout before the
// process gives up its secrets.
func (v *Volatile) Wipe() {
	v.mu.Lock()
	defer v.mu.Unlock()

	for k, val := range v.data {
		vault.ZeroBytes(val)
		delete(v.data, k)
	}
}
