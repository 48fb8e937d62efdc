// Package claim tracks on-chain deposit addresses that may still
// receive an unclaimed deposit and periodically tries to claim matured
// deposits for them.
package claim

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/lumenwallet/lumen/internal/store"
)

// watchedKey is the durable store key holding the watched address list.
const watchedKey = "watched_deposits"

// WatchSet is the set of deposit addresses still worth scanning.
// Membership is idempotent in both directions and survives restarts via
// the durable store.
type WatchSet struct {
	mu      sync.Mutex
	addrs   map[string]struct{}
	durable *store.Durable
}

// LoadWatchSet restores the set from the durable store. A nil durable
// yields a purely in-memory set (used in tests).
func LoadWatchSet(durable *store.Durable) (*WatchSet, error) {
	ws := &WatchSet{
		addrs:   make(map[string]struct{}),
		durable: durable,
	}

	if durable == nil {
		return ws, nil
	}

	raw, ok := durable.Get(watchedKey)
	if !ok {
		return ws, nil
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("parsing watched deposits: %w", err)
	}
	for _, a := range list {
		ws.addrs[a] = struct{}{}
	}

	return ws, nil
}

// Add registers an address. Adding an already-present address is a
// no-op.
func (w *WatchSet) Add(addr string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.addrs[addr]; ok {
		return nil
	}
	w.addrs[addr] = struct{}{}
	return w.persistLocked()
}

// Remove drops an address. Removing twice is harmless.
func (w *WatchSet) Remove(addr string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.addrs[addr]; !ok {
		return nil
	}
	delete(w.addrs, addr)
	return w.persistLocked()
}

// Contains reports membership.
func (w *WatchSet) Contains(addr string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.addrs[addr]
	return ok
}

// Addresses returns a sorted snapshot of the members.
func (w *WatchSet) Addresses() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.addrs))
	for a := range w.addrs {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Len returns the member count.
func (w *WatchSet) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.addrs)
}

// Clear drops every address. Used on wallet reset.
func (w *WatchSet) Clear() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.addrs = make(map[string]struct{})
	return w.persistLocked()
}

// persistLocked writes the membership to the durable store. Caller
// holds w.mu.
func (w *WatchSet) persistLocked() error {
	if w.durable == nil {
		return nil
	}

	list := make([]string, 0, len(w.addrs))
	for a := range w.addrs {
		list = append(list, a)
	}
	sort.Strings(list)

	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshaling watched deposits: %w", err)
	}
	return w.durable.Set(watchedKey, string(raw))
}
