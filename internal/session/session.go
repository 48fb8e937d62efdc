// Package session issues short-lived in-memory sessions so the user is
// not re-prompted for a password on every action. A session holds a
// random key and the recovery phrase re-encrypted under that key; both
// live only in process memory and never survive a restart.
package session

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"

	"github.com/lumenwallet/lumen/internal/vault"
	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

// Session TTL bounds.
const (
	// DefaultTTL is the default session duration (30 minutes).
	DefaultTTL = 30 * time.Minute

	// MaxTTL is the maximum allowed session duration (60 minutes).
	MaxTTL = 60 * time.Minute

	// MinTTL is the minimum allowed session duration (1 minute).
	MinTTL = 1 * time.Minute

	// sessionKeyLength is the length of the random session key in bytes.
	sessionKeyLength = 32
)

// sessionState is the live session: the random key, the envelope
// protecting the recovery phrase under that key, and the expiry.
type sessionState struct {
	key       *vault.SecureBuffer
	envelope  *vault.Envelope
	expiresAt time.Time
}

// Manager owns at most one session at a time.
type Manager struct {
	mu      sync.Mutex
	clock   clock.Clock
	ttl     time.Duration
	memLock bool
	current *sessionState
}

// NewManager creates a session manager. A nil clk uses the wall clock.
// ttl is clamped to [MinTTL, MaxTTL]; zero selects DefaultTTL. When
// memLock is set the session key is held in mlocked memory so it
// cannot be swapped to disk.
func NewManager(clk clock.Clock, ttl time.Duration, memLock bool) *Manager {
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if ttl < MinTTL {
		ttl = MinTTL
	}
	if ttl > MaxTTL {
		ttl = MaxTTL
	}

	return &Manager{clock: clk, ttl: ttl, memLock: memLock}
}

// Start opens the persisted envelope with password and mints a new
// session. A wrong password fails with ErrDecryptionFailed and leaves
// any existing session untouched.
func (m *Manager) Start(persisted *vault.Envelope, password []byte) error {
	// Decrypt before taking the session slot so failure has no side
	// effects on the current session.
	secret, err := vault.Open(persisted, password)
	if err != nil {
		return err
	}
	defer vault.ZeroBytes(secret)

	key := make([]byte, sessionKeyLength)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("generating session key: %w", err)
	}
	defer vault.ZeroBytes(key)

	env, err := vault.Seal(secret, key)
	if err != nil {
		return fmt.Errorf("sealing session envelope: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.dropLocked()
	m.current = &sessionState{
		key:       vault.NewSecureBuffer(key, m.memLock),
		envelope:  env,
		expiresAt: m.clock.Now().Add(m.ttl),
	}

	return nil
}

// Secret returns the recovery phrase if a session is active. Expiry is
// checked lazily here; an expired session is discarded and reported as
// ErrSessionExpired. No session at all reports ErrNoSession. The caller
// must zero the returned bytes after use.
func (m *Manager) Secret() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, lumenerr.ErrNoSession
	}

	if !m.clock.Now().Before(m.current.expiresAt) {
		m.dropLocked()
		return nil, lumenerr.ErrSessionExpired
	}

	return vault.Open(m.current.envelope, m.current.key.Bytes())
}

// Active reports whether a non-expired session exists, without touching
// secret material.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.current != nil && m.clock.Now().Before(m.current.expiresAt)
}

// ExpiresIn returns the remaining session lifetime, or 0 when there is
// no active session.
func (m *Manager) ExpiresIn() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return 0
	}
	remaining := m.current.expiresAt.Sub(m.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// End discards the session and zeroes its key material. Idempotent.
func (m *Manager) End() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked()
}

// Sweep discards the session if it has expired, freeing memory promptly.
// Correctness never depends on it; Secret checks expiry on every call.
func (m *Manager) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && !m.clock.Now().Before(m.current.expiresAt) {
		m.dropLocked()
	}
}

// dropLocked zeroes and clears the session. Caller holds m.mu.
func (m *Manager) dropLocked() {
	if m.current == nil {
		return
	}
	m.current.key.Destroy()
	if m.current.envelope != nil {
		vault.ZeroBytes(m.current.envelope.Ciphertext)
	}
	m.current = nil
}
