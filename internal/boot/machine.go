// Package boot drives wallet initialization: it decides, from the
// available secret sources, whether the application can open the ledger
// wallet, needs a password, has no wallet at all, or failed.
package boot

import (
	"context"
	"sync"

	"github.com/lumenwallet/lumen/internal/ledger"
	"github.com/lumenwallet/lumen/internal/store"
	"github.com/lumenwallet/lumen/internal/vault"
)

// Status is the initialization state. Exactly one value holds at a
// time; success, no_wallet, and error are terminal for a boot attempt.
type Status int

// Initialization states.
const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusNeedsPassword
	StatusNoWallet
	StatusError
)

// String returns the lowercase state name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusNeedsPassword:
		return "needs_password"
	case StatusNoWallet:
		return "no_wallet"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the outcome of a Run call: the state plus the captured
// error message when the state is StatusError.
type Result struct {
	Status Status
	Err    string
}

// SecretSource yields the session-held recovery phrase, if any.
// Satisfied by session.Manager.
type SecretSource interface {
	Secret() ([]byte, error)
}

// VaultChecker reports whether a persisted vault exists.
// Satisfied by vault.Store.
type VaultChecker interface {
	Exists() bool
}

// LogWriter provides logging capabilities.
type LogWriter interface {
	Debug(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Machine is the initialization state machine. Collaborators are
// injected; the machine owns only its status and the wallet handle it
// opens.
type Machine struct {
	mu sync.Mutex

	sessions SecretSource
	volatile *store.Volatile
	vault    VaultChecker
	client   ledger.Client
	network  string
	log      LogWriter

	status Status
	errMsg string

	handle  ledger.Handle
	address string
	pubKey  string
}

// NewMachine creates a machine in the idle state.
func NewMachine(sessions SecretSource, volatile *store.Volatile, vaultStore VaultChecker,
	client ledger.Client, network string, log LogWriter) *Machine {

	return &Machine{
		sessions: sessions,
		volatile: volatile,
		vault:    vaultStore,
		client:   client,
		network:  network,
		log:      log,
		status:   StatusIdle,
	}
}

// Current returns the current state and error message.
func (m *Machine) Current() Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Result{Status: m.status, Err: m.errMsg}
}

// Handle returns the open wallet handle. Valid only while the machine
// is in StatusSuccess; nil otherwise.
func (m *Machine) Handle() ledger.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusSuccess {
		return nil
	}
	return m.handle
}

// Address returns the wallet address cached on success, or "".
func (m *Machine) Address() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.address
}

// PublicKey returns the wallet public key cached on success, or "".
func (m *Machine) PublicKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pubKey
}

// Run executes one boot attempt. Invoking it while already loading,
// success, or error is a no-op returning the current status, so a
// concurrent caller can never trigger a duplicate wallet open. Only
// idle and needs_password accept (re-)invocation.
func (m *Machine) Run(ctx context.Context) Result {
	m.mu.Lock()
	switch m.status {
	case StatusLoading, StatusSuccess, StatusError, StatusNoWallet:
		res := Result{Status: m.status, Err: m.errMsg}
		m.mu.Unlock()
		return res
	case StatusIdle, StatusNeedsPassword:
	}
	m.status = StatusLoading
	m.errMsg = ""
	m.mu.Unlock()

	secret := m.findSecret()
	if secret == nil {
		if m.vault.Exists() {
			return m.settle(StatusNeedsPassword, "")
		}
		return m.settle(StatusNoWallet, "")
	}
	defer vault.ZeroBytes(secret)

	handle, err := m.client.Open(ctx, secret, m.network)
	if err != nil {
		if m.log != nil {
			m.log.Error("wallet open failed: %v", err)
		}
		return m.settle(StatusError, err.Error())
	}

	m.mu.Lock()
	m.handle = handle
	m.address = handle.Address()
	m.pubKey = handle.PublicKey()
	m.status = StatusSuccess
	m.errMsg = ""
	res := Result{Status: m.status}
	m.mu.Unlock()

	if m.log != nil {
		m.log.Debug("wallet open succeeded, address=%s", m.address)
	}
	return res
}

// Reset returns the machine to idle and drops the handle. This is the
// only way out of a terminal state.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil {
		_ = m.handle.Close()
	}
	m.handle = nil
	m.address = ""
	m.pubKey = ""
	m.status = StatusIdle
	m.errMsg = ""
}

// findSecret resolves the secret sources in priority order: a valid
// session first, then the volatile caches.
func (m *Machine) findSecret() []byte {
	if m.sessions != nil {
		if secret, err := m.sessions.Secret(); err == nil && len(secret) > 0 {
			return secret
		}
	}

	if m.volatile != nil {
		if phrase := m.volatile.Get(store.KeyCachedPhrase); len(phrase) > 0 {
			return phrase
		}
		if seed := m.volatile.Get(store.KeyRawSeed); len(seed) > 0 {
			return seed
		}
	}

	return nil
}

// settle records a final state under lock.
func (m *Machine) settle(status Status, errMsg string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.errMsg = errMsg
	return Result{Status: status, Err: errMsg}
}
