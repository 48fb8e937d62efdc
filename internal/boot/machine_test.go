package boot

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenwallet/lumen/internal/ledger"
	"github.com/lumenwallet/lumen/internal/session"
	"github.com/lumenwallet/lumen/internal/store"
	"github.com/lumenwallet/lumen/internal/vault"
	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

func TestMain(m *testing.M) {
	vault.SetKDFIterations(16) // Fast for tests
	os.Exit(m.Run())
}

// fakeVault stubs vault existence.
type fakeVault struct {
	exists bool
}

func (f *fakeVault) Exists() bool { return f.exists }

// slowClient wraps the memledger client and blocks Open until released,
// used to observe the loading state.
type slowClient struct {
	inner   ledger.Client
	release chan struct{}
	opens   int
	mu      sync.Mutex
}

func (c *slowClient) Open(ctx context.Context, secret []byte, network string) (ledger.Handle, error) {
	c.mu.Lock()
	c.opens++
	c.mu.Unlock()
	<-c.release
	return c.inner.Open(ctx, secret, network)
}

func (c *slowClient) openCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}

func newTestMachine(t *testing.T, sessions SecretSource, volatile *store.Volatile, vaultExists bool) *Machine {
	t.Helper()
	return NewMachine(sessions, volatile, &fakeVault{exists: vaultExists},
		ledger.NewMemClient(), ledger.NetworkRegtest, nil)
}

func TestNoWallet(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, nil, store.NewVolatile(), false)
	res := m.Run(context.Background())

	assert.Equal(t, StatusNoWallet, res.Status)
	assert.Nil(t, m.Handle())
}

func TestNeedsPassword(t *testing.T) {
	t.Parallel()

	clk := clock.NewTestClock(time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC))
	sessions := session.NewManager(clk, session.DefaultTTL, false)

	m := newTestMachine(t, sessions, store.NewVolatile(), true)
	res := m.Run(context.Background())

	assert.Equal(t, StatusNeedsPassword, res.Status)
}

func TestSessionSecretReachesSuccess(t *testing.T) {
	t.Parallel()

	clk := clock.NewTestClock(time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC))
	sessions := session.NewManager(clk, session.DefaultTTL, false)

	env, err := vault.Seal([]byte("recovery phrase"), []byte("password"))
	require.NoError(t, err)
	require.NoError(t, sessions.Start(env, []byte("password")))

	m := newTestMachine(t, sessions, store.NewVolatile(), true)
	res := m.Run(context.Background())

	require.Equal(t, StatusSuccess, res.Status)
	require.NotNil(t, m.Handle())
	assert.NotEmpty(t, m.Address())
	assert.NotEmpty(t, m.PublicKey())
}

func TestVolatileSeedReachesSuccess(t *testing.T) {
	t.Parallel()

	volatile := store.NewVolatile()
	volatile.Set(store.KeyRawSeed, []byte("raw seed bytes"))

	m := newTestMachine(t, nil, volatile, false)
	res := m.Run(context.Background())

	require.Equal(t, StatusSuccess, res.Status)
	assert.NotNil(t, m.Handle())
}

func TestCachedPhrasePreferredOverRawSeed(t *testing.T) {
	t.Parallel()

	client := ledger.NewMemClient()
	volatile := store.NewVolatile()
	volatile.Set(store.KeyCachedPhrase, []byte("the phrase"))
	volatile.Set(store.KeyRawSeed, []byte("the seed"))

	m := NewMachine(nil, volatile, &fakeVault{}, client, ledger.NetworkRegtest, nil)
	res := m.Run(context.Background())
	require.Equal(t, StatusSuccess, res.Status)

	// The handle identity must match an open with the cached phrase.
	direct, err := client.Open(context.Background(), []byte("the phrase"), ledger.NetworkRegtest)
	require.NoError(t, err)
	assert.Equal(t, direct.Address(), m.Address())
}

func TestOpenFailureCapturedAsError(t *testing.T) {
	t.Parallel()

	volatile := store.NewVolatile()
	volatile.Set(store.KeyRawSeed, []byte("seed"))

	// Wrong network makes the memledger reject the open.
	m := NewMachine(nil, volatile, &fakeVault{}, ledger.NewMemClient(), "wrongnet", nil)
	res := m.Run(context.Background())

	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Err, lumenerr.ErrLedgerOpenFailed.Message)
	assert.Nil(t, m.Handle())
}

func TestTerminalStatesAreNoOps(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, nil, store.NewVolatile(), false)
	first := m.Run(context.Background())
	require.Equal(t, StatusNoWallet, first.Status)

	// Re-running without reset returns the same status.
	second := m.Run(context.Background())
	assert.Equal(t, first, second)
}

func TestNeedsPasswordAcceptsReinvocation(t *testing.T) {
	t.Parallel()

	clk := clock.NewTestClock(time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC))
	sessions := session.NewManager(clk, session.DefaultTTL, false)

	m := newTestMachine(t, sessions, store.NewVolatile(), true)
	res := m.Run(context.Background())
	require.Equal(t, StatusNeedsPassword, res.Status)

	// Unlock mints a session; the machine must now take the session branch.
	env, err := vault.Seal([]byte("secret"), []byte("password"))
	require.NoError(t, err)
	require.NoError(t, sessions.Start(env, []byte("password")))

	res = m.Run(context.Background())
	assert.Equal(t, StatusSuccess, res.Status)
}

func TestConcurrentRunDoesNotDuplicateOpen(t *testing.T) {
	t.Parallel()

	slow := &slowClient{inner: ledger.NewMemClient(), release: make(chan struct{})}
	volatile := store.NewVolatile()
	volatile.Set(store.KeyRawSeed, []byte("seed"))

	m := NewMachine(nil, volatile, &fakeVault{}, slow, ledger.NetworkRegtest, nil)

	done := make(chan Result, 1)
	go func() {
		done <- m.Run(context.Background())
	}()

	// Wait for the first run to reach the blocking open.
	require.Eventually(t, func() bool {
		return m.Current().Status == StatusLoading
	}, time.Second, time.Millisecond)

	// A second invocation while loading is a no-op.
	res := m.Run(context.Background())
	assert.Equal(t, StatusLoading, res.Status)

	close(slow.release)
	final := <-done
	assert.Equal(t, StatusSuccess, final.Status)
	assert.Equal(t, 1, slow.openCount())
}

func TestReset(t *testing.T) {
	t.Parallel()

	volatile := store.NewVolatile()
	volatile.Set(store.KeyRawSeed, []byte("seed"))

	m := newTestMachine(t, nil, volatile, false)
	require.Equal(t, StatusSuccess, m.Run(context.Background()).Status)

	m.Reset()
	assert.Equal(t, StatusIdle, m.Current().Status)
	assert.Nil(t, m.Handle())
	assert.Empty(t, m.Address())

	// A fresh attempt runs again from idle.
	assert.Equal(t, StatusSuccess, m.Run(context.Background()).Status)
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "needs_password", StatusNeedsPassword.String())
	assert.Equal(t, "no_wallet", StatusNoWallet.String())
	assert.Equal(t, "error", StatusError.String())
}
