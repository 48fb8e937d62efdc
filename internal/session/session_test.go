package session

import (
	"os"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenwallet/lumen/internal/vault"
	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

var testStart = time.Date(2026, time.January, 2, 9, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	vault.SetKDFIterations(16) // Fast for tests
	os.Exit(m.Run())
}

func sealTestVault(t *testing.T, secret, password string) *vault.Envelope {
	t.Helper()
	env, err := vault.Seal([]byte(secret), []byte(password))
	require.NoError(t, err)
	return env
}

func TestStartAndSecret(t *testing.T) {
	t.Parallel()

	clk := clock.NewTestClock(testStart)
	m := NewManager(clk, DefaultTTL, false)
	env := sealTestVault(t, "recovery phrase", "password")

	require.NoError(t, m.Start(env, []byte("password")))
	assert.True(t, m.Active())

	secret, err := m.Secret()
	require.NoError(t, err)
	assert.Equal(t, []byte("recovery phrase"), secret)

	// Repeated reads work within the TTL.
	secret, err = m.Secret()
	require.NoError(t, err)
	assert.Equal(t, []byte("recovery phrase"), secret)
}

func TestStartWrongPassword(t *testing.T) {
	t.Parallel()

	clk := clock.NewTestClock(testStart)
	m := NewManager(clk, DefaultTTL, false)
	env := sealTestVault(t, "secret", "right")

	err := m.Start(env, []byte("wrong"))
	require.ErrorIs(t, err, lumenerr.ErrDecryptionFailed)
	assert.False(t, m.Active())
}

func TestStartFailureKeepsPriorSession(t *testing.T) {
	t.Parallel()

	clk := clock.NewTestClock(testStart)
	m := NewManager(clk, DefaultTTL, false)
	env := sealTestVault(t, "secret", "password")

	require.NoError(t, m.Start(env, []byte("password")))

	// A failed re-unlock must not disturb the existing session.
	err := m.Start(env, []byte("wrong"))
	require.ErrorIs(t, err, lumenerr.ErrDecryptionFailed)

	secret, err := m.Secret()
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), secret)
}

func TestExpiry(t *testing.T) {
	t.Parallel()

	clk := clock.NewTestClock(testStart)
	m := NewManager(clk, DefaultTTL, false)
	env := sealTestVault(t, "secret", "password")

	require.NoError(t, m.Start(env, []byte("password")))
	assert.Equal(t, DefaultTTL, m.ExpiresIn())

	// One second before expiry the session still works.
	clk.SetTime(testStart.Add(DefaultTTL - time.Second))
	_, err := m.Secret()
	require.NoError(t, err)

	// At the expiry instant the session is gone.
	clk.SetTime(testStart.Add(DefaultTTL))
	_, err = m.Secret()
	require.ErrorIs(t, err, lumenerr.ErrSessionExpired)
	assert.False(t, m.Active())
	assert.Equal(t, time.Duration(0), m.ExpiresIn())

	// Once dropped, the state is no-session rather than expired.
	_, err = m.Secret()
	require.ErrorIs(t, err, lumenerr.ErrNoSession)
}

func TestEnd(t *testing.T) {
	t.Parallel()

	clk := clock.NewTestClock(testStart)
	m := NewManager(clk, DefaultTTL, false)
	env := sealTestVault(t, "secret", "password")

	require.NoError(t, m.Start(env, []byte("password")))
	m.End()

	assert.False(t, m.Active())
	_, err := m.Secret()
	require.ErrorIs(t, err, lumenerr.ErrNoSession)

	// Idempotent.
	m.End()
}

func TestSweep(t *testing.T) {
	t.Parallel()

	clk := clock.NewTestClock(testStart)
	m := NewManager(clk, DefaultTTL, false)
	env := sealTestVault(t, "secret", "password")

	require.NoError(t, m.Start(env, []byte("password")))

	// Sweep before expiry keeps the session.
	m.Sweep()
	assert.True(t, m.Active())

	clk.SetTime(testStart.Add(DefaultTTL))
	m.Sweep()

	_, err := m.Secret()
	require.ErrorIs(t, err, lumenerr.ErrNoSession)
}

func TestStartOverwritesPriorSession(t *testing.T) {
	t.Parallel()

	clk := clock.NewTestClock(testStart)
	m := NewManager(clk, DefaultTTL, false)
	env := sealTestVault(t, "secret", "password")

	require.NoError(t, m.Start(env, []byte("password")))
	clk.SetTime(testStart.Add(10 * time.Minute))
	require.NoError(t, m.Start(env, []byte("password")))

	// The new session gets a fresh full TTL.
	assert.Equal(t, DefaultTTL, m.ExpiresIn())
}

func TestMemoryLockedSessionKey(t *testing.T) {
	t.Parallel()

	clk := clock.NewTestClock(testStart)
	m := NewManager(clk, DefaultTTL, true)
	env := sealTestVault(t, "locked secret", "password")

	require.NoError(t, m.Start(env, []byte("password")))

	// The key lives in a secure buffer; the session still round-trips.
	require.NotNil(t, m.current.key)
	assert.Len(t, m.current.key.Bytes(), sessionKeyLength)

	secret, err := m.Secret()
	require.NoError(t, err)
	assert.Equal(t, []byte("locked secret"), secret)

	// End destroys the buffer, not just the reference to it.
	key := m.current.key
	m.End()
	assert.Nil(t, key.Bytes())
	assert.Equal(t, 0, key.Len())
}

func TestTTLClamping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ttl  time.Duration
		want time.Duration
	}{
		{"zero uses default", 0, DefaultTTL},
		{"below minimum", time.Second, MinTTL},
		{"above maximum", 5 * time.Hour, MaxTTL},
		{"in range", 20 * time.Minute, 20 * time.Minute},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clk := clock.NewTestClock(testStart)
			m := NewManager(clk, tt.ttl, false)
			env := sealTestVault(t, "s", "p")
			require.NoError(t, m.Start(env, []byte("p")))
			assert.Equal(t, tt.want, m.ExpiresIn())
		})
	}
}
