package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLumenErrorError(t *testing.T) {
	t.Parallel()

	t.Run("message only", func(t *testing.T) {
		t.Parallel()
		err := New("TEST_CODE", "something happened")
		assert.Equal(t, "something happened", err.Error())
	})

	t.Run("details are sorted", func(t *testing.T) {
		t.Parallel()
		err := WithDetails(New("TEST_CODE", "failed"), map[string]string{
			"b": "2",
			"a": "1",
		})
		assert.Equal(t, "failed (a: 1) (b: 2)", err.Error())
	})

	t.Run("cause appended", func(t *testing.T) {
		t.Parallel()
		cause := stderrors.New("root cause")
		err := Wrap(cause, "outer")
		assert.Contains(t, err.Error(), "root cause")
	})
}

func TestWrapPreservesCode(t *testing.T) {
	t.Parallel()

	err := Wrap(ErrDecryptionFailed, "unlocking wallet")
	assert.Equal(t, "DECRYPTION_FAILED", Code(err))
	assert.Equal(t, ExitAuth, ExitCode(err))
	assert.True(t, Is(err, ErrDecryptionFailed))
}

func TestWrapNil(t *testing.T) {
	t.Parallel()
	require.NoError(t, Wrap(nil, "no-op"))
	require.NoError(t, WithDetails(nil, nil))
	require.NoError(t, WithSuggestion(nil, "hint"))
}

func TestWithSuggestion(t *testing.T) {
	t.Parallel()

	err := WithSuggestion(ErrWalletNotFound, "run: lumen wallet create")
	var le *LumenError
	require.True(t, As(err, &le))
	assert.Equal(t, "run: lumen wallet create", le.Suggestion)
	assert.Equal(t, "WALLET_NOT_FOUND", le.Code)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitGeneral, ExitCode(stderrors.New("plain")))
	assert.Equal(t, ExitAuth, ExitCode(ErrSessionExpired))
	assert.Equal(t, ExitNotFound, ExitCode(ErrNoSecret))
	assert.Equal(t, ExitInput, ExitCode(ErrInvalidMnemonic))
}

func TestIsMatchesByCode(t *testing.T) {
	t.Parallel()

	clone := &LumenError{Code: "DECRYPTION_FAILED", Message: "different text", ExitCode: ExitAuth}
	assert.True(t, Is(clone, ErrDecryptionFailed))
	assert.False(t, Is(ErrWalletExists, ErrWalletNotFound))
}
