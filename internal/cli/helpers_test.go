package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

func TestParseAmount(t *testing.T) {
	t.Parallel()

	amount, err := parseAmount("1000")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), amount)

	amount, err = parseAmount("  42 ")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), amount)

	for _, bad := range []string{"", "0", "-5", "1.5", "lots", "1e6"} {
		_, err = parseAmount(bad)
		require.ErrorIs(t, err, lumenerr.ErrInvalidAmount, "input %q", bad)
	}
}

func TestCleanInput(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "lmr1abcdef", cleanInput("  lmr1abcdef\n"))
	assert.Equal(t, "lni1xyz", cleanInput("\tlni1xyz\r\n"))
	assert.Equal(t, "", cleanInput("   "))
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "45s", formatDuration(45*time.Second))
	assert.Equal(t, "5m", formatDuration(5*time.Minute))
	assert.Equal(t, "2m30s", formatDuration(2*time.Minute+30*time.Second))
}

func TestPrintError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printError(&buf, lumenerr.WithSuggestion(lumenerr.ErrWalletNotFound,
		"run 'lumen wallet create'"))

	got := buf.String()
	assert.Contains(t, got, "WALLET_NOT_FOUND")
	assert.Contains(t, got, "Suggestion: run 'lumen wallet create'")

	buf.Reset()
	printError(&buf, assert.AnError)
	assert.Contains(t, buf.String(), "Error:")
}
