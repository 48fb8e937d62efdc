package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenwallet/lumen/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want config.LogLevel
	}{
		{"off", config.LogLevelOff},
		{"none", config.LogLevelOff},
		{"error", config.LogLevelError},
		{"DEBUG", config.LogLevelDebug},
		{"  debug  ", config.LogLevelDebug},
		{"bogus", config.LogLevelError},
		{"", config.LogLevelError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, config.ParseLogLevel(tt.in), "input %q", tt.in)
	}
}

func TestLogger_WritesAtLevel(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "lumen.log")

	logger, err := config.NewLogger(config.LogLevelDebug, path)
	require.NoError(t, err)

	logger.Debug("debug %s", "message")
	logger.Error("error %s", "message")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path) // #nosec G304 -- test temp file
	require.NoError(t, err)

	assert.Contains(t, string(data), "DBG debug message")
	assert.Contains(t, string(data), "ERR error message")
}

func TestLogger_MasksByteSliceArgs(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "lumen.log")

	logger, err := config.NewLogger(config.LogLevelDebug, path)
	require.NoError(t, err)

	// A byte slice argument must never reach the file verbatim.
	logger.Error("opened with %s", []byte("super secret phrase"))
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path) // #nosec G304 -- test temp file
	require.NoError(t, err)

	assert.NotContains(t, string(data), "super secret phrase")
	assert.Contains(t, string(data), "[19 bytes]")
}

func TestLogger_ErrorLevelSuppressesDebug(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "lumen.log")

	logger, err := config.NewLogger(config.LogLevelError, path)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Error("visible")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path) // #nosec G304 -- test temp file
	require.NoError(t, err)

	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "visible")
}

func TestLogger_OffWritesNothing(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "lumen.log")

	logger, err := config.NewLogger(config.LogLevelOff, path)
	require.NoError(t, err)

	logger.Error("never written")
	require.NoError(t, logger.Close())

	// Off never even creates the file.
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNullLogger(t *testing.T) {
	t.Parallel()

	logger := config.NullLogger()
	logger.Debug("ignored")
	logger.Error("ignored")
	require.NoError(t, logger.Close())
	assert.Equal(t, config.LogLevelOff, logger.Level())
}
