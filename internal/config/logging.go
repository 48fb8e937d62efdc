package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel selects how much the wallet writes to its log file.
type LogLevel int

const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelDebug
)

// ParseLogLevel maps a config string to a level. Unknown values fall
// back to error so a typo never silences the log entirely.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LogLevelOff
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelError
	}
}

func (l LogLevel) String() string {
	switch l {
	case LogLevelOff:
		return "off"
	case LogLevelDebug:
		return "debug"
	default:
		return "error"
	}
}

// tag is the fixed-width marker written into each log line.
func (l LogLevel) tag() string {
	switch l {
	case LogLevelDebug:
		return "DBG"
	default:
		return "ERR"
	}
}

// Logger writes leveled, timestamped lines to the wallet log file.
// Secret material must never be logged; as a guard, any raw []byte
// argument is masked before formatting (secrets in this codebase are
// byte slices, messages and ids are strings).
type Logger struct {
	mu    sync.Mutex
	level LogLevel
	sink  io.WriteCloser
}

// NewLogger opens the log file at path for appending. Level off (or an
// empty path) produces a logger that writes nothing and does not touch
// the filesystem.
func NewLogger(level LogLevel, path string) (*Logger, error) {
	l := &Logger{level: level}
	if level == LogLevelOff || path == "" {
		return l, nil
	}

	sink, err := openLogFile(path)
	if err != nil {
		return nil, err
	}
	l.sink = sink
	return l, nil
}

// NullLogger returns a logger that discards everything.
func NullLogger() *Logger {
	return &Logger{level: LogLevelOff}
}

// openLogFile expands a leading ~/ and opens the file append-only,
// creating parent directories as needed.
func openLogFile(path string) (io.WriteCloser, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, path[2:])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}

	// #nosec G304 -- log file path comes from validated config
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...any) {
	l.emit(LogLevelDebug, format, args)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...any) {
	l.emit(LogLevelError, format, args)
}

// Level returns the current level.
func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Close closes the underlying file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

func (l *Logger) emit(level LogLevel, format string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sink == nil || l.level == LogLevelOff || level > l.level {
		return
	}

	ts := time.Now().UTC().Format(time.RFC3339)
	msg := fmt.Sprintf(format, maskSecretArgs(args)...)
	_, _ = fmt.Fprintf(l.sink, "%s %s %s\n", ts, level.tag(), msg)
}

// maskSecretArgs replaces raw byte slices with a length marker. Keys,
// seeds, and phrases are all []byte, so even a careless call site
// cannot leak one into the log.
func maskSecretArgs(args []any) []any {
	var masked []any
	for i, a := range args {
		b, ok := a.([]byte)
		if !ok {
			continue
		}
		if masked == nil {
			masked = append([]any(nil), args...)
		}
		masked[i] = fmt.Sprintf("[%d bytes]", len(b))
	}
	if masked == nil {
		return args
	}
	return masked
}
