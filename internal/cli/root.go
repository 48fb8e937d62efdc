// Package cli implements the Lumen command-line interface.
//
// This package uses global variables to manage CLI state, which is the
// standard pattern for Cobra-based CLI applications. The globals are
// initialized in PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumenwallet/lumen/internal/config"
	"github.com/lumenwallet/lumen/internal/core"
	"github.com/lumenwallet/lumen/internal/ledger"
	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

var (
	// Global flags
	homeDir string
	verbose bool

	// Global state initialized in PersistentPreRunE
	cfg    *config.Config
	logger *config.Logger
	app    *core.Core
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lumen",
	Short: "A self-custodial wallet CLI",
	Long: `Lumen is a terminal-based self-custodial value-transfer wallet.

Your recovery phrase is sealed into an encrypted vault on disk; unlocking
mints a short-lived in-memory session so you are not re-prompted on every
command. Matured deposits are claimed automatically while the wallet is
open.

Example:
  lumen wallet create
  lumen receive
  lumen balance
  lumen send --to lmr1... --amount 1000`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initGlobals()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(os.Stderr, err)
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return lumenerr.ExitCode(err)
}

// printError renders an error with its code and suggestion.
func printError(w io.Writer, err error) {
	var le *lumenerr.LumenError
	if lumenerr.As(err, &le) {
		out(w, "Error [%s]: %s\n", le.Code, le.Error())
		if le.Suggestion != "" {
			out(w, "Suggestion: %s\n", le.Suggestion)
		}
		return
	}
	out(w, "Error: %v\n", err)
}

// initGlobals initializes global configuration, logger, and core.
func initGlobals() error {
	// Determine home directory
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	// Load or create config
	configPath := config.Path(home)
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		// Use defaults if config doesn't exist
		cfg = config.Defaults()
		cfg.Home = home
	}

	// Apply environment variable overrides
	config.ApplyEnvironment(cfg)

	// Override with command-line flags
	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logLevel := config.ParseLogLevel(cfg.Logging.Level)
	logger, err = config.NewLogger(logLevel, cfg.Logging.File)
	if err != nil {
		// Use null logger if we can't create the file
		logger = config.NullLogger()
	}

	app, err = core.New(core.Options{
		Config:  cfg,
		DataDir: home,
		Client:  ledger.NewMemClient(),
		Sink:    newConsoleSink(os.Stderr, logger),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	return nil
}

// cleanup releases resources.
func cleanup() {
	if app != nil {
		app.Close()
	}
	if logger != nil {
		_ = logger.Close()
	}
}

// out is a helper for CLI output.
func out(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
func outln(w io.Writer, args ...interface{}) {
	fmt.Fprintln(w, args...)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "lumen data directory (default: ~/.lumen)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
