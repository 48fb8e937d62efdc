package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumenwallet/lumen/internal/boot"
	"github.com/lumenwallet/lumen/internal/vault"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var unlockCmd = &cobra.Command{
	Use:     "unlock",
	Short:   "Unlock the wallet with your password",
	Example: `  lumen unlock`,
	RunE:    runUnlock,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var lockCmd = &cobra.Command{
	Use:     "lock",
	Short:   "End the session immediately",
	Example: `  lumen lock`,
	RunE:    runLock,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show initialization and session state",
	Example: `  lumen status`,
	RunE:    runStatus,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(statusCmd)
}

func runUnlock(cmd *cobra.Command, _ []string) error {
	res := app.Boot(cmd.Context())
	if res.Status == boot.StatusSuccess {
		outln(cmd.OutOrStdout(), "Wallet already unlocked.")
		return nil
	}
	if res.Status != boot.StatusNeedsPassword {
		return ensureReady(cmd)
	}

	password, err := promptPassword("Enter wallet password: ")
	if err != nil {
		return err
	}
	defer vault.ZeroBytes(password)

	res, err = app.Unlock(cmd.Context(), password)
	if err != nil {
		return err
	}
	return reportBoot(cmd, res)
}

func runLock(cmd *cobra.Command, _ []string) error {
	app.Lock()
	outln(cmd.OutOrStdout(), "Session ended.")
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	res := app.Status()

	out(w, "State:   %s\n", res.Status)
	if res.Status == boot.StatusError {
		out(w, "Error:   %s\n", res.Err)
	}
	out(w, "Vault:   %s\n", presence(app.WalletExists()))
	if app.SessionActive() {
		out(w, "Session: active, expires in %s\n", formatDuration(app.SessionExpiresIn()))
	} else {
		outln(w, "Session: none")
	}
	return nil
}

func presence(exists bool) string {
	if exists {
		return "present"
	}
	return "absent"
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}
