package cli

import (
	"github.com/spf13/cobra"
)

// sessionCmd is the parent command for session operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the unlock session",
	Long: `Manage the in-memory unlock session.

After a successful unlock, Lumen keeps your recovery phrase re-encrypted
under a random key for a limited time (default: 30 minutes) so you don't
need to enter your password for every action. The session lives only in
process memory and never survives a restart.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the session state and remaining time",
	Example: `  lumen session status`,
	RunE:    runSessionStatus,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End the session immediately",
	Long: `End the session immediately. Use this when stepping away from
your computer so the recovery phrase is not held in memory.`,
	Example: `  lumen session end`,
	RunE:    runSessionEnd,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionEndCmd)
}

func runSessionStatus(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()

	if !app.SessionActive() {
		outln(w, "No active session")
		return nil
	}

	out(w, "Session active, expires in %s\n", formatDuration(app.SessionExpiresIn()))
	return nil
}

func runSessionEnd(cmd *cobra.Command, _ []string) error {
	app.Lock()
	outln(cmd.OutOrStdout(), "Session ended.")
	return nil
}
