package cli

import (
	"sort"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var balanceCmd = &cobra.Command{
	Use:     "balance",
	Short:   "Show the authoritative wallet balance",
	Example: `  lumen balance`,
	RunE:    runBalance,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Issue a fresh deposit address",
	Long: `Issue a single-use deposit address. The address is watched; a
matured deposit to it is claimed automatically next time the wallet is
open.`,
	Example: `  lumen receive`,
	RunE:    runReceive,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(receiveCmd)
}

func runBalance(cmd *cobra.Command, _ []string) error {
	if err := ensureReady(cmd); err != nil {
		return err
	}

	bal, err := app.FetchBalance(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	out(w, "Balance: %d\n", bal.Base)

	if len(bal.Tokens) > 0 {
		names := make([]string, 0, len(bal.Tokens))
		for name := range bal.Tokens {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out(w, "  %s: %d\n", name, bal.Tokens[name])
		}
	}
	return nil
}

func runReceive(cmd *cobra.Command, _ []string) error {
	if err := ensureReady(cmd); err != nil {
		return err
	}

	addr, err := app.NewDepositAddress(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	out(w, "Deposit address: %s\n", addr)
	outln(w, "The address is single-use and now being watched for a deposit.")
	return nil
}
