package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumenwallet/lumen/internal/boot"
	"github.com/lumenwallet/lumen/internal/vault"
	"github.com/lumenwallet/lumen/internal/wallet"
	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

// walletCmd is the parent command for wallet lifecycle operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Create, restore, inspect, or reset the wallet",
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new wallet",
	Long: `Create a new wallet with a fresh 12-word recovery phrase.

The phrase is shown exactly once. Write it down and store it safely;
it is the only way to recover your funds.`,
	Example: `  lumen wallet create`,
	RunE:    runWalletCreate,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletRestoreCmd = &cobra.Command{
	Use:     "restore",
	Short:   "Restore a wallet from a recovery phrase",
	Example: `  lumen wallet restore`,
	RunE:    runWalletRestore,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Destroy the wallet and all local state",
	Long: `Destroy the persisted vault, the watched deposit set, and every
cached secret. Funds are only recoverable with the recovery phrase.`,
	Example: `  lumen wallet reset`,
	RunE:    runWalletReset,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletInfoCmd = &cobra.Command{
	Use:     "info",
	Short:   "Show wallet identity and state",
	Example: `  lumen wallet info`,
	RunE:    runWalletInfo,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletCreateCmd)
	walletCmd.AddCommand(walletRestoreCmd)
	walletCmd.AddCommand(walletResetCmd)
	walletCmd.AddCommand(walletInfoCmd)
}

func runWalletCreate(cmd *cobra.Command, _ []string) error {
	if app.WalletExists() {
		return lumenerr.WithSuggestion(lumenerr.ErrWalletExists,
			"run 'lumen wallet reset' first if you really want a new wallet")
	}

	password, err := promptNewPassword()
	if err != nil {
		return err
	}
	defer vault.ZeroBytes(password)

	mnemonic, res, err := app.CreateWallet(cmd.Context(), password)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	outln(w)
	outln(w, "Your recovery phrase (shown once, write it down now):")
	outln(w)
	out(w, "  %s\n", mnemonic)
	outln(w)
	outln(w, "Anyone with this phrase can spend your funds.")

	return reportBoot(cmd, res)
}

func runWalletRestore(cmd *cobra.Command, _ []string) error {
	if app.WalletExists() {
		return lumenerr.WithSuggestion(lumenerr.ErrWalletExists,
			"run 'lumen wallet reset' first")
	}

	raw, err := promptMnemonic()
	if err != nil {
		return err
	}

	normalized := wallet.NormalizeMnemonicInput(raw)
	if validateErr := wallet.ValidateMnemonic(normalized); validateErr != nil {
		// Point at likely typos before failing.
		if typos := wallet.DetectTypos(normalized); len(typos) > 0 {
			hints := make([]string, 0, len(typos))
			for _, typo := range typos {
				hints = append(hints, typo.Word+" -> "+typo.Suggestion)
			}
			return lumenerr.WithSuggestion(validateErr,
				"possible typos: "+strings.Join(hints, ", "))
		}
		return validateErr
	}

	password, err := promptNewPassword()
	if err != nil {
		return err
	}
	defer vault.ZeroBytes(password)

	res, err := app.RestoreWallet(cmd.Context(), normalized, password)
	if err != nil {
		return err
	}

	return reportBoot(cmd, res)
}

func runWalletReset(cmd *cobra.Command, _ []string) error {
	if !app.WalletExists() {
		outln(cmd.OutOrStdout(), "No wallet to reset.")
		return nil
	}

	if !promptConfirm("This destroys the local wallet. Continue?") {
		outln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	if err := app.Reset(); err != nil {
		return err
	}

	outln(cmd.OutOrStdout(), "Wallet reset. Restore it anytime with the recovery phrase.")
	return nil
}

func runWalletInfo(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()

	if !app.WalletExists() {
		outln(w, "No wallet. Run 'lumen wallet create' to get started.")
		return nil
	}

	res := app.Boot(cmd.Context())
	out(w, "Network:  %s\n", cfg.Network.Name)
	out(w, "State:    %s\n", res.Status)
	if res.Status == boot.StatusSuccess {
		out(w, "Address:  %s\n", app.Address())
		out(w, "Pubkey:   %s\n", app.PublicKey())
	}
	out(w, "Watched deposit addresses: %d\n", len(app.WatchedAddresses()))
	return nil
}

// reportBoot prints the post-setup boot outcome.
func reportBoot(cmd *cobra.Command, res boot.Result) error {
	w := cmd.OutOrStdout()

	if res.Status != boot.StatusSuccess {
		return lumenerr.Wrap(lumenerr.ErrLedgerOpenFailed, "%s", res.Err)
	}
	out(w, "\nWallet ready. Address: %s\n", app.Address())
	return nil
}
