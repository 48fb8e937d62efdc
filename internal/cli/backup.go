package cli

import (
	"github.com/spf13/cobra"

	"github.com/lumenwallet/lumen/internal/vault"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export, import, or verify encrypted wallet backups",
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupExportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Export an encrypted backup of the recovery phrase",
	Example: `  lumen backup export`,
	RunE:    runBackupExport,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupImportCmd = &cobra.Command{
	Use:     "import <file>",
	Short:   "Restore a wallet from an encrypted backup",
	Args:    cobra.ExactArgs(1),
	Example: `  lumen backup import lumen-2026-01-15-093045.lumenbak`,
	RunE:    runBackupImport,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupVerifyCmd = &cobra.Command{
	Use:     "verify <file>",
	Short:   "Check a backup file's integrity without decrypting",
	Args:    cobra.ExactArgs(1),
	Example: `  lumen backup verify lumen-2026-01-15-093045.lumenbak`,
	RunE:    runBackupVerify,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List backups in the backup directory",
	Example: `  lumen backup list`,
	RunE:    runBackupList,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
	backupCmd.AddCommand(backupVerifyCmd)
	backupCmd.AddCommand(backupListCmd)
}

func runBackupExport(cmd *cobra.Command, _ []string) error {
	if err := ensureReady(cmd); err != nil {
		return err
	}

	password, err := promptNewPassword()
	if err != nil {
		return err
	}
	defer vault.ZeroBytes(password)

	path, err := app.ExportBackup(password)
	if err != nil {
		return err
	}

	out(cmd.OutOrStdout(), "Backup written to %s\n", path)
	return nil
}

func runBackupImport(cmd *cobra.Command, args []string) error {
	password, err := promptPassword("Enter backup password: ")
	if err != nil {
		return err
	}
	defer vault.ZeroBytes(password)

	manifest, res, err := app.ImportBackup(cmd.Context(), args[0], password)
	if err != nil {
		return err
	}

	out(cmd.OutOrStdout(), "Restored wallet %s (network %s, backed up %s)\n",
		manifest.WalletAddress, manifest.Network,
		manifest.CreatedAt.Format("2006-01-02"))
	return reportBoot(cmd, res)
}

func runBackupVerify(cmd *cobra.Command, args []string) error {
	manifest, err := app.VerifyBackup(args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	outln(w, "Backup is intact.")
	out(w, "  Wallet:  %s\n", manifest.WalletAddress)
	out(w, "  Network: %s\n", manifest.Network)
	out(w, "  Created: %s\n", manifest.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runBackupList(cmd *cobra.Command, _ []string) error {
	names, err := app.ListBackups()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(names) == 0 {
		outln(w, "No backups found.")
		return nil
	}
	for _, name := range names {
		outln(w, name)
	}
	return nil
}
