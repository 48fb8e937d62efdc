package cli

import (
	"github.com/spf13/cobra"

	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	sendTo     string
	sendAmount string

	withdrawAddr   string
	withdrawAmount string
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sendCmd = &cobra.Command{
	Use:     "send",
	Short:   "Send funds to a recipient",
	Example: `  lumen send --to lmr1... --amount 1000`,
	RunE:    runSend,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var withdrawCmd = &cobra.Command{
	Use:     "withdraw",
	Short:   "Withdraw funds to an on-chain address",
	Example: `  lumen withdraw --address lmr1... --amount 1000`,
	RunE:    runWithdraw,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	sendCmd.Flags().StringVar(&sendTo, "to", "", "recipient address")
	sendCmd.Flags().StringVar(&sendAmount, "amount", "", "amount in base units")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")

	withdrawCmd.Flags().StringVar(&withdrawAddr, "address", "", "destination on-chain address")
	withdrawCmd.Flags().StringVar(&withdrawAmount, "amount", "", "amount in base units")
	_ = withdrawCmd.MarkFlagRequired("address")
	_ = withdrawCmd.MarkFlagRequired("amount")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(withdrawCmd)
}

func runSend(cmd *cobra.Command, _ []string) error {
	amount, err := parseAmount(sendAmount)
	if err != nil {
		return err
	}

	recipient := cleanInput(sendTo)
	if recipient == "" {
		return lumenerr.ErrInvalidAddress
	}

	if err := ensureReady(cmd); err != nil {
		return err
	}

	id, err := app.Send(cmd.Context(), amount, recipient)
	if err != nil {
		return err
	}

	out(cmd.OutOrStdout(), "Sent %d to %s (tx %s)\n", amount, recipient, id)
	return nil
}

func runWithdraw(cmd *cobra.Command, _ []string) error {
	amount, err := parseAmount(withdrawAmount)
	if err != nil {
		return err
	}

	addr := cleanInput(withdrawAddr)
	if addr == "" {
		return lumenerr.ErrInvalidAddress
	}

	if err := ensureReady(cmd); err != nil {
		return err
	}

	id, err := app.Withdraw(cmd.Context(), addr, amount)
	if err != nil {
		return err
	}

	out(cmd.OutOrStdout(), "Withdrawal of %d to %s submitted (tx %s)\n", amount, addr, id)
	return nil
}
