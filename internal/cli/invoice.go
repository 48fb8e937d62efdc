package cli

import (
	"github.com/spf13/cobra"

	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	invoiceAmount string
	invoiceMemo   string
	invoiceMaxFee string
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Create, pay, or estimate payment requests",
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var invoiceCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a payment request",
	Example: `  lumen invoice create --amount 1000 --memo "coffee"`,
	RunE:    runInvoiceCreate,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var invoicePayCmd = &cobra.Command{
	Use:     "pay <invoice>",
	Short:   "Pay a payment request",
	Args:    cobra.ExactArgs(1),
	Example: `  lumen invoice pay lni1... --max-fee 10`,
	RunE:    runInvoicePay,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var invoiceFeeCmd = &cobra.Command{
	Use:     "fee <invoice>",
	Short:   "Estimate the fee for paying an invoice",
	Args:    cobra.ExactArgs(1),
	Example: `  lumen invoice fee lni1...`,
	RunE:    runInvoiceFee,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	invoiceCreateCmd.Flags().StringVar(&invoiceAmount, "amount", "", "amount in base units")
	invoiceCreateCmd.Flags().StringVar(&invoiceMemo, "memo", "", "optional memo")
	_ = invoiceCreateCmd.MarkFlagRequired("amount")

	invoicePayCmd.Flags().StringVar(&invoiceMaxFee, "max-fee", "", "maximum fee in base units")
	_ = invoicePayCmd.MarkFlagRequired("max-fee")

	rootCmd.AddCommand(invoiceCmd)
	invoiceCmd.AddCommand(invoiceCreateCmd)
	invoiceCmd.AddCommand(invoicePayCmd)
	invoiceCmd.AddCommand(invoiceFeeCmd)
}

func runInvoiceCreate(cmd *cobra.Command, _ []string) error {
	amount, err := parseAmount(invoiceAmount)
	if err != nil {
		return err
	}

	if err := ensureReady(cmd); err != nil {
		return err
	}

	invoice, err := app.CreateInvoice(cmd.Context(), amount, invoiceMemo)
	if err != nil {
		return err
	}

	out(cmd.OutOrStdout(), "Invoice: %s\n", invoice)
	return nil
}

func runInvoicePay(cmd *cobra.Command, args []string) error {
	maxFee, err := parseAmount(invoiceMaxFee)
	if err != nil {
		return err
	}

	invoice := cleanInput(args[0])
	if invoice == "" {
		return lumenerr.ErrInvalidInput
	}

	if err := ensureReady(cmd); err != nil {
		return err
	}

	id, err := app.PayInvoice(cmd.Context(), invoice, maxFee)
	if err != nil {
		return err
	}

	out(cmd.OutOrStdout(), "Paid (tx %s)\n", id)
	return nil
}

func runInvoiceFee(cmd *cobra.Command, args []string) error {
	invoice := cleanInput(args[0])
	if invoice == "" {
		return lumenerr.ErrInvalidInput
	}

	if err := ensureReady(cmd); err != nil {
		return err
	}

	fee, err := app.FeeEstimate(cmd.Context(), invoice)
	if err != nil {
		return err
	}

	out(cmd.OutOrStdout(), "Estimated fee: %d\n", fee)
	return nil
}
