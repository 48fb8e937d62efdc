package cli

import (
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
	"github.com/spf13/cobra"

	"github.com/lumenwallet/lumen/internal/boot"
	"github.com/lumenwallet/lumen/internal/vault"
	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

// ensureReady boots the wallet and, when a password is needed, prompts
// for it. After a nil return the core holds an open wallet handle.
func ensureReady(cmd *cobra.Command) error {
	ctx := cmd.Context()

	res := app.Boot(ctx)
	switch res.Status {
	case boot.StatusSuccess:
		return nil

	case boot.StatusNeedsPassword:
		password, err := promptPassword("Enter wallet password: ")
		if err != nil {
			return err
		}
		defer vault.ZeroBytes(password)

		res, err = app.Unlock(ctx, password)
		if err != nil {
			return err
		}
		if res.Status != boot.StatusSuccess {
			return lumenerr.Wrap(lumenerr.ErrLedgerOpenFailed, "%s", res.Err)
		}
		return nil

	case boot.StatusNoWallet:
		return lumenerr.WithSuggestion(lumenerr.ErrWalletNotFound,
			"run 'lumen wallet create' or 'lumen wallet restore'")

	case boot.StatusError:
		return lumenerr.Wrap(lumenerr.ErrLedgerOpenFailed, "%s", res.Err)

	case boot.StatusIdle, boot.StatusLoading:
	}

	return lumenerr.ErrGeneral
}

// parseAmount parses a positive base-unit amount.
func parseAmount(s string) (uint64, error) {
	amount, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || amount == 0 {
		return 0, lumenerr.WithSuggestion(lumenerr.ErrInvalidAmount,
			"amount must be a positive whole number of base units")
	}
	return amount, nil
}

// cleanInput strips copy-paste artifacts from single-line user input
// such as addresses and invoices.
func cleanInput(s string) string {
	return strings.TrimSpace(sanitize.SingleLine(s))
}
