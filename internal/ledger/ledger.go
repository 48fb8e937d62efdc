// Package ledger defines the contract with the external ledger client
// that performs key derivation, transfers, and deposit claims. The core
// only ever talks to these interfaces; memledger provides an in-memory
// implementation for the demo network and tests.
package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/event"

	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

// Known network identifiers.
const (
	NetworkMainnet = "mainnet"
	NetworkRegtest = "regtest"
)

// ErrAlreadyClaimed indicates a deposit was claimed by a previous call.
// Callers treat it as success without notifying again.
var ErrAlreadyClaimed = lumenerr.New("ALREADY_CLAIMED", "deposit already claimed")

// Balance is the authoritative wallet balance: the base unit amount plus
// per-token amounts.
type Balance struct {
	Base   uint64
	Tokens map[string]uint64
}

// EventType identifies an asynchronous ledger event.
type EventType string

// Event types published on the handle's feed.
const (
	// EventTransferClaimed fires when an incoming transfer settles.
	EventTransferClaimed EventType = "transfer:claimed"

	// EventDepositConfirmed fires when an on-chain deposit confirms.
	EventDepositConfirmed EventType = "deposit:confirmed"
)

// Event is an asynchronous notification from the ledger client. The
// balance hint, when present, is advisory only; the fetched balance is
// always authoritative.
type Event struct {
	Type        EventType
	ID          string
	BalanceHint *uint64
}

// Client opens a wallet connection from a recovery secret.
type Client interface {
	// Open establishes a handle for the given secret and network.
	// A rejected secret or unknown network fails with ErrLedgerOpenFailed.
	Open(ctx context.Context, secret []byte, network string) (Handle, error)
}

// Handle is a live wallet connection. All methods are safe for
// concurrent use.
type Handle interface {
	// Address returns the wallet's primary address.
	Address() string

	// PublicKey returns the wallet's public key, hex encoded.
	PublicKey() string

	// UnusedDepositAddresses lists previously issued deposit addresses
	// that have not yet received a claimed deposit.
	UnusedDepositAddresses(ctx context.Context) ([]string, error)

	// SingleUseDepositAddress issues a fresh single-use deposit address.
	SingleUseDepositAddress(ctx context.Context) (string, error)

	// LatestMaturedDeposit returns the transaction id of the newest
	// matured, unclaimed deposit for addr, or "" if there is none.
	LatestMaturedDeposit(ctx context.Context, addr string) (string, error)

	// ClaimDeposit credits a matured deposit to the spendable balance.
	// Returns ErrAlreadyClaimed if a previous claim already settled it.
	ClaimDeposit(ctx context.Context, id string) error

	// Balance fetches the authoritative balance.
	Balance(ctx context.Context) (Balance, error)

	// Transfer sends amount base units to recipient, returning a
	// transfer id.
	Transfer(ctx context.Context, amount uint64, recipient string) (string, error)

	// CreateInvoice creates a payment request for amount with a memo.
	CreateInvoice(ctx context.Context, amount uint64, memo string) (string, error)

	// PayInvoice pays an invoice, spending at most maxFee on fees.
	PayInvoice(ctx context.Context, invoice string, maxFee uint64) (string, error)

	// WithdrawOnchain moves amount base units to an on-chain address.
	WithdrawOnchain(ctx context.Context, addr string, amount uint64) (string, error)

	// FeeEstimate estimates the fee for paying an invoice.
	FeeEstimate(ctx context.Context, invoice string) (uint64, error)

	// Events returns the feed publishing Event values. Subscribe with a
	// chan Event; the returned subscription must be unsubscribed on
	// teardown.
	Events() *event.Feed

	// Close releases the connection.
	Close() error
}
