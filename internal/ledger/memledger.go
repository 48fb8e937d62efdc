package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/tyler-smith/go-bip32"

	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

// memClient is the in-memory ledger used by the demo network and tests.
// Identity is derived deterministically from the secret via BIP32, so
// the same recovery phrase always opens the same wallet.
type memClient struct {
	mu      sync.Mutex
	wallets map[string]*memWallet // keyed by address, survives reopen
}

// NewMemClient creates an in-memory ledger client. It accepts the
// regtest network only.
func NewMemClient() Client {
	return &memClient{wallets: make(map[string]*memWallet)}
}

// Open derives the wallet identity from secret and returns a handle.
func (c *memClient) Open(_ context.Context, secret []byte, network string) (Handle, error) {
	if network != NetworkRegtest {
		return nil, lumenerr.WithDetails(lumenerr.ErrLedgerOpenFailed, map[string]string{
			"network": network,
		})
	}
	if len(secret) == 0 {
		return nil, lumenerr.ErrLedgerOpenFailed
	}

	// BIP32 wants a 16-64 byte seed; the secret may be a mnemonic string,
	// so hash it down to a stable 32-byte seed first.
	seed := sha256.Sum256(secret)
	master, err := bip32.NewMasterKey(seed[:])
	if err != nil {
		return nil, lumenerr.Wrap(err, "deriving master key")
	}

	pub := master.PublicKey()
	addr := deriveAddress(pub.Key)

	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.wallets[addr]
	if !ok {
		w = &memWallet{
			master:   master,
			address:  addr,
			pubKey:   hex.EncodeToString(pub.Key),
			deposits: make(map[string]*memDeposit),
			tokens:   make(map[string]uint64),
		}
		c.wallets[addr] = w
	}

	return &memHandle{wallet: w}, nil
}

// deriveAddress renders a stable bech32-flavored demo address.
func deriveAddress(pubKey []byte) string {
	digest := sha256.Sum256(pubKey)
	return "lmr1" + hex.EncodeToString(digest[:20])
}

// memDeposit tracks a simulated on-chain deposit.
type memDeposit struct {
	id      string
	addr    string
	amount  uint64
	matured bool
	claimed bool
}

// memWallet is the shared state behind every handle for one identity.
type memWallet struct {
	mu       sync.Mutex
	master   *bip32.Key
	address  string
	pubKey   string
	base     uint64
	tokens   map[string]uint64
	deposits map[string]*memDeposit // keyed by deposit tx id
	depAddrs []string               // issued deposit addresses, in order
	nextID   int
	feed     event.Feed
}

type memHandle struct {
	wallet *memWallet
	closed bool
	mu     sync.Mutex
}

func (h *memHandle) Address() string   { return h.wallet.address }
func (h *memHandle) PublicKey() string { return h.wallet.pubKey }

func (h *memHandle) UnusedDepositAddresses(_ context.Context) ([]string, error) {
	w := h.wallet
	w.mu.Lock()
	defer w.mu.Unlock()

	claimedFor := make(map[string]bool)
	for _, d := range w.deposits {
		if d.claimed {
			claimedFor[d.addr] = true
		}
	}

	var out []string
	for _, a := range w.depAddrs {
		if !claimedFor[a] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (h *memHandle) SingleUseDepositAddress(_ context.Context) (string, error) {
	w := h.wallet
	w.mu.Lock()
	defer w.mu.Unlock()

	child, err := w.master.NewChildKey(uint32(len(w.depAddrs)))
	if err != nil {
		return "", fmt.Errorf("deriving deposit key: %w", err)
	}

	addr := deriveAddress(child.PublicKey().Key)
	w.depAddrs = append(w.depAddrs, addr)
	return addr, nil
}

func (h *memHandle) LatestMaturedDeposit(_ context.Context, addr string) (string, error) {
	w := h.wallet
	w.mu.Lock()
	defer w.mu.Unlock()

	latest := ""
	for _, d := range w.deposits {
		if d.addr == addr && d.matured && !d.claimed {
			// Deposit ids are sequential, so string comparison on the
			// zero-padded suffix picks the newest.
			if latest == "" || d.id > latest {
				latest = d.id
			}
		}
	}
	return latest, nil
}

func (h *memHandle) ClaimDeposit(_ context.Context, id string) error {
	w := h.wallet
	w.mu.Lock()

	d, ok := w.deposits[id]
	if !ok {
		w.mu.Unlock()
		return lumenerr.WithDetails(lumenerr.ErrClaimFailed, map[string]string{"id": id})
	}
	if d.claimed {
		w.mu.Unlock()
		return ErrAlreadyClaimed
	}
	if !d.matured {
		w.mu.Unlock()
		return lumenerr.WithDetails(lumenerr.ErrClaimFailed, map[string]string{
			"id":     id,
			"reason": "not matured",
		})
	}

	d.claimed = true
	w.base += d.amount
	hint := w.base
	w.mu.Unlock()

	w.feed.Send(Event{Type: EventDepositConfirmed, ID: id, BalanceHint: &hint})
	return nil
}

func (h *memHandle) Balance(_ context.Context) (Balance, error) {
	w := h.wallet
	w.mu.Lock()
	defer w.mu.Unlock()

	tokens := make(map[string]uint64, len(w.tokens))
	for k, v := range w.tokens {
		tokens[k] = v
	}
	return Balance{Base: w.base, Tokens: tokens}, nil
}

func (h *memHandle) Transfer(_ context.Context, amount uint64, recipient string) (string, error) {
	if recipient == "" {
		return "", lumenerr.ErrInvalidAddress
	}

	w := h.wallet
	w.mu.Lock()
	defer w.mu.Unlock()

	if amount > w.base {
		return "", lumenerr.ErrInsufficientFunds
	}
	w.base -= amount
	return w.nextIDLocked("tx"), nil
}

// invoicePayload is the decoded body of a demo invoice.
type invoicePayload struct {
	Amount uint64 `json:"amount"`
	Memo   string `json:"memo"`
}

func (h *memHandle) CreateInvoice(_ context.Context, amount uint64, memo string) (string, error) {
	raw, err := json.Marshal(invoicePayload{Amount: amount, Memo: memo})
	if err != nil {
		return "", err
	}
	return "lni1" + base64.RawStdEncoding.EncodeToString(raw), nil
}

func (h *memHandle) PayInvoice(_ context.Context, invoice string, maxFee uint64) (string, error) {
	payload, err := decodeInvoice(invoice)
	if err != nil {
		return "", err
	}

	fee := invoiceFee(payload.Amount)
	if fee > maxFee {
		return "", lumenerr.WithDetails(lumenerr.ErrInvalidAmount, map[string]string{
			"reason": "fee exceeds max",
		})
	}

	// amount+fee must not wrap around and sneak under the balance check.
	if payload.Amount > math.MaxUint64-fee {
		return "", lumenerr.ErrInsufficientFunds
	}

	w := h.wallet
	w.mu.Lock()
	defer w.mu.Unlock()

	total := payload.Amount + fee
	if total > w.base {
		return "", lumenerr.ErrInsufficientFunds
	}
	w.base -= total
	return w.nextIDLocked("pay"), nil
}

func (h *memHandle) WithdrawOnchain(_ context.Context, addr string, amount uint64) (string, error) {
	if addr == "" {
		return "", lumenerr.ErrInvalidAddress
	}

	w := h.wallet
	w.mu.Lock()
	defer w.mu.Unlock()

	if amount > w.base {
		return "", lumenerr.ErrInsufficientFunds
	}
	w.base -= amount
	return w.nextIDLocked("wd"), nil
}

func (h *memHandle) FeeEstimate(_ context.Context, invoice string) (uint64, error) {
	payload, err := decodeInvoice(invoice)
	if err != nil {
		return 0, err
	}
	return invoiceFee(payload.Amount), nil
}

func (h *memHandle) Events() *event.Feed {
	return &h.wallet.feed
}

func (h *memHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// nextIDLocked mints a sequential, sortable identifier. Caller holds
// the wallet mutex.
func (w *memWallet) nextIDLocked(prefix string) string {
	w.nextID++
	return fmt.Sprintf("%s-%08d", prefix, w.nextID)
}

func decodeInvoice(invoice string) (*invoicePayload, error) {
	const prefix = "lni1"
	if len(invoice) <= len(prefix) || invoice[:len(prefix)] != prefix {
		return nil, lumenerr.ErrInvalidInput
	}
	raw, err := base64.RawStdEncoding.DecodeString(invoice[len(prefix):])
	if err != nil {
		return nil, lumenerr.ErrInvalidInput
	}
	var payload invoicePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, lumenerr.ErrInvalidInput
	}
	return &payload, nil
}

// invoiceFee is a flat 0.1% with a floor of 1 base unit.
func invoiceFee(amount uint64) uint64 {
	fee := amount / 1000
	if fee == 0 {
		fee = 1
	}
	return fee
}

// FundDeposit records a matured deposit awaiting claim for addr.
// Simulation hook used by tests and the demo network. Returns the
// deposit transaction id.
func FundDeposit(h Handle, addr string, amount uint64) (string, error) {
	mh, ok := h.(*memHandle)
	if !ok {
		return "", fmt.Errorf("handle is not a memledger handle")
	}

	w := mh.wallet
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextIDLocked("dep")
	w.deposits[id] = &memDeposit{
		id:      id,
		addr:    addr,
		amount:  amount,
		matured: true,
	}
	return id, nil
}

// SettleTransfer credits an incoming transfer and publishes the
// transfer:claimed event. Simulation hook.
func SettleTransfer(h Handle, amount uint64) (string, error) {
	mh, ok := h.(*memHandle)
	if !ok {
		return "", fmt.Errorf("handle is not a memledger handle")
	}

	w := mh.wallet
	w.mu.Lock()
	w.base += amount
	hint := w.base
	id := w.nextIDLocked("xfer")
	w.mu.Unlock()

	w.feed.Send(Event{Type: EventTransferClaimed, ID: id, BalanceHint: &hint})
	return id, nil
}
