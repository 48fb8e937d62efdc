package core

import (
	"context"
	"time"

	"github.com/lumenwallet/lumen/internal/backup"
	"github.com/lumenwallet/lumen/internal/boot"
	"github.com/lumenwallet/lumen/internal/ledger"
	"github.com/lumenwallet/lumen/internal/reconcile"
	"github.com/lumenwallet/lumen/internal/store"
	"github.com/lumenwallet/lumen/internal/vault"
	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

// Status returns the initialization state.
func (c *Core) Status() boot.Result {
	return c.machine.Current()
}

// Address returns the wallet address, or "" before a successful boot.
func (c *Core) Address() string {
	return c.machine.Address()
}

// PublicKey returns the wallet public key, or "" before a successful
// boot.
func (c *Core) PublicKey() string {
	return c.machine.PublicKey()
}

// WalletExists reports whether a persisted vault is present.
func (c *Core) WalletExists() bool {
	return c.vault.Exists()
}

// SessionActive reports whether a non-expired session exists.
func (c *Core) SessionActive() bool {
	return c.sessions.Active()
}

// SessionExpiresIn returns the remaining session lifetime.
func (c *Core) SessionExpiresIn() time.Duration {
	return c.sessions.ExpiresIn()
}

// WatchedAddresses returns the deposit addresses still being scanned.
func (c *Core) WatchedAddresses() []string {
	return c.watch.Addresses()
}

// requireHandle returns the open wallet handle or an actionable error.
func (c *Core) requireHandle() (ledger.Handle, error) {
	handle := c.machine.Handle()
	if handle == nil {
		return nil, lumenerr.WithSuggestion(lumenerr.ErrNoSession,
			"run 'lumen unlock' first")
	}
	return handle, nil
}

// NewDepositAddress issues a fresh single-use deposit address and adds
// it to the watch set so the claim loop picks up its deposit.
func (c *Core) NewDepositAddress(ctx context.Context) (string, error) {
	handle, err := c.requireHandle()
	if err != nil {
		return "", err
	}

	addr, err := handle.SingleUseDepositAddress(ctx)
	if err != nil {
		return "", err
	}
	if err := c.watch.Add(addr); err != nil {
		return "", err
	}
	return addr, nil
}

// Send transfers amount base units to recipient.
func (c *Core) Send(ctx context.Context, amount uint64, recipient string) (string, error) {
	handle, err := c.requireHandle()
	if err != nil {
		return "", err
	}

	id, err := handle.Transfer(ctx, amount, recipient)
	if err != nil {
		return "", err
	}

	c.triggerReconcile()
	return id, nil
}

// CreateInvoice creates a payment request.
func (c *Core) CreateInvoice(ctx context.Context, amount uint64, memo string) (string, error) {
	handle, err := c.requireHandle()
	if err != nil {
		return "", err
	}
	return handle.CreateInvoice(ctx, amount, memo)
}

// PayInvoice pays an invoice, spending at most maxFee on fees.
func (c *Core) PayInvoice(ctx context.Context, invoice string, maxFee uint64) (string, error) {
	handle, err := c.requireHandle()
	if err != nil {
		return "", err
	}

	id, err := handle.PayInvoice(ctx, invoice, maxFee)
	if err != nil {
		return "", err
	}

	c.triggerReconcile()
	return id, nil
}

// FeeEstimate estimates the fee for paying an invoice.
func (c *Core) FeeEstimate(ctx context.Context, invoice string) (uint64, error) {
	handle, err := c.requireHandle()
	if err != nil {
		return 0, err
	}
	return handle.FeeEstimate(ctx, invoice)
}

// Withdraw moves amount base units to an on-chain address.
func (c *Core) Withdraw(ctx context.Context, addr string, amount uint64) (string, error) {
	handle, err := c.requireHandle()
	if err != nil {
		return "", err
	}

	id, err := handle.WithdrawOnchain(ctx, addr, amount)
	if err != nil {
		return "", err
	}

	c.triggerReconcile()
	return id, nil
}

// FetchBalance fetches the authoritative balance directly.
func (c *Core) FetchBalance(ctx context.Context) (ledger.Balance, error) {
	handle, err := c.requireHandle()
	if err != nil {
		return ledger.Balance{}, err
	}

	bal, err := handle.Balance(ctx)
	if err != nil {
		return ledger.Balance{}, lumenerr.WithDetails(lumenerr.ErrBalanceFetchFailed,
			map[string]string{"cause": err.Error()})
	}
	return bal, nil
}

// BalanceSnapshot returns the reconciler's last snapshot, or the zero
// snapshot before the first reconciliation.
func (c *Core) BalanceSnapshot() reconcile.Snapshot {
	c.mu.Lock()
	recon := c.recon
	c.mu.Unlock()

	if recon == nil {
		return reconcile.Snapshot{}
	}
	return recon.Current()
}

// triggerReconcile requests a reconciliation if one is running.
func (c *Core) triggerReconcile() {
	c.mu.Lock()
	recon := c.recon
	c.mu.Unlock()

	if recon != nil {
		recon.Trigger()
	}
}

// recoverySecret resolves the plaintext recovery secret from the
// session or the volatile caches. The caller must zero it after use.
func (c *Core) recoverySecret() ([]byte, error) {
	if secret, err := c.sessions.Secret(); err == nil && len(secret) > 0 {
		return secret, nil
	}
	if phrase := c.volatile.Get(store.KeyCachedPhrase); len(phrase) > 0 {
		return phrase, nil
	}
	if seed := c.volatile.Get(store.KeyRawSeed); len(seed) > 0 {
		return seed, nil
	}
	return nil, lumenerr.WithSuggestion(lumenerr.ErrNoSecret,
		"unlock the wallet first")
}

// ExportBackup writes an encrypted backup of the recovery secret and
// returns the backup path.
func (c *Core) ExportBackup(password []byte) (string, error) {
	secret, err := c.recoverySecret()
	if err != nil {
		return "", err
	}
	defer vault.ZeroBytes(secret)

	_, path, err := c.backups.Export(secret, c.machine.Address(),
		c.cfg.Network.Name, password)
	return path, err
}

// ImportBackup restores a wallet from a backup file: the backup secret
// is re-sealed into a fresh persisted vault under password, then the
// wallet boots. Refuses when a wallet already exists.
func (c *Core) ImportBackup(ctx context.Context, backupPath string, password []byte) (*backup.Manifest, boot.Result, error) {
	if c.vault.Exists() {
		return nil, c.machine.Current(), lumenerr.ErrWalletExists
	}

	secret, manifest, err := c.backups.Import(backupPath, password)
	if err != nil {
		return nil, c.machine.Current(), err
	}
	defer vault.ZeroBytes(secret)

	res, err := c.installSecret(ctx, secret, password, false)
	return manifest, res, err
}

// VerifyBackup checks a backup file's integrity without decrypting.
func (c *Core) VerifyBackup(backupPath string) (*backup.Manifest, error) {
	return c.backups.Verify(backupPath)
}

// ListBackups lists backup files in the backup directory.
func (c *Core) ListBackups() ([]string, error) {
	return c.backups.List()
}

// BackupPath resolves a backup filename to its full path.
func (c *Core) BackupPath(filename string) string {
	return c.backups.BackupPath(filename)
}
