// Package core wires the wallet components together: the persisted
// vault, the session manager, the initialization machine, the deposit
// claim loop, and the balance reconciler. It owns their lifecycle and
// enforces the teardown ordering (consumers stop before secrets are
// discarded).
package core

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"

	"github.com/lumenwallet/lumen/internal/backup"
	"github.com/lumenwallet/lumen/internal/boot"
	"github.com/lumenwallet/lumen/internal/claim"
	"github.com/lumenwallet/lumen/internal/config"
	"github.com/lumenwallet/lumen/internal/ledger"
	"github.com/lumenwallet/lumen/internal/reconcile"
	"github.com/lumenwallet/lumen/internal/session"
	"github.com/lumenwallet/lumen/internal/store"
	"github.com/lumenwallet/lumen/internal/vault"
	"github.com/lumenwallet/lumen/internal/wallet"
	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

// Sink receives user-facing notifications from the background
// components. The CLI provides a writer-backed implementation.
type Sink interface {
	FundsReceived(delta uint64)
	ClaimFailed(addr string, err error)
	HistoryRefresh()
}

// Options configures a Core.
type Options struct {
	Config  *config.Config
	DataDir string
	Client  ledger.Client
	Sink    Sink
	Logger  *config.Logger

	// Clock and Ticker are injectable for tests; nil selects the wall
	// clock and an interval ticker from the config.
	Clock  clock.Clock
	Ticker ticker.Ticker
}

// Core owns every wallet component and the session generation counter.
type Core struct {
	cfg      *config.Config
	log      *config.Logger
	client   ledger.Client
	sink     Sink
	clk      clock.Clock
	tick     ticker.Ticker
	vault    *vault.Store
	sessions *session.Manager
	volatile *store.Volatile
	durable  *store.Durable
	watch    *claim.WatchSet
	backups  *backup.Service
	machine  *boot.Machine

	// generation increments on every reset; background results bound to
	// an older generation are discarded.
	generation atomic.Uint64

	mu    sync.Mutex
	loop  *claim.Loop
	recon *reconcile.Reconciler
}

// New builds a Core rooted at the data directory.
func New(opts Options) (*Core, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Defaults()
	}
	log := opts.Logger
	if log == nil {
		log = config.NullLogger()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.NewDefaultClock()
	}

	durable, err := store.OpenDurable(opts.DataDir)
	if err != nil {
		return nil, err
	}

	watch, err := claim.LoadWatchSet(durable)
	if err != nil {
		return nil, err
	}

	vaultStore := vault.NewStore(opts.DataDir)
	volatile := store.NewVolatile()
	ttl := time.Duration(cfg.Security.SessionTTLMinutes) * time.Minute
	sessions := session.NewManager(clk, ttl, cfg.Security.MemoryLock)

	c := &Core{
		cfg:      cfg,
		log:      log,
		client:   opts.Client,
		sink:     opts.Sink,
		clk:      clk,
		tick:     opts.Ticker,
		vault:    vaultStore,
		sessions: sessions,
		volatile: volatile,
		durable:  durable,
		watch:    watch,
		backups:  backup.NewService(filepath.Join(opts.DataDir, "backups")),
	}
	c.machine = boot.NewMachine(sessions, volatile, vaultStore, opts.Client,
		cfg.Network.Name, log)

	return c, nil
}

// Boot runs one initialization attempt. On success the claim loop and
// reconciler are started for the current generation.
func (c *Core) Boot(ctx context.Context) boot.Result {
	res := c.machine.Run(ctx)
	if res.Status == boot.StatusSuccess {
		c.startConsumers(ctx)
	}
	return res
}

// Unlock opens the persisted vault with password, mints a session, and
// re-runs the machine from needs_password. A wrong password surfaces
// ErrDecryptionFailed and changes nothing.
func (c *Core) Unlock(ctx context.Context, password []byte) (boot.Result, error) {
	env, err := c.vault.Load()
	if err != nil {
		return c.machine.Current(), err
	}

	if err := c.sessions.Start(env, password); err != nil {
		return c.machine.Current(), err
	}

	return c.Boot(ctx), nil
}

// Lock ends the session. The open wallet handle and background loops
// are untouched; the next password-requiring action re-prompts.
func (c *Core) Lock() {
	c.sessions.End()
}

// CreateWallet generates a fresh recovery phrase, seals it into the
// persisted vault under password, and boots. Refuses when a wallet
// already exists. The caller must show the returned phrase to the user
// exactly once.
func (c *Core) CreateWallet(ctx context.Context, password []byte) (string, boot.Result, error) {
	if c.vault.Exists() {
		return "", c.machine.Current(), lumenerr.ErrWalletExists
	}

	mnemonic, err := wallet.GenerateMnemonic(12)
	if err != nil {
		return "", c.machine.Current(), err
	}

	res, err := c.installSecret(ctx, []byte(mnemonic), password, false)
	if err != nil {
		return "", res, err
	}
	return mnemonic, res, nil
}

// RestoreWallet seals an existing recovery phrase into the persisted
// vault and boots. Refuses when a wallet already exists.
func (c *Core) RestoreWallet(ctx context.Context, mnemonic string, password []byte) (boot.Result, error) {
	if c.vault.Exists() {
		return c.machine.Current(), lumenerr.ErrWalletExists
	}

	normalized := wallet.NormalizeMnemonicInput(mnemonic)
	if err := wallet.ValidateMnemonic(normalized); err != nil {
		return c.machine.Current(), err
	}

	return c.installSecret(ctx, []byte(normalized), password, false)
}

// installSecret seals secret under password, caches the plaintext for
// the first boot, and runs the machine from a clean state.
func (c *Core) installSecret(ctx context.Context, secret, password []byte, replace bool) (boot.Result, error) {
	env, err := vault.Seal(secret, password)
	if err != nil {
		return c.machine.Current(), err
	}
	if err := c.vault.Save(env, replace); err != nil {
		return c.machine.Current(), err
	}

	// The fresh secret boots without a password prompt; the cache dies
	// with the process.
	c.volatile.Set(store.KeyCachedPhrase, secret)

	c.machine.Reset()
	return c.Boot(ctx), nil
}

// Reset tears the wallet down: generation bump, consumers stopped,
// session ended, vault and caches destroyed, watch set cleared. The
// ordering matters; nothing may consume secrets after they are gone.
func (c *Core) Reset() error {
	c.generation.Add(1)
	c.stopConsumers()

	c.sessions.End()
	c.machine.Reset()
	c.volatile.Wipe()

	if err := c.watch.Clear(); err != nil {
		return err
	}
	return c.vault.Delete()
}

// Close stops background work without destroying wallet state. For
// process shutdown.
func (c *Core) Close() {
	c.stopConsumers()
	c.sessions.End()
	c.machine.Reset()
	c.volatile.Wipe()
}

// startConsumers launches the claim loop and reconciler bound to the
// current generation. Idempotent per boot.
func (c *Core) startConsumers(ctx context.Context) {
	handle := c.machine.Handle()
	if handle == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loop != nil || c.recon != nil {
		return
	}

	gen := c.generation.Load()

	c.recon = reconcile.NewReconciler(handle, c.sinkAdapter(), c.clk, c.log)

	tick := c.tick
	if tick == nil {
		interval := time.Duration(c.cfg.Claim.IntervalSeconds) * time.Second
		if interval <= 0 {
			interval = claim.DefaultInterval
		}
		tick = ticker.New(interval)
	}

	onClaimed := func(string) {
		// A claim that lands after a reset belongs to a dead generation.
		if c.generation.Load() != gen {
			return
		}
		c.mu.Lock()
		recon := c.recon
		c.mu.Unlock()
		if recon != nil {
			recon.Trigger()
		}
	}

	c.loop = claim.NewLoop(c.watch, handle, tick, c.sinkAdapter(), onClaimed, c.log)

	c.recon.Start(ctx)
	c.loop.Start(ctx)
}

// stopConsumers halts the loop and reconciler, waiting for in-flight
// work, then forgets them.
func (c *Core) stopConsumers() {
	c.mu.Lock()
	loop, recon := c.loop, c.recon
	c.loop, c.recon = nil, nil
	c.mu.Unlock()

	if loop != nil {
		loop.Stop()
	}
	if recon != nil {
		recon.Stop()
	}
}

// sinkAdapter returns the sink or a no-op stand-in.
func (c *Core) sinkAdapter() *sinkShim {
	return &sinkShim{sink: c.sink}
}

// sinkShim tolerates a nil sink so the loops never have to check.
type sinkShim struct {
	sink Sink
}

func (s *sinkShim) FundsReceived(delta uint64) {
	if s.sink != nil {
		s.sink.FundsReceived(delta)
	}
}

func (s *sinkShim) ClaimFailed(addr string, err error) {
	if s.sink != nil {
		s.sink.ClaimFailed(addr, err)
	}
}

func (s *sinkShim) HistoryRefresh() {
	if s.sink != nil {
		s.sink.HistoryRefresh()
	}
}
