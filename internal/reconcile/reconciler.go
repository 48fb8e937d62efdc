// Package reconcile keeps the authoritative balance snapshot in sync
// with asynchronous ledger events and claim-loop activity, notifying
// the user when funds arrive.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/lightningnetwork/lnd/clock"

	"github.com/lumenwallet/lumen/internal/ledger"
)

// Snapshot is the last authoritative balance fetched from the ledger.
// It is replaced atomically on every reconciliation.
type Snapshot struct {
	Base      uint64
	Tokens    map[string]uint64
	FetchedAt time.Time
}

// Sink receives user-facing reconciliation outcomes.
type Sink interface {
	// FundsReceived fires when the base balance increased by delta.
	FundsReceived(delta uint64)

	// HistoryRefresh signals that the transaction history is stale.
	HistoryRefresh()
}

// LogWriter provides logging capabilities.
type LogWriter interface {
	Debug(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Reconciler serializes fetch-and-diff runs over the balance snapshot.
// Triggers arriving while a run is in flight coalesce into a single
// follow-up run; two runs never execute in parallel, so a stale
// "previous" can never be compared against a newer "new".
type Reconciler struct {
	handle ledger.Handle
	sink   Sink
	log    LogWriter
	clock  clock.Clock

	mu       sync.Mutex
	ctx      context.Context //nolint:containedctx // session-scoped, set once at Start
	snapshot Snapshot
	primed   bool
	running  bool
	pending  bool
	hint     *uint64

	sub     event.Subscription
	eventCh chan ledger.Event
	quit    chan struct{}
	wg      sync.WaitGroup
	started bool
	stopped bool
}

// NewReconciler creates a reconciler. A nil clk uses the wall clock.
func NewReconciler(handle ledger.Handle, sink Sink, clk clock.Clock, log LogWriter) *Reconciler {
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	return &Reconciler{
		handle:  handle,
		sink:    sink,
		log:     log,
		clock:   clk,
		eventCh: make(chan ledger.Event, 16),
		quit:    make(chan struct{}),
	}
}

// Start subscribes to the ledger event feed and performs the initial
// baseline fetch. The first successful fetch primes the snapshot
// without notifying; only increases observed after that are reported.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.ctx = ctx
	r.sub = r.handle.Events().Subscribe(r.eventCh)
	r.mu.Unlock()

	r.wg.Add(1)
	go r.consumeEvents(ctx)

	r.Trigger()
}

// Stop unsubscribes from the event feed and waits for in-flight work.
// Must be called before session secrets are discarded. Idempotent.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if r.stopped || !r.started {
		r.stopped = true
		r.mu.Unlock()
		return
	}
	r.stopped = true
	sub := r.sub
	r.mu.Unlock()

	// Unsubscribe first so no new events arrive, then drain the workers.
	sub.Unsubscribe()
	close(r.quit)
	r.wg.Wait()
}

// Current returns a copy of the snapshot.
func (r *Reconciler) Current() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copySnapshot(r.snapshot)
}

// Trigger requests a reconciliation run. Safe to call from any
// goroutine; concurrent triggers coalesce.
func (r *Reconciler) Trigger() {
	r.triggerWithHint(nil)
}

func (r *Reconciler) triggerWithHint(hint *uint64) {
	r.mu.Lock()
	if hint != nil {
		r.hint = hint
	}
	if r.running {
		r.pending = true
		r.mu.Unlock()
		return
	}
	r.running = true
	ctx := r.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	r.mu.Unlock()

	r.wg.Add(1)
	go r.runSerialized(ctx)
}

// runSerialized executes reconciliation runs until no follow-up is
// pending.
func (r *Reconciler) runSerialized(ctx context.Context) {
	defer r.wg.Done()

	for {
		r.reconcileOnce(ctx)

		r.mu.Lock()
		if r.pending {
			r.pending = false
			r.mu.Unlock()
			continue
		}
		r.running = false
		r.mu.Unlock()
		return
	}
}

// reconcileOnce performs one fetch-and-diff.
func (r *Reconciler) reconcileOnce(ctx context.Context) {
	r.mu.Lock()
	prev := r.snapshot
	primed := r.primed
	hint := r.hint
	r.hint = nil
	r.mu.Unlock()

	fresh, err := r.handle.Balance(ctx)
	if err != nil {
		// Non-fatal: keep the previous snapshot, retry on next trigger.
		if r.log != nil {
			r.log.Error("balance fetch failed: %v", err)
		}
		return
	}

	if hint != nil && *hint != fresh.Base {
		// The fetched value is authoritative; a disagreeing hint is a
		// diagnostic, not a fault.
		if r.log != nil {
			r.log.Error("balance hint %d disagrees with fetched %d", *hint, fresh.Base)
		}
	}

	next := Snapshot{
		Base:      fresh.Base,
		Tokens:    fresh.Tokens,
		FetchedAt: r.clock.Now(),
	}

	r.mu.Lock()
	r.snapshot = next
	r.primed = true
	r.mu.Unlock()

	if primed && next.Base > prev.Base && r.sink != nil {
		r.sink.FundsReceived(next.Base - prev.Base)
		r.sink.HistoryRefresh()
	}
}

// consumeEvents feeds ledger events into triggers.
func (r *Reconciler) consumeEvents(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case ev := <-r.eventCh:
			if r.log != nil {
				r.log.Debug("ledger event %s id=%s", ev.Type, ev.ID)
			}
			r.triggerWithHint(ev.BalanceHint)
		case <-r.sub.Err():
			return
		case <-ctx.Done():
			return
		case <-r.quit:
			return
		}
	}
}

func copySnapshot(s Snapshot) Snapshot {
	out := Snapshot{Base: s.Base, FetchedAt: s.FetchedAt}
	if s.Tokens != nil {
		out.Tokens = make(map[string]uint64, len(s.Tokens))
		for k, v := range s.Tokens {
			out.Tokens[k] = v
		}
	}
	return out
}
