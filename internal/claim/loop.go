package claim

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/ticker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/lumenwallet/lumen/internal/ledger"
)

const (
	// DefaultInterval is how often the loop scans watched addresses.
	DefaultInterval = 30 * time.Second

	// maxConcurrentScans bounds the per-tick address fan-out.
	maxConcurrentScans = 8

	// claimsPerSecond bounds claim attempts so one poisoned address
	// retrying forever cannot starve a cycle.
	claimsPerSecond = 4
)

// Notifier receives user-facing claim outcomes.
type Notifier interface {
	ClaimFailed(addr string, err error)
}

// LogWriter provides logging capabilities.
type LogWriter interface {
	Debug(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Loop periodically scans the watch set and claims matured deposits.
// Addresses are scanned concurrently and independently: one failing
// address never aborts the cycle or affects the others, it simply stays
// watched for the next tick.
type Loop struct {
	set      *WatchSet
	handle   ledger.Handle
	tick     ticker.Ticker
	notifier Notifier
	log      LogWriter

	// onClaimed signals that a claim landed and a balance refresh is
	// warranted.
	onClaimed func(addr string)

	limiter *rate.Limiter

	startOnce sync.Once
	stopOnce  sync.Once
	quit      chan struct{}
	wg        sync.WaitGroup
}

// NewLoop creates a claim loop. A nil t uses the default interval
// ticker.
func NewLoop(set *WatchSet, handle ledger.Handle, t ticker.Ticker,
	notifier Notifier, onClaimed func(addr string), log LogWriter) *Loop {

	if t == nil {
		t = ticker.New(DefaultInterval)
	}

	return &Loop{
		set:       set,
		handle:    handle,
		tick:      t,
		notifier:  notifier,
		log:       log,
		onClaimed: onClaimed,
		limiter:   rate.NewLimiter(rate.Limit(claimsPerSecond), claimsPerSecond),
		quit:      make(chan struct{}),
	}
}

// Start launches the loop goroutine. Safe to call once.
func (l *Loop) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		l.tick.Resume()
		l.wg.Add(1)
		go l.run(ctx)
	})
}

// Stop halts the ticker and waits for the loop goroutine to exit.
// In-flight per-address work finishes before Stop returns, so callers
// can safely discard secrets afterwards. Idempotent.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.tick.Stop()
		close(l.quit)
	})
	l.wg.Wait()
}

func (l *Loop) run(ctx context.Context) {
	defer l.wg.Done()

	for {
		select {
		case <-l.tick.Ticks():
			l.scan(ctx)
		case <-ctx.Done():
			return
		case <-l.quit:
			return
		}
	}
}

// scan runs one cycle over a snapshot of the watch set.
func (l *Loop) scan(ctx context.Context) {
	addrs := l.set.Addresses()
	if len(addrs) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentScans)

	for _, addr := range addrs {
		addr := addr
		g.Go(func() error {
			l.scanAddress(ctx, addr)
			// Failures are isolated per address and already reported;
			// never fail the group.
			return nil
		})
	}

	_ = g.Wait()
}

// scanAddress checks one address for a matured deposit and claims it.
func (l *Loop) scanAddress(ctx context.Context, addr string) {
	id, err := l.handle.LatestMaturedDeposit(ctx, addr)
	if err != nil {
		l.reportFailure(addr, err)
		return
	}
	if id == "" {
		return
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return
	}

	err = l.handle.ClaimDeposit(ctx, id)
	switch {
	case err == nil:
		if removeErr := l.set.Remove(addr); removeErr != nil && l.log != nil {
			l.log.Error("removing claimed address %s: %v", addr, removeErr)
		}
		if l.log != nil {
			l.log.Debug("claimed deposit %s for %s", id, addr)
		}
		if l.onClaimed != nil {
			l.onClaimed(addr)
		}

	case errors.Is(err, ledger.ErrAlreadyClaimed):
		// Settled by an earlier attempt: stop watching, but do not
		// signal again.
		_ = l.set.Remove(addr)

	default:
		l.reportFailure(addr, err)
	}
}

func (l *Loop) reportFailure(addr string, err error) {
	if l.log != nil {
		l.log.Error("claim scan failed for %s: %v", addr, err)
	}
	if l.notifier != nil {
		l.notifier.ClaimFailed(addr, err)
	}
}
