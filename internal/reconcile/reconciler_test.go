package reconcile

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenwallet/lumen/internal/ledger"
	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

// recordingSink collects notifications.
type recordingSink struct {
	mu        sync.Mutex
	deltas    []uint64
	refreshes int
}

func (s *recordingSink) FundsReceived(delta uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deltas = append(s.deltas, delta)
}

func (s *recordingSink) HistoryRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
}

func (s *recordingSink) received() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.deltas...)
}

func (s *recordingSink) refreshCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

func openHandle(t *testing.T, secret string) ledger.Handle {
	t.Helper()
	h, err := ledger.NewMemClient().Open(context.Background(), []byte(secret), ledger.NetworkRegtest)
	require.NoError(t, err)
	return h
}

// settle blocks until no run is in flight and the snapshot is primed.
func settle(t *testing.T, r *Reconciler) {
	t.Helper()
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.primed && !r.running
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReconcilerNotifiesOnIncrease(t *testing.T) {
	t.Parallel()

	h := openHandle(t, "increase")
	sink := &recordingSink{}
	r := NewReconciler(h, sink, clock.NewTestClock(time.Unix(1000, 0)), nil)

	r.Start(context.Background())
	settle(t, r)
	assert.Equal(t, uint64(0), r.Current().Base)

	// Credit 50,000 and reconcile again.
	_, err := ledger.SettleTransfer(h, 50_000)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(sink.received()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	r.Stop()

	assert.Equal(t, []uint64{50_000}, sink.received())
	assert.Equal(t, 1, sink.refreshCount())
	assert.Equal(t, uint64(50_000), r.Current().Base)
}

func TestReconcilerInitialFetchDoesNotNotify(t *testing.T) {
	t.Parallel()

	h := openHandle(t, "preexisting")
	_, err := ledger.SettleTransfer(h, 1_000_000)
	require.NoError(t, err)

	sink := &recordingSink{}
	r := NewReconciler(h, sink, nil, nil)
	r.Start(context.Background())
	settle(t, r)
	r.Stop()

	// The baseline fetch sees the existing million but stays quiet.
	assert.Empty(t, sink.received())
	assert.Equal(t, uint64(1_000_000), r.Current().Base)
}

func TestReconcilerDecreaseIsSilent(t *testing.T) {
	t.Parallel()

	h := openHandle(t, "decrease")
	_, err := ledger.SettleTransfer(h, 1500)
	require.NoError(t, err)

	sink := &recordingSink{}
	r := NewReconciler(h, sink, nil, nil)
	r.Start(context.Background())

	// Baseline plus the credit event both land before the spend.
	require.Eventually(t, func() bool {
		return r.Current().Base == 1500
	}, 2*time.Second, 5*time.Millisecond)
	before := len(sink.received())

	_, err = h.Transfer(context.Background(), 500, "lmr1deadbeef")
	require.NoError(t, err)

	r.Trigger()
	require.Eventually(t, func() bool {
		return r.Current().Base == 1000
	}, 2*time.Second, 5*time.Millisecond)

	r.Stop()

	assert.Len(t, sink.received(), before, "spend must not look like received funds")
}

func TestReconcilerIncreaseDeltaAcrossRuns(t *testing.T) {
	t.Parallel()

	h := openHandle(t, "delta")
	_, err := ledger.SettleTransfer(h, 1000)
	require.NoError(t, err)

	sink := &recordingSink{}
	r := NewReconciler(h, sink, nil, nil)
	r.Start(context.Background())
	require.Eventually(t, func() bool {
		return r.Current().Base == 1000
	}, 2*time.Second, 5*time.Millisecond)
	sink.mu.Lock()
	sink.deltas = nil
	sink.mu.Unlock()

	_, err = ledger.SettleTransfer(h, 500)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(sink.received()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	r.Stop()

	// 1000 -> 1500 reports the delta, not the absolute value.
	assert.Equal(t, []uint64{500}, sink.received())
}

// recordingLog captures error lines.
type recordingLog struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLog) Debug(string, ...interface{}) {}

func (l *recordingLog) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func (l *recordingLog) lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

func TestReconcilerHintDisagreementKeepsFetchedValue(t *testing.T) {
	t.Parallel()

	h := openHandle(t, "hint mismatch")
	_, err := ledger.SettleTransfer(h, 800)
	require.NoError(t, err)

	sink := &recordingSink{}
	log := &recordingLog{}
	r := NewReconciler(h, sink, nil, log)
	r.Start(context.Background())
	settle(t, r)
	require.Equal(t, uint64(800), r.Current().Base)

	// An event hint that disagrees with the ledger must not displace
	// the fetched value; it only earns a diagnostic.
	stale := uint64(12_345)
	r.triggerWithHint(&stale)
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return !r.running
	}, 2*time.Second, 5*time.Millisecond)
	r.Stop()

	assert.Equal(t, uint64(800), r.Current().Base)
	assert.Empty(t, sink.received(), "a stale hint must not fake an increase")

	lines := log.lines()
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[len(lines)-1], "hint 12345 disagrees with fetched 800")
}

// gatedHandle blocks the first balance fetch until released and counts
// the calls.
type gatedHandle struct {
	ledger.Handle
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (g *gatedHandle) Balance(ctx context.Context) (ledger.Balance, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()

	if n == 1 {
		<-g.release
	}
	return g.Handle.Balance(ctx)
}

func (g *gatedHandle) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestReconcilerCoalescesTriggers(t *testing.T) {
	t.Parallel()

	gate := &gatedHandle{
		Handle:  openHandle(t, "coalesce"),
		release: make(chan struct{}),
	}
	r := NewReconciler(gate, &recordingSink{}, nil, nil)

	// First trigger blocks inside the fetch.
	r.Trigger()
	require.Eventually(t, func() bool {
		return gate.callCount() == 1
	}, 2*time.Second, 5*time.Millisecond)

	// A burst of triggers while it is in flight folds into one follow-up.
	for i := 0; i < 10; i++ {
		r.Trigger()
	}
	close(gate.release)

	settle(t, r)
	assert.Equal(t, 2, gate.callCount(), "burst must coalesce into a single follow-up run")
}

// failingHandle fails balance fetches on demand.
type failingHandle struct {
	ledger.Handle

	mu   sync.Mutex
	fail bool
}

func (f *failingHandle) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

func (f *failingHandle) Balance(ctx context.Context) (ledger.Balance, error) {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return ledger.Balance{}, lumenerr.ErrBalanceFetchFailed
	}
	return f.Handle.Balance(ctx)
}

func TestReconcilerKeepsSnapshotOnFetchError(t *testing.T) {
	t.Parallel()

	base := openHandle(t, "fetch error")
	_, err := ledger.SettleTransfer(base, 700)
	require.NoError(t, err)

	fh := &failingHandle{Handle: base}
	sink := &recordingSink{}
	r := NewReconciler(fh, sink, nil, nil)
	r.Start(context.Background())
	settle(t, r)
	require.Equal(t, uint64(700), r.Current().Base)

	fh.setFail(true)
	r.Trigger()
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return !r.running
	}, 2*time.Second, 5*time.Millisecond)

	// The failed run leaves the previous snapshot in place.
	assert.Equal(t, uint64(700), r.Current().Base)
	assert.Empty(t, sink.received())

	// And recovery resumes normal diffing.
	fh.setFail(false)
	_, err = ledger.SettleTransfer(base, 300)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return r.Current().Base == 1000
	}, 2*time.Second, 5*time.Millisecond)

	r.Stop()
	assert.Equal(t, []uint64{300}, sink.received())
}

func TestReconcilerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	r := NewReconciler(openHandle(t, "stop"), &recordingSink{}, nil, nil)
	r.Start(context.Background())
	settle(t, r)

	r.Stop()
	r.Stop()
}
