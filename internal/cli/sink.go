package cli

import (
	"io"
	"sync"

	"github.com/lumenwallet/lumen/internal/config"
)

// consoleSink prints background notifications to the terminal. Writes
// are serialized so loop goroutines never interleave lines.
type consoleSink struct {
	mu  sync.Mutex
	w   io.Writer
	log *config.Logger
}

func newConsoleSink(w io.Writer, log *config.Logger) *consoleSink {
	return &consoleSink{w: w, log: log}
}

func (s *consoleSink) FundsReceived(delta uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out(s.w, "Funds received: +%d\n", delta)
}

func (s *consoleSink) ClaimFailed(addr string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out(s.w, "Deposit claim failed for %s: %v (will retry)\n", addr, err)
}

func (s *consoleSink) HistoryRefresh() {
	if s.log != nil {
		s.log.Debug("transaction history marked stale")
	}
}
