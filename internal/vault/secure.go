package vault

import (
	"runtime"
	"sync"
)

// ZeroBytes securely zeros a byte slice.
// runtime.KeepAlive prevents the compiler from optimizing away the zeroing
// as a dead store when the slice is not used afterward.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// SecureBuffer wraps a sensitive byte slice with best-effort mlock and
// explicit zeroing.
type SecureBuffer struct {
	data   []byte
	locked bool
	mu     sync.Mutex
}

// NewSecureBuffer copies data into a buffer that is zeroed on Destroy.
// When lock is set the memory is additionally mlocked; locking is best
// effort, and on systems where mlock fails the buffer still works, it
// is just swappable.
func NewSecureBuffer(data []byte, lock bool) *SecureBuffer {
	buf := make([]byte, len(data))
	copy(buf, data)

	sb := &SecureBuffer{
		data:   buf,
		locked: lock && mlock(buf),
	}

	// Finalizer as a backstop for callers that forget Destroy.
	runtime.SetFinalizer(sb, func(s *SecureBuffer) {
		s.Destroy()
	})

	return sb
}

// Bytes returns the underlying slice, or nil after Destroy.
func (s *SecureBuffer) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// IsLocked reports whether the memory is mlocked.
func (s *SecureBuffer) IsLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Len returns the buffer length, 0 after Destroy.
func (s *SecureBuffer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Destroy zeros the memory and unlocks it. Safe to call multiple times.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return
	}

	for i := range s.data {
		s.data[i] = 0
	}

	if s.locked {
		munlock(s.data)
		s.locked = false
	}

	s.data = nil
	runtime.SetFinalizer(s, nil)
}
