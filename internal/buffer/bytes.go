package buffer

import (
	"bytes"
	"sync"
)

// DefaultScrollback is the terminal history kept when no size is configured.
const DefaultScrollback = 256 * 1024

// Scrollback is a thread-safe byte buffer that keeps the most recent terminal
// output up to a fixed capacity. When the buffer overflows, the oldest bytes
// are discarded and the remainder is trimmed forward to the next line break so
// the retained history never starts in the middle of a line or an escape
// sequence.
type Scrollback struct {
	data     []byte
	capacity int
	mu       sync.RWMutex
}

// NewScrollback creates a Scrollback with the specified capacity in bytes.
// The capacity must be greater than 0; if not, it defaults to 1.
func NewScrollback(capacity int) *Scrollback {
	if capacity <= 0 {
		capacity = 1
	}
	return &Scrollback{
		data:     make([]byte, 0, capacity),
		capacity: capacity,
	}
}

// Write appends p, discarding the oldest output once capacity is exceeded.
// This method implements io.Writer interface.
func (s *Scrollback) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(p) >= s.capacity {
		s.data = append(s.data[:0], p[len(p)-s.capacity:]...)
		s.trimToLine()
		return len(p), nil
	}

	newLen := len(s.data) + len(p)
	if newLen <= s.capacity {
		s.data = append(s.data, p...)
		return len(p), nil
	}

	discard := newLen - s.capacity
	kept := copy(s.data, s.data[discard:])
	s.data = append(s.data[:kept], p...)
	s.trimToLine()

	return len(p), nil
}

// trimToLine drops the partial first line left behind by eviction. If the
// buffer holds a single line it is kept as is.
func (s *Scrollback) trimToLine() {
	i := bytes.IndexByte(s.data, '\n')
	if i < 0 || i == len(s.data)-1 {
		return
	}
	kept := copy(s.data, s.data[i+1:])
	s.data = s.data[:kept]
}

// Bytes returns a copy of all data currently in the buffer.
func (s *Scrollback) Bytes() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.data) == 0 {
		return nil
	}

	result := make([]byte, len(s.data))
	copy(result, s.data)
	return result
}

// Reset removes all data from the buffer.
func (s *Scrollback) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = s.data[:0]
}

// Len returns the current number of bytes in the buffer.
func (s *Scrollback) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

// Cap returns the capacity of the buffer.
func (s *Scrollback) Cap() int {
	return s.capacity
}
