// Package history keeps a bounded, in-memory trail of block verdicts.
package history

import (
	"fmt"
	"sync"

	"github.com/linkfence/linkfence/internal/guard/common/urlnorm"
	"github.com/linkfence/linkfence/internal/guard/domain"
)

// History is a fixed-capacity circular buffer of verdicts. When full, the
// oldest verdict is silently overwritten. Goroutine-safe for concurrent
// Append and read operations.
type History struct {
	mu    sync.Mutex
	buf   []domain.Verdict
	size  int
	head  int // next write position
	count int // number of valid entries (0..size)
}

// New creates a History with the given capacity.
func New(capacity int) (*History, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("history capacity must be at least 1, got %d", capacity)
	}
	return &History{
		buf:  make([]domain.Verdict, capacity),
		size: capacity,
	}, nil
}

// Append records a verdict, overwriting the oldest if the buffer is full.
func (h *History) Append(v domain.Verdict) {
	h.mu.Lock()
	h.buf[h.head] = v
	h.head = (h.head + 1) % h.size
	if h.count < h.size {
		h.count++
	}
	h.mu.Unlock()
}

// Snapshot returns a copy of all retained verdicts in insertion order
// (oldest first). The returned slice is safe to use without locks.
func (h *History) Snapshot() []domain.Verdict {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}

	result := make([]domain.Verdict, h.count)
	if h.count < h.size {
		copy(result, h.buf[:h.count])
	} else {
		n := copy(result, h.buf[h.head:])
		copy(result[n:], h.buf[:h.head])
	}
	return result
}

// Last returns the n most recent verdicts in insertion order.
// If n exceeds the retained count, all verdicts are returned. If n <= 0,
// Last returns nil.
func (h *History) Last(n int) []domain.Verdict {
	if n <= 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}
	if n > h.count {
		n = h.count
	}

	result := make([]domain.Verdict, n)
	start := (h.head - n + h.size) % h.size
	if start+n <= h.size {
		copy(result, h.buf[start:start+n])
	} else {
		first := h.size - start
		copy(result, h.buf[start:])
		copy(result[first:], h.buf[:n-first])
	}
	return result
}

// Len returns the number of verdicts currently retained.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Cap returns the buffer capacity.
func (h *History) Cap() int {
	return h.size
}

// SiteCounts returns the number of retained verdicts per registrable site
// of the offending URL. URLs whose site cannot be determined are grouped
// under "unknown".
func (h *History) SiteCounts() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	counts := make(map[string]int)
	start := 0
	if h.count >= h.size {
		start = h.head
	}
	for i := 0; i < h.count; i++ {
		idx := (start + i) % h.size
		site := urlnorm.Site(h.buf[idx].Event.URL)
		if site == "" {
			site = "unknown"
		}
		counts[site]++
	}
	return counts
}
