package log

import (
	"strings"
	"sync"
)

// RingBuffer holds recent log entries for the overlay and for diagnostics.
type RingBuffer struct {
	mu       sync.RWMutex
	entries  []string
	capacity int
	head     int
	size     int
}

// NewRingBuffer creates a buffer with given capacity.
// Values <= 0 fall back to DefaultBufferSize.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &RingBuffer{
		entries:  make([]string, capacity),
		capacity: capacity,
	}
}

// Add appends an entry, overwriting oldest if full.
func (r *RingBuffer) Add(entry string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.head] = entry
	r.head = (r.head + 1) % r.capacity
	if r.size < r.capacity {
		r.size++
	}
}

// Len reports how many entries are held.
func (r *RingBuffer) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// GetLast returns the last n entries, oldest first.
func (r *RingBuffer) GetLast(n int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n = min(n, r.size)
	if n <= 0 {
		return nil
	}

	result := make([]string, n)
	start := (r.head - n + r.capacity) % r.capacity
	for i := range n {
		result[i] = r.entries[(start+i)%r.capacity]
	}
	return result
}

// Matching returns every held entry containing all of the given substrings,
// oldest first.
func (r *RingBuffer) Matching(substrs ...string) []string {
	var out []string
	for _, entry := range r.GetLast(r.Len()) {
		ok := true
		for _, s := range substrs {
			if !strings.Contains(entry, s) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, entry)
		}
	}
	return out
}

// Clear empties the buffer.
func (r *RingBuffer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = 0
	r.size = 0
}
