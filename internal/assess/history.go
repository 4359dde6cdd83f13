// Package assess keeps a bounded history of emotion vectors and derives a
// coarse mental-health status from it.
package assess

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ayusman/navarasa/internal/emotion"
)

// Buffer capacities used by the application.
const (
	// DisplayCapacity is the short history shown to users.
	DisplayCapacity = 6
	// StatusCapacity is the history the status rules are calibrated for.
	StatusCapacity = 10
)

// ErrCapacity is returned for a non-positive history capacity.
var ErrCapacity = errors.New("history capacity must be positive")

// History is a bounded FIFO of emotion vectors in insertion order.
// It is safe for one writer and concurrent readers.
type History struct {
	mu      sync.RWMutex
	entries []emotion.Vector
	limit   int
}

// NewHistory creates an empty history holding at most capacity entries.
func NewHistory(capacity int) (*History, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrCapacity, capacity)
	}
	return &History{
		entries: make([]emotion.Vector, 0, capacity),
		limit:   capacity,
	}, nil
}

// Push appends v, evicting the oldest entry when the history is full.
func (h *History) Push(v emotion.Vector) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) >= h.limit {
		// Shift left by 1, removing the oldest entry
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:h.limit-1]
	}
	h.entries = append(h.entries, v)
}

// Entries returns a copy of the history, oldest first.
func (h *History) Entries() []emotion.Vector {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]emotion.Vector, len(h.entries))
	copy(out, h.entries)
	return out
}

// Latest returns the most recent entry, or false when the history is empty.
func (h *History) Latest() (emotion.Vector, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.entries) == 0 {
		return emotion.Vector{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Cap returns the configured capacity.
func (h *History) Cap() int {
	return h.limit
}

// Reset removes all entries.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = h.entries[:0]
}
