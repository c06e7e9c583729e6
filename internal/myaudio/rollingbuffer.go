// rollingbuffer.go: fixed-capacity rolling window of PCM samples shared
// between the capture callback and the analysis loop.
package myaudio

import (
	"sync"
	"time"
)

// RollingWindow is a bounded FIFO of 16-bit mono samples. The capture callback
// appends, the analysis loop snapshots. Oldest samples are evicted when the
// window is full. A binary "new data" signal lets the consumer block until the
// next capture callback without polling.
type RollingWindow struct {
	mu     sync.Mutex
	data   []int16
	start  int // index of the oldest sample
	length int

	// updated carries at most one token, set by Append and consumed by
	// Snapshot. Equivalent of a binary condition signal.
	updated chan struct{}
}

// NewRollingWindow creates a rolling window holding up to capacity samples.
func NewRollingWindow(capacity int) *RollingWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &RollingWindow{
		data:    make([]int16, capacity),
		updated: make(chan struct{}, 1),
	}
}

// Capacity returns the maximum number of samples the window can hold.
func (w *RollingWindow) Capacity() int {
	return len(w.data)
}

// Len returns the current number of samples in the window.
func (w *RollingWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.length
}

// Append adds samples to the window, evicting the oldest samples when the
// capacity is exceeded, and raises the "new data" signal.
func (w *RollingWindow) Append(samples []int16) {
	if len(samples) == 0 {
		return
	}

	w.mu.Lock()
	capacity := len(w.data)

	if len(samples) >= capacity {
		// Incoming batch alone fills the window, keep only its tail.
		copy(w.data, samples[len(samples)-capacity:])
		w.start = 0
		w.length = capacity
	} else {
		writePos := (w.start + w.length) % capacity
		n := copy(w.data[writePos:], samples)
		if n < len(samples) {
			copy(w.data, samples[n:])
		}
		w.length += len(samples)
		if w.length > capacity {
			// Oldest samples were overwritten, advance the start.
			w.start = (w.start + w.length - capacity) % capacity
			w.length = capacity
		}
	}
	w.mu.Unlock()

	// Non-blocking set of the binary signal.
	select {
	case w.updated <- struct{}{}:
	default:
	}
}

// Snapshot blocks up to timeout for the "new data" signal, then returns an
// ordered copy of the current window contents and clears the signal. When the
// timeout elapses without new data the current contents are returned anyway,
// possibly empty or stale, so the consumer never stalls longer than timeout.
// The second return value reports whether new data arrived.
func (w *RollingWindow) Snapshot(timeout time.Duration) ([]int16, bool) {
	fresh := true
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.updated:
	case <-timer.C:
		fresh = false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]int16, w.length)
	n := copy(out, w.data[w.start:min(w.start+w.length, len(w.data))])
	if n < w.length {
		copy(out[n:], w.data[:w.length-n])
	}
	return out, fresh
}

// Reset drops all buffered samples and any pending signal.
func (w *RollingWindow) Reset() {
	w.mu.Lock()
	w.start = 0
	w.length = 0
	w.mu.Unlock()

	select {
	case <-w.updated:
	default:
	}
}
