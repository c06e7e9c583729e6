// history.go: bounded history of recent estimates and the published smoothed
// value derived from it.
package tempo

import (
	"math"
	"strconv"
	"sync"
)

// Estimate is a published BPM value with its 2-decimal string form.
type Estimate struct {
	BPM  float64
	Text string
}

// History is a bounded queue of recent BPM estimates. Adding an estimate
// recomputes the running average, which becomes the published value. Cleared
// only on process restart.
type History struct {
	mu      sync.Mutex
	values  []float64
	size    int
	current Estimate
}

// NewHistory creates a History averaging over the last size estimates.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{
		values: make([]float64, 0, size),
		size:   size,
	}
}

// Add appends a raw estimate, evicting the oldest when the window is full,
// and returns the updated smoothed estimate.
func (h *History) Add(bpm float64) Estimate {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.values) == h.size {
		copy(h.values, h.values[1:])
		h.values = h.values[:h.size-1]
	}
	h.values = append(h.values, bpm)

	sum := 0.0
	for _, v := range h.values {
		sum += v
	}
	average := math.Round(sum/float64(len(h.values))*100) / 100

	h.current = Estimate{
		BPM:  average,
		Text: strconv.FormatFloat(average, 'f', 2, 64),
	}
	return h.current
}

// Current returns the published smoothed estimate, zero before the first Add.
func (h *History) Current() Estimate {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Len returns the number of estimates currently in the window.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.values)
}
