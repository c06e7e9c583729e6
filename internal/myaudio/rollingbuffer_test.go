package myaudio

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingWindow_AppendAndSnapshot(t *testing.T) {
	w := NewRollingWindow(8)

	w.Append([]int16{1, 2, 3})

	got, fresh := w.Snapshot(time.Second)
	assert.True(t, fresh)
	assert.Equal(t, []int16{1, 2, 3}, got)
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 8, w.Capacity())
}

func TestRollingWindow_EvictsOldest(t *testing.T) {
	w := NewRollingWindow(4)

	w.Append([]int16{1, 2, 3})
	w.Append([]int16{4, 5})

	got, _ := w.Snapshot(time.Second)
	assert.Equal(t, []int16{2, 3, 4, 5}, got, "oldest samples leave first")
	assert.Equal(t, 4, w.Len())
}

func TestRollingWindow_BatchLargerThanCapacity(t *testing.T) {
	w := NewRollingWindow(3)

	w.Append([]int16{1, 2, 3, 4, 5, 6, 7})

	got, _ := w.Snapshot(time.Second)
	assert.Equal(t, []int16{5, 6, 7}, got, "only the batch tail survives")
}

func TestRollingWindow_WrapAround(t *testing.T) {
	w := NewRollingWindow(4)

	// Several generations of appends so the write position wraps.
	for i := int16(0); i < 10; i++ {
		w.Append([]int16{i})
	}

	got, _ := w.Snapshot(time.Second)
	assert.Equal(t, []int16{6, 7, 8, 9}, got)
}

func TestRollingWindow_SnapshotTimeout(t *testing.T) {
	w := NewRollingWindow(4)
	w.Append([]int16{1, 2})

	// First snapshot consumes the signal.
	_, fresh := w.Snapshot(time.Second)
	require.True(t, fresh)

	// No new append since, the next snapshot times out but still returns
	// the current contents.
	start := time.Now()
	got, fresh := w.Snapshot(50 * time.Millisecond)
	assert.False(t, fresh)
	assert.Equal(t, []int16{1, 2}, got)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestRollingWindow_SignalIsBinary(t *testing.T) {
	w := NewRollingWindow(8)

	// Multiple appends collapse into one pending signal.
	w.Append([]int16{1})
	w.Append([]int16{2})
	w.Append([]int16{3})

	_, fresh := w.Snapshot(time.Second)
	assert.True(t, fresh)

	_, fresh = w.Snapshot(20 * time.Millisecond)
	assert.False(t, fresh, "signal was consumed by the first snapshot")
}

func TestRollingWindow_SnapshotUnblocksOnAppend(t *testing.T) {
	w := NewRollingWindow(8)

	done := make(chan []int16, 1)
	go func() {
		got, _ := w.Snapshot(5 * time.Second)
		done <- got
	}()

	time.Sleep(20 * time.Millisecond)
	w.Append([]int16{7, 8})

	select {
	case got := <-done:
		assert.Equal(t, []int16{7, 8}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot did not unblock on append")
	}
}

func TestRollingWindow_Reset(t *testing.T) {
	w := NewRollingWindow(4)
	w.Append([]int16{1, 2, 3})

	w.Reset()

	assert.Equal(t, 0, w.Len())
	got, fresh := w.Snapshot(20 * time.Millisecond)
	assert.Empty(t, got)
	assert.False(t, fresh, "reset drops the pending signal")
}

func TestRollingWindow_EmptyAppend(t *testing.T) {
	w := NewRollingWindow(4)

	w.Append(nil)

	_, fresh := w.Snapshot(20 * time.Millisecond)
	assert.False(t, fresh, "empty append raises no signal")
}

func TestRollingWindow_ConcurrentAppendSnapshot(t *testing.T) {
	w := NewRollingWindow(1024)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		batch := make([]int16, 256)
		for {
			select {
			case <-stop:
				return
			default:
				w.Append(batch)
			}
		}
	}()

	for i := 0; i < 100; i++ {
		got, _ := w.Snapshot(10 * time.Millisecond)
		assert.LessOrEqual(t, len(got), 1024)
	}

	close(stop)
	wg.Wait()
}
