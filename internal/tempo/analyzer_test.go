package tempo

import (
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kiki442002/go-bpm-analyzer/internal/conf"
)

// fakeSource replays a fixed window, standing in for the live capture stream.
type fakeSource struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	window   []int16
	startErr error
}

func (f *fakeSource) Start(deviceIndex int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeSource) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeSource) wasStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func (f *fakeSource) Snapshot() ([]int16, bool) {
	// The analyzer filters the snapshot in place, hand out a copy.
	time.Sleep(5 * time.Millisecond)
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int16, len(f.window))
	copy(out, f.window)
	return out, true
}

// recordingSink captures the last published BPM value.
type recordingSink struct {
	mu   sync.Mutex
	bpm  float64
	seen int
}

func (r *recordingSink) SetBPM(bpm float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bpm = bpm
	r.seen++
}

func (r *recordingSink) last() (float64, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bpm, r.seen
}

func testSettings() *conf.Settings {
	return &conf.Settings{
		Audio: conf.AudioSettings{
			SampleRate:    testSampleRate,
			BufferSeconds: 12,
			FrameSize:     10240,
		},
		Tempo: conf.TempoSettings{
			Band:          BandLow,
			Width:         100,
			AverageWindow: 10,
		},
	}
}

// clickTrain synthesizes a full rolling window of sharp clicks at the given
// tempo.
func clickTrain(bpm float64, seconds int) []int16 {
	samples := make([]int16, seconds*testSampleRate)
	period := 60.0 / bpm * testSampleRate
	for k := 0; ; k++ {
		pos := 100 + int(math.Round(period*float64(k)))
		if pos >= len(samples) {
			break
		}
		samples[pos] = 16000
	}
	return samples
}

// Template generation is expensive, every analyzer test shares one cache
// directory. TestMain removes it.
var (
	patternDirOnce sync.Once
	patternDir     string
)

func sharedPatternDir(t *testing.T) string {
	t.Helper()
	patternDirOnce.Do(func() {
		dir, err := os.MkdirTemp("", "tempo-patterns-")
		require.NoError(t, err)
		patternDir = dir
	})
	return patternDir
}

func TestMain(m *testing.M) {
	code := m.Run()
	if patternDir != "" {
		_ = os.RemoveAll(patternDir)
	}
	os.Exit(code)
}

func newTestAnalyzer(t *testing.T, source Source, ui UISink) *Analyzer {
	t.Helper()

	store := NewStore(sharedPatternDir(t))
	a, err := NewAnalyzer(testSettings(), store, source, ui, NopPeer{}, nil)
	require.NoError(t, err)
	return a
}

func TestAnalyzer_ConvergesOnClickTrain(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := &fakeSource{window: clickTrain(120, 12)}
	sink := &recordingSink{}
	a := newTestAnalyzer(t, source, sink)

	require.NoError(t, a.Start(0))

	assert.Eventually(t, func() bool {
		est := a.Current()
		return math.Abs(est.BPM-120.0) < 0.1
	}, 15*time.Second, 50*time.Millisecond, "estimate settles on the click tempo")

	require.NoError(t, a.Stop())

	bpm, seen := sink.last()
	assert.InDelta(t, 120.0, bpm, 0.1, "published value follows the estimate")
	assert.Positive(t, seen)
	assert.True(t, source.wasStopped())
}

func TestAnalyzer_BandSwitchDuringRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := &fakeSource{window: clickTrain(120, 12)}
	a := newTestAnalyzer(t, source, NopSink{})

	require.NoError(t, a.Start(0))

	assert.Eventually(t, func() bool {
		return math.Abs(a.Current().BPM-120.0) < 0.1
	}, 15*time.Second, 50*time.Millisecond)

	// 120 BPM falls outside the mid band; the estimator finds nothing
	// there, and the published value holds at the last estimate.
	require.NoError(t, a.SelectBand(BandMid))
	assert.Equal(t, BandMid, a.CurrentBand().Key)
	time.Sleep(200 * time.Millisecond)
	assert.InDelta(t, 120.0, a.Current().BPM, 0.1)

	require.NoError(t, a.SelectBand(BandLow))
	assert.Eventually(t, func() bool {
		return math.Abs(a.Current().BPM-120.0) < 0.1
	}, 15*time.Second, 50*time.Millisecond)

	require.NoError(t, a.Stop())
}

func TestAnalyzer_SelectBandUnknownKey(t *testing.T) {
	a := newTestAnalyzer(t, &fakeSource{}, NopSink{})

	err := a.SelectBand("10-20")
	require.Error(t, err)
	assert.Equal(t, BandLow, a.CurrentBand().Key, "active band unchanged on rejection")
}

func TestAnalyzer_StartTwice(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := &fakeSource{window: make([]int16, testSampleRate)}
	a := newTestAnalyzer(t, source, NopSink{})

	require.NoError(t, a.Start(0))
	assert.Error(t, a.Start(0))
	require.NoError(t, a.Stop())
}

func TestAnalyzer_StopWhenIdle(t *testing.T) {
	a := newTestAnalyzer(t, &fakeSource{}, NopSink{})

	assert.NoError(t, a.Stop())
}

func TestAnalyzer_StartPropagatesSourceError(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := &fakeSource{startErr: assert.AnError}
	a := newTestAnalyzer(t, source, NopSink{})

	err := a.Start(0)
	require.ErrorIs(t, err, assert.AnError)

	// A failed start leaves the analyzer idle and restartable.
	source.startErr = nil
	require.NoError(t, a.Start(0))
	require.NoError(t, a.Stop())
}

func TestAnalyzer_TooFewEventsYieldsNoEstimate(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Two seconds of window produce at most five beat events, below the
	// evidence threshold of the voting search.
	source := &fakeSource{window: clickTrain(120, 2)}
	a := newTestAnalyzer(t, source, NopSink{})

	require.NoError(t, a.Start(0))
	time.Sleep(500 * time.Millisecond)
	require.NoError(t, a.Stop())

	assert.Zero(t, a.Current().BPM)
}
