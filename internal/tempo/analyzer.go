// analyzer.go: the estimator loop and its lifecycle. Owns the analysis
// goroutine, the pre-filter stage, the smoothing average and tempo-band
// selection, and publishes results to the UI and tempo-sync collaborators.
package tempo

import (
	"log/slog"
	"sync"
	"time"

	"github.com/kiki442002/go-bpm-analyzer/internal/conf"
	"github.com/kiki442002/go-bpm-analyzer/internal/errors"
	"github.com/kiki442002/go-bpm-analyzer/internal/logging"
	"github.com/kiki442002/go-bpm-analyzer/internal/myaudio"
	"github.com/kiki442002/go-bpm-analyzer/internal/observability/metrics"
)

// stopGracePeriod bounds how long Stop waits for the analysis goroutine to
// observe the stop signal and exit. The snapshot wait is at most one second,
// so the loop observes the signal within roughly one iteration.
const stopGracePeriod = 3 * time.Second

// Source is the live capture collaborator the analyzer consumes from.
type Source interface {
	Start(deviceIndex int) error
	Stop() error
	Snapshot() ([]int16, bool)
}

// UISink receives published estimates, fire-and-forget.
type UISink interface {
	SetBPM(bpm float64)
}

// SyncPeer is the tempo-sync protocol collaborator.
type SyncPeer interface {
	Enable(enabled bool)
	SetBPM(bpm float64)
}

// NopSink is a UISink that discards estimates.
type NopSink struct{}

func (NopSink) SetBPM(float64) {}

// NopPeer is a SyncPeer that discards everything.
type NopPeer struct{}

func (NopPeer) Enable(bool)    {}
func (NopPeer) SetBPM(float64) {}

type gridPair struct {
	coarse *Grid
	fine   *Grid
}

// Analyzer estimates the dominant tempo of a live audio stream. All
// collaborators are passed at construction; the analyzer holds no ambient
// state. Lifecycle is Idle -> Running -> Idle via Start and Stop.
type Analyzer struct {
	settings *conf.Settings
	source   Source
	ui       UISink
	peer     SyncPeer
	metrics  *metrics.TempoMetrics
	filters  *myaudio.FilterBank
	history  *History
	log      *slog.Logger

	// mu guards the active band, the searcher and in-flight searches. A
	// band switch is atomic with respect to a running search.
	mu       sync.Mutex
	band     Band
	grids    map[string]gridPair
	searcher *Searcher

	runMu   sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewAnalyzer builds an Analyzer, loading or generating the template grids
// for every band from store. Grid load failures are fatal here, at startup.
// metrics may be nil.
func NewAnalyzer(settings *conf.Settings, store *Store, source Source, ui UISink, peer SyncPeer, tempoMetrics *metrics.TempoMetrics) (*Analyzer, error) {
	filters, err := myaudio.NewFilterBank(settings)
	if err != nil {
		return nil, err
	}

	grids := make(map[string]gridPair, len(bands))
	for _, b := range bands {
		coarse, err := store.LoadOrGenerate(b.Base, settings.Tempo.Width, settings.Audio.SampleRate, false)
		if err != nil {
			return nil, err
		}
		fine, err := store.LoadOrGenerate(b.Base, settings.Tempo.Width, settings.Audio.SampleRate, true)
		if err != nil {
			return nil, err
		}
		grids[b.Key] = gridPair{coarse: coarse, fine: fine}
	}

	band, err := BandFor(settings.Tempo.Band)
	if err != nil {
		return nil, err
	}
	pair := grids[band.Key]

	return &Analyzer{
		settings: settings,
		source:   source,
		ui:       ui,
		peer:     peer,
		metrics:  tempoMetrics,
		filters:  filters,
		history:  NewHistory(settings.Tempo.AverageWindow),
		log:      logging.ForService("tempo"),
		band:     band,
		grids:    grids,
		searcher: NewSearcher(pair.coarse, pair.fine, band.Base),
	}, nil
}

// Start clears the stop flag, opens the capture stream on the device with the
// given index, enables the sync peer and launches the analysis loop. Setup
// errors propagate to the caller and leave the analyzer idle.
func (a *Analyzer) Start(deviceIndex int) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.running {
		return errors.Newf("analyzer already running").
			Component("tempo").
			Category(errors.CategoryState).
			Context("operation", "start_analyzer").
			Build()
	}

	if err := a.source.Start(deviceIndex); err != nil {
		return err
	}
	a.peer.Enable(true)

	a.stop = make(chan struct{})
	a.done = make(chan struct{})
	a.running = true

	go a.run(a.stop, a.done)

	a.log.Info("analyzer started", "device_index", deviceIndex, "band", a.CurrentBand().Key)
	return nil
}

// Stop sets the stop flag, closes the capture stream, disables the sync peer
// and waits a short grace period for the analysis goroutine to exit.
func (a *Analyzer) Stop() error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if !a.running {
		return nil
	}

	close(a.stop)
	err := a.source.Stop()
	a.peer.Enable(false)

	select {
	case <-a.done:
	case <-time.After(stopGracePeriod):
		a.log.Warn("analysis loop did not exit within grace period")
	}
	a.running = false

	a.log.Info("analyzer stopped")
	return err
}

// SelectBand swaps the active template pair and base BPM. The swap is atomic
// with respect to an in-flight search: a search started before the switch
// completes using the pre-switch pair.
func (a *Analyzer) SelectBand(key string) error {
	band, err := BandFor(key)
	if err != nil {
		return err
	}

	a.mu.Lock()
	pair := a.grids[band.Key]
	a.band = band
	a.searcher.SetGrids(pair.coarse, pair.fine, band.Base)
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.RecordBandSwitch(band.Key)
	}
	a.log.Info("tempo band selected", "band", band.Key)
	return nil
}

// CurrentBand returns the active tempo band.
func (a *Analyzer) CurrentBand() Band {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.band
}

// Current returns the published smoothed estimate.
func (a *Analyzer) Current() Estimate {
	return a.history.Current()
}

// run is the analysis loop body. It exits when the stop signal is observed or
// on the first per-iteration processing error; a "no confident estimate"
// cycle is a normal outcome and the loop continues.
func (a *Analyzer) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		default:
		}

		buf, fresh := a.source.Snapshot()
		if a.metrics != nil {
			a.metrics.RecordSnapshot(len(buf))
			if !fresh {
				a.metrics.RecordSnapshotTimeout()
			}
		}
		if len(buf) == 0 {
			continue
		}

		start := time.Now()
		if err := a.filters.Apply(buf); err != nil {
			a.log.Error("error in analysis loop, stopping", "error", err)
			if a.metrics != nil {
				a.metrics.RecordAnalysisError("filter")
				a.metrics.RecordAnalysisPass("error")
			}
			return
		}

		a.mu.Lock()
		bandKey := a.band.Key
		events := ExtractBeatEvents(buf, a.settings.Audio.SampleRate)
		result, ok := a.searcher.Search(events)
		a.mu.Unlock()

		if a.metrics != nil {
			a.metrics.RecordAnalysisPassDuration(bandKey, time.Since(start).Seconds())
		}

		if !ok {
			if a.metrics != nil {
				a.metrics.RecordAnalysisPass("no_estimate")
				a.metrics.RecordNoEstimate()
			}
			continue
		}

		estimate := a.history.Add(result.BPM)
		a.ui.SetBPM(estimate.BPM)
		a.peer.SetBPM(estimate.BPM)

		if a.metrics != nil {
			a.metrics.RecordAnalysisPass("estimate")
			a.metrics.RecordEstimate(estimate.BPM)
		}
		a.log.Info("detected BPM",
			"bpm", estimate.Text,
			"raw", result.Text,
			"band", bandKey,
			"votes", result.CoarseVotes)
	}
}
