// audio_filters.go: band-limiting pre-filter chain applied to the rolling
// window before beat detection.
package myaudio

import (
	"github.com/kiki442002/go-bpm-analyzer/internal/conf"
	"github.com/kiki442002/go-bpm-analyzer/internal/errors"
	"github.com/kiki442002/go-bpm-analyzer/internal/myaudio/equalizer"
)

// Sentinel errors for audio filter operations
var (
	ErrFilterDisabled = errors.NewStd("filter is disabled")
)

// FilterBank owns the pre-filter chain for one analyzer instance. The chain is
// stateful between samples of one batch but reset between batches, so each
// analysis pass filters the window as an independent signal.
type FilterBank struct {
	chain *equalizer.FilterChain
}

// NewFilterBank builds the filter chain from the equalizer settings. A
// disabled equalizer yields an empty chain; Apply is then a no-op.
func NewFilterBank(settings *conf.Settings) (*FilterBank, error) {
	if settings == nil {
		return nil, errors.Newf("settings parameter is nil").
			Component("myaudio").
			Category(errors.CategoryValidation).
			Context("operation", "new_filter_bank").
			Build()
	}

	chain := equalizer.NewFilterChain()

	if settings.Audio.Equalizer.Enabled {
		for i, filterConfig := range settings.Audio.Equalizer.Filters {
			filter, err := createFilter(filterConfig, float64(settings.Audio.SampleRate))
			if err != nil {
				if errors.Is(err, ErrFilterDisabled) {
					continue
				}
				return nil, errors.New(err).
					Component("myaudio").
					Category(errors.CategoryConfiguration).
					Context("operation", "new_filter_bank").
					Context("filter_index", i).
					Context("filter_type", filterConfig.Type).
					Build()
			}
			if err := chain.AddFilter(filter); err != nil {
				return nil, errors.New(err).
					Component("myaudio").
					Category(errors.CategorySystem).
					Context("operation", "new_filter_bank").
					Context("filter_index", i).
					Build()
			}
		}
	}

	return &FilterBank{chain: chain}, nil
}

// createFilter creates a single filter based on the configuration
func createFilter(config conf.EqualizerFilter, sampleRate float64) (*equalizer.Filter, error) {
	// Passes of 0 or less means the stage is off
	if config.Passes <= 0 {
		return nil, ErrFilterDisabled
	}

	switch config.Type {
	case "LowPass":
		return equalizer.NewLowPass(sampleRate, config.Frequency, config.Q, config.Passes)
	case "HighPass":
		return equalizer.NewHighPass(sampleRate, config.Frequency, config.Q, config.Passes)
	case "BandPass":
		return equalizer.NewBandPass(sampleRate, config.Frequency, config.Width, config.Passes)
	default:
		return nil, errors.Newf("unknown filter type: %s", config.Type).
			Component("myaudio").
			Category(errors.CategoryConfiguration).
			Context("operation", "create_filter").
			Context("filter_type", config.Type).
			Context("supported_types", "LowPass,HighPass,BandPass").
			Build()
	}
}

// Length returns the number of filter stages in the bank.
func (fb *FilterBank) Length() int {
	return fb.chain.Length()
}

// Apply runs the filter chain over samples in place. Sample values are scaled
// to [-1, 1) for filtering and clamped back to the 16-bit range.
func (fb *FilterBank) Apply(samples []int16) error {
	if len(samples) == 0 {
		return errors.Newf("empty samples provided for filter application").
			Component("myaudio").
			Category(errors.CategoryValidation).
			Context("operation", "apply_filters").
			Build()
	}

	if fb.chain.Length() == 0 {
		return nil
	}

	fb.chain.Reset()

	floatSamples := make([]float64, len(samples))
	for i, s := range samples {
		floatSamples[i] = float64(s) / 32768.0
	}

	fb.chain.ApplyBatch(floatSamples)

	for i, sample := range floatSamples {
		if sample > 1.0 {
			sample = 1.0
		} else if sample < -1.0 {
			sample = -1.0
		}
		samples[i] = int16(sample * 32767.0)
	}

	return nil
}
