package myaudio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiki442002/go-bpm-analyzer/internal/conf"
)

func filterTestSettings(enabled bool, filters ...conf.EqualizerFilter) *conf.Settings {
	s := &conf.Settings{}
	s.Audio.SampleRate = 11025
	s.Audio.Equalizer.Enabled = enabled
	s.Audio.Equalizer.Filters = filters
	return s
}

func sineInt16(freq float64, n int, amplitude float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amplitude * 32767 * math.Sin(2*math.Pi*freq*float64(i)/11025.0))
	}
	return out
}

func rmsInt16(samples []int16) float64 {
	sum := 0.0
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func TestNewFilterBank(t *testing.T) {
	t.Run("nil_settings", func(t *testing.T) {
		_, err := NewFilterBank(nil)
		assert.Error(t, err)
	})

	t.Run("disabled_equalizer", func(t *testing.T) {
		fb, err := NewFilterBank(filterTestSettings(false,
			conf.EqualizerFilter{Type: "LowPass", Frequency: 3000, Q: 0.707, Passes: 3},
		))
		require.NoError(t, err)
		assert.Equal(t, 0, fb.Length(), "disabled equalizer builds an empty chain")
	})

	t.Run("zero_passes_skips_stage", func(t *testing.T) {
		fb, err := NewFilterBank(filterTestSettings(true,
			conf.EqualizerFilter{Type: "LowPass", Frequency: 3000, Q: 0.707, Passes: 0},
			conf.EqualizerFilter{Type: "HighPass", Frequency: 60, Q: 0.707, Passes: 3},
		))
		require.NoError(t, err)
		assert.Equal(t, 1, fb.Length())
	})

	t.Run("unknown_type", func(t *testing.T) {
		_, err := NewFilterBank(filterTestSettings(true,
			conf.EqualizerFilter{Type: "Notch", Frequency: 1000, Q: 0.707, Passes: 1},
		))
		assert.Error(t, err)
	})

	t.Run("band_pass", func(t *testing.T) {
		fb, err := NewFilterBank(filterTestSettings(true,
			conf.EqualizerFilter{Type: "BandPass", Frequency: 500, Width: 1.0, Passes: 1},
		))
		require.NoError(t, err)
		assert.Equal(t, 1, fb.Length())
	})
}

func TestFilterBank_Apply(t *testing.T) {
	t.Run("empty_input", func(t *testing.T) {
		fb, err := NewFilterBank(filterTestSettings(false))
		require.NoError(t, err)
		assert.Error(t, fb.Apply(nil))
	})

	t.Run("empty_chain_is_noop", func(t *testing.T) {
		fb, err := NewFilterBank(filterTestSettings(false))
		require.NoError(t, err)

		samples := sineInt16(440, 1000, 0.5)
		want := make([]int16, len(samples))
		copy(want, samples)

		require.NoError(t, fb.Apply(samples))
		assert.Equal(t, want, samples)
	})

	t.Run("passes_in_band_signal", func(t *testing.T) {
		fb, err := NewFilterBank(filterTestSettings(true,
			conf.EqualizerFilter{Type: "HighPass", Frequency: 60, Q: 0.707, Passes: 3},
			conf.EqualizerFilter{Type: "LowPass", Frequency: 3000, Q: 0.707, Passes: 3},
		))
		require.NoError(t, err)

		samples := sineInt16(440, 11025, 0.5)
		before := rmsInt16(samples)
		require.NoError(t, fb.Apply(samples))
		after := rmsInt16(samples[2000:])

		assert.InDelta(t, before, after, before*0.2, "440 Hz passes the band")
	})

	t.Run("attenuates_out_of_band_signal", func(t *testing.T) {
		fb, err := NewFilterBank(filterTestSettings(true,
			conf.EqualizerFilter{Type: "HighPass", Frequency: 60, Q: 0.707, Passes: 3},
			conf.EqualizerFilter{Type: "LowPass", Frequency: 3000, Q: 0.707, Passes: 3},
		))
		require.NoError(t, err)

		samples := sineInt16(5000, 11025, 0.5)
		before := rmsInt16(samples)
		require.NoError(t, fb.Apply(samples))
		after := rmsInt16(samples[2000:])

		assert.Less(t, after, before/10, "5 kHz falls above the band")
	})

	t.Run("repeated_batches_are_independent", func(t *testing.T) {
		fb, err := NewFilterBank(filterTestSettings(true,
			conf.EqualizerFilter{Type: "LowPass", Frequency: 3000, Q: 0.707, Passes: 3},
		))
		require.NoError(t, err)

		signal := sineInt16(440, 2000, 0.5)

		first := make([]int16, len(signal))
		copy(first, signal)
		require.NoError(t, fb.Apply(first))

		second := make([]int16, len(signal))
		copy(second, signal)
		require.NoError(t, fb.Apply(second))

		assert.Equal(t, first, second, "chain state resets between batches")
	})
}
