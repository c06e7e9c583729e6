package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestSettings() *Settings {
	s := &Settings{}
	s.Audio.SampleRate = 11025
	s.Audio.BufferSeconds = 12
	s.Tempo.Band = "60-160"
	s.Tempo.Width = 100
	s.Tempo.AverageWindow = 10
	return s
}

func TestValidateSettings(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validateSettings(validTestSettings()))
	})

	t.Run("invalid_sample_rate", func(t *testing.T) {
		s := validTestSettings()
		s.Audio.SampleRate = 0
		assert.Error(t, validateSettings(s))
	})

	t.Run("invalid_buffer_seconds", func(t *testing.T) {
		s := validTestSettings()
		s.Audio.BufferSeconds = -1
		assert.Error(t, validateSettings(s))
	})

	t.Run("invalid_width", func(t *testing.T) {
		s := validTestSettings()
		s.Tempo.Width = 0
		assert.Error(t, validateSettings(s))
	})

	t.Run("invalid_average_window", func(t *testing.T) {
		s := validTestSettings()
		s.Tempo.AverageWindow = 0
		assert.Error(t, validateSettings(s))
	})
}

func TestDefaultConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setDefaultConfig()

	settings := &Settings{}
	require.NoError(t, viper.Unmarshal(settings))
	require.NoError(t, validateSettings(settings))

	assert.Equal(t, -1, settings.Audio.Device, "no capture device preselected")
	assert.Equal(t, 11025, settings.Audio.SampleRate)
	assert.Equal(t, 12, settings.Audio.BufferSeconds)
	assert.Equal(t, 10240, settings.Audio.FrameSize)

	assert.True(t, settings.Audio.Equalizer.Enabled)
	require.Len(t, settings.Audio.Equalizer.Filters, 2)
	assert.Equal(t, "HighPass", settings.Audio.Equalizer.Filters[0].Type)
	assert.InDelta(t, 60.0, settings.Audio.Equalizer.Filters[0].Frequency, 1e-9)
	assert.Equal(t, 3, settings.Audio.Equalizer.Filters[0].Passes)
	assert.Equal(t, "LowPass", settings.Audio.Equalizer.Filters[1].Type)
	assert.InDelta(t, 3000.0, settings.Audio.Equalizer.Filters[1].Frequency, 1e-9)

	assert.Equal(t, "60-160", settings.Tempo.Band)
	assert.Equal(t, 100, settings.Tempo.Width)
	assert.Equal(t, 10, settings.Tempo.AverageWindow)

	assert.False(t, settings.Realtime.MQTT.Enabled)
	assert.True(t, settings.Realtime.HTTP.Enabled)
	assert.Equal(t, "0.0.0.0:8090", settings.Realtime.HTTP.Listen)
}

func TestPatternCacheDir_Override(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "patterns")

	s := validTestSettings()
	s.Tempo.PatternPath = dir

	got, err := PatternCacheDir(s)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "missing cache directory is created")
}

func TestGetDefaultConfigPaths(t *testing.T) {
	paths, err := GetDefaultConfigPaths()
	require.NoError(t, err)
	assert.NotEmpty(t, paths)
}
