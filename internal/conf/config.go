// config.go: settings struct for the BPM analyzer and functions to load them from file.
package conf

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/viper"

	"github.com/kiki442002/go-bpm-analyzer/internal/errors"
)

// EqualizerFilter is a struct for a single pre-filter stage
type EqualizerFilter struct {
	Type      string  // e.g., "LowPass", "HighPass", "BandPass"
	Frequency float64 // corner or center frequency in Hz
	Q         float64 // Q value
	Width     float64 // only used for BandPass
	Passes    int     // filter passes for added attenuation
}

// EqualizerSettings is a struct for the audio pre-filter chain
type EqualizerSettings struct {
	Enabled bool              // global flag to enable/disable the pre-filter
	Filters []EqualizerFilter // filter stage configuration
}

// AudioSettings contains settings for the live capture stream.
type AudioSettings struct {
	Device        int               // capture device index, -1 when unset
	SampleRate    int               // capture sample rate in Hz
	BufferSeconds int               // rolling window length in seconds
	FrameSize     int               // samples delivered per capture callback
	Equalizer     EqualizerSettings // pre-filter settings
}

// TempoSettings contains settings for the tempo estimation engine.
type TempoSettings struct {
	Band          string // active tempo band key, e.g. "60-160"
	Width         int    // BPM span covered by one template grid
	AverageWindow int    // number of estimates in the smoothing average
	PatternPath   string // template cache directory, empty for the default
}

// MQTTSettings contains settings for the tempo-sync MQTT peer.
type MQTTSettings struct {
	Enabled  bool   // true to enable MQTT tempo publishing
	Broker   string // MQTT broker URL, e.g. tcp://localhost:1883
	Topic    string // topic to publish BPM values to
	Username string // MQTT username
	Password string // MQTT password
}

// HTTPSettings contains settings for the HTTP BPM endpoint.
type HTTPSettings struct {
	Enabled bool   // true to enable the HTTP server
	Listen  string // listen address, e.g. 0.0.0.0:8090
}

// RealtimeSettings groups the settings of the realtime collaborators.
type RealtimeSettings struct {
	MQTT MQTTSettings // tempo-sync peer settings
	HTTP HTTPSettings // UI sink settings
}

// LogConfig contains settings for the service log file.
type LogConfig struct {
	Enabled bool   // true to write a service log file
	Path    string // log file path
}

// Settings is the root of the configuration tree.
type Settings struct {
	Debug bool // true to enable debug level logging

	Main struct {
		Name string    // client id used towards external peers
		Log  LogConfig // service log settings
	}

	Audio    AudioSettings    // capture settings
	Tempo    TempoSettings    // estimation engine settings
	Realtime RealtimeSettings // collaborator settings
}

var (
	settingsInstance *Settings
	settingsOnce     sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment into a Settings struct.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal-settings").
			Build()
	}

	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()

	return settings, nil
}

// Setting returns the current settings instance, loading it on first use.
func Setting() *Settings {
	settingsOnce.Do(func() {
		settingsMutex.RLock()
		loaded := settingsInstance != nil
		settingsMutex.RUnlock()
		if !loaded {
			if _, err := Load(); err != nil {
				slog.Error("error loading settings", "error", err)
			}
		}
	})
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// validateSettings rejects values the engine cannot operate with.
func validateSettings(settings *Settings) error {
	if settings.Audio.SampleRate <= 0 {
		return errors.Newf("invalid sample rate: %d", settings.Audio.SampleRate).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("setting", "audio.samplerate").
			Build()
	}
	if settings.Audio.BufferSeconds <= 0 {
		return errors.Newf("invalid buffer length: %d seconds", settings.Audio.BufferSeconds).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("setting", "audio.bufferseconds").
			Build()
	}
	if settings.Tempo.Width <= 0 {
		return errors.Newf("invalid tempo band width: %d", settings.Tempo.Width).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("setting", "tempo.width").
			Build()
	}
	if settings.Tempo.AverageWindow <= 0 {
		return errors.Newf("invalid smoothing window: %d", settings.Tempo.AverageWindow).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("setting", "tempo.averagewindow").
			Build()
	}
	return nil
}
