// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "go-bpm-analyzer")
	viper.SetDefault("main.log.enabled", false)
	viper.SetDefault("main.log.path", "bpm-analyzer.log")

	viper.SetDefault("audio.device", -1)
	viper.SetDefault("audio.samplerate", 11025)
	viper.SetDefault("audio.bufferseconds", 12)
	viper.SetDefault("audio.framesize", 10240)

	// Percussive transient band: high-pass at 60 Hz and low-pass at 3000 Hz,
	// three biquad passes each for 36 dB/oct slopes.
	viper.SetDefault("audio.equalizer.enabled", true)
	viper.SetDefault("audio.equalizer.filters", []map[string]any{
		{"type": "HighPass", "frequency": 60.0, "q": 0.707, "passes": 3},
		{"type": "LowPass", "frequency": 3000.0, "q": 0.707, "passes": 3},
	})

	viper.SetDefault("tempo.band", "60-160")
	viper.SetDefault("tempo.width", 100)
	viper.SetDefault("tempo.averagewindow", 10)
	viper.SetDefault("tempo.patternpath", "")

	viper.SetDefault("realtime.mqtt.enabled", false)
	viper.SetDefault("realtime.mqtt.broker", "tcp://127.0.0.1:1883")
	viper.SetDefault("realtime.mqtt.topic", "bpm-analyzer/tempo")
	viper.SetDefault("realtime.mqtt.username", "")
	viper.SetDefault("realtime.mqtt.password", "")

	viper.SetDefault("realtime.http.enabled", true)
	viper.SetDefault("realtime.http.listen", "0.0.0.0:8090")
}
