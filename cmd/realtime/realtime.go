package realtime

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiki442002/go-bpm-analyzer/internal/analysis"
	"github.com/kiki442002/go-bpm-analyzer/internal/conf"
)

// Command creates a new command for real-time tempo analysis.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Analyze audio in realtime mode",
		Long:  "Start estimating the tempo of incoming audio data in real-time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return analysis.RealtimeAnalysis(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the realtime command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().IntVar(&settings.Audio.Device, "device", viper.GetInt("audio.device"), "Capture device index (see the devices command)")
	cmd.Flags().IntVar(&settings.Tempo.AverageWindow, "averagewindow", viper.GetInt("tempo.averagewindow"), "Number of estimates in the smoothing average")
	cmd.Flags().BoolVar(&settings.Realtime.HTTP.Enabled, "http", viper.GetBool("realtime.http.enabled"), "Enable the HTTP BPM endpoint")
	cmd.Flags().StringVar(&settings.Realtime.HTTP.Listen, "listen", viper.GetString("realtime.http.listen"), "Listen address of the HTTP BPM endpoint")
	cmd.Flags().BoolVar(&settings.Realtime.MQTT.Enabled, "mqtt", viper.GetBool("realtime.mqtt.enabled"), "Enable MQTT tempo publishing")
	cmd.Flags().StringVar(&settings.Realtime.MQTT.Broker, "broker", viper.GetString("realtime.mqtt.broker"), "MQTT broker URL")
	cmd.Flags().StringVar(&settings.Realtime.MQTT.Topic, "topic", viper.GetString("realtime.mqtt.topic"), "MQTT topic for BPM values")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
