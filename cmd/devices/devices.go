package devices

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kiki442002/go-bpm-analyzer/internal/conf"
	"github.com/kiki442002/go-bpm-analyzer/internal/myaudio"
)

// Command creates a command listing the capture-capable audio devices.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := myaudio.ListAudioDevices()
			if err != nil {
				return err
			}

			fmt.Println("Available capture devices:")
			for _, device := range devices {
				fmt.Printf("  %d: %s\n", device.Index, device.Name)
			}
			return nil
		},
	}
}
