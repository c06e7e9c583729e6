package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiki442002/go-bpm-analyzer/cmd/devices"
	"github.com/kiki442002/go-bpm-analyzer/cmd/patterns"
	"github.com/kiki442002/go-bpm-analyzer/cmd/realtime"
	"github.com/kiki442002/go-bpm-analyzer/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bpm-analyzer",
		Short: "Live BPM analyzer CLI",
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	subcommands := []*cobra.Command{
		realtime.Command(settings),
		devices.Command(settings),
		patterns.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Tempo.Band, "band", viper.GetString("tempo.band"), "Tempo band to search within (60-160, 130-230 or 210-300)")
	rootCmd.PersistentFlags().StringVar(&settings.Tempo.PatternPath, "patternpath", viper.GetString("tempo.patternpath"), "Directory for cached tempo pattern grids")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
