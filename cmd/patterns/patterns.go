package patterns

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kiki442002/go-bpm-analyzer/internal/conf"
	"github.com/kiki442002/go-bpm-analyzer/internal/tempo"
)

// Command creates a command that regenerates the template grid cache for all
// tempo bands, overwriting any existing entries.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "Regenerate the tempo pattern cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cacheDir, err := conf.PatternCacheDir(settings)
			if err != nil {
				return err
			}
			store := tempo.NewStore(cacheDir)

			fmt.Printf("Generating tempo patterns in %s...\n", cacheDir)
			for _, band := range tempo.Bands() {
				coarse := tempo.NewCoarseGrid(band.Base, settings.Tempo.Width, settings.Audio.SampleRate)
				if err := store.Save(coarse, false); err != nil {
					return err
				}
				fine := tempo.NewFineGrid(band.Base, settings.Tempo.Width, settings.Audio.SampleRate)
				if err := store.Save(fine, true); err != nil {
					return err
				}
				fmt.Printf("  band %s done\n", band.Key)
			}
			fmt.Println("Completed")
			return nil
		},
	}
}
