// band.go: the three fixed tempo ranges the estimator can search within.
package tempo

import (
	"github.com/kiki442002/go-bpm-analyzer/internal/errors"
)

// Tempo band keys accepted by SelectBand and the tempo.band setting.
const (
	BandLow  = "60-160"
	BandMid  = "130-230"
	BandHigh = "210-300"
)

// Band is one of the three disjoint BPM ranges. Base is the lower bound used
// as the reference when mapping candidate indices to BPM values.
type Band struct {
	Key  string
	Base float64
}

// bands in ascending order.
var bands = []Band{
	{Key: BandLow, Base: 60},
	{Key: BandMid, Base: 130},
	{Key: BandHigh, Base: 210},
}

// Bands returns the supported tempo bands in ascending order.
func Bands() []Band {
	out := make([]Band, len(bands))
	copy(out, bands)
	return out
}

// BandFor resolves a range key to its Band.
func BandFor(key string) (Band, error) {
	for _, b := range bands {
		if b.Key == key {
			return b, nil
		}
	}
	return Band{}, errors.Newf("unknown tempo band: %s", key).
		Component("tempo").
		Category(errors.CategoryValidation).
		Context("band", key).
		Context("supported", BandLow+","+BandMid+","+BandHigh).
		Build()
}
