package tempo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSampleRate = 11025

func TestNewCoarseGrid_Dimensions(t *testing.T) {
	for _, band := range Bands() {
		t.Run(band.Key, func(t *testing.T) {
			g := NewCoarseGrid(band.Base, 100, testSampleRate)

			assert.Equal(t, 440, g.Candidates, "coarse grid has round(110/0.25) candidates")
			assert.Equal(t, 275, g.Windows, "window count is (sample_rate/2)/20")
			assert.Len(t, g.Offsets, 440*275*32)
			assert.True(t, g.valid())
		})
	}
}

func TestNewFineGrid_Dimensions(t *testing.T) {
	g := NewFineGrid(60, 100, testSampleRate)

	assert.Equal(t, 2200, g.Candidates, "fine grid has round(110/0.05) candidates")
	assert.Equal(t, 275, g.Windows)
	assert.Len(t, g.Offsets, 2200*275*32)
}

func TestGrid_RowProgression(t *testing.T) {
	g := NewCoarseGrid(60, 100, testSampleRate)

	for _, c := range []int{0, 39, 279, 439} {
		bpm := 60 - 10 + float64(c+1)*CoarseStep
		wantPeriod := int32(math.Round(60.0 / bpm * testSampleRate))

		for _, x := range []int{0, 5, 274} {
			row := g.row(c, x)
			require.Len(t, row, 32)

			// First entry is the row phase offset.
			assert.Equal(t, int32(20*(x+1)), row[0], "candidate %d row %d", c, x)

			// Entries increase strictly by the candidate period.
			for y := 1; y < 32; y++ {
				assert.Equal(t, wantPeriod, row[y]-row[y-1],
					"candidate %d row %d entry %d", c, x, y)
			}
		}
	}
}

func TestGrid_CandidateMappingAsymmetry(t *testing.T) {
	// The coarse generator hypothesizes base-10+(i+1)*step, the fine one
	// base-10+i*step. Both conventions are fixed behavior the BPM formula
	// depends on.
	coarse := NewCoarseGrid(60, 100, testSampleRate)
	fine := NewFineGrid(60, 100, testSampleRate)

	// Coarse candidate 279 hypothesizes 50+280*0.25 = 120 BPM.
	assert.Equal(t, int(math.Round(60.0/120.0*testSampleRate)), coarse.Period(279))

	// Fine candidate 1400 hypothesizes 50+1400*0.05 = 120 BPM.
	assert.Equal(t, int(math.Round(60.0/120.0*testSampleRate)), fine.Period(1400))

	// Fine candidate 0 hypothesizes base-10 exactly.
	assert.Equal(t, int(math.Round(60.0/50.0*testSampleRate)), fine.Period(0))
}

func TestGrid_Valid(t *testing.T) {
	g := NewCoarseGrid(60, 100, testSampleRate)
	require.True(t, g.valid())

	truncated := *g
	truncated.Offsets = g.Offsets[:10]
	assert.False(t, truncated.valid())

	empty := Grid{}
	assert.False(t, empty.valid())
}
