// pattern.go: synthetic tempo-candidate template grids. Each grid row encodes
// the beat sample-offsets a hypothesized tempo would produce for one phase
// alignment, so the voting search can test many phases per candidate without
// an explicit phase search.
package tempo

import (
	"math"
)

const (
	// CoarseStep is the BPM resolution of the coarse grid.
	CoarseStep = 0.25
	// FineStep is the BPM resolution of the fine grid.
	FineStep = 0.05

	// offsetsPerRow is the number of predicted beat offsets per window row.
	offsetsPerRow = 32
	// rowPhaseStep is the phase shift in samples between consecutive window
	// rows, and the spacing of the phase alignments a grid can represent.
	rowPhaseStep = 20
)

// Grid is an immutable template grid of shape (Candidates, Windows, 32)
// holding integer sample-offset predictions. Candidate index i hypothesizes
// the tempo Base-10+(i+1)*Step for coarse grids and Base-10+i*Step for fine
// grids; the one-step asymmetry between the two generators is load-bearing,
// the BPM reconstruction formula compensates for it.
type Grid struct {
	Base       float64 // band base BPM
	Step       float64 // BPM distance between adjacent candidates
	SampleRate int     // sample rate the offsets were computed for
	Candidates int     // number of tempo candidates
	Windows    int     // number of phase-shifted window rows per candidate

	// Offsets is the flattened (Candidates x Windows x 32) offset array.
	Offsets []int32
}

// windowCount returns the number of window rows for a sample rate: one row
// per possible rowPhaseStep-sized phase shift within half a second.
func windowCount(sampleRate int) int {
	return (sampleRate / 2) / rowPhaseStep
}

// candidateCount returns the number of candidates covering width+10 BPM at
// the given resolution.
func candidateCount(width int, step float64) int {
	return int(math.Round(float64(width+10) / step))
}

// NewCoarseGrid generates the coarse template grid for a band.
func NewCoarseGrid(base float64, width, sampleRate int) *Grid {
	return generate(base, width, sampleRate, CoarseStep, true)
}

// NewFineGrid generates the fine template grid for a band.
func NewFineGrid(base float64, width, sampleRate int) *Grid {
	return generate(base, width, sampleRate, FineStep, false)
}

func generate(base float64, width, sampleRate int, step float64, coarse bool) *Grid {
	candidates := candidateCount(width, step)
	windows := windowCount(sampleRate)

	g := &Grid{
		Base:       base,
		Step:       step,
		SampleRate: sampleRate,
		Candidates: candidates,
		Windows:    windows,
		Offsets:    make([]int32, candidates*windows*offsetsPerRow),
	}

	for i := 0; i < candidates; i++ {
		// The coarse generator advances the tempo hypothesis before
		// computing the period, the fine generator after. See the
		// candidate mapping note on Grid.
		var bpm float64
		if coarse {
			bpm = base - 10 + float64(i+1)*step
		} else {
			bpm = base - 10 + float64(i)*step
		}
		period := int32(math.Round(60.0 / bpm * float64(sampleRate)))

		for x := 0; x < windows; x++ {
			jump := int32(rowPhaseStep * (x + 1))
			row := g.row(i, x)
			for y := int32(0); y < int32(offsetsPerRow); y++ {
				row[y] = jump + y*period
			}
		}
	}

	return g
}

// row returns the 32 offsets for candidate c at window row x.
func (g *Grid) row(c, x int) []int32 {
	start := (c*g.Windows + x) * offsetsPerRow
	return g.Offsets[start : start+offsetsPerRow]
}

// Period returns the hypothesized beat period in samples for candidate c.
func (g *Grid) Period(c int) int {
	row := g.row(c, 0)
	return int(row[1] - row[0])
}

// valid reports whether the grid dimensions are internally consistent, used
// to reject corrupt cache entries.
func (g *Grid) valid() bool {
	return g.Candidates > 0 && g.Windows > 0 && g.SampleRate > 0 &&
		len(g.Offsets) == g.Candidates*g.Windows*offsetsPerRow
}
