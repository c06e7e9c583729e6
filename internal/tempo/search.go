// search.go: coarse-to-fine template-voting tempo search. Beat events are
// matched against the active template grids with a fixed tolerance, votes are
// tallied per candidate via a mode statistic, and ambiguous or weak results
// are rejected rather than guessed at.
package tempo

import (
	"math"
	"strconv"
)

const (
	// matchTolerance is the maximum distance in samples between a beat
	// event and a template offset for the entry to count as a match.
	matchTolerance = 20

	// minVotes is the fixed minimum-evidence requirement: a winning
	// candidate below this vote count yields no estimate.
	minVotes = 6

	// fineSpan is the number of fine candidates searched around the
	// coarse winner.
	fineSpan = 40
)

// Result is a confident tempo estimate from one search pass.
type Result struct {
	BPM         float64 // estimated tempo, rounded to 2 decimals
	Text        string  // 2-decimal string form
	CoarseVotes int     // vote count of the winning coarse candidate
	FineVotes   int     // vote count of the winning fine candidate
}

// Searcher runs the two-pass voting search against one band's template pair.
// Vote accumulators are sized once at template load and reused every pass, so
// the real-time path does not allocate. A Searcher is not safe for concurrent
// use; the analyzer serializes access with its band mutex.
type Searcher struct {
	coarse *Grid
	fine   *Grid
	base   float64

	rowCounts   []int // per-candidate window-row tally, reused
	coarseVotes []int // per-coarse-candidate vote counts
	fineVotes   []int // per-fine-candidate vote counts, fineSpan wide
}

// NewSearcher creates a Searcher for a band's coarse/fine grid pair.
func NewSearcher(coarse, fine *Grid, base float64) *Searcher {
	s := &Searcher{
		rowCounts:   make([]int, coarse.Windows),
		coarseVotes: make([]int, coarse.Candidates),
		fineVotes:   make([]int, fineSpan),
	}
	s.SetGrids(coarse, fine, base)
	return s
}

// SetGrids swaps the active template pair and base BPM. Grid dimensions are
// identical across bands, so the accumulators carry over.
func (s *Searcher) SetGrids(coarse, fine *Grid, base float64) {
	s.coarse = coarse
	s.fine = fine
	s.base = base
	if len(s.rowCounts) < coarse.Windows {
		s.rowCounts = make([]int, coarse.Windows)
	}
	if len(s.coarseVotes) < coarse.Candidates {
		s.coarseVotes = make([]int, coarse.Candidates)
	}
}

// Search runs the coarse pass over the full grid, then the fine pass over a
// fineSpan-wide slice straddling the coarse winner, and combines both winning
// indices into a BPM value. The second return value is false when either pass
// is ambiguous or below the evidence threshold: a normal "no confident
// estimate this cycle" outcome, not an error.
func (s *Searcher) Search(events []int) (Result, bool) {
	if len(events) == 0 {
		return Result{}, false
	}

	coarseVotes := s.coarseVotes[:s.coarse.Candidates]
	s.matchPass(s.coarse, 0, s.coarse.Candidates, events, coarseVotes)
	coarseIdx, coarseCount, ok := selectWinner(coarseVotes)
	if !ok {
		return Result{}, false
	}

	// Map the coarse winner to a window into the fine grid:
	// round((coarse/4)/0.05) - 20 = 5*coarse - 20.
	idealStart := 5*coarseIdx - fineSpan/2
	start := max(idealStart, 0)
	end := min(idealStart+fineSpan, s.fine.Candidates)
	if start >= end {
		return Result{}, false
	}

	fineVotes := s.fineVotes[:end-start]
	s.matchPass(s.fine, start, end, events, fineVotes)
	fineIdx, fineCount, ok := selectWinner(fineVotes)
	if !ok {
		return Result{}, false
	}
	// Keep the fine index relative to the unclamped window so the BPM
	// formula is unaffected by boundary clamping.
	fineIdx += start - idealStart

	bpm := (float64(coarseIdx)/4 + s.base - 10 - 1) + float64(fineIdx)*FineStep
	bpm = math.Round(bpm*100) / 100

	return Result{
		BPM:         bpm,
		Text:        strconv.FormatFloat(bpm, 'f', 2, 64),
		CoarseVotes: coarseCount,
		FineVotes:   fineCount,
	}, true
}

// matchPass tallies votes for the candidates [candStart, candEnd) of grid
// into votes. A candidate's vote count is the frequency of its most common
// matched window row across all beat events; window row 0 never contributes,
// its index doubles as the no-match sentinel in the tally.
func (s *Searcher) matchPass(grid *Grid, candStart, candEnd int, events []int, votes []int) {
	counts := s.rowCounts[:grid.Windows]

	for ci := range votes {
		c := candStart + ci

		for x := range counts {
			counts[x] = 0
		}

		period := grid.Period(c)
		for _, e := range events {
			lo := e - matchTolerance
			hi := e + matchTolerance

			for x := 1; x < grid.Windows; x++ {
				row := grid.row(c, x)
				if int(row[0]) > hi {
					// Rows are sorted by phase offset, later rows
					// start even further out.
					break
				}

				// Offsets in a row increase by the candidate period;
				// start scanning at the first entry that can reach lo.
				y := 0
				if period > 0 && lo > int(row[0]) {
					y = (lo - int(row[0])) / period
				}
				for ; y < offsetsPerRow; y++ {
					off := int(row[y])
					if off > hi {
						break
					}
					if off >= lo {
						counts[x]++
						break
					}
				}
			}
		}

		// Mode vote: the candidate scores the frequency of its most
		// common row. Ties on frequency pass through unchanged since
		// only the count matters.
		best := 0
		for x := 1; x < grid.Windows; x++ {
			if counts[x] > best {
				best = counts[x]
			}
		}
		votes[ci] = best
	}
}

// selectWinner picks the candidate with the maximum vote count. It rejects
// the pass when more than one candidate ties for the maximum or the maximum
// is below the evidence threshold.
func selectWinner(votes []int) (idx, count int, ok bool) {
	maxVotes := 0
	maxAt := 0
	ties := 0
	for i, v := range votes {
		switch {
		case v > maxVotes:
			maxVotes = v
			maxAt = i
			ties = 1
		case v == maxVotes && v > 0:
			ties++
		}
	}

	if ties != 1 || maxVotes < minVotes {
		return 0, 0, false
	}
	return maxAt, maxVotes, true
}
