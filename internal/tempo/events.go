// events.go: beat event extraction, a crude envelope-peak picker. Spurious
// maxima are expected to be suppressed by the upstream bandpass filter.
package tempo

// ExtractBeatEvents partitions samples into half-second sub-windows and
// returns, per sub-window, the absolute offset of the first sample with the
// largest magnitude. The last sub-window may be short. An all-zero sub-window
// yields the offset of its first sample.
func ExtractBeatEvents(samples []int16, sampleRate int) []int {
	step := sampleRate / 2
	if step < 1 || len(samples) == 0 {
		return nil
	}

	events := make([]int, 0, (len(samples)+step-1)/step)
	for start := 0; start < len(samples); start += step {
		end := min(start+step, len(samples))

		best := start
		bestMag := -1
		for i := start; i < end; i++ {
			mag := int(samples[i])
			if mag < 0 {
				mag = -mag
			}
			if mag > bestMag {
				bestMag = mag
				best = i
			}
		}
		events = append(events, best)
	}

	return events
}
