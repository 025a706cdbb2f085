// Package mockplot is the deterministic, time-based stand-in for the real
// chia plotter: a 60-second schedule producing the same log lines a real
// run would, so Job's tail/parse logic is exercised identically for mock
// and real plotting.
package mockplot

import (
	"fmt"
	"time"
)

// Duration is the total length of a simulated plot.
const Duration = 60 * time.Second

// LogLine is one emitted line and the elapsed time it is due at.
type LogLine struct {
	At   time.Duration
	Text string
}

// phaseBoundaries holds when each phase starts, in seconds from the start of
// the run (spec.md §4.6: 0/20/40/50/60).
var phaseBoundaries = []struct {
	at    time.Duration
	phase int
}{
	{0 * time.Second, 1},
	{20 * time.Second, 2},
	{40 * time.Second, 3},
	{50 * time.Second, 4},
}

// Lines returns the full sequence of log lines a mock plot emits over its
// lifetime, in emission order along with the elapsed time each line is
// due. finalPlotPath names the completion line's quoted path.
func Lines(finalPlotPath string) []LogLine {
	out := make([]LogLine, 0, len(phaseBoundaries)*2+1)

	for i, b := range phaseBoundaries {
		out = append(out, LogLine{
			At:   b.at,
			Text: fmt.Sprintf("Starting phase %d/4: mock phase", b.phase),
		})

		end := Duration
		if i+1 < len(phaseBoundaries) {
			end = phaseBoundaries[i+1].at
		}
		elapsed := (end - b.at).Seconds()
		out = append(out, LogLine{
			At:   end,
			Text: fmt.Sprintf("Time for phase %d = %.1f seconds. CPU (100%%)", b.phase, elapsed),
		})
	}

	out = append(out, LogLine{
		At:   Duration,
		Text: fmt.Sprintf(`Renamed final file from "%s.tmp" to "%s"`, finalPlotPath, finalPlotPath),
	})

	return out
}

// StageAt returns which plotlog phase id (1..4) a mock run is in at
// elapsed time t, or 5 once the run has completed.
func StageAt(t time.Duration) int {
	stage := 0
	for _, b := range phaseBoundaries {
		if t >= b.at {
			stage = b.phase
		}
	}
	if t >= Duration {
		return 5
	}
	return stage
}

// ProgressAt returns linear progress in [0, 100], capped at 100, for
// elapsed time t.
func ProgressAt(t time.Duration) float64 {
	p := 100.0 * t.Seconds() / Duration.Seconds()
	if p > 100.0 {
		return 100.0
	}
	if p < 0 {
		return 0
	}
	return p
}
