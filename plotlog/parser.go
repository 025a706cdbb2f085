// Package plotlog classifies a single line of chia plotter stdout into a
// structured event. It is pure: the same line always yields the same
// event, and unrecognized lines are not an error.
package plotlog

import (
	"regexp"
	"strconv"
)

var (
	stageStartPattern = regexp.MustCompile(`^Starting phase (\d)/`)
	stageEndPattern    = regexp.MustCompile(`^Time for phase (\d) = ([0-9.]+) seconds`)
	completePattern    = regexp.MustCompile(`.*Renamed final file from.*to "(.*)".*`)
)

// Kind discriminates the Event union.
type Kind int

const (
	None Kind = iota
	PhaseStart
	PhaseEnd
	Complete
)

// Event is the result of classifying one log line. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind    Kind
	Phase   int     // PhaseStart, PhaseEnd
	Seconds float64 // PhaseEnd
	Path    string  // Complete
}

// Parse classifies line. It never returns an error: a line matching none
// of the three patterns yields Event{Kind: None}.
func Parse(line string) Event {
	if m := stageStartPattern.FindStringSubmatch(line); m != nil {
		phase, _ := strconv.Atoi(m[1])
		return Event{Kind: PhaseStart, Phase: phase}
	}
	if m := stageEndPattern.FindStringSubmatch(line); m != nil {
		phase, _ := strconv.Atoi(m[1])
		seconds, _ := strconv.ParseFloat(m[2], 64)
		return Event{Kind: PhaseEnd, Phase: phase, Seconds: seconds}
	}
	if m := completePattern.FindStringSubmatch(line); m != nil {
		return Event{Kind: Complete, Path: m[1]}
	}
	return Event{Kind: None}
}
