package plotlog

import "testing"

func TestParsePhaseStart(t *testing.T) {
	ev := Parse("Starting phase 3/4: Compression from disk 0 to 1")
	if ev.Kind != PhaseStart || ev.Phase != 3 {
		t.Fatalf("got %+v, want PhaseStart(3)", ev)
	}
}

func TestParsePhaseEnd(t *testing.T) {
	ev := Parse("Time for phase 2 = 1234.5 seconds. CPU (100%) Tue May 11 10:00:00 2021")
	if ev.Kind != PhaseEnd || ev.Phase != 2 || ev.Seconds != 1234.5 {
		t.Fatalf("got %+v, want PhaseEnd(2, 1234.5)", ev)
	}
}

func TestParseComplete(t *testing.T) {
	line := `Renamed final file from "/plots/2/plot-k32-tmp.plot.2.tmp" to "/plots/2/plot-k32-2021-05-13-22-35-f0ec4ccb.plot"`
	ev := Parse(line)
	if ev.Kind != Complete {
		t.Fatalf("got %+v, want Complete", ev)
	}
	if ev.Path != "/plots/2/plot-k32-2021-05-13-22-35-f0ec4ccb.plot" {
		t.Fatalf("got path %q", ev.Path)
	}
}

func TestParseUnknown(t *testing.T) {
	for _, line := range []string{
		"",
		"Some random log noise",
		"Bucket 3 uniform sort. Ram: 3.500GiB",
	} {
		if ev := Parse(line); ev.Kind != None {
			t.Fatalf("line %q: got %+v, want None", line, ev)
		}
	}
}

func TestParsePhaseStartBoundaries(t *testing.T) {
	for n := 1; n <= 4; n++ {
		line := "Starting phase " + string(rune('0'+n)) + "/4: something"
		ev := Parse(line)
		if ev.Kind != PhaseStart || ev.Phase != n {
			t.Fatalf("phase %d: got %+v", n, ev)
		}
	}
}
