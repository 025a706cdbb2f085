package main

import (
	"fmt"
	"io"
	"time"

	"chiafan-supervisor/mockplot"
)

// run walks mockplot's schedule in real time, writing each line to w as
// it comes due. If dur is zero, mockplot.Duration is used unscaled;
// otherwise the schedule is stretched or compressed to last dur.
func run(destination string, dur time.Duration, w io.Writer) error {
	scale := 1.0
	if dur > 0 {
		scale = dur.Seconds() / mockplot.Duration.Seconds()
	}

	lines := mockplot.Lines(destination)
	start := time.Now()
	for _, line := range lines {
		due := start.Add(time.Duration(float64(line.At) * scale))
		if sleep := time.Until(due); sleep > 0 {
			time.Sleep(sleep)
		}
		if _, err := fmt.Fprintln(w, line.Text); err != nil {
			return err
		}
	}
	return nil
}
