// Command chiafan-plot-sim is the mock chia plotter: it reproduces the
// phase timing and log line shapes of a real plot run without doing any
// actual plotting, driven entirely by mockplot.Lines. Job spawns this
// binary in place of "docker exec chiabox ... chia plots create" when
// running in mock mode.
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	destination := flag.String("destination", "", "final plot path to report in the completion line")
	duration := flag.Duration("duration", 0, "override the mock run length (defaults to mockplot.Duration)")
	flag.Parse()

	if *destination == "" {
		fmt.Fprintln(os.Stderr, "chiafan-plot-sim: --destination is required")
		os.Exit(2)
	}

	if err := run(*destination, *duration, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "chiafan-plot-sim: %v\n", err)
		os.Exit(1)
	}
}
