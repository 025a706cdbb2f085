package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestRunEmitsAllScheduledLines(t *testing.T) {
	var buf bytes.Buffer
	if err := run("/dest/plot-k32-1.plot", 200*time.Millisecond, &buf); err != nil {
		t.Fatalf("run: %v", err)
	}

	scanner := bufio.NewScanner(&buf)
	count := 0
	sawCompletion := false
	for scanner.Scan() {
		count++
		if strings.Contains(scanner.Text(), "Renamed final file") {
			sawCompletion = true
		}
	}

	if count != 9 {
		t.Fatalf("expected 9 lines (4 starts + 4 ends + 1 completion), got %d", count)
	}
	if !sawCompletion {
		t.Fatal("expected a completion line")
	}
}
