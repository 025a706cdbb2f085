// Package sysmon backs the Supervisor's CPU-admission check with the
// host's actual logical CPU count, the way the teacher's system monitor
// backs its resource checks with real readings instead of guesses.
package sysmon

import (
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
)

// LogicalCPUCount returns the number of logical CPUs available to this
// process. Unlike runtime.NumCPU(), gopsutil's cpu.Counts reflects cgroup
// CPU quotas when running inside a container; if the call errors this
// falls back to runtime.NumCPU(), which is itself always >= 1.
func LogicalCPUCount() int {
	counts, err := cpu.Counts(true)
	if err != nil || counts < 1 {
		return runtime.NumCPU()
	}
	return counts
}

// LoadAverage reports the 1/5/15 minute load averages for the /status
// payload. It never errors to the caller: on failure it returns a zero
// value, since load is observational only and never feeds the admission
// decision.
func LoadAverage() (one, five, fifteen float64) {
	avg, err := load.Avg()
	if err != nil || avg == nil {
		return 0, 0, 0
	}
	return avg.Load1, avg.Load5, avg.Load15
}
