// Package job implements the plotter subprocess lifecycle: one Job per
// running (or terminated-but-not-yet-reaped) plot, each owning its own
// tail agent.
package job

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"chiafan-supervisor/pkg/breaker"
	"chiafan-supervisor/plotlog"
	"chiafan-supervisor/uploader"
)

const (
	progressDenominator = 2624.0
	progressCap         = 98.0
	lineSafetyCap       = 2650
	flushEvery          = 10

	plotterTimeout = 60 * time.Second
	uploadTimeout  = 3600 * time.Second

	errCannotTerminate = "Cannot terminate the plotting process"
)

// Job is one plotter subprocess plus its derived, continuously-updated
// state. All exported methods are safe for concurrent use; the runtime
// fields are mutated only by the tail agent started by New and by
// EnsureShutdown.
type Job struct {
	cfg      Config
	log      *slog.Logger
	breaker  *breaker.Breaker
	uploader uploader.Uploader // nil disables the upload step regardless of cfg.S3Bucket
	plotter  plotter
	logPath  string

	mu            sync.Mutex
	startingTime  time.Time
	stopTime      time.Time
	state         State
	stage         Stage
	progress      float64
	stageDetails  []StageDetail
	errorMessage  string
	numLines      int
	finalPlotPath string

	shuttingDown atomic.Bool

	cmdMu sync.Mutex
	kill  func() // kills the currently-running subprocess, if any

	done chan struct{}
}

// New constructs a Job and starts its tail agent in the background. br
// and up may be nil: br disables the circuit breaker around directory
// preparation, up disables uploads even when cfg.S3Bucket is set.
func New(cfg Config, log *slog.Logger, br *breaker.Breaker, up uploader.Uploader) *Job {
	now := time.Now()
	j := &Job{
		cfg:          cfg,
		log:          log,
		breaker:      br,
		uploader:     up,
		plotter:      plotterFor(cfg.IsMock),
		logPath:      logPathFor(cfg, now),
		startingTime: now,
		state:        Ongoing,
		stage:        Initialization,
		done:         make(chan struct{}),
	}
	go j.run()
	return j
}

func logPathFor(cfg Config, at time.Time) string {
	return filepath.Join(cfg.LogDir, fmt.Sprintf("chiafan_plotting_%s_%s.log",
		cfg.JobName, at.Format("20060102_15_04_05")))
}

// StartingTime reports when this job was created, used by the Supervisor
// to enforce staggering.
func (j *Job) StartingTime() time.Time { return j.startingTime }

// run is the tail agent's entire lifecycle: precondition checks,
// directory prep, spawn, tail, terminate, optional upload.
func (j *Job) run() {
	defer close(j.done)

	if j.cfg.FarmKey == "" {
		j.fail("Missing farmer key")
		return
	}
	if j.cfg.PoolKey == "" {
		j.fail("Missing pool key")
		return
	}

	ctx := context.Background()

	prepare := func() error { return j.plotter.prepareDirectories(ctx, j.cfg) }
	if j.breaker != nil && !j.cfg.IsMock {
		prepare = func() error {
			return j.breaker.Call(func() error { return j.plotter.prepareDirectories(ctx, j.cfg) })
		}
	}
	if err := prepare(); err != nil {
		j.log.Error("directory preparation failed", "err", err)
		j.fail(fmt.Sprintf("Environment error: %v", err))
		return
	}

	if j.shuttingDown.Load() {
		j.fail(errCannotTerminate)
		return
	}

	cmd := j.plotter.command(ctx, j.cfg)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		j.fail(fmt.Sprintf("could not attach stdout: %v", err))
		return
	}
	cmd.Stderr = cmd.Stdout

	logFile, err := os.Create(j.logPath)
	if err != nil {
		j.fail(fmt.Sprintf("could not create log file: %v", err))
		return
	}
	defer logFile.Close()

	if err := cmd.Start(); err != nil {
		j.fail(fmt.Sprintf("could not start plotter: %v", err))
		return
	}

	j.cmdMu.Lock()
	j.kill = func() { _ = cmd.Process.Kill() }
	j.cmdMu.Unlock()

	j.tail(stdout, logFile)

	if err := j.waitWithTimeout(cmd, plotterTimeout); err != nil {
		j.log.Error("plotter did not terminate cleanly", "err", err)
		j.fail(fmt.Sprintf("Runtime error: %v", err))
		return
	}

	j.mu.Lock()
	finalPath := j.finalPlotPath
	j.mu.Unlock()
	if finalPath == "" {
		j.fail("Could not locate generated plot")
		return
	}

	if j.cfg.S3Bucket == "" || j.uploader == nil {
		j.succeed()
		return
	}

	j.mu.Lock()
	j.stage = S3Migration
	j.progress = 99.0
	j.mu.Unlock()

	uctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()
	if err := j.uploader.Upload(uctx, finalPath, j.cfg.S3Bucket); err != nil {
		j.log.Error("upload failed", "err", err)
		j.fail(fmt.Sprintf("Upload error: %v", err))
		return
	}

	j.succeed()
}

// tail reads the plotter's combined stdout/stderr line by line, updating
// derived state and mirroring raw lines to the log file.
func (j *Job) tail(stdout io.Reader, logFile *os.File) {
	writer := bufio.NewWriter(logFile)
	defer writer.Flush()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := 0
	for scanner.Scan() {
		line := scanner.Text()
		lines++

		fmt.Fprintln(writer, line)
		if lines%flushEvery == 0 {
			writer.Flush()
		}

		j.mu.Lock()
		j.numLines = lines
		j.progress = progress(lines)
		j.applyEvent(plotlog.Parse(line))
		j.mu.Unlock()

		if lines > lineSafetyCap {
			j.log.Warn("line safety cap reached, stopping tail", "lines", lines)
			break
		}
	}
}

func progress(lines int) float64 {
	p := float64(lines) / progressDenominator * progressCap
	if p > progressCap {
		return progressCap
	}
	return p
}

// applyEvent must be called with j.mu held.
func (j *Job) applyEvent(ev plotlog.Event) {
	switch ev.Kind {
	case plotlog.PhaseStart:
		j.stage = stageFromPhase(ev.Phase)
	case plotlog.PhaseEnd:
		j.stageDetails = append(j.stageDetails, StageDetail{
			Stage:           stageFromPhase(ev.Phase),
			TimeConsumption: time.Duration(ev.Seconds * float64(time.Second)),
		})
	case plotlog.Complete:
		j.finalPlotPath = ev.Path
	}
}

// waitWithTimeout waits for cmd to exit, killing it if it overruns d.
func (j *Job) waitWithTimeout(cmd *exec.Cmd, d time.Duration) error {
	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	select {
	case err := <-waitDone:
		return err
	case <-time.After(d):
		j.cmdMu.Lock()
		if j.kill != nil {
			j.kill()
		}
		j.cmdMu.Unlock()
		<-waitDone
		return fmt.Errorf("subprocess did not exit within %s", d)
	}
}

func (j *Job) fail(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != Ongoing {
		return
	}
	j.state = Fail
	j.errorMessage = msg
	j.stopTime = time.Now()
}

func (j *Job) succeed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != Ongoing {
		return
	}
	j.stage = End
	j.progress = 100.0
	j.state = Success
	j.stopTime = time.Now()
}

// Inspect returns a consistent snapshot of the job's current state.
func (j *Job) Inspect() Status {
	j.mu.Lock()
	defer j.mu.Unlock()

	elapsed := time.Since(j.startingTime)
	if j.state != Ongoing {
		elapsed = j.stopTime.Sub(j.startingTime)
	}

	details := make([]StageDetail, len(j.stageDetails))
	copy(details, j.stageDetails)

	return Status{
		JobName:      j.cfg.JobName,
		TimeElapsed:  elapsed,
		Stage:        j.stage,
		State:        j.state,
		StageDetails: details,
		Progress:     j.progress,
	}
}

// EnsureShutdown forces the job to a terminal state, killing its
// subprocess if one is running, and waits for the tail agent to exit.
func (j *Job) EnsureShutdown() {
	j.shuttingDown.Store(true)

	j.cmdMu.Lock()
	if j.kill != nil {
		j.kill()
	}
	j.cmdMu.Unlock()

	j.mu.Lock()
	if j.state == Ongoing {
		j.state = Fail
		j.errorMessage = errCannotTerminate
		j.stopTime = time.Now()
	}
	j.mu.Unlock()

	<-j.done
}

// UsedCPUCount reports how many CPUs this job currently occupies.
func (j *Job) UsedCPUCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	switch j.stage {
	case Initialization, Forward:
		return j.cfg.ForwardConcurrency
	case Backward, Compression:
		return 1
	default:
		return 0
	}
}

// Name returns the job's identity string.
func (j *Job) Name() string { return j.cfg.JobName }
