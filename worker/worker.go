// Package worker owns a single (workspace, destination) pair and at most
// one active plotting job at a time.
package worker

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"chiafan-supervisor/job"
	"chiafan-supervisor/pkg/breaker"
	"chiafan-supervisor/uploader"
)

// Info is the JSON-friendly snapshot returned by Inspect.
type Info struct {
	Name          string `json:"name"`
	Running       string `json:"running"`
	PlottingSpace string `json:"plottingSpace"`
	Destination   string `json:"destination"`
}

// Worker is safe for concurrent use; current_job is written only by
// SpawnJob, Clear and AbortJob, which the Supervisor calls (AbortJob on
// behalf of the control API), and read by everything else through
// CurrentJob/Idle/Inspect/UsedCPUCount.
type Worker struct {
	name               string
	workspace          string
	destination        string
	forwardConcurrency int
	isMock             bool

	log      *slog.Logger
	breaker  *breaker.Breaker
	uploader uploader.Uploader

	mu        sync.Mutex
	current   *job.Job
	jobIndex  int
}

// New creates a Worker named name, scratching under workspace/name and
// finishing into destination.
func New(name, workspace, destination string, forwardConcurrency int, isMock bool, log *slog.Logger, br *breaker.Breaker, up uploader.Uploader) *Worker {
	return &Worker{
		name:               name,
		workspace:          workspace,
		destination:        destination,
		forwardConcurrency: forwardConcurrency,
		isMock:             isMock,
		log:                log,
		breaker:            br,
		uploader:           up,
	}
}

// Name returns the worker's identity.
func (w *Worker) Name() string { return w.name }

// PlottingSpace is the effective scratch directory workspace/<name>.
func (w *Worker) PlottingSpace() string {
	return filepath.Join(w.workspace, w.name)
}

// ForwardConcurrency returns how many CPUs a fresh job on this worker
// would request during its FORWARD phase.
func (w *Worker) ForwardConcurrency() int { return w.forwardConcurrency }

// Idle reports whether the worker currently has no active job.
func (w *Worker) Idle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current == nil
}

// SpawnJob creates and starts a new Job on this worker. It is an error to
// call this while a job is already active.
func (w *Worker) SpawnJob(farmKey, poolKey string) (*job.Job, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current != nil {
		return nil, fmt.Errorf("worker %s: job already active", w.name)
	}

	w.jobIndex++
	cfg := job.Config{
		JobName:            fmt.Sprintf("%s.job%d", w.name, w.jobIndex),
		PlottingSpace:      w.PlottingSpace(),
		Destination:        w.destination,
		S3Bucket:           "",
		FarmKey:            farmKey,
		PoolKey:            poolKey,
		ForwardConcurrency: w.forwardConcurrency,
		LogDir:             "/tmp",
		IsMock:             w.isMock,
	}

	j := job.New(cfg, w.log.With(slog.String("job", cfg.JobName)), w.breaker, w.uploader)
	w.current = j
	return j, nil
}

// CurrentJob returns the worker's active job, or nil if idle.
func (w *Worker) CurrentJob() *job.Job {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Clear drops the reference to the current job once the supervisor has
// reaped it into history.
func (w *Worker) Clear() {
	w.mu.Lock()
	w.current = nil
	w.mu.Unlock()
}

// Inspect returns a snapshot suitable for the control API.
func (w *Worker) Inspect() Info {
	w.mu.Lock()
	j := w.current
	w.mu.Unlock()

	running := "NOTHING"
	if j != nil {
		running = j.Name()
	}

	return Info{
		Name:          w.name,
		Running:       running,
		PlottingSpace: w.PlottingSpace(),
		Destination:   w.destination,
	}
}

// EnsureShutdown delegates to the active job's EnsureShutdown, if any.
func (w *Worker) EnsureShutdown() {
	w.mu.Lock()
	j := w.current
	w.mu.Unlock()

	if j != nil {
		j.EnsureShutdown()
	}
}

// AbortJob forcibly shuts down the active job and frees the worker.
func (w *Worker) AbortJob() {
	w.mu.Lock()
	j := w.current
	w.current = nil
	w.mu.Unlock()

	if j != nil {
		j.EnsureShutdown()
	}
}

// UsedCPUCount is 0 when idle, else delegates to the active job.
func (w *Worker) UsedCPUCount() int {
	w.mu.Lock()
	j := w.current
	w.mu.Unlock()

	if j == nil {
		return 0
	}
	return j.UsedCPUCount()
}
