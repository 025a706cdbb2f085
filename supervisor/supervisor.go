// Package supervisor implements the single control loop that ties
// workers and jobs together: staggering, CPU admission, reaping, drain,
// and shutdown.
package supervisor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chiafan-supervisor/job"
	"chiafan-supervisor/sysmon"
	"chiafan-supervisor/worker"
)

// TickInterval is how often the control loop evaluates staggering,
// admission, and reaping.
const TickInterval = 1600 * time.Millisecond

// Config configures a Supervisor at construction time.
type Config struct {
	FarmKey           string
	PoolKey           string
	StaggeringSeconds int
}

// Pipeline is the coarse-grained status reported by Inspect.
type Pipeline string

const (
	PipelineStopped  Pipeline = "stopped"
	PipelineDraining Pipeline = "draining"
	PipelineWorking  Pipeline = "working"
)

// Info is the JSON-friendly snapshot returned by Inspect.
type Info struct {
	Pipeline     Pipeline `json:"pipeline"`
	NumWorkers   int      `json:"num_workers"`
	ActiveJobs   int      `json:"active_jobs"`
	CPUCount     int      `json:"cpu_count"`
	UsedCPUCount int      `json:"used_cpu_count"`
	Load1        float64  `json:"load1"`
	Load5        float64  `json:"load5"`
	Load15       float64  `json:"load15"`
}

// Supervisor is the process-wide singleton tying together every worker's
// lifecycle. Only the control goroutine started by Run spawns or reaps
// jobs; every other method is safe to call concurrently.
type Supervisor struct {
	cfg     Config
	workers []*worker.Worker
	log     *slog.Logger

	mu           sync.Mutex
	started      bool
	draining     bool
	shuttingDown bool
	history      []job.Status
	loopDone     chan struct{}
}

// New creates a Supervisor over the given workers. Workers must already
// be fully constructed; the Supervisor never creates or destroys them.
func New(cfg Config, workers []*worker.Worker, log *slog.Logger) *Supervisor {
	return &Supervisor{
		cfg:     cfg,
		workers: workers,
		log:     log,
	}
}

// Run idempotently starts the control loop. If it is already running and
// draining, this resumes it; if shutting_down, this is a no-op; if the
// loop has never started and is not shutting down, this starts it. A
// second call while already running and not draining is a no-op,
// preserving the original behavior noted as an open question.
func (s *Supervisor) Run() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shuttingDown {
		return
	}
	if !s.started {
		s.started = true
		s.loopDone = make(chan struct{})
		go s.loop()
		return
	}
	if s.draining {
		s.draining = false
	}
}

// Drain stops new job admission; jobs already running complete normally.
func (s *Supervisor) Drain() {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()
}

// Abort locates the worker whose active job has targetJobName and forces
// it to terminate.
func (s *Supervisor) Abort(targetJobName string) error {
	for _, w := range s.workers {
		if j := w.CurrentJob(); j != nil && j.Name() == targetJobName {
			w.AbortJob()
			return nil
		}
	}
	return fmt.Errorf("no active job named %q", targetJobName)
}

// EnsureShutdown stops the control loop and shuts down every worker.
func (s *Supervisor) EnsureShutdown() {
	s.mu.Lock()
	s.shuttingDown = true
	started := s.started
	loopDone := s.loopDone
	s.mu.Unlock()

	if started {
		<-loopDone
	} else {
		for _, w := range s.workers {
			w.EnsureShutdown()
		}
	}
}

// Inspect returns the coarse pipeline status plus aggregate counts.
func (s *Supervisor) Inspect() Info {
	s.mu.Lock()
	started := s.started
	draining := s.draining
	s.mu.Unlock()

	active := s.activeJobCount()
	used := 0
	for _, w := range s.workers {
		used += w.UsedCPUCount()
	}

	pipeline := PipelineWorking
	switch {
	case !started || (draining && active == 0):
		pipeline = PipelineStopped
	case draining && active > 0:
		pipeline = PipelineDraining
	}

	load1, load5, load15 := sysmon.LoadAverage()

	return Info{
		Pipeline:     pipeline,
		NumWorkers:   len(s.workers),
		ActiveJobs:   active,
		CPUCount:     sysmon.LogicalCPUCount(),
		UsedCPUCount: used,
		Load1:        load1,
		Load5:        load5,
		Load15:       load15,
	}
}

// GetStatus returns active jobs first (worker order), then history in
// termination order.
func (s *Supervisor) GetStatus() []job.Status {
	statuses := make([]job.Status, 0, len(s.workers)+len(s.history))
	for _, w := range s.workers {
		if j := w.CurrentJob(); j != nil {
			statuses = append(statuses, j.Inspect())
		}
	}

	s.mu.Lock()
	statuses = append(statuses, s.history...)
	s.mu.Unlock()

	return statuses
}

// Workers exposes the worker set for the control API's /status handler.
func (s *Supervisor) Workers() []*worker.Worker { return s.workers }

func (s *Supervisor) activeJobCount() int {
	n := 0
	for _, w := range s.workers {
		if !w.Idle() {
			n++
		}
	}
	return n
}

// loop is the single control agent: tick every TickInterval, evaluating
// shutdown, staggering, admission, and reaping in that order.
func (s *Supervisor) loop() {
	defer close(s.loopDone)

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		s.mu.Lock()
		shuttingDown := s.shuttingDown
		s.mu.Unlock()

		if shuttingDown {
			for _, w := range s.workers {
				w.EnsureShutdown()
			}
			return
		}

		s.tick()

		<-ticker.C
	}
}

func (s *Supervisor) tick() {
	s.mu.Lock()
	draining := s.draining
	s.mu.Unlock()

	if draining {
		s.reap()
		return
	}

	if !s.canSpawn() {
		s.reap()
		return
	}

	freeCPU := sysmon.LogicalCPUCount()
	for _, w := range s.workers {
		freeCPU -= w.UsedCPUCount()
	}

	for _, w := range s.workers {
		if !w.Idle() || w.ForwardConcurrency() > freeCPU {
			continue
		}
		if _, err := w.SpawnJob(s.cfg.FarmKey, s.cfg.PoolKey); err != nil {
			continue
		}
		break
	}

	s.reap()
}

// canSpawn reports whether enough time has elapsed since the youngest
// active job's start to respect staggering.
func (s *Supervisor) canSpawn() bool {
	var youngest time.Time
	for _, w := range s.workers {
		if j := w.CurrentJob(); j != nil {
			if j.StartingTime().After(youngest) {
				youngest = j.StartingTime()
			}
		}
	}
	if youngest.IsZero() {
		return true
	}
	return time.Since(youngest) > time.Duration(s.cfg.StaggeringSeconds)*time.Second
}

func (s *Supervisor) reap() {
	for _, w := range s.workers {
		j := w.CurrentJob()
		if j == nil {
			continue
		}
		status := j.Inspect()
		if status.State == job.Ongoing {
			continue
		}
		if status.State == job.Fail {
			s.log.Warn("job failed", "job", status.JobName)
		}
		j.EnsureShutdown()

		s.mu.Lock()
		s.history = append(s.history, status)
		s.mu.Unlock()

		w.Clear()
	}
}
