package supervisor

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"chiafan-supervisor/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockWorker(t *testing.T, name string) *worker.Worker {
	t.Helper()
	dir := t.TempDir()
	return worker.New(name, filepath.Join(dir, "space"), filepath.Join(dir, "dest"), 4, true, testLogger(), nil, nil)
}

func TestInspectReportsStoppedBeforeRun(t *testing.T) {
	s := New(Config{FarmKey: "f", PoolKey: "p", StaggeringSeconds: 0}, []*worker.Worker{newMockWorker(t, "worker1")}, testLogger())

	info := s.Inspect()
	if info.Pipeline != PipelineStopped {
		t.Fatalf("expected stopped pipeline before Run, got %s", info.Pipeline)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	s := New(Config{FarmKey: "f", PoolKey: "p", StaggeringSeconds: 0}, []*worker.Worker{newMockWorker(t, "worker1")}, testLogger())

	s.Run()
	s.Run() // must not panic or start a second loop

	time.Sleep(50 * time.Millisecond)
	s.EnsureShutdown()
}

func TestDrainThenRunResumes(t *testing.T) {
	s := New(Config{FarmKey: "f", PoolKey: "p", StaggeringSeconds: 0}, []*worker.Worker{newMockWorker(t, "worker1")}, testLogger())

	s.Run()
	s.Drain()

	s.mu.Lock()
	draining := s.draining
	s.mu.Unlock()
	if !draining {
		t.Fatal("expected draining after Drain")
	}

	s.Run()
	s.mu.Lock()
	draining = s.draining
	s.mu.Unlock()
	if draining {
		t.Fatal("expected Run to resume from drain")
	}

	s.EnsureShutdown()
}

func TestAbortReturnsErrorForUnknownJob(t *testing.T) {
	s := New(Config{FarmKey: "f", PoolKey: "p"}, []*worker.Worker{newMockWorker(t, "worker1")}, testLogger())

	if err := s.Abort("worker9.job1"); err == nil {
		t.Fatal("expected error aborting a nonexistent job")
	}
}

func TestEnsureShutdownWithoutRunStopsWorkersDirectly(t *testing.T) {
	s := New(Config{FarmKey: "f", PoolKey: "p"}, []*worker.Worker{newMockWorker(t, "worker1")}, testLogger())

	done := make(chan struct{})
	go func() {
		s.EnsureShutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("EnsureShutdown did not return without a prior Run")
	}
}
