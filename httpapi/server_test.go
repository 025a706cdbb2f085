package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"chiafan-supervisor/supervisor"
	"chiafan-supervisor/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	w := worker.New("worker1", filepath.Join(dir, "space"), filepath.Join(dir, "dest"), 4, true, testLogger(), nil, nil)
	super := supervisor.New(supervisor.Config{FarmKey: "f", PoolKey: "p"}, []*worker.Worker{w}, testLogger())
	return New(super, testLogger())
}

func TestHealthzReportsOK(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestStatusReportsWorkersAndPipeline(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Workers) != 1 {
		t.Fatalf("expected 1 worker, got %d", len(body.Workers))
	}
	server, ok := body.Server.(map[string]interface{})
	if !ok || server["pipeline"] != "stopped" {
		t.Fatalf("expected pipeline stopped before Run, got %+v", body.Server)
	}
}

func TestStartDrainRoundTrip(t *testing.T) {
	s := newTestServer(t)

	startReq := httptest.NewRequest(http.MethodPost, "/start", nil)
	if resp, err := s.app.Test(startReq); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("start: resp=%v err=%v", resp, err)
	}

	drainReq := httptest.NewRequest(http.MethodPost, "/drain", nil)
	if resp, err := s.app.Test(drainReq); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("drain: resp=%v err=%v", resp, err)
	}

	s.super.EnsureShutdown()
}

func TestAbortWithoutTargetIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/abort", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAbortUnknownTargetIsNotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/abort?target=worker9.job1", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
