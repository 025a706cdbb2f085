package config

import "testing"

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "5000" {
		t.Fatalf("expected default port 5000, got %s", cfg.Port)
	}
	if cfg.StaggeringSeconds != 600 {
		t.Fatalf("expected default staggering 600, got %d", cfg.StaggeringSeconds)
	}
	if cfg.ForwardConcurrency != 4 {
		t.Fatalf("expected default forward_concurrency 4, got %d", cfg.ForwardConcurrency)
	}
	if !cfg.UseChiabox {
		t.Fatal("expected use_chiabox to default true")
	}
	if cfg.IsMock {
		t.Fatal("expected is_mock to default false")
	}
}

func TestParseWorkers(t *testing.T) {
	cfg, err := Parse([]string{
		"--farm_key", "X",
		"--pool_key", "Y",
		"--worker", "/ws1:/dest1",
		"--worker", "/ws2:/dest2",
		"--is_mock",
		"--staggering", "10",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FarmKey != "X" || cfg.PoolKey != "Y" {
		t.Fatalf("keys not parsed: %+v", cfg)
	}
	if len(cfg.Workers) != 2 {
		t.Fatalf("expected 2 workers, got %d", len(cfg.Workers))
	}
	if cfg.Workers[0].Workspace != "/ws1" || cfg.Workers[0].Destination != "/dest1" {
		t.Fatalf("worker 0 mismatch: %+v", cfg.Workers[0])
	}
	if !cfg.IsMock {
		t.Fatal("expected is_mock true")
	}
	if cfg.StaggeringSeconds != 10 {
		t.Fatalf("expected staggering 10, got %d", cfg.StaggeringSeconds)
	}
}

func TestParseRejectsMalformedWorker(t *testing.T) {
	_, err := Parse([]string{"--worker", "no-colon-here"})
	if err == nil {
		t.Fatal("expected error for malformed --worker spec")
	}
}

func TestParseRejectsBadForwardConcurrency(t *testing.T) {
	_, err := Parse([]string{"--forward_concurrency", "0"})
	if err == nil {
		t.Fatal("expected error for forward_concurrency < 1")
	}
}

func TestParseMinIODefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MinIOEndpoint != "localhost:9000" {
		t.Fatalf("expected default minio endpoint localhost:9000, got %s", cfg.MinIOEndpoint)
	}
	if cfg.MinIOAccessKey != "minioadmin" || cfg.MinIOSecretKey != "minioadmin" {
		t.Fatalf("expected default minio credentials, got %+v", cfg)
	}
	if cfg.MinIOSecure {
		t.Fatal("expected minio_secure to default false")
	}
}

func TestParseMinIOOverrides(t *testing.T) {
	cfg, err := Parse([]string{
		"--minio_endpoint", "s3.example.com:443",
		"--minio_access_key", "ak",
		"--minio_secret_key", "sk",
		"--minio_secure",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MinIOEndpoint != "s3.example.com:443" || cfg.MinIOAccessKey != "ak" || cfg.MinIOSecretKey != "sk" {
		t.Fatalf("minio overrides not parsed: %+v", cfg)
	}
	if !cfg.MinIOSecure {
		t.Fatal("expected minio_secure true")
	}
}
