package uploader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeAWSScript writes a shell script that stands in for the aws binary:
// it just exits with exitCode.
func fakeAWSScript(t *testing.T, exitCode int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "aws")
	script := fmt.Sprintf("#!/bin/sh\nexit %d\n", exitCode)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake aws: %v", err)
	}
	return path
}

func TestCLIUploadSuccess(t *testing.T) {
	bin := fakeAWSScript(t, 0)
	c := newCLIWithBinary(bin)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Upload(ctx, "/tmp/plot.plot", "s3://bucket"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestCLIUploadFailurePropagates(t *testing.T) {
	bin := fakeAWSScript(t, 1)
	c := newCLIWithBinary(bin)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := c.Upload(ctx, "/tmp/plot.plot", "s3://bucket")
	if err == nil {
		t.Fatal("expected error when aws mv exits non-zero")
	}
}

func TestCLIUploadMissingBinary(t *testing.T) {
	c := newCLIWithBinary(filepath.Join(t.TempDir(), "does-not-exist"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Upload(ctx, "/tmp/plot.plot", "s3://bucket"); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
