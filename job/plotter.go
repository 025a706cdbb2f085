package job

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
)

// plotter is the sum type from the design notes: Job depends only on this
// capability, never on whether it is backed by the mock binary or a real
// chiabox container.
type plotter interface {
	// prepareDirectories ensures cfg.PlottingSpace and cfg.Destination
	// exist and clears plottingSpace's contents.
	prepareDirectories(ctx context.Context, cfg Config) error
	// command builds the (unstarted) plotter subprocess.
	command(ctx context.Context, cfg Config) *exec.Cmd
}

func plotterFor(isMock bool) plotter {
	if isMock {
		return mockPlotter{}
	}
	return chiaboxPlotter{}
}

// mockPlotter runs the chiafan-plot-sim stand-in locally.
type mockPlotter struct{}

func (mockPlotter) prepareDirectories(_ context.Context, cfg Config) error {
	if err := os.MkdirAll(cfg.PlottingSpace, 0o755); err != nil {
		return fmt.Errorf("create plotting space %s: %w", cfg.PlottingSpace, err)
	}
	if err := os.MkdirAll(cfg.Destination, 0o755); err != nil {
		return fmt.Errorf("create destination %s: %w", cfg.Destination, err)
	}
	return clearDir(cfg.PlottingSpace)
}

func (mockPlotter) command(ctx context.Context, cfg Config) *exec.Cmd {
	dest := filepath.Join(cfg.Destination, fmt.Sprintf("plot-k32-%d.plot", rand.Int63()))
	return exec.CommandContext(ctx, "chiafan-plot-sim",
		"--destination", dest,
		"--duration", "60s")
}

// chiaboxPlotter runs the real plotter inside the chiabox container.
type chiaboxPlotter struct{}

func (chiaboxPlotter) prepareDirectories(ctx context.Context, cfg Config) error {
	for _, dir := range []string{cfg.PlottingSpace, cfg.Destination} {
		cmd := exec.CommandContext(ctx, "docker", "exec", "chiabox", "mkdir", "-p", dir)
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("docker exec mkdir -p %s: %w", dir, err)
		}
	}
	clear := exec.CommandContext(ctx, "docker", "exec", "chiabox", "sh", "-c",
		fmt.Sprintf("rm -rf %s/*", cfg.PlottingSpace))
	if err := clear.Run(); err != nil {
		return fmt.Errorf("docker exec clear %s: %w", cfg.PlottingSpace, err)
	}
	return nil
}

func (chiaboxPlotter) command(ctx context.Context, cfg Config) *exec.Cmd {
	return exec.CommandContext(ctx, "docker", "exec", "chiabox", "venv/bin/chia", "plots", "create",
		"-r", fmt.Sprintf("%d", cfg.ForwardConcurrency),
		"-t", cfg.PlottingSpace,
		"-d", cfg.Destination,
		"-f", cfg.FarmKey,
		"-p", cfg.PoolKey,
		"-n", "1")
}

// clearDir removes dir's contents without removing dir itself.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("clear %s: %w", filepath.Join(dir, e.Name()), err)
		}
	}
	return nil
}
