// Package chialog wraps log/slog the way the rest of this codebase's
// corpus does: a JSON handler by default, Eastern-Time timestamps, and a
// family of component-scoped child loggers.
package chialog

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger is a *slog.Logger with a few named, pre-scoped children.
type Logger struct {
	*slog.Logger
	timezone *time.Location
}

// Config controls how New builds a Logger.
type Config struct {
	Level        slog.Level
	OutputFormat string // "json" or "text"
	Output       io.Writer
}

func DefaultConfig() *Config {
	return &Config{
		Level:        slog.LevelInfo,
		OutputFormat: "json",
		Output:       os.Stdout,
	}
}

// New builds a Logger for serviceName. Timestamps are rendered in
// America/New_York for continuity with the rest of the fleet's logs; if
// the timezone database is unavailable it falls back to UTC rather than
// failing startup.
func New(serviceName string, cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	tz, err := time.LoadLocation("America/New_York")
	if err != nil {
		tz = time.UTC
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.OutputFormat == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	handler = newEasternTimeHandler(handler, tz)

	base := slog.New(handler).With(
		slog.String("service", serviceName),
		slog.Int("pid", os.Getpid()),
	)

	return &Logger{Logger: base, timezone: tz}
}

// ForJob scopes the logger to one plotting job.
func (l *Logger) ForJob(jobName string) *slog.Logger {
	return l.With(slog.String("component", "job"), slog.String("job", jobName))
}

// ForWorker scopes the logger to one worker slot.
func (l *Logger) ForWorker(workerName string) *slog.Logger {
	return l.With(slog.String("component", "worker"), slog.String("worker", workerName))
}

// ForSupervisor scopes the logger to the control loop.
func (l *Logger) ForSupervisor() *slog.Logger {
	return l.With(slog.String("component", "supervisor"))
}

// ForUpload scopes the logger to the S3-migration step of a job.
func (l *Logger) ForUpload(jobName, bucket string) *slog.Logger {
	return l.With(
		slog.String("component", "uploader"),
		slog.String("job", jobName),
		slog.String("bucket", bucket),
	)
}

// ForControlAPI scopes the logger to the HTTP/WebSocket control surface.
func (l *Logger) ForControlAPI() *slog.Logger {
	return l.With(slog.String("component", "httpapi"))
}
