// Package config parses the supervisor's CLI flags, overlaid on
// environment variables (and an optional .env file), into an immutable
// Config value threaded by pointer into every other component.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// WorkerSpec is one --worker WORKSPACE:DESTINATION entry.
type WorkerSpec struct {
	Workspace   string
	Destination string
}

// Config is immutable once Parse returns.
type Config struct {
	FarmKey            string
	PoolKey            string
	Workers            []WorkerSpec
	IsMock             bool
	Port               string
	StaggeringSeconds  int
	ForwardConcurrency int
	UseChiabox         bool
	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOSecure        bool
}

// Parse builds a Config from CLI args, falling back to environment
// variables (CHIAFAN_FARM_KEY, CHIAFAN_POOL_KEY, CHIAFAN_WORKERS as a
// comma-separated list, ...) for any flag not passed explicitly -
// matching the teacher's getEnv(key, default) overlay pattern.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("chiafan-supervisor", flag.ContinueOnError)

	farmKey := fs.String("farm_key", getEnv("CHIAFAN_FARM_KEY", ""), "Farm key")
	poolKey := fs.String("pool_key", getEnv("CHIAFAN_POOL_KEY", ""), "Pool key")
	port := fs.String("port", getEnv("CHIAFAN_PORT", "5000"), "Control API bind port")
	isMock := fs.Bool("is_mock", getEnvBool("CHIAFAN_IS_MOCK", false), "Run the plotter simulator instead of chia")
	staggering := fs.Int("staggering", getEnvInt("CHIAFAN_STAGGERING", 600), "Minimum seconds between job starts")
	forwardConcurrency := fs.Int("forward_concurrency", getEnvInt("CHIAFAN_FORWARD_CONCURRENCY", 4), "Forward-pass thread count per job")
	useChiabox := fs.Bool("use_chiabox", getEnvBool("CHIAFAN_USE_CHIABOX", true), "Probe and require the chiabox container for non-mock workers")
	minioEndpoint := fs.String("minio_endpoint", getEnv("CHIAFAN_MINIO_ENDPOINT", "localhost:9000"), "S3-compatible endpoint for the mock-mode MinIO uploader")
	minioAccessKey := fs.String("minio_access_key", getEnv("CHIAFAN_MINIO_ACCESS_KEY", "minioadmin"), "Access key for the mock-mode MinIO uploader")
	minioSecretKey := fs.String("minio_secret_key", getEnv("CHIAFAN_MINIO_SECRET_KEY", "minioadmin"), "Secret key for the mock-mode MinIO uploader")
	minioSecure := fs.Bool("minio_secure", getEnvBool("CHIAFAN_MINIO_SECURE", false), "Use TLS when talking to the mock-mode MinIO endpoint")

	var workerFlags stringSliceFlag
	fs.Var(&workerFlags, "worker", "a WORKSPACE:DESTINATION pair; repeatable")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	workerSpecs := []string(workerFlags)
	if len(workerSpecs) == 0 {
		if env := os.Getenv("CHIAFAN_WORKERS"); env != "" {
			workerSpecs = strings.Split(env, ",")
		}
	}

	workers := make([]WorkerSpec, 0, len(workerSpecs))
	for _, spec := range workerSpecs {
		workspace, destination, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("invalid --worker spec %q, want WORKSPACE:DESTINATION", spec)
		}
		workers = append(workers, WorkerSpec{Workspace: workspace, Destination: destination})
	}

	if *staggering < 0 {
		return nil, fmt.Errorf("--staggering must be >= 0, got %d", *staggering)
	}
	if *forwardConcurrency < 1 {
		return nil, fmt.Errorf("--forward_concurrency must be >= 1, got %d", *forwardConcurrency)
	}

	return &Config{
		FarmKey:            *farmKey,
		PoolKey:            *poolKey,
		Workers:            workers,
		IsMock:             *isMock,
		Port:               *port,
		StaggeringSeconds:  *staggering,
		ForwardConcurrency: *forwardConcurrency,
		UseChiabox:         *useChiabox,
		MinIOEndpoint:      *minioEndpoint,
		MinIOAccessKey:     *minioAccessKey,
		MinIOSecretKey:     *minioSecretKey,
		MinIOSecure:        *minioSecure,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

// stringSliceFlag accumulates repeated -worker flags, the way the Python
// CLI's click.option(multiple=True) does.
type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, value)
	return nil
}
