// Command chiafan-supervisor supervises a fleet of chia plot-generation
// jobs: it stands up one Worker per configured (workspace, destination)
// pair, runs the Supervisor control loop, and serves the HTTP control
// API until signaled to shut down.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"chiafan-supervisor/chiabox"
	"chiafan-supervisor/config"
	"chiafan-supervisor/httpapi"
	"chiafan-supervisor/pkg/breaker"
	"chiafan-supervisor/pkg/chialog"
	"chiafan-supervisor/supervisor"
	"chiafan-supervisor/uploader"
	"chiafan-supervisor/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found, using process environment")
	}

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "chiafan-supervisor: %v\n", err)
		os.Exit(1)
	}

	log := chialog.New("chiafan-supervisor", chialog.DefaultConfig())

	if !cfg.IsMock && cfg.UseChiabox {
		probeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := chiabox.WaitUntilRunning(probeCtx); err != nil {
			log.ForSupervisor().Error("chiabox never became ready", "err", err)
			os.Exit(1)
		}
	}

	docker := breaker.New("docker-exec", 5, 30*time.Second)

	var up uploader.Uploader = uploader.NewCLI()
	if cfg.IsMock {
		minioUp, err := uploader.NewMinIO(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOSecure)
		if err != nil {
			log.ForSupervisor().Error("minio uploader unavailable, falling back to CLI", "err", err)
		} else {
			up = minioUp
		}
	}

	workers := make([]*worker.Worker, 0, len(cfg.Workers))
	for i, spec := range cfg.Workers {
		name := fmt.Sprintf("worker%d", i+1)
		w := worker.New(name, spec.Workspace, spec.Destination, cfg.ForwardConcurrency, cfg.IsMock,
			log.ForWorker(name), docker, up)
		workers = append(workers, w)
	}

	super := supervisor.New(supervisor.Config{
		FarmKey:           cfg.FarmKey,
		PoolKey:           cfg.PoolKey,
		StaggeringSeconds: cfg.StaggeringSeconds,
	}, workers, log.ForSupervisor())

	server := httpapi.New(super, log.ForControlAPI())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdown
		log.ForSupervisor().Info("shutdown signal received")

		super.EnsureShutdown()
		if err := server.Shutdown(5 * time.Second); err != nil {
			log.ForControlAPI().Error("error during HTTP shutdown", "err", err)
		}
		os.Exit(0)
	}()

	super.Run()

	addr := ":" + cfg.Port
	log.ForSupervisor().Info("starting control API", "addr", addr)
	if err := server.Listen(addr); err != nil {
		log.ForSupervisor().Error("control API stopped", "err", err)
		os.Exit(1)
	}
}

