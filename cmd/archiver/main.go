package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/mapdraw/internal/adapters/postgres"
	"github.com/samirrijal/mapdraw/internal/pkg/config"
	"github.com/samirrijal/mapdraw/internal/pkg/logging"
	"github.com/samirrijal/mapdraw/internal/workflows"
)

func main() {
	cfg, err := config.Load("mapdraw-archiver")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	queue := cfg.Temporal.TaskQueue
	if queue == "" {
		queue = workflows.TaskQueue
	}
	w := worker.New(c, queue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.ArchiveDrawingWorkflow)
	w.RegisterActivity(&workflows.ArchiveActivities{
		Drawings: postgres.NewDrawingRepo(db),
	})

	slog.Info("archiver worker started", "task_queue", queue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
