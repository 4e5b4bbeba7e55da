package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/mapdraw/internal/adapters/filebridge"
	"github.com/samirrijal/mapdraw/internal/adapters/http"
	natsadapter "github.com/samirrijal/mapdraw/internal/adapters/nats"
	"github.com/samirrijal/mapdraw/internal/adapters/postgres"
	"github.com/samirrijal/mapdraw/internal/adapters/storage"
	temporaladapter "github.com/samirrijal/mapdraw/internal/adapters/temporal"
	"github.com/samirrijal/mapdraw/internal/adapters/valkey"
	"github.com/samirrijal/mapdraw/internal/core/events"
	"github.com/samirrijal/mapdraw/internal/core/ports"
	"github.com/samirrijal/mapdraw/internal/core/tools"
	"github.com/samirrijal/mapdraw/internal/core/usecases"
	"github.com/samirrijal/mapdraw/internal/pkg/config"
	"github.com/samirrijal/mapdraw/internal/pkg/logging"
	"github.com/samirrijal/mapdraw/internal/pkg/metrics"
	"github.com/samirrijal/mapdraw/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("mapdraw-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	bridge := filebridge.NewOS(cfg.Storage.BridgePath)

	// Database, needed by the postgres backend and for reading archived drawings
	var db *postgres.DB
	if cfg.Storage.Uses(config.BackendPostgres) || cfg.Storage.Uses(config.BackendTemporal) {
		db, err = postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		go reportPoolStats(ctx, db)
	}

	// Valkey
	var cache *valkey.Client
	if cfg.Storage.Uses(config.BackendValkey) {
		cache, err = valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, local storage disabled", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// Temporal
	var tc client.Client
	if cfg.Storage.Uses(config.BackendTemporal) {
		tc, err = client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			slog.Warn("temporal unavailable, archiving disabled", "error", err)
			tc = nil
		} else {
			defer tc.Close()
		}
	}

	chain := storage.NewChain(backends(cfg, bridge, db, cache, tc)...)
	slog.Info("storage configured", "backends", chain.Names())

	autosaver := usecases.NewAutosaver(chain, "chain", cfg.Storage.SaveTimeout)

	bus := events.NewBus()
	var wsSource http.EventSource = bus

	// NATS: forward local events, relay every instance's events to websockets
	var natsConn *nats.Conn
	if cfg.NATS.URL != "" {
		natsConn, err = natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
			natsConn = nil
		} else {
			defer natsConn.Close()
		}

		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats publisher unavailable", "error", err)
		} else {
			defer pub.Close()
			unsubscribe := pub.Forward(bus)
			defer unsubscribe()

			sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
			if err != nil {
				slog.Warn("nats subscriber unavailable", "error", err)
			} else {
				relay := events.NewBus()
				if err := sub.Subscribe(relay.Publish); err != nil {
					slog.Warn("nats subscribe failed", "error", err)
				} else {
					wsSource = relay
				}
				defer sub.Close()
			}
		}
	}

	drawing := usecases.NewDrawingService(chain, autosaver, bus, usecases.DrawingOptions{
		HistoryLimit: cfg.Drawing.HistoryLimit,
		CircleSteps:  cfg.Drawing.CircleSteps,
		Tool:         toolConfig(cfg.Drawing),
	})
	if err := drawing.Restore(ctx); err != nil {
		slog.Warn("starting with an empty drawing", "error", err)
	}

	var palettes ports.PaletteStore = filebridge.NewPaletteFile(bridge, cfg.Storage.PalettePath)
	if cache != nil {
		palettes = valkey.NewPaletteStore(cache, cfg.Storage.PaletteKey)
	}

	deps := &http.Dependencies{
		Drawing:     drawing,
		Palette:     usecases.NewPaletteService(palettes),
		Sessions:    http.NewSessionRegistry(drawing),
		Events:      wsSource,
		NATS:        natsConn,
		DB:          db,
		Cache:       cache,
		OpenAPIPath: cfg.Server.OpenAPIPath,
		DocumentKey: cfg.Storage.DocumentKey,
	}
	if db != nil {
		deps.Revisions = postgres.NewDrawingRepo(db)
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    8 * 1024 * 1024, // large imported drawings
		AppName:      "Mapdraw API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, If-None-Match",
		ExposeHeaders:    "ETag, Link, Deprecation, Sunset",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	if err := autosaver.Flush(shutdownCtx); err != nil {
		slog.Error("pending drawing not saved", "error", err)
	}
	autosaver.Close()

	slog.Info("server stopped")
}

// backends builds the storage chain in configured order. Backends whose
// client could not be created are left out.
func backends(cfg *config.Config, bridge *filebridge.Bridge, db *postgres.DB, cache *valkey.Client, tc client.Client) []storage.Backend {
	var out []storage.Backend
	for _, name := range cfg.Storage.Backends {
		var store ports.SnapshotStore
		switch name {
		case config.BackendBridge:
			store = bridge
		case config.BackendValkey:
			if cache != nil {
				store = valkey.NewStore(cache, cfg.Storage.StorageKey)
			}
		case config.BackendPostgres:
			if db != nil {
				store = postgres.NewDrawingRepo(db).Store(cfg.Storage.DocumentKey)
			}
		case config.BackendTemporal:
			if tc != nil {
				var repo ports.DrawingRepository
				if db != nil {
					repo = postgres.NewDrawingRepo(db)
				}
				store = temporaladapter.NewStore(tc, repo, cfg.Storage.DocumentKey, cfg.Temporal.TaskQueue)
			}
		}
		if store != nil {
			out = append(out, storage.Backend{Name: name, Store: store})
		}
	}
	return out
}

// toolConfig builds the initial tool. The eraser keeps its default size
// unless the configured weight differs from the default.
func toolConfig(d config.DrawingConfig) tools.Config {
	cfg := tools.DefaultConfig().WithColor(d.DefaultColor)
	if d.DefaultWeight != tools.DefaultWeight {
		cfg = cfg.WithWeight(d.DefaultWeight)
	}
	cfg.DefaultCircleRadius = d.DefaultCircleRadius
	return cfg
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		case <-ctx.Done():
			return
		}
	}
}
