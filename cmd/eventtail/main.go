package main

import (
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "github.com/samirrijal/mapdraw/internal/adapters/nats"
	"github.com/samirrijal/mapdraw/internal/core/events"
	"github.com/samirrijal/mapdraw/internal/pkg/config"
	"github.com/samirrijal/mapdraw/internal/pkg/logging"
)

// eventtail prints drawing events from every API instance as JSON lines.
// Optional arguments restrict output to the given event types, for example
// "document.changed".
func main() {
	cfg, err := config.Load("mapdraw-eventtail")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	if cfg.NATS.URL == "" {
		log.Fatal("nats.url is not set (MAPDRAW_NATS_URL)")
	}

	want := map[events.Type]bool{}
	for _, arg := range os.Args[1:] {
		want[events.Type(arg)] = true
	}

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	lines := make(chan events.Event, 256)
	err = sub.Subscribe(func(ev events.Event) {
		if len(want) > 0 && !want[ev.Type] {
			return
		}
		select {
		case lines <- ev:
		default:
			slog.Warn("output behind, event dropped", "type", ev.Type, "revision", ev.Revision)
		}
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("tailing drawing events", "subject", natsadapter.SubjectPrefix+">")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	enc := json.NewEncoder(os.Stdout)
	for {
		select {
		case ev := <-lines:
			if err := enc.Encode(ev); err != nil {
				log.Fatalf("write: %v", err)
			}
		case sig := <-quit:
			slog.Info("stopping", "signal", sig.String())
			return
		}
	}
}
