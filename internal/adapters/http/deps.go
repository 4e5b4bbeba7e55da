package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapdraw/internal/adapters/postgres"
	"github.com/samirrijal/mapdraw/internal/adapters/valkey"
	"github.com/samirrijal/mapdraw/internal/core/events"
	"github.com/samirrijal/mapdraw/internal/core/ports"
	"github.com/samirrijal/mapdraw/internal/core/usecases"
)

// EventSource feeds the websocket relay. *events.Bus satisfies it.
type EventSource interface {
	Subscribe(h events.Handler) (unsubscribe func())
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Drawing  *usecases.DrawingService
	Palette  *usecases.PaletteService
	Sessions *SessionRegistry
	Events   EventSource
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Client

	// Revisions serves the archive behind /v1/revisions; nil disables it.
	Revisions   ports.DrawingRepository
	DocumentKey string

	// OpenAPIPath locates the document served at /docs/openapi.yaml.
	OpenAPIPath string
}
