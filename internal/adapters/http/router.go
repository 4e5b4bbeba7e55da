package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/mapdraw/internal/pkg/metrics"
)

// requestTimeout bounds every /v1 handler.
const requestTimeout = 15 * time.Second

// geojsonSunset is when the unversioned /geojson alias goes away.
var geojsonSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestContextMiddleware())
	app.Use(AccessLogMiddleware())

	// Pointer streams are chatty; 600 requests per minute per IP.
	app.Use(limiter.New(limiter.Config{
		Max:        600,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, 429, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Path: "/geojson", SunsetDate: geojsonSunset, Alternative: "/v1/document"},
	}))
	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	with := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, requestTimeout)
	}

	v1.Get("/document", with(GetDocumentHandler(deps)))
	v1.Put("/document", with(ImportDocumentHandler(deps)))
	v1.Delete("/document", with(ClearDocumentHandler(deps)))

	v1.Get("/shapes", with(ListShapesHandler(deps)))
	v1.Post("/shapes/markers", with(AddMarkerHandler(deps)))
	v1.Post("/shapes/lines", with(AddLineHandler(deps)))
	v1.Post("/shapes/circles", with(AddCircleHandler(deps)))
	v1.Post("/shapes/strokes", with(AddStrokeHandler(deps)))
	v1.Delete("/shapes/:id", with(DeleteShapeHandler(deps)))

	v1.Get("/pins", with(ListPinsHandler(deps)))
	v1.Patch("/pins/:id", with(RenamePinHandler(deps)))
	v1.Delete("/pins/:id", with(DeletePinHandler(deps)))

	v1.Post("/erase", with(EraseHandler(deps)))
	v1.Post("/undo", with(UndoHandler(deps)))
	v1.Get("/history", with(HistoryHandler(deps)))

	v1.Get("/tool", with(GetToolHandler(deps)))
	v1.Put("/tool", with(SetToolHandler(deps)))
	v1.Get("/palette", with(GetPaletteHandler(deps)))
	v1.Put("/palette", with(SetPaletteHandler(deps)))

	v1.Post("/session/events", with(SessionEventsHandler(deps)))
	v1.Get("/status", with(StatusHandler(deps)))
	v1.Get("/revisions/latest", with(LatestRevisionHandler(deps)))

	// Deprecated unversioned export
	app.Get("/geojson", GetDocumentHandler(deps))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app, deps.OpenAPIPath)

	// WebSocket
	if deps.Events != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.Events)))
	}
}
