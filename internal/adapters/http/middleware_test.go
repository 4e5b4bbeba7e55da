package http_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/mapdraw/internal/adapters/http"
)

func TestDeprecation_ParamPattern(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(handler.DeprecationMiddleware([]handler.DeprecatedRoute{
		{Path: "/old/:id", SunsetDate: time.Now().Add(48 * time.Hour), Alternative: "/v1/shapes/:id"},
	}))
	app.Get("/old/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/old/:id/more", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, _ := app.Test(httptest.NewRequest("GET", "/old/abc", nil), -1)
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected /old/abc to match /old/:id")
	}
	if resp.Header.Get("Sunset") == "" {
		t.Error("expected Sunset header")
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/old/abc/more", nil), -1)
	if resp.Header.Get("Deprecation") != "" {
		t.Error("longer path must not match")
	}
}

func TestETag_WeakAndListMatch(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(handler.ETagMiddleware())
	app.Get("/x", func(c *fiber.Ctx) error { return c.SendString("body") })

	resp, _ := app.Test(httptest.NewRequest("GET", "/x", nil), -1)
	etag := resp.Header.Get("ETag")

	for _, h := range []string{etag, `"other", ` + etag, etag[2:], "*"} {
		req := httptest.NewRequest("GET", "/x", nil)
		req.Header.Set("If-None-Match", h)
		resp, _ := app.Test(req, -1)
		if resp.StatusCode != 304 {
			t.Errorf("If-None-Match %q: expected 304, got %d", h, resp.StatusCode)
		}
	}

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("If-None-Match", `"other"`)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Errorf("expected 200 for a stale tag, got %d", resp.StatusCode)
	}
}

func TestCaching_DrawingStateRevalidates(t *testing.T) {
	app := setupApp(makeDeps(t))
	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/status", nil), -1)
	if got := resp.Header.Get("Cache-Control"); got != "private, no-cache" {
		t.Errorf("expected private, no-cache, got %q", got)
	}
}

func TestSessionRegistry_ReusesSession(t *testing.T) {
	deps := makeDeps(t)
	a := deps.Sessions.Get("a")
	if deps.Sessions.Get("a") != a {
		t.Error("expected the same session for the same id")
	}
	if deps.Sessions.Get("") != deps.Sessions.Get(handler.DefaultSessionID) {
		t.Error("empty id should map to the default session")
	}
	if deps.Sessions.Len() != 2 {
		t.Errorf("expected 2 sessions, got %d", deps.Sessions.Len())
	}
}
