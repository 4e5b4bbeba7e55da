package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapdraw/internal/core/domain"
	"github.com/samirrijal/mapdraw/internal/core/projection"
	"github.com/samirrijal/mapdraw/internal/core/tools"
	"github.com/samirrijal/mapdraw/internal/core/usecases"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, parse_error, not_found, conflict, internal_error
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}

// errFromDomain maps core errors onto HTTP responses.
func errFromDomain(c *fiber.Ctx, err error) error {
	var perr *domain.ParseError
	switch {
	case errors.As(err, &perr):
		return newError(c, 400, "parse_error", err.Error())
	case errors.Is(err, domain.ErrShapeNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrNotMarker):
		return errConflict(c, err.Error())
	case errors.Is(err, domain.ErrInvalidShape),
		errors.Is(err, usecases.ErrInvalidTool),
		errors.Is(err, usecases.ErrInvalidPalette),
		errors.Is(err, tools.ErrViewportRequired),
		errors.Is(err, projection.ErrInvalidViewport):
		return errBadRequest(c, err.Error())
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
		return errInternal(c, err.Error())
	}
}
