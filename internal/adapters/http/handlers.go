package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapdraw/internal/core/domain"
	"github.com/samirrijal/mapdraw/internal/core/projection"
	"github.com/samirrijal/mapdraw/internal/core/tools"
)

const geoJSONContentType = "application/geo+json"

// GetDocumentHandler returns the live document as a GeoJSON FeatureCollection.
func GetDocumentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := deps.Drawing.Export(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set(fiber.HeaderContentType, geoJSONContentType)
		return c.Send(data)
	}
}

// ImportDocumentHandler replaces the document with the GeoJSON request body.
// Malformed input is rejected and the document is left unchanged.
func ImportDocumentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Drawing.Import(c.UserContext(), c.Body()); err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(deps.Drawing.Status())
	}
}

// ClearDocumentHandler empties the document and its history.
func ClearDocumentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Drawing.Clear(c.UserContext()); err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(deps.Drawing.Status())
	}
}

// ListShapesHandler returns the shapes in z-order, paginated.
func ListShapesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shapes, pg := paginate(c, deps.Drawing.Shapes(), 100, 500)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: shapes, Pagination: pg})
	}
}

type markerRequest struct {
	Position domain.GeoPoint `json:"position"`
	Label    string          `json:"label"`
}

// AddMarkerHandler places a marker. Without a label it is named "Pinpoint N".
func AddMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req markerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		shape, err := deps.Drawing.AddMarker(c.UserContext(), req.Position, req.Label)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(shape)
	}
}

type lineRequest struct {
	From domain.GeoPoint `json:"from"`
	To   domain.GeoPoint `json:"to"`
}

// AddLineHandler places a straight line in the current style.
func AddLineHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req lineRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		shape, err := deps.Drawing.AddLine(c.UserContext(), req.From, req.To)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(shape)
	}
}

type strokeRequest struct {
	Vertices []domain.GeoPoint `json:"vertices"`
}

// AddStrokeHandler places a freehand stroke in the current style.
func AddStrokeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req strokeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		shape, err := deps.Drawing.AddStroke(c.UserContext(), req.Vertices)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(shape)
	}
}

type circleRequest struct {
	Center       domain.GeoPoint `json:"center"`
	RadiusMeters *float64        `json:"radius_meters"`
}

// AddCircleHandler places a circle. Without a radius the tool's default
// circle radius is used.
func AddCircleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req circleRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		radius := deps.Drawing.Tool().DefaultCircleRadius
		if req.RadiusMeters != nil {
			radius = *req.RadiusMeters
		}
		shape, err := deps.Drawing.AddCircle(c.UserContext(), req.Center, radius)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(shape)
	}
}

// DeleteShapeHandler removes any shape by ID.
func DeleteShapeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Drawing.RemoveShape(c.UserContext(), c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListPinsHandler returns the markers for the pin list.
func ListPinsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pins := deps.Drawing.Pins()
		if pins == nil {
			pins = []domain.Pin{}
		}
		return c.JSON(pins)
	}
}

type renameRequest struct {
	Label string `json:"label"`
}

// RenamePinHandler changes a marker's label.
func RenamePinHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req renameRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Drawing.RenameMarker(c.UserContext(), c.Params("id"), req.Label); err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(deps.Drawing.Pins())
	}
}

// DeletePinHandler removes a marker from the pin list.
func DeletePinHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Drawing.DeleteMarker(c.UserContext(), c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type eraseRequest struct {
	Center   domain.GeoPoint     `json:"center"`
	RadiusPx *float64            `json:"radius_px"`
	Viewport projection.Viewport `json:"viewport"`
}

// EraseHandler applies one eraser stamp and commits if anything changed.
// Without a radius the tool's eraser radius is used.
func EraseHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req eraseRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := req.Viewport.Validate(); err != nil {
			return errBadRequest(c, "viewport: "+err.Error())
		}
		radius := deps.Drawing.Tool().EraserRadius
		if req.RadiusPx != nil {
			radius = *req.RadiusPx
		}
		if radius < 0 {
			return errBadRequest(c, "radius_px must be >= 0")
		}
		changed, err := deps.Drawing.EraseAndCommit(c.UserContext(), req.Center, radius, req.Viewport)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{
			"changed": changed,
			"shapes":  len(deps.Drawing.Shapes()),
		})
	}
}

// UndoHandler restores the previous snapshot. Undo with nothing to undo is
// not an error.
func UndoHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		undone, err := deps.Drawing.Undo(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{
			"undone":        undone,
			"history_depth": deps.Drawing.HistoryDepth(),
		})
	}
}

// HistoryHandler reports the history depth and capacity.
func HistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		depth := deps.Drawing.HistoryDepth()
		return c.JSON(fiber.Map{
			"depth":    depth,
			"limit":    deps.Drawing.HistoryLimit(),
			"can_undo": depth >= 2,
		})
	}
}

// GetToolHandler returns the current tool configuration.
func GetToolHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Drawing.Tool())
	}
}

// toolRequest is a partial update; omitted fields keep their value.
type toolRequest struct {
	Tool                   *tools.Tool `json:"tool"`
	Color                  *string     `json:"color"`
	Weight                 *float64    `json:"weight"`
	EraserRadius           *float64    `json:"eraser_radius"`
	DefaultCircleRadius    *float64    `json:"default_circle_radius"`
	UseDefaultCircleRadius *bool       `json:"use_default_circle_radius"`
}

func (r toolRequest) apply(cfg tools.Config) tools.Config {
	if r.Tool != nil {
		cfg = cfg.WithTool(*r.Tool)
	}
	if r.Color != nil {
		cfg = cfg.WithColor(*r.Color)
	}
	if r.Weight != nil {
		cfg = cfg.WithWeight(*r.Weight)
	}
	if r.EraserRadius != nil {
		cfg.EraserRadius = *r.EraserRadius
	}
	if r.DefaultCircleRadius != nil {
		cfg.DefaultCircleRadius = *r.DefaultCircleRadius
	}
	if r.UseDefaultCircleRadius != nil {
		cfg.UseDefaultCircleRadius = *r.UseDefaultCircleRadius
	}
	return cfg
}

// SetToolHandler updates the tool configuration. Changing the weight also
// resizes the eraser unless eraser_radius is given explicitly.
func SetToolHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req toolRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		cfg := req.apply(deps.Drawing.Tool())
		if err := deps.Drawing.SetTool(c.UserContext(), cfg); err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(cfg)
	}
}

type paletteBody struct {
	Colors []string `json:"colors"`
}

// GetPaletteHandler returns the custom colour palette.
func GetPaletteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(paletteBody{Colors: deps.Palette.Get(c.UserContext())})
	}
}

// SetPaletteHandler stores the custom colour palette.
func SetPaletteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req paletteBody
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Palette.Set(c.UserContext(), req.Colors); err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(req)
	}
}

type sessionEventsRequest struct {
	Session string               `json:"session"`
	Events  []tools.PointerEvent `json:"events"`
}

// SessionEventsHandler feeds pointer events to the caller's session in
// order. Processing stops at the first failing event; the outcomes of the
// events before it are still returned.
func SessionEventsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req sessionEventsRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(req.Events) == 0 {
			return errBadRequest(c, "events must not be empty")
		}

		session := deps.Sessions.Get(req.Session)
		outcomes := make([]tools.Outcome, 0, len(req.Events))
		for _, ev := range req.Events {
			out, err := session.Handle(c.UserContext(), ev)
			if err != nil {
				return errFromDomain(c, err)
			}
			outcomes = append(outcomes, out)
		}
		return c.JSON(fiber.Map{
			"outcomes": outcomes,
			"pending":  session.Pending(),
			"status":   deps.Drawing.Status(),
		})
	}
}

// StatusHandler returns the status-bar summary.
func StatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Drawing.Status())
	}
}

// LatestRevisionHandler returns the newest archived revision of the drawing.
func LatestRevisionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Revisions == nil {
			return errNotFound(c, "revision archive not configured")
		}
		rev, err := deps.Revisions.LatestRevision(c.UserContext(), deps.DocumentKey)
		if err != nil {
			return errFromDomain(c, err)
		}
		if rev == nil {
			return errNotFound(c, "no revisions archived")
		}
		return c.JSON(rev)
	}
}
