package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samirrijal/mapdraw/internal/core/domain"
	"github.com/samirrijal/mapdraw/internal/core/ports"
	"github.com/samirrijal/mapdraw/internal/core/projection"
	"github.com/samirrijal/mapdraw/internal/pkg/geospatial"
)

// Canvas is the document side of a session.
type Canvas interface {
	Tool() Config
	AddStroke(ctx context.Context, vertices []domain.GeoPoint) (domain.Shape, error)
	AddLine(ctx context.Context, from, to domain.GeoPoint) (domain.Shape, error)
	AddCircle(ctx context.Context, center domain.GeoPoint, radiusMeters float64) (domain.Shape, error)
	AddMarker(ctx context.Context, pos domain.GeoPoint, label string) (domain.Shape, error)
	Erase(ctx context.Context, center domain.GeoPoint, radiusPx float64, proj ports.Projector) (bool, error)
	Commit(ctx context.Context) error
}

// PointerKind is the kind of pointer event.
type PointerKind string

const (
	PointerDown  PointerKind = "down"
	PointerMove  PointerKind = "move"
	PointerUp    PointerKind = "up"
	PointerClick PointerKind = "click"
)

// PointerEvent is one pointer event in map coordinates. Viewport is required
// while erasing, since the eraser is sized in screen pixels.
type PointerEvent struct {
	Kind     PointerKind          `json:"kind"`
	Point    domain.GeoPoint      `json:"point"`
	Viewport *projection.Viewport `json:"viewport,omitempty"`
}

// Outcome reports what a pointer event did.
type Outcome struct {
	Shape     *domain.Shape `json:"shape,omitempty"`
	Changed   bool          `json:"changed"`
	Committed bool          `json:"committed"`
	Pending   bool          `json:"pending"`
}

// ErrViewportRequired is returned for eraser events without a viewport.
var ErrViewportRequired = errors.New("viewport is required for the eraser")

// Session accumulates gestures for one client and turns them into canvas
// calls: freehand strokes, two-click lines and circles, markers, and eraser
// drags that commit once on release.
type Session struct {
	mu     sync.Mutex
	canvas Canvas

	tool    Tool
	pressed bool
	stroke  []domain.GeoPoint
	anchor  *domain.GeoPoint
	erased  bool
}

// NewSession creates a session drawing onto canvas.
func NewSession(canvas Canvas) *Session {
	return &Session{canvas: canvas}
}

// Reset drops any gesture in progress.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.pressed = false
	s.stroke = nil
	s.anchor = nil
	s.erased = false
}

// Pending reports whether a gesture is in progress.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pressed || s.anchor != nil
}

// Handle applies one pointer event.
func (s *Session) Handle(ctx context.Context, ev PointerEvent) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.canvas.Tool()
	if cfg.Tool != s.tool {
		s.reset()
		s.tool = cfg.Tool
	}

	switch cfg.Tool {
	case ToolFreehand:
		return s.freehand(ctx, ev)
	case ToolEraser:
		return s.eraser(ctx, cfg, ev)
	case ToolMarker:
		if ev.Kind != PointerClick {
			return Outcome{}, nil
		}
		shape, err := s.canvas.AddMarker(ctx, ev.Point, "")
		return placed(shape, err)
	case ToolLine:
		if ev.Kind != PointerClick {
			return Outcome{}, nil
		}
		if s.anchor == nil {
			p := ev.Point
			s.anchor = &p
			return Outcome{Pending: true}, nil
		}
		from := *s.anchor
		s.anchor = nil
		shape, err := s.canvas.AddLine(ctx, from, ev.Point)
		return placed(shape, err)
	case ToolCircle:
		if ev.Kind != PointerClick {
			return Outcome{}, nil
		}
		return s.circle(ctx, cfg, ev)
	default:
		return Outcome{}, fmt.Errorf("unknown tool %q", cfg.Tool)
	}
}

func (s *Session) freehand(ctx context.Context, ev PointerEvent) (Outcome, error) {
	switch ev.Kind {
	case PointerDown:
		s.pressed = true
		s.stroke = []domain.GeoPoint{ev.Point}
		return Outcome{Pending: true}, nil
	case PointerMove:
		if !s.pressed {
			return Outcome{}, nil
		}
		s.stroke = append(s.stroke, ev.Point)
		return Outcome{Pending: true}, nil
	case PointerUp:
		if !s.pressed {
			return Outcome{}, nil
		}
		stroke := s.stroke
		s.reset()
		if len(stroke) < 2 {
			return Outcome{}, nil
		}
		shape, err := s.canvas.AddStroke(ctx, stroke)
		return placed(shape, err)
	}
	return Outcome{}, nil
}

func (s *Session) eraser(ctx context.Context, cfg Config, ev PointerEvent) (Outcome, error) {
	switch ev.Kind {
	case PointerDown, PointerMove:
		if ev.Kind == PointerMove && !s.pressed {
			return Outcome{}, nil
		}
		if ev.Viewport == nil {
			return Outcome{}, ErrViewportRequired
		}
		if err := ev.Viewport.Validate(); err != nil {
			return Outcome{}, fmt.Errorf("viewport: %w", err)
		}
		s.pressed = true
		changed, err := s.canvas.Erase(ctx, ev.Point, cfg.EraserRadius, *ev.Viewport)
		if err != nil {
			return Outcome{}, err
		}
		s.erased = s.erased || changed
		return Outcome{Changed: changed, Pending: true}, nil
	case PointerUp:
		if !s.pressed {
			return Outcome{}, nil
		}
		erased := s.erased
		s.reset()
		if !erased {
			return Outcome{}, nil
		}
		if err := s.canvas.Commit(ctx); err != nil {
			return Outcome{}, err
		}
		return Outcome{Changed: true, Committed: true}, nil
	}
	return Outcome{}, nil
}

func (s *Session) circle(ctx context.Context, cfg Config, ev PointerEvent) (Outcome, error) {
	if s.anchor == nil && cfg.UseDefaultCircleRadius {
		shape, err := s.canvas.AddCircle(ctx, ev.Point, cfg.DefaultCircleRadius)
		return placed(shape, err)
	}
	if s.anchor == nil {
		p := ev.Point
		s.anchor = &p
		return Outcome{Pending: true}, nil
	}

	center := *s.anchor
	s.anchor = nil
	radius := cfg.DefaultCircleRadius
	if !cfg.UseDefaultCircleRadius {
		radius = geospatial.Haversine(center.Lat, center.Lon, ev.Point.Lat, ev.Point.Lon)
	}
	shape, err := s.canvas.AddCircle(ctx, center, radius)
	return placed(shape, err)
}

func placed(shape domain.Shape, err error) (Outcome, error) {
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Shape: &shape, Changed: true, Committed: true}, nil
}
