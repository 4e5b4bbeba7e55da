package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/mapdraw/internal/core/domain"
	"github.com/samirrijal/mapdraw/internal/core/eraser"
	"github.com/samirrijal/mapdraw/internal/core/events"
	"github.com/samirrijal/mapdraw/internal/core/ports"
	"github.com/samirrijal/mapdraw/internal/core/tools"
	"github.com/samirrijal/mapdraw/internal/pkg/metrics"
	"github.com/samirrijal/mapdraw/internal/pkg/telemetry"
)

// ClearedSnapshot is what Clear writes to storage.
const ClearedSnapshot = "{}"

// DefaultMarkerLabel prefixes generated marker labels.
const DefaultMarkerLabel = "Pinpoint"

// ErrInvalidTool is returned by SetTool for an unusable configuration.
var ErrInvalidTool = errors.New("invalid tool configuration")

// DrawingOptions configures a DrawingService.
type DrawingOptions struct {
	HistoryLimit int
	CircleSteps  int
	Tool         tools.Config
}

// Status is the status-bar summary of the editor.
type Status struct {
	Tool         tools.Tool `json:"tool"`
	Color        string     `json:"color"`
	Weight       float64    `json:"weight"`
	EraserRadius float64    `json:"eraser_radius"`
	Pins         int        `json:"pins"`
	Shapes       int        `json:"shapes"`
	HistoryDepth int        `json:"history_depth"`
	Revision     int64      `json:"revision"`

	// Bounds covers every shape; nil for an empty drawing.
	Bounds *domain.Bounds `json:"bounds,omitempty"`
}

// DrawingService owns the live document, its history and the tool state.
// All mutations are serialised by a mutex; events are published after the
// lock is released.
type DrawingService struct {
	mu       sync.Mutex
	doc      *domain.Document
	history  *History
	tool     tools.Config
	engine   eraser.Engine
	revision int64

	store  ports.SnapshotStore
	saver  Saver
	events events.Publisher
	tracer trace.Tracer
}

// NewDrawingService creates a service with an empty document. store is read
// by Restore; saver receives every committed snapshot. Either may be nil.
func NewDrawingService(store ports.SnapshotStore, saver Saver, publisher events.Publisher, opts DrawingOptions) *DrawingService {
	cfg := opts.Tool
	if cfg.Tool == "" {
		cfg = tools.DefaultConfig()
	}
	return &DrawingService{
		doc:     &domain.Document{},
		history: NewHistory(opts.HistoryLimit, saver),
		tool:    cfg,
		engine:  eraser.Engine{CircleSteps: opts.CircleSteps},
		store:   store,
		saver:   saver,
		events:  publisher,
		tracer:  telemetry.Tracer(),
	}
}

// Document returns a copy of the live document.
func (s *DrawingService) Document() *domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Shapes returns the live shapes in z-order.
func (s *DrawingService) Shapes() []domain.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Shapes()
}

// Pins returns the markers for the pin list.
func (s *DrawingService) Pins() []domain.Pin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Pins()
}

// Export serializes the live document.
func (s *DrawingService) Export(ctx context.Context) ([]byte, error) {
	_, span := s.tracer.Start(ctx, "DrawingService.Export")
	defer span.End()

	s.mu.Lock()
	doc := s.doc.Clone()
	s.mu.Unlock()
	return domain.EncodeGeoJSON(doc)
}

// Import replaces the document with data. The input is parsed completely
// before anything changes; a *domain.ParseError leaves the document as is.
func (s *DrawingService) Import(ctx context.Context, data []byte) error {
	return s.mutate(ctx, "import", func() error {
		doc, err := domain.DecodeGeoJSON(data, s.tool.Style())
		if err != nil {
			return err
		}
		s.doc = doc
		return nil
	})
}

// Clear empties the document and the history and writes an empty snapshot
// to storage. Nothing is left to undo.
func (s *DrawingService) Clear(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "DrawingService.Clear")
	defer span.End()

	s.mu.Lock()
	s.doc = &domain.Document{}
	s.history.Reset()
	s.revision++
	ev := s.documentEvent("clear")
	s.mu.Unlock()

	if s.saver != nil {
		s.saver.Save(ClearedSnapshot)
	}
	s.publish(ev)
	return nil
}

// AddMarker places a marker. An empty label becomes "Pinpoint N", N being
// one more than the current number of pins.
func (s *DrawingService) AddMarker(ctx context.Context, pos domain.GeoPoint, label string) (domain.Shape, error) {
	var shape domain.Shape
	err := s.mutate(ctx, "add_marker", func() error {
		if label == "" {
			label = DefaultMarkerLabel + " " + strconv.Itoa(len(s.doc.Pins())+1)
		}
		shape = domain.NewMarker(pos, label)
		return s.doc.AddShape(shape)
	})
	return shape, err
}

// AddLine places a straight two-point line in the current style.
func (s *DrawingService) AddLine(ctx context.Context, from, to domain.GeoPoint) (domain.Shape, error) {
	return s.addPolyline(ctx, "add_line", []domain.GeoPoint{from, to})
}

// AddStroke places a freehand stroke in the current style.
func (s *DrawingService) AddStroke(ctx context.Context, vertices []domain.GeoPoint) (domain.Shape, error) {
	return s.addPolyline(ctx, "add_stroke", vertices)
}

func (s *DrawingService) addPolyline(ctx context.Context, reason string, vertices []domain.GeoPoint) (domain.Shape, error) {
	var shape domain.Shape
	err := s.mutate(ctx, reason, func() error {
		var err error
		shape, err = domain.NewPolyline(vertices, s.tool.Style())
		if err != nil {
			return err
		}
		return s.doc.AddShape(shape)
	})
	return shape, err
}

// AddCircle places a circle in the current style. Negative radii are
// clamped to zero.
func (s *DrawingService) AddCircle(ctx context.Context, center domain.GeoPoint, radiusMeters float64) (domain.Shape, error) {
	if radiusMeters < 0 {
		radiusMeters = 0
	}
	var shape domain.Shape
	err := s.mutate(ctx, "add_circle", func() error {
		var err error
		shape, err = domain.NewCircle(center, radiusMeters, s.tool.Style())
		if err != nil {
			return err
		}
		return s.doc.AddShape(shape)
	})
	return shape, err
}

// RemoveShape deletes any shape.
func (s *DrawingService) RemoveShape(ctx context.Context, id string) error {
	return s.mutate(ctx, "remove_shape", func() error {
		return s.doc.RemoveShape(id)
	})
}

// RenameMarker changes a marker's label.
func (s *DrawingService) RenameMarker(ctx context.Context, id, label string) error {
	return s.mutate(ctx, "rename_marker", func() error {
		return s.doc.RenameMarker(id, label)
	})
}

// DeleteMarker removes a marker from the pin list. Other shape kinds are
// rejected with domain.ErrNotMarker.
func (s *DrawingService) DeleteMarker(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_marker", func() error {
		shape, err := s.doc.Shape(id)
		if err != nil {
			return err
		}
		if shape.Kind != domain.KindMarker {
			return fmt.Errorf("%w: %s is a %s", domain.ErrNotMarker, id, shape.Kind)
		}
		return s.doc.RemoveShape(id)
	})
}

// Erase applies the eraser to the live document without committing, as a
// pointer drag does on every move. Call Commit when the gesture ends.
func (s *DrawingService) Erase(ctx context.Context, center domain.GeoPoint, radiusPx float64, proj ports.Projector) (bool, error) {
	_, span := s.tracer.Start(ctx, "DrawingService.Erase",
		trace.WithAttributes(attribute.Float64("eraser.radius_px", radiusPx)))
	defer span.End()

	s.mu.Lock()
	changed := s.erase(center, radiusPx, proj)
	var ev events.Event
	if changed {
		s.revision++
		ev = s.documentEvent("erase")
	}
	s.mu.Unlock()

	span.SetAttributes(attribute.Bool("eraser.changed", changed))
	if changed {
		s.publish(ev)
	}
	return changed, nil
}

// EraseAndCommit applies the eraser and commits when anything changed.
func (s *DrawingService) EraseAndCommit(ctx context.Context, center domain.GeoPoint, radiusPx float64, proj ports.Projector) (bool, error) {
	changed := false
	err := s.mutateIf(ctx, "erase", func() (bool, error) {
		changed = s.erase(center, radiusPx, proj)
		return changed, nil
	})
	return changed, err
}

func (s *DrawingService) erase(center domain.GeoPoint, radiusPx float64, proj ports.Projector) bool {
	start := time.Now()
	out, changed := s.engine.Erase(s.doc, center, radiusPx, proj)
	metrics.EraseDuration.Observe(time.Since(start).Seconds())
	metrics.EraseOperations.WithLabelValues(strconv.FormatBool(changed)).Inc()
	if changed {
		s.doc = out
	}
	return changed
}

// Commit snapshots the live document into the history.
func (s *DrawingService) Commit(ctx context.Context) error {
	return s.mutate(ctx, "commit", func() error { return nil })
}

// Undo restores the previous snapshot. ok is false when there is nothing to
// undo.
func (s *DrawingService) Undo(ctx context.Context) (bool, error) {
	_, span := s.tracer.Start(ctx, "DrawingService.Undo")
	defer span.End()

	s.mu.Lock()
	doc, ok, err := s.history.Undo(s.tool.Style())
	if err != nil || !ok {
		s.mu.Unlock()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return false, err
	}
	s.doc = doc
	s.revision++
	ev := s.documentEvent("undo")
	s.mu.Unlock()

	s.publish(ev)
	return true, nil
}

// HistoryDepth returns the number of snapshots held.
func (s *DrawingService) HistoryDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Depth()
}

// HistoryLimit returns the history capacity.
func (s *DrawingService) HistoryLimit() int {
	return s.history.Limit()
}

// Tool returns the current tool configuration.
func (s *DrawingService) Tool() tools.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// SetTool replaces the tool configuration.
func (s *DrawingService) SetTool(ctx context.Context, cfg tools.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTool, err)
	}
	s.mu.Lock()
	s.tool = cfg
	s.mu.Unlock()

	s.publish(events.Event{Type: events.ToolChanged, Reason: "set_tool", Tool: &cfg})
	return nil
}

// Status summarises the editor for a status bar.
func (s *DrawingService) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	var bounds *domain.Bounds
	if b, ok := s.doc.Bounds(); ok {
		bounds = &b
	}
	return Status{
		Bounds:       bounds,
		Tool:         s.tool.Tool,
		Color:        s.tool.Color,
		Weight:       s.tool.Weight,
		EraserRadius: s.tool.EraserRadius,
		Pins:         len(s.doc.Pins()),
		Shapes:       s.doc.Len(),
		HistoryDepth: s.history.Depth(),
		Revision:     s.revision,
	}
}

// Restore loads the stored drawing and makes it the first history snapshot.
// Stores that hold several candidates are walked until one decodes. A
// restored drawing is saved back so every backend holds it; when nothing
// usable was found the document starts empty and nothing is written, so a
// corrupt or unreachable backend never overwrites another's drawing. Load
// errors are returned for logging.
func (s *DrawingService) Restore(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "DrawingService.Restore")
	defer span.End()

	style := s.Tool().Style()
	doc := &domain.Document{}
	decode := func(snapshot string) error {
		decoded, err := domain.DecodeGeoJSON([]byte(snapshot), style)
		if err != nil {
			return err
		}
		doc = decoded
		return nil
	}

	var (
		snapshot string
		loadErr  error
	)
	switch store := s.store.(type) {
	case nil:
	case ports.ValidatingLoader:
		snapshot, loadErr = store.LoadValid(ctx, decode)
	default:
		snapshot, loadErr = store.Load(ctx)
		if loadErr == nil && snapshot != "" {
			loadErr = decode(snapshot)
		}
	}
	restored := loadErr == nil && snapshot != ""
	if !restored {
		doc = &domain.Document{}
	}

	s.mu.Lock()
	s.doc = doc
	s.history.Reset()
	var err error
	if restored {
		err = s.history.Commit(doc)
	} else {
		err = s.history.Seed(doc)
	}
	s.revision++
	ev := s.documentEvent("restore")
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.publish(ev)
	if loadErr != nil {
		span.RecordError(loadErr)
		return fmt.Errorf("restore drawing: %w", loadErr)
	}
	slog.Info("drawing restored", "shapes", doc.Len(), "pins", len(doc.Pins()))
	return nil
}

// mutate runs fn under the lock and commits the result. If fn fails the
// document is rolled back and nothing is committed.
func (s *DrawingService) mutate(ctx context.Context, reason string, fn func() error) error {
	return s.mutateIf(ctx, reason, func() (bool, error) {
		return true, fn()
	})
}

func (s *DrawingService) mutateIf(ctx context.Context, reason string, fn func() (bool, error)) error {
	_, span := s.tracer.Start(ctx, "DrawingService."+reason)
	defer span.End()

	s.mu.Lock()
	before := s.doc.Clone()
	commit, err := fn()
	if err == nil && commit {
		err = s.history.Commit(s.doc)
	}
	if err != nil {
		s.doc = before
		s.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if !commit {
		s.mu.Unlock()
		return nil
	}
	s.revision++
	ev := s.documentEvent(reason)
	s.mu.Unlock()

	s.publish(ev)
	return nil
}

// documentEvent builds a change event and refreshes the gauges. Callers
// hold the lock.
func (s *DrawingService) documentEvent(reason string) events.Event {
	var markers, polylines, circles int
	for _, shape := range s.doc.Shapes() {
		switch shape.Kind {
		case domain.KindMarker:
			markers++
		case domain.KindPolyline:
			polylines++
		case domain.KindCircle:
			circles++
		}
	}
	metrics.ObserveDocument(markers, polylines, circles, s.history.Depth())

	return events.Event{
		Type:     events.DocumentChanged,
		Reason:   reason,
		Revision: s.revision,
		Shapes:   s.doc.Len(),
		Pins:     s.doc.Pins(),
	}
}

func (s *DrawingService) publish(ev events.Event) {
	if s.events != nil {
		s.events.Publish(ev)
	}
}
