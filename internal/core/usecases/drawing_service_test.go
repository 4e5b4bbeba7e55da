package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/mapdraw/internal/core/domain"
	"github.com/samirrijal/mapdraw/internal/core/events"
	"github.com/samirrijal/mapdraw/internal/core/tools"
	"github.com/samirrijal/mapdraw/internal/core/usecases"
)

// --- Mock Projector ---

// flatProjector treats Lon as X and Lat as Y, one metre per pixel.
type flatProjector struct{}

func (flatProjector) Project(p domain.GeoPoint) domain.Pixel {
	return domain.Pixel{X: p.Lon, Y: p.Lat}
}

func (flatProjector) Unproject(px domain.Pixel) domain.GeoPoint {
	return domain.GeoPoint{Lat: px.Y, Lon: px.X}
}

func (flatProjector) MetersPerPixel(domain.GeoPoint) float64 { return 1 }

// --- Mock Publisher ---

type recordingPublisher struct {
	events []events.Event
}

func (r *recordingPublisher) Publish(ev events.Event) { r.events = append(r.events, ev) }

func newService(t *testing.T) (*usecases.DrawingService, *recordingSaver, *recordingPublisher) {
	t.Helper()
	saver := &recordingSaver{}
	pub := &recordingPublisher{}
	svc := usecases.NewDrawingService(nil, saver, pub, usecases.DrawingOptions{})
	if err := svc.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	return svc, saver, pub
}

func gp(lat, lon float64) domain.GeoPoint { return domain.GeoPoint{Lat: lat, Lon: lon} }

// --- Tests ---

func TestDrawingService_MarkerDefaultLabels(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	m1, err := svc.AddMarker(ctx, gp(38.1, 13.3), "")
	if err != nil {
		t.Fatal(err)
	}
	m2, _ := svc.AddMarker(ctx, gp(38.2, 13.4), "")
	named, _ := svc.AddMarker(ctx, gp(38.3, 13.5), "Harbour")

	if m1.Label != "Pinpoint 1" || m2.Label != "Pinpoint 2" || named.Label != "Harbour" {
		t.Errorf("unexpected labels: %q %q %q", m1.Label, m2.Label, named.Label)
	}
	if len(svc.Pins()) != 3 {
		t.Errorf("expected 3 pins, got %d", len(svc.Pins()))
	}
}

func TestDrawingService_CommitUndo(t *testing.T) {
	svc, saver, pub := newService(t)
	ctx := context.Background()

	if _, err := svc.AddLine(ctx, gp(0, 0), gp(0, 20)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddMarker(ctx, gp(1, 1), ""); err != nil {
		t.Fatal(err)
	}
	if svc.HistoryDepth() != 3 {
		t.Fatalf("expected restore + 2 commits, depth %d", svc.HistoryDepth())
	}

	ok, err := svc.Undo(ctx)
	if err != nil || !ok {
		t.Fatalf("undo: ok=%v err=%v", ok, err)
	}
	shapes := svc.Shapes()
	if len(shapes) != 1 || shapes[0].Kind != domain.KindPolyline {
		t.Errorf("expected only the line after undo, got %+v", shapes)
	}
	// Restoring from an empty store writes nothing.
	if len(saver.saved) != 3 {
		t.Errorf("expected a save per commit and undo, got %d", len(saver.saved))
	}

	last := pub.events[len(pub.events)-1]
	if last.Type != events.DocumentChanged || last.Reason != "undo" || last.Shapes != 1 {
		t.Errorf("unexpected last event: %+v", last)
	}
}

func TestDrawingService_UndoAtBaselineIsNoOp(t *testing.T) {
	svc, _, _ := newService(t)
	ok, err := svc.Undo(context.Background())
	if ok || err != nil {
		t.Errorf("expected no-op undo, got ok=%v err=%v", ok, err)
	}
}

func TestDrawingService_EraseLiveThenCommit(t *testing.T) {
	svc, _, pub := newService(t)
	ctx := context.Background()
	_, _ = svc.AddLine(ctx, gp(0, 0), gp(0, 20))
	depth := svc.HistoryDepth()

	changed, err := svc.Erase(ctx, gp(0, 10), 5, flatProjector{})
	if err != nil || !changed {
		t.Fatalf("erase: changed=%v err=%v", changed, err)
	}
	if svc.HistoryDepth() != depth {
		t.Error("live erase must not commit")
	}
	if len(svc.Shapes()) != 2 {
		t.Errorf("expected the line split in two, got %d shapes", len(svc.Shapes()))
	}
	if last := pub.events[len(pub.events)-1]; last.Reason != "erase" {
		t.Errorf("expected erase event, got %+v", last)
	}

	if err := svc.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	if svc.HistoryDepth() != depth+1 {
		t.Error("commit did not add a snapshot")
	}
	if ok, _ := svc.Undo(ctx); !ok || len(svc.Shapes()) != 1 {
		t.Errorf("undo did not restore the unerased line")
	}
}

func TestDrawingService_EraseAndCommitSkipsNoChange(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	_, _ = svc.AddLine(ctx, gp(0, 0), gp(0, 20))
	depth := svc.HistoryDepth()

	changed, err := svc.EraseAndCommit(ctx, gp(50, 50), 5, flatProjector{})
	if err != nil || changed {
		t.Fatalf("expected no change, got changed=%v err=%v", changed, err)
	}
	if svc.HistoryDepth() != depth {
		t.Error("unchanged erase committed a snapshot")
	}

	changed, _ = svc.EraseAndCommit(ctx, gp(0, 10), 5, flatProjector{})
	if !changed || svc.HistoryDepth() != depth+1 {
		t.Errorf("expected committed erase, changed=%v depth=%d", changed, svc.HistoryDepth())
	}
}

func TestDrawingService_ImportParseErrorLeavesDocument(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	_, _ = svc.AddMarker(ctx, gp(1, 1), "")
	depth := svc.HistoryDepth()

	err := svc.Import(ctx, []byte(`{"type":"FeatureCollection","features":[`))
	var perr *domain.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if len(svc.Pins()) != 1 || svc.HistoryDepth() != depth {
		t.Error("failed import modified the document or history")
	}
}

func TestDrawingService_ImportExport(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	_, _ = svc.AddMarker(ctx, gp(1, 1), "a")
	_, _ = svc.AddCircle(ctx, gp(2, 2), 1000)
	data, err := svc.Export(ctx)
	if err != nil {
		t.Fatal(err)
	}

	other, _, _ := newService(t)
	if err := other.Import(ctx, data); err != nil {
		t.Fatalf("import: %v", err)
	}
	shapes := other.Shapes()
	if len(shapes) != 2 || shapes[1].Kind != domain.KindCircle || shapes[1].RadiusMeters != 1000 {
		t.Errorf("import did not reproduce the document: %+v", shapes)
	}
}

func TestDrawingService_ClearResetsHistory(t *testing.T) {
	svc, saver, _ := newService(t)
	ctx := context.Background()
	_, _ = svc.AddMarker(ctx, gp(1, 1), "")

	if err := svc.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if len(svc.Shapes()) != 0 || svc.HistoryDepth() != 0 {
		t.Errorf("expected empty document and history")
	}
	if saver.last() != usecases.ClearedSnapshot {
		t.Errorf("expected %q saved, got %q", usecases.ClearedSnapshot, saver.last())
	}
	if ok, _ := svc.Undo(ctx); ok {
		t.Error("clear must not be undoable")
	}
}

func TestDrawingService_MarkerOps(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	m, _ := svc.AddMarker(ctx, gp(1, 1), "")
	line, _ := svc.AddLine(ctx, gp(0, 0), gp(1, 1))

	if err := svc.RenameMarker(ctx, m.ID, "Home"); err != nil {
		t.Fatal(err)
	}
	if svc.Pins()[0].Label != "Home" {
		t.Error("rename not applied")
	}
	if err := svc.DeleteMarker(ctx, line.ID); !errors.Is(err, domain.ErrNotMarker) {
		t.Errorf("expected ErrNotMarker, got %v", err)
	}
	if err := svc.DeleteMarker(ctx, "nope"); !errors.Is(err, domain.ErrShapeNotFound) {
		t.Errorf("expected ErrShapeNotFound, got %v", err)
	}
	if err := svc.DeleteMarker(ctx, m.ID); err != nil {
		t.Fatal(err)
	}
	if len(svc.Pins()) != 0 || len(svc.Shapes()) != 1 {
		t.Error("delete marker removed the wrong shapes")
	}
}

func TestDrawingService_FailedMutationDoesNotCommit(t *testing.T) {
	svc, _, pub := newService(t)
	depth := svc.HistoryDepth()
	n := len(pub.events)

	if _, err := svc.AddStroke(context.Background(), []domain.GeoPoint{gp(1, 1)}); !errors.Is(err, domain.ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape, got %v", err)
	}
	if svc.HistoryDepth() != depth || len(pub.events) != n {
		t.Error("failed mutation committed or published")
	}
}

func TestDrawingService_CircleClampsRadius(t *testing.T) {
	svc, _, _ := newService(t)
	c, err := svc.AddCircle(context.Background(), gp(1, 1), -5)
	if err != nil {
		t.Fatal(err)
	}
	if c.RadiusMeters != 0 {
		t.Errorf("expected radius clamped to 0, got %v", c.RadiusMeters)
	}
}

func TestDrawingService_SetTool(t *testing.T) {
	svc, _, pub := newService(t)
	ctx := context.Background()

	cfg := tools.DefaultConfig().WithTool(tools.ToolEraser).WithWeight(10)
	if err := svc.SetTool(ctx, cfg); err != nil {
		t.Fatal(err)
	}
	if svc.Tool().EraserRadius != 28 {
		t.Errorf("expected eraser radius 28, got %v", svc.Tool().EraserRadius)
	}
	last := pub.events[len(pub.events)-1]
	if last.Type != events.ToolChanged || last.Tool == nil || last.Tool.Tool != tools.ToolEraser {
		t.Errorf("unexpected tool event: %+v", last)
	}

	if err := svc.SetTool(ctx, cfg.WithWeight(-1)); !errors.Is(err, usecases.ErrInvalidTool) {
		t.Errorf("expected ErrInvalidTool, got %v", err)
	}

	st := svc.Status()
	if st.Tool != tools.ToolEraser || st.Weight != 10 {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestDrawingService_StrokeUsesToolStyle(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	_ = svc.SetTool(ctx, tools.DefaultConfig().WithColor("#00ff00").WithWeight(7))

	s, err := svc.AddStroke(ctx, []domain.GeoPoint{gp(0, 0), gp(1, 1), gp(2, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if s.Style.Color != "#00ff00" || s.Style.Weight != 7 {
		t.Errorf("stroke style %+v does not follow the tool", s.Style)
	}
}

func TestDrawingService_RestoreSavesLoadedDrawing(t *testing.T) {
	ctx := context.Background()
	stored := `{"type":"FeatureCollection","features":[{"type":"Feature","id":"m1","geometry":{"type":"Point","coordinates":[13.36,38.11]},"properties":{"label":"Kept"}}]}`
	store := &mockSnapshotStore{loadFn: func(context.Context) (string, error) { return stored, nil }}
	saver := &recordingSaver{}
	svc := usecases.NewDrawingService(store, saver, nil, usecases.DrawingOptions{})
	if err := svc.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	pins := svc.Pins()
	if len(pins) != 1 || pins[0].ID != "m1" || svc.HistoryDepth() != 1 {
		t.Errorf("restore did not load the stored drawing: %+v depth=%d", pins, svc.HistoryDepth())
	}
	if len(saver.saved) != 1 {
		t.Errorf("expected the restored drawing to be saved back once, got %d saves", len(saver.saved))
	}
}

func TestDrawingService_RestoreUnreadableWritesNothing(t *testing.T) {
	ctx := context.Background()
	cases := map[string]func(context.Context) (string, error){
		"corrupt":     func(context.Context) (string, error) { return `{"type":"FeatureCollection","features":[`, nil },
		"unreachable": func(context.Context) (string, error) { return "", errors.New("connection refused") },
	}
	for name, load := range cases {
		t.Run(name, func(t *testing.T) {
			saver := &recordingSaver{}
			svc := usecases.NewDrawingService(&mockSnapshotStore{loadFn: load}, saver, nil, usecases.DrawingOptions{})
			if err := svc.Restore(ctx); err == nil {
				t.Fatal("expected restore error")
			}
			if len(svc.Shapes()) != 0 || svc.HistoryDepth() != 1 {
				t.Errorf("expected an empty document seeded in history, depth=%d", svc.HistoryDepth())
			}
			if len(saver.saved) != 0 {
				t.Errorf("failed restore must not save, got %v", saver.saved)
			}
			if ok, _ := svc.Undo(ctx); ok {
				t.Error("seeded history must not be undoable")
			}
		})
	}

	bad := &mockSnapshotStore{loadFn: func(context.Context) (string, error) { return "not json", nil }}
	svc := usecases.NewDrawingService(bad, nil, nil, usecases.DrawingOptions{})
	var perr *domain.ParseError
	if err := svc.Restore(ctx); !errors.As(err, &perr) {
		t.Errorf("expected ParseError from restore, got %v", err)
	}
}

// candidateStore offers several snapshots through LoadValid.
type candidateStore struct {
	mockSnapshotStore
	candidates []string
}

func (c *candidateStore) LoadValid(ctx context.Context, accept func(string) error) (string, error) {
	for _, snap := range c.candidates {
		if accept(snap) == nil {
			return snap, nil
		}
	}
	return "", errors.New("no usable snapshot")
}

func TestDrawingService_RestoreSkipsRejectedCandidates(t *testing.T) {
	good := `{"type":"FeatureCollection","features":[{"type":"Feature","id":"m2","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"label":"Local"}}]}`
	store := &candidateStore{candidates: []string{`{"type":"FeatureCollection","features":[`, good}}
	saver := &recordingSaver{}
	svc := usecases.NewDrawingService(store, saver, nil, usecases.DrawingOptions{})

	if err := svc.Restore(context.Background()); err != nil {
		t.Fatal(err)
	}
	pins := svc.Pins()
	if len(pins) != 1 || pins[0].Label != "Local" {
		t.Errorf("expected the second candidate, got %+v", pins)
	}
	if len(saver.saved) != 1 {
		t.Errorf("expected one save, got %d", len(saver.saved))
	}
}
