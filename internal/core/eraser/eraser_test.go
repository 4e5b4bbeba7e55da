package eraser_test

import (
	"math"
	"testing"

	"github.com/samirrijal/mapdraw/internal/core/domain"
	"github.com/samirrijal/mapdraw/internal/core/eraser"
	"github.com/samirrijal/mapdraw/internal/core/projection"
)

// flatProjector maps Lon to X and Lat to Y one-to-one, so tests can be
// written directly in pixel space.
type flatProjector struct {
	mpp float64
}

func (f flatProjector) Project(p domain.GeoPoint) domain.Pixel {
	return domain.Pixel{X: p.Lon, Y: p.Lat}
}

func (f flatProjector) Unproject(px domain.Pixel) domain.GeoPoint {
	return domain.GeoPoint{Lat: px.Y, Lon: px.X}
}

func (f flatProjector) MetersPerPixel(domain.GeoPoint) float64 { return f.mpp }

func pt(x, y float64) domain.GeoPoint { return domain.GeoPoint{Lat: y, Lon: x} }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

var red = domain.Style{Color: "#ff3232", Weight: 3}

func mustPolyline(t *testing.T, style domain.Style, pts ...domain.GeoPoint) domain.Shape {
	t.Helper()
	s, err := domain.NewPolyline(pts, style)
	if err != nil {
		t.Fatalf("new polyline: %v", err)
	}
	return s
}

func mustDoc(t *testing.T, shapes ...domain.Shape) *domain.Document {
	t.Helper()
	d, err := domain.NewDocument(shapes...)
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return d
}

func TestErase_SplitsPolylineThroughMiddle(t *testing.T) {
	line := mustPolyline(t, red, pt(0, 0), pt(10, 0), pt(20, 0))
	doc := mustDoc(t, line)

	out, changed := eraser.Erase(doc, pt(10, 0), 5, flatProjector{mpp: 1})
	if !changed {
		t.Fatal("expected changed")
	}
	shapes := out.Shapes()
	if len(shapes) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(shapes))
	}

	want := [][]domain.GeoPoint{
		{pt(0, 0), pt(5, 0)},
		{pt(15, 0), pt(20, 0)},
	}
	for i, s := range shapes {
		if s.Kind != domain.KindPolyline {
			t.Fatalf("run %d: expected polyline, got %s", i, s.Kind)
		}
		if s.Style != red {
			t.Errorf("run %d: style %v, expected %v", i, s.Style, red)
		}
		if len(s.Vertices) != len(want[i]) {
			t.Fatalf("run %d: expected %d vertices, got %d", i, len(want[i]), len(s.Vertices))
		}
		for j, v := range s.Vertices {
			if !near(v.Lat, want[i][j].Lat) || !near(v.Lon, want[i][j].Lon) {
				t.Errorf("run %d vertex %d: got %v, expected %v", i, j, v, want[i][j])
			}
		}
		if s.ID == line.ID {
			t.Errorf("run %d reused the source shape id", i)
		}
	}

	// The input document is untouched.
	if doc.Len() != 1 {
		t.Errorf("input document mutated: %d shapes", doc.Len())
	}
}

func TestErase_SegmentCrossingDiskTwice(t *testing.T) {
	doc := mustDoc(t, mustPolyline(t, red, pt(0, 0), pt(20, 0)))

	out, changed := eraser.Erase(doc, pt(10, 1), 5, flatProjector{mpp: 1})
	if !changed {
		t.Fatal("expected changed")
	}
	shapes := out.Shapes()
	if len(shapes) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(shapes))
	}
	first, second := shapes[0].Vertices, shapes[1].Vertices
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected two-vertex runs, got %d and %d", len(first), len(second))
	}
	if first[0] != pt(0, 0) || second[1] != pt(20, 0) {
		t.Errorf("original endpoints not preserved: %v ... %v", first[0], second[1])
	}
	half := math.Sqrt(25 - 1)
	if !near(first[1].Lon, 10-half) || !near(second[0].Lon, 10+half) {
		t.Errorf("cut points %v and %v, expected x=%v and x=%v", first[1], second[0], 10-half, 10+half)
	}
}

func TestErase_LeavesOutsideGeometryIdentical(t *testing.T) {
	far := mustPolyline(t, domain.Style{Color: "blue", Weight: 7}, pt(0, 50), pt(10, 50), pt(20, 55))
	marker := domain.NewMarker(pt(40, 40), "Pinpoint 1")
	doc := mustDoc(t, far, marker)

	out, changed := eraser.Erase(doc, pt(0, 0), 5, flatProjector{mpp: 1})
	if changed {
		t.Fatal("expected no change")
	}
	got, err := out.Shape(far.ID)
	if err != nil {
		t.Fatalf("polyline missing: %v", err)
	}
	if got.Style != far.Style || len(got.Vertices) != len(far.Vertices) {
		t.Fatalf("polyline altered: %+v", got)
	}
	for i := range got.Vertices {
		if got.Vertices[i] != far.Vertices[i] {
			t.Errorf("vertex %d altered: %v != %v", i, got.Vertices[i], far.Vertices[i])
		}
	}
	if _, err := out.Shape(marker.ID); err != nil {
		t.Errorf("marker missing: %v", err)
	}
}

func TestErase_DropsSegmentsInsideDisk(t *testing.T) {
	doc := mustDoc(t, mustPolyline(t, red, pt(-1, 0), pt(1, 0), pt(1, 1)))

	out, changed := eraser.Erase(doc, pt(0, 0), 5, flatProjector{mpp: 1})
	if !changed {
		t.Fatal("expected changed")
	}
	if out.Len() != 0 {
		t.Fatalf("expected polyline removed, got %d shapes", out.Len())
	}
}

func TestErase_LeavingDiskStartsNewRun(t *testing.T) {
	doc := mustDoc(t, mustPolyline(t, red, pt(0, 0), pt(10, 0), pt(10, 10)))

	out, changed := eraser.Erase(doc, pt(0, 0), 4, flatProjector{mpp: 1})
	if !changed {
		t.Fatal("expected changed")
	}
	shapes := out.Shapes()
	if len(shapes) != 1 {
		t.Fatalf("expected 1 run, got %d", len(shapes))
	}
	v := shapes[0].Vertices
	if len(v) != 3 {
		t.Fatalf("expected 3 vertices, got %v", v)
	}
	if !near(v[0].Lon, 4) || !near(v[0].Lat, 0) {
		t.Errorf("expected run to start at the cut (4,0), got %v", v[0])
	}
	if v[1] != pt(10, 0) || v[2] != pt(10, 10) {
		t.Errorf("unexpected tail %v", v[1:])
	}
}

func TestErase_DiscardsSinglePointRuns(t *testing.T) {
	// The first segment lies inside the disk and the second leaves it, so the
	// only survivor is the run from the cut to the last vertex.
	doc := mustDoc(t, mustPolyline(t, red, pt(0, 0), pt(1, 0), pt(8, 0)))

	out, _ := eraser.Erase(doc, pt(0, 0), 5, flatProjector{mpp: 1})
	for _, s := range out.Shapes() {
		if len(s.Vertices) < 2 {
			t.Fatalf("stored a run with %d vertices", len(s.Vertices))
		}
	}
	if out.Len() != 1 {
		t.Fatalf("expected 1 run, got %d", out.Len())
	}
}

func TestErase_TangentDoesNotCut(t *testing.T) {
	line := mustPolyline(t, red, pt(-10, 0), pt(10, 0))
	doc := mustDoc(t, line)

	out, changed := eraser.Erase(doc, pt(0, 5), 5, flatProjector{mpp: 1})
	if changed {
		t.Fatal("a tangent eraser must not cut the segment")
	}
	if _, err := out.Shape(line.ID); err != nil {
		t.Errorf("polyline replaced: %v", err)
	}
}

func TestErase_PreservesZOrder(t *testing.T) {
	below := domain.NewMarker(pt(100, 60), "below")
	line := mustPolyline(t, red, pt(0, 0), pt(20, 0))
	above := domain.NewMarker(pt(-100, 70), "above")
	doc := mustDoc(t, below, line, above)

	out, _ := eraser.Erase(doc, pt(10, 0), 5, flatProjector{mpp: 1})
	shapes := out.Shapes()
	if len(shapes) != 4 {
		t.Fatalf("expected 4 shapes, got %d", len(shapes))
	}
	if shapes[0].ID != below.ID || shapes[3].ID != above.ID {
		t.Errorf("runs not inserted at the source's z-position")
	}
}

func TestErase_Marker(t *testing.T) {
	m := domain.NewMarker(pt(0, 0), "Pinpoint 1")
	doc := mustDoc(t, m)

	out, changed := eraser.Erase(doc, pt(0, 0), 1, flatProjector{mpp: 1})
	if !changed || out.Len() != 0 {
		t.Fatalf("expected marker removed, changed=%v len=%d", changed, out.Len())
	}
}

func TestErase_MarkerOnBoundaryKept(t *testing.T) {
	doc := mustDoc(t, domain.NewMarker(pt(3, 4), "edge"))

	out, changed := eraser.Erase(doc, pt(0, 0), 5, flatProjector{mpp: 1})
	if changed || out.Len() != 1 {
		t.Fatalf("marker at exactly the radius must survive, changed=%v len=%d", changed, out.Len())
	}
}

func TestErase_NonPositiveRadius(t *testing.T) {
	doc := mustDoc(t, domain.NewMarker(pt(0, 0), "x"))
	if _, changed := eraser.Erase(doc, pt(0, 0), 0, flatProjector{mpp: 1}); changed {
		t.Error("zero radius must not erase")
	}
}

var palermo = domain.GeoPoint{Lat: 38.1157, Lon: 13.3615}

func mustCircle(t *testing.T, center domain.GeoPoint, radius float64) domain.Shape {
	t.Helper()
	c, err := domain.NewCircle(center, radius, domain.Style{Color: "#00aaff", Weight: 4})
	if err != nil {
		t.Fatalf("new circle: %v", err)
	}
	return c
}

func TestErase_CircleOutOfReachUntouched(t *testing.T) {
	vp := projection.Viewport{Center: palermo, Zoom: 13, Width: 1280, Height: 800}
	circle := mustCircle(t, palermo, 1000)
	doc := mustDoc(t, circle)

	// About 3 km east of the centre with a 24 px eraser (~360 m at zoom 13).
	eraserAt := domain.GeoPoint{Lat: palermo.Lat, Lon: palermo.Lon + 0.0342}
	out, changed := eraser.Erase(doc, eraserAt, 24, vp)
	if changed {
		t.Fatal("expected circle untouched")
	}
	got, err := out.Shape(circle.ID)
	if err != nil {
		t.Fatalf("circle missing: %v", err)
	}
	if got.Kind != domain.KindCircle || got.RadiusMeters != 1000 {
		t.Errorf("circle altered: %+v", got)
	}
}

func TestErase_CircleBecomesStroke(t *testing.T) {
	vp := projection.Viewport{Center: palermo, Zoom: 15, Width: 1280, Height: 800}
	circle := mustCircle(t, palermo, 200)
	doc := mustDoc(t, circle)

	// Put the eraser on the rightmost point of the outline.
	c := vp.Project(palermo)
	rPx := 200 / vp.MetersPerPixel(palermo)
	onEdge := vp.Unproject(domain.Pixel{X: c.X + rPx, Y: c.Y})

	out, changed := eraser.Erase(doc, onEdge, 10, vp)
	if !changed {
		t.Fatal("expected changed")
	}
	if out.Len() == 0 {
		t.Fatal("expected the rest of the outline to survive")
	}
	for _, s := range out.Shapes() {
		if s.Kind != domain.KindPolyline {
			t.Fatalf("expected only polylines, got %s", s.Kind)
		}
		if s.Style != circle.Style {
			t.Errorf("style %v, expected %v", s.Style, circle.Style)
		}
		for _, v := range s.Vertices {
			p := vp.Project(v)
			if d := math.Hypot(p.X-(c.X+rPx), p.Y-c.Y); d < 10-1e-6 {
				t.Fatalf("vertex %v left inside the eraser (%.3f px)", v, d)
			}
		}
	}
}

func TestErase_CircleInsideAreaConvertedWhole(t *testing.T) {
	vp := projection.Viewport{Center: palermo, Zoom: 15, Width: 1280, Height: 800}
	circle := mustCircle(t, palermo, 500)
	doc := mustDoc(t, circle)

	// Eraser at the centre, far from the outline: the circle still degrades
	// to a closed stroke.
	out, changed := eraser.Erase(doc, palermo, 5, vp)
	if !changed {
		t.Fatal("expected changed")
	}
	shapes := out.Shapes()
	if len(shapes) != 1 || shapes[0].Kind != domain.KindPolyline {
		t.Fatalf("expected one polyline, got %+v", shapes)
	}
	v := shapes[0].Vertices
	if len(v) != 97 {
		t.Errorf("expected 97 outline vertices, got %d", len(v))
	}
	if v[0] != v[len(v)-1] {
		t.Errorf("outline not closed")
	}
}

func TestEngine_CircleSteps(t *testing.T) {
	vp := projection.Viewport{Center: palermo, Zoom: 15, Width: 1280, Height: 800}
	doc := mustDoc(t, mustCircle(t, palermo, 500))

	out, _ := eraser.Engine{CircleSteps: 12}.Erase(doc, palermo, 5, vp)
	shapes := out.Shapes()
	if len(shapes) != 1 || len(shapes[0].Vertices) != 13 {
		t.Fatalf("expected one 13-vertex outline, got %+v", shapes)
	}
}
