// Package eraser applies a circular screen-space eraser to a drawing.
//
// The eraser is defined in pixels while shapes are stored in geographic
// coordinates, so every test happens on projected points and only the new
// cut points are converted back. Vertices that survive are the original
// geographic values, which keeps untouched geometry bit-for-bit stable.
package eraser

import (
	"github.com/samirrijal/mapdraw/internal/core/domain"
	"github.com/samirrijal/mapdraw/internal/core/geometry"
	"github.com/samirrijal/mapdraw/internal/core/ports"
	"github.com/samirrijal/mapdraw/internal/pkg/geospatial"
)

// Engine erases shapes from documents.
type Engine struct {
	// CircleSteps is the chord count used when a touched circle is turned
	// into a stroke. Zero selects geometry.DefaultCircleSteps.
	CircleSteps int
}

// Erase runs the default engine.
func Erase(doc *domain.Document, center domain.GeoPoint, radiusPx float64, proj ports.Projector) (*domain.Document, bool) {
	return Engine{}.Erase(doc, center, radiusPx, proj)
}

// Erase returns a copy of doc with the disk of radiusPx pixels around center
// removed. doc itself is never modified. changed reports whether any shape
// was removed, cut or converted.
func (e Engine) Erase(doc *domain.Document, center domain.GeoPoint, radiusPx float64, proj ports.Projector) (*domain.Document, bool) {
	out := doc.Clone()
	if radiusPx <= 0 {
		return out, false
	}

	c := proj.Project(center)
	changed := false
	for _, s := range doc.Shapes() {
		replacements, hit := e.eraseShape(s, center, c, radiusPx, proj)
		if !hit {
			continue
		}
		if err := out.ReplaceShapes(s.ID, replacements...); err != nil {
			// Replacements are built from valid shapes; a failure here means
			// the source shape was already invalid, so leave it alone.
			continue
		}
		changed = true
	}
	return out, changed
}

// eraseShape returns the shapes that replace s, and whether s was affected.
func (e Engine) eraseShape(s domain.Shape, center domain.GeoPoint, c domain.Pixel, r float64, proj ports.Projector) ([]domain.Shape, bool) {
	switch s.Kind {
	case domain.KindMarker:
		if geometry.Distance(proj.Project(s.Position), c) < r {
			return nil, true
		}
		return nil, false

	case domain.KindPolyline:
		runs, changed := splitRuns(s.Vertices, c, r, proj)
		if !changed {
			return nil, false
		}
		return runShapes(runs, s.Style), true

	case domain.KindCircle:
		eraserMeters := r * proj.MetersPerPixel(center)
		dist := geospatial.Haversine(s.Position.Lat, s.Position.Lon, center.Lat, center.Lon)
		if dist > s.RadiusMeters+eraserMeters {
			return nil, false
		}
		outline := e.circleOutline(s, proj)
		runs, changed := splitRuns(outline, c, r, proj)
		if !changed {
			runs = [][]domain.GeoPoint{outline}
		}
		// A touched circle is always reported as changed: it is now a stroke.
		return runShapes(runs, s.Style), true
	}
	return nil, false
}

// circleOutline approximates the circle as a closed polyline in geographic
// space, using the ground scale at the circle's centre.
func (e Engine) circleOutline(s domain.Shape, proj ports.Projector) []domain.GeoPoint {
	cPx := proj.Project(s.Position)
	mpp := proj.MetersPerPixel(s.Position)
	if mpp <= 0 {
		mpp = 1
	}
	pixels := geometry.ApproximateCircle(cPx, s.RadiusMeters/mpp, e.CircleSteps)
	outline := make([]domain.GeoPoint, len(pixels))
	for i, px := range pixels {
		outline[i] = proj.Unproject(px)
	}
	return outline
}

// splitRuns walks the polyline segment by segment and returns the runs that
// survive the eraser disk.
func splitRuns(vertices []domain.GeoPoint, c domain.Pixel, r float64, proj ports.Projector) ([][]domain.GeoPoint, bool) {
	sp := &runSplitter{proj: proj}
	changed := false

	pixels := make([]domain.Pixel, len(vertices))
	for i, v := range vertices {
		pixels[i] = proj.Project(v)
	}

	for i := 0; i+1 < len(vertices); i++ {
		g1, g2 := vertices[i], vertices[i+1]
		p1, p2 := pixels[i], pixels[i+1]
		d1, d2 := geometry.Distance(p1, c), geometry.Distance(p2, c)
		hits := geometry.SegmentCircleIntersections(c, r, p1, p2)

		switch {
		case d1 >= r && d2 >= r:
			if len(hits) == 2 {
				sp.extend(g1, proj.Unproject(hits[0].Point))
				sp.close()
				sp.run = []domain.GeoPoint{proj.Unproject(hits[1].Point), g2}
				changed = true
			} else {
				sp.extend(g1, g2)
			}

		case d1 < r && d2 < r:
			sp.close()
			changed = true

		default:
			sp.crossing(g1, g2, d1 < r, hits)
			changed = true
		}
	}
	sp.close()

	if !changed {
		return nil, false
	}
	kept := sp.runs[:0]
	for _, run := range sp.runs {
		if len(run) >= 2 {
			kept = append(kept, run)
		}
	}
	return kept, true
}

// runSplitter collects the surviving runs of one polyline. run is the run
// under construction.
type runSplitter struct {
	proj ports.Projector
	runs [][]domain.GeoPoint
	run  []domain.GeoPoint
}

func (sp *runSplitter) close() {
	if len(sp.run) > 0 {
		sp.runs = append(sp.runs, sp.run)
		sp.run = nil
	}
}

func (sp *runSplitter) extend(start domain.GeoPoint, pts ...domain.GeoPoint) {
	if len(sp.run) == 0 {
		sp.run = append(sp.run, start)
	}
	sp.run = append(sp.run, pts...)
}

// crossing handles a segment with exactly one endpoint inside the disk. The
// first hit is where it crosses the boundary. Rounding can leave hits empty
// for an endpoint sitting on the boundary; the whole segment is then treated
// as erased.
func (sp *runSplitter) crossing(g1, g2 domain.GeoPoint, startInside bool, hits []geometry.Intersection) {
	if len(hits) == 0 {
		sp.close()
		return
	}
	cut := sp.proj.Unproject(hits[0].Point)
	if startInside {
		sp.close()
		sp.run = []domain.GeoPoint{cut, g2}
		return
	}
	sp.extend(g1, cut)
	sp.close()
}

func runShapes(runs [][]domain.GeoPoint, style domain.Style) []domain.Shape {
	out := make([]domain.Shape, 0, len(runs))
	for _, run := range runs {
		s, err := domain.NewPolyline(run, style)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}
