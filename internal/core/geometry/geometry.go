// Package geometry holds the screen-space primitives the eraser is built on.
package geometry

import (
	"math"
	"sort"

	"github.com/samirrijal/mapdraw/internal/core/domain"
)

// DefaultCircleSteps is the number of chords used to approximate a circle outline.
const DefaultCircleSteps = 96

// epsilon bounds the squared segment length and discriminant treated as zero.
const epsilon = 1e-12

// Intersection is a point where a segment crosses a circle, with T the
// parameter along the segment (0 at p1, 1 at p2).
type Intersection struct {
	Point domain.Pixel
	T     float64
}

// Distance returns the Euclidean distance between two pixels.
func Distance(a, b domain.Pixel) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// SegmentCircleIntersections returns the points where segment p1→p2 crosses
// the circle, ordered by T. A zero-length segment never crosses; a tangent
// line yields a single point.
func SegmentCircleIntersections(center domain.Pixel, radius float64, p1, p2 domain.Pixel) []Intersection {
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	fx, fy := p1.X-center.X, p1.Y-center.Y

	a := dx*dx + dy*dy
	if a <= epsilon {
		return nil
	}
	b := 2 * (fx*dx + fy*dy)
	c := fx*fx + fy*fy - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}

	var roots []float64
	if disc <= epsilon*a*a {
		roots = []float64{-b / (2 * a)}
	} else {
		sq := math.Sqrt(disc)
		roots = []float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)}
	}

	var out []Intersection
	for _, t := range roots {
		if t < 0 || t > 1 {
			continue
		}
		out = append(out, Intersection{
			Point: domain.Pixel{X: p1.X + t*dx, Y: p1.Y + t*dy},
			T:     t,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].T < out[j].T })
	return out
}

// ApproximateCircle samples steps+1 points uniformly around the circle,
// starting at angle 0; the last point repeats the first so the outline is
// closed. steps <= 0 selects DefaultCircleSteps.
func ApproximateCircle(center domain.Pixel, radius float64, steps int) []domain.Pixel {
	if steps <= 0 {
		steps = DefaultCircleSteps
	}
	pts := make([]domain.Pixel, steps+1)
	for k := 0; k < steps; k++ {
		theta := float64(k) / float64(steps) * 2 * math.Pi
		pts[k] = domain.Pixel{
			X: center.X + radius*math.Cos(theta),
			Y: center.Y + radius*math.Sin(theta),
		}
	}
	pts[steps] = pts[0]
	return pts
}
