package domain

import (
	"math"

	"github.com/google/uuid"
)

// ShapeKind tags the variant held by a Shape.
type ShapeKind string

const (
	KindMarker   ShapeKind = "marker"
	KindPolyline ShapeKind = "polyline"
	KindCircle   ShapeKind = "circle"
)

// Style is the stroke styling carried by polylines and circles.
type Style struct {
	Color  string  `json:"color"`
	Weight float64 `json:"weight"`
}

// Validate checks that the colour is set and the weight is a positive finite number.
func (s Style) Validate() error {
	if s.Color == "" {
		return invalidf("color is required")
	}
	if !(s.Weight > 0) || math.IsInf(s.Weight, 0) {
		return invalidf("weight must be positive, got %v", s.Weight)
	}
	return nil
}

// Shape is one drawn element. Kind selects which fields are meaningful:
//
//	marker:   Position, Label
//	polyline: Vertices (at least two), Style
//	circle:   Position (centre), RadiusMeters, Style
type Shape struct {
	ID           string     `json:"id"`
	Kind         ShapeKind  `json:"kind"`
	Position     GeoPoint   `json:"position"`
	Vertices     []GeoPoint `json:"vertices,omitempty"`
	RadiusMeters float64    `json:"radius_meters,omitempty"`
	Label        string     `json:"label,omitempty"`
	Style        Style      `json:"style"`
}

// NewMarker creates a labelled point marker.
func NewMarker(pos GeoPoint, label string) Shape {
	return Shape{ID: NewShapeID(), Kind: KindMarker, Position: pos, Label: label}
}

// NewPolyline creates a polyline from a copy of vertices.
func NewPolyline(vertices []GeoPoint, style Style) (Shape, error) {
	s := Shape{
		ID:       NewShapeID(),
		Kind:     KindPolyline,
		Vertices: append([]GeoPoint(nil), vertices...),
		Style:    style,
	}
	if err := s.Validate(); err != nil {
		return Shape{}, err
	}
	return s, nil
}

// NewCircle creates a circle of radiusMeters around center.
func NewCircle(center GeoPoint, radiusMeters float64, style Style) (Shape, error) {
	s := Shape{
		ID:           NewShapeID(),
		Kind:         KindCircle,
		Position:     center,
		RadiusMeters: radiusMeters,
		Style:        style,
	}
	if err := s.Validate(); err != nil {
		return Shape{}, err
	}
	return s, nil
}

// NewShapeID returns a fresh random shape identifier.
func NewShapeID() string {
	return uuid.NewString()
}

// Validate checks the invariants of the shape's variant.
func (s Shape) Validate() error {
	if s.ID == "" {
		return invalidf("id is required")
	}
	switch s.Kind {
	case KindMarker:
		return validPoint(s.Position)
	case KindPolyline:
		if len(s.Vertices) < 2 {
			return invalidf("polyline needs at least 2 vertices, got %d", len(s.Vertices))
		}
		for _, v := range s.Vertices {
			if err := validPoint(v); err != nil {
				return err
			}
		}
		return s.Style.Validate()
	case KindCircle:
		if err := validPoint(s.Position); err != nil {
			return err
		}
		if !(s.RadiusMeters >= 0) || math.IsInf(s.RadiusMeters, 0) {
			return invalidf("circle radius must be >= 0, got %v", s.RadiusMeters)
		}
		return s.Style.Validate()
	default:
		return invalidf("unknown shape kind %q", s.Kind)
	}
}

// Clone returns a deep copy; the vertex slice is never shared.
func (s Shape) Clone() Shape {
	if s.Vertices != nil {
		s.Vertices = append([]GeoPoint(nil), s.Vertices...)
	}
	return s
}

func validPoint(p GeoPoint) error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return invalidf("coordinate is not finite")
	}
	if p.Lat < -90 || p.Lat > 90 {
		return invalidf("latitude %v out of range", p.Lat)
	}
	return nil
}
