package domain

import "fmt"

// Pin is the display projection of a marker, used by pin lists and sidebars.
type Pin struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Position GeoPoint `json:"position"`
}

// Document is the ordered collection of shapes that makes up a drawing.
// Insertion order is z-order. Every mutating method either applies fully or
// returns an error and leaves the document as it was.
type Document struct {
	shapes []Shape
}

// NewDocument creates a document holding copies of shapes, validating each.
func NewDocument(shapes ...Shape) (*Document, error) {
	d := &Document{}
	for _, s := range shapes {
		if err := d.AddShape(s); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Len returns the number of shapes.
func (d *Document) Len() int {
	return len(d.shapes)
}

// Shapes returns deep copies of all shapes in z-order.
func (d *Document) Shapes() []Shape {
	out := make([]Shape, len(d.shapes))
	for i, s := range d.shapes {
		out[i] = s.Clone()
	}
	return out
}

// Shape returns a copy of the shape with the given ID.
func (d *Document) Shape(id string) (Shape, error) {
	i := d.indexOf(id)
	if i < 0 {
		return Shape{}, fmt.Errorf("%w: %s", ErrShapeNotFound, id)
	}
	return d.shapes[i].Clone(), nil
}

// Pins returns the markers of the document in z-order.
func (d *Document) Pins() []Pin {
	var pins []Pin
	for _, s := range d.shapes {
		if s.Kind == KindMarker {
			pins = append(pins, Pin{ID: s.ID, Label: s.Label, Position: s.Position})
		}
	}
	return pins
}

// Bounds returns the box covering every vertex, marker and circle centre.
// ok is false for an empty document.
func (d *Document) Bounds() (b Bounds, ok bool) {
	for _, s := range d.shapes {
		points := s.Vertices
		if s.Kind != KindPolyline {
			points = []GeoPoint{s.Position}
		}
		for _, p := range points {
			if !ok {
				b = Bounds{MinLat: p.Lat, MinLon: p.Lon, MaxLat: p.Lat, MaxLon: p.Lon}
				ok = true
				continue
			}
			b = b.Extend(p)
		}
	}
	return b, ok
}

// Clone returns an independent deep copy of the document.
func (d *Document) Clone() *Document {
	return &Document{shapes: d.Shapes()}
}

// AddShape appends a copy of s on top of the z-order.
func (d *Document) AddShape(s Shape) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if d.indexOf(s.ID) >= 0 {
		return invalidf("duplicate shape id %s", s.ID)
	}
	d.shapes = append(d.shapes, s.Clone())
	return nil
}

// RemoveShape deletes the shape with the given ID.
func (d *Document) RemoveShape(id string) error {
	i := d.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrShapeNotFound, id)
	}
	d.shapes = append(d.shapes[:i:i], d.shapes[i+1:]...)
	return nil
}

// ReplaceShapes swaps the shape with the given ID for zero or more
// replacements, which take its place in the z-order. Nothing changes unless
// every replacement is valid.
func (d *Document) ReplaceShapes(id string, replacements ...Shape) error {
	i := d.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrShapeNotFound, id)
	}
	seen := make(map[string]struct{}, len(replacements))
	for _, r := range replacements {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.ID]; dup {
			return invalidf("duplicate shape id %s", r.ID)
		}
		if j := d.indexOf(r.ID); j >= 0 && j != i {
			return invalidf("duplicate shape id %s", r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	next := make([]Shape, 0, len(d.shapes)-1+len(replacements))
	next = append(next, d.shapes[:i]...)
	for _, r := range replacements {
		next = append(next, r.Clone())
	}
	next = append(next, d.shapes[i+1:]...)
	d.shapes = next
	return nil
}

// RenameMarker changes the label of a marker in place.
func (d *Document) RenameMarker(id, label string) error {
	i := d.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrShapeNotFound, id)
	}
	if d.shapes[i].Kind != KindMarker {
		return fmt.Errorf("%w: %s is a %s", ErrNotMarker, id, d.shapes[i].Kind)
	}
	d.shapes[i].Label = label
	return nil
}

func (d *Document) indexOf(id string) int {
	for i := range d.shapes {
		if d.shapes[i].ID == id {
			return i
		}
	}
	return -1
}
