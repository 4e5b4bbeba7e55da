package domain

import (
	"bytes"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature property keys of the interchange format.
const (
	PropColor  = "color"
	PropWeight = "weight"
	PropLabel  = "label"
	PropShape  = "shape"
	PropRadius = "radius"

	shapeCircle = "circle"
)

// EncodeGeoJSON serializes the document as a GeoJSON FeatureCollection.
// Circles have no GeoJSON primitive and are written as a centre Point tagged
// shape=circle with an explicit radius in metres.
func EncodeGeoJSON(d *Document) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, s := range d.shapes {
		var f *geojson.Feature
		switch s.Kind {
		case KindMarker:
			f = geojson.NewFeature(toOrbPoint(s.Position))
			f.Properties[PropLabel] = s.Label
		case KindPolyline:
			line := make(orb.LineString, len(s.Vertices))
			for i, v := range s.Vertices {
				line[i] = toOrbPoint(v)
			}
			f = geojson.NewFeature(line)
			f.Properties[PropColor] = s.Style.Color
			f.Properties[PropWeight] = s.Style.Weight
		case KindCircle:
			f = geojson.NewFeature(toOrbPoint(s.Position))
			f.Properties[PropShape] = shapeCircle
			f.Properties[PropRadius] = s.RadiusMeters
			f.Properties[PropColor] = s.Style.Color
			f.Properties[PropWeight] = s.Style.Weight
		default:
			return nil, invalidf("unknown shape kind %q", s.Kind)
		}
		f.ID = s.ID
		fc.Append(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal feature collection: %w", err)
	}
	return data, nil
}

// DecodeGeoJSON parses a FeatureCollection into a new document. Missing
// colours and weights fall back to fallback. Empty input and "{}" decode to
// an empty document; anything else that is not a valid FeatureCollection is
// reported as a *ParseError.
func DecodeGeoJSON(data []byte, fallback Style) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}")) {
		return &Document{}, nil
	}

	fc, err := geojson.UnmarshalFeatureCollection(trimmed)
	if err != nil {
		return nil, &ParseError{Msg: "invalid feature collection", Err: err}
	}

	doc := &Document{}
	for i, f := range fc.Features {
		shapes, err := featureShapes(f, fallback)
		if err != nil {
			return nil, &ParseError{Msg: fmt.Sprintf("feature %d", i), Err: err}
		}
		for _, s := range shapes {
			if doc.indexOf(s.ID) >= 0 {
				s.ID = NewShapeID()
			}
			if err := doc.AddShape(s); err != nil {
				return nil, &ParseError{Msg: fmt.Sprintf("feature %d", i), Err: err}
			}
		}
	}
	return doc, nil
}

func featureShapes(f *geojson.Feature, fallback Style) ([]Shape, error) {
	if f == nil || f.Geometry == nil {
		return nil, fmt.Errorf("feature has no geometry")
	}
	props := f.Properties
	id := featureID(f.ID)
	style := Style{
		Color:  stringProp(props, PropColor, fallback.Color),
		Weight: positiveProp(props, PropWeight, fallback.Weight),
	}

	switch g := f.Geometry.(type) {
	case orb.Point:
		if stringProp(props, PropShape, "") == shapeCircle {
			if radius, ok := props[PropRadius].(float64); ok {
				return []Shape{{
					ID:           id,
					Kind:         KindCircle,
					Position:     fromOrbPoint(g),
					RadiusMeters: radius,
					Style:        style,
				}}, nil
			}
		}
		return []Shape{{
			ID:       id,
			Kind:     KindMarker,
			Position: fromOrbPoint(g),
			Label:    stringProp(props, PropLabel, ""),
		}}, nil
	case orb.LineString:
		return polylines(id, style, g), nil
	case orb.MultiLineString:
		return polylines(id, style, g...), nil
	case orb.Polygon:
		return polylines(id, style, rings(g)...), nil
	case orb.MultiPolygon:
		var lines []orb.LineString
		for _, p := range g {
			lines = append(lines, rings(p)...)
		}
		return polylines(id, style, lines...), nil
	default:
		return nil, fmt.Errorf("unsupported geometry %s", f.Geometry.GeoJSONType())
	}
}

// polylines turns each line into a polyline shape, skipping lines too short
// to be stored. Only the first polyline keeps the feature's ID.
func polylines(id string, style Style, lines ...orb.LineString) []Shape {
	var out []Shape
	for _, line := range lines {
		if len(line) < 2 {
			continue
		}
		vertices := make([]GeoPoint, len(line))
		for i, p := range line {
			vertices[i] = fromOrbPoint(p)
		}
		if len(out) > 0 {
			id = NewShapeID()
		}
		out = append(out, Shape{ID: id, Kind: KindPolyline, Vertices: vertices, Style: style})
	}
	return out
}

func rings(p orb.Polygon) []orb.LineString {
	out := make([]orb.LineString, len(p))
	for i, r := range p {
		out[i] = orb.LineString(r)
	}
	return out
}

func featureID(v interface{}) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return NewShapeID()
}

func stringProp(props geojson.Properties, key, def string) string {
	if s, ok := props[key].(string); ok && s != "" {
		return s
	}
	return def
}

func positiveProp(props geojson.Properties, key string, def float64) float64 {
	if f, ok := props[key].(float64); ok && f > 0 {
		return f
	}
	return def
}

func toOrbPoint(p GeoPoint) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

func fromOrbPoint(p orb.Point) GeoPoint {
	return GeoPoint{Lat: p.Lat(), Lon: p.Lon()}
}
