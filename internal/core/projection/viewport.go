// Package projection implements ports.Projector for a Web Mercator map view.
package projection

import (
	"errors"
	"fmt"

	"github.com/samirrijal/mapdraw/internal/core/domain"
	"github.com/samirrijal/mapdraw/internal/pkg/geospatial"
)

// ErrInvalidViewport is returned by Validate.
var ErrInvalidViewport = errors.New("invalid viewport")

// MaxZoom is the deepest zoom level a viewport accepts.
const MaxZoom = 22

// Viewport describes the visible map: its centre, zoom level and size in
// pixels. It converts coordinates the same way a slippy-map client does, so
// eraser radii given in client pixels line up with what the user sees.
type Viewport struct {
	Center domain.GeoPoint `json:"center"`
	Zoom   float64         `json:"zoom"`
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
}

// Validate checks that the viewport can be projected.
func (v Viewport) Validate() error {
	if v.Zoom < 0 || v.Zoom > MaxZoom {
		return fmt.Errorf("%w: zoom must be 0-%d, got %v", ErrInvalidViewport, MaxZoom, v.Zoom)
	}
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("%w: size must be positive, got %vx%v", ErrInvalidViewport, v.Width, v.Height)
	}
	if v.Center.Lat < -90 || v.Center.Lat > 90 {
		return fmt.Errorf("%w: center latitude %v out of range", ErrInvalidViewport, v.Center.Lat)
	}
	return nil
}

// Project converts a coordinate to container pixels.
func (v Viewport) Project(p domain.GeoPoint) domain.Pixel {
	x, y := geospatial.MercatorProject(p.Lat, p.Lon, v.Zoom)
	ox, oy := v.origin()
	return domain.Pixel{X: x - ox, Y: y - oy}
}

// Unproject converts container pixels back to a coordinate.
func (v Viewport) Unproject(px domain.Pixel) domain.GeoPoint {
	ox, oy := v.origin()
	lat, lon := geospatial.MercatorUnproject(px.X+ox, px.Y+oy, v.Zoom)
	return domain.GeoPoint{Lat: lat, Lon: lon}
}

// MetersPerPixel returns the ground resolution at p.
func (v Viewport) MetersPerPixel(p domain.GeoPoint) float64 {
	return geospatial.MetersPerPixel(p.Lat, v.Zoom)
}

// origin is the world pixel of the container's top-left corner.
func (v Viewport) origin() (float64, float64) {
	cx, cy := geospatial.MercatorProject(v.Center.Lat, v.Center.Lon, v.Zoom)
	return cx - v.Width/2, cy - v.Height/2
}
