package projection_test

import (
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/mapdraw/internal/core/domain"
	"github.com/samirrijal/mapdraw/internal/core/projection"
)

func TestViewport_CenterProjectsToMiddle(t *testing.T) {
	v := projection.Viewport{Center: domain.GeoPoint{Lat: 38.1157, Lon: 13.3615}, Zoom: 13, Width: 800, Height: 600}
	px := v.Project(v.Center)
	if math.Abs(px.X-400) > 1e-6 || math.Abs(px.Y-300) > 1e-6 {
		t.Errorf("expected (400,300), got %+v", px)
	}
}

func TestViewport_RoundTrip(t *testing.T) {
	v := projection.Viewport{Center: domain.GeoPoint{Lat: 38.1157, Lon: 13.3615}, Zoom: 15, Width: 1024, Height: 768}
	p := domain.GeoPoint{Lat: 38.12, Lon: 13.37}
	got := v.Unproject(v.Project(p))
	if math.Abs(got.Lat-p.Lat) > 1e-9 || math.Abs(got.Lon-p.Lon) > 1e-9 {
		t.Errorf("round trip drifted: %+v -> %+v", p, got)
	}
}

func TestViewport_MetersPerPixel(t *testing.T) {
	v := projection.Viewport{Zoom: 0, Width: 256, Height: 256}
	// One zoom-0 tile covers the equator.
	want := 2 * math.Pi * 6371000 / 256
	if got := v.MetersPerPixel(domain.GeoPoint{}); math.Abs(got-want) > 1e-6 {
		t.Errorf("expected %v m/px at the equator, got %v", want, got)
	}
	v.Zoom = 1
	if got := v.MetersPerPixel(domain.GeoPoint{}); math.Abs(got-want/2) > 1e-6 {
		t.Errorf("expected resolution to halve per zoom level, got %v", got)
	}
}

func TestViewport_Validate(t *testing.T) {
	tests := []struct {
		name string
		v    projection.Viewport
		ok   bool
	}{
		{"valid", projection.Viewport{Zoom: 10, Width: 100, Height: 100}, true},
		{"zoom too deep", projection.Viewport{Zoom: 30, Width: 100, Height: 100}, false},
		{"no size", projection.Viewport{Zoom: 10}, false},
		{"bad latitude", projection.Viewport{Center: domain.GeoPoint{Lat: 95}, Zoom: 1, Width: 1, Height: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestViewport_ValidateSentinel(t *testing.T) {
	err := projection.Viewport{Zoom: 30, Width: 10, Height: 10}.Validate()
	if !errors.Is(err, projection.ErrInvalidViewport) {
		t.Errorf("expected ErrInvalidViewport, got %v", err)
	}
}
