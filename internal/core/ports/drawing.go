package ports

import (
	"context"

	"github.com/samirrijal/mapdraw/internal/core/domain"
)

// Projector converts between geographic and screen space for the current
// map viewport, and reports the local ground scale.
type Projector interface {
	Project(p domain.GeoPoint) domain.Pixel
	Unproject(px domain.Pixel) domain.GeoPoint
	// MetersPerPixel is the ground distance covered by one screen pixel at p.
	MetersPerPixel(p domain.GeoPoint) float64
}

// SnapshotStore persists the serialized drawing. Load returns "" when
// nothing has been stored yet.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot string) error
	Load(ctx context.Context) (string, error)
}

// ValidatingLoader is implemented by stores that hold more than one
// candidate snapshot. LoadValid returns the first non-empty snapshot that
// accept approves; rejected snapshots are skipped, not returned.
type ValidatingLoader interface {
	LoadValid(ctx context.Context, accept func(snapshot string) error) (string, error)
}

// DrawingRepository stores drawings by document key, with an append-only
// archive of revisions. LoadDrawing returns "" for an unknown key and
// LatestRevision returns nil when nothing has been archived.
type DrawingRepository interface {
	// SaveDrawing replaces the current drawing unless one with a higher seq
	// is already stored, and reports whether it was applied.
	SaveDrawing(ctx context.Context, key, snapshot string, seq int64) (bool, error)
	LoadDrawing(ctx context.Context, key string) (string, error)
	AppendRevision(ctx context.Context, key, snapshot string, seq int64) (int64, error)
	LatestRevision(ctx context.Context, key string) (*domain.Revision, error)
}

// PaletteStore persists the user's custom colour palette. Load returns nil
// when no palette has been saved.
type PaletteStore interface {
	SavePalette(ctx context.Context, colors []string) error
	LoadPalette(ctx context.Context) ([]string, error)
}
