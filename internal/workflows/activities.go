package workflows

import (
	"context"
	"fmt"
	"strings"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/mapdraw/internal/core/domain"
	"github.com/samirrijal/mapdraw/internal/core/ports"
)

// ErrTypeInvalidSnapshot tags snapshots that are not valid GeoJSON.
const ErrTypeInvalidSnapshot = "InvalidSnapshot"

// ArchiveActivities holds the activity implementations for the archive workflow.
type ArchiveActivities struct {
	Drawings ports.DrawingRepository
}

// ValidateSnapshot decodes the snapshot and returns its shape count. The
// cleared-drawing marker "{}" is valid and has no shapes.
func (a *ArchiveActivities) ValidateSnapshot(ctx context.Context, snapshot string) (int, error) {
	if strings.TrimSpace(snapshot) == "" {
		return 0, temporal.NewNonRetryableApplicationError("empty snapshot", ErrTypeInvalidSnapshot, nil)
	}
	doc, err := domain.DecodeGeoJSON([]byte(snapshot), domain.Style{Color: "#000000", Weight: 1})
	if err != nil {
		return 0, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidSnapshot, err)
	}
	return doc.Len(), nil
}

// AppendRevision archives the snapshot and returns the revision number.
func (a *ArchiveActivities) AppendRevision(ctx context.Context, key, snapshot string, seq int64) (int64, error) {
	n, err := a.Drawings.AppendRevision(ctx, key, snapshot, seq)
	if err != nil {
		return 0, fmt.Errorf("append revision: %w", err)
	}
	return n, nil
}

// StoreDrawing makes the snapshot the current drawing for key and reports
// whether it did; an older seq than the stored one is not applied.
func (a *ArchiveActivities) StoreDrawing(ctx context.Context, key, snapshot string, seq int64) (bool, error) {
	applied, err := a.Drawings.SaveDrawing(ctx, key, snapshot, seq)
	if err != nil {
		return false, fmt.Errorf("store drawing: %w", err)
	}
	return applied, nil
}
