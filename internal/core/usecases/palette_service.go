package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samirrijal/mapdraw/internal/core/ports"
)

// DefaultPalette is the palette shown until the user customises one.
var DefaultPalette = []string{
	"#ff3232", "#ff9900", "#ffe600", "#33cc33",
	"#00bcd4", "#3366ff", "#9c27b0", "#000000",
}

// ErrInvalidPalette is returned when a palette does not match the swatch
// layout.
var ErrInvalidPalette = errors.New("invalid palette")

// PaletteService stores the custom colour palette.
type PaletteService struct {
	store ports.PaletteStore
}

// NewPaletteService creates a new PaletteService. store may be nil, in which
// case the default palette is always returned and updates are rejected.
func NewPaletteService(store ports.PaletteStore) *PaletteService {
	return &PaletteService{store: store}
}

// Get returns the saved palette, or the default when none is saved or the
// saved one no longer fits the swatch layout.
func (s *PaletteService) Get(ctx context.Context) []string {
	if s.store == nil {
		return append([]string(nil), DefaultPalette...)
	}
	colors, err := s.store.LoadPalette(ctx)
	if err != nil {
		slog.Warn("load palette", "error", err)
	}
	if err != nil || validatePalette(colors) != nil {
		return append([]string(nil), DefaultPalette...)
	}
	return colors
}

// Set saves colors as the palette.
func (s *PaletteService) Set(ctx context.Context, colors []string) error {
	if err := validatePalette(colors); err != nil {
		return err
	}
	if s.store == nil {
		return fmt.Errorf("palette storage is not configured")
	}
	if err := s.store.SavePalette(ctx, colors); err != nil {
		return fmt.Errorf("save palette: %w", err)
	}
	return nil
}

func validatePalette(colors []string) error {
	if len(colors) != len(DefaultPalette) {
		return fmt.Errorf("%w: expected %d colors, got %d", ErrInvalidPalette, len(DefaultPalette), len(colors))
	}
	for i, c := range colors {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("%w: color %d is empty", ErrInvalidPalette, i)
		}
	}
	return nil
}
