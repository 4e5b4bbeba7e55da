package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/mapdraw/internal/core/usecases"
)

// --- Mock PaletteStore ---

type mockPaletteStore struct {
	colors []string
	err    error
}

func (m *mockPaletteStore) SavePalette(ctx context.Context, colors []string) error {
	if m.err != nil {
		return m.err
	}
	m.colors = colors
	return nil
}

func (m *mockPaletteStore) LoadPalette(ctx context.Context) ([]string, error) {
	return m.colors, m.err
}

// --- Tests ---

func TestPaletteService_DefaultWhenUnset(t *testing.T) {
	svc := usecases.NewPaletteService(&mockPaletteStore{})
	got := svc.Get(context.Background())
	if len(got) != len(usecases.DefaultPalette) || got[0] != usecases.DefaultPalette[0] {
		t.Errorf("expected default palette, got %v", got)
	}
}

func TestPaletteService_SetGet(t *testing.T) {
	store := &mockPaletteStore{}
	svc := usecases.NewPaletteService(store)
	colors := []string{"#111", "#222", "#333", "#444", "#555", "#666", "#777", "#888"}

	if err := svc.Set(context.Background(), colors); err != nil {
		t.Fatal(err)
	}
	got := svc.Get(context.Background())
	if len(got) != 8 || got[7] != "#888" {
		t.Errorf("expected saved palette, got %v", got)
	}
}

func TestPaletteService_RejectsWrongSize(t *testing.T) {
	svc := usecases.NewPaletteService(&mockPaletteStore{})
	err := svc.Set(context.Background(), []string{"#111"})
	if !errors.Is(err, usecases.ErrInvalidPalette) {
		t.Errorf("expected ErrInvalidPalette, got %v", err)
	}
}

func TestPaletteService_StoreErrorFallsBack(t *testing.T) {
	svc := usecases.NewPaletteService(&mockPaletteStore{err: errors.New("down")})
	if got := svc.Get(context.Background()); got[0] != usecases.DefaultPalette[0] {
		t.Errorf("expected default palette on store error, got %v", got)
	}
}
