package filebridge

import (
	"context"
	"encoding/json"
	"fmt"
)

// DefaultPalettePath is the palette file used when none is configured.
const DefaultPalettePath = "palette.json"

// PaletteFile implements ports.PaletteStore as a JSON array in a file. It
// shares the atomic write of Bridge.
type PaletteFile struct {
	file *Bridge
}

// NewPaletteFile creates a palette store on the bridge's filesystem.
func NewPaletteFile(b *Bridge, path string) *PaletteFile {
	if path == "" {
		path = DefaultPalettePath
	}
	return &PaletteFile{file: New(b.fs, path)}
}

// SavePalette writes colors.
func (p *PaletteFile) SavePalette(ctx context.Context, colors []string) error {
	data, err := json.Marshal(colors)
	if err != nil {
		return fmt.Errorf("encode palette: %w", err)
	}
	return p.file.Save(ctx, string(data))
}

// LoadPalette returns the stored colors, or nil when the file is missing or
// does not hold a JSON array of strings.
func (p *PaletteFile) LoadPalette(ctx context.Context) ([]string, error) {
	data, err := p.file.Load(ctx)
	if err != nil || data == "" {
		return nil, err
	}
	var colors []string
	if err := json.Unmarshal([]byte(data), &colors); err != nil {
		return nil, nil
	}
	return colors, nil
}
