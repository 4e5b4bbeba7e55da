// Package filebridge stores the drawing as a GeoJSON file, the way a desktop
// host shares it with other tools.
package filebridge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// DefaultPath is the bridge file used when none is configured.
const DefaultPath = "drawn_map.geojson"

// Bridge implements ports.SnapshotStore on a single file.
type Bridge struct {
	fs   afero.Fs
	path string
}

// New creates a bridge writing path on fsys. An empty path selects
// DefaultPath.
func New(fsys afero.Fs, path string) *Bridge {
	if path == "" {
		path = DefaultPath
	}
	return &Bridge{fs: fsys, path: path}
}

// NewOS creates a bridge on the operating system filesystem.
func NewOS(path string) *Bridge {
	return New(afero.NewOsFs(), path)
}

// Path returns the bridge file path.
func (b *Bridge) Path() string {
	return b.path
}

// Save replaces the file contents. The snapshot is written to a temporary
// file first and renamed over the target, so readers never see a partial
// file.
func (b *Bridge) Save(ctx context.Context, snapshot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(b.path); dir != "." {
		if err := b.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create bridge dir: %w", err)
		}
	}
	tmp := b.path + ".tmp"
	if err := afero.WriteFile(b.fs, tmp, []byte(snapshot), 0o644); err != nil {
		return fmt.Errorf("write bridge file: %w", err)
	}
	if err := b.fs.Rename(tmp, b.path); err != nil {
		_ = b.fs.Remove(tmp)
		return fmt.Errorf("replace bridge file: %w", err)
	}
	return nil
}

// Load returns the file contents, or "" when the file does not exist.
func (b *Bridge) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := afero.ReadFile(b.fs, b.path)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read bridge file: %w", err)
	}
	return string(data), nil
}
