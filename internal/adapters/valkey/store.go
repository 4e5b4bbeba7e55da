package valkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Default keys, shared with browser clients that used local storage.
const (
	DrawingsKey = "mapdraw_drawings"
	PaletteKey  = "mapdraw_custom_palette"
)

// kv is the subset of Client the stores need.
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Store implements ports.SnapshotStore under a single key.
type Store struct {
	kv  kv
	key string
}

// NewStore creates a snapshot store. An empty key selects DrawingsKey.
func NewStore(c *Client, key string) *Store {
	return newStore(c, key)
}

func newStore(c kv, key string) *Store {
	if key == "" {
		key = DrawingsKey
	}
	return &Store{kv: c, key: key}
}

// Save writes the snapshot without expiry.
func (s *Store) Save(ctx context.Context, snapshot string) error {
	if err := s.kv.Set(ctx, s.key, []byte(snapshot), 0); err != nil {
		return fmt.Errorf("valkey save %s: %w", s.key, err)
	}
	return nil
}

// Load returns the stored snapshot, or "" when the key is missing.
func (s *Store) Load(ctx context.Context) (string, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("valkey load %s: %w", s.key, err)
	}
	return string(data), nil
}

// PaletteStore implements ports.PaletteStore as a JSON array under one key.
type PaletteStore struct {
	kv  kv
	key string
}

// NewPaletteStore creates a palette store. An empty key selects PaletteKey.
func NewPaletteStore(c *Client, key string) *PaletteStore {
	if key == "" {
		key = PaletteKey
	}
	return &PaletteStore{kv: c, key: key}
}

// SavePalette stores colors.
func (p *PaletteStore) SavePalette(ctx context.Context, colors []string) error {
	data, err := json.Marshal(colors)
	if err != nil {
		return err
	}
	return p.kv.Set(ctx, p.key, data, 0)
}

// LoadPalette returns the stored colors, or nil when none are stored or the
// stored value is not a JSON array of strings.
func (p *PaletteStore) LoadPalette(ctx context.Context) ([]string, error) {
	data, err := p.kv.Get(ctx, p.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var colors []string
	if err := json.Unmarshal(data, &colors); err != nil {
		return nil, nil
	}
	return colors, nil
}
