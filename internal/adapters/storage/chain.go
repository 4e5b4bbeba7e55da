// Package storage combines several snapshot stores into one.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/mapdraw/internal/core/ports"
	"github.com/samirrijal/mapdraw/internal/pkg/metrics"
)

// Backend is a named snapshot store.
type Backend struct {
	Name  string
	Store ports.SnapshotStore
}

// Chain implements ports.SnapshotStore over an ordered list of backends.
// Load returns the first non-empty snapshot; Save writes to all of them.
type Chain struct {
	backends []Backend
}

// NewChain creates a chain. Backends with a nil store are skipped.
func NewChain(backends ...Backend) *Chain {
	c := &Chain{}
	for _, b := range backends {
		if b.Store != nil {
			c.backends = append(c.backends, b)
		}
	}
	return c
}

// Names returns the backend names in load order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name
	}
	return names
}

// Save writes snapshot to every backend. A failing backend does not stop the
// others; all failures are joined into the returned error.
func (c *Chain) Save(ctx context.Context, snapshot string) error {
	var errs []error
	for _, b := range c.backends {
		start := time.Now()
		err := b.Store.Save(ctx, snapshot)
		metrics.PersistDuration.WithLabelValues(b.Name).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.PersistFailures.WithLabelValues(b.Name).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", b.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Load returns the first non-empty snapshot in backend order. A failing
// backend is logged and skipped; the error is returned only if no backend
// produced a snapshot.
func (c *Chain) Load(ctx context.Context) (string, error) {
	return c.LoadValid(ctx, nil)
}

// LoadValid is Load with a content check: a snapshot that accept rejects is
// logged and the next backend is tried. A nil accept approves everything.
func (c *Chain) LoadValid(ctx context.Context, accept func(snapshot string) error) (string, error) {
	var errs []error
	for _, b := range c.backends {
		snapshot, err := b.Store.Load(ctx)
		if err != nil {
			slog.Warn("snapshot load failed", "backend", b.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", b.Name, err))
			continue
		}
		if snapshot == "" {
			continue
		}
		if accept != nil {
			if err := accept(snapshot); err != nil {
				slog.Warn("stored snapshot rejected", "backend", b.Name, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", b.Name, err))
				continue
			}
		}
		slog.Debug("snapshot loaded", "backend", b.Name, "bytes", len(snapshot))
		return snapshot, nil
	}
	return "", errors.Join(errs...)
}
