package usecases

import (
	"fmt"

	"github.com/samirrijal/mapdraw/internal/core/domain"
)

// DefaultHistoryLimit is the number of snapshots kept when no limit is set.
const DefaultHistoryLimit = 50

// Saver receives every snapshot that becomes current. Save must not block;
// delivery is best effort.
type Saver interface {
	Save(snapshot string)
}

// History is a bounded stack of serialized document snapshots. It is not
// safe for concurrent use; DrawingService serialises access.
type History struct {
	limit     int
	snapshots []string
	saver     Saver
}

// NewHistory creates an empty history. limit <= 0 selects
// DefaultHistoryLimit. saver may be nil.
func NewHistory(limit int, saver Saver) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, saver: saver}
}

// Commit serializes doc onto the top of the stack, evicting the oldest
// snapshot past the limit, and hands the snapshot to the saver.
func (h *History) Commit(doc *domain.Document) error {
	data, err := domain.EncodeGeoJSON(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	snapshot := string(data)

	h.snapshots = append(h.snapshots, snapshot)
	if over := len(h.snapshots) - h.limit; over > 0 {
		h.snapshots = append(h.snapshots[:0:0], h.snapshots[over:]...)
	}
	h.save(snapshot)
	return nil
}

// Seed replaces the history with a single snapshot of doc without handing
// it to the saver.
func (h *History) Seed(doc *domain.Document) error {
	data, err := domain.EncodeGeoJSON(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	h.snapshots = []string{string(data)}
	return nil
}

// Undo discards the latest snapshot and returns the one beneath it. With
// fewer than two snapshots it does nothing and returns ok == false.
func (h *History) Undo(fallback domain.Style) (doc *domain.Document, ok bool, err error) {
	if len(h.snapshots) < 2 {
		return nil, false, nil
	}
	prev := h.snapshots[len(h.snapshots)-2]
	doc, err = domain.DecodeGeoJSON([]byte(prev), fallback)
	if err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	h.snapshots = h.snapshots[:len(h.snapshots)-1]
	h.save(prev)
	return doc, true, nil
}

// Reset drops every snapshot.
func (h *History) Reset() {
	h.snapshots = nil
}

// Depth returns the number of snapshots held.
func (h *History) Depth() int {
	return len(h.snapshots)
}

// Limit returns the capacity.
func (h *History) Limit() int {
	return h.limit
}

// Top returns the current snapshot.
func (h *History) Top() (string, bool) {
	if len(h.snapshots) == 0 {
		return "", false
	}
	return h.snapshots[len(h.snapshots)-1], true
}

func (h *History) save(snapshot string) {
	if h.saver != nil {
		h.saver.Save(snapshot)
	}
}
