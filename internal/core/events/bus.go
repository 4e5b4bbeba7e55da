// Package events carries change notifications from the drawing core to any
// number of observers (status bar, pin list, websocket feed, NATS).
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/mapdraw/internal/core/domain"
	"github.com/samirrijal/mapdraw/internal/core/tools"
	"github.com/samirrijal/mapdraw/internal/pkg/metrics"
)

// Type identifies what changed.
type Type string

const (
	DocumentChanged Type = "document.changed"
	ToolChanged     Type = "tool.changed"
)

// Event is one change notification. Document events carry the shape count
// and pins; tool events carry the new tool configuration.
type Event struct {
	Type     Type          `json:"type"`
	Reason   string        `json:"reason,omitempty"`
	Revision int64         `json:"revision"`
	Shapes   int           `json:"shapes"`
	Pins     []domain.Pin  `json:"pins,omitempty"`
	Tool     *tools.Config `json:"tool,omitempty"`
	At       time.Time     `json:"at"`
}

// Publisher accepts events.
type Publisher interface {
	Publish(ev Event)
}

// Handler observes events. Handlers run synchronously on the publishing
// goroutine and must not block.
type Handler func(ev Event)

type subscription struct {
	id int
	fn Handler
}

// Bus is an in-process fan-out of events to subscribers.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs []subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscription{id: id, fn: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers ev to every subscriber in subscription order. A panicking
// handler is logged and does not stop delivery to the others.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		deliver(s.fn, ev)
	}
	metrics.EventsPublished.WithLabelValues(string(ev.Type)).Inc()
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func deliver(fn Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked", "type", ev.Type, "panic", r)
		}
	}()
	fn(ev)
}
