package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/mapdraw/internal/core/ports"
	"github.com/samirrijal/mapdraw/internal/pkg/metrics"
)

// DefaultSaveTimeout bounds a single background save.
const DefaultSaveTimeout = 5 * time.Second

// Autosaver writes snapshots to a store on a background goroutine. Only the
// newest pending snapshot is written; older ones still waiting are dropped.
// Failures are logged and counted, never returned to the caller of Save.
type Autosaver struct {
	store   ports.SnapshotStore
	name    string
	timeout time.Duration

	mu      sync.Mutex
	pending *string

	wake  chan struct{}
	flush chan chan struct{}
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewAutosaver starts an autosaver writing to store. name labels its logs
// and metrics. timeout <= 0 selects DefaultSaveTimeout.
func NewAutosaver(store ports.SnapshotStore, name string, timeout time.Duration) *Autosaver {
	if timeout <= 0 {
		timeout = DefaultSaveTimeout
	}
	a := &Autosaver{
		store:   store,
		name:    name,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		flush:   make(chan chan struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// Save queues snapshot, replacing any snapshot not yet written.
func (a *Autosaver) Save(snapshot string) {
	a.mu.Lock()
	a.pending = &snapshot
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every snapshot queued before the call has been written
// or ctx is done.
func (a *Autosaver) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case a.flush <- reply:
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes the pending snapshot, if any, and stops the goroutine.
func (a *Autosaver) Close() {
	a.once.Do(func() { close(a.stop) })
	<-a.done
}

func (a *Autosaver) run() {
	defer close(a.done)
	for {
		select {
		case <-a.wake:
			a.drain()
		case reply := <-a.flush:
			a.drain()
			close(reply)
		case <-a.stop:
			a.drain()
			return
		}
	}
}

func (a *Autosaver) drain() {
	for {
		a.mu.Lock()
		snapshot := a.pending
		a.pending = nil
		a.mu.Unlock()

		if snapshot == nil {
			return
		}
		a.persist(*snapshot)
	}
}

func (a *Autosaver) persist(snapshot string) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	start := time.Now()
	err := a.store.Save(ctx, snapshot)
	metrics.PersistDuration.WithLabelValues(a.name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PersistFailures.WithLabelValues(a.name).Inc()
		slog.Warn("autosave failed", "store", a.name, "bytes", len(snapshot), "error", err)
		return
	}
	slog.Debug("autosaved", "store", a.name, "bytes", len(snapshot))
}
