package http

import (
	"sync"
	"time"

	"github.com/samirrijal/mapdraw/internal/core/tools"
)

// DefaultSessionID is used when a client does not name its session.
const DefaultSessionID = "default"

// sessionIdle is how long an unused session is kept.
const sessionIdle = 30 * time.Minute

type sessionEntry struct {
	session  *tools.Session
	lastUsed time.Time
}

// SessionRegistry keeps one pointer session per client so that gestures
// spanning several requests (strokes, two-click lines) accumulate.
type SessionRegistry struct {
	mu       sync.Mutex
	canvas   tools.Canvas
	sessions map[string]*sessionEntry
	now      func() time.Time
}

// NewSessionRegistry creates a registry whose sessions draw onto canvas.
func NewSessionRegistry(canvas tools.Canvas) *SessionRegistry {
	return &SessionRegistry{
		canvas:   canvas,
		sessions: make(map[string]*sessionEntry),
		now:      time.Now,
	}
}

// Get returns the session for id, creating it on first use. Idle sessions
// are dropped on the way.
func (r *SessionRegistry) Get(id string) *tools.Session {
	if id == "" {
		id = DefaultSessionID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for key, e := range r.sessions {
		if key != id && now.Sub(e.lastUsed) > sessionIdle {
			delete(r.sessions, key)
		}
	}

	e, ok := r.sessions[id]
	if !ok {
		e = &sessionEntry{session: tools.NewSession(r.canvas)}
		r.sessions[id] = e
	}
	e.lastUsed = now
	return e.session
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
