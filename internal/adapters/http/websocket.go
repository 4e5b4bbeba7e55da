package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/mapdraw/internal/core/events"
	"github.com/samirrijal/mapdraw/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to event types.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "document" | "tool"
}

var wsChannels = map[string]events.Type{
	"document": events.DocumentChanged,
	"tool":     events.ToolChanged,
}

// wsOutbox bounds how many events may queue for a slow client before newer
// ones are dropped.
const wsOutbox = 64

// WebSocketHandler relays drawing events to connected clients. Clients start
// subscribed to document changes and send
// {"action":"subscribe","channel":"tool"} to add tool changes.
func WebSocketHandler(source EventSource) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var writeMu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		var subMu sync.RWMutex
		subscribed := map[events.Type]bool{events.DocumentChanged: true}

		// Bus handlers must not block; a writer goroutine drains the outbox.
		outbox := make(chan events.Event, wsOutbox)
		unsubscribe := source.Subscribe(func(ev events.Event) {
			subMu.RLock()
			want := subscribed[ev.Type]
			subMu.RUnlock()
			if !want {
				return
			}
			select {
			case outbox <- ev:
			default:
				slog.Warn("ws outbox full, dropping event", "remote", remoteAddr, "type", ev.Type)
			}
		})
		defer unsubscribe()

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case ev := <-outbox:
					if err := writeJSON(ev); err != nil {
						return
					}
				case <-ticker.C:
					writeMu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					writeMu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			t, ok := wsChannels[m.Channel]
			if !ok {
				_ = writeJSON(map[string]string{"error": "unknown channel: " + m.Channel})
				continue
			}

			switch m.Action {
			case "subscribe":
				subMu.Lock()
				subscribed[t] = true
				subMu.Unlock()
				_ = writeJSON(map[string]string{"status": "subscribed", "channel": m.Channel})
			case "unsubscribe":
				subMu.Lock()
				delete(subscribed, t)
				subMu.Unlock()
				_ = writeJSON(map[string]string{"status": "unsubscribed", "channel": m.Channel})
			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
