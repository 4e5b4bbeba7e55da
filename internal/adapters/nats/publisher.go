package natsadapter

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapdraw/internal/core/events"
)

// StreamName is the JetStream stream holding drawing events.
const StreamName = "MAPDRAW_EVENTS"

// Publisher forwards drawing events to NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the event stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream(nats.PublishAsyncMaxPending(256))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectPrefix + ">"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// Publish sends ev without waiting for the server acknowledgement. It
// satisfies events.Publisher so it can be subscribed to a bus directly.
func (p *Publisher) Publish(ev events.Event) {
	data, err := Encode(ev)
	if err != nil {
		slog.Warn("encode event", "type", ev.Type, "error", err)
		return
	}
	if _, err := p.js.PublishAsync(Subject(ev.Type), data); err != nil {
		slog.Warn("publish event", "type", ev.Type, "error", err)
	}
}

// Forward relays every bus event to NATS and returns the unsubscribe func.
func (p *Publisher) Forward(bus *events.Bus) func() {
	return bus.Subscribe(p.Publish)
}

// Close waits briefly for pending publishes, then drains the connection.
func (p *Publisher) Close() {
	select {
	case <-p.js.PublishAsyncComplete():
	case <-time.After(2 * time.Second):
	}
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection with reconnects enabled.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
