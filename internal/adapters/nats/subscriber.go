package natsadapter

import (
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapdraw/internal/core/events"
)

// Subscriber receives drawing events published by any instance.
type Subscriber struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

// NewSubscriber opens its own connection to url.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Subscriber{conn: conn}, nil
}

// Subscribe delivers every decodable event on the mapdraw subjects to h.
func (s *Subscriber) Subscribe(h events.Handler) error {
	sub, err := s.conn.Subscribe(SubjectPrefix+">", func(msg *nats.Msg) {
		ev, err := Decode(msg.Data)
		if err != nil {
			slog.Warn("drop undecodable event", "subject", msg.Subject, "error", err)
			return
		}
		h(ev)
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
