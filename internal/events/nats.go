package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/youmu/internal/logfields"
)

// DefaultSubject is the subject prefix events are published under.
const DefaultSubject = "youmu.builds"

// NATSPublisher publishes JSON encoded events to "<subject>.<type>".
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url,
		nats.Name("youmu"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", logfields.URL(c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS event publisher connected", logfields.URL(url), slog.String("subject", subject))
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Subject returns the subject an event type is published on.
func Subject(prefix string, t Type) string {
	return prefix + "." + string(t)
}

func (p *NATSPublisher) Publish(ctx context.Context, ev BuildEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(Subject(p.subject, ev.Type), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	slog.Debug("Published build event",
		logfields.AttemptID(ev.AttemptID),
		logfields.Package(ev.Package),
		slog.String("type", string(ev.Type)))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	err := p.conn.Drain()
	if err != nil {
		p.conn.Close()
	}
	return err
}
