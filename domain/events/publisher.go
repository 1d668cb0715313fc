package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Yukasama/haus/internal/config"
	"github.com/Yukasama/haus/pkg/logger"
)

// Publisher announces house changes. Failures are logged and never returned.
type Publisher interface {
	Publish(ctx context.Context, evt HausEvent)
}

// conn is the part of *nats.Conn used for publishing
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NatsPublisher publishes events as JSON messages
type NatsPublisher struct {
	conn   conn
	prefix string
	log    *slog.Logger
}

// Connect dials the NATS server. The client keeps reconnecting in the background,
// so an unavailable server does not block startup.
func Connect(cfg config.NatsConfig, log *slog.Logger) (*nats.Conn, error) {
	return nats.Connect(cfg.URL,
		nats.Name("haus"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", logger.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	)
}

// NewNatsPublisher creates a publisher on top of an open connection
func NewNatsPublisher(c conn, prefix string, log *slog.Logger) *NatsPublisher {
	return &NatsPublisher{
		conn:   c,
		prefix: prefix,
		log:    log.With(logger.Scope("events.nats")),
	}
}

// Publish sends evt on its subject
func (p *NatsPublisher) Publish(_ context.Context, evt HausEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		p.log.Error("failed to encode event", logger.Error(err))
		return
	}

	subject := evt.Subject(p.prefix)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn("failed to publish event",
			logger.Error(err),
			slog.String("subject", subject),
			slog.Int64("haus_id", evt.HausID))
		return
	}

	p.log.Debug("published event",
		slog.String("subject", subject),
		slog.String("event_id", evt.ID),
		slog.Int64("haus_id", evt.HausID))
}

// Close drains pending messages and closes the connection
func (p *NatsPublisher) Close() error {
	return p.conn.Drain()
}

type noopPublisher struct {
	log *slog.Logger
}

func (p *noopPublisher) Publish(_ context.Context, evt HausEvent) {
	p.log.Debug("event (no-op)",
		slog.String("type", string(evt.Type)),
		slog.Int64("haus_id", evt.HausID))
}
