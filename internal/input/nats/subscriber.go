package nats

import (
	"context"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"incidentsum/internal/logger"
)

// Config configures the NATS subscriber.
type Config struct {
	URL     string
	Subject string
	Queue   string
	Buffer  int
}

// Subscriber receives incident report payloads from a NATS queue group.
type Subscriber struct {
	conn    *natsgo.Conn
	sub     *natsgo.Subscription
	msgs    chan *natsgo.Msg
	subject string
}

// NewSubscriber connects to NATS and joins the configured queue group.
func NewSubscriber(cfg Config) (*Subscriber, error) {
	if cfg.URL == "" {
		cfg.URL = natsgo.DefaultURL
	}
	if cfg.Subject == "" {
		return nil, fmt.Errorf("nats subject is required")
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}

	conn, err := natsgo.Connect(cfg.URL,
		natsgo.Name("incidentsum"),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(time.Second),
		natsgo.Timeout(10*time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			logger.Warnf("Disconnected from NATS: %v", err)
		}),
		natsgo.ReconnectHandler(func(_ *natsgo.Conn) {
			logger.Infof("Reconnected to NATS")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	msgs := make(chan *natsgo.Msg, cfg.Buffer)
	var sub *natsgo.Subscription
	if cfg.Queue != "" {
		sub, err = conn.ChanQueueSubscribe(cfg.Subject, cfg.Queue, msgs)
	} else {
		sub, err = conn.ChanSubscribe(cfg.Subject, msgs)
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe %s: %w", cfg.Subject, err)
	}

	return &Subscriber{conn: conn, sub: sub, msgs: msgs, subject: cfg.Subject}, nil
}

// Name identifies the source in logs and report records.
func (s *Subscriber) Name() string {
	return "nats:" + s.subject
}

// Pop waits for the next message or context cancellation.
func (s *Subscriber) Pop(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-s.msgs:
		if !ok {
			return nil, fmt.Errorf("nats subscription closed")
		}
		return msg.Data, nil
	}
}

// Close drains the subscription and closes the connection.
func (s *Subscriber) Close() error {
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			logger.Warnf("Failed to unsubscribe from %s: %v", s.subject, err)
		}
	}
	s.conn.Close()
	return nil
}
