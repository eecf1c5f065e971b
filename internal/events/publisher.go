// Package events publishes import lifecycle events to NATS. The
// publisher is optional: chatmerge runs fine without a broker, there is
// just no downstream notification.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectImportCompleted is the NATS subject for completed import batches.
const SubjectImportCompleted = "chatmerge.import.completed"

// ImportCompleted is emitted after a batch has been parsed and merged.
type ImportCompleted struct {
	BatchID       string `json:"batch_id"`
	Path          string `json:"path"`
	Sources       int    `json:"sources"`
	Parsed        int    `json:"parsed"`
	Messages      int    `json:"messages"`
	Conversations int    `json:"conversations"`
	Timestamp     string `json:"timestamp"`
}

type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewPublisher connects to NATS with retrying reconnect behavior.
func NewPublisher(url, token string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Publisher{conn: nc, logger: logger}, nil
}

// PublishImportCompleted emits an import-completed event. Timestamp is
// filled in if the caller left it empty.
func (p *Publisher) PublishImportCompleted(event ImportCompleted) error {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.conn.Publish(SubjectImportCompleted, payload)
}

func (p *Publisher) Close() {
	p.conn.Close()
}
