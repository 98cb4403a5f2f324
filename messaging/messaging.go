// Package messaging forwards domain events to an external broker so other
// systems can follow project activity. Kafka and RabbitMQ are supported; with
// no provider configured nothing is forwarded.
package messaging

import (
	"context"
	"fmt"

	"github.com/ncobase/collab/config"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
)

// Publisher writes one message to the broker. key groups related messages
// (the tenant id); routingKey is the event type.
type Publisher interface {
	Publish(ctx context.Context, key, routingKey string, body []byte) error
	Close() error
}

// New opens the configured publisher. It returns nil, nil when messaging is
// disabled.
func New(c *config.Messaging) (Publisher, error) {
	if c == nil {
		return nil, nil
	}
	switch c.Provider {
	case "", "none":
		return nil, nil
	case "kafka":
		return NewKafka(c.Brokers, c.Topic)
	case "rabbitmq":
		return NewRabbitMQ(c.URL, c.Exchange)
	default:
		return nil, fmt.Errorf("unsupported messaging provider: %s", c.Provider)
	}
}

// Sink is an event bus subscriber that forwards every event.
type Sink struct {
	pub    Publisher
	logger *logger.Logger
}

func NewSink(pub Publisher, log *logger.Logger) *Sink {
	if log == nil {
		log = logger.StdLogger()
	}
	return &Sink{pub: pub, logger: log}
}

// Handle forwards ev. Failures are returned to the bus, which logs them.
func (s *Sink) Handle(ctx context.Context, ev *event.Event) error {
	body, err := event.MarshalEvent(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.ID, err)
	}
	if err := s.pub.Publish(ctx, ev.TenantID, string(ev.Type), body); err != nil {
		return fmt.Errorf("forward event %s: %w", ev.ID, err)
	}
	s.logger.Debug(ctx, "Event forwarded", "type", ev.Type, "id", ev.ID)
	return nil
}
