package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQ publishes to a durable topic exchange, routed by event type.
type RabbitMQ struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	confirms chan amqp.Confirmation
	exchange string
	mu       sync.Mutex
}

func NewRabbitMQ(url, exchange string) (*RabbitMQ, error) {
	if url == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	return &RabbitMQ{
		conn:     conn,
		ch:       ch,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
		exchange: exchange,
	}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, key, routingKey string, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := r.ch.PublishWithContext(ctx, r.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{"tenant_id": key},
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	select {
	case c, ok := <-r.confirms:
		if !ok {
			return errors.New("confirmation channel closed")
		}
		if !c.Ack {
			return errors.New("publish was not acknowledged")
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish confirmation timed out: %w", ctx.Err())
	}
}

func (r *RabbitMQ) Close() error {
	_ = r.ch.Close()
	return r.conn.Close()
}
