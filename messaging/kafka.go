package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	publishTimeout  = 10 * time.Second
	retryAttempts   = 3
	retryBackoffMax = 2 * time.Second
)

// Kafka publishes to a single topic. Messages are keyed by tenant so one
// tenant's events stay ordered within a partition.
type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	return &Kafka{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}}, nil
}

func (k *Kafka) Publish(ctx context.Context, key, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   body,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(routingKey)}},
		Time:    time.Now(),
	}

	backoff := 100 * time.Millisecond
	var err error
	for attempt := 0; attempt <= retryAttempts; attempt++ {
		if err = k.writer.WriteMessages(ctx, msg); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("publish timed out: %w", ctx.Err())
		}
		if attempt < retryAttempts {
			time.Sleep(backoff)
			backoff = min(backoff*2, retryBackoffMax)
		}
	}
	return fmt.Errorf("failed to write message after %d attempts: %w", retryAttempts+1, err)
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
