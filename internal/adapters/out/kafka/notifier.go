// Package kafka publishes order events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/IBM/sarama"

	"robodelivery/internal/core/ports"
)

var ErrBrokersAreRequired = errors.New("at least one kafka broker is required")

// Notifier implements ports.Notifier on top of a synchronous sarama producer. Messages
// are keyed by order id so that the events of one order stay ordered within a partition.
type Notifier struct {
	producer sarama.SyncProducer
	topic    string
}

// NewNotifier connects a producer to brokers.
func NewNotifier(brokers []string, topic string) (*Notifier, error) {
	if len(brokers) == 0 {
		return nil, ErrBrokersAreRequired
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("kafka topic is required")
	}

	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return NewNotifierWithProducer(producer, topic), nil
}

// NewNotifierWithProducer wraps an existing producer.
func NewNotifierWithProducer(producer sarama.SyncProducer, topic string) *Notifier {
	return &Notifier{producer: producer, topic: topic}
}

// Notify publishes event. The producer call itself is not cancellable, so ctx is only
// checked before sending.
func (n *Notifier) Notify(ctx context.Context, event ports.OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(newOrderChangedMessage(event))
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}

	_, _, err = n.producer.SendMessage(&sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(event.OrderID.String()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish order event %s: %w", event.OrderID, err)
	}
	return nil
}

func (n *Notifier) Close() error {
	return n.producer.Close()
}
