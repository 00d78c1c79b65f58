// Package messaging is the event bus adapter used by the worker's
// outbox relay, backed by github.com/segmentio/kafka-go.
package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
)

// Kafka publishes outbox messages, one topic per writer, keyed by the
// outbox row's event type.
type Kafka struct {
	brokers      []string
	topicPrefix  string
	writers      map[string]*kafka.Writer
}

// NewKafka builds a Kafka publisher. topicPrefix namespaces every topic
// derived from an outbox message's event type (e.g. "promotion.published"
// under prefix "promotion-engine" becomes "promotion-engine.promotion.published").
func NewKafka(brokers []string, topicPrefix string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("messaging: at least one kafka broker is required")
	}
	return &Kafka{
		brokers:     brokers,
		topicPrefix: topicPrefix,
		writers:     make(map[string]*kafka.Writer),
	}, nil
}

// Publish writes payload to the topic derived from eventType, matching
// the outbox relay's workers.EventPublisher port shape
// (Publish(ctx, topic, payload) error).
func (k *Kafka) Publish(ctx context.Context, eventType string, payload []byte) error {
	writer := k.writerFor(k.topicFor(eventType))
	return writer.WriteMessages(ctx, kafka.Message{Value: payload})
}

func (k *Kafka) topicFor(eventType string) string {
	if strings.TrimSpace(k.topicPrefix) == "" {
		return eventType
	}
	return k.topicPrefix + "." + eventType
}

func (k *Kafka) writerFor(topic string) *kafka.Writer {
	if w, ok := k.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(k.brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	k.writers[topic] = w
	return w
}

// Close flushes and closes every writer opened so far.
func (k *Kafka) Close() error {
	var firstErr error
	for _, w := range k.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
