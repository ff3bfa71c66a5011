// Package sink provides event delivery sinks.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"givepool/pkg/platform/events"
)

const flushTimeout = 10 * time.Second

// Kafka publishes events to a Kafka topic, keyed by project id so per-project
// ordering survives partitioning. Produce is fire-and-forget: the delivery
// callback only logs, matching the best-effort contract of the publisher.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafka builds a Kafka sink from seed brokers.
func NewKafka(brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

// Deliver produces the event asynchronously. Serialization problems are the
// only errors surfaced; broker failures are logged in the callback.
func (k *Kafka) Deliver(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.ProjectID.String()),
		Value: payload,
	}
	k.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			k.logger.Warn("kafka produce failed", "topic", k.topic, "type", event.Type, "error", err)
		}
	})
	return nil
}

// Close flushes buffered records and releases the client.
func (k *Kafka) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := k.client.Flush(ctx); err != nil {
		k.logger.Warn("kafka flush on close failed", "error", err)
	}
	k.client.Close()
	return nil
}
