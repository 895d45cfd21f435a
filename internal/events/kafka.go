package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/me/cinedex/internal/metrics"
)

// KafkaPublisher writes events to a topic, keyed by entity so that events
// for one kind stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	origin string
	logger *slog.Logger
}

// NewKafkaPublisher creates a publisher for topic. origin is stamped on
// every event so the instance can recognise its own messages.
func NewKafkaPublisher(brokers []string, topic, origin string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           50 * time.Millisecond,
			WriteTimeout:           time.Second,
			MaxAttempts:            2,
			WriteBackoffMax:        200 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		origin: origin,
		logger: logger.With("component", "kafka-publisher", "topic", topic),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	ev.Origin = p.origin
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.Entity), Value: value})
	if err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("publish %s.%s: %w", ev.Entity, ev.Action, err)
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
	p.logger.Debug("event published", "entity", ev.Entity, "action", ev.Action, "resourceId", ev.ResourceID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
