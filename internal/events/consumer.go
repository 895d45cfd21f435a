package events

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/me/cinedex/internal/metrics"
)

// messageReader is the subset of *kafka.Reader used by Consumer.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Handler applies an event from another instance.
type Handler func(ctx context.Context, ev Event) error

// Consumer reads change events and hands those published by other
// instances to a Handler. It is run as a supervised service.
type Consumer struct {
	reader  messageReader
	origin  string
	handler Handler
	logger  *slog.Logger
	backoff time.Duration
}

// NewKafkaConsumer creates a consumer group reader for topic.
func NewKafkaConsumer(brokers []string, groupID, topic, origin string, handler Handler, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
	})
	return newConsumer(reader, origin, handler, logger)
}

func newConsumer(reader messageReader, origin string, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader:  reader,
		origin:  origin,
		handler: handler,
		logger:  logger.With("component", "kafka-consumer"),
		backoff: time.Second,
	}
}

// Serve consumes until ctx is cancelled, then closes the reader.
func (c *Consumer) Serve(ctx context.Context) error {
	defer c.reader.Close()
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("kafka read error", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff):
			}
			continue
		}
		c.handle(ctx, m)
	}
}

func (c *Consumer) String() string { return "kafka-consumer" }

func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	ev, ok := decodeMessage(m)
	if !ok {
		metrics.EventsConsumed.WithLabelValues("invalid").Inc()
		c.logger.Warn("undecodable event", "topic", m.Topic, "offset", m.Offset)
		return
	}
	if ev.Origin == c.origin {
		metrics.EventsConsumed.WithLabelValues("skipped").Inc()
		return
	}

	c.logger.Info("kafka message consumed",
		"topic", m.Topic,
		"partition", m.Partition,
		"offset", m.Offset,
		"entity", ev.Entity,
		"action", ev.Action,
		"resourceId", ev.ResourceID,
	)
	if err := c.handler(ctx, ev); err != nil {
		metrics.EventsConsumed.WithLabelValues("invalid").Inc()
		c.logger.Warn("kafka handler error", "entity", ev.Entity, "error", err)
		return
	}
	metrics.EventsConsumed.WithLabelValues("applied").Inc()
}

// decodeMessage parses a message value. A missing entity falls back to the
// message key.
func decodeMessage(m kafka.Message) (Event, bool) {
	var ev Event
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		return Event{}, false
	}
	ev.Entity = strings.TrimSpace(ev.Entity)
	if ev.Entity == "" {
		ev.Entity = strings.TrimSpace(string(m.Key))
	}
	if ev.Entity == "" {
		return Event{}, false
	}
	if ev.Action == "" {
		ev.Action = "unknown"
	}
	return ev, true
}
