package bus

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/pkg/tracing"
)

// EventHandler applies one event. It must be idempotent: the broker delivers
// at least once and redelivery replays the same payload.
type EventHandler func(ctx context.Context, payload []byte) error

// Deduper tracks which messages have already been applied. Seen must not
// claim the key; Mark is called only after the handler succeeds, so a failed
// handler's republished copy still reaches the handler on retry.
type Deduper interface {
	Key(topic string, partition int, offset int64) string
	EventKey(topic, eventID string) string
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// Consumer is a fetch/handle/commit loop over one event topic. Events are
// dispatched by their event_type header; types with no registered handler are
// skipped. Handler failures are redelivered up to maxAttempts, then
// dead-lettered on <topic>.dlq.
type Consumer struct {
	log         *slog.Logger
	reader      *kafka.Reader
	producer    Producer
	idem        Deduper
	handlers    map[string]EventHandler
	dlqTopic    string
	maxAttempts int
	tracer      trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, producer Producer, idem Deduper) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:         log,
		reader:      r,
		producer:    producer,
		idem:        idem,
		handlers:    make(map[string]EventHandler),
		dlqTopic:    topic + ".dlq",
		maxAttempts: defaultMaxAttempts,
		tracer:      otel.Tracer("bus-consumer"),
	}
}

func (c *Consumer) Handle(eventType string, h EventHandler) {
	c.handlers[eventType] = h
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		c.process(ctx, msg)
		_ = c.reader.CommitMessages(ctx, msg)
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	eventType := headerValue(msg.Headers, HeaderEventType)
	h, ok := c.handlers[eventType]
	if !ok {
		return
	}

	// Prefer the producer-assigned event id: it survives republication on
	// the retry path, where the broker offset does not.
	key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
	if eventID := headerValue(msg.Headers, HeaderEventID); eventID != "" {
		key = c.idem.EventKey(msg.Topic, eventID)
	}
	seen, err := c.idem.Seen(ctx, key)
	if err != nil {
		// Handlers are idempotent, so processing without the dedup guard
		// is safe when redis is unavailable.
		c.log.Error("idempotency check failed", "err", err)
	}
	if seen {
		c.log.Info("duplicate message skipped", "key", key)
		return
	}

	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "Consume"+eventType)
	defer span.End()

	if err := h(msgCtx, msg.Value); err != nil {
		// Leave the key unmarked: the republished copy keeps its event_id
		// and must reach the handler again.
		redeliver(ctx, c.log, c.producer, msg, c.dlqTopic, c.maxAttempts, err)
		return
	}
	if err := c.idem.Mark(ctx, key); err != nil {
		c.log.Error("idempotency mark failed", "key", key, "err", err)
	}
	c.log.Info("event processed", "type", eventType, "topic", msg.Topic, "offset", msg.Offset)
}
