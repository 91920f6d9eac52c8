package bus

import (
	"context"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/pkg/tracing"
)

// QueryHandler answers one query from local authoritative state. A missing
// entity is a zero-valued response, never an error; errors are reserved for
// malformed payloads and storage faults, which go through redelivery.
type QueryHandler func(ctx context.Context, payload []byte) ([]byte, error)

// Responder consumes a request topic and publishes exactly one response per
// request to the topic named in the reply_to header, carrying the request's
// correlation id back.
type Responder struct {
	log         *slog.Logger
	reader      *kafka.Reader
	producer    Producer
	handlers    map[string]QueryHandler
	dlqTopic    string
	maxAttempts int
	tracer      trace.Tracer
}

func NewResponder(log *slog.Logger, brokers []string, topic, group string, producer Producer) *Responder {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Responder{
		log:         log,
		reader:      r,
		producer:    producer,
		handlers:    make(map[string]QueryHandler),
		dlqTopic:    topic + ".dlq",
		maxAttempts: defaultMaxAttempts,
		tracer:      otel.Tracer("bus-responder"),
	}
}

func (r *Responder) Handle(queryType string, h QueryHandler) {
	r.handlers[queryType] = h
}

func (r *Responder) Run(ctx context.Context) error {
	defer r.reader.Close()
	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		r.process(ctx, msg)
		_ = r.reader.CommitMessages(ctx, msg)
	}
}

func (r *Responder) process(ctx context.Context, msg kafka.Message) {
	queryType := headerValue(msg.Headers, HeaderQueryType)
	corrID := headerValue(msg.Headers, HeaderCorrelationID)
	replyTo := headerValue(msg.Headers, HeaderReplyTo)

	h, ok := r.handlers[queryType]
	if !ok || corrID == "" || replyTo == "" {
		r.log.Warn("unanswerable request dropped", "query", queryType, "correlation_id", corrID)
		return
	}

	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := r.tracer.Start(msgCtx, "Answer"+queryType)
	defer span.End()

	resp, err := h(msgCtx, msg.Value)
	if err != nil {
		redeliver(ctx, r.log, r.producer, msg, r.dlqTopic, r.maxAttempts, err)
		return
	}

	reply := kafka.Message{
		Topic: replyTo,
		Key:   msg.Key,
		Value: resp,
		Headers: []kafka.Header{
			{Key: HeaderQueryType, Value: []byte(queryType)},
			{Key: HeaderCorrelationID, Value: []byte(corrID)},
		},
	}
	if err := r.producer.WriteMessages(ctx, reply); err != nil {
		// The requester will time out and surface that to its caller.
		r.log.Error("reply publish failed", "query", queryType, "correlation_id", corrID, "err", err)
		return
	}
	r.log.Info("request answered", "query", queryType, "correlation_id", corrID)
}

// IsTimeout reports whether err is the request/reply wait bound expiring.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
