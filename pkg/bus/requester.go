package bus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/pkg/tracing"
)

// ErrTimeout means no response carried the request's correlation id within
// the wait bound. Callers must not read it as a domain answer.
var ErrTimeout = errors.New("bus: request timed out")

// Requester publishes query messages and matches responses back to callers
// by correlation id. One reply-topic reader feeds all outstanding requests;
// each call parks on its own channel until the response lands, the timeout
// elapses, or the caller's context is cancelled. All three paths drop the
// pending entry, so an abandoned request never leaks a correlation.
type Requester struct {
	log      *slog.Logger
	producer Producer
	reader   *kafka.Reader
	replyTo  string
	timeout  time.Duration
	tracer   trace.Tracer

	mu      sync.Mutex
	pending map[string]chan []byte
}

func NewRequester(log *slog.Logger, brokers []string, replyTopic, group string, producer Producer, timeout time.Duration) *Requester {
	// The reply group is per instance, never shared: with a common group id
	// two instances of the same service would split the reply topic's
	// partitions between them, and a response could land on the instance
	// that does not hold the pending correlation. Every instance reads the
	// whole reply topic and drops correlations it does not own.
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   replyTopic,
		GroupID: group + "-" + uuid.NewString(),
	})
	return &Requester{
		log:      log,
		producer: producer,
		reader:   r,
		replyTo:  replyTopic,
		timeout:  timeout,
		tracer:   otel.Tracer("bus-requester"),
		pending:  make(map[string]chan []byte),
	}
}

// Run drains the reply topic. Responses whose correlation is no longer
// pending (late arrivals after a timeout) are dropped.
func (r *Requester) Run(ctx context.Context) error {
	defer r.reader.Close()
	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		r.deliver(headerValue(msg.Headers, HeaderCorrelationID), msg.Value)
		_ = r.reader.CommitMessages(ctx, msg)
	}
}

// Request publishes one query and blocks until its response arrives or the
// wait bound elapses.
func (r *Requester) Request(ctx context.Context, topic, queryType, key string, payload []byte) ([]byte, error) {
	ctx, span := r.tracer.Start(ctx, "Request"+queryType)
	defer span.End()

	corrID := uuid.NewString()
	ch := r.register(corrID)

	headers := []kafka.Header{
		{Key: HeaderQueryType, Value: []byte(queryType)},
		{Key: HeaderCorrelationID, Value: []byte(corrID)},
		{Key: HeaderReplyTo, Value: []byte(r.replyTo)},
	}
	headers = tracing.InjectKafkaHeaders(ctx, headers)

	msg := kafka.Message{Topic: topic, Key: []byte(key), Value: payload, Headers: headers}
	if err := r.producer.WriteMessages(ctx, msg); err != nil {
		r.unregister(corrID)
		return nil, err
	}

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resp, nil
	case <-timer.C:
		r.unregister(corrID)
		r.log.Warn("request timed out", "query", queryType, "correlation_id", corrID)
		return nil, ErrTimeout
	case <-ctx.Done():
		r.unregister(corrID)
		return nil, ctx.Err()
	}
}

func (r *Requester) register(corrID string) chan []byte {
	ch := make(chan []byte, 1)
	r.mu.Lock()
	r.pending[corrID] = ch
	r.mu.Unlock()
	return ch
}

func (r *Requester) unregister(corrID string) {
	r.mu.Lock()
	delete(r.pending, corrID)
	r.mu.Unlock()
}

func (r *Requester) deliver(corrID string, payload []byte) {
	r.mu.Lock()
	ch, ok := r.pending[corrID]
	if ok {
		delete(r.pending, corrID)
	}
	r.mu.Unlock()
	if ok {
		ch <- payload
	}
}
