package bus

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// Header keys carried on every message. Correlation and reply routing are
// explicit data, not broker magic.
const (
	HeaderEventType     = "event_type"
	HeaderEventID       = "event_id"
	HeaderQueryType     = "query_type"
	HeaderCorrelationID = "correlation_id"
	HeaderReplyTo       = "reply_to"
	HeaderAttempt       = "attempt"
	HeaderLastError     = "last_error"
)

const defaultMaxAttempts = 5

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Writer struct {
	*kafka.Writer
}

func NewWriter(brokers []string) *Writer {
	return &Writer{
		Writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (w *Writer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return w.Writer.WriteMessages(ctx, msgs...)
}

func headerValue(hs []kafka.Header, key string) string {
	for _, h := range hs {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func attemptOf(hs []kafka.Header) int {
	n, err := strconv.Atoi(headerValue(hs, HeaderAttempt))
	if err != nil {
		return 1
	}
	return n
}

// redeliver republishes a failed message with a bumped attempt counter, or
// parks it on the dead-letter topic once attempts run out. The
// original is committed either way so the partition keeps moving.
func redeliver(ctx context.Context, log *slog.Logger, producer Producer, msg kafka.Message, dlqTopic string, maxAttempts int, cause error) {
	attempt := attemptOf(msg.Headers) + 1

	headers := make([]kafka.Header, 0, len(msg.Headers)+2)
	for _, h := range msg.Headers {
		if h.Key == HeaderAttempt || h.Key == HeaderLastError {
			continue
		}
		headers = append(headers, h)
	}
	headers = append(headers,
		kafka.Header{Key: HeaderAttempt, Value: []byte(strconv.Itoa(attempt))},
		kafka.Header{Key: HeaderLastError, Value: []byte(cause.Error())},
	)

	topic := msg.Topic
	if attempt > maxAttempts {
		topic = dlqTopic
		log.Error("message dead-lettered", "topic", msg.Topic, "offset", msg.Offset, "err", cause)
	} else {
		log.Warn("message redelivery scheduled", "topic", msg.Topic, "attempt", attempt, "err", cause)
	}

	out := kafka.Message{Topic: topic, Key: msg.Key, Value: msg.Value, Headers: headers}
	if err := producer.WriteMessages(ctx, out); err != nil {
		log.Error("redeliver publish failed", "topic", topic, "err", err)
	}
}
