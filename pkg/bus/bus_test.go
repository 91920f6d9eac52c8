package bus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type captureProducer struct {
	messages []kafka.Message
	err      error
	onWrite  func(msg kafka.Message)
}

func (p *captureProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msgs...)
	if p.onWrite != nil {
		for _, msg := range msgs {
			p.onWrite(msg)
		}
	}
	return nil
}

func newTestRequester(producer Producer, timeout time.Duration) *Requester {
	return &Requester{
		log:      testLogger(),
		producer: producer,
		replyTo:  "test.replies",
		timeout:  timeout,
		tracer:   otel.Tracer("test"),
		pending:  make(map[string]chan []byte),
	}
}

func (r *Requester) pendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func TestRequestReturnsDeliveredResponse(t *testing.T) {
	producer := &captureProducer{}
	req := newTestRequester(producer, time.Second)

	// Answer as soon as the request is published, the way a responder would.
	producer.onWrite = func(msg kafka.Message) {
		corrID := headerValue(msg.Headers, HeaderCorrelationID)
		if corrID == "" {
			t.Error("published request is missing a correlation id")
		}
		if got := headerValue(msg.Headers, HeaderReplyTo); got != "test.replies" {
			t.Errorf("reply_to = %q, want test.replies", got)
		}
		req.deliver(corrID, []byte(`{"answer":42}`))
	}

	resp, err := req.Request(context.Background(), "product.requests", "StockQuantity", "p1", []byte(`{}`))
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if string(resp) != `{"answer":42}` {
		t.Fatalf("response = %s", resp)
	}
	if n := req.pendingCount(); n != 0 {
		t.Fatalf("pending entries after success = %d, want 0", n)
	}
}

func TestRequestTimesOutWithoutResponse(t *testing.T) {
	req := newTestRequester(&captureProducer{}, 20*time.Millisecond)

	_, err := req.Request(context.Background(), "product.requests", "StockQuantity", "p1", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if !IsTimeout(err) {
		t.Fatal("IsTimeout should report true for ErrTimeout")
	}
	if n := req.pendingCount(); n != 0 {
		t.Fatalf("pending entries after timeout = %d, want 0", n)
	}
}

func TestRequestUnblocksOnContextCancel(t *testing.T) {
	req := newTestRequester(&captureProducer{}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := req.Request(ctx, "product.requests", "StockQuantity", "p1", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n := req.pendingCount(); n != 0 {
		t.Fatalf("pending entries after cancel = %d, want 0", n)
	}
}

func TestRequestPublishFailureUnregisters(t *testing.T) {
	wantErr := errors.New("broker down")
	req := newTestRequester(&captureProducer{err: wantErr}, time.Second)

	_, err := req.Request(context.Background(), "product.requests", "StockQuantity", "p1", nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want publish error", err)
	}
	if n := req.pendingCount(); n != 0 {
		t.Fatalf("pending entries after publish failure = %d, want 0", n)
	}
}

func TestDeliverAfterTimeoutIsDropped(t *testing.T) {
	req := newTestRequester(&captureProducer{}, time.Second)

	// No pending entry for this correlation; must not block or panic.
	req.deliver("stale-correlation", []byte("late"))
	if n := req.pendingCount(); n != 0 {
		t.Fatalf("pending entries = %d, want 0", n)
	}
}

func newTestResponder(producer Producer) *Responder {
	return &Responder{
		log:         testLogger(),
		producer:    producer,
		handlers:    make(map[string]QueryHandler),
		dlqTopic:    "test.requests.dlq",
		maxAttempts: 2,
		tracer:      otel.Tracer("test"),
	}
}

func requestMessage(queryType, corrID, replyTo string) kafka.Message {
	return kafka.Message{
		Topic: "test.requests",
		Key:   []byte("p1"),
		Value: []byte(`{}`),
		Headers: []kafka.Header{
			{Key: HeaderQueryType, Value: []byte(queryType)},
			{Key: HeaderCorrelationID, Value: []byte(corrID)},
			{Key: HeaderReplyTo, Value: []byte(replyTo)},
		},
	}
}

func TestResponderRepliesWithCorrelationID(t *testing.T) {
	producer := &captureProducer{}
	resp := newTestResponder(producer)
	resp.Handle("StockQuantity", func(_ context.Context, _ []byte) ([]byte, error) {
		return []byte(`{"availableQuantity":7}`), nil
	})

	resp.process(context.Background(), requestMessage("StockQuantity", "corr-1", "cart-service.replies"))

	if len(producer.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(producer.messages))
	}
	reply := producer.messages[0]
	if reply.Topic != "cart-service.replies" {
		t.Fatalf("reply topic = %q", reply.Topic)
	}
	if got := headerValue(reply.Headers, HeaderCorrelationID); got != "corr-1" {
		t.Fatalf("reply correlation id = %q, want corr-1", got)
	}
	if string(reply.Value) != `{"availableQuantity":7}` {
		t.Fatalf("reply payload = %s", reply.Value)
	}
}

func TestResponderDropsUnanswerableRequests(t *testing.T) {
	producer := &captureProducer{}
	resp := newTestResponder(producer)
	resp.Handle("StockQuantity", func(_ context.Context, _ []byte) ([]byte, error) {
		t.Error("handler must not run for unanswerable requests")
		return nil, nil
	})

	resp.process(context.Background(), requestMessage("UnknownQuery", "corr-1", "cart-service.replies"))
	resp.process(context.Background(), requestMessage("StockQuantity", "", "cart-service.replies"))
	resp.process(context.Background(), requestMessage("StockQuantity", "corr-1", ""))

	if len(producer.messages) != 0 {
		t.Fatalf("published %d messages, want 0", len(producer.messages))
	}
}

func TestResponderHandlerErrorGoesToRedelivery(t *testing.T) {
	producer := &captureProducer{}
	resp := newTestResponder(producer)
	resp.Handle("StockQuantity", func(_ context.Context, _ []byte) ([]byte, error) {
		return nil, errors.New("storage fault")
	})

	resp.process(context.Background(), requestMessage("StockQuantity", "corr-1", "cart-service.replies"))

	if len(producer.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(producer.messages))
	}
	republished := producer.messages[0]
	if republished.Topic != "test.requests" {
		t.Fatalf("republish topic = %q, want original topic", republished.Topic)
	}
	if got := headerValue(republished.Headers, HeaderAttempt); got != "2" {
		t.Fatalf("attempt header = %q, want 2", got)
	}
}

func TestRedeliverBumpsAttemptAndKeepsHeaders(t *testing.T) {
	producer := &captureProducer{}
	msg := kafka.Message{
		Topic: "order.events",
		Key:   []byte("u1"),
		Value: []byte(`{}`),
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte("CartCleared")},
			{Key: HeaderEventID, Value: []byte("41")},
			{Key: HeaderAttempt, Value: []byte("2")},
			{Key: HeaderLastError, Value: []byte("previous")},
		},
	}

	redeliver(context.Background(), testLogger(), producer, msg, "order.events.dlq", 5, errors.New("db down"))

	if len(producer.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(producer.messages))
	}
	out := producer.messages[0]
	if out.Topic != "order.events" {
		t.Fatalf("topic = %q, want original topic below max attempts", out.Topic)
	}
	if got := headerValue(out.Headers, HeaderAttempt); got != "3" {
		t.Fatalf("attempt = %q, want 3", got)
	}
	if got := headerValue(out.Headers, HeaderLastError); got != "db down" {
		t.Fatalf("last_error = %q", got)
	}
	if got := headerValue(out.Headers, HeaderEventID); got != "41" {
		t.Fatalf("event_id = %q, want carried over", got)
	}
	if got := headerValue(out.Headers, HeaderEventType); got != "CartCleared" {
		t.Fatalf("event_type = %q, want carried over", got)
	}
}

func TestRedeliverDeadLettersAfterMaxAttempts(t *testing.T) {
	producer := &captureProducer{}
	msg := kafka.Message{
		Topic:   "order.events",
		Value:   []byte(`{}`),
		Headers: []kafka.Header{{Key: HeaderAttempt, Value: []byte(strconv.Itoa(5))}},
	}

	redeliver(context.Background(), testLogger(), producer, msg, "order.events.dlq", 5, errors.New("db down"))

	if len(producer.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(producer.messages))
	}
	if got := producer.messages[0].Topic; got != "order.events.dlq" {
		t.Fatalf("topic = %q, want dead-letter topic", got)
	}
}

type fakeDeduper struct {
	marked map[string]bool
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{marked: make(map[string]bool)}
}

func (d *fakeDeduper) Key(topic string, partition int, offset int64) string {
	return topic + ":" + strconv.Itoa(partition) + ":" + strconv.FormatInt(offset, 10)
}

func (d *fakeDeduper) EventKey(topic, eventID string) string {
	return topic + ":evt:" + eventID
}

func (d *fakeDeduper) Seen(_ context.Context, key string) (bool, error) {
	return d.marked[key], nil
}

func (d *fakeDeduper) Mark(_ context.Context, key string) error {
	d.marked[key] = true
	return nil
}

func newTestConsumer(producer Producer, idem Deduper) *Consumer {
	return &Consumer{
		log:         testLogger(),
		producer:    producer,
		idem:        idem,
		handlers:    make(map[string]EventHandler),
		dlqTopic:    "order.events.dlq",
		maxAttempts: 5,
		tracer:      otel.Tracer("test"),
	}
}

func eventMessage(eventType, eventID string, offset int64) kafka.Message {
	return kafka.Message{
		Topic:     "order.events",
		Partition: 0,
		Offset:    offset,
		Key:       []byte("u1"),
		Value:     []byte(`{}`),
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(eventType)},
			{Key: HeaderEventID, Value: []byte(eventID)},
		},
	}
}

func TestConsumerFailedHandlerGetsRetried(t *testing.T) {
	producer := &captureProducer{}
	idem := newFakeDeduper()
	c := newTestConsumer(producer, idem)

	calls := 0
	c.Handle("CartCleared", func(_ context.Context, _ []byte) error {
		calls++
		if calls == 1 {
			return errors.New("db down")
		}
		return nil
	})

	c.process(context.Background(), eventMessage("CartCleared", "41", 7))
	if calls != 1 {
		t.Fatalf("handler calls after first delivery = %d, want 1", calls)
	}
	if len(producer.messages) != 1 {
		t.Fatalf("published %d messages, want 1 republished copy", len(producer.messages))
	}
	republished := producer.messages[0]
	if got := headerValue(republished.Headers, HeaderEventID); got != "41" {
		t.Fatalf("republished event_id = %q, want 41", got)
	}
	if idem.marked["order.events:evt:41"] {
		t.Fatal("failed handler must not mark the event as applied")
	}

	// The republished copy carries the same event id at a new offset; it
	// must reach the handler, not be skipped as a duplicate.
	retry := eventMessage("CartCleared", "41", 8)
	retry.Headers = republished.Headers
	c.process(context.Background(), retry)
	if calls != 2 {
		t.Fatalf("handler calls after retry = %d, want 2", calls)
	}
	if !idem.marked["order.events:evt:41"] {
		t.Fatal("successful handler must mark the event as applied")
	}

	c.process(context.Background(), eventMessage("CartCleared", "41", 9))
	if calls != 2 {
		t.Fatalf("handler calls after duplicate = %d, want still 2", calls)
	}
}

func TestConsumerMarksOnlyAfterSuccess(t *testing.T) {
	idem := newFakeDeduper()
	c := newTestConsumer(&captureProducer{}, idem)
	c.Handle("AccountCreated", func(_ context.Context, _ []byte) error { return nil })

	c.process(context.Background(), eventMessage("AccountCreated", "12", 0))
	if !idem.marked["order.events:evt:12"] {
		t.Fatalf("marked keys = %v, want the applied event marked", idem.marked)
	}

	// Unregistered types never touch the dedup store.
	c.process(context.Background(), eventMessage("Unknown", "13", 1))
	if len(idem.marked) != 1 {
		t.Fatalf("marked keys = %v, want only the handled event", idem.marked)
	}
}

func TestRequesterReplyGroupIsPerInstance(t *testing.T) {
	brokers := []string{"localhost:9092"}
	a := NewRequester(testLogger(), brokers, "cart-service.replies", "cart-service", &captureProducer{}, time.Second)
	defer a.reader.Close()
	b := NewRequester(testLogger(), brokers, "cart-service.replies", "cart-service", &captureProducer{}, time.Second)
	defer b.reader.Close()

	ga, gb := a.reader.Config().GroupID, b.reader.Config().GroupID
	if ga == gb {
		t.Fatalf("two instances share reply group %q; replies would be split between them", ga)
	}
	if !strings.HasPrefix(ga, "cart-service-") || !strings.HasPrefix(gb, "cart-service-") {
		t.Fatalf("reply groups %q, %q should keep the service prefix", ga, gb)
	}
}

func TestAttemptOfDefaultsToOne(t *testing.T) {
	if got := attemptOf(nil); got != 1 {
		t.Fatalf("attemptOf(nil) = %d, want 1", got)
	}
	if got := attemptOf([]kafka.Header{{Key: HeaderAttempt, Value: []byte("4")}}); got != 4 {
		t.Fatalf("attemptOf = %d, want 4", got)
	}
}
