package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func buildMessage(t *testing.T) Message {
	t.Helper()
	msg, err := NewMessage().
		WithKey("customer@example.com").
		WithEventType("email.requested").
		WithValue(map[string]string{"subject": "hello"}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return msg
}

func TestProducer_Publish(t *testing.T) {
	writer := &fakeWriter{}
	p := NewProducerWithWriters("notifications.email", writer, nil)

	var seenTopic string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		seenTopic = msg.Topic
		return next(ctx, msg)
	})

	if err := p.Publish(context.Background(), buildMessage(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(writer.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(writer.messages))
	}
	if seenTopic != "notifications.email" {
		t.Errorf("middleware saw topic %q", seenTopic)
	}
	written := writer.messages[0]
	if string(written.Key) != "customer@example.com" {
		t.Errorf("unexpected key %s", written.Key)
	}
	if header(written, HeaderEventID) == "" {
		t.Error("event id header missing")
	}
	if header(written, HeaderEventType) != "email.requested" {
		t.Error("event type header missing")
	}
}

func TestProducer_RejectsInvalidMessages(t *testing.T) {
	p := NewProducerWithWriters("t", &fakeWriter{}, nil)

	if err := p.Publish(context.Background(), Message{Value: []byte("x")}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := p.Publish(context.Background(), Message{Key: "k"}); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("expected ErrEmptyValue, got %v", err)
	}
}

func TestProducer_PermanentFailureGoesToDLQ(t *testing.T) {
	writer := &fakeWriter{err: errors.New("unknown topic or partition")}
	dlq := &fakeWriter{}
	p := NewProducerWithWriters("notifications.email", writer, dlq)

	if err := p.Publish(context.Background(), buildMessage(t)); err == nil {
		t.Fatal("expected original error to surface")
	}
	if len(dlq.messages) != 1 {
		t.Fatalf("expected message on DLQ, got %d", len(dlq.messages))
	}
	if header(dlq.messages[0], HeaderOriginalTopic) != "notifications.email" {
		t.Error("DLQ message lacks original topic header")
	}
}

func TestProducer_TransientFailureSkipsDLQ(t *testing.T) {
	writer := &fakeWriter{err: errors.New("dial tcp: connection refused")}
	dlq := &fakeWriter{}
	p := NewProducerWithWriters("t", writer, dlq)

	_ = p.Publish(context.Background(), buildMessage(t))
	if len(dlq.messages) != 0 {
		t.Error("transient failures must not be dead-lettered")
	}
}

func TestProducer_Closed(t *testing.T) {
	writer := &fakeWriter{}
	p := NewProducerWithWriters("t", writer, nil)
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !writer.closed {
		t.Error("writer not closed")
	}
	if err := p.Publish(context.Background(), buildMessage(t)); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("expected ErrProducerClosed, got %v", err)
	}
}

func TestMessageBuilder_InvalidValue(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"deadline", context.DeadlineExceeded, ErrorTypeTransient},
		{"connection refused", errors.New("dial tcp 10.0.0.1:9092: connection refused"), ErrorTypeTransient},
		{"canceled", context.Canceled, ErrorTypePermanent},
		{"unknown", errors.New("message too large"), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
