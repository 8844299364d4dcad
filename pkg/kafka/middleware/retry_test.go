package kafka_middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"fieldsched/pkg/kafka"
)

func TestRetry(t *testing.T) {
	tests := []struct {
		name          string
		failures      []error
		expectedCalls int
		expectErr     bool
	}{
		{"success first try", nil, 1, false},
		{"transient then success", []error{errors.New("i/o timeout")}, 2, false},
		{"permanent is not retried", []error{errors.New("message too large")}, 1, true},
		{"gives up after max retries", []error{
			errors.New("connection reset"),
			errors.New("connection reset"),
			errors.New("connection reset"),
			errors.New("connection reset"),
		}, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			next := func(ctx context.Context, msg kafka.Message) error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			}

			err := Retry(2, time.Millisecond)(context.Background(), kafka.Message{Key: "k"}, next)
			if (err != nil) != tt.expectErr {
				t.Fatalf("expectErr=%v, got %v", tt.expectErr, err)
			}
			if calls != tt.expectedCalls {
				t.Errorf("expected %d calls, got %d", tt.expectedCalls, calls)
			}
		})
	}
}

func TestRetry_StopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	next := func(ctx context.Context, msg kafka.Message) error {
		calls++
		return errors.New("connection refused")
	}

	if err := Retry(5, time.Hour)(ctx, kafka.Message{}, next); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}
