package kafka_middleware

import (
	"context"
	"time"

	"fieldsched/pkg/kafka"
)

// Retry re-attempts publishes that fail with a transient error, waiting
// backoff*attempt between tries. It gives up early when ctx is done.
func Retry(maxRetries int, backoff time.Duration) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		err := next(ctx, msg)
		for attempt := 1; kafka.ShouldRetry(err, attempt-1, maxRetries); attempt++ {
			timer := time.NewTimer(backoff * time.Duration(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
			err = next(ctx, msg)
		}
		return err
	}
}
