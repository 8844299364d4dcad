package notifier

import (
	"context"
	"fmt"
	"time"

	"fieldsched/pkg/kafka"
	"fieldsched/pkg/logger"
)

const (
	EventEmailRequested = "email.requested"
	emailSchemaVersion  = "1"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type emailEvent struct {
	Email
	FromName    string    `json:"from_name,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// KafkaNotifier publishes an email.requested event that the mailer consumes.
type KafkaNotifier struct {
	publisher Publisher
	source    string
	fromName  string
	log       *logger.Logger
}

func NewKafkaNotifier(publisher Publisher, source, fromName string, log *logger.Logger) *KafkaNotifier {
	return &KafkaNotifier{publisher: publisher, source: source, fromName: fromName, log: log}
}

func (n *KafkaNotifier) SendEmail(ctx context.Context, email Email) error {
	if err := email.Validate(); err != nil {
		return err
	}

	msg, err := kafka.NewMessage().
		WithKey(email.To).
		WithEventType(EventEmailRequested).
		WithSchemaVersion(emailSchemaVersion).
		WithSource(n.source).
		WithCorrelationID(email.Reference).
		WithValue(emailEvent{Email: email, FromName: n.fromName, RequestedAt: time.Now().UTC()}).
		Build()
	if err != nil {
		return fmt.Errorf("build email event: %w", err)
	}

	if err := n.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish email event: %w", err)
	}

	n.log.Info("Email queued",
		"event_id", msg.GetEventID(),
		"reference", email.Reference,
		"subject", email.Subject,
	)
	return nil
}
