package notifier

import (
	"context"

	"fieldsched/pkg/logger"
)

// LogNotifier writes emails to the log instead of sending them. For local
// development without a broker.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendEmail(_ context.Context, email Email) error {
	if err := email.Validate(); err != nil {
		return err
	}
	n.log.Info("Email (not sent)",
		"to", email.To,
		"subject", email.Subject,
		"reference", email.Reference,
		"body_bytes", len(email.HTMLBody),
	)
	return nil
}
