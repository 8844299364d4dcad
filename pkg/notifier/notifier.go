// Package notifier hands outbound email to the delivery pipeline. Delivery
// itself happens elsewhere; a nil error only means the email was accepted.
package notifier

import (
	"context"
	"errors"
	"strings"
)

var ErrInvalidEmail = errors.New("email requires a recipient and a subject")

type Email struct {
	To       string `json:"to"`
	ToName   string `json:"to_name,omitempty"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	// Reference ties the email to the record that triggered it, e.g. a
	// confirmation request id.
	Reference string `json:"reference,omitempty"`
}

func (e Email) Validate() error {
	if strings.TrimSpace(e.To) == "" || strings.TrimSpace(e.Subject) == "" {
		return ErrInvalidEmail
	}
	return nil
}

type Notifier interface {
	SendEmail(ctx context.Context, email Email) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, email Email) error

func (f Func) SendEmail(ctx context.Context, email Email) error {
	return f(ctx, email)
}
