package model

import "time"

type ConfirmationRequest struct {
	ID             string             `json:"id,omitempty" bson:"_id,omitempty"`
	ProjectID      string             `json:"project_id" bson:"project_id"`
	Token          string             `json:"-" bson:"token"`
	RecipientEmail string             `json:"recipient_email" bson:"recipient_email"`
	RecipientName  string             `json:"recipient_name" bson:"recipient_name"`
	SentAt         time.Time          `json:"sent_at" bson:"sent_at"`
	ExpiresAt      time.Time          `json:"expires_at" bson:"expires_at"`
	Status         ConfirmationStatus `json:"status" bson:"status"`
	RespondedAt    *time.Time         `json:"responded_at,omitempty" bson:"responded_at,omitempty"`
	DeclineReason  *string            `json:"decline_reason,omitempty" bson:"decline_reason,omitempty"`
	CreatedBy      string             `json:"created_by" bson:"created_by"`
	CreatedByEmail string             `json:"created_by_email,omitempty" bson:"created_by_email,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

// ExpiredAt reports whether the request's deadline has passed at now.
func (c *ConfirmationRequest) ExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// TokenHint is a short, log-safe prefix of the token.
func (c *ConfirmationRequest) TokenHint() string {
	return TokenHint(c.Token)
}

func TokenHint(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}

// ConfirmationRequestAssignment pins one assignment to a confirmation request.
type ConfirmationRequestAssignment struct {
	ID           string `json:"id,omitempty" bson:"_id,omitempty"`
	RequestID    string `json:"request_id" bson:"request_id"`
	AssignmentID string `json:"assignment_id" bson:"assignment_id"`
}

type ConfirmationCreate struct {
	ProjectID      string   `json:"project_id" validate:"required"`
	AssignmentIDs  []string `json:"assignment_ids" validate:"required,min=1,max=100,dive,required"`
	RecipientEmail string   `json:"recipient_email" validate:"required,email,max=254"`
	RecipientName  string   `json:"recipient_name" validate:"required,min=1,max=200"`
	ExpiresInDays  int      `json:"expires_in_days,omitempty" validate:"omitempty,min=1,max=60"`
}

type ConfirmationResponse struct {
	Action ConfirmationAction `json:"action" validate:"required,oneof=confirm decline"`
	Reason string             `json:"reason,omitempty" validate:"omitempty,max=1000"`
}
