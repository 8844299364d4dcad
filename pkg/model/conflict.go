package model

import "time"

// BookingConflict records one calendar date on which an engineer is booked on
// two committed assignments at once.
type BookingConflict struct {
	ID                      string     `json:"id,omitempty" bson:"_id,omitempty"`
	EngineerID              string     `json:"engineer_id" bson:"engineer_id"`
	AssignmentID            string     `json:"assignment_id" bson:"assignment_id"`
	ConflictingAssignmentID string     `json:"conflicting_assignment_id" bson:"conflicting_assignment_id"`
	Date                    string     `json:"date" bson:"date"`
	IsResolved              bool       `json:"is_resolved" bson:"is_resolved"`
	OverrideReason          *string    `json:"override_reason,omitempty" bson:"override_reason,omitempty"`
	ResolvedBy              *string    `json:"resolved_by,omitempty" bson:"resolved_by,omitempty"`
	ResolvedAt              *time.Time `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
	CreatedAt               time.Time  `json:"created_at" bson:"created_at"`
}

// ConflictEntry is one day-granular overlap reported by conflict detection.
type ConflictEntry struct {
	AssignmentID  string        `json:"assignment_id"`
	ProjectID     string        `json:"project_id"`
	EngineerID    string        `json:"engineer_id"`
	Date          string        `json:"date"`
	BookingStatus BookingStatus `json:"booking_status"`
}

type ConflictOverride struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type ConflictCheck struct {
	EngineerID          string `json:"engineer_id" validate:"required"`
	StartDate           string `json:"start" validate:"required,datetime=2006-01-02"`
	EndDate             string `json:"end" validate:"required,datetime=2006-01-02"`
	ExcludeAssignmentID string `json:"exclude,omitempty"`
}
