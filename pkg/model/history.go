package model

import "time"

// StatusHistory is an append-only audit row written for every booking status
// transition of an assignment.
type StatusHistory struct {
	ID           string         `json:"id,omitempty" bson:"_id,omitempty"`
	AssignmentID string         `json:"assignment_id" bson:"assignment_id"`
	OldStatus    *BookingStatus `json:"old_status" bson:"old_status"`
	NewStatus    BookingStatus  `json:"new_status" bson:"new_status"`
	ChangedBy    string         `json:"changed_by" bson:"changed_by"`
	Note         *string        `json:"note,omitempty" bson:"note,omitempty"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
}

// NewStatusHistory builds the history row for one transition. An empty note is
// stored as absent.
func NewStatusHistory(assignmentID string, oldStatus *BookingStatus, newStatus BookingStatus, changedBy, note string, at time.Time) *StatusHistory {
	h := &StatusHistory{
		AssignmentID: assignmentID,
		OldStatus:    oldStatus,
		NewStatus:    newStatus,
		ChangedBy:    changedBy,
		CreatedAt:    at,
	}
	if note != "" {
		h.Note = &note
	}
	return h
}
