package model

import (
	"time"

	"fieldsched/pkg/timeline"
)

// TimelineDays converts stored days into the compactor's input shape.
func TimelineDays(days []*AssignmentDay) []timeline.Day {
	out := make([]timeline.Day, 0, len(days))
	for _, d := range days {
		out = append(out, timeline.Day{Date: d.Date, StartTime: d.StartTime, EndTime: d.EndTime})
	}
	return out
}

type AssignmentDetail struct {
	Assignment *Assignment       `json:"assignment"`
	Days       []*AssignmentDay  `json:"days"`
	Blocks     []timeline.Block  `json:"blocks"`
	Conflicts  []ConflictEntry   `json:"conflicts,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
	Project    *ProjectReference `json:"project,omitempty"`
}

type ProjectReference struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ClientName string `json:"client_name"`
}

func NewProjectReference(p *Project) *ProjectReference {
	if p == nil {
		return nil
	}
	return &ProjectReference{ID: p.ID, Name: p.Name, ClientName: p.ClientName}
}

type TimelineEntry struct {
	AssignmentID  string            `json:"assignment_id"`
	Project       *ProjectReference `json:"project"`
	BookingStatus BookingStatus     `json:"booking_status"`
	Blocks        []timeline.Block  `json:"blocks"`
}

type EngineerTimeline struct {
	EngineerID string          `json:"engineer_id"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	Entries    []TimelineEntry `json:"entries"`
}

// AssignmentSummary is the slice of an assignment shown next to a conflict.
type AssignmentSummary struct {
	ID            string            `json:"id"`
	EngineerName  string            `json:"engineer_name,omitempty"`
	BookingStatus BookingStatus     `json:"booking_status"`
	Project       *ProjectReference `json:"project,omitempty"`
}

type ConflictView struct {
	ID                    string             `json:"id"`
	EngineerID            string             `json:"engineer_id"`
	Date                  string             `json:"date"`
	CreatedAt             time.Time          `json:"created_at"`
	Assignment            *AssignmentSummary `json:"assignment"`
	ConflictingAssignment *AssignmentSummary `json:"conflicting_assignment"`
}

type ProjectStatusResult struct {
	ProjectID      string         `json:"project_id"`
	PreviousStatus *BookingStatus `json:"previous_status"`
	NewStatus      BookingStatus  `json:"new_status"`
	UpdatedCount   int            `json:"updated_count"`
}

type BulkStatusResult struct {
	Status       BookingStatus `json:"status"`
	UpdatedCount int           `json:"updated_count"`
	SkippedCount int           `json:"skipped_count"`
	UpdatedIDs   []string      `json:"updated_ids"`
	SkippedIDs   []string      `json:"skipped_ids,omitempty"`
}

type CycleResult struct {
	AssignmentID   string        `json:"assignment_id"`
	PreviousStatus BookingStatus `json:"previous_status"`
	NewStatus      BookingStatus `json:"new_status"`
}

type CreateConfirmationResult struct {
	Request    *ConfirmationRequest `json:"request"`
	Link       string               `json:"link"`
	EmailSent  bool                 `json:"email_sent"`
	EmailError string               `json:"email_error,omitempty"`
}

type ConfirmationResponseResult struct {
	Status        ConfirmationStatus `json:"status"`
	AssignmentIDs []string           `json:"assignment_ids"`
	BookingStatus BookingStatus      `json:"booking_status"`
}

type PreviousResponse struct {
	Status        ConfirmationStatus `json:"status"`
	RespondedAt   *time.Time         `json:"responded_at,omitempty"`
	DeclineReason *string            `json:"decline_reason,omitempty"`
}

// PublicDay is what the customer sees for one scheduled day.
type PublicDay struct {
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	EngineerName string `json:"engineer_name,omitempty"`
}

type PublicConfirmationView struct {
	ProjectName      string            `json:"project_name"`
	CustomerName     string            `json:"customer_name"`
	Dates            []PublicDay       `json:"dates"`
	Blocks           []timeline.Block  `json:"blocks"`
	ExpiresAt        time.Time         `json:"expires_at"`
	IsExpired        bool              `json:"is_expired"`
	IsResponded      bool              `json:"is_responded"`
	PreviousResponse *PreviousResponse `json:"previous_response,omitempty"`
}
