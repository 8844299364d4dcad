package model

import "time"

type Assignment struct {
	ID            string        `json:"id,omitempty" bson:"_id,omitempty"`
	ProjectID     string        `json:"project_id" bson:"project_id"`
	EngineerID    string        `json:"engineer_id" bson:"engineer_id"`
	EngineerName  string        `json:"engineer_name,omitempty" bson:"engineer_name,omitempty"`
	BookingStatus BookingStatus `json:"booking_status" bson:"booking_status"`
	CreatedBy     string        `json:"created_by,omitempty" bson:"created_by"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" bson:"updated_at"`
}

// AssignmentDay is one scheduled working day of an assignment. EngineerID and
// ProjectID are copied from the parent assignment so overlap lookups can run
// against this collection alone.
type AssignmentDay struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty"`
	AssignmentID string    `json:"assignment_id" bson:"assignment_id"`
	EngineerID   string    `json:"engineer_id" bson:"engineer_id"`
	ProjectID    string    `json:"project_id" bson:"project_id"`
	Date         string    `json:"date" bson:"date"`
	StartTime    string    `json:"start_time" bson:"start_time"`
	EndTime      string    `json:"end_time" bson:"end_time"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

type DayInput struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
}

type DayTimes struct {
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
}

type AssignmentCreate struct {
	ProjectID       string         `json:"project_id" validate:"required"`
	EngineerID      string         `json:"engineer_id" validate:"required,max=100"`
	EngineerName    string         `json:"engineer_name,omitempty" validate:"omitempty,max=200"`
	BookingStatus   *BookingStatus `json:"booking_status,omitempty" validate:"omitempty,booking_status"`
	Days            []DayInput     `json:"days,omitempty" validate:"omitempty,max=366,dive"`
	IncludeWeekends bool           `json:"include_weekends"`
}

type BulkStatusUpdate struct {
	AssignmentIDs []string      `json:"assignment_ids" validate:"required,min=1,max=500,dive,required"`
	Status        BookingStatus `json:"status" validate:"required,booking_status"`
}
