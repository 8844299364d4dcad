package model

import "time"

type Project struct {
	ID             string         `json:"id,omitempty" bson:"_id,omitempty"`
	Name           string         `json:"name" bson:"name" validate:"required,min=2,max=200"`
	ClientName     string         `json:"client_name" bson:"client_name" validate:"required,min=2,max=200"`
	StartDate      *string        `json:"start_date,omitempty" bson:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate        *string        `json:"end_date,omitempty" bson:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ScheduleStatus *BookingStatus `json:"schedule_status,omitempty" bson:"schedule_status,omitempty"`
	CreatedBy      string         `json:"created_by,omitempty" bson:"created_by"`
	CreatedAt      time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" bson:"updated_at"`
}

// HasDates reports whether both the start and end date are set, which is the
// precondition for any schedule status change.
func (p *Project) HasDates() bool {
	return p.StartDate != nil && *p.StartDate != "" && p.EndDate != nil && *p.EndDate != ""
}

type ProjectCreate struct {
	Name       string  `json:"name" validate:"required,min=2,max=200"`
	ClientName string  `json:"client_name" validate:"required,min=2,max=200"`
	StartDate  *string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate    *string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type ProjectDates struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// ProjectStatusUpdate is the operator request for a project-level schedule
// status change with an optional cascade to some or all of its assignments.
type ProjectStatusUpdate struct {
	Status        BookingStatus `json:"status" validate:"required,booking_status"`
	Cascade       bool          `json:"cascade"`
	AssignmentIDs []string      `json:"assignment_ids,omitempty" validate:"omitempty,dive,required"`
	Note          string        `json:"note,omitempty" validate:"omitempty,max=500"`
}
