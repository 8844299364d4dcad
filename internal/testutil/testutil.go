// Package testutil seeds an in-memory store for service and handler tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"fieldsched/internal/memstore"
	"fieldsched/pkg/auth"
	"fieldsched/pkg/config"
	"fieldsched/pkg/logger"
	"fieldsched/pkg/model"
	"fieldsched/pkg/notifier"
)

const (
	DayStart      = "08:00"
	DayEnd        = "17:00"
	PublicBaseURL = "https://schedule.example.com"
)

func Config() *config.Config {
	return &config.Config{
		Log:                   logger.Discard(),
		ConfirmationTTL:       7 * 24 * time.Hour,
		PublicBaseURL:         PublicBaseURL,
		NotifyTimeout:         time.Second,
		DefaultDayStart:       DayStart,
		DefaultDayEnd:         DayEnd,
		MaxAssignmentSpanDays: 90,
		MongoQueryTimeout:     5 * time.Second,
	}
}

var (
	Scheduler = &auth.Actor{ID: "op-1", Email: "planner@example.com", Role: auth.RoleScheduler}
	Viewer    = &auth.Actor{ID: "op-2", Email: "viewer@example.com", Role: auth.RoleViewer}
)

// AsScheduler returns a context carrying an actor allowed to mutate schedules.
func AsScheduler() context.Context {
	return auth.WithActor(context.Background(), Scheduler)
}

func AsViewer() context.Context {
	return auth.WithActor(context.Background(), Viewer)
}

type Fixture struct {
	t     testing.TB
	Store *memstore.Store
}

func NewFixture(t testing.TB) *Fixture {
	t.Helper()
	return &Fixture{t: t, Store: memstore.New()}
}

// Project stores a project. Empty dates leave the window unset.
func (f *Fixture) Project(name, start, end string) *model.Project {
	f.t.Helper()
	p := &model.Project{Name: name, ClientName: name + " Ltd", CreatedBy: Scheduler.Email}
	if start != "" {
		p.StartDate = &start
		p.EndDate = &end
	}
	if err := f.Store.Projects().Create(context.Background(), p); err != nil {
		f.t.Fatalf("seed project: %v", err)
	}
	return p
}

// Assignment stores an assignment at status with one default-hours day per
// date. No history or conflicts are written.
func (f *Fixture) Assignment(projectID, engineerID string, status model.BookingStatus, dates ...string) *model.Assignment {
	f.t.Helper()
	ctx := context.Background()
	a := &model.Assignment{
		ProjectID:     projectID,
		EngineerID:    engineerID,
		EngineerName:  "Engineer " + engineerID,
		BookingStatus: status,
		CreatedBy:     Scheduler.Email,
	}
	if err := f.Store.Assignments().Create(ctx, a); err != nil {
		f.t.Fatalf("seed assignment: %v", err)
	}
	if len(dates) == 0 {
		return a
	}

	days := make([]*model.AssignmentDay, 0, len(dates))
	for _, d := range dates {
		days = append(days, &model.AssignmentDay{
			AssignmentID: a.ID,
			EngineerID:   engineerID,
			ProjectID:    projectID,
			Date:         d,
			StartTime:    DayStart,
			EndTime:      DayEnd,
		})
	}
	if err := f.Store.Days().CreateMany(ctx, days); err != nil {
		f.t.Fatalf("seed days: %v", err)
	}
	return a
}

// Reload fetches the stored copy of an assignment.
func (f *Fixture) Reload(a *model.Assignment) *model.Assignment {
	f.t.Helper()
	got, err := f.Store.Assignments().FindByID(context.Background(), a.ID)
	if err != nil {
		f.t.Fatalf("reload assignment %s: %v", a.ID, err)
	}
	return got
}

func (f *Fixture) History(a *model.Assignment) []*model.StatusHistory {
	f.t.Helper()
	rows, err := f.Store.History().FindByAssignment(context.Background(), a.ID)
	if err != nil {
		f.t.Fatalf("load history %s: %v", a.ID, err)
	}
	return rows
}

// Outbox is a notifier that records every email and can be told to fail.
type Outbox struct {
	mu     sync.Mutex
	Emails []notifier.Email
	Err    error
}

func (o *Outbox) SendEmail(_ context.Context, email notifier.Email) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.Emails = append(o.Emails, email)
	return nil
}

func (o *Outbox) Sent() []notifier.Email {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]notifier.Email, len(o.Emails))
	copy(out, o.Emails)
	return out
}
