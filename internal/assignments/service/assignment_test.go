package service

import (
	"context"
	"testing"

	conflictsservice "fieldsched/internal/conflicts/service"
	statusservice "fieldsched/internal/status/service"
	"fieldsched/internal/testutil"
	apperrors "fieldsched/pkg/errors"
	"fieldsched/pkg/model"
	"fieldsched/pkg/validation"
)

func newTestService(t *testing.T) (AssignmentService, *testutil.Fixture) {
	t.Helper()
	f := testutil.NewFixture(t)
	cfg := testutil.Config()
	v := validation.MustNew()
	status := statusservice.NewStatusService(f.Store.Projects(), f.Store.Assignments(), f.Store.History(), f.Store.TxManager(), v, cfg)
	conflicts := conflictsservice.NewConflictService(f.Store.Conflicts(), f.Store.Assignments(), f.Store.Days(), f.Store.Projects(), v, cfg)
	svc := NewAssignmentService(
		f.Store.Assignments(),
		f.Store.Days(),
		f.Store.History(),
		f.Store.Projects(),
		f.Store.Links(),
		conflicts,
		status,
		f.Store.TxManager(),
		v,
		cfg,
	)
	return svc, f
}

func days(dates ...string) []model.DayInput {
	out := make([]model.DayInput, 0, len(dates))
	for _, d := range dates {
		out = append(out, model.DayInput{Date: d, StartTime: "07:30", EndTime: "16:00"})
	}
	return out
}

func TestCreate_ReportsConflictsWithConfirmedBooking(t *testing.T) {
	svc, f := newTestService(t)
	alpha := f.Project("Alpha", "2025-01-10", "2025-01-12")
	booked := f.Assignment(alpha.ID, "eng-1", model.StatusConfirmed, "2025-01-10", "2025-01-11", "2025-01-12")
	beta := f.Project("Beta", "2025-01-11", "2025-01-13")

	result, err := svc.Create(testutil.AsScheduler(), &model.AssignmentCreate{
		ProjectID:  beta.ID,
		EngineerID: "eng-1",
		Days:       days("2025-01-11", "2025-01-12", "2025-01-13"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Conflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %+v", result.Conflicts)
	}
	for i, want := range []string{"2025-01-11", "2025-01-12"} {
		if result.Conflicts[i].Date != want || result.Conflicts[i].AssignmentID != booked.ID {
			t.Errorf("conflict %d: unexpected %+v", i, result.Conflicts[i])
		}
	}
	if len(result.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", result.Warnings)
	}
	if result.Assignment.BookingStatus != model.StatusDraft {
		t.Errorf("expected draft, got %s", result.Assignment.BookingStatus)
	}
	if len(result.Days) != 3 || len(result.Blocks) != 1 {
		t.Errorf("expected 3 days in 1 block, got %d days and %d blocks", len(result.Days), len(result.Blocks))
	}

	stored, _ := f.Store.Conflicts().FindUnresolved(context.Background(), "eng-1")
	if len(stored) != 2 {
		t.Errorf("expected 2 stored conflicts, got %d", len(stored))
	}

	rows := f.History(result.Assignment)
	if len(rows) != 1 || rows[0].OldStatus != nil || rows[0].NewStatus != model.StatusDraft {
		t.Errorf("expected one initial history row, got %+v", rows)
	}
}

func TestCreate_GeneratesWorkingDaysFromProjectWindow(t *testing.T) {
	svc, f := newTestService(t)
	// Friday to Tuesday.
	p := f.Project("Alpha", "2025-03-07", "2025-03-11")

	result, err := svc.Create(testutil.AsScheduler(), &model.AssignmentCreate{ProjectID: p.ID, EngineerID: "eng-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []string
	for _, d := range result.Days {
		got = append(got, d.Date)
		if d.StartTime != testutil.DayStart || d.EndTime != testutil.DayEnd {
			t.Errorf("day %s: expected default hours, got %s-%s", d.Date, d.StartTime, d.EndTime)
		}
	}
	want := []string{"2025-03-07", "2025-03-10", "2025-03-11"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("day %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if len(result.Blocks) != 2 {
		t.Errorf("expected the weekend to split 2 blocks, got %d", len(result.Blocks))
	}
}

func TestCreate_IncludeWeekends(t *testing.T) {
	svc, f := newTestService(t)
	p := f.Project("Alpha", "2025-03-07", "2025-03-11")

	result, err := svc.Create(testutil.AsScheduler(), &model.AssignmentCreate{ProjectID: p.ID, EngineerID: "eng-1", IncludeWeekends: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Days) != 5 || len(result.Blocks) != 1 {
		t.Errorf("expected 5 days in 1 block, got %d days and %d blocks", len(result.Days), len(result.Blocks))
	}
}

func TestCreate_WithoutDatesOrDays(t *testing.T) {
	svc, f := newTestService(t)
	p := f.Project("Alpha", "", "")

	result, err := svc.Create(testutil.AsScheduler(), &model.AssignmentCreate{ProjectID: p.ID, EngineerID: "eng-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Days) != 0 || len(result.Blocks) != 0 {
		t.Errorf("expected no days, got %+v", result.Days)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, f := newTestService(t)
	p := f.Project("Alpha", "", "")
	pending := model.StatusPendingConfirm

	tests := []struct {
		name  string
		input *model.AssignmentCreate
	}{
		{"missing engineer", &model.AssignmentCreate{ProjectID: p.ID}},
		{"pending_confirm status", &model.AssignmentCreate{ProjectID: p.ID, EngineerID: "eng-1", BookingStatus: &pending}},
		{"end before start", &model.AssignmentCreate{ProjectID: p.ID, EngineerID: "eng-1", Days: []model.DayInput{
			{Date: "2025-01-10", StartTime: "17:00", EndTime: "08:00"},
		}}},
		{"duplicate date", &model.AssignmentCreate{ProjectID: p.ID, EngineerID: "eng-1", Days: days("2025-01-10", "2025-01-10")}},
		{"span over cap", &model.AssignmentCreate{ProjectID: p.ID, EngineerID: "eng-1", Days: days("2025-01-01", "2025-06-01")}},
		{"bad clock", &model.AssignmentCreate{ProjectID: p.ID, EngineerID: "eng-1", Days: []model.DayInput{
			{Date: "2025-01-10", StartTime: "8am", EndTime: "17:00"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(testutil.AsScheduler(), tt.input)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	all, _ := f.Store.Assignments().FindByProject(context.Background(), p.ID)
	if len(all) != 0 {
		t.Errorf("expected nothing stored, got %d assignments", len(all))
	}
}

func TestCreate_DuplicateEngineerOnProject(t *testing.T) {
	svc, f := newTestService(t)
	p := f.Project("Alpha", "", "")
	input := func() *model.AssignmentCreate {
		return &model.AssignmentCreate{ProjectID: p.ID, EngineerID: "eng-1", Days: days("2025-01-10")}
	}

	if _, err := svc.Create(testutil.AsScheduler(), input()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(testutil.AsScheduler(), input())
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	all, _ := f.Store.Assignments().FindByProject(context.Background(), p.ID)
	if len(all) != 1 {
		t.Errorf("expected 1 assignment, got %d", len(all))
	}
}

func TestCreate_UnknownProject(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(testutil.AsScheduler(), &model.AssignmentCreate{ProjectID: "64b7f0c2a1b2c3d4e5f60718", EngineerID: "eng-1"})
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCreate_RequiresElevatedActor(t *testing.T) {
	svc, f := newTestService(t)
	p := f.Project("Alpha", "", "")

	_, err := svc.Create(testutil.AsViewer(), &model.AssignmentCreate{ProjectID: p.ID, EngineerID: "eng-1"})
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestAddDay_RecordsConflict(t *testing.T) {
	svc, f := newTestService(t)
	alpha := f.Project("Alpha", "", "")
	f.Assignment(alpha.ID, "eng-1", model.StatusTentative, "2025-02-03")
	beta := f.Project("Beta", "", "")
	mine := f.Assignment(beta.ID, "eng-1", model.StatusDraft, "2025-02-04")

	result, err := svc.AddDay(testutil.AsScheduler(), mine.ID, &model.DayInput{Date: "2025-02-03", StartTime: "09:00", EndTime: "12:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Days) != 2 || len(result.Blocks) != 1 {
		t.Errorf("expected 2 days in 1 block, got %d days and %d blocks", len(result.Days), len(result.Blocks))
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Date != "2025-02-03" {
		t.Errorf("expected one conflict on 2025-02-03, got %+v", result.Conflicts)
	}

	_, err = svc.AddDay(testutil.AsScheduler(), mine.ID, &model.DayInput{Date: "2025-02-03", StartTime: "13:00", EndTime: "15:00"})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Errorf("expected conflict on duplicate day, got %v", err)
	}
	stored, _ := f.Store.Conflicts().FindUnresolved(context.Background(), "eng-1")
	if len(stored) != 1 {
		t.Errorf("failed add must not record conflicts, got %d", len(stored))
	}
}

func TestUpdateDayAndRemoveDay(t *testing.T) {
	svc, f := newTestService(t)
	p := f.Project("Alpha", "", "")
	a := f.Assignment(p.ID, "eng-1", model.StatusDraft, "2025-02-03", "2025-02-04")

	result, err := svc.UpdateDay(testutil.AsScheduler(), a.ID, "2025-02-04", &model.DayTimes{StartTime: "10:00", EndTime: "14:00"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if d := result.Days[1]; d.StartTime != "10:00" || d.EndTime != "14:00" {
		t.Errorf("unexpected updated day %+v", d)
	}

	_, err = svc.UpdateDay(testutil.AsScheduler(), a.ID, "2025-02-09", &model.DayTimes{StartTime: "10:00", EndTime: "14:00"})
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected not found for missing day, got %v", err)
	}

	if err := svc.RemoveDay(testutil.AsScheduler(), a.ID, "2025-02-03"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	detail, err := svc.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(detail.Days) != 1 || detail.Days[0].Date != "2025-02-04" {
		t.Errorf("unexpected days after removal: %+v", detail.Days)
	}
}

func TestDelete_KeepsHistory(t *testing.T) {
	svc, f := newTestService(t)
	p := f.Project("Alpha", "", "")
	result, err := svc.Create(testutil.AsScheduler(), &model.AssignmentCreate{ProjectID: p.ID, EngineerID: "eng-1", Days: days("2025-02-03")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	a := result.Assignment

	if err := svc.Delete(testutil.AsScheduler(), a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), a.ID); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	left, _ := f.Store.Days().FindByAssignment(context.Background(), a.ID)
	if len(left) != 0 {
		t.Errorf("expected days removed, got %d", len(left))
	}
	if n := len(f.History(a)); n != 1 {
		t.Errorf("expected history kept, got %d rows", n)
	}
}

func TestEngineerTimeline(t *testing.T) {
	svc, f := newTestService(t)
	alpha := f.Project("Alpha", "", "")
	beta := f.Project("Beta", "", "")
	late := f.Assignment(alpha.ID, "eng-1", model.StatusConfirmed, "2025-02-10", "2025-02-11", "2025-02-13")
	early := f.Assignment(beta.ID, "eng-1", model.StatusTentative, "2025-02-03")
	f.Assignment(beta.ID, "eng-2", model.StatusTentative, "2025-02-04")

	tl, err := svc.EngineerTimeline(context.Background(), "eng-1", "2025-02-01", "2025-02-28")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tl.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(tl.Entries))
	}
	if tl.Entries[0].AssignmentID != early.ID || tl.Entries[1].AssignmentID != late.ID {
		t.Errorf("entries not ordered by first day: %+v", tl.Entries)
	}
	if len(tl.Entries[1].Blocks) != 2 {
		t.Errorf("expected 2 blocks for the gapped assignment, got %d", len(tl.Entries[1].Blocks))
	}
	if tl.Entries[1].Project == nil || tl.Entries[1].Project.Name != "Alpha" {
		t.Errorf("expected project reference, got %+v", tl.Entries[1].Project)
	}

	if _, err := svc.EngineerTimeline(context.Background(), "eng-1", "2025-02-28", "2025-02-01"); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input for reversed range, got %v", err)
	}
}
