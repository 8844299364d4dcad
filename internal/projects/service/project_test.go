package service

import (
	"context"
	"errors"
	"testing"
	"time"

	confirmationserrors "fieldsched/internal/confirmations/errors"
	"fieldsched/internal/memstore"
	"fieldsched/internal/testutil"
	apperrors "fieldsched/pkg/errors"
	"fieldsched/pkg/model"
	"fieldsched/pkg/validation"
)

func newTestService(t *testing.T) (ProjectService, *testutil.Fixture) {
	t.Helper()
	f := testutil.NewFixture(t)
	s := f.Store
	svc := NewProjectService(
		s.Projects(),
		s.Assignments(),
		s.Days(),
		s.History(),
		s.Requests(),
		s.Links(),
		s.TxManager(),
		validation.MustNew(),
		testutil.Config(),
	)
	return svc, f
}

func strPtr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t)

	p, err := svc.Create(testutil.AsScheduler(), &model.ProjectCreate{
		Name:       "  Harbour Substation  ",
		ClientName: "Northgrid",
		StartDate:  strPtr("2025-04-01"),
		EndDate:    strPtr("2025-04-18"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == "" {
		t.Error("expected an id")
	}
	if p.Name != "Harbour Substation" {
		t.Errorf("expected trimmed name, got %q", p.Name)
	}
	if p.CreatedBy != testutil.Scheduler.Email {
		t.Errorf("expected creator %s, got %s", testutil.Scheduler.Email, p.CreatedBy)
	}

	got, err := svc.GetByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *got.StartDate != "2025-04-01" || *got.EndDate != "2025-04-18" {
		t.Errorf("unexpected window %s..%s", *got.StartDate, *got.EndDate)
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input model.ProjectCreate
	}{
		{"short name", model.ProjectCreate{Name: "A", ClientName: "Northgrid"}},
		{"missing client", model.ProjectCreate{Name: "Harbour"}},
		{"start without end", model.ProjectCreate{Name: "Harbour", ClientName: "Northgrid", StartDate: strPtr("2025-04-01")}},
		{"end before start", model.ProjectCreate{Name: "Harbour", ClientName: "Northgrid", StartDate: strPtr("2025-04-10"), EndDate: strPtr("2025-04-01")}},
		{"malformed date", model.ProjectCreate{Name: "Harbour", ClientName: "Northgrid", StartDate: strPtr("01/04/2025"), EndDate: strPtr("2025-04-10")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			input := tt.input
			_, err := svc.Create(testutil.AsScheduler(), &input)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreate_RequiresElevatedRole(t *testing.T) {
	svc, _ := newTestService(t)
	input := &model.ProjectCreate{Name: "Harbour", ClientName: "Northgrid"}

	if _, err := svc.Create(context.Background(), input); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
	if _, err := svc.Create(testutil.AsViewer(), input); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestGetByID_Errors(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.GetByID(context.Background(), ""); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("empty id: expected invalid input, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), "not-an-id"); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("bad id: expected invalid input, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), "65f0c0ffee0000000000beef"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("unknown id: expected not found, got %v", err)
	}
}

func TestSetDates(t *testing.T) {
	svc, f := newTestService(t)
	p := f.Project("Harbour", "", "")

	got, err := svc.SetDates(testutil.AsScheduler(), p.ID, &model.ProjectDates{StartDate: "2025-05-05", EndDate: "2025-05-09"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.HasDates() || *got.EndDate != "2025-05-09" {
		t.Errorf("expected dates set, got %+v", got)
	}

	_, err = svc.SetDates(testutil.AsScheduler(), p.ID, &model.ProjectDates{StartDate: "2025-05-09", EndDate: "2025-05-05"})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	_, err = svc.SetDates(testutil.AsScheduler(), "65f0c0ffee0000000000beef", &model.ProjectDates{StartDate: "2025-05-05", EndDate: "2025-05-09"})
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDelete_Cascade(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()
	s := f.Store

	p := f.Project("Harbour", "2025-06-02", "2025-06-06")
	a := f.Assignment(p.ID, "eng-1", model.StatusConfirmed, "2025-06-02", "2025-06-03")
	other := f.Project("Quarry", "2025-06-02", "2025-06-06")
	b := f.Assignment(other.ID, "eng-1", model.StatusConfirmed, "2025-06-02")

	if err := s.History().InsertMany(ctx, []*model.StatusHistory{
		model.NewStatusHistory(a.ID, nil, model.StatusConfirmed, "planner@example.com", "", time.Now()),
		model.NewStatusHistory(b.ID, nil, model.StatusConfirmed, "planner@example.com", "", time.Now()),
	}); err != nil {
		t.Fatalf("seed history: %v", err)
	}
	req := &model.ConfirmationRequest{ProjectID: p.ID, Token: "tok-1", Status: model.ConfirmationPending}
	if err := s.Requests().Create(ctx, req); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	if err := s.Links().CreateMany(ctx, []*model.ConfirmationRequestAssignment{{RequestID: req.ID, AssignmentID: a.ID}}); err != nil {
		t.Fatalf("seed links: %v", err)
	}
	if err := s.Conflicts().CreateMany(ctx, []*model.BookingConflict{{
		EngineerID: "eng-1", AssignmentID: a.ID, ConflictingAssignmentID: b.ID, Date: "2025-06-02",
	}}); err != nil {
		t.Fatalf("seed conflict: %v", err)
	}

	if err := svc.Delete(testutil.AsScheduler(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.GetByID(ctx, p.ID); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected project gone, got %v", err)
	}
	if remaining, _ := s.Assignments().FindByProject(ctx, p.ID); len(remaining) != 0 {
		t.Errorf("expected assignments removed, got %d", len(remaining))
	}
	if days, _ := s.Days().FindByAssignment(ctx, a.ID); len(days) != 0 {
		t.Errorf("expected days removed, got %d", len(days))
	}
	if n := len(f.History(a)); n != 0 {
		t.Errorf("expected history removed, got %d", n)
	}
	if _, err := s.Requests().FindByID(ctx, req.ID); !errors.Is(err, confirmationserrors.ErrNotFound) {
		t.Errorf("expected request removed, got %v", err)
	}
	if links, _ := s.Links().FindByRequest(ctx, req.ID); len(links) != 0 {
		t.Errorf("expected links removed, got %d", len(links))
	}
	if conflicts, _ := s.Conflicts().FindUnresolved(ctx, "eng-1"); len(conflicts) != 1 {
		t.Errorf("expected conflict kept, got %d", len(conflicts))
	}

	if got := f.Reload(b); got.BookingStatus != model.StatusConfirmed {
		t.Errorf("other project touched: %+v", got)
	}
	if n := len(f.History(b)); n != 1 {
		t.Errorf("expected other history kept, got %d", n)
	}
}

func TestDelete_RollsBackOnFailure(t *testing.T) {
	svc, f := newTestService(t)
	p := f.Project("Harbour", "", "")
	a := f.Assignment(p.ID, "eng-1", model.StatusTentative, "2025-06-02")
	f.Store.FailNext(memstore.OpAssignmentDelete, errors.New("disk full"))

	err := svc.Delete(testutil.AsScheduler(), p.ID)
	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if days, _ := f.Store.Days().FindByAssignment(context.Background(), a.ID); len(days) != 1 {
		t.Errorf("expected days restored, got %d", len(days))
	}
	f.Reload(a)
}

func TestDelete_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Delete(testutil.AsScheduler(), "65f0c0ffee0000000000beef")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
