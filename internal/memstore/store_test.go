package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	assignmentserrors "fieldsched/internal/assignments/errors"
	confirmationserrors "fieldsched/internal/confirmations/errors"
	conflictserrors "fieldsched/internal/conflicts/errors"
	projectserrors "fieldsched/internal/projects/errors"
	"fieldsched/pkg/model"
)

func seedProject(t *testing.T, s *Store) *model.Project {
	t.Helper()
	p := &model.Project{Name: "Harbour", ClientName: "Northgrid"}
	if err := s.Projects().Create(context.Background(), p); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func TestTransaction_RollsBackEveryCollection(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProject(t, s)
	boom := errors.New("boom")

	err := s.TxManager().ExecuteTransaction(ctx, func(ctx context.Context) error {
		a := &model.Assignment{ProjectID: p.ID, EngineerID: "eng-1", BookingStatus: model.StatusDraft}
		if err := s.Assignments().Create(ctx, a); err != nil {
			return err
		}
		if err := s.Days().CreateMany(ctx, []*model.AssignmentDay{{AssignmentID: a.ID, Date: "2025-01-06"}}); err != nil {
			return err
		}
		if err := s.Projects().UpdateDates(ctx, p.ID, "2025-01-06", "2025-01-10"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if got, _ := s.Assignments().FindByProject(ctx, p.ID); len(got) != 0 {
		t.Errorf("expected no assignments, got %d", len(got))
	}
	got, err := s.Projects().FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("find project: %v", err)
	}
	if got.HasDates() {
		t.Errorf("expected dates rolled back, got %v..%v", *got.StartDate, *got.EndDate)
	}
}

func TestTransaction_NestedJoinsOuter(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProject(t, s)
	tx := s.TxManager()

	err := tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
			return s.Assignments().Create(ctx, &model.Assignment{ProjectID: p.ID, EngineerID: "eng-1"})
		}); err != nil {
			return err
		}
		return errors.New("outer failed")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if got, _ := s.Assignments().FindByProject(ctx, p.ID); len(got) != 0 {
		t.Errorf("inner write survived outer rollback: %d", len(got))
	}
}

func TestFailNext_IsOneShot(t *testing.T) {
	s := New()
	ctx := context.Background()
	disk := errors.New("disk full")
	s.FailNext(OpProjectCreate, disk)

	if err := s.Projects().Create(ctx, &model.Project{Name: "Harbour"}); !errors.Is(err, disk) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if err := s.Projects().Create(ctx, &model.Project{Name: "Harbour"}); err != nil {
		t.Errorf("expected second call to succeed, got %v", err)
	}
}

func TestUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProject(t, s)

	a := &model.Assignment{ProjectID: p.ID, EngineerID: "eng-1"}
	if err := s.Assignments().Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Assignments().Create(ctx, &model.Assignment{ProjectID: p.ID, EngineerID: "eng-1"}); !errors.Is(err, assignmentserrors.ErrDuplicate) {
		t.Errorf("expected duplicate assignment, got %v", err)
	}

	days := []*model.AssignmentDay{{AssignmentID: a.ID, Date: "2025-01-06"}, {AssignmentID: a.ID, Date: "2025-01-06"}}
	if err := s.Days().CreateMany(ctx, days); !errors.Is(err, assignmentserrors.ErrDuplicateDay) {
		t.Errorf("expected duplicate day, got %v", err)
	}
	if got, _ := s.Days().FindByAssignment(ctx, a.ID); len(got) != 0 {
		t.Errorf("rejected batch must not be partially written, got %d", len(got))
	}

	r := &model.ConfirmationRequest{ProjectID: p.ID, Token: "abc", Status: model.ConfirmationPending}
	if err := s.Requests().Create(ctx, r); err != nil {
		t.Fatalf("create request: %v", err)
	}
	if err := s.Requests().Create(ctx, &model.ConfirmationRequest{ProjectID: p.ID, Token: "abc"}); !errors.Is(err, confirmationserrors.ErrDuplicate) {
		t.Errorf("expected duplicate token, got %v", err)
	}
}

func TestRequestTransitions_OnlyFromPending(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProject(t, s)
	r := &model.ConfirmationRequest{ProjectID: p.ID, Token: "abc", Status: model.ConfirmationPending}
	if err := s.Requests().Create(ctx, r); err != nil {
		t.Fatalf("create request: %v", err)
	}

	reason := "weather"
	at := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	if err := s.Requests().MarkResponded(ctx, r.ID, model.ConfirmationDeclined, at, &reason); err != nil {
		t.Fatalf("mark responded: %v", err)
	}
	if err := s.Requests().MarkResponded(ctx, r.ID, model.ConfirmationConfirmed, at, nil); !errors.Is(err, confirmationserrors.ErrNotPending) {
		t.Errorf("expected not pending, got %v", err)
	}
	if err := s.Requests().MarkExpired(ctx, r.ID); !errors.Is(err, confirmationserrors.ErrNotPending) {
		t.Errorf("expected not pending, got %v", err)
	}
	if err := s.Requests().Delete(ctx, r.ID); !errors.Is(err, confirmationserrors.ErrNotPending) {
		t.Errorf("expected not pending, got %v", err)
	}

	got, _ := s.Requests().FindByToken(ctx, "abc")
	if got.Status != model.ConfirmationDeclined || *got.DeclineReason != "weather" || !got.RespondedAt.Equal(at) {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestConflictMarkResolved(t *testing.T) {
	s := New()
	ctx := context.Background()
	c := &model.BookingConflict{EngineerID: "eng-1", AssignmentID: "a", ConflictingAssignmentID: "b", Date: "2025-01-06"}
	if err := s.Conflicts().CreateMany(ctx, []*model.BookingConflict{c}); err != nil {
		t.Fatalf("create conflict: %v", err)
	}

	at := time.Now()
	if err := s.Conflicts().MarkResolved(ctx, c.ID, "approved overtime", "planner@example.com", at); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := s.Conflicts().MarkResolved(ctx, c.ID, "again", "planner@example.com", at); !errors.Is(err, conflictserrors.ErrAlreadyResolved) {
		t.Errorf("expected already resolved, got %v", err)
	}
	if open, _ := s.Conflicts().FindUnresolved(ctx, ""); len(open) != 0 {
		t.Errorf("expected no open conflicts, got %d", len(open))
	}
}

func TestInvalidIDs(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Projects().FindByID(ctx, "nope"); !errors.Is(err, projectserrors.ErrInvalidID) {
		t.Errorf("projects: expected invalid id, got %v", err)
	}
	if _, err := s.Assignments().FindByID(ctx, "nope"); !errors.Is(err, assignmentserrors.ErrInvalidID) {
		t.Errorf("assignments: expected invalid id, got %v", err)
	}
	if _, err := s.Conflicts().FindByID(ctx, "nope"); !errors.Is(err, conflictserrors.ErrInvalidID) {
		t.Errorf("conflicts: expected invalid id, got %v", err)
	}
	if _, err := s.Projects().FindByID(ctx, "65f0c0ffee0000000000beef"); !errors.Is(err, projectserrors.ErrNotFound) {
		t.Errorf("projects: expected not found, got %v", err)
	}
}

func TestWithClock(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.UTC)
	s := New(WithClock(func() time.Time { return at }))
	p := seedProject(t, s)

	if !p.CreatedAt.Equal(at.Truncate(time.Millisecond)) {
		t.Errorf("expected created_at %s, got %s", at.Truncate(time.Millisecond), p.CreatedAt)
	}
}
