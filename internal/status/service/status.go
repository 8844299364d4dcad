package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	assignmentserrors "fieldsched/internal/assignments/errors"
	assignmentsrepo "fieldsched/internal/assignments/repository"
	projectserrors "fieldsched/internal/projects/errors"
	projectsrepo "fieldsched/internal/projects/repository"
	"fieldsched/pkg/auth"
	"fieldsched/pkg/config"
	mongotx "fieldsched/pkg/db/mongo"
	apperrors "fieldsched/pkg/errors"
	"fieldsched/pkg/model"
	"fieldsched/pkg/sanitizer"
	"fieldsched/pkg/validation"
)

// CycleNote marks history rows written by click-cycling.
const CycleNote = "Status cycled"

type StatusService interface {
	// Apply moves every given assignment to newStatus in one bulk write and
	// appends one history row per assignment with its own prior status. It
	// does not open a transaction; callers run it inside theirs.
	Apply(ctx context.Context, assignments []*model.Assignment, newStatus model.BookingStatus, changedBy, note string) (int, error)
	// RecordCreated writes the first history row of a new assignment.
	RecordCreated(ctx context.Context, assignment *model.Assignment, changedBy string) error
	UpdateProjectScheduleStatus(ctx context.Context, projectID string, update *model.ProjectStatusUpdate) (*model.ProjectStatusResult, error)
	// Cascade applies newStatus to the listed assignments of a project. An
	// empty list succeeds with nothing updated.
	Cascade(ctx context.Context, projectID string, newStatus model.BookingStatus, assignmentIDs []string, note string) (int, error)
	BulkUpdate(ctx context.Context, update *model.BulkStatusUpdate) (*model.BulkStatusResult, error)
	Cycle(ctx context.Context, assignmentID string) (*model.CycleResult, error)
}

type statusService struct {
	projects    projectsrepo.ProjectRepository
	assignments assignmentsrepo.AssignmentRepository
	history     assignmentsrepo.HistoryRepository
	txManager   mongotx.TransactionManager
	validator   *validation.Validator
	cfg         *config.Config
	now         func() time.Time
}

func NewStatusService(
	projects projectsrepo.ProjectRepository,
	assignments assignmentsrepo.AssignmentRepository,
	history assignmentsrepo.HistoryRepository,
	txManager mongotx.TransactionManager,
	validator *validation.Validator,
	cfg *config.Config,
) StatusService {
	return &statusService{
		projects:    projects,
		assignments: assignments,
		history:     history,
		txManager:   txManager,
		validator:   validator,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *statusService) Apply(ctx context.Context, assignments []*model.Assignment, newStatus model.BookingStatus, changedBy, note string) (int, error) {
	if len(assignments) == 0 {
		return 0, nil
	}

	at := s.now().UTC().Truncate(time.Millisecond)
	ids := make([]string, 0, len(assignments))
	rows := make([]*model.StatusHistory, 0, len(assignments))
	for _, a := range assignments {
		prior := a.BookingStatus
		ids = append(ids, a.ID)
		rows = append(rows, model.NewStatusHistory(a.ID, &prior, newStatus, changedBy, note, at))
	}

	matched, err := s.assignments.UpdateStatusMany(ctx, ids, newStatus)
	if err != nil {
		return 0, fmt.Errorf("update assignment status: %w", err)
	}
	if int(matched) != len(ids) {
		return 0, fmt.Errorf("update assignment status: %w", assignmentserrors.ErrNotFound)
	}
	if err := s.history.InsertMany(ctx, rows); err != nil {
		return 0, fmt.Errorf("record status history: %w", err)
	}

	for _, a := range assignments {
		a.BookingStatus = newStatus
	}
	return len(ids), nil
}

func (s *statusService) RecordCreated(ctx context.Context, assignment *model.Assignment, changedBy string) error {
	row := model.NewStatusHistory(assignment.ID, nil, assignment.BookingStatus, changedBy, "", s.now().UTC().Truncate(time.Millisecond))
	if err := s.history.InsertMany(ctx, []*model.StatusHistory{row}); err != nil {
		return fmt.Errorf("record initial status: %w", err)
	}
	return nil
}

func (s *statusService) UpdateProjectScheduleStatus(ctx context.Context, projectID string, update *model.ProjectStatusUpdate) (*model.ProjectStatusResult, error) {
	actor, err := auth.RequireElevated(ctx)
	if err != nil {
		return nil, err
	}

	update.Note = sanitizer.NormalizeText(update.Note)
	if update.AssignmentIDs != nil {
		update.AssignmentIDs = sanitizer.NormalizeIdentifiers(update.AssignmentIDs)
	}
	if err := s.validator.Struct(update); err != nil {
		return nil, validation.ToAppError(err)
	}
	if update.Cascade && !update.Status.ManuallySettable() {
		return nil, validation.ToAppError(validation.Field("status",
			"pending_confirm can only be set by sending a confirmation request"))
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, s.translateProject(err, projectID)
	}
	if !project.HasDates() {
		return nil, apperrors.InvalidState("Project start and end dates must be set before changing its schedule status")
	}

	result := &model.ProjectStatusResult{
		ProjectID:      projectID,
		PreviousStatus: project.ScheduleStatus,
		NewStatus:      update.Status,
	}

	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := s.projects.UpdateScheduleStatus(ctx, projectID, update.Status); err != nil {
			return s.translateProject(err, projectID)
		}
		if !update.Cascade {
			return nil
		}

		ids := update.AssignmentIDs
		if ids == nil {
			all, err := s.assignments.FindByProject(ctx, projectID)
			if err != nil {
				return apperrors.Internal("Failed to load project assignments", err)
			}
			ids = make([]string, 0, len(all))
			for _, a := range all {
				ids = append(ids, a.ID)
			}
		}

		note := update.Note
		if note == "" {
			note = fmt.Sprintf("Project schedule status set to %s", update.Status)
		}
		count, err := s.cascade(ctx, projectID, update.Status, ids, actor.Label(), note)
		if err != nil {
			return err
		}
		result.UpdatedCount = count
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update project schedule status", "project_id", projectID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Project schedule status updated successfully",
		"project_id", projectID,
		"status", update.Status,
		"cascaded", result.UpdatedCount,
	)
	return result, nil
}

func (s *statusService) Cascade(ctx context.Context, projectID string, newStatus model.BookingStatus, assignmentIDs []string, note string) (int, error) {
	actor, err := auth.RequireElevated(ctx)
	if err != nil {
		return 0, err
	}
	if !newStatus.ManuallySettable() {
		return 0, validation.ToAppError(validation.Field("status", "status cannot be cascaded to assignments"))
	}

	var count int
	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.cascade(ctx, projectID, newStatus, sanitizer.NormalizeIdentifiers(assignmentIDs), actor.Label(), sanitizer.NormalizeText(note))
		return err
	})
	if err != nil {
		s.cfg.Log.Error("Failed to cascade status", "project_id", projectID, "error", err)
		return 0, err
	}
	return count, nil
}

// cascade loads every listed assignment before writing. Ids that do not exist
// or belong to another project fail the whole call.
func (s *statusService) cascade(ctx context.Context, projectID string, newStatus model.BookingStatus, ids []string, changedBy, note string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	assignments, err := s.load(ctx, ids)
	if err != nil {
		return 0, err
	}
	for _, a := range assignments {
		if a.ProjectID != projectID {
			return 0, apperrors.InvalidInput(fmt.Sprintf("Assignment %s does not belong to project %s", a.ID, projectID))
		}
	}

	count, err := s.Apply(ctx, assignments, newStatus, changedBy, note)
	if err != nil {
		return 0, apperrors.Internal("Failed to update assignment status", err)
	}
	return count, nil
}

// BulkUpdate skips assignments that are already at the target status; they
// get no history row and are reported in SkippedIDs.
func (s *statusService) BulkUpdate(ctx context.Context, update *model.BulkStatusUpdate) (*model.BulkStatusResult, error) {
	actor, err := auth.RequireElevated(ctx)
	if err != nil {
		return nil, err
	}

	update.AssignmentIDs = sanitizer.NormalizeIdentifiers(update.AssignmentIDs)
	if err := s.validator.Struct(update); err != nil {
		return nil, validation.ToAppError(err)
	}
	if !update.Status.ManuallySettable() {
		return nil, validation.ToAppError(validation.Field("status",
			"pending_confirm can only be set by sending a confirmation request"))
	}

	result := &model.BulkStatusResult{
		Status:     update.Status,
		UpdatedIDs: []string{},
		SkippedIDs: []string{},
	}

	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		assignments, err := s.load(ctx, update.AssignmentIDs)
		if err != nil {
			return err
		}

		var changing []*model.Assignment
		for _, a := range assignments {
			if a.BookingStatus == update.Status {
				result.SkippedIDs = append(result.SkippedIDs, a.ID)
				continue
			}
			changing = append(changing, a)
			result.UpdatedIDs = append(result.UpdatedIDs, a.ID)
		}

		if _, err := s.Apply(ctx, changing, update.Status, actor.Label(), ""); err != nil {
			return apperrors.Internal("Failed to update assignment status", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to bulk update assignment status", "count", len(update.AssignmentIDs), "error", err)
		return nil, err
	}

	result.UpdatedCount = len(result.UpdatedIDs)
	result.SkippedCount = len(result.SkippedIDs)
	s.cfg.Log.Info("Assignment status bulk updated successfully",
		"status", update.Status,
		"updated", result.UpdatedCount,
		"skipped", result.SkippedCount,
	)
	return result, nil
}

func (s *statusService) Cycle(ctx context.Context, assignmentID string) (*model.CycleResult, error) {
	actor, err := auth.RequireElevated(ctx)
	if err != nil {
		return nil, err
	}

	var result *model.CycleResult
	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		assignment, err := s.assignments.FindByID(ctx, assignmentID)
		if err != nil {
			return s.translateAssignment(err, assignmentID)
		}

		previous := assignment.BookingStatus
		next := previous.NextInCycle()
		if _, err := s.Apply(ctx, []*model.Assignment{assignment}, next, actor.Label(), CycleNote); err != nil {
			return apperrors.Internal("Failed to cycle assignment status", err)
		}

		result = &model.CycleResult{AssignmentID: assignmentID, PreviousStatus: previous, NewStatus: next}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to cycle assignment status", "assignment_id", assignmentID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Assignment status cycled successfully",
		"assignment_id", assignmentID,
		"from", result.PreviousStatus,
		"to", result.NewStatus,
	)
	return result, nil
}

// load fetches ids in order and fails with NotFound naming every missing id.
func (s *statusService) load(ctx context.Context, ids []string) ([]*model.Assignment, error) {
	found, err := s.assignments.FindByIDs(ctx, ids)
	if err != nil {
		if errors.Is(err, assignmentserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid assignment ID format")
		}
		return nil, apperrors.Internal("Failed to load assignments", err)
	}

	byID := make(map[string]*model.Assignment, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}

	ordered := make([]*model.Assignment, 0, len(ids))
	var missing []string
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		ordered = append(ordered, a)
	}
	if len(missing) > 0 {
		return nil, apperrors.NotFound("Assignment").WithDetails(map[string]any{
			"resource": "Assignment",
			"ids":      missing,
		})
	}
	return ordered, nil
}

func (s *statusService) translateProject(err error, id string) error {
	switch {
	case errors.Is(err, projectserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Project", id)
	case errors.Is(err, projectserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid project ID format")
	}
	return apperrors.Internal("Failed to access project", err)
}

func (s *statusService) translateAssignment(err error, id string) error {
	switch {
	case errors.Is(err, assignmentserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Assignment", id)
	case errors.Is(err, assignmentserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid assignment ID format")
	}
	return apperrors.Internal("Failed to access assignment", err)
}
