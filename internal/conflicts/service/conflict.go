package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	assignmentserrors "fieldsched/internal/assignments/errors"
	assignmentsrepo "fieldsched/internal/assignments/repository"
	conflictserrors "fieldsched/internal/conflicts/errors"
	"fieldsched/internal/conflicts/repository"
	projectsrepo "fieldsched/internal/projects/repository"
	"fieldsched/pkg/auth"
	"fieldsched/pkg/config"
	apperrors "fieldsched/pkg/errors"
	"fieldsched/pkg/model"
	"fieldsched/pkg/sanitizer"
	"fieldsched/pkg/validation"
)

type ConflictService interface {
	// Check lists, per overlapping date, the engineer's other committed
	// assignments within [startDate, endDate].
	Check(ctx context.Context, engineerID, startDate, endDate, excludeAssignmentID string) ([]model.ConflictEntry, error)
	// Record persists one unresolved conflict per entry that overlaps one of
	// dates of assignment. Existing rows are never deduplicated.
	Record(ctx context.Context, assignment *model.Assignment, dates []string) ([]model.ConflictEntry, error)
	Override(ctx context.Context, conflictID string, override *model.ConflictOverride) (*model.BookingConflict, error)
	ListUnresolved(ctx context.Context, engineerID string) ([]*model.ConflictView, error)
}

type conflictService struct {
	repo        repository.ConflictRepository
	assignments assignmentsrepo.AssignmentRepository
	days        assignmentsrepo.DayRepository
	projects    projectsrepo.ProjectRepository
	validator   *validation.Validator
	cfg         *config.Config
	now         func() time.Time
}

func NewConflictService(
	repo repository.ConflictRepository,
	assignments assignmentsrepo.AssignmentRepository,
	days assignmentsrepo.DayRepository,
	projects projectsrepo.ProjectRepository,
	validator *validation.Validator,
	cfg *config.Config,
) ConflictService {
	return &conflictService{
		repo:        repo,
		assignments: assignments,
		days:        days,
		projects:    projects,
		validator:   validator,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *conflictService) Check(ctx context.Context, engineerID, startDate, endDate, excludeAssignmentID string) ([]model.ConflictEntry, error) {
	check := &model.ConflictCheck{
		EngineerID:          sanitizer.NormalizeIdentifier(engineerID),
		StartDate:           sanitizer.NormalizeIdentifier(startDate),
		EndDate:             sanitizer.NormalizeIdentifier(endDate),
		ExcludeAssignmentID: sanitizer.NormalizeIdentifier(excludeAssignmentID),
	}
	if err := s.validator.Struct(check); err != nil {
		return nil, validation.ToAppError(err)
	}
	if check.EndDate < check.StartDate {
		return nil, validation.ToAppError(validation.Field("end", "end must not be before start"))
	}

	return s.find(ctx, check.EngineerID, check.StartDate, check.EndDate, check.ExcludeAssignmentID, nil)
}

// find runs the overlap query. When onDates is non-nil only those dates are
// reported.
func (s *conflictService) find(ctx context.Context, engineerID, start, end, exclude string, onDates map[string]bool) ([]model.ConflictEntry, error) {
	days, err := s.days.FindByEngineerInRange(ctx, engineerID, start, end, exclude)
	if err != nil {
		s.cfg.Log.Error("Failed to load engineer days", "engineer_id", engineerID, "error", err)
		return nil, apperrors.Internal("Failed to check conflicts", err)
	}
	if len(days) == 0 {
		return []model.ConflictEntry{}, nil
	}

	ids := make([]string, 0, len(days))
	seen := map[string]bool{}
	for _, d := range days {
		if !seen[d.AssignmentID] {
			seen[d.AssignmentID] = true
			ids = append(ids, d.AssignmentID)
		}
	}

	assignments, err := s.assignments.FindByIDs(ctx, ids)
	if err != nil {
		s.cfg.Log.Error("Failed to load overlapping assignments", "engineer_id", engineerID, "error", err)
		return nil, apperrors.Internal("Failed to check conflicts", err)
	}
	byID := make(map[string]*model.Assignment, len(assignments))
	for _, a := range assignments {
		byID[a.ID] = a
	}

	entries := []model.ConflictEntry{}
	for _, d := range days {
		if onDates != nil && !onDates[d.Date] {
			continue
		}
		a, ok := byID[d.AssignmentID]
		if !ok || !a.BookingStatus.Committed() {
			continue
		}
		entries = append(entries, model.ConflictEntry{
			AssignmentID:  a.ID,
			ProjectID:     a.ProjectID,
			EngineerID:    a.EngineerID,
			Date:          d.Date,
			BookingStatus: a.BookingStatus,
		})
	}
	return entries, nil
}

func (s *conflictService) Record(ctx context.Context, assignment *model.Assignment, dates []string) ([]model.ConflictEntry, error) {
	if len(dates) == 0 {
		return []model.ConflictEntry{}, nil
	}

	onDates := make(map[string]bool, len(dates))
	start, end := dates[0], dates[0]
	for _, d := range dates {
		onDates[d] = true
		if d < start {
			start = d
		}
		if d > end {
			end = d
		}
	}

	entries, err := s.find(ctx, assignment.EngineerID, start, end, assignment.ID, onDates)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}

	now := s.now().UTC()
	rows := make([]*model.BookingConflict, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, &model.BookingConflict{
			EngineerID:              assignment.EngineerID,
			AssignmentID:            assignment.ID,
			ConflictingAssignmentID: e.AssignmentID,
			Date:                    e.Date,
			CreatedAt:               now,
		})
	}
	if err := s.repo.CreateMany(ctx, rows); err != nil {
		s.cfg.Log.Error("Failed to record booking conflicts", "assignment_id", assignment.ID, "error", err)
		return nil, apperrors.Internal("Failed to record booking conflicts", err)
	}

	s.cfg.Log.Warn("Booking conflicts recorded",
		"conflict_batch", uuid.NewString(),
		"assignment_id", assignment.ID,
		"engineer_id", assignment.EngineerID,
		"count", len(rows),
	)
	return entries, nil
}

func (s *conflictService) Override(ctx context.Context, conflictID string, override *model.ConflictOverride) (*model.BookingConflict, error) {
	actor, err := auth.RequireElevated(ctx)
	if err != nil {
		return nil, err
	}

	override.Reason = sanitizer.NormalizeText(override.Reason)
	if err := s.validator.Struct(override); err != nil {
		return nil, validation.ToAppError(err)
	}

	conflict, err := s.repo.FindByID(ctx, conflictID)
	if err != nil {
		return nil, s.translate(err, conflictID, "Failed to load conflict")
	}
	if conflict.IsResolved {
		return nil, apperrors.InvalidState("Conflict is already resolved")
	}

	resolvedAt := s.now().UTC().Truncate(time.Millisecond)
	resolvedBy := actor.Label()
	if err := s.repo.MarkResolved(ctx, conflictID, override.Reason, resolvedBy, resolvedAt); err != nil {
		return nil, s.translate(err, conflictID, "Failed to override conflict")
	}

	conflict.IsResolved = true
	conflict.OverrideReason = &override.Reason
	conflict.ResolvedBy = &resolvedBy
	conflict.ResolvedAt = &resolvedAt

	s.cfg.Log.Info("Conflict overridden successfully",
		"id", conflictID,
		"engineer_id", conflict.EngineerID,
		"resolved_by", resolvedBy,
	)
	return conflict, nil
}

func (s *conflictService) ListUnresolved(ctx context.Context, engineerID string) ([]*model.ConflictView, error) {
	engineerID = sanitizer.NormalizeIdentifier(engineerID)

	conflicts, err := s.repo.FindUnresolved(ctx, engineerID)
	if err != nil {
		s.cfg.Log.Error("Failed to list conflicts", "engineer_id", engineerID, "error", err)
		return nil, apperrors.Internal("Failed to list conflicts", err)
	}
	if len(conflicts) == 0 {
		return []*model.ConflictView{}, nil
	}

	summaries, err := s.summaries(ctx, conflicts)
	if err != nil {
		return nil, err
	}

	views := make([]*model.ConflictView, 0, len(conflicts))
	for _, c := range conflicts {
		views = append(views, &model.ConflictView{
			ID:                    c.ID,
			EngineerID:            c.EngineerID,
			Date:                  c.Date,
			CreatedAt:             c.CreatedAt,
			Assignment:            summaries[c.AssignmentID],
			ConflictingAssignment: summaries[c.ConflictingAssignmentID],
		})
	}
	return views, nil
}

// summaries joins both sides of every conflict with their projects. Sides
// that no longer exist are left out of the map.
func (s *conflictService) summaries(ctx context.Context, conflicts []*model.BookingConflict) (map[string]*model.AssignmentSummary, error) {
	var ids []string
	seen := map[string]bool{}
	for _, c := range conflicts {
		for _, id := range []string{c.AssignmentID, c.ConflictingAssignmentID} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	assignments, err := s.assignments.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to load conflicting assignments", err)
	}

	var projectIDs []string
	for _, a := range assignments {
		projectIDs = append(projectIDs, a.ProjectID)
	}
	projects, err := s.projects.FindByIDs(ctx, sanitizer.NormalizeIdentifiers(projectIDs))
	if err != nil {
		return nil, apperrors.Internal("Failed to load conflicting projects", err)
	}
	projectByID := make(map[string]*model.Project, len(projects))
	for _, p := range projects {
		projectByID[p.ID] = p
	}

	out := make(map[string]*model.AssignmentSummary, len(assignments))
	for _, a := range assignments {
		out[a.ID] = &model.AssignmentSummary{
			ID:            a.ID,
			EngineerName:  a.EngineerName,
			BookingStatus: a.BookingStatus,
			Project:       model.NewProjectReference(projectByID[a.ProjectID]),
		}
	}
	return out, nil
}

func (s *conflictService) translate(err error, id, message string) error {
	switch {
	case errors.Is(err, conflictserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Conflict", id)
	case errors.Is(err, conflictserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid conflict ID format")
	case errors.Is(err, conflictserrors.ErrAlreadyResolved):
		return apperrors.InvalidState("Conflict is already resolved")
	case errors.Is(err, assignmentserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid assignment ID format")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}
