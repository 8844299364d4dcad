package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	assignmentserrors "fieldsched/internal/assignments/errors"
	"fieldsched/internal/assignments/repository"
	conflictsservice "fieldsched/internal/conflicts/service"
	confirmationsrepo "fieldsched/internal/confirmations/repository"
	projectserrors "fieldsched/internal/projects/errors"
	projectsrepo "fieldsched/internal/projects/repository"
	statusservice "fieldsched/internal/status/service"
	"fieldsched/pkg/auth"
	"fieldsched/pkg/config"
	mongotx "fieldsched/pkg/db/mongo"
	apperrors "fieldsched/pkg/errors"
	"fieldsched/pkg/model"
	"fieldsched/pkg/sanitizer"
	"fieldsched/pkg/timeline"
	"fieldsched/pkg/validation"
)

type AssignmentService interface {
	Create(ctx context.Context, input *model.AssignmentCreate) (*model.AssignmentDetail, error)
	GetByID(ctx context.Context, id string) (*model.AssignmentDetail, error)
	Delete(ctx context.Context, id string) error
	History(ctx context.Context, id string) ([]*model.StatusHistory, error)
	AddDay(ctx context.Context, id string, day *model.DayInput) (*model.AssignmentDetail, error)
	UpdateDay(ctx context.Context, id, date string, times *model.DayTimes) (*model.AssignmentDetail, error)
	RemoveDay(ctx context.Context, id, date string) error
	EngineerTimeline(ctx context.Context, engineerID, from, to string) (*model.EngineerTimeline, error)
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	days      repository.DayRepository
	history   repository.HistoryRepository
	projects  projectsrepo.ProjectRepository
	links     confirmationsrepo.LinkRepository
	conflicts conflictsservice.ConflictService
	status    statusservice.StatusService
	txManager mongotx.TransactionManager
	validator *validation.Validator
	cfg       *config.Config
}

func NewAssignmentService(
	repo repository.AssignmentRepository,
	days repository.DayRepository,
	history repository.HistoryRepository,
	projects projectsrepo.ProjectRepository,
	links confirmationsrepo.LinkRepository,
	conflicts conflictsservice.ConflictService,
	status statusservice.StatusService,
	txManager mongotx.TransactionManager,
	validator *validation.Validator,
	cfg *config.Config,
) AssignmentService {
	return &assignmentService{
		repo:      repo,
		days:      days,
		history:   history,
		projects:  projects,
		links:     links,
		conflicts: conflicts,
		status:    status,
		txManager: txManager,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *assignmentService) Create(ctx context.Context, input *model.AssignmentCreate) (*model.AssignmentDetail, error) {
	actor, err := auth.RequireElevated(ctx)
	if err != nil {
		return nil, err
	}

	s.sanitize(input)
	if err := s.validator.Struct(input); err != nil {
		s.cfg.Log.Warn("Assignment validation failed", "error", err)
		return nil, validation.ToAppError(err)
	}

	status := model.StatusDraft
	if input.BookingStatus != nil {
		status = *input.BookingStatus
	}
	if !status.ManuallySettable() {
		return nil, validation.ToAppError(validation.Field("booking_status",
			"pending_confirm can only be set by sending a confirmation request"))
	}

	project, err := s.projects.FindByID(ctx, input.ProjectID)
	if err != nil {
		return nil, translateProject(err, input.ProjectID)
	}

	dayInputs, err := s.planDays(input, project)
	if err != nil {
		return nil, err
	}

	assignment := &model.Assignment{
		ProjectID:     input.ProjectID,
		EngineerID:    input.EngineerID,
		EngineerName:  input.EngineerName,
		BookingStatus: status,
		CreatedBy:     actor.Label(),
	}

	var days []*model.AssignmentDay
	var conflicts []model.ConflictEntry
	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, assignment); err != nil {
			if errors.Is(err, assignmentserrors.ErrDuplicate) {
				return apperrors.Conflict("Engineer is already assigned to this project")
			}
			return apperrors.Internal("Failed to create assignment", err)
		}

		days = newDays(assignment, dayInputs)
		if err := s.days.CreateMany(ctx, days); err != nil {
			return translateDayWrite(err)
		}

		if err := s.status.RecordCreated(ctx, assignment, actor.Label()); err != nil {
			return apperrors.Internal("Failed to record assignment status", err)
		}

		var err error
		conflicts, err = s.conflicts.Record(ctx, assignment, dates(days))
		return err
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create assignment",
			"project_id", input.ProjectID,
			"engineer_id", input.EngineerID,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Assignment created successfully",
		"id", assignment.ID,
		"project_id", assignment.ProjectID,
		"engineer_id", assignment.EngineerID,
		"days", len(days),
		"conflicts", len(conflicts),
	)
	return detail(assignment, days, project, conflicts), nil
}

// planDays returns the explicit days, or the working days of the project
// window when none were given.
func (s *assignmentService) planDays(input *model.AssignmentCreate, project *model.Project) ([]model.DayInput, error) {
	days := input.Days
	if len(days) == 0 && project.HasDates() {
		for _, date := range timeline.WorkingDays(*project.StartDate, *project.EndDate, input.IncludeWeekends) {
			days = append(days, model.DayInput{
				Date:      date,
				StartTime: s.cfg.DefaultDayStart,
				EndTime:   s.cfg.DefaultDayEnd,
			})
		}
	}
	if len(days) == 0 {
		return nil, nil
	}

	var verrs validation.ValidationErrors
	seen := map[string]bool{}
	first, last := days[0].Date, days[0].Date
	for i, d := range days {
		if !model.ClockBefore(d.StartTime, d.EndTime) {
			verrs = append(verrs, validation.ValidationError{
				Field:   fmt.Sprintf("days[%d].end_time", i),
				Message: "end_time must be after start_time",
			})
		}
		if seen[d.Date] {
			verrs = append(verrs, validation.ValidationError{
				Field:   fmt.Sprintf("days[%d].date", i),
				Message: fmt.Sprintf("date %s is listed more than once", d.Date),
			})
		}
		seen[d.Date] = true
		if d.Date < first {
			first = d.Date
		}
		if d.Date > last {
			last = d.Date
		}
	}
	if span := timeline.SpanDays(first, last); s.cfg.MaxAssignmentSpanDays > 0 && span > s.cfg.MaxAssignmentSpanDays {
		verrs = append(verrs, validation.ValidationError{
			Field:   "days",
			Message: fmt.Sprintf("days span %d calendar days, more than the allowed %d", span, s.cfg.MaxAssignmentSpanDays),
		})
	}
	if len(verrs) > 0 {
		return nil, validation.ToAppError(verrs)
	}
	return days, nil
}

func (s *assignmentService) GetByID(ctx context.Context, id string) (*model.AssignmentDetail, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateAssignment(err, id)
	}

	days, err := s.days.FindByAssignment(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to load assignment days", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve assignment days", err)
	}

	project, err := s.projects.FindByID(ctx, assignment.ProjectID)
	if err != nil && !errors.Is(err, projectserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to retrieve project", err)
	}
	return detail(assignment, days, project, nil), nil
}

func (s *assignmentService) Delete(ctx context.Context, id string) error {
	if _, err := auth.RequireElevated(ctx); err != nil {
		return err
	}

	err := s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return translateAssignment(err, id)
		}
		if _, err := s.days.DeleteByAssignments(ctx, []string{id}); err != nil {
			return apperrors.Internal("Failed to delete assignment days", err)
		}
		if _, err := s.links.DeleteByAssignments(ctx, []string{id}); err != nil {
			return apperrors.Internal("Failed to unlink confirmation requests", err)
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return translateAssignment(err, id)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete assignment", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Assignment deleted successfully", "id", id)
	return nil
}

func (s *assignmentService) History(ctx context.Context, id string) ([]*model.StatusHistory, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, translateAssignment(err, id)
	}

	rows, err := s.history.FindByAssignment(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to load status history", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve status history", err)
	}
	return rows, nil
}

func (s *assignmentService) AddDay(ctx context.Context, id string, day *model.DayInput) (*model.AssignmentDetail, error) {
	if _, err := auth.RequireElevated(ctx); err != nil {
		return nil, err
	}

	day.Date = sanitizer.NormalizeIdentifier(day.Date)
	day.StartTime = sanitizer.NormalizeIdentifier(day.StartTime)
	day.EndTime = sanitizer.NormalizeIdentifier(day.EndTime)
	if err := s.validator.Struct(day); err != nil {
		return nil, validation.ToAppError(err)
	}
	if !model.ClockBefore(day.StartTime, day.EndTime) {
		return nil, validation.ToAppError(validation.Field("end_time", "end_time must be after start_time"))
	}

	var conflicts []model.ConflictEntry
	err := s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		assignment, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return translateAssignment(err, id)
		}

		if err := s.days.CreateMany(ctx, newDays(assignment, []model.DayInput{*day})); err != nil {
			return translateDayWrite(err)
		}

		conflicts, err = s.conflicts.Record(ctx, assignment, []string{day.Date})
		return err
	})
	if err != nil {
		s.cfg.Log.Error("Failed to add assignment day", "id", id, "date", day.Date, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Assignment day added successfully", "id", id, "date", day.Date, "conflicts", len(conflicts))

	result, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result.Conflicts = conflicts
	result.Warnings = warnings(conflicts)
	return result, nil
}

func (s *assignmentService) UpdateDay(ctx context.Context, id, date string, times *model.DayTimes) (*model.AssignmentDetail, error) {
	if _, err := auth.RequireElevated(ctx); err != nil {
		return nil, err
	}
	if _, err := model.ParseDate(date); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	times.StartTime = sanitizer.NormalizeIdentifier(times.StartTime)
	times.EndTime = sanitizer.NormalizeIdentifier(times.EndTime)
	if err := s.validator.Struct(times); err != nil {
		return nil, validation.ToAppError(err)
	}
	if !model.ClockBefore(times.StartTime, times.EndTime) {
		return nil, validation.ToAppError(validation.Field("end_time", "end_time must be after start_time"))
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, translateAssignment(err, id)
	}
	if err := s.days.UpdateTimes(ctx, id, date, times.StartTime, times.EndTime); err != nil {
		return nil, translateDay(err, id, date)
	}

	s.cfg.Log.Info("Assignment day updated successfully", "id", id, "date", date)
	return s.GetByID(ctx, id)
}

func (s *assignmentService) RemoveDay(ctx context.Context, id, date string) error {
	if _, err := auth.RequireElevated(ctx); err != nil {
		return err
	}
	if _, err := model.ParseDate(date); err != nil {
		return apperrors.InvalidInput(err.Error())
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return translateAssignment(err, id)
	}
	if err := s.days.Delete(ctx, id, date); err != nil {
		return translateDay(err, id, date)
	}

	s.cfg.Log.Info("Assignment day removed successfully", "id", id, "date", date)
	return nil
}

// EngineerTimeline lists every assignment of the engineer with at least one
// day in [from, to], each compacted into blocks, ordered by first day.
func (s *assignmentService) EngineerTimeline(ctx context.Context, engineerID, from, to string) (*model.EngineerTimeline, error) {
	engineerID = sanitizer.NormalizeIdentifier(engineerID)
	if engineerID == "" {
		return nil, apperrors.InvalidInput("Engineer ID cannot be empty")
	}
	if _, err := model.ParseDate(from); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("from: %v", err))
	}
	if _, err := model.ParseDate(to); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("to: %v", err))
	}
	if to < from {
		return nil, apperrors.InvalidInput("to must not be before from")
	}

	days, err := s.days.FindByEngineerInRange(ctx, engineerID, from, to, "")
	if err != nil {
		s.cfg.Log.Error("Failed to load engineer timeline", "engineer_id", engineerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve engineer timeline", err)
	}

	byAssignment := map[string][]*model.AssignmentDay{}
	var order []string
	for _, d := range days {
		if _, ok := byAssignment[d.AssignmentID]; !ok {
			order = append(order, d.AssignmentID)
		}
		byAssignment[d.AssignmentID] = append(byAssignment[d.AssignmentID], d)
	}

	result := &model.EngineerTimeline{EngineerID: engineerID, From: from, To: to, Entries: []model.TimelineEntry{}}
	if len(order) == 0 {
		return result, nil
	}

	assignments, err := s.repo.FindByIDs(ctx, order)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve timeline assignments", err)
	}
	var projectIDs []string
	for _, a := range assignments {
		projectIDs = append(projectIDs, a.ProjectID)
	}
	projects, err := s.projects.FindByIDs(ctx, sanitizer.NormalizeIdentifiers(projectIDs))
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve timeline projects", err)
	}
	projectByID := make(map[string]*model.Project, len(projects))
	for _, p := range projects {
		projectByID[p.ID] = p
	}

	for _, a := range assignments {
		result.Entries = append(result.Entries, model.TimelineEntry{
			AssignmentID:  a.ID,
			Project:       model.NewProjectReference(projectByID[a.ProjectID]),
			BookingStatus: a.BookingStatus,
			Blocks:        timeline.GroupDaysIntoBlocks(model.TimelineDays(byAssignment[a.ID])),
		})
	}
	sort.SliceStable(result.Entries, func(i, j int) bool {
		return byAssignment[result.Entries[i].AssignmentID][0].Date < byAssignment[result.Entries[j].AssignmentID][0].Date
	})
	return result, nil
}

func (s *assignmentService) sanitize(input *model.AssignmentCreate) {
	input.ProjectID = sanitizer.NormalizeIdentifier(input.ProjectID)
	input.EngineerID = sanitizer.NormalizeIdentifier(input.EngineerID)
	input.EngineerName = sanitizer.NormalizeName(input.EngineerName)
	for i := range input.Days {
		input.Days[i].Date = sanitizer.NormalizeIdentifier(input.Days[i].Date)
		input.Days[i].StartTime = sanitizer.NormalizeIdentifier(input.Days[i].StartTime)
		input.Days[i].EndTime = sanitizer.NormalizeIdentifier(input.Days[i].EndTime)
	}
}

func newDays(assignment *model.Assignment, inputs []model.DayInput) []*model.AssignmentDay {
	days := make([]*model.AssignmentDay, 0, len(inputs))
	for _, in := range inputs {
		days = append(days, &model.AssignmentDay{
			AssignmentID: assignment.ID,
			EngineerID:   assignment.EngineerID,
			ProjectID:    assignment.ProjectID,
			Date:         in.Date,
			StartTime:    in.StartTime,
			EndTime:      in.EndTime,
		})
	}
	return days
}

func dates(days []*model.AssignmentDay) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.Date)
	}
	return out
}

func detail(assignment *model.Assignment, days []*model.AssignmentDay, project *model.Project, conflicts []model.ConflictEntry) *model.AssignmentDetail {
	if days == nil {
		days = []*model.AssignmentDay{}
	}
	sorted := make([]*model.AssignmentDay, len(days))
	copy(sorted, days)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	return &model.AssignmentDetail{
		Assignment: assignment,
		Days:       sorted,
		Blocks:     timeline.GroupDaysIntoBlocks(model.TimelineDays(sorted)),
		Conflicts:  conflicts,
		Warnings:   warnings(conflicts),
		Project:    model.NewProjectReference(project),
	}
}

// warnings renders conflicts as operator-facing messages.
func warnings(conflicts []model.ConflictEntry) []string {
	if len(conflicts) == 0 {
		return nil
	}
	out := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, fmt.Sprintf("Engineer %s is already booked on %s (assignment %s, %s)",
			c.EngineerID, c.Date, c.AssignmentID, c.BookingStatus))
	}
	return out
}

func translateAssignment(err error, id string) error {
	switch {
	case errors.Is(err, assignmentserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Assignment", id)
	case errors.Is(err, assignmentserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid assignment ID format")
	}
	return apperrors.Internal("Failed to access assignment", err)
}

func translateProject(err error, id string) error {
	switch {
	case errors.Is(err, projectserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Project", id)
	case errors.Is(err, projectserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid project ID format")
	}
	return apperrors.Internal("Failed to access project", err)
}

func translateDay(err error, id, date string) error {
	if errors.Is(err, assignmentserrors.ErrDayNotFound) {
		return apperrors.NotFound("Assignment day").WithDetails(map[string]any{
			"assignment_id": id,
			"date":          date,
		})
	}
	return apperrors.Internal("Failed to update assignment day", err)
}

func translateDayWrite(err error) error {
	if errors.Is(err, assignmentserrors.ErrDuplicateDay) {
		return apperrors.Conflict("Assignment already has a day on this date")
	}
	return apperrors.Internal("Failed to save assignment days", err)
}
