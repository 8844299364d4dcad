package service

import (
	"context"
	"errors"

	assignmentsrepo "fieldsched/internal/assignments/repository"
	confirmationsrepo "fieldsched/internal/confirmations/repository"
	projectserrors "fieldsched/internal/projects/errors"
	"fieldsched/internal/projects/repository"
	"fieldsched/pkg/auth"
	"fieldsched/pkg/config"
	mongotx "fieldsched/pkg/db/mongo"
	apperrors "fieldsched/pkg/errors"
	"fieldsched/pkg/model"
	"fieldsched/pkg/sanitizer"
	"fieldsched/pkg/validation"
)

type ProjectService interface {
	Create(ctx context.Context, input *model.ProjectCreate) (*model.Project, error)
	GetByID(ctx context.Context, id string) (*model.Project, error)
	SetDates(ctx context.Context, id string, dates *model.ProjectDates) (*model.Project, error)
	Delete(ctx context.Context, id string) error
}

type projectService struct {
	repo        repository.ProjectRepository
	assignments assignmentsrepo.AssignmentRepository
	days        assignmentsrepo.DayRepository
	history     assignmentsrepo.HistoryRepository
	requests    confirmationsrepo.RequestRepository
	links       confirmationsrepo.LinkRepository
	txManager   mongotx.TransactionManager
	validator   *validation.Validator
	cfg         *config.Config
}

func NewProjectService(
	repo repository.ProjectRepository,
	assignments assignmentsrepo.AssignmentRepository,
	days assignmentsrepo.DayRepository,
	history assignmentsrepo.HistoryRepository,
	requests confirmationsrepo.RequestRepository,
	links confirmationsrepo.LinkRepository,
	txManager mongotx.TransactionManager,
	validator *validation.Validator,
	cfg *config.Config,
) ProjectService {
	return &projectService{
		repo:        repo,
		assignments: assignments,
		days:        days,
		history:     history,
		requests:    requests,
		links:       links,
		txManager:   txManager,
		validator:   validator,
		cfg:         cfg,
	}
}

func (s *projectService) Create(ctx context.Context, input *model.ProjectCreate) (*model.Project, error) {
	actor, err := auth.RequireElevated(ctx)
	if err != nil {
		return nil, err
	}

	input.Name = sanitizer.NormalizeName(input.Name)
	input.ClientName = sanitizer.NormalizeName(input.ClientName)
	if err := s.validator.Struct(input); err != nil {
		s.cfg.Log.Warn("Project validation failed", "error", err)
		return nil, validation.ToAppError(err)
	}
	if err := checkDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	project := &model.Project{
		Name:       input.Name,
		ClientName: input.ClientName,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		CreatedBy:  actor.Label(),
	}
	if err := s.repo.Create(ctx, project); err != nil {
		s.cfg.Log.Error("Failed to create project", "name", project.Name, "error", err)
		return nil, apperrors.Internal("Failed to create project", err)
	}

	s.cfg.Log.Info("Project created successfully", "id", project.ID, "name", project.Name)
	return project, nil
}

// checkDates requires both dates or neither, in order.
func checkDates(start, end *string) error {
	hasStart := start != nil && *start != ""
	hasEnd := end != nil && *end != ""
	if hasStart != hasEnd {
		return validation.ToAppError(validation.Field("end_date", "start_date and end_date must be set together"))
	}
	if hasStart && *end < *start {
		return validation.ToAppError(validation.Field("end_date", "end_date must not be before start_date"))
	}
	return nil
}

func (s *projectService) GetByID(ctx context.Context, id string) (*model.Project, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Project ID cannot be empty")
	}

	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id, "Failed to retrieve project")
	}
	return project, nil
}

func (s *projectService) SetDates(ctx context.Context, id string, dates *model.ProjectDates) (*model.Project, error) {
	if _, err := auth.RequireElevated(ctx); err != nil {
		return nil, err
	}

	dates.StartDate = sanitizer.NormalizeIdentifier(dates.StartDate)
	dates.EndDate = sanitizer.NormalizeIdentifier(dates.EndDate)
	if err := s.validator.Struct(dates); err != nil {
		return nil, validation.ToAppError(err)
	}
	if err := checkDates(&dates.StartDate, &dates.EndDate); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateDates(ctx, id, dates.StartDate, dates.EndDate); err != nil {
		return nil, s.translate(err, id, "Failed to update project dates")
	}

	s.cfg.Log.Info("Project dates updated successfully",
		"id", id,
		"start_date", dates.StartDate,
		"end_date", dates.EndDate,
	)
	return s.GetByID(ctx, id)
}

// Delete removes the project with its assignments, their days and history,
// and every confirmation request with its links. Conflicts are kept.
func (s *projectService) Delete(ctx context.Context, id string) error {
	if _, err := auth.RequireElevated(ctx); err != nil {
		return err
	}

	var removedAssignments int
	err := s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return s.translate(err, id, "Failed to load project")
		}

		assignments, err := s.assignments.FindByProject(ctx, id)
		if err != nil {
			return apperrors.Internal("Failed to load project assignments", err)
		}
		ids := make([]string, 0, len(assignments))
		for _, a := range assignments {
			ids = append(ids, a.ID)
		}
		removedAssignments = len(ids)

		if _, err := s.days.DeleteByAssignments(ctx, ids); err != nil {
			return apperrors.Internal("Failed to delete assignment days", err)
		}
		if _, err := s.history.DeleteByAssignments(ctx, ids); err != nil {
			return apperrors.Internal("Failed to delete status history", err)
		}

		requestIDs, err := s.requests.DeleteByProject(ctx, id)
		if err != nil {
			return apperrors.Internal("Failed to delete confirmation requests", err)
		}
		if _, err := s.links.DeleteByRequests(ctx, requestIDs); err != nil {
			return apperrors.Internal("Failed to delete confirmation links", err)
		}
		if _, err := s.links.DeleteByAssignments(ctx, ids); err != nil {
			return apperrors.Internal("Failed to delete confirmation links", err)
		}

		if _, err := s.assignments.DeleteByProject(ctx, id); err != nil {
			return apperrors.Internal("Failed to delete project assignments", err)
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return s.translate(err, id, "Failed to delete project")
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete project", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Project deleted successfully", "id", id, "assignments", removedAssignments)
	return nil
}

func (s *projectService) translate(err error, id, message string) error {
	switch {
	case errors.Is(err, projectserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Project", id)
	case errors.Is(err, projectserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid project ID format")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}
