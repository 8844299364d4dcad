package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	assignmentserrors "fieldsched/internal/assignments/errors"
	assignmentsrepo "fieldsched/internal/assignments/repository"
	confirmationserrors "fieldsched/internal/confirmations/errors"
	"fieldsched/internal/confirmations/repository"
	"fieldsched/internal/confirmations/templates"
	projectserrors "fieldsched/internal/projects/errors"
	projectsrepo "fieldsched/internal/projects/repository"
	statusservice "fieldsched/internal/status/service"
	"fieldsched/pkg/auth"
	"fieldsched/pkg/config"
	mongotx "fieldsched/pkg/db/mongo"
	apperrors "fieldsched/pkg/errors"
	"fieldsched/pkg/model"
	"fieldsched/pkg/notifier"
	"fieldsched/pkg/ratelimit"
	"fieldsched/pkg/sanitizer"
	"fieldsched/pkg/timeline"
	"fieldsched/pkg/validation"
)

const tokenBytes = 32

// Messages shown on the public surface. They never reveal whether a token
// exists beyond what the caller already holds.
const (
	msgInvalidLink      = "This confirmation link is invalid or has expired"
	msgExpiredLink      = "This confirmation link has expired"
	msgAlreadyResponded = "This confirmation request has already been responded to"
	msgTooManyAttempts  = "Too many attempts. Please wait a minute and try again"
)

type ConfirmationService interface {
	Create(ctx context.Context, input *model.ConfirmationCreate) (*model.CreateConfirmationResult, error)
	ListByProject(ctx context.Context, projectID string) ([]*model.ConfirmationRequest, error)
	Cancel(ctx context.Context, id string) error
	Resend(ctx context.Context, id string) (*model.ConfirmationRequest, error)
	PublicView(ctx context.Context, clientAddr, token string) (*model.PublicConfirmationView, error)
	Respond(ctx context.Context, clientAddr, token string, response *model.ConfirmationResponse) (*model.ConfirmationResponseResult, error)
}

// Limiters guards the public surface.
type Limiters struct {
	// Respond is keyed per client address and token.
	Respond ratelimit.Limiter
	// Lookup is keyed per client address.
	Lookup ratelimit.Limiter
}

type confirmationService struct {
	requests    repository.RequestRepository
	links       repository.LinkRepository
	assignments assignmentsrepo.AssignmentRepository
	days        assignmentsrepo.DayRepository
	projects    projectsrepo.ProjectRepository
	status      statusservice.StatusService
	notifier    notifier.Notifier
	limiters    Limiters
	txManager   mongotx.TransactionManager
	validator   *validation.Validator
	cfg         *config.Config
	now         func() time.Time
	newToken    func() (string, error)
}

func NewConfirmationService(
	requests repository.RequestRepository,
	links repository.LinkRepository,
	assignments assignmentsrepo.AssignmentRepository,
	days assignmentsrepo.DayRepository,
	projects projectsrepo.ProjectRepository,
	status statusservice.StatusService,
	notifier notifier.Notifier,
	limiters Limiters,
	txManager mongotx.TransactionManager,
	validator *validation.Validator,
	cfg *config.Config,
) ConfirmationService {
	if limiters.Respond == nil {
		limiters.Respond = ratelimit.Unlimited
	}
	if limiters.Lookup == nil {
		limiters.Lookup = ratelimit.Unlimited
	}
	return &confirmationService{
		requests:    requests,
		links:       links,
		assignments: assignments,
		days:        days,
		projects:    projects,
		status:      status,
		notifier:    notifier,
		limiters:    limiters,
		txManager:   txManager,
		validator:   validator,
		cfg:         cfg,
		now:         time.Now,
		newToken:    generateToken,
	}
}

// generateToken returns 32 random bytes hex encoded.
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *confirmationService) Create(ctx context.Context, input *model.ConfirmationCreate) (*model.CreateConfirmationResult, error) {
	actor, err := auth.RequireElevated(ctx)
	if err != nil {
		return nil, err
	}

	input.ProjectID = sanitizer.NormalizeIdentifier(input.ProjectID)
	input.AssignmentIDs = sanitizer.NormalizeIdentifiers(input.AssignmentIDs)
	input.RecipientEmail = sanitizer.NormalizeEmail(input.RecipientEmail)
	input.RecipientName = sanitizer.NormalizeName(input.RecipientName)
	if err := s.validator.Struct(input); err != nil {
		s.cfg.Log.Warn("Confirmation request validation failed", "error", err)
		return nil, validation.ToAppError(err)
	}

	project, err := s.projects.FindByID(ctx, input.ProjectID)
	if err != nil {
		return nil, translateProject(err, input.ProjectID)
	}

	token, err := s.newToken()
	if err != nil {
		return nil, apperrors.Internal("Failed to create confirmation request", err)
	}

	ttl := s.cfg.ConfirmationTTL
	if input.ExpiresInDays > 0 {
		ttl = time.Duration(input.ExpiresInDays) * 24 * time.Hour
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	request := &model.ConfirmationRequest{
		ProjectID:      project.ID,
		Token:          token,
		RecipientEmail: input.RecipientEmail,
		RecipientName:  input.RecipientName,
		SentAt:         now,
		ExpiresAt:      now.Add(ttl),
		Status:         model.ConfirmationPending,
		CreatedBy:      actor.ID,
		CreatedByEmail: actor.Email,
		CreatedAt:      now,
	}

	var assignments []*model.Assignment
	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		var err error
		assignments, err = s.loadTentative(ctx, project.ID, input.AssignmentIDs)
		if err != nil {
			return err
		}

		if err := s.requests.Create(ctx, request); err != nil {
			return apperrors.Internal("Failed to create confirmation request", err)
		}

		links := make([]*model.ConfirmationRequestAssignment, 0, len(assignments))
		for _, a := range assignments {
			links = append(links, &model.ConfirmationRequestAssignment{RequestID: request.ID, AssignmentID: a.ID})
		}
		if err := s.links.CreateMany(ctx, links); err != nil {
			return apperrors.Internal("Failed to link assignments to confirmation request", err)
		}

		note := fmt.Sprintf("Confirmation request sent to %s", request.RecipientEmail)
		if _, err := s.status.Apply(ctx, assignments, model.StatusPendingConfirm, actor.Label(), note); err != nil {
			return apperrors.Internal("Failed to update assignment status", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create confirmation request", "project_id", input.ProjectID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Confirmation request created successfully",
		"id", request.ID,
		"project_id", request.ProjectID,
		"token_hint", request.TokenHint(),
		"assignments", len(assignments),
	)

	result := &model.CreateConfirmationResult{Request: request, Link: s.link(token)}
	if err := s.sendRequestEmail(ctx, request, project, assignments, false); err != nil {
		s.cfg.Log.Warn("Failed to send confirmation email",
			"id", request.ID,
			"token_hint", request.TokenHint(),
			"error", err,
		)
		result.EmailError = err.Error()
	} else {
		result.EmailSent = true
	}
	return result, nil
}

// loadTentative loads ids and requires every one to exist, belong to the
// project and be tentative. Nothing is written when any check fails.
func (s *confirmationService) loadTentative(ctx context.Context, projectID string, ids []string) ([]*model.Assignment, error) {
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

	var missing, foreign, notTentative []string
	ordered := make([]*model.Assignment, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case a.ProjectID != projectID:
			foreign = append(foreign, id)
		case a.BookingStatus != model.StatusTentative:
			notTentative = append(notTentative, id)
		default:
			ordered = append(ordered, a)
		}
	}

	switch {
	case len(missing) > 0:
		return nil, apperrors.NotFound("Assignment").WithDetails(map[string]any{"resource": "Assignment", "ids": missing})
	case len(foreign) > 0:
		return nil, apperrors.InvalidInput("Assignments must belong to the project").WithDetails(map[string]any{"ids": foreign})
	case len(notTentative) > 0:
		return nil, apperrors.InvalidState("All assignments must be tentative before requesting confirmation").
			WithDetails(map[string]any{"ids": notTentative})
	}
	return ordered, nil
}

func (s *confirmationService) ListByProject(ctx context.Context, projectID string) ([]*model.ConfirmationRequest, error) {
	projectID = sanitizer.NormalizeIdentifier(projectID)
	if projectID == "" {
		return nil, apperrors.InvalidInput("project_id is required")
	}

	requests, err := s.requests.FindByProject(ctx, projectID)
	if err != nil {
		s.cfg.Log.Error("Failed to list confirmation requests", "project_id", projectID, "error", err)
		return nil, apperrors.Internal("Failed to list confirmation requests", err)
	}

	now := s.now()
	for _, r := range requests {
		if r.Status == model.ConfirmationPending && r.ExpiredAt(now) {
			s.expire(ctx, r)
		}
	}
	return requests, nil
}

func (s *confirmationService) Cancel(ctx context.Context, id string) error {
	actor, err := auth.RequireElevated(ctx)
	if err != nil {
		return err
	}

	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return translateRequest(err, id)
	}
	if request.Status != model.ConfirmationPending {
		return apperrors.InvalidState(fmt.Sprintf("Only pending confirmation requests can be cancelled, this one is %s", request.Status))
	}

	var reverted int
	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		assignments, err := s.linkedAssignments(ctx, request.ID)
		if err != nil {
			return err
		}

		if err := s.requests.Delete(ctx, request.ID); err != nil {
			if errors.Is(err, confirmationserrors.ErrNotPending) {
				return apperrors.InvalidState("Only pending confirmation requests can be cancelled")
			}
			return apperrors.Internal("Failed to cancel confirmation request", err)
		}
		if _, err := s.links.DeleteByRequests(ctx, []string{request.ID}); err != nil {
			return apperrors.Internal("Failed to cancel confirmation request", err)
		}

		reverted, err = s.status.Apply(ctx, assignments, model.StatusTentative, actor.Label(), "Confirmation request cancelled")
		if err != nil {
			return apperrors.Internal("Failed to revert assignment status", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to cancel confirmation request", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Confirmation request cancelled successfully", "id", id, "assignments", reverted)
	return nil
}

// Resend emails the same link again. The deadline is not extended and, unlike
// creation, a delivery failure is returned to the caller.
func (s *confirmationService) Resend(ctx context.Context, id string) (*model.ConfirmationRequest, error) {
	if _, err := auth.RequireElevated(ctx); err != nil {
		return nil, err
	}

	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, translateRequest(err, id)
	}
	if request.Status == model.ConfirmationPending && request.ExpiredAt(s.now()) {
		s.expire(ctx, request)
	}
	if request.Status != model.ConfirmationPending {
		return nil, apperrors.InvalidState(fmt.Sprintf("Only pending confirmation requests can be resent, this one is %s", request.Status))
	}

	project, err := s.projects.FindByID(ctx, request.ProjectID)
	if err != nil {
		return nil, translateProject(err, request.ProjectID)
	}
	assignments, err := s.linkedAssignments(ctx, request.ID)
	if err != nil {
		return nil, err
	}

	if err := s.sendRequestEmail(ctx, request, project, assignments, true); err != nil {
		s.cfg.Log.Error("Failed to resend confirmation email", "id", id, "token_hint", request.TokenHint(), "error", err)
		return nil, apperrors.Upstream("Failed to send confirmation email", err)
	}

	s.cfg.Log.Info("Confirmation email resent successfully", "id", id, "token_hint", request.TokenHint())
	return request, nil
}

func (s *confirmationService) PublicView(ctx context.Context, clientAddr, token string) (*model.PublicConfirmationView, error) {
	if err := s.allow(ctx, s.limiters.Lookup, "lookup:"+clientAddr); err != nil {
		return nil, err
	}

	request, err := s.findByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if request.Status == model.ConfirmationPending && request.ExpiredAt(s.now()) {
		s.expire(ctx, request)
	}

	project, err := s.projects.FindByID(ctx, request.ProjectID)
	if err != nil {
		if errors.Is(err, projectserrors.ErrNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, msgInvalidLink, http.StatusNotFound)
		}
		return nil, apperrors.Internal("Failed to load project", err)
	}

	assignments, err := s.linkedAssignments(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	publicDays, blocks, err := s.schedule(ctx, assignments)
	if err != nil {
		return nil, err
	}

	view := &model.PublicConfirmationView{
		ProjectName:  project.Name,
		CustomerName: request.RecipientName,
		Dates:        publicDays,
		Blocks:       blocks,
		ExpiresAt:    request.ExpiresAt,
		IsExpired:    request.Status == model.ConfirmationExpired,
		IsResponded:  request.Status == model.ConfirmationConfirmed || request.Status == model.ConfirmationDeclined,
	}
	if view.IsResponded {
		view.PreviousResponse = &model.PreviousResponse{
			Status:        request.Status,
			RespondedAt:   request.RespondedAt,
			DeclineReason: request.DeclineReason,
		}
	}
	return view, nil
}

func (s *confirmationService) Respond(ctx context.Context, clientAddr, token string, response *model.ConfirmationResponse) (*model.ConfirmationResponseResult, error) {
	if err := s.allow(ctx, s.limiters.Respond, "respond:"+clientAddr+":"+token); err != nil {
		return nil, err
	}

	response.Reason = sanitizer.NormalizeText(response.Reason)
	if err := s.validator.Struct(response); err != nil {
		return nil, validation.ToAppError(err)
	}

	request, err := s.findByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	switch request.Status {
	case model.ConfirmationPending:
	case model.ConfirmationExpired:
		return nil, apperrors.InvalidState(msgExpiredLink)
	default:
		return nil, apperrors.InvalidState(msgAlreadyResponded)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	if request.ExpiredAt(now) {
		s.expire(ctx, request)
		return nil, apperrors.InvalidState(msgExpiredLink)
	}

	var declineReason *string
	if response.Action == model.ActionDecline && response.Reason != "" {
		declineReason = &response.Reason
	}
	newStatus := response.Action.AssignmentStatus()
	changedBy := "customer:" + request.RecipientEmail
	note := "Confirmed by customer"
	if response.Action == model.ActionDecline {
		note = "Declined by customer"
		if declineReason != nil {
			note += ": " + *declineReason
		}
	}

	var assignments []*model.Assignment
	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		err := s.requests.MarkResponded(ctx, request.ID, response.Action.ResultingStatus(), now, declineReason)
		if err != nil {
			if errors.Is(err, confirmationserrors.ErrNotPending) {
				return apperrors.InvalidState(msgAlreadyResponded)
			}
			return apperrors.Internal("Failed to record response", err)
		}

		assignments, err = s.linkedAssignments(ctx, request.ID)
		if err != nil {
			return err
		}
		if _, err := s.status.Apply(ctx, assignments, newStatus, changedBy, note); err != nil {
			return apperrors.Internal("Failed to update assignment status", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Confirmation response rejected", "token_hint", request.TokenHint(), "error", err)
		return nil, err
	}

	request.Status = response.Action.ResultingStatus()
	request.RespondedAt = &now
	request.DeclineReason = declineReason

	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ID)
	}

	s.cfg.Log.Info("Confirmation response recorded successfully",
		"id", request.ID,
		"token_hint", request.TokenHint(),
		"status", request.Status,
		"assignments", len(ids),
	)

	s.notifyCreator(ctx, request, len(ids), newStatus)

	return &model.ConfirmationResponseResult{
		Status:        request.Status,
		AssignmentIDs: ids,
		BookingStatus: newStatus,
	}, nil
}

// allow fails open: a limiter error is logged and the call proceeds.
func (s *confirmationService) allow(ctx context.Context, limiter ratelimit.Limiter, key string) error {
	allowed, err := limiter.Allow(ctx, key)
	if err != nil {
		s.cfg.Log.Warn("Rate limiter unavailable, allowing request", "error", err)
		return nil
	}
	if !allowed {
		s.cfg.Log.Warn("Confirmation rate limit exceeded", "key_prefix", strings.SplitN(key, ":", 2)[0])
		return apperrors.RateLimited(msgTooManyAttempts)
	}
	return nil
}

func (s *confirmationService) findByToken(ctx context.Context, token string) (*model.ConfirmationRequest, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.New(apperrors.CodeNotFound, msgInvalidLink, http.StatusNotFound)
	}

	request, err := s.requests.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, confirmationserrors.ErrNotFound) {
			s.cfg.Log.Warn("Unknown confirmation token", "token_hint", model.TokenHint(token))
			return nil, apperrors.New(apperrors.CodeNotFound, msgInvalidLink, http.StatusNotFound)
		}
		s.cfg.Log.Error("Failed to look up confirmation token", "token_hint", model.TokenHint(token), "error", err)
		return nil, apperrors.Internal("Failed to load confirmation request", err)
	}
	return request, nil
}

// expire flips a pending request past its deadline to expired. Losing the
// race to another writer is fine: the request is no longer pending either way.
func (s *confirmationService) expire(ctx context.Context, request *model.ConfirmationRequest) {
	err := s.requests.MarkExpired(ctx, request.ID)
	switch {
	case err == nil:
		request.Status = model.ConfirmationExpired
		s.cfg.Log.Info("Confirmation request expired", "id", request.ID, "token_hint", request.TokenHint())
	case errors.Is(err, confirmationserrors.ErrNotPending):
		if current, findErr := s.requests.FindByID(ctx, request.ID); findErr == nil {
			request.Status = current.Status
		}
	default:
		s.cfg.Log.Error("Failed to expire confirmation request", "id", request.ID, "error", err)
	}
}

func (s *confirmationService) linkedAssignments(ctx context.Context, requestID string) ([]*model.Assignment, error) {
	links, err := s.links.FindByRequest(ctx, requestID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load confirmation assignments", err)
	}
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.AssignmentID)
	}

	assignments, err := s.assignments.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to load confirmation assignments", err)
	}
	return assignments, nil
}

// schedule lists every day of the assignments in date order and compacts the
// distinct dates into blocks.
func (s *confirmationService) schedule(ctx context.Context, assignments []*model.Assignment) ([]model.PublicDay, []timeline.Block, error) {
	names := make(map[string]string, len(assignments))
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		names[a.ID] = a.EngineerName
		ids = append(ids, a.ID)
	}

	days, err := s.days.FindByAssignments(ctx, ids)
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to load scheduled days", err)
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	publicDays := make([]model.PublicDay, 0, len(days))
	seen := map[string]bool{}
	var distinct []*model.AssignmentDay
	for _, d := range days {
		publicDays = append(publicDays, model.PublicDay{
			Date:         d.Date,
			StartTime:    d.StartTime,
			EndTime:      d.EndTime,
			EngineerName: names[d.AssignmentID],
		})
		if !seen[d.Date] {
			seen[d.Date] = true
			distinct = append(distinct, d)
		}
	}
	return publicDays, timeline.GroupDaysIntoBlocks(model.TimelineDays(distinct)), nil
}

func (s *confirmationService) sendRequestEmail(ctx context.Context, request *model.ConfirmationRequest, project *model.Project, assignments []*model.Assignment, reminder bool) error {
	_, blocks, err := s.schedule(ctx, assignments)
	if err != nil {
		return err
	}

	data := templates.RequestEmail{
		RecipientName: request.RecipientName,
		ProjectName:   project.Name,
		ClientName:    project.ClientName,
		Link:          s.link(request.Token),
		ExpiresAt:     request.ExpiresAt,
		Blocks:        blocks,
		Reminder:      reminder,
	}
	body, err := templates.RenderRequest(data)
	if err != nil {
		return err
	}

	return s.send(ctx, notifier.Email{
		To:        request.RecipientEmail,
		ToName:    request.RecipientName,
		Subject:   data.Subject(),
		HTMLBody:  body,
		Reference: request.ID,
	})
}

// notifyCreator tells the operator who sent the request about the response.
// Failures are only logged.
func (s *confirmationService) notifyCreator(ctx context.Context, request *model.ConfirmationRequest, count int, status model.BookingStatus) {
	if request.CreatedByEmail == "" {
		return
	}

	projectName := request.ProjectID
	if project, err := s.projects.FindByID(ctx, request.ProjectID); err == nil {
		projectName = project.Name
	}

	data := templates.ResponseEmail{
		RecipientName:   request.RecipientName,
		RecipientEmail:  request.RecipientEmail,
		ProjectName:     projectName,
		Confirmed:       request.Status == model.ConfirmationConfirmed,
		AssignmentCount: count,
		BookingStatus:   status,
	}
	if request.DeclineReason != nil {
		data.Reason = *request.DeclineReason
	}

	body, err := templates.RenderResponse(data)
	if err == nil {
		err = s.send(ctx, notifier.Email{
			To:        request.CreatedByEmail,
			Subject:   data.Subject(),
			HTMLBody:  body,
			Reference: request.ID,
		})
	}
	if err != nil {
		s.cfg.Log.Warn("Failed to notify request creator", "id", request.ID, "error", err)
	}
}

func (s *confirmationService) send(ctx context.Context, email notifier.Email) error {
	if s.notifier == nil {
		return errors.New("no notifier configured")
	}
	if s.cfg.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.NotifyTimeout)
		defer cancel()
	}
	return s.notifier.SendEmail(ctx, email)
}

func (s *confirmationService) link(token string) string {
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/confirm/" + token
}

func translateRequest(err error, id string) error {
	switch {
	case errors.Is(err, confirmationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Confirmation request", id)
	case errors.Is(err, confirmationserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid confirmation request ID format")
	}
	return apperrors.Internal("Failed to load confirmation request", err)
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
