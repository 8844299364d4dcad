package memstore

import (
	"context"
	"sort"
	"time"

	confirmationserrors "fieldsched/internal/confirmations/errors"
	confirmationsrepo "fieldsched/internal/confirmations/repository"
	"fieldsched/pkg/model"
)

var (
	_ confirmationsrepo.RequestRepository = (*Requests)(nil)
	_ confirmationsrepo.LinkRepository    = (*Links)(nil)
)

type Requests struct {
	s *Store
}

func (r *Requests) Create(_ context.Context, request *model.ConfirmationRequest) error {
	if err := r.s.fault(OpRequestCreate); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.data.requests {
		if existing.Token == request.Token {
			return confirmationserrors.ErrDuplicate
		}
	}

	request.ID = newID()
	r.s.data.requests = append(r.s.data.requests, clone(request))
	return nil
}

func (r *Requests) FindByID(_ context.Context, id string) (*model.ConfirmationRequest, error) {
	if !validID(id) {
		return nil, confirmationserrors.ErrInvalidID
	}
	return r.findOne(func(req *model.ConfirmationRequest) bool { return req.ID == id })
}

func (r *Requests) FindByToken(_ context.Context, token string) (*model.ConfirmationRequest, error) {
	return r.findOne(func(req *model.ConfirmationRequest) bool { return req.Token == token })
}

func (r *Requests) findOne(pred func(*model.ConfirmationRequest) bool) (*model.ConfirmationRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, req := range r.s.data.requests {
		if pred(req) {
			return clone(req), nil
		}
	}
	return nil, confirmationserrors.ErrNotFound
}

// FindByProject returns the project's requests newest first.
func (r *Requests) FindByProject(_ context.Context, projectID string) ([]*model.ConfirmationRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*model.ConfirmationRequest{}
	for _, req := range r.s.data.requests {
		if req.ProjectID == projectID {
			out = append(out, clone(req))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Requests) MarkResponded(_ context.Context, id string, status model.ConfirmationStatus, at time.Time, declineReason *string) error {
	return r.transition(id, func(req *model.ConfirmationRequest) {
		req.Status = status
		req.RespondedAt = &at
		if declineReason != nil {
			reason := *declineReason
			req.DeclineReason = &reason
		}
	})
}

func (r *Requests) MarkExpired(_ context.Context, id string) error {
	return r.transition(id, func(req *model.ConfirmationRequest) {
		req.Status = model.ConfirmationExpired
	})
}

func (r *Requests) transition(id string, apply func(*model.ConfirmationRequest)) error {
	if !validID(id) {
		return confirmationserrors.ErrInvalidID
	}
	if err := r.s.fault(OpRequestTransition); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, req := range r.s.data.requests {
		if req.ID == id && req.Status == model.ConfirmationPending {
			apply(req)
			return nil
		}
	}
	return confirmationserrors.ErrNotPending
}

func (r *Requests) Delete(_ context.Context, id string) error {
	if !validID(id) {
		return confirmationserrors.ErrInvalidID
	}
	if err := r.s.fault(OpRequestDelete); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int
	r.s.data.requests, removed = removeWhere(r.s.data.requests, func(req *model.ConfirmationRequest) bool {
		return req.ID == id && req.Status == model.ConfirmationPending
	})
	if removed == 0 {
		return confirmationserrors.ErrNotPending
	}
	return nil
}

func (r *Requests) DeleteByProject(_ context.Context, projectID string) ([]string, error) {
	if err := r.s.fault(OpRequestDelete); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := []string{}
	r.s.data.requests, _ = removeWhere(r.s.data.requests, func(req *model.ConfirmationRequest) bool {
		if req.ProjectID != projectID {
			return false
		}
		ids = append(ids, req.ID)
		return true
	})
	return ids, nil
}

type Links struct {
	s *Store
}

func (r *Links) CreateMany(_ context.Context, links []*model.ConfirmationRequestAssignment) error {
	if len(links) == 0 {
		return nil
	}
	if err := r.s.fault(OpLinkCreate); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seen := map[string]bool{}
	for _, l := range r.s.data.links {
		seen[l.RequestID+"|"+l.AssignmentID] = true
	}
	for _, l := range links {
		key := l.RequestID + "|" + l.AssignmentID
		if seen[key] {
			return confirmationserrors.ErrDuplicate
		}
		seen[key] = true
	}

	for _, l := range links {
		l.ID = newID()
		r.s.data.links = append(r.s.data.links, clone(l))
	}
	return nil
}

func (r *Links) FindByRequest(_ context.Context, requestID string) ([]*model.ConfirmationRequestAssignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*model.ConfirmationRequestAssignment{}
	for _, l := range r.s.data.links {
		if l.RequestID == requestID {
			out = append(out, clone(l))
		}
	}
	return out, nil
}

func (r *Links) DeleteByRequests(_ context.Context, requestIDs []string) (int64, error) {
	return r.deleteWhere(func(l *model.ConfirmationRequestAssignment) bool {
		return contains(requestIDs, l.RequestID)
	})
}

func (r *Links) DeleteByAssignments(_ context.Context, assignmentIDs []string) (int64, error) {
	return r.deleteWhere(func(l *model.ConfirmationRequestAssignment) bool {
		return contains(assignmentIDs, l.AssignmentID)
	})
}

func (r *Links) deleteWhere(pred func(*model.ConfirmationRequestAssignment) bool) (int64, error) {
	if err := r.s.fault(OpLinkDelete); err != nil {
		return 0, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int
	r.s.data.links, removed = removeWhere(r.s.data.links, pred)
	return int64(removed), nil
}
