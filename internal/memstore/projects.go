package memstore

import (
	"context"

	projectserrors "fieldsched/internal/projects/errors"
	projectsrepo "fieldsched/internal/projects/repository"
	"fieldsched/pkg/model"
)

var _ projectsrepo.ProjectRepository = (*Projects)(nil)

type Projects struct {
	s *Store
}

func (r *Projects) Create(_ context.Context, project *model.Project) error {
	if err := r.s.fault(OpProjectCreate); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.timestamp()
	project.ID = newID()
	project.CreatedAt = now
	project.UpdatedAt = now
	r.s.data.projects = append(r.s.data.projects, clone(project))
	return nil
}

func (r *Projects) FindByID(_ context.Context, id string) (*model.Project, error) {
	if !validID(id) {
		return nil, projectserrors.ErrInvalidID
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.data.projects {
		if p.ID == id {
			return clone(p), nil
		}
	}
	return nil, projectserrors.ErrNotFound
}

func (r *Projects) FindByIDs(_ context.Context, ids []string) ([]*model.Project, error) {
	for _, id := range ids {
		if !validID(id) {
			return nil, projectserrors.ErrInvalidID
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*model.Project{}
	for _, p := range r.s.data.projects {
		if contains(ids, p.ID) {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (r *Projects) UpdateDates(_ context.Context, id string, startDate, endDate string) error {
	return r.update(id, func(p *model.Project) {
		p.StartDate = &startDate
		p.EndDate = &endDate
	})
}

func (r *Projects) UpdateScheduleStatus(_ context.Context, id string, status model.BookingStatus) error {
	return r.update(id, func(p *model.Project) {
		p.ScheduleStatus = model.StatusPtr(status)
	})
}

func (r *Projects) update(id string, apply func(*model.Project)) error {
	if !validID(id) {
		return projectserrors.ErrInvalidID
	}
	if err := r.s.fault(OpProjectUpdate); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.data.projects {
		if p.ID == id {
			apply(p)
			p.UpdatedAt = r.s.timestamp()
			return nil
		}
	}
	return projectserrors.ErrNotFound
}

func (r *Projects) Delete(_ context.Context, id string) error {
	if !validID(id) {
		return projectserrors.ErrInvalidID
	}
	if err := r.s.fault(OpProjectDelete); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int
	r.s.data.projects, removed = removeWhere(r.s.data.projects, func(p *model.Project) bool {
		return p.ID == id
	})
	if removed == 0 {
		return projectserrors.ErrNotFound
	}
	return nil
}
