package memstore

import (
	"context"
	"sort"
	"time"

	conflictserrors "fieldsched/internal/conflicts/errors"
	conflictsrepo "fieldsched/internal/conflicts/repository"
	"fieldsched/pkg/model"
)

var _ conflictsrepo.ConflictRepository = (*Conflicts)(nil)

type Conflicts struct {
	s *Store
}

func (r *Conflicts) CreateMany(_ context.Context, conflicts []*model.BookingConflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	if err := r.s.fault(OpConflictCreate); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range conflicts {
		c.ID = newID()
		r.s.data.conflicts = append(r.s.data.conflicts, clone(c))
	}
	return nil
}

func (r *Conflicts) FindByID(_ context.Context, id string) (*model.BookingConflict, error) {
	if !validID(id) {
		return nil, conflictserrors.ErrInvalidID
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.data.conflicts {
		if c.ID == id {
			return clone(c), nil
		}
	}
	return nil, conflictserrors.ErrNotFound
}

func (r *Conflicts) FindUnresolved(_ context.Context, engineerID string) ([]*model.BookingConflict, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*model.BookingConflict{}
	for _, c := range r.s.data.conflicts {
		if c.IsResolved || (engineerID != "" && c.EngineerID != engineerID) {
			continue
		}
		out = append(out, clone(c))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *Conflicts) MarkResolved(_ context.Context, id, reason, resolvedBy string, at time.Time) error {
	if !validID(id) {
		return conflictserrors.ErrInvalidID
	}
	if err := r.s.fault(OpConflictResolve); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.data.conflicts {
		if c.ID != id {
			continue
		}
		if c.IsResolved {
			return conflictserrors.ErrAlreadyResolved
		}
		c.IsResolved = true
		c.OverrideReason = &reason
		c.ResolvedBy = &resolvedBy
		c.ResolvedAt = &at
		return nil
	}
	return conflictserrors.ErrAlreadyResolved
}
