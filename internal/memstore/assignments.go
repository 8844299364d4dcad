package memstore

import (
	"context"
	"sort"

	assignmentserrors "fieldsched/internal/assignments/errors"
	assignmentsrepo "fieldsched/internal/assignments/repository"
	"fieldsched/pkg/model"
)

var (
	_ assignmentsrepo.AssignmentRepository = (*Assignments)(nil)
	_ assignmentsrepo.DayRepository        = (*Days)(nil)
	_ assignmentsrepo.HistoryRepository    = (*History)(nil)
)

type Assignments struct {
	s *Store
}

func (r *Assignments) Create(_ context.Context, assignment *model.Assignment) error {
	if err := r.s.fault(OpAssignmentCreate); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.data.assignments {
		if a.EngineerID == assignment.EngineerID && a.ProjectID == assignment.ProjectID {
			return assignmentserrors.ErrDuplicate
		}
	}

	now := r.s.timestamp()
	assignment.ID = newID()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	r.s.data.assignments = append(r.s.data.assignments, clone(assignment))
	return nil
}

func (r *Assignments) FindByID(_ context.Context, id string) (*model.Assignment, error) {
	if !validID(id) {
		return nil, assignmentserrors.ErrInvalidID
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.data.assignments {
		if a.ID == id {
			return clone(a), nil
		}
	}
	return nil, assignmentserrors.ErrNotFound
}

func (r *Assignments) FindByIDs(_ context.Context, ids []string) ([]*model.Assignment, error) {
	for _, id := range ids {
		if !validID(id) {
			return nil, assignmentserrors.ErrInvalidID
		}
	}
	return r.filter(func(a *model.Assignment) bool { return contains(ids, a.ID) }), nil
}

func (r *Assignments) FindByProject(_ context.Context, projectID string) ([]*model.Assignment, error) {
	return r.filter(func(a *model.Assignment) bool { return a.ProjectID == projectID }), nil
}

func (r *Assignments) filter(pred func(*model.Assignment) bool) []*model.Assignment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*model.Assignment{}
	for _, a := range r.s.data.assignments {
		if pred(a) {
			out = append(out, clone(a))
		}
	}
	return out
}

func (r *Assignments) UpdateStatusMany(_ context.Context, ids []string, status model.BookingStatus) (int64, error) {
	for _, id := range ids {
		if !validID(id) {
			return 0, assignmentserrors.ErrInvalidID
		}
	}
	if err := r.s.fault(OpAssignmentUpdate); err != nil {
		return 0, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.timestamp()
	var matched int64
	for _, a := range r.s.data.assignments {
		if contains(ids, a.ID) {
			a.BookingStatus = status
			a.UpdatedAt = now
			matched++
		}
	}
	return matched, nil
}

func (r *Assignments) Delete(_ context.Context, id string) error {
	if !validID(id) {
		return assignmentserrors.ErrInvalidID
	}
	if err := r.s.fault(OpAssignmentDelete); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int
	r.s.data.assignments, removed = removeWhere(r.s.data.assignments, func(a *model.Assignment) bool {
		return a.ID == id
	})
	if removed == 0 {
		return assignmentserrors.ErrNotFound
	}
	return nil
}

func (r *Assignments) DeleteByProject(_ context.Context, projectID string) (int64, error) {
	if err := r.s.fault(OpAssignmentDelete); err != nil {
		return 0, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int
	r.s.data.assignments, removed = removeWhere(r.s.data.assignments, func(a *model.Assignment) bool {
		return a.ProjectID == projectID
	})
	return int64(removed), nil
}

type Days struct {
	s *Store
}

func (r *Days) CreateMany(_ context.Context, days []*model.AssignmentDay) error {
	if len(days) == 0 {
		return nil
	}
	if err := r.s.fault(OpDayCreate); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seen := map[string]bool{}
	for _, d := range r.s.data.days {
		seen[d.AssignmentID+"|"+d.Date] = true
	}
	for _, d := range days {
		key := d.AssignmentID + "|" + d.Date
		if seen[key] {
			return assignmentserrors.ErrDuplicateDay
		}
		seen[key] = true
	}

	now := r.s.timestamp()
	for _, d := range days {
		d.ID = newID()
		d.CreatedAt = now
		r.s.data.days = append(r.s.data.days, clone(d))
	}
	return nil
}

func (r *Days) FindByAssignment(_ context.Context, assignmentID string) ([]*model.AssignmentDay, error) {
	return r.filter(func(d *model.AssignmentDay) bool { return d.AssignmentID == assignmentID }), nil
}

func (r *Days) FindByAssignments(_ context.Context, assignmentIDs []string) ([]*model.AssignmentDay, error) {
	return r.filter(func(d *model.AssignmentDay) bool { return contains(assignmentIDs, d.AssignmentID) }), nil
}

func (r *Days) FindByEngineerInRange(_ context.Context, engineerID, start, end, excludeAssignmentID string) ([]*model.AssignmentDay, error) {
	return r.filter(func(d *model.AssignmentDay) bool {
		if d.EngineerID != engineerID || !model.DateInRange(d.Date, start, end) {
			return false
		}
		return excludeAssignmentID == "" || d.AssignmentID != excludeAssignmentID
	}), nil
}

// filter returns matching days ordered by date then assignment.
func (r *Days) filter(pred func(*model.AssignmentDay) bool) []*model.AssignmentDay {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*model.AssignmentDay{}
	for _, d := range r.s.data.days {
		if pred(d) {
			out = append(out, clone(d))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].AssignmentID < out[j].AssignmentID
	})
	return out
}

func (r *Days) UpdateTimes(_ context.Context, assignmentID, date, startTime, endTime string) error {
	if err := r.s.fault(OpDayUpdate); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, d := range r.s.data.days {
		if d.AssignmentID == assignmentID && d.Date == date {
			d.StartTime = startTime
			d.EndTime = endTime
			return nil
		}
	}
	return assignmentserrors.ErrDayNotFound
}

func (r *Days) Delete(_ context.Context, assignmentID, date string) error {
	if err := r.s.fault(OpDayDelete); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int
	r.s.data.days, removed = removeWhere(r.s.data.days, func(d *model.AssignmentDay) bool {
		return d.AssignmentID == assignmentID && d.Date == date
	})
	if removed == 0 {
		return assignmentserrors.ErrDayNotFound
	}
	return nil
}

func (r *Days) DeleteByAssignments(_ context.Context, assignmentIDs []string) (int64, error) {
	if err := r.s.fault(OpDayDelete); err != nil {
		return 0, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int
	r.s.data.days, removed = removeWhere(r.s.data.days, func(d *model.AssignmentDay) bool {
		return contains(assignmentIDs, d.AssignmentID)
	})
	return int64(removed), nil
}

type History struct {
	s *Store
}

func (r *History) InsertMany(_ context.Context, rows []*model.StatusHistory) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.s.fault(OpHistoryInsert); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, row := range rows {
		row.ID = newID()
		r.s.data.history = append(r.s.data.history, clone(row))
	}
	return nil
}

// FindByAssignment returns rows in insertion order.
func (r *History) FindByAssignment(_ context.Context, assignmentID string) ([]*model.StatusHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*model.StatusHistory{}
	for _, row := range r.s.data.history {
		if row.AssignmentID == assignmentID {
			out = append(out, clone(row))
		}
	}
	return out, nil
}

func (r *History) DeleteByAssignments(_ context.Context, assignmentIDs []string) (int64, error) {
	if err := r.s.fault(OpHistoryDelete); err != nil {
		return 0, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int
	r.s.data.history, removed = removeWhere(r.s.data.history, func(row *model.StatusHistory) bool {
		return contains(assignmentIDs, row.AssignmentID)
	})
	return int64(removed), nil
}
