// Package memstore is an in-process implementation of every repository
// interface. It backs STORE_BACKEND=memory and the service tests.
//
// Transactions are serialized and roll back by restoring a snapshot taken at
// begin. Writes made outside a transaction while one is running are lost if
// that transaction rolls back, so the store is meant for single-node use.
package memstore

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	mongotx "fieldsched/pkg/db/mongo"
	"fieldsched/pkg/model"
)

// Operation names accepted by FailNext.
const (
	OpProjectCreate     = "projects.create"
	OpProjectUpdate     = "projects.update"
	OpProjectDelete     = "projects.delete"
	OpAssignmentCreate  = "assignments.create"
	OpAssignmentUpdate  = "assignments.update_status"
	OpAssignmentDelete  = "assignments.delete"
	OpDayCreate         = "days.create"
	OpDayUpdate         = "days.update"
	OpDayDelete         = "days.delete"
	OpHistoryInsert     = "history.insert"
	OpHistoryDelete     = "history.delete"
	OpConflictCreate    = "conflicts.create"
	OpConflictResolve   = "conflicts.resolve"
	OpRequestCreate     = "requests.create"
	OpRequestTransition = "requests.transition"
	OpRequestDelete     = "requests.delete"
	OpLinkCreate        = "links.create"
	OpLinkDelete        = "links.delete"
)

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data data

	faultMu sync.Mutex
	faults  map[string]error

	now func() time.Time
}

type data struct {
	projects    []*model.Project
	assignments []*model.Assignment
	days        []*model.AssignmentDay
	history     []*model.StatusHistory
	conflicts   []*model.BookingConflict
	requests    []*model.ConfirmationRequest
	links       []*model.ConfirmationRequestAssignment
}

type Option func(*Store)

// WithClock overrides the clock used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		faults: map[string]error{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Projects() *Projects       { return &Projects{s: s} }
func (s *Store) Assignments() *Assignments { return &Assignments{s: s} }
func (s *Store) Days() *Days               { return &Days{s: s} }
func (s *Store) History() *History         { return &History{s: s} }
func (s *Store) Conflicts() *Conflicts     { return &Conflicts{s: s} }
func (s *Store) Requests() *Requests       { return &Requests{s: s} }
func (s *Store) Links() *Links             { return &Links{s: s} }

// FailNext makes the next call of op return err without touching any data.
func (s *Store) FailNext(op string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = err
}

func (s *Store) fault(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	err, ok := s.faults[op]
	if !ok {
		return nil
	}
	delete(s.faults, op)
	return err
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func validID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

type txKey struct{}

type txManager struct {
	s *Store
}

// TxManager returns a transaction manager whose transactions roll every
// collection back when fn fails.
func (s *Store) TxManager() mongotx.TransactionManager {
	return &txManager{s: s}
}

func (m *txManager) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()

	snap := m.s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) snapshot() data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return data{
		projects:    cloneAll(s.data.projects),
		assignments: cloneAll(s.data.assignments),
		days:        cloneAll(s.data.days),
		history:     cloneAll(s.data.history),
		conflicts:   cloneAll(s.data.conflicts),
		requests:    cloneAll(s.data.requests),
		links:       cloneAll(s.data.links),
	}
}

func (s *Store) restore(d data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = d
}

func clone[T any](v *T) *T {
	c := *v
	return &c
}

func cloneAll[T any](in []*T) []*T {
	out := make([]*T, 0, len(in))
	for _, v := range in {
		out = append(out, clone(v))
	}
	return out
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// removeWhere drops every element matching pred and reports how many went.
func removeWhere[T any](in []*T, pred func(*T) bool) ([]*T, int) {
	out := in[:0]
	removed := 0
	for _, v := range in {
		if pred(v) {
			removed++
			continue
		}
		out = append(out, v)
	}
	for i := len(out); i < len(in); i++ {
		in[i] = nil
	}
	return out, removed
}
