package auth

import (
	"context"
	"net/http"

	apperrors "fieldsched/pkg/errors"
)

const (
	RoleAdmin     = "admin"
	RoleScheduler = "scheduler"
	RoleViewer    = "viewer"
)

// Actor is the authenticated operator behind a request.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Elevated reports whether the actor may mutate schedules.
func (a *Actor) Elevated() bool {
	return a != nil && (a.Role == RoleAdmin || a.Role == RoleScheduler)
}

type contextKey string

const actorKey contextKey = "actor"

func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (*Actor, bool) {
	actor, ok := ctx.Value(actorKey).(*Actor)
	return actor, ok && actor != nil
}

func RequireActor(ctx context.Context) (*Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	return actor, nil
}

func RequireElevated(ctx context.Context) (*Actor, error) {
	actor, err := RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.Elevated() {
		return nil, apperrors.Forbidden("Scheduler or admin role required")
	}
	return actor, nil
}

// ActorKey keys per-operator limits and idempotency scopes. Requests without
// an actor yield "".
func ActorKey(r *http.Request) string {
	if actor, ok := ActorFromContext(r.Context()); ok {
		return "actor:" + actor.ID
	}
	return ""
}

// Label is the identity recorded in audit fields: the email when known,
// otherwise the subject id.
func (a *Actor) Label() string {
	if a.Email != "" {
		return a.Email
	}
	return a.ID
}
