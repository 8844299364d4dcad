// Package ratelimit provides keyed request limiters. Callers build the key
// (client address, token, actor) and ask whether one more request fits in the
// current window.
package ratelimit

import "context"

// Limiter decides whether a request identified by key may proceed. An error
// means the limiter could not decide; callers choose whether to fail open.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Func adapts a function to the Limiter interface.
type Func func(ctx context.Context, key string) (bool, error)

func (f Func) Allow(ctx context.Context, key string) (bool, error) {
	return f(ctx, key)
}

// Unlimited allows everything.
var Unlimited Limiter = Func(func(context.Context, string) (bool, error) { return true, nil })
