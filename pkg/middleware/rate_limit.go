package middleware

import (
	"net/http"

	apperrors "fieldsched/pkg/errors"
	httputil "fieldsched/pkg/http"
	"fieldsched/pkg/logger"
	"fieldsched/pkg/ratelimit"
)

// KeyFunc derives the rate limit key for a request. An empty key bypasses the
// limiter.
type KeyFunc func(r *http.Request) string

// ClientAddressKey limits by the caller's network address.
func ClientAddressKey(r *http.Request) string {
	return httputil.ClientAddress(r)
}

// RateLimit rejects requests over the limiter's quota with 429. Limiter
// failures are logged and the request is let through.
func RateLimit(limiter ratelimit.Limiter, keyFunc KeyFunc, log *logger.Logger) func(http.Handler) http.Handler {
	if keyFunc == nil {
		keyFunc = ClientAddressKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.Warn("Rate limiter unavailable, allowing request",
					"request_id", RequestIDFromContext(r.Context()),
					"error", err,
				)
				allowed = true
			}
			if !allowed {
				log.Warn("Rate limit exceeded",
					"request_id", RequestIDFromContext(r.Context()),
					"key", key,
					"path", LogPath(r),
				)
				_ = httputil.WriteError(w, apperrors.RateLimited("Too many requests, please try again later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
