package middleware

import (
	"bytes"
	"net/http"
	"sync"
	"time"
)

const DefaultIdempotencyHeader = "Idempotency-Key"

type IdempotencyStore interface {
	Get(key string) (*CachedResponse, bool)
	Set(key string, response *CachedResponse)
}

type CachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	CreatedAt  time.Time
}

// InMemoryIdempotencyStore keeps responses for ttl. Expired entries are
// dropped on read and swept on write once the map passes sweepThreshold.
type InMemoryIdempotencyStore struct {
	mu             sync.Mutex
	store          map[string]*CachedResponse
	ttl            time.Duration
	sweepThreshold int
	now            func() time.Time
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{
		store:          make(map[string]*CachedResponse),
		ttl:            ttl,
		sweepThreshold: 1000,
		now:            time.Now,
	}
}

func (s *InMemoryIdempotencyStore) Get(key string) (*CachedResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	response, exists := s.store[key]
	if !exists {
		return nil, false
	}
	if s.now().Sub(response.CreatedAt) > s.ttl {
		delete(s.store, key)
		return nil, false
	}
	return response, true
}

func (s *InMemoryIdempotencyStore) Set(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if len(s.store) >= s.sweepThreshold {
		for k, cached := range s.store {
			if now.Sub(cached.CreatedAt) > s.ttl {
				delete(s.store, k)
			}
		}
	}
	response.CreatedAt = now
	s.store[key] = response
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// ScopeFunc namespaces an idempotency key, typically by caller, so two
// callers reusing the same key never see each other's responses.
type ScopeFunc func(r *http.Request) string

// Idempotency replays the stored 2xx response for a repeated key on mutating
// requests. Keys are namespaced by scope, method and path.
func Idempotency(store IdempotencyStore, headerName string, scope ScopeFunc) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = DefaultIdempotencyHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(headerName)
			if key == "" || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			if scope != nil {
				key = scope(r) + "|" + key
			}
			key = r.Method + " " + r.URL.Path + "|" + key

			if cached, found := store.Get(key); found {
				replayCachedResponse(w, cached)
				return
			}

			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK, body: &bytes.Buffer{}}
			next.ServeHTTP(capture, r)

			if capture.statusCode >= 200 && capture.statusCode < 300 {
				store.Set(key, &CachedResponse{
					StatusCode: capture.statusCode,
					Headers:    w.Header().Clone(),
					Body:       capture.body.Bytes(),
				})
			}
		})
	}
}

func replayCachedResponse(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
