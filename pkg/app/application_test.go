package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	healthhandler "fieldsched/internal/health/handler"
	"fieldsched/pkg/auth"
	"fieldsched/pkg/config"
	"fieldsched/pkg/contracts"
	"fieldsched/pkg/logger"
	"fieldsched/pkg/ratelimit"
)

const testSecret = "test-secret-0123456789"

type echoActorHandler struct{}

func (echoActorHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/whoami", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		actor, _ := auth.ActorFromContext(r.Context())
		_, _ = w.Write([]byte(actor.ID))
	})
}

type publicStub struct{}

func (publicStub) RegisterRoutes(router *httprouter.Router) {
	router.GET("/public/confirm/:token", func(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
		_, _ = w.Write([]byte(ps.ByName("token")))
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Log:            logger.Discard(),
		Port:           "0",
		RequestTimeout: 5 * time.Second,
		IdempotencyTTL: time.Minute,
		MaxRequestSize: 1 << 20,
	}
}

func newTestApp(t *testing.T, limiter ratelimit.Limiter, checks map[string]healthhandler.Check) (http.Handler, *auth.Verifier) {
	t.Helper()
	cfg := testConfig()
	verifier := auth.NewVerifier(testSecret, "", cfg.Log)

	a := NewApplication(cfg)
	a.SetApp(Routes{
		Health:          healthhandler.NewHealthHandler(checks, cfg.Log),
		Operator:        []contracts.Handler{echoActorHandler{}},
		Public:          []contracts.Handler{publicStub{}},
		Verifier:        verifier,
		OperatorLimiter: limiter,
	})
	return a.Handler(), verifier
}

func bearer(t *testing.T, v *auth.Verifier, id string) string {
	t.Helper()
	token, err := v.Sign(auth.Actor{ID: id, Email: id + "@example.com", Role: auth.RoleScheduler}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + token
}

func TestOperatorRoutesRequireBearerToken(t *testing.T) {
	h, v := newTestApp(t, nil, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", bearer(t, v, "op-7"))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "op-7" {
		t.Errorf("expected actor op-7, got %d %q", w.Code, w.Body.String())
	}
}

func TestPublicRoutesSkipAuthentication(t *testing.T) {
	h, _ := newTestApp(t, nil, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/confirm/abc", nil))
	if w.Code != http.StatusOK || w.Body.String() != "abc" {
		t.Errorf("expected public route to answer, got %d %q", w.Code, w.Body.String())
	}
}

func TestOperatorRateLimitPerActor(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(ratelimit.MemoryConfig{Limit: 1, Window: time.Minute})
	h, v := newTestApp(t, limiter, nil)

	call := func(id string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.Header.Set("Authorization", bearer(t, v, id))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	if code := call("op-1"); code != http.StatusOK {
		t.Fatalf("first call: expected 200, got %d", code)
	}
	if code := call("op-1"); code != http.StatusTooManyRequests {
		t.Errorf("second call: expected 429, got %d", code)
	}
	if code := call("op-2"); code != http.StatusOK {
		t.Errorf("other actor: expected 200, got %d", code)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	failing := map[string]healthhandler.Check{
		"mongo": func(context.Context) error { return errors.New("no primary") },
	}
	h, _ := newTestApp(t, nil, failing)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready: expected 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"mongo":"error"`) {
		t.Errorf("expected failing dependency in body, got %s", w.Body.String())
	}
}
