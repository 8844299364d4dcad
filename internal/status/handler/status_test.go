package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	"fieldsched/internal/status/service"
	"fieldsched/internal/testutil"
	apperrors "fieldsched/pkg/errors"
	"fieldsched/pkg/model"
	"fieldsched/pkg/validation"
)

func newTestRouter(t *testing.T) (*httprouter.Router, *testutil.Fixture) {
	t.Helper()
	f := testutil.NewFixture(t)
	cfg := testutil.Config()
	svc := service.NewStatusService(f.Store.Projects(), f.Store.Assignments(), f.Store.History(), f.Store.TxManager(), validation.MustNew(), cfg)

	router := httprouter.New()
	NewStatusHandler(svc, cfg.Log).RegisterRoutes(router)
	return router, f
}

func serve(ctx context.Context, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCycle(t *testing.T) {
	router, f := newTestRouter(t)
	p := f.Project("Harbour", "2025-01-06", "2025-01-10")
	a := f.Assignment(p.ID, "eng-1", model.StatusTentative)

	w := serve(testutil.AsScheduler(), router, http.MethodPost, "/api/v1/assignments/id/"+a.ID+"/cycle", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Data model.CycleResult `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.PreviousStatus != model.StatusTentative || body.Data.NewStatus != model.StatusConfirmed {
		t.Errorf("unexpected result %+v", body.Data)
	}
}

func TestCycle_Viewer(t *testing.T) {
	router, f := newTestRouter(t)
	p := f.Project("Harbour", "", "")
	a := f.Assignment(p.ID, "eng-1", model.StatusDraft)

	w := serve(testutil.AsViewer(), router, http.MethodPost, "/api/v1/assignments/id/"+a.ID+"/cycle", "")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	if got := f.Reload(a).BookingStatus; got != model.StatusDraft {
		t.Errorf("status changed to %s", got)
	}
}

func TestBulkUpdate(t *testing.T) {
	router, f := newTestRouter(t)
	p := f.Project("Harbour", "", "")
	a := f.Assignment(p.ID, "eng-1", model.StatusDraft)
	b := f.Assignment(p.ID, "eng-2", model.StatusConfirmed)

	body := `{"assignment_ids":["` + a.ID + `","` + b.ID + `"],"status":"confirmed"}`
	w := serve(testutil.AsScheduler(), router, http.MethodPost, "/api/v1/assignments/bulk-status", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data model.BulkStatusResult `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.UpdatedCount != 1 || resp.Data.SkippedCount != 1 {
		t.Errorf("unexpected result %+v", resp.Data)
	}
}

func TestBulkUpdate_Rejected(t *testing.T) {
	router, f := newTestRouter(t)
	p := f.Project("Harbour", "", "")
	a := f.Assignment(p.ID, "eng-1", model.StatusDraft)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"pending_confirm", `{"assignment_ids":["` + a.ID + `"],"status":"pending_confirm"}`, http.StatusUnprocessableEntity, apperrors.CodeValidation},
		{"unknown status", `{"assignment_ids":["` + a.ID + `"],"status":"maybe"}`, http.StatusUnprocessableEntity, apperrors.CodeValidation},
		{"empty ids", `{"assignment_ids":[],"status":"confirmed"}`, http.StatusUnprocessableEntity, apperrors.CodeValidation},
		{"missing assignment", `{"assignment_ids":["65f0c0ffee0000000000beef"],"status":"confirmed"}`, http.StatusNotFound, apperrors.CodeNotFound},
		{"unknown field", `{"ids":[],"status":"confirmed"}`, http.StatusBadRequest, apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(testutil.AsScheduler(), router, http.MethodPost, "/api/v1/assignments/bulk-status", tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			var body apperrors.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, body.Code)
			}
		})
	}

	if got := f.Reload(a).BookingStatus; got != model.StatusDraft {
		t.Errorf("status changed to %s", got)
	}
}

func TestUpdateProjectScheduleStatus(t *testing.T) {
	router, f := newTestRouter(t)
	p := f.Project("Harbour", "2025-01-06", "2025-01-10")
	a := f.Assignment(p.ID, "eng-1", model.StatusDraft)
	b := f.Assignment(p.ID, "eng-2", model.StatusDraft)

	body := `{"status":"tentative","cascade":true,"assignment_ids":["` + a.ID + `"]}`
	w := serve(testutil.AsScheduler(), router, http.MethodPatch, "/api/v1/projects/id/"+p.ID+"/schedule-status", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if got := f.Reload(a).BookingStatus; got != model.StatusTentative {
		t.Errorf("expected listed assignment tentative, got %s", got)
	}
	if got := f.Reload(b).BookingStatus; got != model.StatusDraft {
		t.Errorf("expected unlisted assignment untouched, got %s", got)
	}
}
