package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Assignment"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad input", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad json"), CodeInvalidInput, http.StatusBadRequest},
		{"invalid state", InvalidState("not pending"), CodeInvalidState, http.StatusConflict},
		{"unauthorized", Unauthorized("missing token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("role required"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("duplicate"), CodeConflict, http.StatusConflict},
		{"rate limited", RateLimited("slow down"), CodeRateLimited, http.StatusTooManyRequests},
		{"upstream", Upstream("mail down", errors.New("dial tcp")), CodeUpstream, http.StatusBadGateway},
		{"internal", Internal("boom", errors.New("db")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	plain := NotFound("Project")
	if got := plain.Error(); got != "NOT_FOUND: Project not found" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := Upstream("notifier failed", errors.New("broker unreachable"))
	want := "UPSTREAM_FAILURE: notifier failed (caused by: broker unreachable)"
	if got := wrapped.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("original error")
	appErr := Internal("wrapped", cause)

	if !errors.Is(appErr, cause) {
		t.Errorf("errors.Is should find the cause through Unwrap")
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Assignment", "abc")

	if err.Details["id"] != "abc" || err.Details["resource"] != "Assignment" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestAsAppError(t *testing.T) {
	original := Forbidden("nope")
	wrapped := fmt.Errorf("handler: %w", original)

	if got := AsAppError(wrapped); got != original {
		t.Errorf("AsAppError should unwrap to the original AppError")
	}

	plain := errors.New("plain")
	got := AsAppError(plain)
	if got.Code != CodeInternal {
		t.Errorf("plain errors should map to %s, got %s", CodeInternal, got.Code)
	}
	if !errors.Is(got, plain) {
		t.Errorf("internal wrapper should keep the cause")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", RateLimited("too many"))

	if !HasCode(err, CodeRateLimited) {
		t.Errorf("HasCode should match wrapped rate limit error")
	}
	if HasCode(err, CodeNotFound) {
		t.Errorf("HasCode should not match a different code")
	}
	if HasCode(errors.New("x"), CodeInternal) {
		t.Errorf("HasCode should be false for non-AppErrors")
	}
}

func TestAppError_StatusCodeDefault(t *testing.T) {
	err := &AppError{Code: "X", Message: "no status"}
	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("zero HTTPStatus should default to 500, got %d", err.StatusCode())
	}
}
