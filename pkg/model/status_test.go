package model

import "testing"

func TestNextInCycle(t *testing.T) {
	tests := []struct {
		from     BookingStatus
		expected BookingStatus
	}{
		{StatusDraft, StatusTentative},
		{StatusTentative, StatusConfirmed},
		{StatusPendingConfirm, StatusConfirmed},
		{StatusConfirmed, StatusComplete},
		{StatusComplete, StatusDraft},
		{BookingStatus("bogus"), StatusDraft},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			if got := tt.from.NextInCycle(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestNextInCycle_NeverPendingConfirm(t *testing.T) {
	reached := map[BookingStatus]bool{}
	current := StatusDraft
	for i := 0; i < 20; i++ {
		current = current.NextInCycle()
		if current == StatusPendingConfirm {
			t.Fatal("cycle landed on pending_confirm")
		}
		reached[current] = true
	}
	if len(reached) != 4 {
		t.Errorf("expected 4 reachable states, got %d: %v", len(reached), reached)
	}
}

func TestManuallySettable(t *testing.T) {
	for _, s := range BookingStatuses() {
		expected := s != StatusPendingConfirm
		if got := s.ManuallySettable(); got != expected {
			t.Errorf("%s: expected %v, got %v", s, expected, got)
		}
	}
	if BookingStatus("").ManuallySettable() {
		t.Error("empty status should not be settable")
	}
}

func TestParseBookingStatus(t *testing.T) {
	if _, err := ParseBookingStatus("confirmed"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseBookingStatus("declined"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestConfirmationAction(t *testing.T) {
	tests := []struct {
		action        ConfirmationAction
		valid         bool
		requestStatus ConfirmationStatus
		bookingStatus BookingStatus
	}{
		{ActionConfirm, true, ConfirmationConfirmed, StatusConfirmed},
		{ActionDecline, true, ConfirmationDeclined, StatusTentative},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			if tt.action.Valid() != tt.valid {
				t.Errorf("expected valid=%v", tt.valid)
			}
			if got := tt.action.ResultingStatus(); got != tt.requestStatus {
				t.Errorf("expected request status %s, got %s", tt.requestStatus, got)
			}
			if got := tt.action.AssignmentStatus(); got != tt.bookingStatus {
				t.Errorf("expected booking status %s, got %s", tt.bookingStatus, got)
			}
		})
	}

	if ConfirmationAction("maybe").Valid() {
		t.Error("unknown action should be invalid")
	}
}

func TestConfirmationStatusTerminal(t *testing.T) {
	if ConfirmationPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	for _, s := range []ConfirmationStatus{ConfirmationConfirmed, ConfirmationDeclined, ConfirmationExpired} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestProjectHasDates(t *testing.T) {
	start, end, empty := "2024-01-10", "2024-01-12", ""
	tests := []struct {
		name     string
		project  Project
		expected bool
	}{
		{"both set", Project{StartDate: &start, EndDate: &end}, true},
		{"missing end", Project{StartDate: &start}, false},
		{"empty start", Project{StartDate: &empty, EndDate: &end}, false},
		{"none", Project{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.project.HasDates(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestTokenHint(t *testing.T) {
	if got := TokenHint("abcdef0123456789"); got != "abcdef01" {
		t.Errorf("expected abcdef01, got %s", got)
	}
	if got := TokenHint("abc"); got != "abc" {
		t.Errorf("expected abc, got %s", got)
	}
}
