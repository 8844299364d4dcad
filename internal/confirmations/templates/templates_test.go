package templates

import (
	"strings"
	"testing"
	"time"

	"fieldsched/pkg/timeline"
)

func TestRenderRequest(t *testing.T) {
	blocks := timeline.GroupDaysIntoBlocks([]timeline.Day{
		{Date: "2024-01-15", StartTime: "08:00", EndTime: "17:00"},
		{Date: "2024-01-16", StartTime: "08:00", EndTime: "17:00"},
		{Date: "2024-01-19", StartTime: "08:00", EndTime: "12:00"},
	})

	body, err := RenderRequest(RequestEmail{
		RecipientName: "Dana <script>",
		ProjectName:   "Substation upgrade",
		ClientName:    "Northgrid",
		Link:          "https://confirm.example.com/confirm/abc",
		ExpiresAt:     time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC),
		Blocks:        blocks,
	})
	if err != nil {
		t.Fatalf("RenderRequest: %v", err)
	}

	for _, want := range []string{
		"Substation upgrade",
		"https://confirm.example.com/confirm/abc",
		"Mon 15 Jan 2024 to Tue 16 Jan 2024",
		"Fri 19 Jan 2024",
		"Dana &lt;script&gt;",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, "reminder") {
		t.Error("first email should not read as a reminder")
	}
}

func TestRequestSubject(t *testing.T) {
	e := RequestEmail{ProjectName: "Depot"}
	if got := e.Subject(); got != "Please confirm the schedule for Depot" {
		t.Errorf("Subject() = %q", got)
	}
	e.Reminder = true
	if got := e.Subject(); !strings.HasPrefix(got, "Reminder:") {
		t.Errorf("reminder Subject() = %q", got)
	}
}

func TestRenderResponse(t *testing.T) {
	tests := []struct {
		name      string
		email     ResponseEmail
		wantVerb  string
		wantExtra string
	}{
		{
			name:     "confirmed",
			email:    ResponseEmail{RecipientName: "Dana", RecipientEmail: "dana@example.com", ProjectName: "Depot", Confirmed: true, AssignmentCount: 2, BookingStatus: "confirmed"},
			wantVerb: "confirmed",
		},
		{
			name:      "declined with reason",
			email:     ResponseEmail{RecipientName: "Dana", RecipientEmail: "dana@example.com", ProjectName: "Depot", Reason: "schedule conflict", AssignmentCount: 2, BookingStatus: "tentative"},
			wantVerb:  "declined",
			wantExtra: "schedule conflict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := RenderResponse(tt.email)
			if err != nil {
				t.Fatalf("RenderResponse: %v", err)
			}
			if !strings.Contains(body, "<strong>"+tt.wantVerb+"</strong>") {
				t.Errorf("body missing verb %q", tt.wantVerb)
			}
			if tt.wantExtra != "" && !strings.Contains(body, tt.wantExtra) {
				t.Errorf("body missing %q", tt.wantExtra)
			}
			if !strings.Contains(tt.email.Subject(), tt.wantVerb) {
				t.Errorf("Subject() = %q", tt.email.Subject())
			}
		})
	}
}
