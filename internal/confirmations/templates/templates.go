// Package templates renders the confirmation emails.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"fieldsched/pkg/model"
	"fieldsched/pkg/timeline"
)

//go:embed *.html
var files embed.FS

var parsed = template.Must(template.New("emails").Funcs(template.FuncMap{
	"formatDate": formatDate,
}).ParseFS(files, "*.html"))

type RequestEmail struct {
	RecipientName string
	ProjectName   string
	ClientName    string
	Link          string
	ExpiresAt     time.Time
	Blocks        []timeline.Block
	Reminder      bool
}

func (e RequestEmail) Subject() string {
	if e.Reminder {
		return fmt.Sprintf("Reminder: please confirm the schedule for %s", e.ProjectName)
	}
	return fmt.Sprintf("Please confirm the schedule for %s", e.ProjectName)
}

type ResponseEmail struct {
	RecipientName   string
	RecipientEmail  string
	ProjectName     string
	Confirmed       bool
	Reason          string
	AssignmentCount int
	BookingStatus   model.BookingStatus
}

func (e ResponseEmail) Subject() string {
	verb := "declined"
	if e.Confirmed {
		verb = "confirmed"
	}
	return fmt.Sprintf("Schedule %s for %s", verb, e.ProjectName)
}

func RenderRequest(data RequestEmail) (string, error) {
	return render("request", data)
}

func RenderResponse(data ResponseEmail) (string, error) {
	return render("response", data)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := parsed.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}

// formatDate renders YYYY-MM-DD as e.g. "Mon 15 Jan 2024", passing anything
// unparsable through.
func formatDate(date string) string {
	t, err := model.ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("Mon 02 Jan 2006")
}
