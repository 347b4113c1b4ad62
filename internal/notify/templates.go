package notify

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/parallax/audit-backend/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"timestamp": func(t time.Time) string { return t.UTC().Format("Jan 2, 2006 15:04 MST") },
}).ParseFS(templateFS, "templates/*.html"))

const (
	confirmationSubject = "Digital Audit Request Received - PARALLAX"
	adminSubjectPrefix  = "New Audit Request from "
)

func render(name string, rec model.AuditRequest) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, rec); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// confirmationMessage is sent to the submitter.
func confirmationMessage(from string, rec model.AuditRequest) (Message, error) {
	body, err := render("confirmation.html", rec)
	if err != nil {
		return Message{}, err
	}
	return Message{From: from, To: rec.Email, Subject: confirmationSubject, HTMLBody: body}, nil
}

// adminMessage alerts the administrator about a new submission.
func adminMessage(from, to string, rec model.AuditRequest) (Message, error) {
	body, err := render("admin.html", rec)
	if err != nil {
		return Message{}, err
	}
	return Message{From: from, To: to, Subject: adminSubjectPrefix + rec.Company, HTMLBody: body}, nil
}
