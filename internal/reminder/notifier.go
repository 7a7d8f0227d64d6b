package reminder

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/sakif/job-tracker/internal/email"
	"github.com/sakif/job-tracker/internal/model"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Notifier renders and delivers one reminder email.
//
// The subject and plain-text body come from text/template. The HTML body
// uses html/template, so a company called "<script>" arrives escaped.
type Notifier struct {
	transport email.Transport
	leadDays  int
	text      *texttemplate.Template
	html      *htmltemplate.Template
}

// messageData is what the templates see.
type messageData struct {
	Name     string
	Company  string
	Role     string
	Deadline string
	LeadTime string
}

// NewNotifier parses the embedded templates. leadDays only feeds the
// "(in N days)" phrase; the scanner decides which jobs are due.
func NewNotifier(transport email.Transport, leadDays int) (*Notifier, error) {
	text, err := texttemplate.ParseFS(templatesFS, "templates/reminder.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("reminder: parsing text template: %w", err)
	}
	for _, name := range []string{"subject", "body"} {
		if text.Lookup(name) == nil {
			return nil, fmt.Errorf("reminder: missing %q text template", name)
		}
	}

	html, err := htmltemplate.ParseFS(templatesFS, "templates/reminder.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("reminder: parsing html template: %w", err)
	}
	if html.Lookup("body") == nil {
		return nil, fmt.Errorf("reminder: missing %q html template", "body")
	}

	if leadDays <= 0 {
		leadDays = DefaultLeadDays
	}
	return &Notifier{
		transport: transport,
		leadDays:  leadDays,
		text:      text,
		html:      html,
	}, nil
}

// Compose builds the message for r. The same reminder always produces
// the same message.
func (n *Notifier) Compose(r model.Reminder) (email.Message, error) {
	to, err := email.ParseAddress(r.UserEmail)
	if err != nil {
		return email.Message{}, fmt.Errorf("reminder: job %s: recipient %q: %w", r.JobID, r.UserEmail, err)
	}

	data := messageData{
		Name:     r.UserName,
		Company:  r.Company,
		Role:     r.Role,
		Deadline: r.Deadline.String(),
		LeadTime: leadTimePhrase(n.leadDays),
	}

	var subject, text, html bytes.Buffer
	if err := n.text.ExecuteTemplate(&subject, "subject", data); err != nil {
		return email.Message{}, fmt.Errorf("reminder: rendering subject: %w", err)
	}
	if err := n.text.ExecuteTemplate(&text, "body", data); err != nil {
		return email.Message{}, fmt.Errorf("reminder: rendering text body: %w", err)
	}
	if err := n.html.ExecuteTemplate(&html, "body", data); err != nil {
		return email.Message{}, fmt.Errorf("reminder: rendering html body: %w", err)
	}

	return email.Message{
		To:      to,
		Subject: strings.TrimSpace(subject.String()),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// Notify composes and sends the reminder for r. It makes exactly one
// delivery attempt; retrying is left to the next cycle.
func (n *Notifier) Notify(ctx context.Context, r model.Reminder) (email.DeliveryInfo, error) {
	msg, err := n.Compose(r)
	if err != nil {
		return email.DeliveryInfo{}, err
	}

	info, err := n.transport.Send(ctx, msg)
	if err != nil {
		return email.DeliveryInfo{}, fmt.Errorf("reminder: sending job %s to %s: %w", r.JobID, msg.To, err)
	}
	return info, nil
}

func leadTimePhrase(days int) string {
	if days == 1 {
		return "in 1 day"
	}
	return fmt.Sprintf("in %d days", days)
}
