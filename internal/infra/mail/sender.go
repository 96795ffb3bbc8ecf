package mail

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/leadtrack/internal/entity"
)

// SalesNameLookup resolves a sales account id to a display name.
type SalesNameLookup func(ctx context.Context, salesID string) string

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

var (
	newLeadTmpl = template.Must(template.New("new_lead").Parse(`A new lead was added to the pipeline.

Business: {{.BusinessName}}
Sales owner: {{.SalesName}}
Status: {{.Status}}
Created: {{.OccurredAt.Format "2006-01-02 15:04 MST"}}

Open the admin dashboard: {{.DashboardURL}}
`))

	planAcceptedTmpl = template.Must(template.New("plan_accepted").Parse(`{{.BusinessName}} accepted a website plan.

Sales owner: {{.SalesName}}
Status: {{.Status}}

Open the admin dashboard: {{.DashboardURL}}
`))
)

// NewEmailSender sends admin notifications to one address.
func NewEmailSender(host string, port int, user, password, from, to string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       to,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

func (s *EmailSender) NotifyNewLead(ctx context.Context, ev entity.LeadEvent) error {
	subject := fmt.Sprintf("New lead: %s", ev.BusinessName)
	return s.send(ctx, subject, newLeadTmpl, ev)
}

func (s *EmailSender) NotifyPlanAccepted(ctx context.Context, ev entity.LeadEvent) error {
	subject := fmt.Sprintf("Plan accepted: %s", ev.BusinessName)
	return s.send(ctx, subject, planAcceptedTmpl, ev)
}

func (s *EmailSender) send(ctx context.Context, subject string, tmpl *template.Template, ev entity.LeadEvent) error {
	data := LeadEmailData{
		LeadID:       ev.LeadID,
		BusinessName: ev.BusinessName,
		SalesName:    s.salesName(ctx, ev.SalesID),
		Status:       string(ev.Status),
		OccurredAt:   ev.OccurredAt,
		DashboardURL: s.DashboardURL,
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render %s email: %w", tmpl.Name(), err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send smtp email: %w", err)
	}
	return nil
}

func (s *EmailSender) salesName(ctx context.Context, salesID string) string {
	if s.SalesNames == nil {
		return salesID
	}
	return s.SalesNames(ctx, salesID)
}
