package mail

import "time"

type LeadEmailData struct {
	LeadID       string
	BusinessName string
	SalesName    string
	Status       string
	OccurredAt   time.Time
	DashboardURL string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string

	// SalesNames resolves the owner name shown in notifications.
	SalesNames   SalesNameLookup
	DashboardURL string

	dialer dialer
}
