package entity

import "time"

type LeadEventType string

const (
	LeadCreated       LeadEventType = "lead.created"
	LeadUpdated       LeadEventType = "lead.updated"
	LeadStatusChanged LeadEventType = "lead.status_changed"
	// LeadResync is emitted when the change feed may have missed events.
	LeadResync LeadEventType = "lead.resync"
)

type LeadEvent struct {
	Type         LeadEventType `json:"type"`
	LeadID       string        `json:"lead_id"`
	SalesID      string        `json:"sales_id"`
	Status       Status        `json:"status,omitempty"`
	BusinessName string        `json:"business_name,omitempty"`
	PlanAccepted bool          `json:"plan_accepted,omitempty"`
	OccurredAt   time.Time     `json:"occurred_at"`
}
