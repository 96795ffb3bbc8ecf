package usecase

import (
	"strings"
	"time"

	"github.com/xavierca1/leadtrack/internal/entity"
)

// QuickLeadInput is the minimal intake form.
type QuickLeadInput struct {
	BusinessName string `json:"businessName"`
	OwnerName    string `json:"ownerName"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Address      string `json:"address"`
}

func (in QuickLeadInput) draft() entity.LeadDraft {
	return entity.LeadDraft{
		BusinessName: strings.TrimSpace(in.BusinessName),
		OwnerName:    strings.TrimSpace(in.OwnerName),
		Phone:        strings.TrimSpace(in.Phone),
		Email:        strings.TrimSpace(in.Email),
		LeadDetails: entity.LeadDetails{
			Address: optional(in.Address),
		},
		Status: entity.StatusNew,
	}
}

// FullLeadInput is the five-section form: info, website needs, content,
// payment and notes. Blank text fields are left unset.
type FullLeadInput struct {
	// Info
	BusinessName string `json:"businessName"`
	OwnerName    string `json:"ownerName"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Address      string `json:"address"`

	// Website needs
	WebsiteType string `json:"websiteType"`
	Services    string `json:"services"`
	Plan        string `json:"plan"`
	DomainInfo  string `json:"domainInfo"`

	// Content
	BusinessDescription string `json:"businessDescription"`
	HasLogo             bool   `json:"hasLogo"`
	HasPhotos           bool   `json:"hasPhotos"`

	// Payment
	PlanAccepted bool   `json:"planAccepted"`
	StartDate    string `json:"startDate"`

	Notes string `json:"notes"`
}

func (in FullLeadInput) details() entity.LeadDetails {
	websiteType := entity.WebsiteNew
	if in.WebsiteType != "" {
		websiteType = entity.WebsiteType(in.WebsiteType)
	}
	plan := entity.PlanStarter
	if in.Plan != "" {
		plan = entity.Plan(in.Plan)
	}

	d := entity.LeadDetails{
		Address:             optional(in.Address),
		WebsiteType:         &websiteType,
		Services:            optional(in.Services),
		Plan:                &plan,
		DomainInfo:          optional(in.DomainInfo),
		BusinessDescription: optional(in.BusinessDescription),
		HasLogo:             entity.Ptr(in.HasLogo),
		HasPhotos:           entity.Ptr(in.HasPhotos),
		PlanAccepted:        entity.Ptr(in.PlanAccepted),
		Notes:               optional(in.Notes),
	}
	if s := strings.TrimSpace(in.StartDate); s != "" {
		if t, err := time.Parse(dateLayout, s); err == nil {
			d.StartDate = &t
		}
	}
	return d
}

func (in FullLeadInput) draft() entity.LeadDraft {
	return entity.LeadDraft{
		BusinessName: strings.TrimSpace(in.BusinessName),
		OwnerName:    strings.TrimSpace(in.OwnerName),
		Phone:        strings.TrimSpace(in.Phone),
		Email:        strings.TrimSpace(in.Email),
		LeadDetails:  in.details(),
		Status:       entity.ApplyPlanAcceptance(entity.StatusNew, in.PlanAccepted),
	}
}

// patch builds the edit of an existing lead. Status is only written when
// the plan was accepted.
func (in FullLeadInput) patch() entity.LeadPatch {
	p := entity.LeadPatch{
		BusinessName: entity.Ptr(strings.TrimSpace(in.BusinessName)),
		OwnerName:    entity.Ptr(strings.TrimSpace(in.OwnerName)),
		Phone:        entity.Ptr(strings.TrimSpace(in.Phone)),
		Email:        entity.Ptr(strings.TrimSpace(in.Email)),
		LeadDetails:  in.details(),
	}
	if in.PlanAccepted {
		p.Status = entity.Ptr(entity.StatusInterested)
	}
	return p
}

// FullLeadInputFrom pre-populates the full form from a stored lead.
func FullLeadInputFrom(l entity.Lead) FullLeadInput {
	in := FullLeadInput{
		BusinessName:        l.BusinessName,
		OwnerName:           l.OwnerName,
		Phone:               l.Phone,
		Email:               l.Email,
		Address:             deref(l.Address),
		Services:            deref(l.Services),
		DomainInfo:          deref(l.DomainInfo),
		BusinessDescription: deref(l.BusinessDescription),
		HasLogo:             deref(l.HasLogo),
		HasPhotos:           deref(l.HasPhotos),
		PlanAccepted:        deref(l.PlanAccepted),
		Notes:               deref(l.Notes),
	}
	if l.WebsiteType != nil {
		in.WebsiteType = string(*l.WebsiteType)
	}
	if l.Plan != nil {
		in.Plan = string(*l.Plan)
	}
	if l.StartDate != nil {
		in.StartDate = l.StartDate.Format(dateLayout)
	}
	return in
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
