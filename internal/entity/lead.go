package entity

import (
	"errors"
	"reflect"
	"time"
)

var ErrLeadNotFound = errors.New("lead not found")

type WebsiteType string

const (
	WebsiteNew      WebsiteType = "New"
	WebsiteRedesign WebsiteType = "Redesign"
)

func (w WebsiteType) Valid() bool {
	return w == WebsiteNew || w == WebsiteRedesign
}

type Plan string

const (
	PlanStarter Plan = "Starter"
	PlanGrowth  Plan = "Growth"
	PlanPro     Plan = "Pro"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanStarter, PlanGrowth, PlanPro:
		return true
	}
	return false
}

// LeadDetails are the progressive fields a lead accumulates after intake.
// A nil field is unset and is never written to storage.
type LeadDetails struct {
	Address *string `json:"address,omitempty"`

	// Website needs
	WebsiteType *WebsiteType `json:"websiteType,omitempty"`
	Services    *string      `json:"services,omitempty"`
	Plan        *Plan        `json:"plan,omitempty"`
	DomainInfo  *string      `json:"domainInfo,omitempty"`

	// Content
	BusinessDescription *string `json:"businessDescription,omitempty"`
	HasLogo             *bool   `json:"hasLogo,omitempty"`
	HasPhotos           *bool   `json:"hasPhotos,omitempty"`

	// Payment
	PlanAccepted *bool      `json:"planAccepted,omitempty"`
	StartDate    *time.Time `json:"startDate,omitempty"`

	Notes *string `json:"notes,omitempty"`

	// BusinessType is only read back from older documents.
	BusinessType *string `json:"businessType,omitempty"`
}

func (d LeadDetails) fields() map[string]any {
	return map[string]any{
		"address":             d.Address,
		"websiteType":         d.WebsiteType,
		"services":            d.Services,
		"plan":                d.Plan,
		"domainInfo":          d.DomainInfo,
		"businessDescription": d.BusinessDescription,
		"hasLogo":             d.HasLogo,
		"hasPhotos":           d.HasPhotos,
		"planAccepted":        d.PlanAccepted,
		"startDate":           d.StartDate,
		"notes":               d.Notes,
		"businessType":        d.BusinessType,
	}
}

// Lead is a prospective customer owned by one sales account.
type Lead struct {
	ID           string `json:"id"`
	BusinessName string `json:"businessName"`
	OwnerName    string `json:"ownerName"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`

	LeadDetails

	Status    Status    `json:"status"`
	SalesID   string    `json:"salesId"`
	CreatedAt time.Time `json:"createdAt"`
}

// LeadDraft is the input of a lead creation. An empty Status means New.
type LeadDraft struct {
	BusinessName string
	OwnerName    string
	Phone        string
	Email        string

	LeadDetails

	Status Status
}

// Document returns the storable fields of the draft with every unset
// optional field removed.
func (d LeadDraft) Document() map[string]any {
	doc := d.LeadDetails.fields()
	doc["businessName"] = d.BusinessName
	doc["ownerName"] = d.OwnerName
	doc["phone"] = d.Phone
	doc["email"] = d.Email
	return StripUnset(doc)
}

// LeadPatch is a partial update. Only non-nil fields are written; status,
// owner and creation time live outside the document.
type LeadPatch struct {
	BusinessName *string
	OwnerName    *string
	Phone        *string
	Email        *string

	LeadDetails

	Status *Status
}

// Fields returns the document fields carried by the patch, unset ones
// stripped.
func (p LeadPatch) Fields() map[string]any {
	doc := p.LeadDetails.fields()
	doc["businessName"] = p.BusinessName
	doc["ownerName"] = p.OwnerName
	doc["phone"] = p.Phone
	doc["email"] = p.Email
	return StripUnset(doc)
}

func (p LeadPatch) Empty() bool {
	return p.Status == nil && len(p.Fields()) == 0
}

// StripUnset drops nil values, including typed nil pointers, from a field
// map. The document store rejects explicit unset markers.
func StripUnset(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
			if rv.IsNil() {
				continue
			}
		}
		out[k] = v
	}
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
