package usecase

import (
	"strings"

	"github.com/xavierca1/leadtrack/internal/entity"
)

// LeadFilter narrows a lead set for display. Zero fields match everything.
type LeadFilter struct {
	Query   string
	SalesID string
	Status  entity.Status
}

// Match reports whether l passes the filter. The query is a
// case-insensitive substring of business or owner name, or a raw
// substring of the phone as typed.
func (f LeadFilter) Match(l entity.Lead) bool {
	if f.SalesID != "" && l.SalesID != f.SalesID {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	q := strings.TrimSpace(f.Query)
	if q == "" {
		return true
	}
	lower := strings.ToLower(q)
	return strings.Contains(strings.ToLower(l.BusinessName), lower) ||
		strings.Contains(strings.ToLower(l.OwnerName), lower) ||
		strings.Contains(l.Phone, q)
}

// FilterLeads keeps the order of leads.
func FilterLeads(leads []entity.Lead, f LeadFilter) []entity.Lead {
	out := make([]entity.Lead, 0, len(leads))
	for _, l := range leads {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

type Stats struct {
	Total         int `json:"total"`
	New           int `json:"new"`
	Interested    int `json:"interested"`
	Closed        int `json:"closed"`
	NotInterested int `json:"notInterested"`
}

func ComputeStats(leads []entity.Lead) Stats {
	st := Stats{Total: len(leads)}
	for _, l := range leads {
		switch l.Status {
		case entity.StatusNew:
			st.New++
		case entity.StatusInterested:
			st.Interested++
		case entity.StatusClosed:
			st.Closed++
		case entity.StatusNotInterested:
			st.NotInterested++
		}
	}
	return st
}

// FormatPhoneNumber renders a ten-digit number as (XXX) XXX-XXXX and
// returns anything else unchanged.
func FormatPhoneNumber(phone string) string {
	digits := nonDigit.ReplaceAllString(phone, "")
	if len(digits) != 10 {
		return phone
	}
	return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
}
