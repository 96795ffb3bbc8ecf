package handlers

import (
	"time"

	"github.com/jinzhu/copier"

	"github.com/xavierca1/leadtrack/internal/entity"
	"github.com/xavierca1/leadtrack/internal/usecase"
)

type LeadResponse struct {
	ID           string `json:"id"`
	BusinessName string `json:"businessName"`
	OwnerName    string `json:"ownerName"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`

	Address             *string             `json:"address,omitempty"`
	WebsiteType         *entity.WebsiteType `json:"websiteType,omitempty"`
	Services            *string             `json:"services,omitempty"`
	Plan                *entity.Plan        `json:"plan,omitempty"`
	DomainInfo          *string             `json:"domainInfo,omitempty"`
	BusinessDescription *string             `json:"businessDescription,omitempty"`
	HasLogo             *bool               `json:"hasLogo,omitempty"`
	HasPhotos           *bool               `json:"hasPhotos,omitempty"`
	PlanAccepted        *bool               `json:"planAccepted,omitempty"`
	StartOn             string              `json:"startDate,omitempty"`
	Notes               *string             `json:"notes,omitempty"`
	BusinessType        *string             `json:"businessType,omitempty"`

	Status    entity.Status `json:"status"`
	SalesID   string        `json:"salesId"`
	CreatedAt time.Time     `json:"createdAt"`

	OwnerDisplayName string `json:"ownerDisplayName,omitempty"`
	FormattedPhone   string `json:"formattedPhone,omitempty"`
}

func toLeadResponse(l entity.Lead) LeadResponse {
	var resp LeadResponse
	copier.Copy(&resp, &l)
	if l.StartDate != nil {
		resp.StartOn = l.StartDate.Format("2006-01-02")
	}
	return resp
}

func toLeadResponses(views []usecase.LeadView) []LeadResponse {
	out := make([]LeadResponse, 0, len(views))
	for _, v := range views {
		resp := toLeadResponse(v.Lead)
		resp.OwnerDisplayName = v.OwnerDisplayName
		resp.FormattedPhone = v.FormattedPhone
		out = append(out, resp)
	}
	return out
}

type SalesDashboardResponse struct {
	Account *entity.Account `json:"account"`
	Leads   []LeadResponse  `json:"leads"`
	Stats   usecase.Stats   `json:"stats"`
}

type AdminDashboardResponse struct {
	Account     *entity.Account  `json:"account"`
	Leads       []LeadResponse   `json:"leads"`
	Stats       usecase.Stats    `json:"stats"`
	SalesPeople []entity.Account `json:"salesPeople"`
	Statuses    []entity.Status  `json:"statuses"`
}

func toSalesDashboardResponse(d *usecase.SalesDashboard) SalesDashboardResponse {
	return SalesDashboardResponse{Account: d.Account, Leads: toLeadResponses(d.Leads), Stats: d.Stats}
}

func toAdminDashboardResponse(d *usecase.AdminDashboard) AdminDashboardResponse {
	return AdminDashboardResponse{
		Account:     d.Account,
		Leads:       toLeadResponses(d.Leads),
		Stats:       d.Stats,
		SalesPeople: d.SalesPeople,
		Statuses:    d.Statuses,
	}
}

type IdentityResponse struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

type SessionResponse struct {
	State   string            `json:"state"`
	User    *IdentityResponse `json:"user"`
	Account *entity.Account   `json:"account"`
	Home    string            `json:"home"`
}

func toSessionResponse(snap usecase.SessionSnapshot) SessionResponse {
	resp := SessionResponse{State: snap.State.String(), Account: snap.Account, Home: usecase.PathLogin}
	if snap.Identity != nil {
		resp.User = &IdentityResponse{UID: snap.Identity.UID, Email: snap.Identity.Email}
	}
	if snap.Account != nil && snap.State == usecase.StateReady {
		resp.Home = snap.Account.Role.Home()
	}
	return resp
}
