package usecase

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/xavierca1/leadtrack/internal/entity"
)

const UnknownOwner = "Unknown"

// LeadView is a lead as a dashboard row.
type LeadView struct {
	entity.Lead
	OwnerDisplayName string `json:"ownerDisplayName,omitempty"`
	FormattedPhone   string `json:"formattedPhone"`
}

type SalesDashboard struct {
	Account *entity.Account `json:"account"`
	Leads   []LeadView      `json:"leads"`
	Stats   Stats           `json:"stats"`
}

type AdminDashboard struct {
	Account     *entity.Account  `json:"account"`
	Leads       []LeadView       `json:"leads"`
	Stats       Stats            `json:"stats"`
	SalesPeople []entity.Account `json:"salesPeople"`
	Statuses    []entity.Status  `json:"statuses"`
}

// OwnerDirectory maps sales account ids to display names.
type OwnerDirectory struct {
	names  map[string]string
	people []entity.Account
}

func NewOwnerDirectory(people []entity.Account) OwnerDirectory {
	sorted := append([]entity.Account(nil), people...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	names := make(map[string]string, len(sorted))
	for _, p := range sorted {
		names[p.ID] = p.Name
	}
	return OwnerDirectory{names: names, people: sorted}
}

func (d OwnerDirectory) Name(id string) string {
	if n, ok := d.names[id]; ok && n != "" {
		return n
	}
	return UnknownOwner
}

func (d OwnerDirectory) People() []entity.Account {
	return d.people
}

// DashboardService derives the sales and admin views from a lead set.
type DashboardService struct {
	leads    *LeadService
	accounts AccountRepository
	logger   *zap.Logger
}

func NewDashboardService(leads *LeadService, accounts AccountRepository, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{leads: leads, accounts: accounts, logger: logger}
}

// Directory fetches every sales account once.
func (s *DashboardService) Directory(ctx context.Context) (OwnerDirectory, error) {
	people, err := s.accounts.ListByRole(ctx, entity.RoleSales)
	if err != nil {
		return OwnerDirectory{}, &StorageError{Op: "list sales accounts", Err: err}
	}
	return NewOwnerDirectory(people), nil
}

func (s *DashboardService) Sales(ctx context.Context, acc *entity.Account, query string) (*SalesDashboard, error) {
	leads, err := s.leads.Fetch(ctx, entity.ScopeFor(acc))
	if err != nil {
		return nil, err
	}
	return BuildSalesDashboard(acc, leads, query), nil
}

func (s *DashboardService) Admin(ctx context.Context, acc *entity.Account, filter LeadFilter) (*AdminDashboard, error) {
	if acc == nil || !acc.IsAdmin() {
		return nil, &DomainError{Code: CodeForbidden, Message: "admin role required"}
	}
	leads, err := s.leads.Fetch(ctx, entity.AllLeads())
	if err != nil {
		return nil, err
	}
	dir, err := s.Directory(ctx)
	if err != nil {
		return nil, err
	}
	return BuildAdminDashboard(acc, leads, dir, filter), nil
}

// BuildSalesDashboard renders one snapshot of a sales account's leads.
// Stats cover the unfiltered set.
func BuildSalesDashboard(acc *entity.Account, leads []entity.Lead, query string) *SalesDashboard {
	visible := FilterLeads(leads, LeadFilter{Query: query})
	views := make([]LeadView, 0, len(visible))
	for _, l := range visible {
		views = append(views, LeadView{Lead: l, FormattedPhone: FormatPhoneNumber(l.Phone)})
	}
	return &SalesDashboard{Account: acc, Leads: views, Stats: ComputeStats(leads)}
}

func BuildAdminDashboard(acc *entity.Account, leads []entity.Lead, dir OwnerDirectory, filter LeadFilter) *AdminDashboard {
	visible := FilterLeads(leads, filter)
	views := make([]LeadView, 0, len(visible))
	for _, l := range visible {
		views = append(views, LeadView{
			Lead:             l,
			OwnerDisplayName: dir.Name(l.SalesID),
			FormattedPhone:   FormatPhoneNumber(l.Phone),
		})
	}
	people := dir.People()
	if people == nil {
		people = []entity.Account{}
	}
	return &AdminDashboard{
		Account:     acc,
		Leads:       views,
		Stats:       ComputeStats(leads),
		SalesPeople: people,
		Statuses:    entity.Statuses,
	}
}
