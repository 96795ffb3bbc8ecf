package usecase

import (
	"context"

	"github.com/xavierca1/leadtrack/internal/entity"
)

// IdentityProvider is the authentication boundary. OnAuthStateChange calls
// fn once right away with the current identity (nil when signed out) and
// again on every sign-in or sign-out.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*entity.Identity, error)
	CreateAccount(ctx context.Context, email, password string) (*entity.Identity, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(fn func(*entity.Identity)) (unsubscribe func())
}

// AccountRepository is the users/{id} profile collection.
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Account, error)
	Create(ctx context.Context, acc *entity.Account) error
	ListByRole(ctx context.Context, role entity.Role) ([]entity.Account, error)
}

// LeadRepository is the leads collection. Insert and Update receive fields
// that are already stripped of unset values.
type LeadRepository interface {
	Insert(ctx context.Context, lead *entity.Lead, doc map[string]any) error
	Update(ctx context.Context, id string, fields map[string]any, status *entity.Status) error
	FindByID(ctx context.Context, id string) (*entity.Lead, error)
	FindByScope(ctx context.Context, scope entity.Scope) ([]entity.Lead, error)
}

// ChangeFeed signals remote changes to the leads collection. The returned
// channel is closed when ctx ends or the feed fails.
type ChangeFeed interface {
	Listen(ctx context.Context) (<-chan entity.LeadEvent, error)
}

// EventPublisher forwards lead events to downstream consumers.
type EventPublisher interface {
	PublishLeadEvent(ctx context.Context, ev entity.LeadEvent) error
}
