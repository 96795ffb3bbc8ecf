package entity

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailAlreadyExists = errors.New("email already registered")
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleSales Role = "sales"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSales
}

// Home is the path of the dashboard that belongs to the role. Anything that
// is not admin lands on the sales dashboard.
func (r Role) Home() string {
	if r == RoleAdmin {
		return "/admin"
	}
	return "/dashboard"
}

// Account is the role profile stored under users/{id}. The role is fixed
// at creation.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// Identity is the raw authentication handle handed out by the identity
// provider.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Token string `json:"-"`
}

// NewDefaultAccount builds the profile auto-provisioned for an identity that
// has none: role sales, name taken from the email local part.
func NewDefaultAccount(id *Identity, now time.Time) *Account {
	name := "User"
	if local, _, ok := strings.Cut(id.Email, "@"); ok && local != "" {
		name = local
	}
	return &Account{
		ID:        id.UID,
		Name:      name,
		Role:      RoleSales,
		CreatedAt: now,
	}
}
