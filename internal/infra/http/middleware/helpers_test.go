package middleware

import (
	"context"
	"errors"

	"github.com/xavierca1/leadtrack/internal/entity"
	"github.com/xavierca1/leadtrack/internal/usecase"
)

type stubIdentity struct {
	current *entity.Identity
}

func (s *stubIdentity) SignIn(context.Context, string, string) (*entity.Identity, error) {
	return nil, errors.New("not supported")
}

func (s *stubIdentity) CreateAccount(context.Context, string, string) (*entity.Identity, error) {
	return nil, errors.New("not supported")
}

func (s *stubIdentity) SignOut(context.Context) error { return nil }

func (s *stubIdentity) OnAuthStateChange(fn func(*entity.Identity)) func() {
	fn(s.current)
	return func() {}
}

type stubAccounts struct {
	account *entity.Account
	err     error
}

func (s *stubAccounts) FindByID(context.Context, string) (*entity.Account, error) {
	return s.account, s.err
}

func (s *stubAccounts) Create(context.Context, *entity.Account) error { return s.err }

func (s *stubAccounts) ListByRole(context.Context, entity.Role) ([]entity.Account, error) {
	return nil, nil
}

// sessionAs returns an initialized session. A nil role gives an anonymous
// session, profileErr a session without a profile.
func sessionAs(role *entity.Role, profileErr error) *usecase.Session {
	idp := &stubIdentity{}
	accounts := &stubAccounts{err: profileErr}
	if role != nil {
		idp.current = &entity.Identity{UID: "u1", Email: "u1@example.com", Token: "tok-u1"}
		accounts.account = &entity.Account{ID: "u1", Name: "U1", Role: *role}
	}
	sess := usecase.NewSession(idp, accounts, "key", nil)
	sess.Init(context.Background())
	return sess
}
