package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadtrack/internal/entity"
)

const testAdminKey = "s3cret-key"

func newTestSession() (*Session, *MockIdentityProvider, *MockAccountRepository) {
	idp := new(MockIdentityProvider)
	accounts := new(MockAccountRepository)
	return NewSession(idp, accounts, testAdminKey, nil), idp, accounts
}

func TestRegisterWithInvalidAdminKeyCreatesNothing(t *testing.T) {
	ctx := context.Background()
	s, idp, accounts := newTestSession()

	err := s.Register(ctx, RegisterInput{Email: "eve@example.com", Password: "pw123456", AdminKey: "guess"})

	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Contains(t, err.Error(), "invalid admin key")
	idp.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
	accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	// Retrying without a key succeeds as a sales account.
	identity := &entity.Identity{UID: "uid-eve", Email: "eve@example.com"}
	idp.On("CreateAccount", ctx, "eve@example.com", "pw123456").Return(identity, nil).Once()
	accounts.On("Create", ctx, mock.MatchedBy(func(a *entity.Account) bool {
		return a.ID == "uid-eve" && a.Role == entity.RoleSales && a.Name == "Eve"
	})).Return(nil).Once()

	err = s.Register(ctx, RegisterInput{Email: "eve@example.com", Password: "pw123456", DisplayName: "Eve"})

	require.NoError(t, err)
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, entity.RoleSales, s.Account().Role)
	idp.AssertExpectations(t)
	accounts.AssertExpectations(t)
}

func TestRegisterWithValidAdminKeyCreatesAdmin(t *testing.T) {
	ctx := context.Background()
	s, idp, accounts := newTestSession()

	identity := &entity.Identity{UID: "uid-ada", Email: "ada@example.com"}
	idp.On("CreateAccount", ctx, "ada@example.com", "pw123456").Return(identity, nil)
	accounts.On("Create", ctx, mock.MatchedBy(func(a *entity.Account) bool {
		return a.Role == entity.RoleAdmin
	})).Return(nil)

	err := s.Register(ctx, RegisterInput{Email: " ada@example.com ", Password: "pw123456", DisplayName: "Ada", AdminKey: testAdminKey})

	require.NoError(t, err)
	assert.True(t, s.Account().IsAdmin())
	assert.Equal(t, entity.AllLeads(), s.Scope())
}

func TestRegisterProfileFailureLeavesProfileMissing(t *testing.T) {
	ctx := context.Background()
	s, idp, accounts := newTestSession()

	identity := &entity.Identity{UID: "uid-bob", Email: "bob@example.com"}
	idp.On("CreateAccount", ctx, "bob@example.com", "pw123456").Return(identity, nil)
	accounts.On("Create", ctx, mock.Anything).Return(errors.New("connection refused"))

	err := s.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "pw123456"})

	require.Error(t, err)
	assert.True(t, IsProfileError(err))
	snap := s.Snapshot()
	assert.Equal(t, StateProfileMissing, snap.State)
	assert.Nil(t, snap.Account)
	assert.Equal(t, identity, snap.Identity)
	assert.False(t, s.Scope().Resolved())
}

func TestRegisterIdentityFailure(t *testing.T) {
	ctx := context.Background()
	s, idp, accounts := newTestSession()

	idp.On("CreateAccount", ctx, "bob@example.com", "pw").Return(nil, entity.ErrEmailAlreadyExists)

	err := s.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "pw"})

	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.ErrorIs(t, err, entity.ErrEmailAlreadyExists)
	accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLoginBadCredentials(t *testing.T) {
	ctx := context.Background()
	s, idp, accounts := newTestSession()

	idp.On("SignIn", ctx, "bob@example.com", "wrong").Return(nil, errors.New("invalid credentials"))

	err := s.Login(ctx, "bob@example.com", "wrong")

	assert.True(t, IsAuthError(err))
	accounts.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	assert.Nil(t, s.Account())
}

func TestLoginLoadsExistingProfile(t *testing.T) {
	ctx := context.Background()
	s, idp, accounts := newTestSession()

	identity := &entity.Identity{UID: "uid-bob", Email: "bob@example.com"}
	acc := &entity.Account{ID: "uid-bob", Name: "Bob", Role: entity.RoleSales}
	idp.On("SignIn", ctx, "bob@example.com", "pw").Return(identity, nil)
	accounts.On("FindByID", ctx, "uid-bob").Return(acc, nil)

	require.NoError(t, s.Login(ctx, "bob@example.com", "pw"))

	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, acc, s.Account())
	assert.Equal(t, entity.OwnedBy("uid-bob"), s.Scope())
	accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLoginProvisionsMissingProfile(t *testing.T) {
	ctx := context.Background()
	s, idp, accounts := newTestSession()

	identity := &entity.Identity{UID: "uid-carol", Email: "carol@example.com"}
	idp.On("SignIn", ctx, "carol@example.com", "pw").Return(identity, nil)
	accounts.On("FindByID", ctx, "uid-carol").Return(nil, entity.ErrAccountNotFound)
	accounts.On("Create", ctx, mock.MatchedBy(func(a *entity.Account) bool {
		return a.ID == "uid-carol" && a.Name == "carol" && a.Role == entity.RoleSales
	})).Return(nil)

	require.NoError(t, s.Login(ctx, "carol@example.com", "pw"))

	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, "carol", s.Account().Name)
	accounts.AssertExpectations(t)
}

func TestLoginProfileUnreadable(t *testing.T) {
	ctx := context.Background()
	s, idp, accounts := newTestSession()

	identity := &entity.Identity{UID: "uid-dan", Email: "dan@example.com"}
	idp.On("SignIn", ctx, "dan@example.com", "pw").Return(identity, nil)
	accounts.On("FindByID", ctx, "uid-dan").Return(nil, errors.New("permission denied"))

	err := s.Login(ctx, "dan@example.com", "pw")

	require.Error(t, err)
	assert.True(t, IsProfileError(err))
	assert.Equal(t, StateProfileMissing, s.State())
	assert.Nil(t, s.Account())
	accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	decision := ResolveRoute(PathDashboard, s.Snapshot())
	assert.Equal(t, RouteLoading, decision.Kind)
	assert.Equal(t, ReasonProfileMissing, decision.Reason)
}

func TestInitSettlesFromProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("signed out", func(t *testing.T) {
		s, idp, _ := newTestSession()
		idp.On("OnAuthStateChange", mock.Anything).Run(func(args mock.Arguments) {
			args.Get(0).(func(*entity.Identity))(nil)
		}).Return(func() {})

		s.Init(ctx)

		assert.Equal(t, StateAnonymous, s.State())
	})

	t.Run("restored identity", func(t *testing.T) {
		s, idp, accounts := newTestSession()
		identity := &entity.Identity{UID: "uid-bob", Email: "bob@example.com"}
		idp.On("OnAuthStateChange", mock.Anything).Run(func(args mock.Arguments) {
			args.Get(0).(func(*entity.Identity))(identity)
		}).Return(func() {})
		accounts.On("FindByID", ctx, "uid-bob").Return(&entity.Account{ID: "uid-bob", Role: entity.RoleSales}, nil)

		s.Init(ctx)

		assert.Equal(t, StateReady, s.State())
		assert.Equal(t, identity, s.Identity())
	})
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	ctx := context.Background()
	s, idp, accounts := newTestSession()

	identity := &entity.Identity{UID: "uid-bob", Email: "bob@example.com"}
	idp.On("SignIn", ctx, "bob@example.com", "pw").Return(identity, nil)
	accounts.On("FindByID", ctx, "uid-bob").Return(&entity.Account{ID: "uid-bob", Role: entity.RoleSales}, nil)
	idp.On("SignOut", ctx).Return(errors.New("network down"))

	require.NoError(t, s.Login(ctx, "bob@example.com", "pw"))
	s.Logout(ctx)

	snap := s.Snapshot()
	assert.Equal(t, StateAnonymous, snap.State)
	assert.Nil(t, snap.Identity)
	assert.Nil(t, snap.Account)
}

func TestDisposeUnsubscribes(t *testing.T) {
	s, idp, _ := newTestSession()

	var notify func(*entity.Identity)
	unsubscribed := false
	idp.On("OnAuthStateChange", mock.Anything).Run(func(args mock.Arguments) {
		notify = args.Get(0).(func(*entity.Identity))
		notify(nil)
	}).Return(func() { unsubscribed = true })

	s.Init(context.Background())
	s.Dispose()

	assert.True(t, unsubscribed)
	assert.Equal(t, StateDisposed, s.State())

	notify(nil)
	assert.Equal(t, StateDisposed, s.State())
}
