package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadtrack/internal/entity"
)

type SessionState int

const (
	StateUninitialized SessionState = iota
	StateLoading
	// StateReady is authenticated with a resolved profile.
	StateReady
	// StateProfileMissing is authenticated but the profile could not be
	// loaded. It is never treated as authorized with defaults.
	StateProfileMissing
	StateAnonymous
	StateDisposed
)

func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateProfileMissing:
		return "profile_missing"
	case StateAnonymous:
		return "anonymous"
	case StateDisposed:
		return "disposed"
	}
	return "unknown"
}

// SessionSnapshot is a consistent read of a session.
type SessionSnapshot struct {
	State    SessionState
	Identity *entity.Identity
	Account  *entity.Account
}

func (s SessionSnapshot) Authenticated() bool {
	return s.Identity != nil && (s.State == StateReady || s.State == StateProfileMissing)
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	AdminKey    string
}

// Session holds the authenticated identity of one client and its role
// profile. It is created by its owner, initialized once and disposed on
// teardown.
type Session struct {
	identity IdentityProvider
	accounts AccountRepository
	adminKey string
	logger   *zap.Logger
	now      func() time.Time

	mu          sync.RWMutex
	state       SessionState
	user        *entity.Identity
	account     *entity.Account
	unsubscribe func()

	// inFlight counts login/register calls that load the profile
	// themselves, so the auth-state callback does not load it twice.
	inFlight atomic.Int32
}

func NewSession(identity IdentityProvider, accounts AccountRepository, adminKey string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		identity: identity,
		accounts: accounts,
		adminKey: adminKey,
		logger:   logger,
		now:      time.Now,
		state:    StateUninitialized,
	}
}

// Init subscribes to auth-state changes. The provider reports the current
// identity immediately, so the state has settled when Init returns.
func (s *Session) Init(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return
	}
	s.state = StateLoading
	s.mu.Unlock()

	unsubscribe := s.identity.OnAuthStateChange(func(id *entity.Identity) {
		s.onAuthStateChange(ctx, id)
	})

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
}

func (s *Session) onAuthStateChange(ctx context.Context, id *entity.Identity) {
	if id == nil {
		s.mu.Lock()
		if s.state != StateDisposed {
			s.user, s.account, s.state = nil, nil, StateAnonymous
		}
		s.mu.Unlock()
		return
	}
	if s.inFlight.Load() > 0 {
		return
	}
	s.mu.RLock()
	same := s.user != nil && s.user.UID == id.UID && s.account != nil
	s.mu.RUnlock()
	if same {
		return
	}
	_ = s.loadProfile(ctx, id)
}

// Login authenticates and then loads (or self-heals) the profile.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	id, err := s.identity.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.logger.Info("login rejected", zap.String("email", email), zap.Error(err))
		return &AuthError{Message: "invalid email or password", Err: err}
	}
	return s.loadProfile(ctx, id)
}

// Register creates the identity and its profile. A non-empty admin key is
// checked before anything is created, so a wrong key leaves no account
// behind.
func (s *Session) Register(ctx context.Context, in RegisterInput) error {
	role := entity.RoleSales
	if in.AdminKey != "" {
		if in.AdminKey != s.adminKey {
			s.logger.Warn("registration with invalid admin key", zap.String("email", in.Email))
			return &AuthError{Message: "invalid admin key"}
		}
		role = entity.RoleAdmin
	}

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	id, err := s.identity.CreateAccount(ctx, strings.TrimSpace(in.Email), in.Password)
	if err != nil {
		return &AuthError{Message: "could not create account", Err: err}
	}

	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		name = entity.NewDefaultAccount(id, s.now()).Name
	}
	acc := &entity.Account{
		ID:        id.UID,
		Name:      name,
		Role:      role,
		CreatedAt: s.now(),
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		s.setProfileMissing(id)
		s.logger.Error("profile creation failed", zap.String("uid", id.UID), zap.Error(err))
		return &ProfileError{UID: id.UID, Err: err}
	}

	s.mu.Lock()
	s.user, s.account, s.state = id, acc, StateReady
	s.mu.Unlock()
	s.logger.Info("account registered", zap.String("uid", id.UID), zap.String("role", string(role)))
	return nil
}

// Logout clears identity and profile. It always succeeds.
func (s *Session) Logout(ctx context.Context) {
	if err := s.identity.SignOut(ctx); err != nil {
		s.logger.Warn("sign out failed", zap.Error(err))
	}
	s.mu.Lock()
	if s.state != StateDisposed {
		s.user, s.account, s.state = nil, nil, StateAnonymous
	}
	s.mu.Unlock()
}

// Dispose ends the session lifecycle and stops listening to auth changes.
func (s *Session) Dispose() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.user, s.account, s.state = nil, nil, StateDisposed
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionSnapshot{State: s.state, Identity: s.user, Account: s.account}
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Account returns the resolved profile, nil until one is loaded.
func (s *Session) Account() *entity.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

func (s *Session) Identity() *entity.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Scope is the lead visibility of the session; pending until the profile
// is resolved.
func (s *Session) Scope() entity.Scope {
	return entity.ScopeFor(s.Account())
}

func (s *Session) loadProfile(ctx context.Context, id *entity.Identity) error {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return nil
	}
	s.user, s.account, s.state = id, nil, StateLoading
	s.mu.Unlock()

	acc, err := s.accounts.FindByID(ctx, id.UID)
	if errors.Is(err, entity.ErrAccountNotFound) {
		acc = entity.NewDefaultAccount(id, s.now())
		s.logger.Warn("profile missing, creating default", zap.String("uid", id.UID))
		err = s.accounts.Create(ctx, acc)
	}
	if err != nil {
		s.setProfileMissing(id)
		s.logger.Error("profile load failed", zap.String("uid", id.UID), zap.Error(err))
		return &ProfileError{UID: id.UID, Err: err}
	}

	s.mu.Lock()
	if s.state != StateDisposed {
		s.user, s.account, s.state = id, acc, StateReady
	}
	s.mu.Unlock()
	return nil
}

func (s *Session) setProfileMissing(id *entity.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDisposed {
		s.user, s.account, s.state = id, nil, StateProfileMissing
	}
}
