package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/leadtrack/internal/entity"
)

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (*entity.Identity, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Identity), args.Error(1)
}

func (m *MockIdentityProvider) CreateAccount(ctx context.Context, email, password string) (*entity.Identity, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Identity), args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockIdentityProvider) OnAuthStateChange(fn func(*entity.Identity)) func() {
	args := m.Called(fn)
	return args.Get(0).(func())
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, acc *entity.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) ListByRole(ctx context.Context, role entity.Role) ([]entity.Account, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Account), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishLeadEvent(ctx context.Context, ev entity.LeadEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// memLeadStore stores lead documents the way the database does: a map of
// set fields per lead, with status, owner and creation time beside it.
type memLeadStore struct {
	mu      sync.Mutex
	docs    map[string]map[string]any
	leads   map[string]entity.Lead
	failErr error
	writes  chan struct{}
}

func newMemLeadStore() *memLeadStore {
	return &memLeadStore{
		docs:   map[string]map[string]any{},
		leads:  map[string]entity.Lead{},
		writes: make(chan struct{}, 16),
	}
}

func (s *memLeadStore) Insert(_ context.Context, lead *entity.Lead, doc map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.docs[lead.ID] = doc
	s.leads[lead.ID] = *lead
	s.signal()
	return nil
}

func (s *memLeadStore) Update(_ context.Context, id string, fields map[string]any, status *entity.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	l, ok := s.leads[id]
	if !ok {
		return entity.ErrLeadNotFound
	}
	for k, v := range fields {
		s.docs[id][k] = v
	}
	applyFields(&l, fields)
	if status != nil {
		l.Status = *status
	}
	s.leads[id] = l
	s.signal()
	return nil
}

func (s *memLeadStore) FindByID(_ context.Context, id string) (*entity.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	return &l, nil
}

func (s *memLeadStore) FindByScope(_ context.Context, scope entity.Scope) ([]entity.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	out := []entity.Lead{}
	for _, l := range s.leads {
		if scope.Includes(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memLeadStore) doc(id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[id]
}

func (s *memLeadStore) setFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *memLeadStore) signal() {
	select {
	case s.writes <- struct{}{}:
	default:
	}
}

func applyFields(l *entity.Lead, fields map[string]any) {
	for k, v := range fields {
		switch k {
		case "businessName":
			l.BusinessName = derefAny(v)
		case "ownerName":
			l.OwnerName = derefAny(v)
		case "phone":
			l.Phone = derefAny(v)
		case "email":
			l.Email = derefAny(v)
		case "notes":
			l.Notes = v.(*string)
		case "planAccepted":
			l.PlanAccepted = v.(*bool)
		}
	}
}

func derefAny(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case *string:
		return *s
	}
	return ""
}

// chanFeed is a change feed driven by the test.
type chanFeed struct {
	mu   sync.Mutex
	subs []chan entity.LeadEvent
	err  error
}

func (f *chanFeed) Listen(ctx context.Context) (<-chan entity.LeadEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan entity.LeadEvent, 8)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()
	return ch, nil
}

func (f *chanFeed) emit(ev entity.LeadEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		ch <- ev
	}
}

func (f *chanFeed) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		close(ch)
	}
	f.subs = nil
}
