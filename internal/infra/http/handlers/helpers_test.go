package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/leadtrack/internal/entity"
	"github.com/xavierca1/leadtrack/internal/infra/http/middleware"
	"github.com/xavierca1/leadtrack/internal/usecase"
)

const testAdminKey = "letmein"

// directory is a shared user table behind every fakeIdentity.
type directory struct {
	mu        sync.Mutex
	passwords map[string]string
	uids      map[string]string
	created   int
}

func newDirectory() *directory {
	return &directory{passwords: map[string]string{}, uids: map[string]string{}}
}

type fakeIdentity struct {
	dir     *directory
	mu      sync.Mutex
	current *entity.Identity
	fns     []func(*entity.Identity)
}

func (f *fakeIdentity) SignIn(_ context.Context, email, password string) (*entity.Identity, error) {
	f.dir.mu.Lock()
	pw, ok := f.dir.passwords[email]
	uid := f.dir.uids[email]
	f.dir.mu.Unlock()
	if !ok || pw != password {
		return nil, errors.New("invalid credentials")
	}
	id := &entity.Identity{UID: uid, Email: email, Token: "tok-" + uid + "-" + time.Now().Format("150405.000000000")}
	f.set(id)
	return id, nil
}

func (f *fakeIdentity) CreateAccount(_ context.Context, email, password string) (*entity.Identity, error) {
	f.dir.mu.Lock()
	if _, ok := f.dir.passwords[email]; ok {
		f.dir.mu.Unlock()
		return nil, entity.ErrEmailAlreadyExists
	}
	f.dir.created++
	uid := "uid-" + strings.Split(email, "@")[0]
	f.dir.passwords[email] = password
	f.dir.uids[email] = uid
	f.dir.mu.Unlock()
	id := &entity.Identity{UID: uid, Email: email, Token: "tok-" + uid}
	f.set(id)
	return id, nil
}

func (f *fakeIdentity) SignOut(context.Context) error {
	f.set(nil)
	return nil
}

func (f *fakeIdentity) OnAuthStateChange(fn func(*entity.Identity)) func() {
	f.mu.Lock()
	f.fns = append(f.fns, fn)
	cur := f.current
	f.mu.Unlock()
	fn(cur)
	return func() {}
}

func (f *fakeIdentity) set(id *entity.Identity) {
	f.mu.Lock()
	f.current = id
	fns := append([]func(*entity.Identity){}, f.fns...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(id)
	}
}

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]entity.Account
}

func newFakeAccounts(accs ...*entity.Account) *fakeAccounts {
	f := &fakeAccounts{accounts: map[string]entity.Account{}}
	for _, a := range accs {
		f.accounts[a.ID] = *a
	}
	return f
}

func (f *fakeAccounts) FindByID(_ context.Context, id string) (*entity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, entity.ErrAccountNotFound
	}
	return &a, nil
}

func (f *fakeAccounts) Create(_ context.Context, acc *entity.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[acc.ID]; !ok {
		f.accounts[acc.ID] = *acc
	}
	return nil
}

func (f *fakeAccounts) ListByRole(_ context.Context, role entity.Role) ([]entity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.Account{}
	for _, a := range f.accounts {
		if a.Role == role {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeLeadRepo struct {
	mu    sync.Mutex
	leads map[string]entity.Lead
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: map[string]entity.Lead{}}
}

func (f *fakeLeadRepo) Insert(_ context.Context, lead *entity.Lead, _ map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads[lead.ID] = *lead
	return nil
}

func (f *fakeLeadRepo) Update(_ context.Context, id string, fields map[string]any, status *entity.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return entity.ErrLeadNotFound
	}
	if v, ok := fields["notes"].(*string); ok {
		l.Notes = v
	}
	if status != nil {
		l.Status = *status
	}
	f.leads[id] = l
	return nil
}

func (f *fakeLeadRepo) FindByID(_ context.Context, id string) (*entity.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	return &l, nil
}

func (f *fakeLeadRepo) FindByScope(_ context.Context, scope entity.Scope) ([]entity.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.Lead{}
	for _, l := range f.leads {
		if scope.Includes(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

var (
	alice = &entity.Account{ID: "uid-alice", Name: "Alice", Role: entity.RoleSales}
	bob   = &entity.Account{ID: "uid-bob", Name: "Bob", Role: entity.RoleSales}
	ada   = &entity.Account{ID: "uid-ada", Name: "Ada", Role: entity.RoleAdmin}
)

// readySession is a session already signed in as acc.
func readySession(acc *entity.Account) *usecase.Session {
	idp := &fakeIdentity{dir: newDirectory()}
	idp.current = &entity.Identity{UID: acc.ID, Email: acc.ID + "@example.com", Token: "tok-" + acc.ID}
	sess := usecase.NewSession(idp, newFakeAccounts(acc), testAdminKey, nil)
	sess.Init(context.Background())
	return sess
}

func withSession(req *http.Request, sess *usecase.Session) *http.Request {
	return req.WithContext(middleware.WithSession(req.Context(), sess, "tok"))
}

func newRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
