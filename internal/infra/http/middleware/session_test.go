package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadtrack/internal/entity"
	"github.com/xavierca1/leadtrack/internal/usecase"
)

func countingFactory(calls *int) SessionFactory {
	sales := entity.RoleSales
	return func(_ context.Context, token string) *usecase.Session {
		*calls++
		if token == "valid" {
			return sessionAs(&sales, nil)
		}
		return sessionAs(nil, nil)
	}
}

func TestRegistryCachesAuthenticatedSessions(t *testing.T) {
	calls := 0
	reg := NewSessionRegistry(countingFactory(&calls), time.Hour, nil)
	ctx := context.Background()

	first := reg.Open(ctx, "valid")
	second := reg.Open(ctx, "valid")

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, reg.Len())

	reg.Open(ctx, "")
	reg.Open(ctx, "expired")
	assert.Equal(t, 1, reg.Len())

	reg.Remove("valid")
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, usecase.StateDisposed, first.State())
}

func TestRegistryPutKeepsFirstSession(t *testing.T) {
	calls := 0
	reg := NewSessionRegistry(countingFactory(&calls), time.Hour, nil)
	sales := entity.RoleSales
	a, b := sessionAs(&sales, nil), sessionAs(&sales, nil)

	assert.Same(t, a, reg.Put("tok", a))
	assert.Same(t, a, reg.Put("tok", b))
	assert.Equal(t, usecase.StateDisposed, b.State())
}

func TestRegistryEvictsIdle(t *testing.T) {
	calls := 0
	reg := NewSessionRegistry(countingFactory(&calls), time.Minute, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	sess := reg.Open(context.Background(), "valid")
	now = now.Add(2 * time.Minute)

	assert.Equal(t, 1, reg.evictIdle())
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, usecase.StateDisposed, sess.State())
}

func TestMiddlewareAttachesSession(t *testing.T) {
	calls := 0
	reg := NewSessionRegistry(countingFactory(&calls), time.Hour, nil)

	var got *usecase.Session
	var token string
	h := reg.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFrom(r.Context())
		token = TokenFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "valid"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, "valid", token)
	assert.Equal(t, usecase.StateReady, got.State())
}
