package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadtrack/internal/infra/http/middleware"
	"github.com/xavierca1/leadtrack/internal/usecase"
)

// SessionStore hands out sessions by token.
type SessionStore interface {
	Open(ctx context.Context, token string) *usecase.Session
	Put(token string, sess *usecase.Session) *usecase.Session
	Remove(token string)
}

type AuthHandler struct {
	Sessions     SessionStore
	CookieTTL    time.Duration
	SecureCookie bool
	Logger       *zap.Logger
}

func NewAuthHandler(sessions SessionStore, cookieTTL time.Duration, secureCookie bool, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{Sessions: sessions, CookieTTL: cookieTTL, SecureCookie: secureCookie, Logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	AdminKey    string `json:"adminKey,omitempty"`
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeErrorResponse(w, http.StatusBadRequest, "MISSING_FIELDS", "email and password are required")
		return
	}

	sess := h.Sessions.Open(r.Context(), "")
	err := sess.Login(r.Context(), req.Email, req.Password)
	h.finish(w, r, "login", sess, err)
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeErrorResponse(w, http.StatusBadRequest, "MISSING_FIELDS", "email and password are required")
		return
	}

	sess := h.Sessions.Open(r.Context(), "")
	err := sess.Register(r.Context(), usecase.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		AdminKey:    req.AdminKey,
	})
	h.finish(w, r, "register", sess, err)
}

// finish stores an authenticated session, even one without a profile, and
// reports the outcome.
func (h *AuthHandler) finish(w http.ResponseWriter, r *http.Request, action string, sess *usecase.Session, err error) {
	if err != nil && !usecase.IsProfileError(err) {
		middleware.RecordAuthAttempt(action, "rejected")
		sess.Dispose()
		writeError(w, err)
		return
	}

	id := sess.Identity()
	if id == nil {
		middleware.RecordAuthAttempt(action, "error")
		sess.Dispose()
		writeError(w, errors.New("session has no identity after "+action))
		return
	}

	if old := middleware.TokenFrom(r.Context()); old != "" && old != id.Token {
		h.Sessions.Remove(old)
	}
	sess = h.Sessions.Put(id.Token, sess)
	h.setCookie(w, id.Token, h.CookieTTL)

	if err != nil {
		middleware.RecordAuthAttempt(action, "profile_error")
		h.Logger.Warn("signed in without profile", zap.String("action", action), zap.String("uid", id.UID), zap.Error(err))
		writeError(w, err)
		return
	}

	middleware.RecordAuthAttempt(action, "success")
	writeJSON(w, http.StatusOK, toSessionResponse(sess.Snapshot()))
}

// Logout handles POST /logout. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFrom(r.Context()); sess != nil {
		sess.Logout(r.Context())
	}
	if token := middleware.TokenFrom(r.Context()); token != "" {
		h.Sessions.Remove(token)
	}
	h.setCookie(w, "", -1)
	middleware.RecordAuthAttempt("logout", "success")
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFrom(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusOK, toSessionResponse(usecase.SessionSnapshot{State: usecase.StateAnonymous}))
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess.Snapshot()))
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, c)
}
