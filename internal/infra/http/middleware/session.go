package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadtrack/internal/usecase"
)

const SessionCookie = "leadtrack_session"

type ctxKey int

const (
	sessionKey ctxKey = iota
	tokenKey
)

// SessionFactory builds an initialized session from a session token. An
// empty or invalid token yields an anonymous session.
type SessionFactory func(ctx context.Context, token string) *usecase.Session

type sessionEntry struct {
	session  *usecase.Session
	lastSeen time.Time
}

// SessionRegistry keeps one live session per token, so the profile is
// loaded once and not on every request.
type SessionRegistry struct {
	factory SessionFactory
	idle    time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

func NewSessionRegistry(factory SessionFactory, idle time.Duration, logger *zap.Logger) *SessionRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRegistry{
		factory:  factory,
		idle:     idle,
		logger:   logger,
		now:      time.Now,
		sessions: map[string]*sessionEntry{},
	}
}

// Open returns the cached session of token, building it on first use.
// Anonymous sessions are not cached.
func (s *SessionRegistry) Open(ctx context.Context, token string) *usecase.Session {
	if token != "" {
		s.mu.Lock()
		e, ok := s.sessions[token]
		if ok {
			e.lastSeen = s.now()
		}
		s.mu.Unlock()
		if ok {
			return e.session
		}
	}

	sess := s.factory(ctx, token)
	if token != "" && sess.Identity() != nil {
		sess = s.Put(token, sess)
	}
	return sess
}

// Put caches sess under token. When another request cached the same token
// first, that session wins and sess is disposed.
func (s *SessionRegistry) Put(token string, sess *usecase.Session) *usecase.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[token]; ok && e.session != sess {
		sess.Dispose()
		e.lastSeen = s.now()
		return e.session
	}
	s.sessions[token] = &sessionEntry{session: sess, lastSeen: s.now()}
	activeSessions.Set(float64(len(s.sessions)))
	return sess
}

// Remove drops and disposes the session of token.
func (s *SessionRegistry) Remove(token string) {
	s.mu.Lock()
	e, ok := s.sessions[token]
	delete(s.sessions, token)
	activeSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()
	if ok {
		e.session.Dispose()
	}
}

func (s *SessionRegistry) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run evicts sessions idle for longer than the idle timeout until ctx ends.
func (s *SessionRegistry) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.evictIdle(); n > 0 {
				s.logger.Debug("idle sessions evicted", zap.Int("count", n))
			}
		}
	}
}

func (s *SessionRegistry) evictIdle() int {
	cutoff := s.now().Add(-s.idle)

	s.mu.Lock()
	var stale []*usecase.Session
	for token, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.session)
			delete(s.sessions, token)
		}
	}
	activeSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	for _, sess := range stale {
		sess.Dispose()
	}
	return len(stale)
}

// Middleware attaches the session named by the session cookie to the
// request context.
func (s *SessionRegistry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if c, err := r.Cookie(SessionCookie); err == nil {
			token = c.Value
		}
		sess := s.Open(r.Context(), token)
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SessionFrom(ctx context.Context) *usecase.Session {
	sess, _ := ctx.Value(sessionKey).(*usecase.Session)
	return sess
}

func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// WithSession is used by tests and by handlers that swap the session.
func WithSession(ctx context.Context, sess *usecase.Session, token string) context.Context {
	ctx = context.WithValue(ctx, sessionKey, sess)
	return context.WithValue(ctx, tokenKey, token)
}
