package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xavierca1/leadtrack/internal/entity"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrWeakPassword       = errors.New("password must have at least 6 characters")
)

const minPasswordLength = 6

// Credential is a stored login: the identity plus its password hash.
type Credential struct {
	UID          string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type CredentialStore interface {
	Create(ctx context.Context, c *Credential) error
	FindByEmail(ctx context.Context, email string) (*Credential, error)
	FindByID(ctx context.Context, id string) (*Credential, error)
}

// Service is the identity provider backend: it checks passwords and signs
// the session tokens handed to clients.
type Service struct {
	store  CredentialStore
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store CredentialStore, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.Identity, error) {
	c, err := s.store.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrCredentialNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(c)
}

func (s *Service) Register(ctx context.Context, email, password string) (*entity.Identity, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, errors.New("email is required")
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	c := &Credential{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("identity created", zap.String("uid", c.UID))
	return s.issue(c)
}

// EmailAvailable reports whether no identity uses email yet.
func (s *Service) EmailAvailable(ctx context.Context, email string) (bool, error) {
	_, err := s.store.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrCredentialNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("find credential: %w", err)
	}
	return false, nil
}

// Resolve turns a session token back into its identity. The credential
// must still exist.
func (s *Service) Resolve(ctx context.Context, token string) (*entity.Identity, error) {
	uid, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}
	c, err := s.store.FindByID(ctx, uid)
	if errors.Is(err, ErrCredentialNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return &entity.Identity{UID: c.UID, Email: c.Email, Token: token}, nil
}

func (s *Service) IssueToken(uid string) (string, error) {
	now := s.now()
	claims := jwt.StandardClaims{
		Id:        uuid.NewString(),
		Subject:   uid,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates the signature and expiry and returns the uid.
func (s *Service) ParseToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.StandardClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.StandardClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *Service) issue(c *Credential) (*entity.Identity, error) {
	token, err := s.IssueToken(c.UID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &entity.Identity{UID: c.UID, Email: c.Email, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
