package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/xavierca1/leadtrack/internal/entity"
	"github.com/xavierca1/leadtrack/internal/infra/auth"
)

// CredentialRepository stores login credentials in the identities table.
type CredentialRepository struct {
	DB *sql.DB
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{DB: db}
}

func (r *CredentialRepository) Create(ctx context.Context, c *auth.Credential) error {
	query := `
		INSERT INTO identities (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.DB.ExecContext(ctx, query, c.UID, c.Email, c.PasswordHash, c.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return entity.ErrEmailAlreadyExists
		}
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*auth.Credential, error) {
	return r.findOne(ctx, `SELECT id, email, password_hash, created_at FROM identities WHERE lower(email) = lower($1)`, email)
}

func (r *CredentialRepository) FindByID(ctx context.Context, id string) (*auth.Credential, error) {
	return r.findOne(ctx, `SELECT id, email, password_hash, created_at FROM identities WHERE id = $1`, id)
}

func (r *CredentialRepository) findOne(ctx context.Context, query, arg string) (*auth.Credential, error) {
	var c auth.Credential
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&c.UID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrCredentialNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
