package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xavierca1/leadtrack/internal/entity"
)

// AccountRepository stores role profiles in the users table.
type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	query := `SELECT id, name, role, created_at FROM users WHERE id = $1`

	var acc entity.Account
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&acc.ID,
		&acc.Name,
		&acc.Role,
		&acc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w", id, err)
	}
	return &acc, nil
}

// Create inserts the profile once. A profile that already exists is left
// as it is, so the role is never rewritten.
func (r *AccountRepository) Create(ctx context.Context, acc *entity.Account) error {
	query := `
		INSERT INTO users (id, name, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.DB.ExecContext(ctx, query,
		acc.ID,
		acc.Name,
		acc.Role,
		acc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create account %s: %w", acc.ID, err)
	}
	return nil
}

func (r *AccountRepository) ListByRole(ctx context.Context, role entity.Role) ([]entity.Account, error) {
	query := `SELECT id, name, role, created_at FROM users WHERE role = $1 ORDER BY name`

	rows, err := r.DB.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []entity.Account{}
	for rows.Next() {
		var acc entity.Account
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.Role, &acc.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}
