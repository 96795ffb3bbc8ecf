package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/xavierca1/leadtrack/internal/entity"
)

// LeadRepository keeps each lead as a JSONB document of its set fields.
// Status, owner and creation time are columns so they can be filtered and
// sorted.
type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `id, sales_id, status, created_at, doc`

func (r *LeadRepository) Insert(ctx context.Context, lead *entity.Lead, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode lead document: %w", err)
	}

	query := `
		INSERT INTO leads (id, sales_id, status, created_at, doc)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.SalesID,
		lead.Status,
		lead.CreatedAt,
		raw,
	)
	return err
}

// Update merges fields into the document. A nil status leaves the column
// untouched; sales_id and created_at are never written.
func (r *LeadRepository) Update(ctx context.Context, id string, fields map[string]any, status *entity.Status) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode lead fields: %w", err)
	}

	query := `
		UPDATE leads
		SET doc = doc || $2::jsonb,
			status = COALESCE($3, status)
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, id, raw, nullStatus(status))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// FindByScope returns the leads visible in scope, newest first.
func (r *LeadRepository) FindByScope(ctx context.Context, scope entity.Scope) ([]entity.Lead, error) {
	if !scope.Resolved() {
		return nil, fmt.Errorf("query leads with %s scope", scope)
	}

	var (
		rows *sql.Rows
		err  error
	)
	if scope.All() {
		rows, err = r.DB.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC`)
	} else {
		rows, err = r.DB.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE sales_id = $1 ORDER BY created_at DESC`, scope.OwnerID())
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []entity.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		lead entity.Lead
		doc  []byte
	)
	if err := row.Scan(&lead.ID, &lead.SalesID, &lead.Status, &lead.CreatedAt, &doc); err != nil {
		return nil, err
	}
	if err := decodeLeadDocument(doc, &lead); err != nil {
		return nil, fmt.Errorf("decode lead %s: %w", lead.ID, err)
	}
	return &lead, nil
}

// decodeLeadDocument fills the document fields of lead without touching
// the column-backed ones.
func decodeLeadDocument(doc []byte, lead *entity.Lead) error {
	id, salesID, status, createdAt := lead.ID, lead.SalesID, lead.Status, lead.CreatedAt
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, lead); err != nil {
			return err
		}
	}
	lead.ID, lead.SalesID, lead.Status, lead.CreatedAt = id, salesID, status, createdAt
	return nil
}

func nullStatus(s *entity.Status) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*s), Valid: true}
}
