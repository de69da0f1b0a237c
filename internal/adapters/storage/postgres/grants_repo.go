package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"pawpal/internal/domain/sharing"
)

type GrantsRepo struct {
	db *sql.DB
}

func NewGrantsRepo(db *sql.DB) *GrantsRepo {
	return &GrantsRepo{db: db}
}

const grantColumns = `
	id, household_id, owner_user_id, sitter_user_id,
	scopes, status,
	created_at, updated_at, revoked_at`

func (r *GrantsRepo) Create(ctx context.Context, g sharing.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO household_grants (`+grantColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		g.ID,
		g.HouseholdID,
		g.OwnerUserID,
		g.SitterUserID,
		scopesToTextArray(g.Scopes),
		string(g.Status),
		g.CreatedAt,
		g.UpdatedAt,
		toNullTime(g.RevokedAt),
	)
	return err
}

func (r *GrantsRepo) Update(ctx context.Context, g sharing.Grant) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE household_grants
		SET
			scopes = $2,
			status = $3,
			updated_at = $4,
			revoked_at = $5
		WHERE id = $1
	`,
		g.ID,
		scopesToTextArray(g.Scopes),
		string(g.Status),
		g.UpdatedAt,
		toNullTime(g.RevokedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GrantsRepo) GetByID(ctx context.Context, id string) (sharing.Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return sharing.Grant{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+grantColumns+` FROM household_grants WHERE id = $1`, id)
	g, err := scanGrant(row)
	if err == sql.ErrNoRows {
		return sharing.Grant{}, ErrNotFound
	}
	return g, err
}

func (r *GrantsRepo) ListByHousehold(ctx context.Context, householdID string) ([]sharing.Grant, error) {
	householdID = strings.TrimSpace(householdID)
	if householdID == "" {
		return nil, nil
	}
	return r.query(ctx, `
		SELECT `+grantColumns+`
		FROM household_grants
		WHERE household_id = $1
		ORDER BY created_at ASC
	`, householdID)
}

func (r *GrantsRepo) ListBySitter(ctx context.Context, sitterUserID string) ([]sharing.Grant, error) {
	sitterUserID = strings.TrimSpace(sitterUserID)
	if sitterUserID == "" {
		return nil, nil
	}
	return r.query(ctx, `
		SELECT `+grantColumns+`
		FROM household_grants
		WHERE sitter_user_id = $1
		ORDER BY updated_at DESC
	`, sitterUserID)
}

func (r *GrantsRepo) GetActiveGrant(ctx context.Context, householdID, sitterUserID string) (sharing.Grant, error) {
	householdID = strings.TrimSpace(householdID)
	sitterUserID = strings.TrimSpace(sitterUserID)
	if householdID == "" || sitterUserID == "" {
		return sharing.Grant{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM household_grants
		WHERE household_id = $1
		  AND sitter_user_id = $2
		  AND status = 'active'
		ORDER BY updated_at DESC
		LIMIT 1
	`, householdID, sitterUserID)

	g, err := scanGrant(row)
	if err == sql.ErrNoRows {
		return sharing.Grant{}, ErrNotFound
	}
	return g, err
}

func (r *GrantsRepo) query(ctx context.Context, q string, args ...any) ([]sharing.Grant, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sharing.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// scopes es text[]: database/sql no sabe escanear arrays, se delega en pgtype.
func scanGrant(s scanner) (sharing.Grant, error) {
	var g sharing.Grant
	var status string
	var scopes []string
	var revokedAt sql.NullTime

	if err := s.Scan(
		&g.ID,
		&g.HouseholdID,
		&g.OwnerUserID,
		&g.SitterUserID,
		pgtype.NewMap().SQLScanner(&scopes),
		&status,
		&g.CreatedAt,
		&g.UpdatedAt,
		&revokedAt,
	); err != nil {
		return sharing.Grant{}, err
	}

	g.Status = sharing.Status(status)
	g.Scopes = textArrayToScopes(scopes)
	if revokedAt.Valid {
		t := revokedAt.Time
		g.RevokedAt = &t
	}
	return g, nil
}

// helpers
func scopesToTextArray(in []sharing.Scope) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}

func textArrayToScopes(in []string) []sharing.Scope {
	out := make([]sharing.Scope, 0, len(in))
	for _, s := range in {
		out = append(out, sharing.Scope(s))
	}
	return out
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
