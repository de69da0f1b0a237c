package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pawpal/internal/domain/care"
	"pawpal/internal/domain/households"
)

// HouseholdsRepo guarda el owner completo (disponibilidad, mascotas, tareas) como JSONB:
// el plan se arma siempre sobre el agregado entero.
type HouseholdsRepo struct {
	db *sql.DB
}

func NewHouseholdsRepo(db *sql.DB) *HouseholdsRepo {
	return &HouseholdsRepo{db: db}
}

func (r *HouseholdsRepo) Create(ctx context.Context, h households.Household) error {
	doc, err := json.Marshal(h.Owner)
	if err != nil {
		return fmt.Errorf("encode owner: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO households (
			id, owner_user_id, owner_doc,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5)
	`,
		h.ID,
		h.OwnerUserID,
		doc,
		h.CreatedAt,
		h.UpdatedAt,
	)
	return err
}

func (r *HouseholdsRepo) Update(ctx context.Context, h households.Household) error {
	doc, err := json.Marshal(h.Owner)
	if err != nil {
		return fmt.Errorf("encode owner: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE households
		SET
			owner_doc = $2,
			updated_at = $3
		WHERE id = $1
	`,
		h.ID,
		doc,
		h.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return households.ErrNotFound
	}
	return nil
}

func (r *HouseholdsRepo) GetByID(ctx context.Context, id string) (households.Household, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return households.Household{}, households.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, owner_doc, created_at, updated_at
		FROM households
		WHERE id = $1
	`, id)

	h, err := scanHousehold(row)
	if errors.Is(err, sql.ErrNoRows) {
		return households.Household{}, households.ErrNotFound
	}
	return h, err
}

func (r *HouseholdsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]households.Household, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_user_id, owner_doc, created_at, updated_at
		FROM households
		WHERE owner_user_id = $1
		ORDER BY created_at ASC
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]households.Household, 0)
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHousehold(s scanner) (households.Household, error) {
	var h households.Household
	var doc []byte

	if err := s.Scan(&h.ID, &h.OwnerUserID, &doc, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return households.Household{}, err
	}

	var owner care.Owner
	if err := json.Unmarshal(doc, &owner); err != nil {
		return households.Household{}, fmt.Errorf("decode owner of household %s: %w", h.ID, err)
	}
	h.Owner = owner
	return h, nil
}
