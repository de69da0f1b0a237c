package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pawpal/internal/domain/activity"
)

type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Create(ctx context.Context, e activity.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO care_activity (
			id, household_id,
			pet_id, pet_name, task_id, task_name,
			action, day,
			actor_user_id, actor_role,
			recorded_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		e.ID,
		e.HouseholdID,
		e.PetID,
		e.PetName,
		e.TaskID,
		e.TaskName,
		string(e.Action),
		e.Day,
		e.ActorUserID,
		string(e.ActorRole),
		e.RecordedAt,
	)
	return err
}

func (r *ActivityRepo) ListByHousehold(ctx context.Context, householdID string, filter activity.ListFilter) ([]activity.Entry, error) {
	householdID = strings.TrimSpace(householdID)
	if householdID == "" {
		return nil, nil
	}

	sb := strings.Builder{}
	sb.WriteString(`
		SELECT
			id, household_id,
			pet_id, pet_name, task_id, task_name,
			action, day,
			actor_user_id, actor_role,
			recorded_at
		FROM care_activity
		WHERE household_id = $1
	`)

	args := []any{householdID}
	argN := 2

	if filter.PetID != "" {
		sb.WriteString(fmt.Sprintf(" AND pet_id = $%d", argN))
		args = append(args, filter.PetID)
		argN++
	}

	if len(filter.Actions) > 0 {
		placeholders := make([]string, 0, len(filter.Actions))
		for _, a := range filter.Actions {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(a))
			argN++
		}
		sb.WriteString(" AND action IN (" + strings.Join(placeholders, ",") + ")")
	}

	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND day >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND day <= $%d", argN))
		args = append(args, *filter.To)
		argN++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = activity.DefaultLimit
	}

	sb.WriteString(" ORDER BY recorded_at DESC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]activity.Entry, 0)
	for rows.Next() {
		var e activity.Entry
		var action, role string

		if err := rows.Scan(
			&e.ID,
			&e.HouseholdID,
			&e.PetID,
			&e.PetName,
			&e.TaskID,
			&e.TaskName,
			&action,
			&e.Day,
			&e.ActorUserID,
			&role,
			&e.RecordedAt,
		); err != nil {
			return nil, err
		}
		e.Action = activity.Action(action)
		e.ActorRole = activity.ActorRole(role)
		e.Day = e.Day.UTC()

		out = append(out, e)
	}
	return out, rows.Err()
}
