package postgres

import (
	"context"
	"database/sql"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS households (
		id            TEXT PRIMARY KEY,
		owner_user_id TEXT NOT NULL,
		owner_doc     JSONB NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS households_owner_idx ON households (owner_user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS household_grants (
		id             TEXT PRIMARY KEY,
		household_id   TEXT NOT NULL REFERENCES households (id) ON DELETE CASCADE,
		owner_user_id  TEXT NOT NULL,
		sitter_user_id TEXT NOT NULL,
		scopes         TEXT[] NOT NULL DEFAULT '{}',
		status         TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL,
		revoked_at     TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS household_grants_household_idx ON household_grants (household_id)`,
	`CREATE INDEX IF NOT EXISTS household_grants_sitter_idx ON household_grants (sitter_user_id, status)`,
	`CREATE TABLE IF NOT EXISTS care_activity (
		id            TEXT PRIMARY KEY,
		household_id  TEXT NOT NULL REFERENCES households (id) ON DELETE CASCADE,
		pet_id        TEXT NOT NULL,
		pet_name      TEXT NOT NULL,
		task_id       TEXT NOT NULL,
		task_name     TEXT NOT NULL,
		action        TEXT NOT NULL,
		day           DATE NOT NULL,
		actor_user_id TEXT NOT NULL,
		actor_role    TEXT NOT NULL,
		recorded_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS care_activity_household_idx ON care_activity (household_id, recorded_at DESC)`,
}

// EnsureSchema crea las tablas si no existen. Idempotente.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
