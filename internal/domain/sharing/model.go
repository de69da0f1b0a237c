package sharing

import "time"

type Scope string

const (
	ScopePlanRead      Scope = "plan:read"
	ScopeTasksComplete Scope = "tasks:complete"
	ScopeHouseholdEdit Scope = "household:edit"
)

type Status string

const (
	StatusInvited Status = "invited"
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// Grant comparte un household con un cuidador (sitter, paseador, familiar).
type Grant struct {
	ID string

	HouseholdID string

	OwnerUserID  string // quien comparte
	SitterUserID string // cuidador

	Scopes []Scope
	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
