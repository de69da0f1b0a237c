package activity

import "time"

type Action string

const (
	ActionCompleted Action = "completed"
	ActionReopened  Action = "reopened"
)

func (a Action) Valid() bool {
	return a == ActionCompleted || a == ActionReopened
}

type ActorRole string

const (
	RoleOwner  ActorRole = "owner"
	RoleSitter ActorRole = "sitter"
)

// Entry: quién marcó (o desmarcó) qué tarea y para qué día.
// Es append-only; reabrir agrega otra entrada, no borra la anterior.
type Entry struct {
	ID          string
	HouseholdID string

	PetID    string
	PetName  string
	TaskID   string
	TaskName string

	Action Action
	Day    time.Time // día del plan (00:00 UTC)

	ActorUserID string
	ActorRole   ActorRole

	RecordedAt time.Time
}
