package activity

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, e Entry) error
	ListByHousehold(ctx context.Context, householdID string, filter ListFilter) ([]Entry, error)
}

// ListFilter: campos vacíos no filtran. From/To comparan contra Day (inclusive).
type ListFilter struct {
	PetID   string
	Actions []Action
	From    *time.Time
	To      *time.Time
	Limit   int
}
