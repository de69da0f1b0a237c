package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pawpal/internal/domain/activity"
)

type activityRepo struct {
	mu          sync.RWMutex
	byHousehold map[string][]activity.Entry
}

func NewActivityRepo() activity.Repository {
	return &activityRepo{
		byHousehold: make(map[string][]activity.Entry),
	}
}

func (r *activityRepo) Create(ctx context.Context, e activity.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" || e.HouseholdID == "" {
		return errors.New("activity id and household required")
	}
	r.byHousehold[e.HouseholdID] = append(r.byHousehold[e.HouseholdID], e)
	return nil
}

func (r *activityRepo) ListByHousehold(ctx context.Context, householdID string, filter activity.ListFilter) ([]activity.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]activity.Entry, 0)
	for _, e := range r.byHousehold[householdID] {
		if filter.PetID != "" && e.PetID != filter.PetID {
			continue
		}
		if len(filter.Actions) > 0 && !hasAction(filter.Actions, e.Action) {
			continue
		}
		if filter.From != nil && e.Day.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Day.After(*filter.To) {
			continue
		}
		out = append(out, e)
	}

	// Más reciente primero.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func hasAction(in []activity.Action, a activity.Action) bool {
	for _, x := range in {
		if x == a {
			return true
		}
	}
	return false
}
