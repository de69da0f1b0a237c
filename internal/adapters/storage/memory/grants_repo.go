package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pawpal/internal/domain/sharing"
)

var ErrNotFound = errors.New("not found")

type grantRepo struct {
	mu   sync.RWMutex
	byID map[string]sharing.Grant
}

func NewGrantRepo() sharing.Repository {
	return &grantRepo{
		byID: make(map[string]sharing.Grant),
	}
}

func (r *grantRepo) Create(ctx context.Context, g sharing.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; exists {
		return errors.New("grant already exists")
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grantRepo) Update(ctx context.Context, g sharing.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; !exists {
		return ErrNotFound
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grantRepo) GetByID(ctx context.Context, id string) (sharing.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	if !ok {
		return sharing.Grant{}, ErrNotFound
	}
	return g, nil
}

func (r *grantRepo) ListByHousehold(ctx context.Context, householdID string) ([]sharing.Grant, error) {
	return r.list(func(g sharing.Grant) bool { return g.HouseholdID == householdID }), nil
}

func (r *grantRepo) ListBySitter(ctx context.Context, sitterUserID string) ([]sharing.Grant, error) {
	return r.list(func(g sharing.Grant) bool { return g.SitterUserID == sitterUserID }), nil
}

// Si por data sucia hubiera varios activos, gana el más reciente por UpdatedAt
// (y en empate, por CreatedAt).
func (r *grantRepo) GetActiveGrant(ctx context.Context, householdID, sitterUserID string) (sharing.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var winner sharing.Grant
	has := false

	for _, g := range r.byID {
		if g.HouseholdID != householdID || g.SitterUserID != sitterUserID {
			continue
		}
		if g.Status != sharing.StatusActive {
			continue
		}

		switch {
		case !has:
			winner, has = g, true
		case g.UpdatedAt.After(winner.UpdatedAt):
			winner = g
		case g.UpdatedAt.Equal(winner.UpdatedAt) && g.CreatedAt.After(winner.CreatedAt):
			winner = g
		}
	}

	if !has {
		return sharing.Grant{}, ErrNotFound
	}
	return winner, nil
}

func (r *grantRepo) list(match func(sharing.Grant) bool) []sharing.Grant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sharing.Grant, 0)
	for _, g := range r.byID {
		if match(g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
