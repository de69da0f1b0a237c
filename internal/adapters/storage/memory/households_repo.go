package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pawpal/internal/domain/households"
)

type householdRepo struct {
	mu   sync.RWMutex
	byID map[string]households.Household
}

func NewHouseholdRepo() households.Repository {
	return &householdRepo{
		byID: make(map[string]households.Household),
	}
}

// Se guarda y se devuelve siempre un Clone: el service muta el agregado en su copia.
func (r *householdRepo) Create(ctx context.Context, h households.Household) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(h.ID) == "" {
		return errors.New("household id required")
	}
	if _, exists := r.byID[h.ID]; exists {
		return errors.New("household already exists")
	}
	r.byID[h.ID] = h.Clone()
	return nil
}

func (r *householdRepo) Update(ctx context.Context, h households.Household) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(h.ID) == "" {
		return errors.New("household id required")
	}
	if _, exists := r.byID[h.ID]; !exists {
		return households.ErrNotFound
	}
	r.byID[h.ID] = h.Clone()
	return nil
}

func (r *householdRepo) GetByID(ctx context.Context, id string) (households.Household, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.byID[id]
	if !ok {
		return households.Household{}, households.ErrNotFound
	}
	return h.Clone(), nil
}

func (r *householdRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]households.Household, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]households.Household, 0)
	for _, h := range r.byID {
		if h.OwnerUserID == ownerUserID {
			out = append(out, h.Clone())
		}
	}

	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}
