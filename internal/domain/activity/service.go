package activity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"pawpal/internal/domain/care"
	"pawpal/internal/platform/logger"
)

var ErrInvalidInput = errors.New("invalid input")

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"component": "activity"}),
		now:  time.Now,
	}
}

type RecordInput struct {
	HouseholdID string
	OwnerUserID string
	ActorUserID string
	Action      Action
	Day         time.Time
	Task        care.CareTask
}

func (s *Service) Record(ctx context.Context, in RecordInput) (Entry, error) {
	householdID := strings.TrimSpace(in.HouseholdID)
	actor := strings.TrimSpace(in.ActorUserID)

	if householdID == "" || actor == "" || strings.TrimSpace(in.Task.ID) == "" {
		return Entry{}, ErrInvalidInput
	}
	if !in.Action.Valid() || in.Day.IsZero() {
		return Entry{}, ErrInvalidInput
	}

	role := RoleSitter
	if actor == strings.TrimSpace(in.OwnerUserID) {
		role = RoleOwner
	}

	e := Entry{
		ID:          uuid.NewString(),
		HouseholdID: householdID,
		PetID:       in.Task.PetID,
		PetName:     in.Task.PetName,
		TaskID:      in.Task.ID,
		TaskName:    in.Task.Name,
		Action:      in.Action,
		Day:         care.DateOf(in.Day),
		ActorUserID: actor,
		ActorRole:   role,
		RecordedAt:  s.now(),
	}

	if err := s.repo.Create(ctx, e); err != nil {
		s.log.Error("record activity failed", map[string]any{
			"household_id": householdID,
			"task_id":      e.TaskID,
			"error":        err,
		})
		return Entry{}, err
	}

	s.log.Info("task "+string(e.Action), map[string]any{
		"household_id": householdID,
		"task":         e.TaskName,
		"pet":          e.PetName,
		"by":           actor,
		"role":         string(role),
		"day":          e.Day.Format("2006-01-02"),
	})
	return e, nil
}

// List devuelve lo más reciente primero. Limit fuera de rango se lleva a [1, MaxLimit].
func (s *Service) List(ctx context.Context, householdID string, filter ListFilter) ([]Entry, error) {
	householdID = strings.TrimSpace(householdID)
	if householdID == "" {
		return nil, ErrInvalidInput
	}
	for _, a := range filter.Actions {
		if !a.Valid() {
			return nil, ErrInvalidInput
		}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, ErrInvalidInput
	}

	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultLimit
	case filter.Limit > MaxLimit:
		filter.Limit = MaxLimit
	}
	filter.PetID = strings.TrimSpace(filter.PetID)

	return s.repo.ListByHousehold(ctx, householdID, filter)
}
