package sharing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrBadState     = errors.New("invalid state")
)

// DefaultScopes: ver el plan y marcar tareas hechas, lo que necesita un paseador.
var DefaultScopes = []Scope{ScopePlanRead, ScopeTasksComplete}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type InviteInput struct {
	HouseholdID  string
	OwnerUserID  string
	SitterUserID string
	Scopes       []Scope
}

func (s *Service) Invite(ctx context.Context, in InviteInput) (Grant, error) {
	householdID := strings.TrimSpace(in.HouseholdID)
	ownerID := strings.TrimSpace(in.OwnerUserID)
	sitterID := strings.TrimSpace(in.SitterUserID)

	if householdID == "" || ownerID == "" || sitterID == "" {
		return Grant{}, ErrInvalidInput
	}
	if ownerID == sitterID {
		return Grant{}, ErrInvalidInput
	}

	scopes := append([]Scope(nil), DefaultScopes...)
	if len(in.Scopes) > 0 {
		var err error
		scopes, err = normalizeScopesStrict(in.Scopes)
		if err != nil {
			return Grant{}, err
		}
		if len(scopes) == 0 {
			return Grant{}, ErrInvalidInput
		}
	}

	now := s.now()

	// Re-invitar al mismo sitter actualiza el grant vigente en vez de duplicarlo.
	existing, matches, err := s.findLatestMatch(ctx, householdID, ownerID, sitterID)
	if err == nil && existing.Status != StatusRevoked {
		s.revokeOtherMatches(ctx, existing.ID, matches, now)

		existing.Scopes = scopes
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return Grant{}, err
		}
		return existing, nil
	}

	g := Grant{
		ID:           uuid.NewString(),
		HouseholdID:  householdID,
		OwnerUserID:  ownerID,
		SitterUserID: sitterID,
		Scopes:       scopes,
		Status:       StatusInvited,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return Grant{}, err
	}
	return g, nil
}

// Accept activa la invitación. Si hubiera otros grants vivos para el mismo
// (household, sitter) se revocan: queda un único activo.
func (s *Service) Accept(ctx context.Context, grantID, sitterUserID string) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	sitterUserID = strings.TrimSpace(sitterUserID)

	if grantID == "" || sitterUserID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, ErrNotFound
	}

	if g.SitterUserID != sitterUserID {
		return Grant{}, ErrForbidden
	}
	switch g.Status {
	case StatusRevoked:
		return Grant{}, ErrBadState
	case StatusActive:
		return g, nil
	case StatusInvited:
	default:
		return Grant{}, ErrBadState
	}

	now := s.now()
	g.Status = StatusActive
	g.UpdatedAt = now

	if err := s.repo.Update(ctx, g); err != nil {
		return Grant{}, err
	}

	if items, err := s.repo.ListByHousehold(ctx, g.HouseholdID); err == nil {
		matches := make([]Grant, 0, len(items))
		for _, other := range items {
			if other.SitterUserID == g.SitterUserID {
				matches = append(matches, other)
			}
		}
		s.revokeOtherMatches(ctx, g.ID, matches, now)
	}
	return g, nil
}

func (s *Service) Revoke(ctx context.Context, grantID, ownerUserID string) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	ownerUserID = strings.TrimSpace(ownerUserID)

	if grantID == "" || ownerUserID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, ErrNotFound
	}

	if g.OwnerUserID != ownerUserID {
		return Grant{}, ErrForbidden
	}

	// Idempotente
	if g.Status == StatusRevoked {
		return g, nil
	}

	now := s.now()
	g.Status = StatusRevoked
	g.UpdatedAt = now
	g.RevokedAt = &now

	if err := s.repo.Update(ctx, g); err != nil {
		return Grant{}, err
	}
	return g, nil
}

func (s *Service) ListByHousehold(ctx context.Context, householdID string) ([]Grant, error) {
	householdID = strings.TrimSpace(householdID)
	if householdID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByHousehold(ctx, householdID)
}

func (s *Service) ListBySitter(ctx context.Context, sitterUserID string) ([]Grant, error) {
	sitterUserID = strings.TrimSpace(sitterUserID)
	if sitterUserID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListBySitter(ctx, sitterUserID)
}

func (s *Service) GetActiveGrant(ctx context.Context, householdID, sitterUserID string) (Grant, error) {
	householdID = strings.TrimSpace(householdID)
	sitterUserID = strings.TrimSpace(sitterUserID)

	if householdID == "" || sitterUserID == "" {
		return Grant{}, ErrInvalidInput
	}
	g, err := s.repo.GetActiveGrant(ctx, householdID, sitterUserID)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	return g, nil
}

// Authorize: el owner pasa siempre; cualquier otro necesita un grant activo con scope.
func (s *Service) Authorize(ctx context.Context, householdID, ownerUserID, userID string, scope Scope) error {
	if userID != "" && userID == ownerUserID {
		return nil
	}
	g, err := s.GetActiveGrant(ctx, householdID, userID)
	if err != nil || !HasScope(g, scope) {
		return ErrForbidden
	}
	return nil
}

func HasScope(g Grant, scope Scope) bool {
	for _, s := range g.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func (s *Service) findLatestMatch(ctx context.Context, householdID, ownerID, sitterID string) (Grant, []Grant, error) {
	items, err := s.repo.ListByHousehold(ctx, householdID)
	if err != nil {
		return Grant{}, nil, err
	}

	matches := make([]Grant, 0)
	var winner Grant
	hasWinner := false

	for _, g := range items {
		if g.OwnerUserID != ownerID || g.SitterUserID != sitterID {
			continue
		}
		matches = append(matches, g)

		if !hasWinner || g.UpdatedAt.After(winner.UpdatedAt) {
			winner = g
			hasWinner = true
		}
	}

	if !hasWinner {
		return Grant{}, matches, ErrNotFound
	}
	return winner, matches, nil
}

func (s *Service) revokeOtherMatches(ctx context.Context, winnerID string, matches []Grant, now time.Time) {
	for _, g := range matches {
		if g.ID == "" || g.ID == winnerID || g.Status == StatusRevoked {
			continue
		}
		g.Status = StatusRevoked
		g.UpdatedAt = now
		g.RevokedAt = &now
		_ = s.repo.Update(ctx, g) // best-effort
	}
}

func normalizeScopesStrict(in []Scope) ([]Scope, error) {
	allowed := map[Scope]struct{}{
		ScopePlanRead:      {},
		ScopeTasksComplete: {},
		ScopeHouseholdEdit: {},
	}

	seen := map[Scope]struct{}{}
	out := make([]Scope, 0, len(in))

	for _, raw := range in {
		s := Scope(strings.TrimSpace(string(raw)))
		if s == "" {
			continue
		}
		if _, ok := allowed[s]; !ok {
			return nil, ErrInvalidInput
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out, nil
}
