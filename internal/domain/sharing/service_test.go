package sharing

import (
	"context"
	"errors"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Grant
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Grant{}}
}

func (r *testRepo) Create(ctx context.Context, g Grant) error {
	if g.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[g.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[g.ID] = g
	return nil
}

func (r *testRepo) Update(ctx context.Context, g Grant) error {
	if _, ok := r.byID[g.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[g.ID] = g
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Grant, error) {
	g, ok := r.byID[id]
	if !ok {
		return Grant{}, errRepoNotFound
	}
	return g, nil
}

func (r *testRepo) ListByHousehold(ctx context.Context, householdID string) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.HouseholdID == householdID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) ListBySitter(ctx context.Context, sitterUserID string) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.SitterUserID == sitterUserID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) GetActiveGrant(ctx context.Context, householdID, sitterUserID string) (Grant, error) {
	for _, g := range r.byID {
		if g.HouseholdID == householdID && g.SitterUserID == sitterUserID && g.Status == StatusActive {
			return g, nil
		}
	}
	return Grant{}, errRepoNotFound
}

// -------------------------
// Tests
// -------------------------

func TestService_Invite_DefaultScopes_WhenEmpty(t *testing.T) {
	svc := NewService(newTestRepo())

	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	g, err := svc.Invite(context.Background(), InviteInput{
		HouseholdID:  "hh-1",
		OwnerUserID:  "owner-1",
		SitterUserID: "sitter-1",
	})
	if err != nil {
		t.Fatalf("Invite returned error: %v", err)
	}
	if g.Status != StatusInvited {
		t.Fatalf("expected status invited, got %s", g.Status)
	}
	if g.CreatedAt != now || g.UpdatedAt != now {
		t.Fatalf("expected CreatedAt/UpdatedAt to be now")
	}
	if !HasScope(g, ScopePlanRead) || !HasScope(g, ScopeTasksComplete) || HasScope(g, ScopeHouseholdEdit) {
		t.Fatalf("unexpected default scopes: %#v", g.Scopes)
	}
}

func TestService_Invite_RejectsUnknownScopeAndSelfInvite(t *testing.T) {
	svc := NewService(newTestRepo())

	_, err := svc.Invite(context.Background(), InviteInput{
		HouseholdID:  "hh-1",
		OwnerUserID:  "owner-1",
		SitterUserID: "sitter-1",
		Scopes:       []Scope{ScopePlanRead, Scope("pets:delete")},
	})
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	_, err = svc.Invite(context.Background(), InviteInput{
		HouseholdID:  "hh-1",
		OwnerUserID:  "owner-1",
		SitterUserID: "owner-1",
	})
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for self invite, got %v", err)
	}
}

func TestService_Invite_Dedup_UpdatesSameGrant(t *testing.T) {
	svc := NewService(newTestRepo())

	now1 := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	now2 := now1.Add(5 * time.Minute)

	svc.now = func() time.Time { return now1 }
	g1, err := svc.Invite(context.Background(), InviteInput{
		HouseholdID:  "hh-1",
		OwnerUserID:  "owner-1",
		SitterUserID: "sitter-1",
		Scopes:       []Scope{ScopePlanRead},
	})
	if err != nil {
		t.Fatalf("Invite #1 error: %v", err)
	}

	svc.now = func() time.Time { return now2 }
	g2, err := svc.Invite(context.Background(), InviteInput{
		HouseholdID:  "hh-1",
		OwnerUserID:  "owner-1",
		SitterUserID: "sitter-1",
		Scopes:       []Scope{ScopePlanRead, ScopeHouseholdEdit, ScopePlanRead},
	})
	if err != nil {
		t.Fatalf("Invite #2 error: %v", err)
	}

	if g2.ID != g1.ID {
		t.Fatalf("expected same grant ID, got %s vs %s", g1.ID, g2.ID)
	}
	if g2.UpdatedAt != now2 {
		t.Fatalf("expected UpdatedAt to change on reinvite")
	}
	if len(g2.Scopes) != 2 || !HasScope(g2, ScopeHouseholdEdit) {
		t.Fatalf("expected deduped scopes, got %#v", g2.Scopes)
	}
}

func TestService_Accept_SetsActive_AndIdempotent(t *testing.T) {
	svc := NewService(newTestRepo())

	g, err := svc.Invite(context.Background(), InviteInput{
		HouseholdID:  "hh-1",
		OwnerUserID:  "owner-1",
		SitterUserID: "sitter-1",
	})
	if err != nil {
		t.Fatalf("Invite error: %v", err)
	}

	if _, err := svc.Accept(context.Background(), g.ID, "someone-else"); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	for i := 0; i < 2; i++ {
		accepted, err := svc.Accept(context.Background(), g.ID, "sitter-1")
		if err != nil {
			t.Fatalf("Accept #%d error: %v", i+1, err)
		}
		if accepted.Status != StatusActive {
			t.Fatalf("expected active, got %s", accepted.Status)
		}
	}
}

func TestService_Accept_LeavesOnlyOneActive(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_ = repo.Create(context.Background(), Grant{
		ID: "g1", HouseholdID: "hh-1", OwnerUserID: "owner-1", SitterUserID: "sitter-1",
		Scopes: []Scope{ScopePlanRead}, Status: StatusActive,
		CreatedAt: now.Add(-10 * time.Minute), UpdatedAt: now.Add(-10 * time.Minute),
	})
	_ = repo.Create(context.Background(), Grant{
		ID: "g2", HouseholdID: "hh-1", OwnerUserID: "owner-1", SitterUserID: "sitter-1",
		Scopes: []Scope{ScopePlanRead}, Status: StatusInvited,
		CreatedAt: now.Add(-5 * time.Minute), UpdatedAt: now.Add(-5 * time.Minute),
	})

	if _, err := svc.Accept(context.Background(), "g2", "sitter-1"); err != nil {
		t.Fatalf("Accept error: %v", err)
	}

	active := 0
	for _, g := range repo.byID {
		if g.Status == StatusActive {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly 1 active grant, got %d", active)
	}
	if repo.byID["g1"].RevokedAt == nil {
		t.Fatalf("expected g1 to be revoked")
	}
}

func TestService_Revoke_OnlyOwner_AndBlocksAccept(t *testing.T) {
	svc := NewService(newTestRepo())

	g, _ := svc.Invite(context.Background(), InviteInput{
		HouseholdID:  "hh-1",
		OwnerUserID:  "owner-1",
		SitterUserID: "sitter-1",
	})

	if _, err := svc.Revoke(context.Background(), g.ID, "sitter-1"); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	revoked, err := svc.Revoke(context.Background(), g.ID, "owner-1")
	if err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if revoked.Status != StatusRevoked || revoked.RevokedAt == nil {
		t.Fatalf("expected revoked grant, got %#v", revoked)
	}

	if _, err := svc.Accept(context.Background(), g.ID, "sitter-1"); err != ErrBadState {
		t.Fatalf("expected ErrBadState, got %v", err)
	}
}

func TestService_Authorize(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	if err := svc.Authorize(ctx, "hh-1", "owner-1", "owner-1", ScopeHouseholdEdit); err != nil {
		t.Fatalf("owner should always pass, got %v", err)
	}
	if err := svc.Authorize(ctx, "hh-1", "owner-1", "sitter-1", ScopePlanRead); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden without grant, got %v", err)
	}

	g, _ := svc.Invite(ctx, InviteInput{HouseholdID: "hh-1", OwnerUserID: "owner-1", SitterUserID: "sitter-1"})
	if err := svc.Authorize(ctx, "hh-1", "owner-1", "sitter-1", ScopePlanRead); err != ErrForbidden {
		t.Fatalf("invited grant must not authorize, got %v", err)
	}

	_, _ = svc.Accept(ctx, g.ID, "sitter-1")
	if err := svc.Authorize(ctx, "hh-1", "owner-1", "sitter-1", ScopePlanRead); err != nil {
		t.Fatalf("expected active grant to authorize, got %v", err)
	}
	if err := svc.Authorize(ctx, "hh-1", "owner-1", "sitter-1", ScopeHouseholdEdit); err != ErrForbidden {
		t.Fatalf("expected missing scope to be forbidden, got %v", err)
	}
}
