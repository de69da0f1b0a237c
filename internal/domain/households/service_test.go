package households

import (
	"context"
	"errors"
	"testing"
	"time"

	"pawpal/internal/domain/care"
	"pawpal/internal/domain/planner"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID    map[string]Household
	updates int
	getErr  error
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Household{}}
}

func (r *testRepo) Create(ctx context.Context, h Household) error {
	if _, ok := r.byID[h.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[h.ID] = h.Clone()
	return nil
}

func (r *testRepo) Update(ctx context.Context, h Household) error {
	if _, ok := r.byID[h.ID]; !ok {
		return ErrNotFound
	}
	r.updates++
	r.byID[h.ID] = h.Clone()
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Household, error) {
	if r.getErr != nil {
		return Household{}, r.getErr
	}
	h, ok := r.byID[id]
	if !ok {
		return Household{}, ErrNotFound
	}
	return h.Clone(), nil
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]Household, error) {
	out := make([]Household, 0)
	for _, h := range r.byID {
		if h.OwnerUserID == ownerUserID {
			out = append(out, h.Clone())
		}
	}
	return out, nil
}

// -------------------------
// Helpers
// -------------------------

var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	repo  *testRepo
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{repo: newTestRepo(), clock: monday.Add(6 * time.Hour)}
	f.svc = NewService(f.repo, Options{PlanCacheSize: 8})
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	return f
}

func (f *fixture) household(t *testing.T, availability ...string) Household {
	t.Helper()
	h, err := f.svc.Create(context.Background(), "owner-1", CreateInput{Name: "Sarah", Availability: availability})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return h
}

func (f *fixture) pet(t *testing.T, householdID, name, species string, age int) care.Pet {
	t.Helper()
	p, err := f.svc.AddPet(context.Background(), householdID, AddPetInput{Name: name, Species: species, Age: age})
	if err != nil {
		t.Fatalf("AddPet error: %v", err)
	}
	return p
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_NormalizesAvailability(t *testing.T) {
	f := newFixture(t)

	h := f.household(t, "17:00-20:00", "07:00-09:00")

	if h.OwnerUserID != "owner-1" || h.Owner.Name != "Sarah" {
		t.Fatalf("unexpected household: %#v", h)
	}
	if len(h.Owner.Availability) != 2 || h.Owner.Availability[0].Start != 7*60 {
		t.Fatalf("expected availability sorted by start, got %v", h.Owner.Availability)
	}
}

func TestService_Create_RejectsOverlapAndBadInput(t *testing.T) {
	f := newFixture(t)

	cases := []CreateInput{
		{Name: "", Availability: []string{"07:00-09:00"}},
		{Name: "Sarah", Availability: []string{"07:00-09:00", "08:30-10:00"}},
		{Name: "Sarah", Availability: []string{"7am-9am"}},
	}
	for _, in := range cases {
		if _, err := f.svc.Create(context.Background(), "owner-1", in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %#v, got %v", in, err)
		}
	}
}

func TestService_AddTask_ValidatesDefinition(t *testing.T) {
	f := newFixture(t)
	h := f.household(t, "07:00-09:00")
	p := f.pet(t, h.ID, "Buddy", "dog", 4)

	_, err := f.svc.AddTask(context.Background(), h.ID, p.ID, AddTaskInput{
		Name: "Vet Visit", Kind: "health_check", DurationMinutes: 60, Priority: 3, Frequency: "weekly",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("weekly without weekday: expected ErrInvalidInput, got %v", err)
	}

	_, err = f.svc.AddTask(context.Background(), h.ID, p.ID, AddTaskInput{
		Name: "Pill", Kind: "medication", DurationMinutes: 5, Priority: 5, Frequency: "twice_daily",
		PreferredWindows: []string{"07:00-08:00"},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("twice_daily with one window: expected ErrInvalidInput, got %v", err)
	}

	_, err = f.svc.AddTask(context.Background(), h.ID, "missing", AddTaskInput{
		Name: "Walk", Kind: "walk", DurationMinutes: 30, Priority: 3,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown pet, got %v", err)
	}

	task, err := f.svc.AddTask(context.Background(), h.ID, p.ID, AddTaskInput{
		Name: "Bath", Kind: "grooming", DurationMinutes: 30, Priority: 2, Frequency: "weekly", Weekday: "Sat",
	})
	if err != nil {
		t.Fatalf("AddTask error: %v", err)
	}
	if task.PetName != "Buddy" || task.ScheduledWeekday == nil || *task.ScheduledWeekday != time.Saturday {
		t.Fatalf("unexpected task: %#v", task)
	}
}

func TestService_Plan_SchedulesAndCaches(t *testing.T) {
	f := newFixture(t)
	h := f.household(t, "07:00-09:00")
	p := f.pet(t, h.ID, "Buddy", "dog", 4)

	walk, err := f.svc.AddTask(context.Background(), h.ID, p.ID, AddTaskInput{
		Name: "Morning Walk", Kind: "walk", DurationMinutes: 30, Priority: 4, Frequency: "daily",
		PreferredWindows: []string{"07:30-08:30"},
	})
	if err != nil {
		t.Fatalf("AddTask error: %v", err)
	}

	plan, err := f.svc.Plan(context.Background(), h.ID, monday.Add(15*time.Hour))
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if len(plan.Scheduled) != 1 || plan.Scheduled[0].ID != walk.ID {
		t.Fatalf("expected walk scheduled, got %#v", plan.Scheduled)
	}
	if start, _ := plan.Scheduled[0].Placement.StartMinute(); start != 7*60+30 {
		t.Fatalf("expected start 07:30, got %s", care.FormatClock(start))
	}
	if !plan.Date.Equal(monday) {
		t.Fatalf("expected plan date truncated to monday, got %v", plan.Date)
	}

	// Mutar el resultado no debe afectar el cache.
	plan.Scheduled[0].Name = "changed"
	again, _ := f.svc.Plan(context.Background(), h.ID, monday)
	if again.Scheduled[0].Name != "Morning Walk" {
		t.Fatalf("cached plan was mutated through a previous result")
	}
	if f.svc.plans.Len() != 1 {
		t.Fatalf("expected one cached plan, got %d", f.svc.plans.Len())
	}
}

func TestService_CompleteTask_InvalidatesPlanAndAdvancesDueDate(t *testing.T) {
	f := newFixture(t)
	h := f.household(t, "07:00-09:00")
	p := f.pet(t, h.ID, "Buddy", "dog", 4)
	walk, _ := f.svc.AddTask(context.Background(), h.ID, p.ID, AddTaskInput{
		Name: "Walk", Kind: "walk", DurationMinutes: 30, Priority: 3, Frequency: "daily",
	})

	if plan, _ := f.svc.Plan(context.Background(), h.ID, monday); len(plan.Scheduled) != 1 {
		t.Fatalf("expected walk scheduled before completion")
	}

	done, err := f.svc.CompleteTask(context.Background(), h.ID, walk.ID, monday)
	if err != nil {
		t.Fatalf("CompleteTask error: %v", err)
	}
	if !done.Completed || done.NextDueDate == nil || !done.NextDueDate.Equal(monday.AddDate(0, 0, 1)) {
		t.Fatalf("unexpected completed task: %#v", done)
	}

	plan, _ := f.svc.Plan(context.Background(), h.ID, monday)
	if len(plan.Scheduled) != 1 || !plan.Scheduled[0].Completed {
		t.Fatalf("expected the walk to stay in today's plan marked done, got %#v", plan.Scheduled)
	}
	plan, _ = f.svc.Plan(context.Background(), h.ID, monday.AddDate(0, 0, 1))
	if len(plan.Scheduled) != 1 || plan.Scheduled[0].Completed {
		t.Fatalf("expected walk due again tomorrow, pending")
	}

	reopened, err := f.svc.ReopenTask(context.Background(), h.ID, walk.ID)
	if err != nil {
		t.Fatalf("ReopenTask error: %v", err)
	}
	if reopened.Completed || !reopened.NextDueDate.Equal(monday) {
		t.Fatalf("expected reopen to rewind next due date, got %#v", reopened)
	}
}

func TestService_CompleteTask_TwiceDailyInstanceAndDerived(t *testing.T) {
	f := newFixture(t)
	h := f.household(t, "07:00-09:00", "18:00-20:00")
	p := f.pet(t, h.ID, "Rex", "dog", 1)
	feed, _ := f.svc.AddTask(context.Background(), h.ID, p.ID, AddTaskInput{
		Name: "Feed", Kind: "feed", DurationMinutes: 10, Priority: 5, Frequency: "twice_daily",
		PreferredWindows: []string{"07:00-08:00", "18:00-19:00"},
	})

	if _, err := f.svc.CompleteTask(context.Background(), h.ID, feed.ID+"#2", monday); err != nil {
		t.Fatalf("CompleteTask on instance error: %v", err)
	}

	derivedID := "auto:" + p.ID + ":training-session"
	done, err := f.svc.CompleteTask(context.Background(), h.ID, derivedID, monday)
	if err != nil {
		t.Fatalf("CompleteTask on derived task error: %v", err)
	}
	if done.ID != derivedID || !done.Completed {
		t.Fatalf("unexpected derived completion: %#v", done)
	}

	stored := f.repo.byID[h.ID]
	if len(stored.Owner.Pets[0].Tasks) != 2 {
		t.Fatalf("expected derived task materialized on the pet, got %d tasks", len(stored.Owner.Pets[0].Tasks))
	}

	plan, _ := f.svc.Plan(context.Background(), h.ID, monday)
	completed := map[string]bool{}
	for _, tk := range plan.Scheduled {
		completed[tk.ID] = tk.Completed
	}
	if completed[feed.ID+"#1"] || !completed[feed.ID+"#2"] || !completed[derivedID] {
		t.Fatalf("unexpected completion state in today's plan: %v", completed)
	}

	if _, err := f.svc.CompleteTask(context.Background(), h.ID, "nope", monday); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_CompleteTask_OneDoseLeavesTheOtherPending(t *testing.T) {
	f := newFixture(t)
	h := f.household(t, "07:00-09:00", "19:00-21:00")
	p := f.pet(t, h.ID, "Mochi", "cat", 5)
	pill, err := f.svc.AddTask(context.Background(), h.ID, p.ID, AddTaskInput{
		Name: "Pill", Kind: "medication", DurationMinutes: 5, Priority: 5, Frequency: "twice_daily",
		PreferredWindows: []string{"07:00-08:00", "19:00-20:00"},
	})
	if err != nil {
		t.Fatalf("AddTask error: %v", err)
	}

	before, _ := f.svc.Plan(context.Background(), h.ID, monday)
	if len(before.Scheduled) != 2 {
		t.Fatalf("expected both doses scheduled, got %d", len(before.Scheduled))
	}

	morning, err := f.svc.CompleteTask(context.Background(), h.ID, pill.ID+"#1", monday)
	if err != nil {
		t.Fatalf("CompleteTask error: %v", err)
	}
	if morning.ID != pill.ID+"#1" || !morning.Completed {
		t.Fatalf("expected the morning dose back as done, got %#v", morning)
	}
	if stored := f.repo.byID[h.ID].Owner.Pets[0].Tasks[0]; stored.Completed || stored.NextDueDate != nil {
		t.Fatalf("one dose must not complete the task: %#v", stored)
	}

	after, _ := f.svc.Plan(context.Background(), h.ID, monday)
	pending := planner.FilterTasks(after.Scheduled, planner.Filter{Completed: boolPtr(false)})
	if len(after.Scheduled) != 2 || len(pending) != 1 || pending[0].ID != pill.ID+"#2" {
		t.Fatalf("expected the evening dose still pending, got %#v", after.Scheduled)
	}

	if _, err := f.svc.CompleteTask(context.Background(), h.ID, pill.ID+"#2", monday); err != nil {
		t.Fatalf("CompleteTask #2 error: %v", err)
	}
	stored := f.repo.byID[h.ID].Owner.Pets[0].Tasks[0]
	if !stored.Completed || !stored.NextDueDate.Equal(monday.AddDate(0, 0, 1)) {
		t.Fatalf("both doses must complete the task: %#v", stored)
	}

	reopened, err := f.svc.ReopenTask(context.Background(), h.ID, pill.ID+"#2")
	if err != nil {
		t.Fatalf("ReopenTask error: %v", err)
	}
	if reopened.Completed || !reopened.NextDueDate.Equal(monday) {
		t.Fatalf("unexpected reopened dose: %#v", reopened)
	}
	if stored := f.repo.byID[h.ID].Owner.Pets[0].Tasks[0]; !stored.DoseDone(1) || stored.DoseDone(2) {
		t.Fatalf("reopening dose 2 must keep dose 1: %#v", stored)
	}

	if _, err := f.svc.CompleteTask(context.Background(), h.ID, pill.ID+"#3", monday); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a third dose, got %v", err)
	}
}

func boolPtr(b bool) *bool { return &b }

func TestService_SetAvailability_UpdatesTimestamp(t *testing.T) {
	f := newFixture(t)
	h := f.household(t, "07:00-09:00")

	updated, err := f.svc.SetAvailability(context.Background(), h.ID, []string{"12:00-13:00"})
	if err != nil {
		t.Fatalf("SetAvailability error: %v", err)
	}
	if !updated.UpdatedAt.After(h.UpdatedAt) {
		t.Fatalf("expected UpdatedAt to move forward")
	}
	if f.repo.updates != 1 {
		t.Fatalf("expected one repo update, got %d", f.repo.updates)
	}

	if _, err := f.svc.SetAvailability(context.Background(), "missing", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_GetByID_StorageFailureIsNotNotFound(t *testing.T) {
	f := newFixture(t)
	h := f.household(t, "07:00-09:00")

	if _, err := f.svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	down := errors.New("connection refused")
	f.repo.getErr = down

	_, err := f.svc.GetByID(context.Background(), h.ID)
	if errors.Is(err, ErrNotFound) || !errors.Is(err, down) {
		t.Fatalf("expected the storage error to pass through, got %v", err)
	}
	if _, err := f.svc.Plan(context.Background(), h.ID, monday); errors.Is(err, ErrNotFound) {
		t.Fatalf("plan must not report a storage failure as not found: %v", err)
	}
}
