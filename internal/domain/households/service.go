package households

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"pawpal/internal/domain/care"
	"pawpal/internal/domain/planner"
	"pawpal/internal/platform/logger"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

const DefaultPlanCacheSize = 256

type Service struct {
	repo      Repository
	scheduler *planner.Scheduler
	plans     *lru.Cache[string, planner.DailyPlan]
	log       logger.Logger
	now       func() time.Time

	// mu serializa lectura-modificación-escritura del agregado dentro del proceso.
	mu sync.Mutex
}

type Options struct {
	Logger        logger.Logger
	PlanCacheSize int
}

func NewService(repo Repository, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	size := opts.PlanCacheSize
	if size <= 0 {
		size = DefaultPlanCacheSize
	}
	// lru.New solo falla con size <= 0.
	plans, _ := lru.New[string, planner.DailyPlan](size)

	return &Service{
		repo:      repo,
		scheduler: planner.NewScheduler(log.With(map[string]any{"component": "scheduler"})),
		plans:     plans,
		log:       log.With(map[string]any{"component": "households"}),
		now:       time.Now,
	}
}

type CreateInput struct {
	Name         string
	Availability []string // "HH:MM-HH:MM"
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Household, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" || strings.TrimSpace(in.Name) == "" {
		return Household{}, ErrInvalidInput
	}

	windows, err := parseAvailability(in.Availability)
	if err != nil {
		return Household{}, err
	}

	now := s.now()
	h := Household{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Owner: care.Owner{
			ID:           ownerUserID,
			Name:         strings.TrimSpace(in.Name),
			Availability: windows,
			Pets:         []care.Pet{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, h); err != nil {
		return Household{}, err
	}
	s.log.Info("household created", map[string]any{"household_id": h.ID, "owner_user_id": ownerUserID})
	return h, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Household, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Household{}, ErrInvalidInput
	}
	h, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Household{}, fmt.Errorf("%w: household %s", ErrNotFound, id)
	}
	if err != nil {
		return Household{}, fmt.Errorf("get household %s: %w", id, err)
	}
	return h, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Household, error) {
	return s.repo.ListByOwner(ctx, strings.TrimSpace(ownerUserID))
}

// OwnerOf expone el ownerUserID de un household.
// Lo usa sharing sin importar este paquete.
func (s *Service) OwnerOf(ctx context.Context, householdID string) (string, error) {
	h, err := s.GetByID(ctx, householdID)
	if err != nil {
		return "", err
	}
	return h.OwnerUserID, nil
}

func (s *Service) SetAvailability(ctx context.Context, id string, availability []string) (Household, error) {
	windows, err := parseAvailability(availability)
	if err != nil {
		return Household{}, err
	}
	return s.mutate(ctx, id, func(h *Household) error {
		h.Owner.Availability = windows
		return nil
	})
}

type AddPetInput struct {
	Name         string
	Species      string
	Breed        string
	Age          int
	WeightKg     float64
	SpecialNeeds []string
	Conditions   []string
}

func (s *Service) AddPet(ctx context.Context, householdID string, in AddPetInput) (care.Pet, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Species) == "" || in.Age < 0 {
		return care.Pet{}, ErrInvalidInput
	}

	p := care.Pet{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Species:      care.Species(strings.ToLower(strings.TrimSpace(in.Species))),
		Breed:        strings.TrimSpace(in.Breed),
		Age:          in.Age,
		WeightKg:     in.WeightKg,
		SpecialNeeds: trimAll(in.SpecialNeeds),
		Conditions:   trimAll(in.Conditions),
		Tasks:        []care.CareTask{},
	}

	_, err := s.mutate(ctx, householdID, func(h *Household) error {
		h.Owner.AddPet(p)
		return nil
	})
	if err != nil {
		return care.Pet{}, err
	}
	return p, nil
}

type AddTaskInput struct {
	Name             string
	Kind             string
	DurationMinutes  int
	Priority         int
	FixedTime        bool
	PreferredWindows []string
	Frequency        string
	Weekday          string // "monday".."sunday", requerido para weekly
	Notes            string
}

func (s *Service) AddTask(ctx context.Context, householdID, petID string, in AddTaskInput) (care.CareTask, error) {
	t, err := buildTask(in)
	if err != nil {
		return care.CareTask{}, err
	}

	var added care.CareTask
	_, err = s.mutate(ctx, householdID, func(h *Household) error {
		p, ok := h.Owner.Pet(petID)
		if !ok {
			return fmt.Errorf("%w: pet %s", ErrNotFound, petID)
		}
		added = p.AddTask(t)
		return nil
	})
	if err != nil {
		return care.CareTask{}, err
	}
	return added, nil
}

func buildTask(in AddTaskInput) (care.CareTask, error) {
	windows, err := care.ParseWindows(in.PreferredWindows)
	if err != nil {
		return care.CareTask{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	freq := care.Frequency(strings.ToLower(strings.TrimSpace(in.Frequency)))
	if freq == "" {
		freq = care.FrequencyOnce
	}

	t := care.CareTask{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(in.Name),
		Kind:             care.Kind(strings.ToLower(strings.TrimSpace(in.Kind))),
		DurationMinutes:  in.DurationMinutes,
		Priority:         in.Priority,
		FixedTime:        in.FixedTime,
		PreferredWindows: windows,
		Frequency:        freq,
		Notes:            strings.TrimSpace(in.Notes),
	}

	if wd := strings.TrimSpace(in.Weekday); wd != "" {
		d, err := care.ParseWeekday(wd)
		if err != nil {
			return care.CareTask{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		t.ScheduledWeekday = &d
	}

	if err := care.Validate(t); err != nil {
		return care.CareTask{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return t, nil
}

// CompleteTask marca la tarea como hecha en date. Acepta IDs de instancias twice_daily
// ("<id>#n"), que completan solo esa dosis, y de requerimientos derivados, que se
// materializan en la mascota antes de completarse.
func (s *Service) CompleteTask(ctx context.Context, householdID, taskID string, date time.Time) (care.CareTask, error) {
	var out care.CareTask
	_, err := s.mutate(ctx, householdID, func(h *Household) error {
		t, dose, err := resolveTask(&h.Owner, taskID)
		if err != nil {
			return err
		}
		if dose == 0 {
			t.MarkComplete(date)
			out = *t
			return nil
		}
		t.CompleteDose(dose, date)
		out, _ = t.Instance(dose)
		return nil
	})
	if err != nil {
		return care.CareTask{}, err
	}
	s.log.Info("task completed", map[string]any{"household_id": householdID, "task_id": out.ID, "date": care.DateOf(date).Format("2006-01-02")})
	return out, nil
}

func (s *Service) ReopenTask(ctx context.Context, householdID, taskID string) (care.CareTask, error) {
	var out care.CareTask
	_, err := s.mutate(ctx, householdID, func(h *Household) error {
		id, dose := splitDose(taskID)
		t, ok := h.Owner.Task(id)
		if !ok || (dose > 0 && t.Frequency != care.FrequencyTwiceDaily) {
			return fmt.Errorf("%w: task %s", ErrNotFound, taskID)
		}
		if dose == 0 {
			t.MarkIncomplete()
			out = *t
			return nil
		}
		day := t.CompletedOn
		t.ReopenDose(dose)
		out, _ = t.Instance(dose)
		// el día deshecho va en NextDueDate, igual que MarkIncomplete
		if day != nil {
			d := care.DateOf(*day)
			out.NextDueDate = &d
		}
		return nil
	})
	if err != nil {
		return care.CareTask{}, err
	}
	return out, nil
}

// resolveTask devuelve la tarea guardada y, si el ID es de una instancia, el número de dosis.
func resolveTask(o *care.Owner, taskID string) (*care.CareTask, int, error) {
	id, dose := splitDose(taskID)
	t, ok := o.Task(id)
	if !ok {
		t, ok = materializeDerived(o, id)
	}
	if !ok {
		return nil, 0, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	if dose > 0 {
		if _, ok := t.Instance(dose); !ok {
			return nil, 0, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
		}
	}
	return t, dose, nil
}

func materializeDerived(o *care.Owner, id string) (*care.CareTask, bool) {
	for i := range o.Pets {
		p := &o.Pets[i]
		for _, req := range care.DeriveRequirements(*p) {
			if req.ID != id {
				continue
			}
			p.AddTask(req)
			return o.Task(id)
		}
	}
	return nil, false
}

// splitDose separa "<id>#n"; sin sufijo numérico devuelve dose 0.
func splitDose(taskID string) (string, int) {
	taskID = strings.TrimSpace(taskID)
	if base, n, ok := strings.Cut(taskID, "#"); ok {
		if dose, err := strconv.Atoi(n); err == nil && dose > 0 {
			return base, dose
		}
	}
	return taskID, 0
}

// Plan genera (o toma del cache) el plan del día. La clave incluye UpdatedAt, así que
// cualquier mutación del household invalida los planes previos.
func (s *Service) Plan(ctx context.Context, householdID string, date time.Time) (planner.DailyPlan, error) {
	h, err := s.GetByID(ctx, householdID)
	if err != nil {
		return planner.DailyPlan{}, err
	}

	date = care.DateOf(date)
	key := planKey(h, date)
	if p, ok := s.plans.Get(key); ok {
		return clonePlan(p), nil
	}

	p := s.scheduler.GenerateDailyPlan(h.Owner, date)
	s.plans.Add(key, p)

	s.log.Debug("plan generated", map[string]any{
		"household_id": h.ID,
		"date":         date.Format("2006-01-02"),
		"scheduled":    len(p.Scheduled),
		"unscheduled":  len(p.Unscheduled),
		"conflicts":    len(p.Conflicts),
		"issues":       len(p.Issues),
	})
	return clonePlan(p), nil
}

func planKey(h Household, date time.Time) string {
	return h.ID + "|" + date.Format("2006-01-02") + "|" + strconv.FormatInt(h.UpdatedAt.UnixNano(), 10)
}

// clonePlan evita que quien llama mute el valor guardado en el cache.
func clonePlan(p planner.DailyPlan) planner.DailyPlan {
	out := p
	out.Availability = append([]care.Window(nil), p.Availability...)
	out.Scheduled = append([]care.CareTask(nil), p.Scheduled...)
	out.Unscheduled = append([]care.CareTask(nil), p.Unscheduled...)
	out.Conflicts = append([]planner.ConflictReport(nil), p.Conflicts...)
	out.Issues = append([]care.ConfigIssue(nil), p.Issues...)
	out.Reasoning = append([]string(nil), p.Reasoning...)
	return out
}

func (s *Service) mutate(ctx context.Context, id string, fn func(h *Household) error) (Household, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.GetByID(ctx, id)
	if err != nil {
		return Household{}, err
	}
	if err := fn(&h); err != nil {
		return Household{}, err
	}

	h.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, h); err != nil {
		return Household{}, err
	}
	return h, nil
}

func parseAvailability(in []string) ([]care.Window, error) {
	windows, err := care.ParseWindows(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	windows, err = care.NormalizeAvailability(windows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return windows, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
