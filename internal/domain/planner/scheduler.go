package planner

import (
	"sort"
	"time"

	"pawpal/internal/domain/care"
	"pawpal/internal/platform/logger"
)

// Scheduler arma el plan diario con colocación greedy en dos pasadas.
// No guarda estado entre corridas; es seguro compartirlo.
type Scheduler struct {
	log logger.Logger
}

func NewScheduler(log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{log: log}
}

// GenerateDailyPlan compone requerimientos derivados, validación/expansión y filtro de
// vencimiento, y luego agenda sobre la disponibilidad del owner. Las tareas ya hechas en
// date siguen en el plan, marcadas como completas.
func (s *Scheduler) GenerateDailyPlan(owner care.Owner, date time.Time) DailyPlan {
	expanded, issues := care.ExpandTasks(care.PlanningTasks(owner))
	due := care.PlanTasks(expanded, date)

	plan := s.Schedule(date, owner.Availability, due)
	plan.Issues = issues
	for _, i := range issues {
		s.log.Warn("task excluded from run", map[string]any{
			"task":  i.Task.TaskName,
			"pet":   i.Task.PetName,
			"error": i.Err,
		})
	}
	return plan
}

// Schedule coloca tasks (ya expandidas y vencidas) en availability.
// Trabaja sobre copias: las tareas recibidas no se modifican.
func (s *Scheduler) Schedule(date time.Time, availability []care.Window, tasks []care.CareTask) DailyPlan {
	plan := newPlan(date, availability)

	ordered := make([]care.CareTask, len(tasks))
	copy(ordered, tasks)
	for i := range ordered {
		ordered[i].Unplace()
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PriorityScore() > ordered[j].PriorityScore()
	})

	// Cursor por ventana: primer minuto libre. Solo avanza.
	cursors := make([]int, len(plan.Availability))
	for i, w := range plan.Availability {
		cursors[i] = w.Start
	}

	placed := make([]bool, len(ordered))

	// Pasada 1: respeta ventanas preferidas.
	for i := range ordered {
		t := &ordered[i]
		if len(t.PreferredWindows) == 0 {
			continue
		}
		if s.placePreferred(&plan, cursors, t) {
			placed[i] = true
		}
	}

	// Pasada 2: ignora la preferencia, primera ventana con lugar.
	for i := range ordered {
		if placed[i] {
			continue
		}
		t := &ordered[i]
		if s.placeRelaxed(&plan, cursors, t) {
			placed[i] = true
			continue
		}
		plan.Unscheduled = append(plan.Unscheduled, *t)
		plan.reason("%s (%s) did not fit in any availability window", t.Name, t.PetName)
		s.log.Debug("task unscheduled", map[string]any{"task": t.Name, "pet": t.PetName})
	}

	plan.Conflicts = DetectConflicts(plan.Scheduled)
	return plan
}

func (s *Scheduler) placePreferred(plan *DailyPlan, cursors []int, t *care.CareTask) bool {
	for _, pref := range t.PreferredWindows {
		for wi, w := range plan.Availability {
			start := max(cursors[wi], pref.Start, w.Start)
			end := start + t.DurationMinutes
			if end > min(pref.End, w.End) {
				continue
			}
			if !s.commit(plan, cursors, wi, t, start) {
				continue
			}
			plan.reason("%s (%s) placed at %s in its preferred window %s",
				t.Name, t.PetName, care.FormatClock(start), pref)
			return true
		}
	}
	return false
}

func (s *Scheduler) placeRelaxed(plan *DailyPlan, cursors []int, t *care.CareTask) bool {
	for wi, w := range plan.Availability {
		start := max(cursors[wi], w.Start)
		if start+t.DurationMinutes > w.End {
			continue
		}
		if !s.commit(plan, cursors, wi, t, start) {
			continue
		}
		if len(t.PreferredWindows) > 0 {
			plan.reason("%s (%s) placed at %s outside its preferred window (no room there)",
				t.Name, t.PetName, care.FormatClock(start))
		} else {
			plan.reason("%s (%s) placed at %s, first free slot in %s",
				t.Name, t.PetName, care.FormatClock(start), w)
		}
		return true
	}
	return false
}

// commit inserta con el mismo chequeo de AddTask; si entra, avanza el cursor de la ventana.
func (s *Scheduler) commit(plan *DailyPlan, cursors []int, wi int, t *care.CareTask, start int) bool {
	t.Place(start, wi)
	if plan.overlapsPlaced(start, start+t.DurationMinutes) {
		t.Unplace()
		return false
	}
	plan.Scheduled = append(plan.Scheduled, *t)
	cursors[wi] = start + t.DurationMinutes

	s.log.Debug("task placed", map[string]any{
		"task":   t.Name,
		"pet":    t.PetName,
		"start":  care.FormatClock(start),
		"window": wi,
		"score":  t.PriorityScore(),
	})
	return true
}
