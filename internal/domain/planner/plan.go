package planner

import (
	"fmt"
	"strings"
	"time"

	"pawpal/internal/domain/care"
)

// DailyPlan es el resultado de una corrida del Scheduler para un día.
// Scheduled conserva el orden de colocación (no el orden horario; ver SortByTime).
type DailyPlan struct {
	Date         time.Time
	Availability []care.Window

	Scheduled   []care.CareTask
	Unscheduled []care.CareTask
	Conflicts   []ConflictReport
	Issues      []care.ConfigIssue

	Reasoning []string
}

func newPlan(date time.Time, availability []care.Window) DailyPlan {
	return DailyPlan{
		Date:         care.DateOf(date),
		Availability: append([]care.Window(nil), availability...),
		Scheduled:    make([]care.CareTask, 0),
		Unscheduled:  make([]care.CareTask, 0),
		Conflicts:    make([]ConflictReport, 0),
	}
}

// AddTask intenta insertar la tarea en start. Si se solapa con alguna tarea ya colocada
// la rechaza y la tarea queda sin colocar. Devuelve true si quedó en el plan.
func (p *DailyPlan) AddTask(t care.CareTask, start int) bool {
	if start < 0 || start+t.DurationMinutes > care.MinutesPerDay {
		return false
	}

	window := -1
	for i, w := range p.Availability {
		if w.Fits(start, t.DurationMinutes) {
			window = i
			break
		}
	}
	t.Place(start, window)

	if p.overlapsPlaced(start, start+t.DurationMinutes) {
		t.Unplace()
		return false
	}

	p.Scheduled = append(p.Scheduled, t)
	p.removeUnscheduled(t.ID)
	return true
}

func (p *DailyPlan) overlapsPlaced(start, end int) bool {
	for _, placed := range p.Scheduled {
		iv, ok := placed.Interval()
		if !ok {
			continue
		}
		if care.Overlaps(start, end, iv.Start, iv.End) {
			return true
		}
	}
	return false
}

// RemoveTask quita una tarea colocada y la devuelve a Unscheduled sin colocación.
func (p *DailyPlan) RemoveTask(taskID string) bool {
	for i, t := range p.Scheduled {
		if t.ID != taskID {
			continue
		}
		p.Scheduled = append(p.Scheduled[:i:i], p.Scheduled[i+1:]...)
		t.Unplace()
		p.Unscheduled = append(p.Unscheduled, t)
		p.Conflicts = DetectConflicts(p.Scheduled)
		return true
	}
	return false
}

func (p *DailyPlan) removeUnscheduled(taskID string) {
	for i, t := range p.Unscheduled {
		if t.ID == taskID {
			p.Unscheduled = append(p.Unscheduled[:i:i], p.Unscheduled[i+1:]...)
			return
		}
	}
}

// MarkComplete marca como hecha una tarea del plan (copia local; no toca al Owner).
func (p *DailyPlan) MarkComplete(taskID string) bool {
	for i := range p.Scheduled {
		if p.Scheduled[i].ID == taskID {
			p.Scheduled[i].MarkComplete(p.Date)
			return true
		}
	}
	return false
}

// TotalMinutes suma la duración de las tareas colocadas.
func (p DailyPlan) TotalMinutes() int {
	total := 0
	for _, t := range p.Scheduled {
		total += t.DurationMinutes
	}
	return total
}

// Tasks devuelve colocadas + no colocadas.
func (p DailyPlan) Tasks() []care.CareTask {
	out := make([]care.CareTask, 0, len(p.Scheduled)+len(p.Unscheduled))
	out = append(out, p.Scheduled...)
	out = append(out, p.Unscheduled...)
	return out
}

// FilterTasks aplica Filter sobre todas las tareas del plan.
func (p DailyPlan) FilterTasks(f Filter) []care.CareTask {
	return FilterTasks(p.Tasks(), f)
}

// Validate revisa el plan y devuelve problemas legibles. Vacío = plan limpio.
func (p DailyPlan) Validate() []string {
	var issues []string

	for _, t := range p.Scheduled {
		iv, ok := t.Interval()
		if !ok {
			issues = append(issues, fmt.Sprintf("%q is listed as scheduled but has no start time", t.Name))
			continue
		}
		inside := false
		for _, w := range p.Availability {
			if w.Fits(iv.Start, t.DurationMinutes) {
				inside = true
				break
			}
		}
		if !inside {
			issues = append(issues, fmt.Sprintf("%q at %s is outside owner availability", t.Name, iv))
		}
	}
	for _, c := range p.Conflicts {
		issues = append(issues, "conflict: "+c.String())
	}
	for _, t := range p.Unscheduled {
		issues = append(issues, fmt.Sprintf("%q (%s) could not be scheduled", t.Name, t.PetName))
	}
	for _, i := range p.Issues {
		issues = append(issues, "invalid task: "+i.Error())
	}
	return issues
}

// Explain arma el texto de razonamiento de la corrida.
func (p DailyPlan) Explain() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Plan for %s: %d scheduled (%d min), %d unscheduled, %d conflicts.",
		p.Date.Format("Monday, January 2, 2006"),
		len(p.Scheduled), p.TotalMinutes(), len(p.Unscheduled), len(p.Conflicts))
	for _, line := range p.Reasoning {
		sb.WriteString("\n- ")
		sb.WriteString(line)
	}
	return sb.String()
}

func (p *DailyPlan) reason(format string, args ...any) {
	p.Reasoning = append(p.Reasoning, fmt.Sprintf(format, args...))
}
