package care

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTask       = errors.New("invalid task definition")
	ErrMissingWeekday    = errors.New("weekly task requires a scheduled weekday")
	ErrTwiceDailyWindows = errors.New("twice_daily task requires two preferred windows")
)

// ConfigIssue es una tarea excluida de la corrida por un error de definición.
// Se distingue de una tarea no agendada: la falla está en la tarea, no en la disponibilidad.
type ConfigIssue struct {
	Task Ref   `json:"task"`
	Err  error `json:"-"`
}

func (i ConfigIssue) Error() string {
	return fmt.Sprintf("%s (%s): %v", i.Task.TaskName, i.Task.PetName, i.Err)
}

func (i ConfigIssue) Unwrap() error { return i.Err }

// DateOf trunca t a fecha civil (medianoche UTC con el mismo año/mes/día).
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Validate revisa la definición de la tarea. Los errores envuelven ErrInvalidTask,
// ErrMissingWeekday o ErrTwiceDailyWindows.
func Validate(t CareTask) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTask)
	}
	if t.DurationMinutes <= 0 || t.DurationMinutes > MinutesPerDay {
		return fmt.Errorf("%w: duration must be between 1 and %d minutes", ErrInvalidTask, MinutesPerDay)
	}
	if t.Priority < 1 || t.Priority > 5 {
		return fmt.Errorf("%w: priority must be between 1 and 5", ErrInvalidTask)
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTask, t.Kind)
	}
	if !t.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidTask, t.Frequency)
	}
	for _, w := range t.PreferredWindows {
		if !w.Valid() {
			return fmt.Errorf("%w: preferred window %s", ErrInvalidTask, w)
		}
	}

	switch t.Frequency {
	case FrequencyWeekly:
		if t.ScheduledWeekday == nil {
			return ErrMissingWeekday
		}
	case FrequencyTwiceDaily:
		if len(t.PreferredWindows) < 2 {
			return fmt.Errorf("%w: got %d", ErrTwiceDailyWindows, len(t.PreferredWindows))
		}
	}
	return nil
}

// IsDue decide si la tarea toca en date.
func IsDue(t CareTask, date time.Time) bool {
	date = DateOf(date)

	switch t.Frequency {
	case "", FrequencyOnce:
		return !t.Completed
	case FrequencyDaily, FrequencyTwiceDaily:
		return !dueLater(t, date)
	case FrequencyWeekly:
		if t.ScheduledWeekday == nil || date.Weekday() != *t.ScheduledWeekday {
			return false
		}
		return !dueLater(t, date)
	default:
		return false
	}
}

func dueLater(t CareTask, date time.Time) bool {
	return t.NextDueDate != nil && DateOf(*t.NextDueDate).After(date)
}

// MarkComplete marca la tarea como hecha en date y adelanta NextDueDate según la frecuencia.
// Las tareas únicas no se reprograman.
func (t *CareTask) MarkComplete(date time.Time) {
	date = DateOf(date)
	t.Completed = true
	t.CompletedOn = &date

	var next time.Time
	switch t.Frequency {
	case FrequencyDaily, FrequencyTwiceDaily:
		next = date.AddDate(0, 0, 1)
	case FrequencyWeekly:
		next = date.AddDate(0, 0, 7)
	default:
		return
	}
	if t.Frequency == FrequencyTwiceDaily {
		t.DosesDone = []int{1, 2}
	}
	t.NextDueDate = &next
}

// MarkIncomplete revierte MarkComplete: la tarea vuelve a tocar el día en que se completó.
func (t *CareTask) MarkIncomplete() {
	t.Completed = false
	if t.CompletedOn != nil && t.Frequency.Recurring() {
		d := *t.CompletedOn
		t.NextDueDate = &d
	}
	t.CompletedOn = nil
	t.DosesDone = nil
}

// DoseDone indica si la instancia n de una twice_daily quedó hecha en CompletedOn.
// Una tarea completa sin DosesDone (datos previos) cuenta con ambas dosis hechas.
func (t CareTask) DoseDone(n int) bool {
	if t.Completed && len(t.DosesDone) == 0 {
		return true
	}
	return t.CompletedOn != nil && slices.Contains(t.DosesDone, n)
}

// CompleteDose marca hecha la instancia n de una twice_daily en date. La tarea recién
// se completa, y NextDueDate avanza, cuando las dos dosis del día están hechas.
func (t *CareTask) CompleteDose(n int, date time.Time) {
	date = DateOf(date)
	if t.CompletedOn == nil || !DateOf(*t.CompletedOn).Equal(date) {
		t.Completed = false
		t.DosesDone = nil
	}
	if !slices.Contains(t.DosesDone, n) {
		t.DosesDone = append(t.DosesDone, n)
		slices.Sort(t.DosesDone)
	}
	t.CompletedOn = &date
	if len(t.DosesDone) >= 2 {
		t.MarkComplete(date)
	}
}

// ReopenDose deshace la instancia n. La otra dosis, si estaba hecha, sigue hecha.
func (t *CareTask) ReopenDose(n int) {
	if t.CompletedOn == nil {
		t.MarkIncomplete()
		return
	}
	day := *t.CompletedOn
	remaining := make([]int, 0, 2)
	for _, d := range []int{1, 2} {
		if d != n && t.DoseDone(d) {
			remaining = append(remaining, d)
		}
	}
	t.MarkIncomplete()
	if len(remaining) > 0 {
		t.CompletedOn = &day
		t.DosesDone = remaining
	}
}

// Instance arma la instancia n (1 o 2) de una twice_daily con su propio estado:
// hecha si esa dosis se completó, y en ese caso vuelve a tocar al día siguiente.
func (t CareTask) Instance(n int) (CareTask, bool) {
	if t.Frequency != FrequencyTwiceDaily || n < 1 || n > 2 || len(t.PreferredWindows) < n {
		return CareTask{}, false
	}
	inst := t
	inst.ID = fmt.Sprintf("%s#%d", t.ID, n)
	inst.Name = fmt.Sprintf("%s (%d/2)", t.Name, n)
	inst.ParentID = t.ID
	inst.PreferredWindows = []Window{t.PreferredWindows[n-1]}
	inst.Placement = Placement{}
	inst.DosesDone = nil
	inst.Completed = false
	inst.CompletedOn = nil

	if t.CompletedOn != nil && t.DoseDone(n) {
		day := DateOf(*t.CompletedOn)
		next := day.AddDate(0, 0, 1)
		inst.Completed = true
		inst.CompletedOn = &day
		inst.NextDueDate = &next
	}
	return inst, true
}

// DoneOn indica si la tarea quedó hecha para date.
func DoneOn(t CareTask, date time.Time) bool {
	return t.Completed && t.CompletedOn != nil && DateOf(*t.CompletedOn).Equal(DateOf(date))
}

// PlanTasks arma la lista de un día: las que tocan en date, pendientes, más las ya hechas
// ese mismo día, que siguen en el plan marcadas como completas. Una completa de otro día
// que vuelve a tocar entra como pendiente.
func PlanTasks(tasks []CareTask, date time.Time) []CareTask {
	out := make([]CareTask, 0, len(tasks))
	for _, t := range tasks {
		switch {
		case DoneOn(t, date):
			out = append(out, t)
		case IsDue(t, date):
			t.Completed = false
			out = append(out, t)
		}
	}
	return out
}

// CreateNextOccurrence devuelve una copia con estado reiniciado, o false si nunca se completó.
func CreateNextOccurrence(t CareTask) (CareTask, bool) {
	if !t.Completed {
		return CareTask{}, false
	}

	next := t
	next.ID = uuid.NewString()
	next.Completed = false
	next.CompletedOn = nil
	next.Placement = Placement{}
	next.PreferredWindows = append([]Window(nil), t.PreferredWindows...)
	if t.NextDueDate != nil {
		d := *t.NextDueDate
		next.NextDueDate = &d
	}
	return next, true
}

// ExpandTasks valida y expande la lista antes del Scheduler.
// Las tareas inválidas salen como ConfigIssue y no entran a la corrida.
// Cada twice_daily válida se divide en dos instancias, una por ventana preferida.
func ExpandTasks(tasks []CareTask) ([]CareTask, []ConfigIssue) {
	out := make([]CareTask, 0, len(tasks))
	var issues []ConfigIssue

	for _, t := range tasks {
		if err := Validate(t); err != nil {
			issues = append(issues, ConfigIssue{Task: t.Ref(), Err: err})
			continue
		}
		if t.Frequency != FrequencyTwiceDaily {
			out = append(out, t)
			continue
		}
		for n := 1; n <= 2; n++ {
			inst, _ := t.Instance(n)
			out = append(out, inst)
		}
	}
	return out, issues
}

// DueTasks filtra las tareas que tocan en date, conservando el orden.
func DueTasks(tasks []CareTask, date time.Time) []CareTask {
	out := make([]CareTask, 0, len(tasks))
	for _, t := range tasks {
		if IsDue(t, date) {
			out = append(out, t)
		}
	}
	return out
}

// ParseWeekday acepta nombres en inglés completos o abreviados ("monday", "Mon").
func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if key == name || key == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidTask, s)
}
