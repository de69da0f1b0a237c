package planner

import (
	"math"
	"sort"
	"strings"

	"pawpal/internal/domain/care"
)

// Filter: campos nil son comodines.
type Filter struct {
	PetName   *string
	Completed *bool
}

// FilterTasks devuelve las tareas que cumplen todos los filtros presentes, en el orden recibido.
func FilterTasks(tasks []care.CareTask, f Filter) []care.CareTask {
	out := make([]care.CareTask, 0, len(tasks))
	for _, t := range tasks {
		if f.PetName != nil && !strings.EqualFold(strings.TrimSpace(*f.PetName), t.PetName) {
			continue
		}
		if f.Completed != nil && *f.Completed != t.Completed {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SortByTime ordena por minuto de inicio. Si una tarea no está colocada se usa el inicio de
// su primera ventana preferida (sin mutar la tarea); sin ninguna de las dos va al final.
// El orden es estable.
func SortByTime(tasks []care.CareTask) []care.CareTask {
	out := append([]care.CareTask(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		return sortKey(out[i]) < sortKey(out[j])
	})
	return out
}

func sortKey(t care.CareTask) int {
	if start, ok := t.Placement.StartMinute(); ok {
		return start
	}
	if len(t.PreferredWindows) > 0 {
		return t.PreferredWindows[0].Start
	}
	return math.MaxInt
}
