package care

import (
	"strings"
	"time"
)

// DeriveRequirements genera tareas extra a partir de especie, edad y condiciones médicas.
// Es pura: no modifica la mascota. Omite reglas cuyo nombre de tarea ya existe en la mascota.
func DeriveRequirements(p Pet) []CareTask {
	existing := map[string]struct{}{}
	for _, t := range p.Tasks {
		existing[strings.ToLower(strings.TrimSpace(t.Name))] = struct{}{}
	}

	var out []CareTask
	add := func(t CareTask) {
		key := strings.ToLower(t.Name)
		if _, ok := existing[key]; ok {
			return
		}
		existing[key] = struct{}{}

		t.ID = "auto:" + p.ID + ":" + strings.ReplaceAll(key, " ", "-")
		t.PetID = p.ID
		t.PetName = p.Name
		out = append(out, t)
	}

	species := Species(strings.ToLower(string(p.Species)))

	// Cachorro: entrenamiento diario.
	if species == SpeciesDog && p.Age > 0 && p.Age < 2 {
		add(CareTask{
			Name:            "Training Session",
			Kind:            KindTraining,
			DurationMinutes: 15,
			Priority:        3,
			Frequency:       FrequencyDaily,
		})
	}

	if species == SpeciesDog && p.Age >= 10 {
		add(CareTask{
			Name:            "Gentle Mobility Walk",
			Kind:            KindWalk,
			DurationMinutes: 20,
			Priority:        3,
			Frequency:       FrequencyDaily,
		})
	}

	// Gato senior: control de peso semanal (domingo).
	if species == SpeciesCat && p.Age >= 10 {
		sunday := time.Sunday
		add(CareTask{
			Name:             "Weight Check",
			Kind:             KindHealthCheck,
			DurationMinutes:  10,
			Priority:         3,
			Frequency:        FrequencyWeekly,
			ScheduledWeekday: &sunday,
		})
	}

	for _, c := range p.Conditions {
		cond := strings.ToLower(c)
		switch {
		case strings.Contains(cond, "diabetes"):
			add(CareTask{
				Name:             "Insulin Injection",
				Kind:             KindMedication,
				DurationMinutes:  5,
				Priority:         5,
				FixedTime:        true,
				Frequency:        FrequencyTwiceDaily,
				PreferredWindows: []Window{{Start: 7 * 60, End: 9 * 60}, {Start: 19 * 60, End: 21 * 60}},
			})
		case strings.Contains(cond, "joint"), strings.Contains(cond, "arthritis"):
			add(CareTask{
				Name:             "Joint Supplement",
				Kind:             KindMedication,
				DurationMinutes:  5,
				Priority:         4,
				Frequency:        FrequencyDaily,
				PreferredWindows: []Window{{Start: 8 * 60, End: 10 * 60}},
			})
		}
	}

	return out
}

// PlanningTasks compone tareas propias + requerimientos derivados de todas las mascotas.
func PlanningTasks(o Owner) []CareTask {
	out := o.AllTasks()
	for _, p := range o.Pets {
		out = append(out, DeriveRequirements(p)...)
	}
	return out
}
