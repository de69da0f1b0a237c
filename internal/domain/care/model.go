package care

import (
	"fmt"
	"sort"
	"time"
)

// Kind define el tipo de cuidado.
// @Enum walk, feed, medication, grooming, enrichment, training, health_check
type Kind string

const (
	KindWalk        Kind = "walk"
	KindFeed        Kind = "feed"
	KindMedication  Kind = "medication"
	KindGrooming    Kind = "grooming"
	KindEnrichment  Kind = "enrichment"
	KindTraining    Kind = "training"
	KindHealthCheck Kind = "health_check"
)

func (k Kind) Valid() bool {
	switch k {
	case KindWalk, KindFeed, KindMedication, KindGrooming, KindEnrichment, KindTraining, KindHealthCheck:
		return true
	}
	return false
}

// Frequency define la recurrencia de una tarea. Vacío equivale a FrequencyOnce.
// @Enum once, daily, weekly, twice_daily
type Frequency string

const (
	FrequencyOnce       Frequency = "once"
	FrequencyDaily      Frequency = "daily"
	FrequencyWeekly     Frequency = "weekly"
	FrequencyTwiceDaily Frequency = "twice_daily"
)

func (f Frequency) Valid() bool {
	switch f {
	case "", FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyTwiceDaily:
		return true
	}
	return false
}

// Recurring es false solo para tareas únicas.
func (f Frequency) Recurring() bool {
	return f != "" && f != FrequencyOnce
}

// Species soportadas por las reglas de requerimientos. Otras especies se aceptan igual.
type Species string

const (
	SpeciesDog Species = "dog"
	SpeciesCat Species = "cat"
)

// CareTask es una unidad de cuidado para una mascota.
type CareTask struct {
	ID      string `json:"id"`
	PetID   string `json:"pet_id"`
	PetName string `json:"pet_name"`

	Name            string `json:"name"`
	Kind            Kind   `json:"kind"`
	DurationMinutes int    `json:"duration_minutes"`
	Priority        int    `json:"priority"` // 1 (baja) .. 5 (crítica)

	FixedTime        bool     `json:"fixed_time"`
	PreferredWindows []Window `json:"preferred_windows,omitempty"`

	Frequency        Frequency     `json:"frequency"`
	ScheduledWeekday *time.Weekday `json:"scheduled_weekday,omitempty"`

	Notes string `json:"notes,omitempty"`

	Completed   bool       `json:"completed"`
	CompletedOn *time.Time `json:"completed_on,omitempty"`
	NextDueDate *time.Time `json:"next_due_date,omitempty"`

	// DosesDone guarda qué instancias de una twice_daily (1, 2) se hicieron en CompletedOn.
	DosesDone []int `json:"doses_done,omitempty"`

	// ParentID apunta a la tarea original en instancias de twice_daily.
	ParentID string `json:"parent_id,omitempty"`

	Placement Placement `json:"placement"`
}

// PriorityScore = prioridad*10 + 20 si es de horario fijo + 15 si es medicación.
func (t CareTask) PriorityScore() int {
	score := t.Priority * 10
	if t.FixedTime {
		score += 20
	}
	if t.Kind == KindMedication {
		score += 15
	}
	return score
}

// End devuelve el minuto de fin si la tarea está colocada.
func (t CareTask) End() (int, bool) {
	start, ok := t.Placement.StartMinute()
	if !ok {
		return 0, false
	}
	return start + t.DurationMinutes, true
}

// Interval devuelve [start, end) si la tarea está colocada.
func (t CareTask) Interval() (Window, bool) {
	start, ok := t.Placement.StartMinute()
	if !ok {
		return Window{}, false
	}
	return Window{Start: start, End: start + t.DurationMinutes}, true
}

// Ref identifica una tarea dentro de reportes.
type Ref struct {
	TaskID   string `json:"task_id"`
	TaskName string `json:"task_name"`
	PetID    string `json:"pet_id"`
	PetName  string `json:"pet_name"`
}

func (t CareTask) Ref() Ref {
	return Ref{TaskID: t.ID, TaskName: t.Name, PetID: t.PetID, PetName: t.PetName}
}

// Pet representa una mascota con sus tareas de cuidado.
type Pet struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Species Species `json:"species"`
	Breed   string  `json:"breed,omitempty"`
	Age     int     `json:"age"`

	WeightKg     float64  `json:"weight_kg,omitempty"`
	SpecialNeeds []string `json:"special_needs,omitempty"`
	Conditions   []string `json:"conditions,omitempty"`

	Tasks []CareTask `json:"tasks"`
}

// AddTask asocia la tarea a la mascota (PetID/PetName) y la agrega.
func (p *Pet) AddTask(t CareTask) CareTask {
	t.PetID = p.ID
	t.PetName = p.Name
	p.Tasks = append(p.Tasks, t)
	return t
}

// Owner agrupa disponibilidad y mascotas.
type Owner struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Availability []Window `json:"availability"`
	Pets         []Pet    `json:"pets"`
}

func (o *Owner) AddPet(p Pet) {
	o.Pets = append(o.Pets, p)
}

// Pet busca una mascota por ID.
func (o *Owner) Pet(id string) (*Pet, bool) {
	for i := range o.Pets {
		if o.Pets[i].ID == id {
			return &o.Pets[i], true
		}
	}
	return nil, false
}

// Task busca una tarea por ID en todas las mascotas.
func (o *Owner) Task(id string) (*CareTask, bool) {
	for i := range o.Pets {
		for j := range o.Pets[i].Tasks {
			if o.Pets[i].Tasks[j].ID == id {
				return &o.Pets[i].Tasks[j], true
			}
		}
	}
	return nil, false
}

// AllTasks devuelve copias de las tareas de todas las mascotas, en orden de mascota y de alta.
func (o Owner) AllTasks() []CareTask {
	out := make([]CareTask, 0)
	for _, p := range o.Pets {
		for _, t := range p.Tasks {
			t.PetID = p.ID
			t.PetName = p.Name
			out = append(out, t)
		}
	}
	return out
}

// AvailableMinutes suma la duración de todas las ventanas.
func (o Owner) AvailableMinutes() int {
	total := 0
	for _, w := range o.Availability {
		total += w.Minutes()
	}
	return total
}

// NormalizeAvailability ordena las ventanas por inicio y rechaza solapamientos.
// Ventanas adyacentes se aceptan tal cual (no se fusionan).
func NormalizeAvailability(in []Window) ([]Window, error) {
	out := append([]Window(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })

	for i, w := range out {
		if !w.Valid() {
			return nil, fmt.Errorf("%w: availability window %s", ErrInvalidClock, w)
		}
		if i > 0 && Overlaps(out[i-1].Start, out[i-1].End, w.Start, w.End) {
			return nil, fmt.Errorf("%w: availability windows %s and %s overlap", ErrInvalidClock, out[i-1], w)
		}
	}
	return out, nil
}
