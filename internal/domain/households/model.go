package households

import (
	"time"

	"pawpal/internal/domain/care"
)

// Household es el agregado persistido: un owner con su disponibilidad, mascotas y tareas.
type Household struct {
	ID          string
	OwnerUserID string

	Owner care.Owner

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone copia los slices del owner para que quien guarda y quien lee no compartan memoria.
func (h Household) Clone() Household {
	out := h
	out.Owner.Availability = append([]care.Window(nil), h.Owner.Availability...)
	out.Owner.Pets = make([]care.Pet, len(h.Owner.Pets))
	for i, p := range h.Owner.Pets {
		p.SpecialNeeds = append([]string(nil), p.SpecialNeeds...)
		p.Conditions = append([]string(nil), p.Conditions...)
		tasks := make([]care.CareTask, len(p.Tasks))
		for j, t := range p.Tasks {
			t.PreferredWindows = append([]care.Window(nil), t.PreferredWindows...)
			tasks[j] = t
		}
		p.Tasks = tasks
		out.Owner.Pets[i] = p
	}
	return out
}
