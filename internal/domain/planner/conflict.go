package planner

import (
	"fmt"

	"pawpal/internal/domain/care"
)

// ConflictKind clasifica un solapamiento.
type ConflictKind string

const (
	ConflictSamePet  ConflictKind = "same_pet"
	ConflictCrossPet ConflictKind = "cross_pet"
)

// ConflictReport describe un solapamiento entre dos tareas colocadas. Es un valor inmutable.
type ConflictReport struct {
	First  care.Ref     `json:"first"`
	Second care.Ref     `json:"second"`
	Pets   []string     `json:"pets"`
	Kind   ConflictKind `json:"kind"`

	// Intervalo solapado [Overlap.Start, Overlap.End).
	Overlap care.Window `json:"overlap"`
}

func (c ConflictReport) String() string {
	if c.Kind == ConflictSamePet {
		return fmt.Sprintf("%s: %q and %q overlap at %s", c.First.PetName, c.First.TaskName, c.Second.TaskName, c.Overlap)
	}
	return fmt.Sprintf("%q (%s) and %q (%s) overlap at %s",
		c.First.TaskName, c.First.PetName, c.Second.TaskName, c.Second.PetName, c.Overlap)
}

// DetectConflicts recorre pares (i, j) con j < i en orden de colocación y reporta cada
// solapamiento. Tareas sin colocar se ignoran. No muta nada.
func DetectConflicts(tasks []care.CareTask) []ConflictReport {
	var out []ConflictReport

	for i := 1; i < len(tasks); i++ {
		a, ok := tasks[i].Interval()
		if !ok {
			continue
		}
		for j := 0; j < i; j++ {
			b, ok := tasks[j].Interval()
			if !ok {
				continue
			}
			if !care.Overlaps(a.Start, a.End, b.Start, b.End) {
				continue
			}
			out = append(out, newConflict(tasks[j], tasks[i], b, a))
		}
	}
	return out
}

func newConflict(first, second care.CareTask, fi, si care.Window) ConflictReport {
	r := ConflictReport{
		First:  first.Ref(),
		Second: second.Ref(),
		Overlap: care.Window{
			Start: max(fi.Start, si.Start),
			End:   min(fi.End, si.End),
		},
	}
	if first.PetID == second.PetID {
		r.Kind = ConflictSamePet
		r.Pets = []string{first.PetName}
	} else {
		r.Kind = ConflictCrossPet
		r.Pets = []string{first.PetName, second.PetName}
	}
	return r
}
