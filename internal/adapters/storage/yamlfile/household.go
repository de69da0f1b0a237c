package yamlfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pawpal/internal/domain/care"
)

// File modela household.yaml. Las ventanas van como "HH:MM-HH:MM".
type File struct {
	Owner struct {
		ID           string   `yaml:"id"`
		Name         string   `yaml:"name"`
		Availability []string `yaml:"availability"`
	} `yaml:"owner"`
	Pets []PetEntry `yaml:"pets"`
}

type PetEntry struct {
	ID           string      `yaml:"id"`
	Name         string      `yaml:"name"`
	Species      string      `yaml:"species"`
	Breed        string      `yaml:"breed"`
	Age          int         `yaml:"age"`
	WeightKg     float64     `yaml:"weight_kg"`
	SpecialNeeds []string    `yaml:"special_needs"`
	Conditions   []string    `yaml:"conditions"`
	Tasks        []TaskEntry `yaml:"tasks"`
}

type TaskEntry struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Kind        string   `yaml:"kind"`
	Duration    int      `yaml:"duration"` // minutos
	Priority    int      `yaml:"priority"`
	FixedTime   bool     `yaml:"fixed_time"`
	Preferred   []string `yaml:"preferred"`
	Frequency   string   `yaml:"frequency"`
	Weekday     string   `yaml:"weekday"`
	Notes       string   `yaml:"notes"`
	CompletedOn string   `yaml:"completed_on"` // YYYY-MM-DD
}

// Load lee y convierte el archivo en un care.Owner.
func Load(path string) (care.Owner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return care.Owner{}, fmt.Errorf("household file %s not found", path)
		}
		return care.Owner{}, err
	}
	return FromYAML(data)
}

// FromYAML rechaza campos desconocidos y relojes mal formados. Las tareas con definición
// inválida (p.ej. weekly sin weekday) se cargan igual: el plan las reporta como issues.
func FromYAML(data []byte) (care.Owner, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return care.Owner{}, fmt.Errorf("parse household yaml: %w", err)
	}
	return f.ToOwner()
}

// ToOwner convierte el archivo ya decodificado.
func (f File) ToOwner() (care.Owner, error) {
	windows, err := care.ParseWindows(f.Owner.Availability)
	if err != nil {
		return care.Owner{}, fmt.Errorf("owner.availability: %w", err)
	}
	windows, err = care.NormalizeAvailability(windows)
	if err != nil {
		return care.Owner{}, fmt.Errorf("owner.availability: %w", err)
	}

	o := care.Owner{
		ID:           strings.TrimSpace(f.Owner.ID),
		Name:         strings.TrimSpace(f.Owner.Name),
		Availability: windows,
		Pets:         make([]care.Pet, 0, len(f.Pets)),
	}

	// Owner.Task busca por ID en todas las mascotas: los IDs de tarea son únicos en el archivo.
	seen := map[string]struct{}{}
	taskIDs := map[string]struct{}{}
	for i, pe := range f.Pets {
		p, err := pe.pet(i)
		if err != nil {
			return care.Owner{}, err
		}
		if _, dup := seen[p.ID]; dup {
			return care.Owner{}, fmt.Errorf("pets[%d]: duplicate pet id %q", i, p.ID)
		}
		seen[p.ID] = struct{}{}

		for j, t := range p.Tasks {
			if _, dup := taskIDs[t.ID]; dup {
				return care.Owner{}, fmt.Errorf("pets[%d] (%s): tasks[%d]: duplicate task id %q", i, p.Name, j, t.ID)
			}
			taskIDs[t.ID] = struct{}{}
		}
		o.AddPet(p)
	}
	return o, nil
}

func (pe PetEntry) pet(i int) (care.Pet, error) {
	name := strings.TrimSpace(pe.Name)
	if name == "" {
		return care.Pet{}, fmt.Errorf("pets[%d]: name is required", i)
	}

	id := strings.TrimSpace(pe.ID)
	if id == "" {
		id = slug(name)
	}

	p := care.Pet{
		ID:           id,
		Name:         name,
		Species:      care.Species(strings.ToLower(strings.TrimSpace(pe.Species))),
		Breed:        strings.TrimSpace(pe.Breed),
		Age:          pe.Age,
		WeightKg:     pe.WeightKg,
		SpecialNeeds: pe.SpecialNeeds,
		Conditions:   pe.Conditions,
		Tasks:        make([]care.CareTask, 0, len(pe.Tasks)),
	}

	for j, te := range pe.Tasks {
		t, err := te.task(p.ID, j)
		if err != nil {
			return care.Pet{}, fmt.Errorf("pets[%d] (%s): %w", i, name, err)
		}
		p.AddTask(t)
	}
	return p, nil
}

func (te TaskEntry) task(petID string, j int) (care.CareTask, error) {
	windows, err := care.ParseWindows(te.Preferred)
	if err != nil {
		return care.CareTask{}, fmt.Errorf("tasks[%d].preferred: %w", j, err)
	}

	id := strings.TrimSpace(te.ID)
	if id == "" {
		id = petID + ":" + slug(te.Name)
	}

	t := care.CareTask{
		ID:               id,
		Name:             strings.TrimSpace(te.Name),
		Kind:             care.Kind(strings.ToLower(strings.TrimSpace(te.Kind))),
		DurationMinutes:  te.Duration,
		Priority:         te.Priority,
		FixedTime:        te.FixedTime,
		PreferredWindows: windows,
		Frequency:        care.Frequency(strings.ToLower(strings.TrimSpace(te.Frequency))),
		Notes:            strings.TrimSpace(te.Notes),
	}

	if wd := strings.TrimSpace(te.Weekday); wd != "" {
		d, err := care.ParseWeekday(wd)
		if err != nil {
			return care.CareTask{}, fmt.Errorf("tasks[%d].weekday: %w", j, err)
		}
		t.ScheduledWeekday = &d
	}

	if raw := strings.TrimSpace(te.CompletedOn); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return care.CareTask{}, fmt.Errorf("tasks[%d].completed_on must be YYYY-MM-DD", j)
		}
		t.MarkComplete(d)
	}
	return t, nil
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
