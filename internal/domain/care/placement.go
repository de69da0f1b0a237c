package care

import "encoding/json"

// PlacementStatus es el tag del estado de colocación de una tarea.
type PlacementStatus string

const (
	PlacementUnplaced PlacementStatus = "unplaced"
	PlacementPlaced   PlacementStatus = "placed"
)

// Placement modela Unplaced -> Placed -> (posiblemente) Unplaced.
// El valor cero es Unplaced. Start/Window solo tienen sentido en Placed.
type Placement struct {
	status PlacementStatus
	start  int
	window int
}

// Placed construye el estado colocado en start, dentro de la ventana de disponibilidad window
// (índice en Owner.Availability; -1 si la colocación fue manual).
func Placed(start, window int) Placement {
	return Placement{status: PlacementPlaced, start: start, window: window}
}

func (p Placement) Status() PlacementStatus {
	if p.status == "" {
		return PlacementUnplaced
	}
	return p.status
}

func (p Placement) IsPlaced() bool { return p.status == PlacementPlaced }

// StartMinute devuelve el minuto de inicio solo si está colocada.
func (p Placement) StartMinute() (int, bool) {
	if !p.IsPlaced() {
		return 0, false
	}
	return p.start, true
}

// WindowIndex devuelve la ventana de disponibilidad asignada.
func (p Placement) WindowIndex() (int, bool) {
	if !p.IsPlaced() {
		return 0, false
	}
	return p.window, true
}

// Place transiciona la tarea a Placed.
func (t *CareTask) Place(start, window int) {
	t.Placement = Placed(start, window)
}

// Unplace devuelve la tarea a Unplaced (p.ej. al rechazar un solapamiento).
func (t *CareTask) Unplace() {
	t.Placement = Placement{}
}

type placementJSON struct {
	Status      PlacementStatus `json:"status"`
	StartMinute *int            `json:"start_minute"`
	Window      *int            `json:"window"`
}

func (p Placement) MarshalJSON() ([]byte, error) {
	out := placementJSON{Status: p.Status()}
	if p.IsPlaced() {
		start, window := p.start, p.window
		out.StartMinute = &start
		out.Window = &window
	}
	return json.Marshal(out)
}

func (p *Placement) UnmarshalJSON(b []byte) error {
	var in placementJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	if in.Status == PlacementPlaced && in.StartMinute != nil {
		w := -1
		if in.Window != nil {
			w = *in.Window
		}
		*p = Placed(*in.StartMinute, w)
		return nil
	}
	*p = Placement{}
	return nil
}
