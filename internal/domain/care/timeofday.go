package care

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay es el límite superior (exclusivo) de un minuto del día.
const MinutesPerDay = 24 * 60

var ErrInvalidClock = errors.New("invalid time of day")

// ToMinutes convierte la hora del día de t a minutos desde medianoche.
// Medianoche es 0, nunca 1440.
func ToMinutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// ParseClock parsea "HH:MM" (24h) a minutos desde medianoche.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return h*60 + m, nil
}

// FormatClock es la inversa de ParseClock. 1440 se muestra como "24:00".
func FormatClock(minute int) string {
	if minute < 0 {
		minute = 0
	}
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// Overlaps reporta si dos intervalos semiabiertos [aStart,aEnd) y [bStart,bEnd) se solapan.
// Intervalos adyacentes no se solapan.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// Window es un intervalo semiabierto [Start, End) en minutos desde medianoche.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ParseWindow parsea "HH:MM-HH:MM". Un fin "24:00" o "00:00" significa fin del día.
func ParseWindow(s string) (Window, error) {
	raw := strings.TrimSpace(s)
	a, b, ok := strings.Cut(raw, "-")
	if !ok {
		return Window{}, fmt.Errorf("%w: window %q must be HH:MM-HH:MM", ErrInvalidClock, raw)
	}

	start, err := ParseClock(a)
	if err != nil {
		return Window{}, err
	}

	var end int
	switch strings.TrimSpace(b) {
	case "24:00", "00:00":
		end = MinutesPerDay
	default:
		end, err = ParseClock(b)
		if err != nil {
			return Window{}, err
		}
	}

	w := Window{Start: start, End: end}
	if !w.Valid() {
		return Window{}, fmt.Errorf("%w: window %q ends before it starts", ErrInvalidClock, raw)
	}
	return w, nil
}

// ParseWindows parsea una lista de ventanas, cortando en el primer error.
func ParseWindows(in []string) ([]Window, error) {
	out := make([]Window, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) == "" {
			continue
		}
		w, err := ParseWindow(s)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func (w Window) Valid() bool {
	return w.Start >= 0 && w.End <= MinutesPerDay && w.Start < w.End
}

func (w Window) Minutes() int { return w.End - w.Start }

// Fits reporta si [start, start+duration) cae completo dentro de la ventana.
func (w Window) Fits(start, duration int) bool {
	return start >= w.Start && start+duration <= w.End
}

func (w Window) String() string {
	return FormatClock(w.Start) + "-" + FormatClock(w.End)
}
