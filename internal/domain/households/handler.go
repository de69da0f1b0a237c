package households

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pawpal/internal/domain/activity"
	"pawpal/internal/domain/care"
	"pawpal/internal/domain/planner"
	"pawpal/internal/domain/sharing"
	"pawpal/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, grantsSvc *sharing.Service, activitySvc *activity.Service) {
	r.Route("/households", func(hr chi.Router) {
		hr.Post("/", createHouseholdHandler(svc))
		hr.Get("/", listHouseholdsHandler(svc))

		hr.Route("/{householdID}", func(h chi.Router) {
			h.Get("/", getHouseholdHandler(svc, grantsSvc))
			h.Put("/availability", setAvailabilityHandler(svc, grantsSvc))
			h.Post("/pets", addPetHandler(svc, grantsSvc))
			h.Post("/pets/{petID}/tasks", addTaskHandler(svc, grantsSvc))
			h.Post("/tasks/{taskID}/complete", completeTaskHandler(svc, grantsSvc, activitySvc))
			h.Post("/tasks/{taskID}/reopen", reopenTaskHandler(svc, grantsSvc, activitySvc))
			h.Get("/plan", planHandler(svc, grantsSvc))
			h.Get("/activity", listActivityHandler(svc, grantsSvc, activitySvc))
		})
	})
}

type createHouseholdRequest struct {
	Name         string   `json:"name"`
	Availability []string `json:"availability"` // ["07:00-09:00", "17:00-20:00"]
}

type availabilityRequest struct {
	Availability []string `json:"availability"`
}

type addPetRequest struct {
	Name         string   `json:"name"`
	Species      string   `json:"species"`
	Breed        string   `json:"breed"`
	Age          int      `json:"age"`
	WeightKg     float64  `json:"weight_kg"`
	SpecialNeeds []string `json:"special_needs"`
	Conditions   []string `json:"conditions"`
}

type addTaskRequest struct {
	Name             string   `json:"name"`
	Kind             string   `json:"kind"`
	DurationMinutes  int      `json:"duration_minutes"`
	Priority         int      `json:"priority"`
	FixedTime        bool     `json:"fixed_time"`
	PreferredWindows []string `json:"preferred_windows"`
	Frequency        string   `json:"frequency"`
	Weekday          string   `json:"weekday"`
	Notes            string   `json:"notes"`
}

type householdResponse struct {
	ID           string        `json:"id"`
	OwnerUserID  string        `json:"owner_user_id"`
	Name         string        `json:"name"`
	Availability []string      `json:"availability"`
	Pets         []petResponse `json:"pets"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type petResponse struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Species      string         `json:"species"`
	Breed        string         `json:"breed,omitempty"`
	Age          int            `json:"age"`
	WeightKg     float64        `json:"weight_kg,omitempty"`
	SpecialNeeds []string       `json:"special_needs,omitempty"`
	Conditions   []string       `json:"conditions,omitempty"`
	Tasks        []taskResponse `json:"tasks"`
}

type taskResponse struct {
	ID               string   `json:"id"`
	PetID            string   `json:"pet_id"`
	PetName          string   `json:"pet_name"`
	Name             string   `json:"name"`
	Kind             string   `json:"kind"`
	DurationMinutes  int      `json:"duration_minutes"`
	Priority         int      `json:"priority"`
	Score            int      `json:"score"`
	FixedTime        bool     `json:"fixed_time"`
	PreferredWindows []string `json:"preferred_windows,omitempty"`
	Frequency        string   `json:"frequency"`
	Weekday          string   `json:"weekday,omitempty"`
	Completed        bool     `json:"completed"`
	CompletedOn      string   `json:"completed_on,omitempty"`
	NextDueDate      string   `json:"next_due_date,omitempty"`
	Start            string   `json:"start,omitempty"`
	End              string   `json:"end,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

type conflictResponse struct {
	Kind    string   `json:"kind"`
	First   string   `json:"first_task_id"`
	Second  string   `json:"second_task_id"`
	Pets    []string `json:"pets"`
	Overlap string   `json:"overlap"`
	Message string   `json:"message"`
}

type issueResponse struct {
	TaskID   string `json:"task_id"`
	TaskName string `json:"task_name"`
	PetName  string `json:"pet_name"`
	Error    string `json:"error"`
}

type activityResponse struct {
	ID          string    `json:"id"`
	PetID       string    `json:"pet_id"`
	PetName     string    `json:"pet_name"`
	TaskID      string    `json:"task_id"`
	TaskName    string    `json:"task_name"`
	Action      string    `json:"action"`
	Day         string    `json:"day"`
	ActorUserID string    `json:"actor_user_id"`
	ActorRole   string    `json:"actor_role"`
	RecordedAt  time.Time `json:"recorded_at"`
}

type planResponse struct {
	Date         string             `json:"date"`
	Availability []string           `json:"availability"`
	Scheduled    []taskResponse     `json:"scheduled"`
	Unscheduled  []taskResponse     `json:"unscheduled"`
	Conflicts    []conflictResponse `json:"conflicts"`
	Issues       []issueResponse    `json:"issues"`
	Warnings     []string           `json:"warnings"`
	Reasoning    []string           `json:"reasoning"`
	TotalMinutes int                `json:"total_minutes"`
	Summary      string             `json:"summary"`
}

// createHouseholdHandler godoc
// @Summary Crear household
// @Description Crea un household cuyo dueño es el usuario autenticado. `availability` es una lista de ventanas "HH:MM-HH:MM" sin solapes.
// @Tags households
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createHouseholdRequest true "Nombre y disponibilidad"
// @Success 201 {object} householdResponse
// @Failure 400 {string} string "invalid json / ventanas inválidas"
// @Failure 401 {string} string "unauthorized"
// @Router /households [post]
func createHouseholdHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createHouseholdRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		h, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:         req.Name,
			Availability: req.Availability,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toHouseholdResponse(h))
	}
}

// listHouseholdsHandler godoc
// @Summary Listar households propios
// @Tags households
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} householdResponse
// @Failure 401 {string} string "unauthorized"
// @Router /households [get]
func listHouseholdsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]householdResponse, 0, len(items))
		for _, h := range items {
			out = append(out, toHouseholdResponse(h))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getHouseholdHandler godoc
// @Summary Ver household
// @Description El dueño siempre puede verlo; un cuidador necesita un grant activo con `plan:read`.
// @Tags households
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param householdID path string true "ID del household"
// @Success 200 {object} householdResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "household not found"
// @Router /households/{householdID} [get]
func getHouseholdHandler(svc *Service, grantsSvc *sharing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := authorize(w, r, svc, grantsSvc, sharing.ScopePlanRead)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toHouseholdResponse(h))
	}
}

// setAvailabilityHandler godoc
// @Summary Reemplazar la disponibilidad del dueño
// @Tags households
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param householdID path string true "ID del household"
// @Param payload body availabilityRequest true "Ventanas HH:MM-HH:MM"
// @Success 200 {object} householdResponse
// @Failure 400 {string} string "ventanas inválidas o solapadas"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "household not found"
// @Router /households/{householdID}/availability [put]
func setAvailabilityHandler(svc *Service, grantsSvc *sharing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := authorize(w, r, svc, grantsSvc, sharing.ScopeHouseholdEdit)
		if !ok {
			return
		}

		var req availabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		updated, err := svc.SetAvailability(r.Context(), h.ID, req.Availability)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toHouseholdResponse(updated))
	}
}

// addPetHandler godoc
// @Summary Agregar mascota
// @Tags households
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param householdID path string true "ID del household"
// @Param payload body addPetRequest true "Datos de la mascota"
// @Success 201 {object} petResponse
// @Failure 400 {string} string "invalid input"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "household not found"
// @Router /households/{householdID}/pets [post]
func addPetHandler(svc *Service, grantsSvc *sharing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := authorize(w, r, svc, grantsSvc, sharing.ScopeHouseholdEdit)
		if !ok {
			return
		}

		var req addPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.AddPet(r.Context(), h.ID, AddPetInput{
			Name:         req.Name,
			Species:      req.Species,
			Breed:        req.Breed,
			Age:          req.Age,
			WeightKg:     req.WeightKg,
			SpecialNeeds: req.SpecialNeeds,
			Conditions:   req.Conditions,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// addTaskHandler godoc
// @Summary Agregar tarea de cuidado
// @Description `frequency`: once, daily, weekly (requiere `weekday`) o twice_daily (requiere dos `preferred_windows`). `priority` de 1 a 5.
// @Tags households
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param householdID path string true "ID del household"
// @Param petID path string true "ID de la mascota"
// @Param payload body addTaskRequest true "Datos de la tarea"
// @Success 201 {object} taskResponse
// @Failure 400 {string} string "tarea inválida"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "household / pet not found"
// @Router /households/{householdID}/pets/{petID}/tasks [post]
func addTaskHandler(svc *Service, grantsSvc *sharing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := authorize(w, r, svc, grantsSvc, sharing.ScopeHouseholdEdit)
		if !ok {
			return
		}

		var req addTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t, err := svc.AddTask(r.Context(), h.ID, chi.URLParam(r, "petID"), AddTaskInput{
			Name:             req.Name,
			Kind:             req.Kind,
			DurationMinutes:  req.DurationMinutes,
			Priority:         req.Priority,
			FixedTime:        req.FixedTime,
			PreferredWindows: req.PreferredWindows,
			Frequency:        req.Frequency,
			Weekday:          req.Weekday,
			Notes:            req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toTaskResponse(t))
	}
}

// completeTaskHandler godoc
// @Summary Marcar tarea como hecha
// @Description Registra la tarea como completada en `date` (hoy por defecto). Las recurrentes vuelven a vencer al día o a la semana siguiente.
// @Tags households
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param householdID path string true "ID del household"
// @Param taskID path string true "ID de la tarea"
// @Param date query string false "YYYY-MM-DD"
// @Success 200 {object} taskResponse
// @Failure 400 {string} string "date inválida"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "task not found"
// @Router /households/{householdID}/tasks/{taskID}/complete [post]
func completeTaskHandler(svc *Service, grantsSvc *sharing.Service, activitySvc *activity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := authorize(w, r, svc, grantsSvc, sharing.ScopeTasksComplete)
		if !ok {
			return
		}

		date, err := parseDateParam(r, svc.now())
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		t, err := svc.CompleteTask(r.Context(), h.ID, chi.URLParam(r, "taskID"), date)
		if err != nil {
			writeError(w, err)
			return
		}
		recordActivity(r, activitySvc, h, activity.ActionCompleted, date, t)
		writeJSON(w, http.StatusOK, toTaskResponse(t))
	}
}

// reopenTaskHandler godoc
// @Summary Deshacer "hecha"
// @Tags households
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param householdID path string true "ID del household"
// @Param taskID path string true "ID de la tarea"
// @Success 200 {object} taskResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "task not found"
// @Router /households/{householdID}/tasks/{taskID}/reopen [post]
func reopenTaskHandler(svc *Service, grantsSvc *sharing.Service, activitySvc *activity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := authorize(w, r, svc, grantsSvc, sharing.ScopeTasksComplete)
		if !ok {
			return
		}

		t, err := svc.ReopenTask(r.Context(), h.ID, chi.URLParam(r, "taskID"))
		if err != nil {
			writeError(w, err)
			return
		}
		day := care.DateOf(svc.now())
		if t.NextDueDate != nil {
			day = *t.NextDueDate
		}
		recordActivity(r, activitySvc, h, activity.ActionReopened, day, t)
		writeJSON(w, http.StatusOK, toTaskResponse(t))
	}
}

// planHandler godoc
// @Summary Plan diario
// @Description Genera el plan del día: tareas agendadas en orden de hora, no agendadas, conflictos, tareas mal configuradas y el razonamiento de cada colocación. `pet` y `completed` filtran las listas de tareas.
// @Tags plans
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param householdID path string true "ID del household"
// @Param date query string false "YYYY-MM-DD (hoy por defecto)"
// @Param pet query string false "Nombre de mascota (sin distinguir mayúsculas)"
// @Param completed query bool false "Solo completadas (true) o pendientes (false)"
// @Success 200 {object} planResponse
// @Failure 400 {string} string "parámetros inválidos"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "household not found"
// @Router /households/{householdID}/plan [get]
func planHandler(svc *Service, grantsSvc *sharing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := authorize(w, r, svc, grantsSvc, sharing.ScopePlanRead)
		if !ok {
			return
		}

		date, err := parseDateParam(r, svc.now())
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		filter, err := parsePlanFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		plan, err := svc.Plan(r.Context(), h.ID, date)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlanResponse(plan, filter))
	}
}

// listActivityHandler godoc
// @Summary Historial de tareas hechas
// @Description Quién marcó o desmarcó cada tarea, lo más reciente primero. `from`/`to` filtran por día del plan.
// @Tags households
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param householdID path string true "ID del household"
// @Param pet query string false "ID de mascota"
// @Param action query string false "CSV (completed,reopened)"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Param limit query int false "Máximo de entradas (default 50, tope 200)"
// @Success 200 {array} activityResponse
// @Failure 400 {string} string "parámetros inválidos"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "household not found"
// @Router /households/{householdID}/activity [get]
func listActivityHandler(svc *Service, grantsSvc *sharing.Service, activitySvc *activity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := authorize(w, r, svc, grantsSvc, sharing.ScopePlanRead)
		if !ok {
			return
		}

		filter, err := parseActivityFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := activitySvc.List(r.Context(), h.ID, filter)
		if err != nil {
			if errors.Is(err, activity.ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]activityResponse, 0, len(items))
		for _, e := range items {
			out = append(out, activityResponse{
				ID:          e.ID,
				PetID:       e.PetID,
				PetName:     e.PetName,
				TaskID:      e.TaskID,
				TaskName:    e.TaskName,
				Action:      string(e.Action),
				Day:         e.Day.Format("2006-01-02"),
				ActorUserID: e.ActorUserID,
				ActorRole:   string(e.ActorRole),
				RecordedAt:  e.RecordedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// recordActivity es best-effort: el cambio ya quedó guardado y el service loguea si falla.
func recordActivity(r *http.Request, activitySvc *activity.Service, h Household, action activity.Action, day time.Time, t care.CareTask) {
	if activitySvc == nil {
		return
	}
	claims, _ := middleware.GetClaims(r.Context())
	_, _ = activitySvc.Record(r.Context(), activity.RecordInput{
		HouseholdID: h.ID,
		OwnerUserID: h.OwnerUserID,
		ActorUserID: claims.UserID,
		Action:      action,
		Day:         day,
		Task:        t,
	})
}

func parseActivityFilter(r *http.Request) (activity.ListFilter, error) {
	q := r.URL.Query()

	f := activity.ListFilter{PetID: strings.TrimSpace(q.Get("pet"))}
	for _, p := range strings.Split(q.Get("action"), ",") {
		if a := activity.Action(strings.TrimSpace(p)); a != "" {
			f.Actions = append(f.Actions, a)
		}
	}
	for key, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			continue
		}
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return activity.ListFilter{}, errors.New(key + " must be YYYY-MM-DD")
		}
		*dst = &d
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return activity.ListFilter{}, errors.New("limit must be a number")
		}
		f.Limit = n
	}
	return f, nil
}

// authorize carga el household y aplica permisos: owner bypass, cuidador con grant + scope.
func authorize(w http.ResponseWriter, r *http.Request, svc *Service, grantsSvc *sharing.Service, scope sharing.Scope) (Household, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return Household{}, false
	}

	h, err := svc.GetByID(r.Context(), chi.URLParam(r, "householdID"))
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
			http.Error(w, "household not found", http.StatusNotFound)
		} else {
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return Household{}, false
	}

	if err := grantsSvc.Authorize(r.Context(), h.ID, h.OwnerUserID, claims.UserID, scope); err != nil {
		http.Error(w, "forbidden", http.StatusForbidden)
		return Household{}, false
	}
	return h, true
}

func parseDateParam(r *http.Request, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return care.DateOf(now), nil
	}
	return time.Parse("2006-01-02", raw)
}

func parsePlanFilter(r *http.Request) (planner.Filter, error) {
	q := r.URL.Query()

	var f planner.Filter
	if pet := strings.TrimSpace(q.Get("pet")); pet != "" {
		f.PetName = &pet
	}
	if raw := strings.TrimSpace(q.Get("completed")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return planner.Filter{}, errors.New("completed must be true or false")
		}
		f.Completed = &v
	}
	return f, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toHouseholdResponse(h Household) householdResponse {
	pets := make([]petResponse, 0, len(h.Owner.Pets))
	for _, p := range h.Owner.Pets {
		pets = append(pets, toPetResponse(p))
	}
	return householdResponse{
		ID:           h.ID,
		OwnerUserID:  h.OwnerUserID,
		Name:         h.Owner.Name,
		Availability: windowStrings(h.Owner.Availability),
		Pets:         pets,
		CreatedAt:    h.CreatedAt,
		UpdatedAt:    h.UpdatedAt,
	}
}

func toPetResponse(p care.Pet) petResponse {
	return petResponse{
		ID:           p.ID,
		Name:         p.Name,
		Species:      string(p.Species),
		Breed:        p.Breed,
		Age:          p.Age,
		WeightKg:     p.WeightKg,
		SpecialNeeds: p.SpecialNeeds,
		Conditions:   p.Conditions,
		Tasks:        toTaskResponses(p.Tasks),
	}
}

func toTaskResponse(t care.CareTask) taskResponse {
	out := taskResponse{
		ID:               t.ID,
		PetID:            t.PetID,
		PetName:          t.PetName,
		Name:             t.Name,
		Kind:             string(t.Kind),
		DurationMinutes:  t.DurationMinutes,
		Priority:         t.Priority,
		Score:            t.PriorityScore(),
		FixedTime:        t.FixedTime,
		PreferredWindows: windowStrings(t.PreferredWindows),
		Frequency:        string(t.Frequency),
		Completed:        t.Completed,
		Notes:            t.Notes,
	}
	if t.ScheduledWeekday != nil {
		out.Weekday = strings.ToLower(t.ScheduledWeekday.String())
	}
	if t.CompletedOn != nil {
		out.CompletedOn = t.CompletedOn.Format("2006-01-02")
	}
	if t.NextDueDate != nil {
		out.NextDueDate = t.NextDueDate.Format("2006-01-02")
	}
	if iv, ok := t.Interval(); ok {
		out.Start = care.FormatClock(iv.Start)
		out.End = care.FormatClock(iv.End)
	}
	return out
}

func toTaskResponses(tasks []care.CareTask) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	return out
}

func toPlanResponse(p planner.DailyPlan, f planner.Filter) planResponse {
	conflicts := make([]conflictResponse, 0, len(p.Conflicts))
	for _, c := range p.Conflicts {
		conflicts = append(conflicts, conflictResponse{
			Kind:    string(c.Kind),
			First:   c.First.TaskID,
			Second:  c.Second.TaskID,
			Pets:    c.Pets,
			Overlap: c.Overlap.String(),
			Message: c.String(),
		})
	}

	issues := make([]issueResponse, 0, len(p.Issues))
	for _, i := range p.Issues {
		issues = append(issues, issueResponse{
			TaskID:   i.Task.TaskID,
			TaskName: i.Task.TaskName,
			PetName:  i.Task.PetName,
			Error:    i.Err.Error(),
		})
	}

	warnings := p.Validate()
	if warnings == nil {
		warnings = []string{}
	}

	return planResponse{
		Date:         p.Date.Format("2006-01-02"),
		Availability: windowStrings(p.Availability),
		Scheduled:    toTaskResponses(planner.SortByTime(planner.FilterTasks(p.Scheduled, f))),
		Unscheduled:  toTaskResponses(planner.FilterTasks(p.Unscheduled, f)),
		Conflicts:    conflicts,
		Issues:       issues,
		Warnings:     warnings,
		Reasoning:    append([]string{}, p.Reasoning...),
		TotalMinutes: p.TotalMinutes(),
		Summary:      p.Explain(),
	}
}

func windowStrings(ws []care.Window) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.String())
	}
	return out
}

// writeJSON duplicado a propósito en cada módulo; extraer si aparece un tercero.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
