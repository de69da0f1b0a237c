package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pawpal/internal/domain/sharing"
	"pawpal/internal/router"
)

type planBody struct {
	Date      string `json:"date"`
	Scheduled []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		PetName   string `json:"pet_name"`
		Start     string `json:"start"`
		End       string `json:"end"`
		Completed bool   `json:"completed"`
	} `json:"scheduled"`
	Unscheduled  []json.RawMessage `json:"unscheduled"`
	Conflicts    []json.RawMessage `json:"conflicts"`
	Issues       []json.RawMessage `json:"issues"`
	Reasoning    []string          `json:"reasoning"`
	TotalMinutes int               `json:"total_minutes"`
	Summary      string            `json:"summary"`
}

func TestHTTP_EndToEnd_PlanAndSitterScopes(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	ownerID := "owner-1"
	sitterID := "sitter-1"

	// 1) Owner crea household, mascota y tareas
	householdID := createID(t, ts.URL, ownerID, "/households", map[string]any{
		"name":         "Sarah",
		"availability": []string{"17:00-21:00", "07:00-09:00"},
	})
	petID := createID(t, ts.URL, ownerID, "/households/"+householdID+"/pets", map[string]any{
		"name":    "Buddy",
		"species": "dog",
		"age":     3,
	})
	walkID := createID(t, ts.URL, ownerID, "/households/"+householdID+"/pets/"+petID+"/tasks", map[string]any{
		"name":              "Morning Walk",
		"kind":              "walk",
		"duration_minutes":  30,
		"priority":          4,
		"frequency":         "daily",
		"preferred_windows": []string{"07:00-08:00"},
	})
	createID(t, ts.URL, ownerID, "/households/"+householdID+"/pets/"+petID+"/tasks", map[string]any{
		"name":              "Dinner",
		"kind":              "feed",
		"duration_minutes":  10,
		"priority":          5,
		"frequency":         "daily",
		"preferred_windows": []string{"18:00-19:00"},
	})

	planPath := "/households/" + householdID + "/plan?date=2025-03-03"

	// 2) Owner ve el plan ordenado por hora
	{
		plan := getPlan(t, ts.URL, ownerID, planPath)
		if plan.Date != "2025-03-03" {
			t.Fatalf("expected plan date 2025-03-03, got %s", plan.Date)
		}
		if len(plan.Scheduled) != 2 {
			t.Fatalf("expected 2 scheduled tasks, got %d", len(plan.Scheduled))
		}
		if plan.Scheduled[0].Name != "Morning Walk" || plan.Scheduled[0].Start != "07:00" || plan.Scheduled[0].End != "07:30" {
			t.Fatalf("unexpected first task: %+v", plan.Scheduled[0])
		}
		if plan.Scheduled[1].Name != "Dinner" || plan.Scheduled[1].Start != "18:00" {
			t.Fatalf("unexpected second task: %+v", plan.Scheduled[1])
		}
		if plan.TotalMinutes != 40 || len(plan.Conflicts) != 0 || len(plan.Reasoning) != 2 {
			t.Fatalf("unexpected plan totals: %+v", plan)
		}
	}

	// 3) Sitter no puede ver el plan sin grant
	if st, _ := doReq(t, ts.URL, "GET", planPath, sitterID, nil); st != http.StatusForbidden {
		t.Fatalf("expected 403 before grant, got %d", st)
	}

	// 4) Owner invita (scopes default), sitter acepta
	grantID := inviteGrant(t, ts.URL, ownerID, householdID, sitterID, nil)
	{
		st, body := doReq(t, ts.URL, "GET", "/me/grants?status=invited", sitterID, nil)
		if st != http.StatusOK || !strings.Contains(string(body), grantID) {
			t.Fatalf("expected invitation listed, got %d body=%s", st, string(body))
		}
	}
	if st, body := doReq(t, ts.URL, "POST", "/grants/"+grantID+"/accept", sitterID, nil); st != http.StatusOK {
		t.Fatalf("expected 200 accept grant, got %d body=%s", st, string(body))
	}

	// 5) Sitter ve el plan y filtra por mascota
	if plan := getPlan(t, ts.URL, sitterID, planPath+"&pet=buddy"); len(plan.Scheduled) != 2 {
		t.Fatalf("expected sitter to see 2 tasks, got %d", len(plan.Scheduled))
	}
	if plan := getPlan(t, ts.URL, sitterID, planPath+"&pet=whiskers"); len(plan.Scheduled) != 0 {
		t.Fatalf("expected no tasks for another pet, got %d", len(plan.Scheduled))
	}

	// 6) Sin household:edit no puede tocar la disponibilidad
	{
		st, _ := doReq(t, ts.URL, "PUT", "/households/"+householdID+"/availability", sitterID, map[string]any{
			"availability": []string{"10:00-11:00"},
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 editing availability as sitter, got %d", st)
		}
	}

	// 7) Sitter marca el paseo como hecho; sigue en el plan del día como completo
	{
		st, body := doReq(t, ts.URL, "POST", "/households/"+householdID+"/tasks/"+walkID+"/complete?date=2025-03-03", sitterID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 complete task, got %d body=%s", st, string(body))
		}
		if !strings.Contains(string(body), `"next_due_date":"2025-03-04"`) {
			t.Fatalf("expected next due date in response, body=%s", string(body))
		}

		plan := getPlan(t, ts.URL, sitterID, planPath)
		if len(plan.Scheduled) != 2 || !plan.Scheduled[0].Completed || plan.Scheduled[1].Completed {
			t.Fatalf("expected walk done and dinner pending, got %+v", plan.Scheduled)
		}

		done := getPlan(t, ts.URL, sitterID, planPath+"&completed=true")
		if len(done.Scheduled) != 1 || done.Scheduled[0].ID != walkID || done.Scheduled[0].Start != "07:00" {
			t.Fatalf("expected only the walk with completed=true, got %+v", done.Scheduled)
		}

		pending := getPlan(t, ts.URL, sitterID, planPath+"&completed=false")
		if len(pending.Scheduled) != 1 || pending.Scheduled[0].Name != "Dinner" {
			t.Fatalf("expected only dinner with completed=false, got %+v", pending.Scheduled)
		}

		tomorrow := getPlan(t, ts.URL, sitterID, "/households/"+householdID+"/plan?date=2025-03-04&completed=true")
		if len(tomorrow.Scheduled) != 0 {
			t.Fatalf("expected nothing done yet tomorrow, got %+v", tomorrow.Scheduled)
		}
	}

	// 8) El historial muestra quién hizo qué
	{
		st, body := doReq(t, ts.URL, "GET", "/households/"+householdID+"/activity?action=completed", ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 activity, got %d body=%s", st, string(body))
		}
		var entries []struct {
			TaskID      string `json:"task_id"`
			Action      string `json:"action"`
			Day         string `json:"day"`
			ActorUserID string `json:"actor_user_id"`
			ActorRole   string `json:"actor_role"`
		}
		if err := json.Unmarshal(body, &entries); err != nil {
			t.Fatalf("decode activity: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 activity entry, got %d", len(entries))
		}
		e := entries[0]
		if e.TaskID != walkID || e.Action != "completed" || e.Day != "2025-03-03" || e.ActorUserID != sitterID || e.ActorRole != "sitter" {
			t.Fatalf("unexpected activity entry: %+v", e)
		}

		if st, _ := doReq(t, ts.URL, "GET", "/households/"+householdID+"/activity?from=2025-03-05&to=2025-03-01", ownerID, nil); st != http.StatusBadRequest {
			t.Fatalf("expected 400 for inverted range, got %d", st)
		}
	}

	// 9) Owner revoca; sitter pierde acceso
	if st, body := doReq(t, ts.URL, "POST", "/grants/"+grantID+"/revoke", ownerID, nil); st != http.StatusOK {
		t.Fatalf("expected 200 revoke, got %d body=%s", st, string(body))
	}
	if st, _ := doReq(t, ts.URL, "GET", planPath, sitterID, nil); st != http.StatusForbidden {
		t.Fatalf("expected 403 after revoke, got %d", st)
	}
}

func TestHTTP_PlanReportsConfigIssuesAndDerivedTasks(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	ownerID := "owner-1"
	householdID := createID(t, ts.URL, ownerID, "/households", map[string]any{
		"name":         "Sarah",
		"availability": []string{"08:00-10:00"},
	})
	createID(t, ts.URL, ownerID, "/households/"+householdID+"/pets", map[string]any{
		"name":       "Luna",
		"species":    "cat",
		"age":        12,
		"conditions": []string{"Diabetes"},
	})

	// 2025-03-09 es domingo: toca el control de peso semanal.
	plan := getPlan(t, ts.URL, ownerID, "/households/"+householdID+"/plan?date=2025-03-09")

	names := map[string]string{}
	for _, s := range plan.Scheduled {
		names[s.Name] = s.Start
	}
	if _, ok := names["Weight Check"]; !ok {
		t.Fatalf("expected derived weight check, got %+v", plan.Scheduled)
	}
	if names["Insulin Injection (1/2)"] != "08:00" {
		t.Fatalf("expected morning insulin at 08:00, got %+v", plan.Scheduled)
	}
	// La segunda dosis no cabe en 19:00-21:00: se mueve a la primera ventana libre.
	if names["Insulin Injection (2/2)"] != "08:05" || len(plan.Scheduled) != 3 {
		t.Fatalf("expected second dose relaxed to 08:05, got %+v", plan.Scheduled)
	}
}

func TestHTTP_ValidationErrors(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	ownerID := "owner-1"

	if st, _ := doReq(t, ts.URL, "POST", "/households", "", map[string]any{"name": "x"}); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "POST", "/households", ownerID, map[string]any{
		"name":         "Sarah",
		"availability": []string{"07:00-09:00", "08:00-10:00"},
	}); st != http.StatusBadRequest {
		t.Fatalf("expected 400 for overlapping availability, got %d", st)
	}

	householdID := createID(t, ts.URL, ownerID, "/households", map[string]any{
		"name":         "Sarah",
		"availability": []string{"07:00-09:00"},
	})
	petID := createID(t, ts.URL, ownerID, "/households/"+householdID+"/pets", map[string]any{
		"name": "Buddy", "species": "dog", "age": 3,
	})

	if st, _ := doReq(t, ts.URL, "POST", "/households/"+householdID+"/pets/"+petID+"/tasks", ownerID, map[string]any{
		"name": "Bath", "kind": "grooming", "duration_minutes": 30, "priority": 2, "frequency": "weekly",
	}); st != http.StatusBadRequest {
		t.Fatalf("expected 400 for weekly task without weekday, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/households/"+householdID+"/plan?date=03/03/2025", ownerID, nil); st != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/households/"+householdID+"/plan?completed=maybe", ownerID, nil); st != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad completed filter, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/households/missing/plan", ownerID, nil); st != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown household, got %d", st)
	}

	// scope inválido => 400
	st, _ := doReq(t, ts.URL, "POST", "/households/"+householdID+"/grants", ownerID, map[string]any{
		"sitter_user_id": "sitter-1",
		"scopes":         []string{string(sharing.ScopePlanRead), "pets:delete"},
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown scope, got %d", st)
	}
}

func TestHTTP_HealthAndSwagger(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	if st, body := doReq(t, ts.URL, "GET", "/health", "", nil); st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("expected health ok, got %d %s", st, string(body))
	}
	st, body := doReq(t, ts.URL, "GET", "/swagger/doc.json", "", nil)
	if st != http.StatusOK || !strings.Contains(string(body), "/households/{householdID}/plan") {
		t.Fatalf("expected swagger doc, got %d", st)
	}
}

func getPlan(t *testing.T, baseURL, userID, path string) planBody {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", path, userID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 plan, got %d body=%s", st, string(body))
	}
	var plan planBody
	if err := json.Unmarshal(body, &plan); err != nil {
		t.Fatalf("decode plan: %v body=%s", err, string(body))
	}
	return plan
}

func createID(t *testing.T, baseURL, userID, path string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", path, userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 POST %s, got %d body=%s", path, st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("POST %s: missing id body=%s", path, string(body))
	}
	return resp.ID
}

func inviteGrant(t *testing.T, baseURL, ownerID, householdID, sitterID string, scopes []string) string {
	t.Helper()

	payload := map[string]any{"sitter_user_id": sitterID}
	if scopes != nil {
		payload["scopes"] = scopes
	}
	return createID(t, baseURL, ownerID, "/households/"+householdID+"/grants", payload)
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
