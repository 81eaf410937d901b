package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kgrigsby59/courtly/internal/api/authz"
	"github.com/kgrigsby59/courtly/internal/db"
	dbq "github.com/kgrigsby59/courtly/internal/db/queries"
	"github.com/kgrigsby59/courtly/internal/testutil"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Reason  string          `json:"reason"`
	Data    json.RawMessage `json:"data"`
}

func newTestMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/events", h.HandleList)
	mux.HandleFunc("POST /api/v1/events", h.HandleCreate)
	mux.HandleFunc("POST /api/v1/events/{id}/register", h.HandleRegister)
	mux.HandleFunc("DELETE /api/v1/events/{id}/register", h.HandleUnregister)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, body string, user *authz.AuthUser) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != nil {
		req = req.WithContext(authz.ContextWithUser(req.Context(), user))
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return rec, env
}

func seedEvent(t *testing.T, database *db.DB, capacity int64) dbq.Event {
	t.Helper()
	facility := testutil.SeedFacility(t, database, 50)
	staff := testutil.SeedStaff(t, database, true)

	event, err := database.Queries.CreateEvent(context.Background(), dbq.CreateEventParams{
		FacilityID:  facility.ID,
		Title:       "Summer tournament",
		Description: "annual",
		Date:        time.Now().AddDate(0, 0, 14).Format("2006-01-02"),
		StartTime:   "10:00",
		EndTime:     "14:00",
		Capacity:    capacity,
		CreatedBy:   staff.ID,
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return event
}

func residentUser(t *testing.T, database *db.DB) *authz.AuthUser {
	t.Helper()
	resident := testutil.SeedResident(t, database)
	return &authz.AuthUser{UserID: resident.UserID, Role: authz.RoleResident, ResidentID: resident.ID}
}

func TestRegisterEnforcesCapacity(t *testing.T) {
	database := testutil.NewTestDB(t)
	mux := newTestMux(NewHandler(database))
	event := seedEvent(t, database, 2)
	path := fmt.Sprintf("/api/v1/events/%d/register", event.ID)

	for i := 0; i < 2; i++ {
		rec, _ := doRequest(t, mux, http.MethodPost, path, "", residentUser(t, database))
		if rec.Code != http.StatusCreated {
			t.Fatalf("register %d status = %d (body %s)", i, rec.Code, rec.Body.String())
		}
	}

	rec, env := doRequest(t, mux, http.MethodPost, path, "", residentUser(t, database))
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if env.Reason != "event full" {
		t.Errorf("reason = %q, want event full", env.Reason)
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	database := testutil.NewTestDB(t)
	mux := newTestMux(NewHandler(database))
	event := seedEvent(t, database, 10)
	user := residentUser(t, database)
	path := fmt.Sprintf("/api/v1/events/%d/register", event.ID)

	doRequest(t, mux, http.MethodPost, path, "", user)
	rec, env := doRequest(t, mux, http.MethodPost, path, "", user)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if env.Reason != "duplicate" {
		t.Errorf("reason = %q, want duplicate", env.Reason)
	}
}

func TestUnregisterThenReregister(t *testing.T) {
	database := testutil.NewTestDB(t)
	mux := newTestMux(NewHandler(database))
	event := seedEvent(t, database, 1)
	user := residentUser(t, database)
	path := fmt.Sprintf("/api/v1/events/%d/register", event.ID)

	doRequest(t, mux, http.MethodPost, path, "", user)
	rec, _ := doRequest(t, mux, http.MethodDelete, path, "", user)
	if rec.Code != http.StatusOK {
		t.Fatalf("unregister status = %d", rec.Code)
	}

	// The freed seat is available again.
	rec, _ = doRequest(t, mux, http.MethodPost, path, "", residentUser(t, database))
	if rec.Code != http.StatusCreated {
		t.Errorf("re-register status = %d, want 201", rec.Code)
	}
}

func TestUnregisterWithoutRegistration(t *testing.T) {
	database := testutil.NewTestDB(t)
	mux := newTestMux(NewHandler(database))
	event := seedEvent(t, database, 5)
	path := fmt.Sprintf("/api/v1/events/%d/register", event.ID)

	rec, env := doRequest(t, mux, http.MethodDelete, path, "", residentUser(t, database))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if env.Reason != "not found" {
		t.Errorf("reason = %q, want not found", env.Reason)
	}
}

func TestListIncludesRegistrationCounts(t *testing.T) {
	database := testutil.NewTestDB(t)
	mux := newTestMux(NewHandler(database))
	event := seedEvent(t, database, 10)
	path := fmt.Sprintf("/api/v1/events/%d/register", event.ID)
	doRequest(t, mux, http.MethodPost, path, "", residentUser(t, database))

	_, env := doRequest(t, mux, http.MethodGet, "/api/v1/events", "", nil)
	var views []struct {
		ID              int64 `json:"id"`
		RegisteredCount int64 `json:"registered_count"`
	}
	if err := json.Unmarshal(env.Data, &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 || views[0].RegisteredCount != 1 {
		t.Errorf("unexpected views: %+v", views)
	}
}

func TestCreateRequiresStaff(t *testing.T) {
	database := testutil.NewTestDB(t)
	mux := newTestMux(NewHandler(database))
	user := residentUser(t, database)

	body := `{"facility_id": 1, "title": "x", "date": "2026-09-01", "start_time": "10:00", "end_time": "11:00", "capacity": 5}`
	rec, _ := doRequest(t, mux, http.MethodPost, "/api/v1/events", body, user)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
