package bookings

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
	"github.com/kgrigsby59/courtly/internal/booking"
	"github.com/kgrigsby59/courtly/internal/crypto"
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

type fixture struct {
	mux      *http.ServeMux
	database *db.DB
	codec    *crypto.Codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	database := testutil.NewTestDB(t)
	codec, err := crypto.NewCodec("test-pii-key")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	svc := booking.NewService(database, nil)
	handler := NewHandler(database, svc, codec)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/bookings", handler.HandleCreate)
	mux.HandleFunc("GET /api/v1/bookings", handler.HandleList)
	mux.HandleFunc("GET /api/v1/bookings/{id}", handler.HandleGet)
	mux.HandleFunc("PUT /api/v1/bookings/{id}/status", handler.HandleUpdateStatus)
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", handler.HandleCancel)

	return &fixture{mux: mux, database: database, codec: codec}
}

func (f *fixture) do(t *testing.T, method, path, body string, user *authz.AuthUser) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != nil {
		req = req.WithContext(authz.ContextWithUser(req.Context(), user))
	}

	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return rec, env
}

// seedEncryptedResident seeds a resident whose name columns hold real
// ciphertext from the fixture codec.
func (f *fixture) seedEncryptedResident(t *testing.T, first, last string) dbq.Resident {
	t.Helper()
	ctx := context.Background()

	user, err := f.database.Queries.CreateUser(ctx, dbq.CreateUserParams{
		Email:        fmt.Sprintf("enc%d@example.com", time.Now().UnixNano()),
		PasswordHash: "x",
		Role:         "resident",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	encFirst, err := f.codec.Encrypt(first)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	encLast, err := f.codec.Encrypt(last)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	resident, err := f.database.Queries.CreateResident(ctx, dbq.CreateResidentParams{
		UserID:    user.ID,
		FirstName: encFirst,
		LastName:  encLast,
	})
	if err != nil {
		t.Fatalf("seed resident: %v", err)
	}
	return resident
}

func residentAuth(r dbq.Resident) *authz.AuthUser {
	return &authz.AuthUser{UserID: r.UserID, Role: authz.RoleResident, ResidentID: r.ID}
}

func createBody(facilityID int64) string {
	date := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	return fmt.Sprintf(`{"facility_id": %d, "date": %q, "start_time": "10:00", "end_time": "11:00", "attendees": 2, "purpose": "tennis"}`,
		facilityID, date)
}

func TestCreateReturnsDecryptedResidentName(t *testing.T) {
	f := newFixture(t)
	facility := testutil.SeedFacility(t, f.database, 10)
	resident := f.seedEncryptedResident(t, "Alice", "Smith")

	rec, env := f.do(t, http.MethodPost, "/api/v1/bookings", createBody(facility.ID), residentAuth(resident))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}

	var view struct {
		FacilityName      string  `json:"facility_name"`
		ResidentFirstName *string `json:"resident_first_name"`
		ResidentLastName  *string `json:"resident_last_name"`
	}
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.FacilityName != facility.Name {
		t.Errorf("facility_name = %q, want %q", view.FacilityName, facility.Name)
	}
	if view.ResidentFirstName == nil || *view.ResidentFirstName != "Alice" {
		t.Errorf("resident_first_name = %v, want Alice", view.ResidentFirstName)
	}
}

func TestUndecryptablePIIDegradesToNull(t *testing.T) {
	f := newFixture(t)
	facility := testutil.SeedFacility(t, f.database, 10)
	// Plaintext seed: the columns hold values the codec cannot authenticate.
	resident := testutil.SeedResident(t, f.database)

	rec, env := f.do(t, http.MethodPost, "/api/v1/bookings", createBody(facility.ID), residentAuth(resident))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}

	var view struct {
		ID                int64   `json:"id"`
		ResidentFirstName *string `json:"resident_first_name"`
		ResidentLastName  *string `json:"resident_last_name"`
	}
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.ResidentFirstName != nil || view.ResidentLastName != nil {
		t.Errorf("expected degraded null names, got %v %v", view.ResidentFirstName, view.ResidentLastName)
	}
	if !env.Success || view.ID == 0 {
		t.Error("response should still succeed with the booking payload")
	}
}

func TestCreateConflictOverHTTP(t *testing.T) {
	f := newFixture(t)
	facility := testutil.SeedFacility(t, f.database, 10)
	resident := testutil.SeedResident(t, f.database)

	f.do(t, http.MethodPost, "/api/v1/bookings", createBody(facility.ID), residentAuth(resident))
	rec, env := f.do(t, http.MethodPost, "/api/v1/bookings", createBody(facility.ID), residentAuth(resident))
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if env.Reason != "time conflict" {
		t.Errorf("reason = %q, want time conflict", env.Reason)
	}
	if env.Success {
		t.Error("success should be false")
	}
}

func TestStatusUpdateRequiresStaff(t *testing.T) {
	f := newFixture(t)
	facility := testutil.SeedFacility(t, f.database, 10)
	resident := testutil.SeedResident(t, f.database)

	_, env := f.do(t, http.MethodPost, "/api/v1/bookings", createBody(facility.ID), residentAuth(resident))
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	path := fmt.Sprintf("/api/v1/bookings/%d/status", created.ID)
	rec, _ := f.do(t, http.MethodPut, path, `{"status": "approved"}`, residentAuth(resident))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	f := newFixture(t)
	facility := testutil.SeedFacility(t, f.database, 10)
	owner := testutil.SeedResident(t, f.database)
	other := testutil.SeedResident(t, f.database)

	_, env := f.do(t, http.MethodPost, "/api/v1/bookings", createBody(facility.ID), residentAuth(owner))
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	path := fmt.Sprintf("/api/v1/bookings/%d", created.ID)
	rec, env := f.do(t, http.MethodGet, path, "", residentAuth(other))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if env.Reason != "forbidden" {
		t.Errorf("reason = %q, want forbidden", env.Reason)
	}
}

func TestValidationRejectsReversedTimes(t *testing.T) {
	f := newFixture(t)
	facility := testutil.SeedFacility(t, f.database, 10)
	resident := testutil.SeedResident(t, f.database)

	date := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	body := fmt.Sprintf(`{"facility_id": %d, "date": %q, "start_time": "11:00", "end_time": "10:00", "attendees": 1, "purpose": ""}`,
		facility.ID, date)
	rec, env := f.do(t, http.MethodPost, "/api/v1/bookings", body, residentAuth(resident))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if env.Reason != "validation" {
		t.Errorf("reason = %q, want validation", env.Reason)
	}
}
