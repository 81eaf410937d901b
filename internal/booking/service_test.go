package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kgrigsby59/courtly/internal/api/apiutil"
	"github.com/kgrigsby59/courtly/internal/api/authz"
	"github.com/kgrigsby59/courtly/internal/db"
	dbq "github.com/kgrigsby59/courtly/internal/db/queries"
	"github.com/kgrigsby59/courtly/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *db.DB) {
	t.Helper()
	database := testutil.NewTestDB(t)
	return NewService(database, nil), database
}

func createParams(facilityID, residentID int64) CreateParams {
	return CreateParams{
		ResidentID: residentID,
		FacilityID: facilityID,
		Date:       time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
		StartTime:  "10:00",
		EndTime:    "11:00",
		Attendees:  2,
		Purpose:    "tennis",
	}
}

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	var reqErr apiutil.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	return reqErr.Reason
}

func staffContext(staff dbq.Staff) context.Context {
	return authz.ContextWithUser(context.Background(), &authz.AuthUser{
		UserID:  staff.UserID,
		Role:    authz.RoleStaff,
		StaffID: staff.ID,
		IsAdmin: staff.IsAdmin,
	})
}

func TestCreateRejectsOverlap(t *testing.T) {
	svc, database := newTestService(t)
	facility := testutil.SeedFacility(t, database, 10)
	resident := testutil.SeedResident(t, database)
	ctx := context.Background()

	if _, err := svc.Create(ctx, createParams(facility.ID, resident.ID)); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	overlapping := createParams(facility.ID, resident.ID)
	overlapping.StartTime = "10:30"
	overlapping.EndTime = "11:30"
	_, err := svc.Create(ctx, overlapping)
	if got := reasonOf(t, err); got != apiutil.ReasonTimeConflict {
		t.Errorf("reason = %q, want %q", got, apiutil.ReasonTimeConflict)
	}
}

func TestCreateAllowsAbuttingSlots(t *testing.T) {
	svc, database := newTestService(t)
	facility := testutil.SeedFacility(t, database, 10)
	resident := testutil.SeedResident(t, database)
	ctx := context.Background()

	if _, err := svc.Create(ctx, createParams(facility.ID, resident.ID)); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	abutting := createParams(facility.ID, resident.ID)
	abutting.StartTime = "11:00"
	abutting.EndTime = "12:00"
	if _, err := svc.Create(ctx, abutting); err != nil {
		t.Errorf("abutting booking rejected: %v", err)
	}
}

func TestCreateIgnoresCancelledAndRejected(t *testing.T) {
	svc, database := newTestService(t)
	facility := testutil.SeedFacility(t, database, 10)
	resident := testutil.SeedResident(t, database)
	ctx := context.Background()

	first, err := svc.Create(ctx, createParams(facility.ID, resident.ID))
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := svc.CancelOwn(ctx, first.ID, resident.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	same := createParams(facility.ID, resident.ID)
	if _, err := svc.Create(ctx, same); err != nil {
		t.Errorf("cancelled booking still blocks the slot: %v", err)
	}
}

func TestCreateRejectsCapacityExceeded(t *testing.T) {
	svc, database := newTestService(t)
	facility := testutil.SeedFacility(t, database, 4)
	resident := testutil.SeedResident(t, database)

	params := createParams(facility.ID, resident.ID)
	params.Attendees = 5
	_, err := svc.Create(context.Background(), params)
	if got := reasonOf(t, err); got != apiutil.ReasonCapacityExceeded {
		t.Errorf("reason = %q, want %q", got, apiutil.ReasonCapacityExceeded)
	}
}

func TestCreateRejectsClosedFacility(t *testing.T) {
	svc, database := newTestService(t)
	facility := testutil.SeedFacility(t, database, 10)
	resident := testutil.SeedResident(t, database)
	ctx := context.Background()

	if _, err := database.Queries.UpdateFacility(ctx, dbq.UpdateFacilityParams{
		ID: facility.ID, Name: facility.Name, Description: facility.Description,
		Capacity: facility.Capacity, Status: "maintenance",
		OpenTime: facility.OpenTime, CloseTime: facility.CloseTime,
	}); err != nil {
		t.Fatalf("close facility: %v", err)
	}

	_, err := svc.Create(ctx, createParams(facility.ID, resident.ID))
	if got := reasonOf(t, err); got != apiutil.ReasonFacilityNotOpen {
		t.Errorf("reason = %q, want %q", got, apiutil.ReasonFacilityNotOpen)
	}
}

func TestCreateRejectsOutsideOperatingHours(t *testing.T) {
	svc, database := newTestService(t)
	facility := testutil.SeedFacility(t, database, 10)
	resident := testutil.SeedResident(t, database)

	params := createParams(facility.ID, resident.ID)
	params.StartTime = "05:00"
	params.EndTime = "07:00"
	_, err := svc.Create(context.Background(), params)
	if got := reasonOf(t, err); got != apiutil.ReasonOutsideHours {
		t.Errorf("reason = %q, want %q", got, apiutil.ReasonOutsideHours)
	}
}

func TestCreateUnknownFacility(t *testing.T) {
	svc, database := newTestService(t)
	resident := testutil.SeedResident(t, database)

	_, err := svc.Create(context.Background(), createParams(9999, resident.ID))
	if got := reasonOf(t, err); got != apiutil.ReasonNotFound {
		t.Errorf("reason = %q, want %q", got, apiutil.ReasonNotFound)
	}
}

func TestConcurrentCreateAdmitsExactlyOne(t *testing.T) {
	svc, database := newTestService(t)
	facility := testutil.SeedFacility(t, database, 10)
	resident := testutil.SeedResident(t, database)

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Create(context.Background(), createParams(facility.ID, resident.ID))
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range results {
		if err == nil {
			successes++
		} else if got := reasonOf(t, err); got != apiutil.ReasonTimeConflict {
			t.Errorf("unexpected reason %q", got)
		}
	}
	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
}

func TestDecideStampsApproval(t *testing.T) {
	svc, database := newTestService(t)
	facility := testutil.SeedFacility(t, database, 10)
	resident := testutil.SeedResident(t, database)
	admin := testutil.SeedStaff(t, database, true)

	created, err := svc.Create(context.Background(), createParams(facility.ID, resident.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ctx := staffContext(admin)
	updated, err := svc.Decide(ctx, DecideParams{
		BookingID: created.ID,
		Status:    StatusApproved,
		Actor:     authz.UserFromContext(ctx),
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if updated.Status != StatusApproved {
		t.Errorf("status = %q, want approved", updated.Status)
	}
	if !updated.ApprovedBy.Valid || updated.ApprovedBy.Int64 != admin.ID {
		t.Errorf("approved_by = %+v, want %d", updated.ApprovedBy, admin.ID)
	}
	if !updated.ApprovalDate.Valid {
		t.Error("approval_date not stamped")
	}
}

func TestDecideRequiresFacilityScope(t *testing.T) {
	svc, database := newTestService(t)
	facility := testutil.SeedFacility(t, database, 10)
	other := testutil.SeedFacility(t, database, 10)
	resident := testutil.SeedResident(t, database)
	staff := testutil.SeedStaff(t, database, false)
	testutil.AssignStaff(t, database, staff.ID, other.ID)

	created, err := svc.Create(context.Background(), createParams(facility.ID, resident.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ctx := staffContext(staff)
	_, err = svc.Decide(ctx, DecideParams{
		BookingID: created.ID,
		Status:    StatusApproved,
		Actor:     authz.UserFromContext(ctx),
	})
	if !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestCancelledIsTerminal(t *testing.T) {
	svc, database := newTestService(t)
	facility := testutil.SeedFacility(t, database, 10)
	resident := testutil.SeedResident(t, database)
	admin := testutil.SeedStaff(t, database, true)
	ctx := context.Background()

	created, err := svc.Create(ctx, createParams(facility.ID, resident.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CancelOwn(ctx, created.ID, resident.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	staffCtx := staffContext(admin)
	_, err = svc.Decide(staffCtx, DecideParams{
		BookingID: created.ID,
		Status:    StatusApproved,
		Actor:     authz.UserFromContext(staffCtx),
	})
	if got := reasonOf(t, err); got != apiutil.ReasonInvalidTransition {
		t.Errorf("reason = %q, want %q", got, apiutil.ReasonInvalidTransition)
	}
}

func TestCancelTwiceRejected(t *testing.T) {
	svc, database := newTestService(t)
	facility := testutil.SeedFacility(t, database, 10)
	resident := testutil.SeedResident(t, database)
	ctx := context.Background()

	created, err := svc.Create(ctx, createParams(facility.ID, resident.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CancelOwn(ctx, created.ID, resident.ID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}

	_, err = svc.CancelOwn(ctx, created.ID, resident.ID)
	if got := reasonOf(t, err); got != apiutil.ReasonAlreadyCancelled {
		t.Errorf("reason = %q, want %q", got, apiutil.ReasonAlreadyCancelled)
	}
}

func TestCancelRequiresOwner(t *testing.T) {
	svc, database := newTestService(t)
	facility := testutil.SeedFacility(t, database, 10)
	owner := testutil.SeedResident(t, database)
	intruder := testutil.SeedResident(t, database)
	ctx := context.Background()

	created, err := svc.Create(ctx, createParams(facility.ID, owner.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.CancelOwn(ctx, created.ID, intruder.ID)
	if got := reasonOf(t, err); got != apiutil.ReasonForbidden {
		t.Errorf("reason = %q, want %q", got, apiutil.ReasonForbidden)
	}
}

func TestListEmptyScopeSucceeds(t *testing.T) {
	svc, database := newTestService(t)
	facility := testutil.SeedFacility(t, database, 10)
	resident := testutil.SeedResident(t, database)
	staff := testutil.SeedStaff(t, database, false)
	ctx := context.Background()

	if _, err := svc.Create(ctx, createParams(facility.ID, resident.ID)); err != nil {
		t.Fatalf("create: %v", err)
	}

	user := &authz.AuthUser{UserID: staff.UserID, Role: authz.RoleStaff, StaffID: staff.ID}
	bookings, err := svc.List(authz.ContextWithUser(ctx, user), user)
	if err != nil {
		t.Fatalf("list with empty scope: %v", err)
	}
	if len(bookings) != 0 {
		t.Errorf("len = %d, want 0", len(bookings))
	}
}

func TestListScopedToAssignments(t *testing.T) {
	svc, database := newTestService(t)
	assigned := testutil.SeedFacility(t, database, 10)
	unassigned := testutil.SeedFacility(t, database, 10)
	resident := testutil.SeedResident(t, database)
	staff := testutil.SeedStaff(t, database, false)
	testutil.AssignStaff(t, database, staff.ID, assigned.ID)
	ctx := context.Background()

	if _, err := svc.Create(ctx, createParams(assigned.ID, resident.ID)); err != nil {
		t.Fatalf("create: %v", err)
	}
	other := createParams(unassigned.ID, resident.ID)
	other.StartTime = "14:00"
	other.EndTime = "15:00"
	if _, err := svc.Create(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}

	user := &authz.AuthUser{UserID: staff.UserID, Role: authz.RoleStaff, StaffID: staff.ID}
	bookings, err := svc.List(authz.ContextWithUser(ctx, user), user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bookings) != 1 {
		t.Fatalf("len = %d, want 1", len(bookings))
	}
	if bookings[0].FacilityID != assigned.ID {
		t.Errorf("facility_id = %d, want %d", bookings[0].FacilityID, assigned.ID)
	}
}

func TestResidentSeesOnlyOwnBookings(t *testing.T) {
	svc, database := newTestService(t)
	facility := testutil.SeedFacility(t, database, 10)
	alice := testutil.SeedResident(t, database)
	bob := testutil.SeedResident(t, database)
	ctx := context.Background()

	if _, err := svc.Create(ctx, createParams(facility.ID, alice.ID)); err != nil {
		t.Fatalf("create: %v", err)
	}
	bobParams := createParams(facility.ID, bob.ID)
	bobParams.StartTime = "12:00"
	bobParams.EndTime = "13:00"
	if _, err := svc.Create(ctx, bobParams); err != nil {
		t.Fatalf("create: %v", err)
	}

	user := &authz.AuthUser{UserID: alice.UserID, Role: authz.RoleResident, ResidentID: alice.ID}
	bookings, err := svc.List(ctx, user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bookings) != 1 || bookings[0].ResidentID != alice.ID {
		t.Errorf("expected only alice's booking, got %+v", bookings)
	}
}
