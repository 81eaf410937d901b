package maintenance

import (
	"context"
	"errors"
	"testing"

	"github.com/kgrigsby59/courtly/internal/api/apiutil"
	"github.com/kgrigsby59/courtly/internal/api/authz"
	"github.com/kgrigsby59/courtly/internal/db"
	dbq "github.com/kgrigsby59/courtly/internal/db/queries"
	"github.com/kgrigsby59/courtly/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *db.DB) {
	t.Helper()
	database := testutil.NewTestDB(t)
	return NewService(database), database
}

func residentUser(r dbq.Resident) *authz.AuthUser {
	return &authz.AuthUser{UserID: r.UserID, Role: authz.RoleResident, ResidentID: r.ID}
}

func staffUser(s dbq.Staff) *authz.AuthUser {
	return &authz.AuthUser{UserID: s.UserID, Role: authz.RoleStaff, StaffID: s.ID, IsAdmin: s.IsAdmin}
}

func seedReport(t *testing.T, svc *Service, database *db.DB, priority string) (dbq.MaintenanceReport, dbq.Resident, dbq.Facility) {
	t.Helper()
	facility := testutil.SeedFacility(t, database, 10)
	resident := testutil.SeedResident(t, database)

	report, err := svc.Create(context.Background(), CreateParams{
		FacilityID:  facility.ID,
		Title:       "Broken net",
		Description: "The net is torn",
		Priority:    priority,
		Reporter:    residentUser(resident),
	})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	return report, resident, facility
}

func TestCreateRecordsResidentReporter(t *testing.T) {
	svc, database := newTestService(t)
	report, resident, _ := seedReport(t, svc, database, "high")

	if !report.ReportedByResident.Valid || report.ReportedByResident.Int64 != resident.ID {
		t.Errorf("reported_by_resident = %+v, want %d", report.ReportedByResident, resident.ID)
	}
	if report.ReportedByStaff.Valid {
		t.Error("reported_by_staff should be null for resident reports")
	}
	if report.Status != StatusReported {
		t.Errorf("status = %q, want reported", report.Status)
	}
}

func TestCreateRecordsStaffReporter(t *testing.T) {
	svc, database := newTestService(t)
	facility := testutil.SeedFacility(t, database, 10)
	staff := testutil.SeedStaff(t, database, false)

	report, err := svc.Create(context.Background(), CreateParams{
		FacilityID: facility.ID,
		Title:      "Flickering lights",
		Priority:   "low",
		Reporter:   staffUser(staff),
	})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	if !report.ReportedByStaff.Valid || report.ReportedByStaff.Int64 != staff.ID {
		t.Errorf("reported_by_staff = %+v, want %d", report.ReportedByStaff, staff.ID)
	}
	if report.ReportedByResident.Valid {
		t.Error("reported_by_resident should be null for staff reports")
	}
}

func TestUpdateStampsCompletionDate(t *testing.T) {
	svc, database := newTestService(t)
	report, _, _ := seedReport(t, svc, database, "medium")
	admin := testutil.SeedStaff(t, database, true)
	ctx := authz.ContextWithUser(context.Background(), staffUser(admin))

	updated, err := svc.Update(ctx, UpdateParams{
		ReportID: report.ID,
		Status:   StatusCompleted,
		Actor:    staffUser(admin),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.CompletionDate.Valid {
		t.Fatal("completion_date not stamped")
	}

	reopened, err := svc.Update(ctx, UpdateParams{
		ReportID: report.ID,
		Status:   StatusInProgress,
		Actor:    staffUser(admin),
	})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.CompletionDate.Valid {
		t.Error("completion_date should clear when leaving completed")
	}
}

func TestUpdateValidatesAssignee(t *testing.T) {
	svc, database := newTestService(t)
	report, _, _ := seedReport(t, svc, database, "medium")
	admin := testutil.SeedStaff(t, database, true)
	ctx := authz.ContextWithUser(context.Background(), staffUser(admin))

	missing := int64(9999)
	_, err := svc.Update(ctx, UpdateParams{
		ReportID:   report.ID,
		Status:     StatusInProgress,
		AssignedTo: &missing,
		Actor:      staffUser(admin),
	})
	var reqErr apiutil.RequestError
	if !errors.As(err, &reqErr) || reqErr.Reason != apiutil.ReasonNotFound {
		t.Errorf("expected not found for unknown assignee, got %v", err)
	}

	_, err = svc.Update(ctx, UpdateParams{
		ReportID:   report.ID,
		Status:     StatusScheduled,
		AssignedTo: &admin.ID,
		Actor:      staffUser(admin),
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
}

func TestUpdatePreservesFieldsWhenAbsent(t *testing.T) {
	svc, database := newTestService(t)
	report, _, _ := seedReport(t, svc, database, "medium")
	admin := testutil.SeedStaff(t, database, true)
	ctx := authz.ContextWithUser(context.Background(), staffUser(admin))

	scheduled := "2026-09-15"
	feedback := "parts ordered"
	updated, err := svc.Update(ctx, UpdateParams{
		ReportID:      report.ID,
		Status:        StatusScheduled,
		ScheduledDate: &scheduled,
		Feedback:      &feedback,
		Actor:         staffUser(admin),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.ScheduledDate.Valid || updated.ScheduledDate.String != scheduled {
		t.Errorf("scheduled_date = %+v", updated.ScheduledDate)
	}

	// A later update without those fields keeps them.
	again, err := svc.Update(ctx, UpdateParams{
		ReportID: report.ID,
		Status:   StatusInProgress,
		Actor:    staffUser(admin),
	})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if !again.ScheduledDate.Valid || again.ScheduledDate.String != scheduled {
		t.Errorf("scheduled_date lost: %+v", again.ScheduledDate)
	}
	if !again.Feedback.Valid || again.Feedback.String != feedback {
		t.Errorf("feedback lost: %+v", again.Feedback)
	}
}

func TestUpdateRejectsBadStatus(t *testing.T) {
	svc, database := newTestService(t)
	report, _, _ := seedReport(t, svc, database, "medium")
	admin := testutil.SeedStaff(t, database, true)
	ctx := authz.ContextWithUser(context.Background(), staffUser(admin))

	_, err := svc.Update(ctx, UpdateParams{
		ReportID: report.ID,
		Status:   "done",
		Actor:    staffUser(admin),
	})
	var fieldErr apiutil.FieldError
	if !errors.As(err, &fieldErr) {
		t.Errorf("expected FieldError, got %v", err)
	}
}

func TestListScopedForStaff(t *testing.T) {
	svc, database := newTestService(t)
	report, _, facility := seedReport(t, svc, database, "medium")
	otherFacility := testutil.SeedFacility(t, database, 10)
	otherResident := testutil.SeedResident(t, database)
	if _, err := svc.Create(context.Background(), CreateParams{
		FacilityID: otherFacility.ID,
		Title:      "Leaky roof",
		Priority:   "high",
		Reporter:   residentUser(otherResident),
	}); err != nil {
		t.Fatalf("create second report: %v", err)
	}

	staff := testutil.SeedStaff(t, database, false)
	testutil.AssignStaff(t, database, staff.ID, facility.ID)

	user := staffUser(staff)
	reports, err := svc.List(authz.ContextWithUser(context.Background(), user), user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != report.ID {
		t.Errorf("expected only the assigned facility's report, got %+v", reports)
	}
}

func TestListEmptyScopeSucceeds(t *testing.T) {
	svc, database := newTestService(t)
	seedReport(t, svc, database, "medium")
	staff := testutil.SeedStaff(t, database, false)

	user := staffUser(staff)
	reports, err := svc.List(authz.ContextWithUser(context.Background(), user), user)
	if err != nil {
		t.Fatalf("list with empty scope: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("len = %d, want 0", len(reports))
	}
}

func TestResidentSeesOwnReports(t *testing.T) {
	svc, database := newTestService(t)
	report, resident, _ := seedReport(t, svc, database, "medium")
	seedReport(t, svc, database, "low")

	reports, err := svc.List(context.Background(), residentUser(resident))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != report.ID {
		t.Errorf("expected only own report, got %+v", reports)
	}
}
