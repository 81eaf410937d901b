// Package maintenance manages facility maintenance reports and their status
// lifecycle.
package maintenance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kgrigsby59/courtly/internal/api/apiutil"
	"github.com/kgrigsby59/courtly/internal/api/authz"
	appdb "github.com/kgrigsby59/courtly/internal/db"
	dbq "github.com/kgrigsby59/courtly/internal/db/queries"
)

const (
	StatusReported   = "reported"
	StatusInProgress = "in-progress"
	StatusScheduled  = "scheduled"
	StatusCompleted  = "completed"
)

type Service struct {
	db *appdb.DB
}

func NewService(database *appdb.DB) *Service {
	return &Service{db: database}
}

type CreateParams struct {
	FacilityID  int64
	Title       string
	Description string
	Priority    string
	Reporter    *authz.AuthUser
}

// Create records a new report. The reporter column is resident XOR staff,
// taken from the acting user's role.
func (s *Service) Create(ctx context.Context, arg CreateParams) (dbq.MaintenanceReport, error) {
	q := s.db.Queries

	count, err := q.FacilityExists(ctx, arg.FacilityID)
	if err != nil {
		return dbq.MaintenanceReport{}, apiutil.Internal("Failed to validate facility", err)
	}
	if count == 0 {
		return dbq.MaintenanceReport{}, apiutil.NotFound("Facility not found")
	}

	params := dbq.CreateMaintenanceReportParams{
		FacilityID:  arg.FacilityID,
		Title:       arg.Title,
		Description: arg.Description,
		Priority:    arg.Priority,
	}
	switch {
	case authz.IsResident(arg.Reporter):
		params.ReportedByResident = sql.NullInt64{Int64: arg.Reporter.ResidentID, Valid: true}
	case authz.IsStaff(arg.Reporter):
		params.ReportedByStaff = sql.NullInt64{Int64: arg.Reporter.StaffID, Valid: true}
	default:
		return dbq.MaintenanceReport{}, authz.ErrUnauthenticated
	}

	report, err := q.CreateMaintenanceReport(ctx, params)
	if err != nil {
		return dbq.MaintenanceReport{}, apiutil.Internal("Failed to create maintenance report", err)
	}
	return report, nil
}

type UpdateParams struct {
	ReportID      int64
	Status        string
	AssignedTo    *int64
	ScheduledDate *string
	Feedback      *string
	Actor         *authz.AuthUser
}

// Update applies a staff status change. Statuses move freely among the four
// values; entering completed stamps completion_date and leaving it clears the
// stamp. assigned_to must reference an existing staff row. scheduled_date and
// feedback pass through only when present in the request.
func (s *Service) Update(ctx context.Context, arg UpdateParams) (dbq.MaintenanceReport, error) {
	if !validStatus(arg.Status) {
		return dbq.MaintenanceReport{}, apiutil.FieldError{
			Field: "status", Reason: "must be one of reported, in-progress, scheduled, completed"}
	}

	q := s.db.Queries
	report, err := q.GetMaintenanceReport(ctx, arg.ReportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbq.MaintenanceReport{}, apiutil.NotFound("Maintenance report not found")
		}
		return dbq.MaintenanceReport{}, apiutil.Internal("Failed to load maintenance report", err)
	}

	scope, err := authz.ScopedFacilityIDs(ctx, q, arg.Actor)
	if err != nil {
		if errors.Is(err, authz.ErrUnauthenticated) || errors.Is(err, authz.ErrForbidden) {
			return dbq.MaintenanceReport{}, err
		}
		return dbq.MaintenanceReport{}, apiutil.Internal("Failed to resolve facility scope", err)
	}
	if !scope.Contains(report.FacilityID) {
		return dbq.MaintenanceReport{}, authz.ErrForbidden
	}

	assignedTo := report.AssignedTo
	if arg.AssignedTo != nil {
		count, err := q.StaffExists(ctx, *arg.AssignedTo)
		if err != nil {
			return dbq.MaintenanceReport{}, apiutil.Internal("Failed to validate staff assignment", err)
		}
		if count == 0 {
			return dbq.MaintenanceReport{}, apiutil.NotFound("Assigned staff member not found")
		}
		assignedTo = sql.NullInt64{Int64: *arg.AssignedTo, Valid: true}
	}

	completionDate := report.CompletionDate
	switch {
	case arg.Status == StatusCompleted && report.Status != StatusCompleted:
		completionDate = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	case arg.Status != StatusCompleted:
		completionDate = sql.NullTime{}
	}

	scheduledDate := report.ScheduledDate
	if arg.ScheduledDate != nil {
		scheduledDate = sql.NullString{String: *arg.ScheduledDate, Valid: true}
	}
	feedback := report.Feedback
	if arg.Feedback != nil {
		feedback = sql.NullString{String: *arg.Feedback, Valid: true}
	}

	updated, err := q.UpdateMaintenanceReport(ctx, dbq.UpdateMaintenanceReportParams{
		ID:             arg.ReportID,
		Status:         arg.Status,
		AssignedTo:     assignedTo,
		ScheduledDate:  scheduledDate,
		CompletionDate: completionDate,
		Feedback:       feedback,
	})
	if err != nil {
		return dbq.MaintenanceReport{}, apiutil.Internal("Failed to update maintenance report", err)
	}
	return updated, nil
}

// List returns reports visible to the user: residents see their own reports,
// admins see everything, other staff see their assigned facilities. An empty
// assignment set yields an empty list.
func (s *Service) List(ctx context.Context, user *authz.AuthUser) ([]dbq.MaintenanceReport, error) {
	q := s.db.Queries

	if authz.IsResident(user) {
		reports, err := q.ListMaintenanceReportsForResident(ctx, user.ResidentID)
		if err != nil {
			return nil, apiutil.Internal("Failed to list maintenance reports", err)
		}
		return reports, nil
	}

	scope, err := authz.ScopedFacilityIDs(ctx, q, user)
	if err != nil {
		if errors.Is(err, authz.ErrUnauthenticated) || errors.Is(err, authz.ErrForbidden) {
			return nil, err
		}
		return nil, apiutil.Internal("Failed to resolve facility scope", err)
	}
	if scope.Empty() {
		return []dbq.MaintenanceReport{}, nil
	}

	if scope.All {
		reports, err := q.ListMaintenanceReports(ctx)
		if err != nil {
			return nil, apiutil.Internal("Failed to list maintenance reports", err)
		}
		return reports, nil
	}

	reports, err := q.ListMaintenanceReportsForFacilities(ctx, scope.FacilityIDs)
	if err != nil {
		return nil, apiutil.Internal("Failed to list maintenance reports", err)
	}
	return reports, nil
}

func validStatus(status string) bool {
	switch status {
	case StatusReported, StatusInProgress, StatusScheduled, StatusCompleted:
		return true
	}
	return false
}

// ValidPriority reports whether the value is an accepted priority level.
func ValidPriority(priority string) bool {
	switch priority {
	case "low", "medium", "high", "critical":
		return true
	}
	return false
}
