// Package booking validates and persists facility bookings: conflict and
// capacity checking on create, staff decisions, and resident cancellation.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kgrigsby59/courtly/internal/api/apiutil"
	"github.com/kgrigsby59/courtly/internal/api/authz"
	appdb "github.com/kgrigsby59/courtly/internal/db"
	dbq "github.com/kgrigsby59/courtly/internal/db/queries"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// Notifier delivers booking decision notifications. Implementations must not
// fail the surrounding request.
type Notifier interface {
	BookingDecided(ctx context.Context, booking dbq.Booking, facilityName string)
}

type Service struct {
	db       *appdb.DB
	notifier Notifier

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewService(database *appdb.DB, notifier Notifier) *Service {
	return &Service{
		db:       database,
		notifier: notifier,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// facilityLock serializes booking writes per facility so the conflict check
// and the insert commit as one unit even under concurrent requests.
func (s *Service) facilityLock(facilityID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[facilityID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[facilityID] = lock
	}
	return lock
}

type CreateParams struct {
	ResidentID int64
	FacilityID int64
	Date       string
	StartTime  string
	EndTime    string
	Attendees  int64
	Purpose    string
}

// Create runs the admissibility checks in order, short-circuiting on the
// first failure, and persists the booking as pending. The whole
// check-then-insert sequence holds the facility lock and runs in one
// transaction.
func (s *Service) Create(ctx context.Context, arg CreateParams) (dbq.Booking, error) {
	lock := s.facilityLock(arg.FacilityID)
	lock.Lock()
	defer lock.Unlock()

	var created dbq.Booking
	err := s.db.RunInTx(ctx, func(txdb *appdb.DB) error {
		q := txdb.Queries

		facility, err := q.GetFacility(ctx, arg.FacilityID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apiutil.NotFound("Facility not found")
			}
			return apiutil.Internal("Failed to load facility", err)
		}

		if err := checkAdmissible(facility, arg); err != nil {
			return err
		}

		count, err := q.CountOverlappingBookings(ctx, dbq.CountOverlappingBookingsParams{
			FacilityID: arg.FacilityID,
			Date:       arg.Date,
			StartTime:  arg.StartTime,
			EndTime:    arg.EndTime,
		})
		if err != nil {
			return apiutil.Internal("Failed to check booking conflicts", err)
		}
		if count > 0 {
			return apiutil.Conflict(apiutil.ReasonTimeConflict,
				"Requested time overlaps an existing booking")
		}

		created, err = q.CreateBooking(ctx, dbq.CreateBookingParams{
			FacilityID: arg.FacilityID,
			ResidentID: arg.ResidentID,
			Date:       arg.Date,
			StartTime:  arg.StartTime,
			EndTime:    arg.EndTime,
			Attendees:  arg.Attendees,
			Purpose:    arg.Purpose,
		})
		if err != nil {
			return apiutil.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		return dbq.Booking{}, err
	}
	return created, nil
}

// checkAdmissible applies the non-conflict admissibility rules against the
// loaded facility row.
func checkAdmissible(facility dbq.Facility, arg CreateParams) error {
	if facility.Status != "open" {
		return apiutil.Conflict(apiutil.ReasonFacilityNotOpen,
			fmt.Sprintf("Facility is %s and cannot accept bookings", facility.Status))
	}
	if arg.Attendees > facility.Capacity {
		return apiutil.Conflict(apiutil.ReasonCapacityExceeded,
			fmt.Sprintf("Facility capacity is %d", facility.Capacity))
	}
	if arg.StartTime < facility.OpenTime || arg.EndTime > facility.CloseTime {
		return apiutil.Conflict(apiutil.ReasonOutsideHours,
			fmt.Sprintf("Facility is open %s to %s", facility.OpenTime, facility.CloseTime))
	}
	return nil
}

type DecideParams struct {
	BookingID int64
	Status    string
	Actor     *authz.AuthUser
}

// Decide applies a staff status change. Approving or rejecting stamps the
// acting staff member and the decision time. Cancelled is terminal: nothing
// transitions out of it.
func (s *Service) Decide(ctx context.Context, arg DecideParams) (dbq.Booking, error) {
	if !validStatus(arg.Status) {
		return dbq.Booking{}, apiutil.FieldError{Field: "status", Reason: "must be one of pending, approved, rejected, cancelled"}
	}

	q := s.db.Queries
	booking, err := q.GetBooking(ctx, arg.BookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbq.Booking{}, apiutil.NotFound("Booking not found")
		}
		return dbq.Booking{}, apiutil.Internal("Failed to load booking", err)
	}

	if err := authz.RequireFacilityAccess(ctx, q, booking.FacilityID); err != nil {
		return dbq.Booking{}, err
	}

	if booking.Status == StatusCancelled && arg.Status != StatusCancelled {
		return dbq.Booking{}, apiutil.Conflict(apiutil.ReasonInvalidTransition,
			"Cancelled bookings cannot change status")
	}

	params := dbq.UpdateBookingStatusParams{
		ID:     arg.BookingID,
		Status: arg.Status,
	}
	if arg.Status == StatusApproved || arg.Status == StatusRejected {
		params.ApprovedBy = sql.NullInt64{Int64: arg.Actor.StaffID, Valid: true}
		params.ApprovalDate = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	} else {
		params.ApprovedBy = booking.ApprovedBy
		params.ApprovalDate = booking.ApprovalDate
	}

	updated, err := q.UpdateBookingStatus(ctx, params)
	if err != nil {
		return dbq.Booking{}, apiutil.Internal("Failed to update booking status", err)
	}

	if s.notifier != nil && (arg.Status == StatusApproved || arg.Status == StatusRejected) {
		facilityName := ""
		if facility, err := q.GetFacility(ctx, updated.FacilityID); err == nil {
			facilityName = facility.Name
		} else {
			log.Ctx(ctx).Warn().Err(err).Int64("facility_id", updated.FacilityID).
				Msg("Failed to load facility name for notification")
		}
		s.notifier.BookingDecided(ctx, updated, facilityName)
	}
	return updated, nil
}

// CancelOwn is the resident-initiated one-way transition to cancelled.
// Cancelling twice is rejected, never silently accepted.
func (s *Service) CancelOwn(ctx context.Context, bookingID, residentID int64) (dbq.Booking, error) {
	q := s.db.Queries
	booking, err := q.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbq.Booking{}, apiutil.NotFound("Booking not found")
		}
		return dbq.Booking{}, apiutil.Internal("Failed to load booking", err)
	}

	if booking.ResidentID != residentID {
		return dbq.Booking{}, apiutil.Forbidden("Only the booking owner may cancel it")
	}
	if booking.Status == StatusCancelled {
		return dbq.Booking{}, apiutil.Conflict(apiutil.ReasonAlreadyCancelled,
			"Booking is already cancelled")
	}

	updated, err := q.UpdateBookingStatus(ctx, dbq.UpdateBookingStatusParams{
		ID:           bookingID,
		Status:       StatusCancelled,
		ApprovedBy:   booking.ApprovedBy,
		ApprovalDate: booking.ApprovalDate,
	})
	if err != nil {
		return dbq.Booking{}, apiutil.Internal("Failed to cancel booking", err)
	}
	return updated, nil
}

// List returns the bookings visible to the user: residents see their own,
// admins see everything from today onward, and other staff see only their
// assigned facilities. An empty assignment set yields an empty list, not an
// error.
func (s *Service) List(ctx context.Context, user *authz.AuthUser) ([]dbq.Booking, error) {
	q := s.db.Queries

	if authz.IsResident(user) {
		bookings, err := q.ListBookingsForResident(ctx, user.ResidentID)
		if err != nil {
			return nil, apiutil.Internal("Failed to list bookings", err)
		}
		return bookings, nil
	}

	scope, err := authz.ScopedFacilityIDs(ctx, q, user)
	if err != nil {
		if errors.Is(err, authz.ErrUnauthenticated) || errors.Is(err, authz.ErrForbidden) {
			return nil, err
		}
		return nil, apiutil.Internal("Failed to resolve facility scope", err)
	}
	if scope.Empty() {
		return []dbq.Booking{}, nil
	}

	if scope.All {
		bookings, err := q.ListBookingsFromDate(ctx, apiutil.Today())
		if err != nil {
			return nil, apiutil.Internal("Failed to list bookings", err)
		}
		return bookings, nil
	}

	bookings, err := q.ListBookingsForFacilities(ctx, dbq.ListBookingsForFacilitiesParams{
		FacilityIDs: scope.FacilityIDs,
		FromDate:    apiutil.Today(),
	})
	if err != nil {
		return nil, apiutil.Internal("Failed to list bookings", err)
	}
	return bookings, nil
}

// Get loads a single booking, enforcing owner access for residents and scope
// access for staff.
func (s *Service) Get(ctx context.Context, user *authz.AuthUser, bookingID int64) (dbq.Booking, error) {
	q := s.db.Queries
	booking, err := q.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbq.Booking{}, apiutil.NotFound("Booking not found")
		}
		return dbq.Booking{}, apiutil.Internal("Failed to load booking", err)
	}

	if authz.IsResident(user) {
		if booking.ResidentID != user.ResidentID {
			return dbq.Booking{}, apiutil.Forbidden("Access denied")
		}
		return booking, nil
	}

	if err := authz.RequireFacilityAccess(ctx, q, booking.FacilityID); err != nil {
		return dbq.Booking{}, err
	}
	return booking, nil
}

func validStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}
