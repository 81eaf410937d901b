// Package bookings exposes the booking workflow over HTTP.
package bookings

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kgrigsby59/courtly/internal/api/apiutil"
	"github.com/kgrigsby59/courtly/internal/api/authz"
	"github.com/kgrigsby59/courtly/internal/booking"
	"github.com/kgrigsby59/courtly/internal/crypto"
	appdb "github.com/kgrigsby59/courtly/internal/db"
	dbq "github.com/kgrigsby59/courtly/internal/db/queries"
)

type Handler struct {
	db    *appdb.DB
	svc   *booking.Service
	codec *crypto.Codec
}

func NewHandler(database *appdb.DB, svc *booking.Service, codec *crypto.Codec) *Handler {
	return &Handler{db: database, svc: svc, codec: codec}
}

// bookingView flattens the booking row with the facility name and the
// decrypted resident name. Decryption failures degrade the name to null.
type bookingView struct {
	dbq.Booking
	FacilityName      string  `json:"facility_name"`
	ResidentFirstName *string `json:"resident_first_name"`
	ResidentLastName  *string `json:"resident_last_name"`
}

func (h *Handler) toView(r *http.Request, b dbq.Booking) bookingView {
	ctx := r.Context()
	logger := log.Ctx(ctx)
	view := bookingView{Booking: b}

	if facility, err := h.db.Queries.GetFacility(ctx, b.FacilityID); err == nil {
		view.FacilityName = facility.Name
	} else {
		logger.Warn().Err(err).Int64("facility_id", b.FacilityID).Msg("Failed to load facility for booking payload")
	}

	resident, err := h.db.Queries.GetResidentByID(ctx, b.ResidentID)
	if err != nil {
		logger.Warn().Err(err).Int64("resident_id", b.ResidentID).Msg("Failed to load resident for booking payload")
		return view
	}
	view.ResidentFirstName = h.codec.DecryptOrNil(logger, "first_name", resident.FirstName)
	view.ResidentLastName = h.codec.DecryptOrNil(logger, "last_name", resident.LastName)
	return view
}

func (h *Handler) toViews(r *http.Request, bookings []dbq.Booking) []bookingView {
	views := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, h.toView(r, b))
	}
	return views
}

type createRequest struct {
	FacilityID int64  `json:"facility_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Attendees  int64  `json:"attendees"`
	Purpose    string `json:"purpose"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, err := authz.RequireResident(r.Context())
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, apiutil.Invalid("Invalid request body"))
		return
	}

	if req.FacilityID <= 0 {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "facility_id", Reason: "must be greater than 0"})
		return
	}
	date, err := apiutil.ParseDate(req.Date, "date")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	startTime, err := apiutil.ParseClock(req.StartTime, "start_time")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	endTime, err := apiutil.ParseClock(req.EndTime, "end_time")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	if startTime >= endTime {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "end_time", Reason: "must be after start_time"})
		return
	}
	if req.Attendees < 1 {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "attendees", Reason: "must be at least 1"})
		return
	}

	created, err := h.svc.Create(r.Context(), booking.CreateParams{
		ResidentID: user.ResidentID,
		FacilityID: req.FacilityID,
		Date:       date,
		StartTime:  startTime,
		EndTime:    endTime,
		Attendees:  req.Attendees,
		Purpose:    strings.TrimSpace(req.Purpose),
	})
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondCreated(w, "Booking created", h.toView(r, created))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := authz.UserFromContext(r.Context())
	if user == nil {
		apiutil.RespondError(w, r, authz.ErrUnauthenticated)
		return
	}

	bookings, err := h.svc.List(r.Context(), user)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondOK(w, "Bookings retrieved", h.toViews(r, bookings))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := authz.UserFromContext(r.Context())
	if user == nil {
		apiutil.RespondError(w, r, authz.ErrUnauthenticated)
		return
	}

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	found, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondOK(w, "Booking retrieved", h.toView(r, found))
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateStatus is the staff decision endpoint.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, err := authz.RequireStaff(r.Context())
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	var req statusRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, apiutil.Invalid("Invalid request body"))
		return
	}

	updated, err := h.svc.Decide(r.Context(), booking.DecideParams{
		BookingID: id,
		Status:    strings.TrimSpace(req.Status),
		Actor:     user,
	})
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondOK(w, "Booking status updated", h.toView(r, updated))
}

// HandleCancel is the resident-initiated cancellation.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	user, err := authz.RequireResident(r.Context())
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	cancelled, err := h.svc.CancelOwn(r.Context(), id, user.ResidentID)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondOK(w, "Booking cancelled", h.toView(r, cancelled))
}
