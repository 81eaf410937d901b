// Package events serves community events and capacity-limited registration.
package events

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/kgrigsby59/courtly/internal/api/apiutil"
	"github.com/kgrigsby59/courtly/internal/api/authz"
	appdb "github.com/kgrigsby59/courtly/internal/db"
	dbq "github.com/kgrigsby59/courtly/internal/db/queries"
)

type Handler struct {
	db *appdb.DB
}

func NewHandler(database *appdb.DB) *Handler {
	return &Handler{db: database}
}

type eventView struct {
	dbq.Event
	RegisteredCount int64 `json:"registered_count"`
}

// HandleList returns upcoming events with their registration counts.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Queries.ListEventsFromDate(r.Context(), apiutil.Today())
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to list events", err))
		return
	}

	views := make([]eventView, 0, len(rows))
	for _, row := range rows {
		views = append(views, eventView{Event: row.Event, RegisteredCount: row.RegisteredCount})
	}
	apiutil.RespondOK(w, "Events retrieved", views)
}

type createRequest struct {
	FacilityID  int64  `json:"facility_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Capacity    int64  `json:"capacity"`
}

// HandleCreate is staff-only.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, err := authz.RequireStaff(r.Context())
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, apiutil.Invalid("Invalid request body"))
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "title", Reason: "is required"})
		return
	}
	if req.FacilityID <= 0 {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "facility_id", Reason: "must be greater than 0"})
		return
	}
	if req.Capacity <= 0 {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "capacity", Reason: "must be greater than 0"})
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

	ctx := r.Context()
	count, err := h.db.Queries.FacilityExists(ctx, req.FacilityID)
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to validate facility", err))
		return
	}
	if count == 0 {
		apiutil.RespondError(w, r, apiutil.NotFound("Facility not found"))
		return
	}

	event, err := h.db.Queries.CreateEvent(ctx, dbq.CreateEventParams{
		FacilityID:  req.FacilityID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Date:        date,
		StartTime:   startTime,
		EndTime:     endTime,
		Capacity:    req.Capacity,
		CreatedBy:   user.StaffID,
	})
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to create event", err))
		return
	}
	apiutil.RespondCreated(w, "Event created", eventView{Event: event})
}

// HandleRegister signs the calling resident up, enforcing event capacity and
// rejecting duplicate registrations. The capacity re-check and insert run in
// one transaction.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
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

	ctx := r.Context()
	err = h.db.RunInTx(ctx, func(txdb *appdb.DB) error {
		q := txdb.Queries

		event, err := q.GetEvent(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apiutil.NotFound("Event not found")
			}
			return apiutil.Internal("Failed to load event", err)
		}

		params := dbq.EventRegistrationParams{EventID: id, ResidentID: user.ResidentID}
		existing, err := q.EventRegistrationExists(ctx, params)
		if err != nil {
			return apiutil.Internal("Failed to check registration", err)
		}
		if existing > 0 {
			return apiutil.Conflict(apiutil.ReasonDuplicate, "Already registered for this event")
		}

		registered, err := q.CountEventRegistrations(ctx, id)
		if err != nil {
			return apiutil.Internal("Failed to count registrations", err)
		}
		if registered >= event.Capacity {
			return apiutil.Conflict(apiutil.ReasonEventFull, "Event is at capacity")
		}

		if err := q.CreateEventRegistration(ctx, params); err != nil {
			return apiutil.Internal("Failed to register for event", err)
		}
		return nil
	})
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondCreated(w, "Registered for event", map[string]any{
		"event_id":    id,
		"resident_id": user.ResidentID,
	})
}

// HandleUnregister removes the calling resident's registration.
func (h *Handler) HandleUnregister(w http.ResponseWriter, r *http.Request) {
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

	affected, err := h.db.Queries.DeleteEventRegistration(r.Context(), dbq.EventRegistrationParams{
		EventID:    id,
		ResidentID: user.ResidentID,
	})
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to remove registration", err))
		return
	}
	if affected == 0 {
		apiutil.RespondError(w, r, apiutil.NotFound("Registration not found"))
		return
	}
	apiutil.RespondOK(w, "Registration removed", nil)
}
