// Package maintenance exposes maintenance report intake and staff triage over
// HTTP.
package maintenance

import (
	"net/http"
	"strings"

	"github.com/kgrigsby59/courtly/internal/api/apiutil"
	"github.com/kgrigsby59/courtly/internal/api/authz"
	"github.com/kgrigsby59/courtly/internal/maintenance"
)

type Handler struct {
	svc *maintenance.Service
}

func NewHandler(svc *maintenance.Service) *Handler {
	return &Handler{svc: svc}
}

type createRequest struct {
	FacilityID  int64  `json:"facility_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := authz.UserFromContext(r.Context())
	if user == nil {
		apiutil.RespondError(w, r, authz.ErrUnauthenticated)
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
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "title", Reason: "is required"})
		return
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}
	if !maintenance.ValidPriority(req.Priority) {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "priority", Reason: "must be one of low, medium, high, critical"})
		return
	}

	report, err := h.svc.Create(r.Context(), maintenance.CreateParams{
		FacilityID:  req.FacilityID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Priority:    req.Priority,
		Reporter:    user,
	})
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondCreated(w, "Maintenance report created", report)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := authz.UserFromContext(r.Context())
	if user == nil {
		apiutil.RespondError(w, r, authz.ErrUnauthenticated)
		return
	}

	reports, err := h.svc.List(r.Context(), user)
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondOK(w, "Maintenance reports retrieved", reports)
}

type updateRequest struct {
	Status        string  `json:"status"`
	AssignedTo    *int64  `json:"assigned_to"`
	ScheduledDate *string `json:"scheduled_date"`
	Feedback      *string `json:"feedback"`
}

// HandleUpdate is the staff triage endpoint.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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

	var req updateRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, apiutil.Invalid("Invalid request body"))
		return
	}
	if req.ScheduledDate != nil {
		parsed, err := apiutil.ParseDate(*req.ScheduledDate, "scheduled_date")
		if err != nil {
			apiutil.RespondError(w, r, err)
			return
		}
		req.ScheduledDate = &parsed
	}

	report, err := h.svc.Update(r.Context(), maintenance.UpdateParams{
		ReportID:      id,
		Status:        strings.TrimSpace(req.Status),
		AssignedTo:    req.AssignedTo,
		ScheduledDate: req.ScheduledDate,
		Feedback:      req.Feedback,
		Actor:         user,
	})
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}
	apiutil.RespondOK(w, "Maintenance report updated", report)
}
