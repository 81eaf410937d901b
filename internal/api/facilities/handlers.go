// Package facilities serves the facility catalog, admin management, and
// resident ratings.
package facilities

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

const (
	defaultOpenTime  = "06:00"
	defaultCloseTime = "22:00"
)

var facilityStatuses = map[string]bool{
	"open":        true,
	"closed":      true,
	"maintenance": true,
}

type Handler struct {
	db *appdb.DB
}

func NewHandler(database *appdb.DB) *Handler {
	return &Handler{db: database}
}

// facilityView is the client-facing facility payload with the rating summary
// folded in. AverageRating is null until the first rating lands.
type facilityView struct {
	dbq.Facility
	AverageRating *float64 `json:"average_rating"`
	RatingCount   int64    `json:"rating_count"`
}

func toView(facility dbq.Facility, summary dbq.FacilityRatingSummaryRow) facilityView {
	view := facilityView{Facility: facility, RatingCount: summary.RatingCount}
	if summary.AverageRating.Valid {
		avg := summary.AverageRating.Float64
		view.AverageRating = &avg
	}
	return view
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	facilities, err := h.db.Queries.ListFacilities(ctx)
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to list facilities", err))
		return
	}
	summaries, err := h.db.Queries.ListFacilityRatingSummaries(ctx)
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to load facility ratings", err))
		return
	}

	byFacility := make(map[int64]dbq.FacilityRatingSummaryRow, len(summaries))
	for _, summary := range summaries {
		byFacility[summary.FacilityID] = summary
	}

	views := make([]facilityView, 0, len(facilities))
	for _, facility := range facilities {
		views = append(views, toView(facility, byFacility[facility.ID]))
	}
	apiutil.RespondOK(w, "Facilities retrieved", views)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	ctx := r.Context()
	facility, err := h.db.Queries.GetFacility(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.RespondError(w, r, apiutil.NotFound("Facility not found"))
			return
		}
		apiutil.RespondError(w, r, apiutil.Internal("Failed to load facility", err))
		return
	}

	summary, err := h.db.Queries.GetFacilityRatingSummary(ctx, id)
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to load facility ratings", err))
		return
	}
	apiutil.RespondOK(w, "Facility retrieved", toView(facility, summary))
}

type facilityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Capacity    int64  `json:"capacity"`
	Status      string `json:"status"`
	OpenTime    string `json:"open_time"`
	CloseTime   string `json:"close_time"`
}

func (req *facilityRequest) normalize() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apiutil.FieldError{Field: "name", Reason: "is required"}
	}
	if req.Capacity <= 0 {
		return apiutil.FieldError{Field: "capacity", Reason: "must be greater than 0"}
	}

	if req.Status == "" {
		req.Status = "open"
	}
	if !facilityStatuses[req.Status] {
		return apiutil.FieldError{Field: "status", Reason: "must be one of open, closed, maintenance"}
	}

	if req.OpenTime == "" {
		req.OpenTime = defaultOpenTime
	}
	if req.CloseTime == "" {
		req.CloseTime = defaultCloseTime
	}
	var err error
	if req.OpenTime, err = apiutil.ParseClock(req.OpenTime, "open_time"); err != nil {
		return err
	}
	if req.CloseTime, err = apiutil.ParseClock(req.CloseTime, "close_time"); err != nil {
		return err
	}
	if req.OpenTime >= req.CloseTime {
		return apiutil.FieldError{Field: "close_time", Reason: "must be after open_time"}
	}
	return nil
}

// HandleCreate is admin-only.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	var req facilityRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, apiutil.Invalid("Invalid request body"))
		return
	}
	if err := req.normalize(); err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	facility, err := h.db.Queries.CreateFacility(r.Context(), dbq.CreateFacilityParams{
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		Status:      req.Status,
		OpenTime:    req.OpenTime,
		CloseTime:   req.CloseTime,
	})
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to create facility", err))
		return
	}
	apiutil.RespondCreated(w, "Facility created", toView(facility, dbq.FacilityRatingSummaryRow{}))
}

// HandleUpdate is admin-only and replaces the mutable facility fields.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	var req facilityRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, apiutil.Invalid("Invalid request body"))
		return
	}
	if err := req.normalize(); err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	ctx := r.Context()
	if _, err := h.db.Queries.GetFacility(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.RespondError(w, r, apiutil.NotFound("Facility not found"))
			return
		}
		apiutil.RespondError(w, r, apiutil.Internal("Failed to load facility", err))
		return
	}

	facility, err := h.db.Queries.UpdateFacility(ctx, dbq.UpdateFacilityParams{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		Status:      req.Status,
		OpenTime:    req.OpenTime,
		CloseTime:   req.CloseTime,
	})
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to update facility", err))
		return
	}

	summary, err := h.db.Queries.GetFacilityRatingSummary(ctx, id)
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to load facility ratings", err))
		return
	}
	apiutil.RespondOK(w, "Facility updated", toView(facility, summary))
}

type ratingRequest struct {
	Rating  int64  `json:"rating"`
	Comment string `json:"comment"`
}

// HandleRate records or replaces the caller's rating for a facility.
func (h *Handler) HandleRate(w http.ResponseWriter, r *http.Request) {
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

	var req ratingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, apiutil.Invalid("Invalid request body"))
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "rating", Reason: "must be between 1 and 5"})
		return
	}

	ctx := r.Context()
	count, err := h.db.Queries.FacilityExists(ctx, id)
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to validate facility", err))
		return
	}
	if count == 0 {
		apiutil.RespondError(w, r, apiutil.NotFound("Facility not found"))
		return
	}

	if err := h.db.Queries.UpsertFacilityRating(ctx, dbq.UpsertFacilityRatingParams{
		FacilityID: id,
		ResidentID: user.ResidentID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
	}); err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to save rating", err))
		return
	}

	summary, err := h.db.Queries.GetFacilityRatingSummary(ctx, id)
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to load facility ratings", err))
		return
	}

	var average *float64
	if summary.AverageRating.Valid {
		avg := summary.AverageRating.Float64
		average = &avg
	}
	apiutil.RespondOK(w, "Rating saved", map[string]any{
		"facility_id":    id,
		"average_rating": average,
		"rating_count":   summary.RatingCount,
	})
}

func requireAdmin(r *http.Request) error {
	user, err := authz.RequireStaff(r.Context())
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		return authz.ErrForbidden
	}
	return nil
}
