package facilities

import (
	"net/http"

	"github.com/kgrigsby59/courtly/internal/api/apiutil"
	dbq "github.com/kgrigsby59/courtly/internal/db/queries"
)

type assignmentRequest struct {
	StaffID   int64 `json:"staff_id"`
	IsPrimary bool  `json:"is_primary"`
}

// HandleAssignStaff links a staff member to a facility. Admin only; the
// assignment drives the staff member's visibility scope.
func (h *Handler) HandleAssignStaff(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	var req assignmentRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, apiutil.Invalid("Invalid request body"))
		return
	}
	if req.StaffID <= 0 {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "staff_id", Reason: "must be greater than 0"})
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

	count, err = h.db.Queries.StaffExists(ctx, req.StaffID)
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to validate staff member", err))
		return
	}
	if count == 0 {
		apiutil.RespondError(w, r, apiutil.NotFound("Staff member not found"))
		return
	}

	if err := h.db.Queries.UpsertStaffFacilityAssignment(ctx, dbq.UpsertStaffFacilityAssignmentParams{
		StaffID:    req.StaffID,
		FacilityID: id,
		IsPrimary:  req.IsPrimary,
	}); err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to save assignment", err))
		return
	}
	apiutil.RespondOK(w, "Staff assigned", map[string]any{
		"facility_id": id,
		"staff_id":    req.StaffID,
	})
}

// HandleUnassignStaff removes a staff-facility assignment.
func (h *Handler) HandleUnassignStaff(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	var req assignmentRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, apiutil.Invalid("Invalid request body"))
		return
	}
	if req.StaffID <= 0 {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "staff_id", Reason: "must be greater than 0"})
		return
	}

	if err := h.db.Queries.RemoveStaffFacilityAssignment(r.Context(), dbq.RemoveStaffFacilityAssignmentParams{
		StaffID:    req.StaffID,
		FacilityID: id,
	}); err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to remove assignment", err))
		return
	}
	apiutil.RespondOK(w, "Staff unassigned", nil)
}
