// Package notifications serves the in-app notification feed.
package notifications

import (
	"net/http"

	"github.com/kgrigsby59/courtly/internal/api/apiutil"
	"github.com/kgrigsby59/courtly/internal/api/authz"
	appdb "github.com/kgrigsby59/courtly/internal/db"
	dbq "github.com/kgrigsby59/courtly/internal/db/queries"
)

const defaultListLimit = 50

type Handler struct {
	db *appdb.DB
}

func NewHandler(database *appdb.DB) *Handler {
	return &Handler{db: database}
}

type listResponse struct {
	Notifications []dbq.Notification `json:"notifications"`
	UnreadCount   int64              `json:"unread_count"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := authz.UserFromContext(r.Context())
	if user == nil {
		apiutil.RespondError(w, r, authz.ErrUnauthenticated)
		return
	}

	ctx := r.Context()
	notifications, err := h.db.Queries.ListNotificationsForUser(ctx, dbq.ListNotificationsForUserParams{
		UserID: user.UserID,
		Limit:  defaultListLimit,
	})
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to list notifications", err))
		return
	}
	if notifications == nil {
		notifications = []dbq.Notification{}
	}

	unread, err := h.db.Queries.CountUnreadNotifications(ctx, user.UserID)
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to count unread notifications", err))
		return
	}

	apiutil.RespondOK(w, "Notifications retrieved", listResponse{
		Notifications: notifications,
		UnreadCount:   unread,
	})
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
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

	affected, err := h.db.Queries.MarkNotificationRead(r.Context(), dbq.MarkNotificationReadParams{
		ID:     id,
		UserID: user.UserID,
	})
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to mark notification read", err))
		return
	}
	if affected == 0 {
		apiutil.RespondError(w, r, apiutil.NotFound("Notification not found"))
		return
	}
	apiutil.RespondOK(w, "Notification marked read", nil)
}
