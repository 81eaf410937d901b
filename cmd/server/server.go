package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kgrigsby59/courtly/internal/api"
	"github.com/kgrigsby59/courtly/internal/api/auth"
	"github.com/kgrigsby59/courtly/internal/api/bookings"
	"github.com/kgrigsby59/courtly/internal/api/events"
	"github.com/kgrigsby59/courtly/internal/api/facilities"
	maintenanceapi "github.com/kgrigsby59/courtly/internal/api/maintenance"
	"github.com/kgrigsby59/courtly/internal/api/notifications"
	"github.com/kgrigsby59/courtly/internal/booking"
	"github.com/kgrigsby59/courtly/internal/config"
	"github.com/kgrigsby59/courtly/internal/crypto"
	"github.com/kgrigsby59/courtly/internal/db"
	"github.com/kgrigsby59/courtly/internal/maintenance"
	"github.com/kgrigsby59/courtly/internal/ratelimit"
)

type dependencies struct {
	db             *db.DB
	codec          *crypto.Codec
	sessions       *auth.Sessions
	limiter        *ratelimit.Limiter
	bookingSvc     *booking.Service
	maintenanceSvc *maintenance.Service
}

func newServer(cfg *config.Config, deps *dependencies) *http.Server {
	router := http.NewServeMux()
	registerRoutes(router, deps)

	handler := api.ChainMiddleware(
		router,
		api.WithAuth(deps.sessions),
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	authHandler := auth.NewHandler(deps.db, deps.sessions, deps.limiter, deps.codec)
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.HandleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.HandleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.HandleLogout)

	facilitiesHandler := facilities.NewHandler(deps.db)
	mux.HandleFunc("GET /api/v1/facilities", facilitiesHandler.HandleList)
	mux.HandleFunc("GET /api/v1/facilities/{id}", facilitiesHandler.HandleGet)
	mux.Handle("POST /api/v1/facilities", api.RequireStaffAuth(http.HandlerFunc(facilitiesHandler.HandleCreate)))
	mux.Handle("PUT /api/v1/facilities/{id}", api.RequireStaffAuth(http.HandlerFunc(facilitiesHandler.HandleUpdate)))
	mux.HandleFunc("POST /api/v1/facilities/{id}/ratings", facilitiesHandler.HandleRate)
	mux.Handle("PUT /api/v1/facilities/{id}/assignments", api.RequireStaffAuth(http.HandlerFunc(facilitiesHandler.HandleAssignStaff)))
	mux.Handle("DELETE /api/v1/facilities/{id}/assignments", api.RequireStaffAuth(http.HandlerFunc(facilitiesHandler.HandleUnassignStaff)))

	bookingsHandler := bookings.NewHandler(deps.db, deps.bookingSvc, deps.codec)
	mux.HandleFunc("POST /api/v1/bookings", bookingsHandler.HandleCreate)
	mux.HandleFunc("GET /api/v1/bookings", bookingsHandler.HandleList)
	mux.HandleFunc("GET /api/v1/bookings/{id}", bookingsHandler.HandleGet)
	mux.Handle("PUT /api/v1/bookings/{id}/status", api.RequireStaffAuth(http.HandlerFunc(bookingsHandler.HandleUpdateStatus)))
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", bookingsHandler.HandleCancel)

	maintenanceHandler := maintenanceapi.NewHandler(deps.maintenanceSvc)
	mux.HandleFunc("POST /api/v1/maintenance", maintenanceHandler.HandleCreate)
	mux.HandleFunc("GET /api/v1/maintenance", maintenanceHandler.HandleList)
	mux.Handle("PUT /api/v1/maintenance/{id}", api.RequireStaffAuth(http.HandlerFunc(maintenanceHandler.HandleUpdate)))

	eventsHandler := events.NewHandler(deps.db)
	mux.HandleFunc("GET /api/v1/events", eventsHandler.HandleList)
	mux.Handle("POST /api/v1/events", api.RequireStaffAuth(http.HandlerFunc(eventsHandler.HandleCreate)))
	mux.HandleFunc("POST /api/v1/events/{id}/register", eventsHandler.HandleRegister)
	mux.HandleFunc("DELETE /api/v1/events/{id}/register", eventsHandler.HandleUnregister)

	notificationsHandler := notifications.NewHandler(deps.db)
	mux.Handle("GET /api/v1/notifications", api.RequireAuthenticated(http.HandlerFunc(notificationsHandler.HandleList)))
	mux.Handle("POST /api/v1/notifications/{id}/read", api.RequireAuthenticated(http.HandlerFunc(notificationsHandler.HandleMarkRead)))
}
