package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Services bundles everything the router exposes.
type Services struct {
	Reservations interface {
		ReservationCreator
		ReservationLister
		ReservationUpdater
		ReservationCanceller
	}
	Orders    ReservationConfirmer
	Sweeps    Sweeper
	Inventory InventoryPlanner
}

// NewRouter wires all routes under the per-organization prefix.
func NewRouter(svcs Services, corsOrigins []string, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(log))

	r.Get("/health", HealthHandler)

	r.Route("/orgs/{orgID}", func(r chi.Router) {
		r.Post("/reservations", HandleCreateReservation(svcs.Reservations))
		r.Get("/reservations", HandleListReservations(svcs.Reservations))
		r.Patch("/reservations/{reservationID}", HandleUpdateReservation(svcs.Reservations))
		r.Post("/reservations/{reservationID}/confirm", HandleConfirmReservation(svcs.Orders))
		r.Post("/reservations/{reservationID}/cancel", HandleCancelReservation(svcs.Reservations))
		r.Post("/sweeps", HandleRunSweep(svcs.Sweeps))
		r.Post("/shows", HandleCreateShow(svcs.Inventory))
		r.Get("/shows", HandleListShows(svcs.Inventory))
		r.Post("/slots", HandleProvisionSlot(svcs.Inventory))
		r.Get("/slots", HandleListSlots(svcs.Inventory))
	})

	r.NotFound(NotFoundHandler())

	return CORS(corsOrigins, r)
}
