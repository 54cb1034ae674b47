package router

import (
	"innkeep/internal/handlers/availability"
	"innkeep/internal/handlers/booking"
	"innkeep/internal/handlers/room"
	"innkeep/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Room         room.Handler
	Availability availability.Handler
	Booking      booking.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	Auth           middleware.Auth
}

// SetupRoutes mounts the public catalog and search routes, the guest booking
// routes behind a bearer token, and the internal routes behind the API key.
func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Room.Router(routerGroup)
		r.DomainHandlers.Availability.Router(routerGroup)

		routerGroup.Group(func(guest chi.Router) {
			guest.Use(r.Auth.Auth)
			r.DomainHandlers.Booking.Router(guest)
		})

		routerGroup.Group(func(internal chi.Router) {
			internal.Use(r.Auth.APIKey)
			r.DomainHandlers.Booking.InternalRouter(internal)
		})
	})
}

func New(domainHandlers DomainHandlers, auth middleware.Auth) Router {
	return Router{
		DomainHandlers: domainHandlers,
		Auth:           auth,
	}
}
