package api

import (
	"github.com/go-chi/chi/v5"
)

// setupAPIRoutes sets up /api routes
func (s *RESTServer) setupAPIRoutes(r chi.Router) {
	// Auth routes (public)
	r.Post("/login", s.wrap(s.HandleLogin))
	r.Post("/token/refresh", s.wrap(s.HandleRefresh))

	// Catalog listing is open to anonymous callers
	r.With(s.optionalAuth).Get("/products", s.wrap(s.HandleListProducts))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/products/{id}", s.wrap(s.HandleGetProduct))

		// Users
		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.wrap(s.HandleListUsers))
			r.Post("/", s.wrap(s.HandleCreateUser))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.wrap(s.HandleGetUser))
				r.Put("/", s.wrap(s.HandleUpdateUser))
				r.Delete("/", s.wrap(s.HandleDeleteUser))
			})
		})

		// Customers
		r.Get("/customers/{id}", s.wrap(s.HandleGetCustomer))
	})
}
