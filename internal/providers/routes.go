package providers

import (
	"net/http"

	"github.com/alexbeattie/chla-map-backend/internal/auth"
	"github.com/alexbeattie/chla-map-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}

	// Public routes
	r.Get("/", ListProvidersHandler)
	r.Get("/near", NearHandler)
	r.Get("/{id}", GetProviderHandler)

	// Admin-only mutations
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Use(middleware.AdminMiddleware(sessionFetcher))
		r.Post("/", CreateProviderHandler)
		r.Put("/{id}", UpdateProviderHandler)
		r.Delete("/{id}", DeleteProviderHandler)
	})

	return r
}
