package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the API router with global middleware. static,
// when non-nil, serves everything the API doesn't claim.
func NewRouter(h *Handler, static http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS([]string{"*"}))

	h.RegisterRoutes(r)

	if static != nil {
		r.Handle("/*", static)
	}

	return r
}
