package viewer

import (
	"github.com/go-chi/chi/v5"
)

// Routes registers the REST viewer routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Mount)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Unmount)
	r.Post("/{id}/commands", h.Command)

	return r
}

// WSRoutes registers the WebSocket route
func (h *Handler) WSRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.WebSocket)

	return r
}
