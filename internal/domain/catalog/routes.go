package catalog

import (
	"github.com/go-chi/chi/v5"
)

// Routes registers catalog routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{slug}", h.Get)
	r.Get("/{slug}/related", h.Related)

	return r
}
