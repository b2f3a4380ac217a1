package media

import (
	"github.com/go-chi/chi/v5"
)

// Routes registers asset and thumbnail routes on r
func (h *Handler) Routes(r chi.Router) {
	r.Get("/assets/*", h.Asset)
	r.Head("/assets/*", h.Asset)
	r.Get("/thumbnails/{slug}", h.Thumbnail)
}
