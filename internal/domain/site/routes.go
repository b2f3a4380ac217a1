package site

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes registers the page routes on r
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Gallery)
	r.Get("/about", h.About)
	r.Get("/model/{slug}", h.Detail)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(StaticFS()))))
	r.NotFound(h.NotFound)
}
