package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mcu-prisar/heritage-web/internal/pkg/logger"
	"github.com/mcu-prisar/heritage-web/internal/pkg/response"
)

// Handler serves the dataset as JSON
type Handler struct {
	dataset *Dataset
	urls    URLResolver
}

// NewHandler creates catalog handler
func NewHandler(dataset *Dataset, urls URLResolver) *Handler {
	return &Handler{dataset: dataset, urls: urls}
}

// List handles GET /api/v1/models
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	records := h.dataset.All()
	response.List(w, ToResponses(records, h.urls), len(records))
}

// Get handles GET /api/v1/models/{slug}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	rec, ok := h.dataset.FindBySlug(slug)
	if !ok {
		logger.LogDebug(r.Context(), "model not found", "slug", slug)
		response.NotFound(w, ErrModelNotFound.Error())
		return
	}

	response.OK(w, ToResponse(rec, h.urls))
}

// Related handles GET /api/v1/models/{slug}/related
func (h *Handler) Related(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if _, ok := h.dataset.FindBySlug(slug); !ok {
		logger.LogDebug(r.Context(), "model not found", "slug", slug)
		response.NotFound(w, ErrModelNotFound.Error())
		return
	}

	related := h.dataset.Related(slug)
	response.List(w, ToResponses(related, h.urls), len(related))
}
