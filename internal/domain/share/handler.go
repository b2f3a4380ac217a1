package share

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mcu-prisar/heritage-web/internal/pkg/errorhandler"
	"github.com/mcu-prisar/heritage-web/internal/pkg/response"
	"github.com/mcu-prisar/heritage-web/internal/pkg/validator"
)

// Handler serves QR rasters
type Handler struct {
	service *Service
	panels  *Panels
}

// NewHandler creates QR handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, panels: NewPanels(service, DefaultMaxPanels)}
}

// QR handles GET /api/v1/qr?data=&size=&download=
func (h *Handler) QR(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := q.Get("data")

	if err := validator.ValidateVar(data, "required,url,max=2048"); err != nil {
		errorhandler.HandleValidationError(r.Context(), w, map[string]string{"data": "Must be an absolute URL"})
		return
	}

	size := 0
	if s := q.Get("size"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil {
			errorhandler.HandleValidationError(r.Context(), w, map[string]string{"size": "Must be a number"})
			return
		}
		size = parsed
	}

	size = h.service.Size(size)
	panel := h.panels.For(data, size)
	png, err := panel.Render(r.Context(), data, size)
	if err != nil {
		if errors.Is(err, ErrEmptyPayload) {
			response.BadRequest(w, err.Error())
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "QR_FAILED", "Failed to render QR code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if q.Get("download") == "1" || q.Get("download") == "true" {
		name, body, err := panel.Download()
		if err != nil {
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "QR_FAILED", "Failed to export QR code", err)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		png = body
	}

	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
