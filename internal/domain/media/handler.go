package media

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mcu-prisar/heritage-web/internal/domain/catalog"
	"github.com/mcu-prisar/heritage-web/internal/pkg/errorhandler"
	"github.com/mcu-prisar/heritage-web/internal/pkg/logger"
	"github.com/mcu-prisar/heritage-web/internal/pkg/response"
	"github.com/mcu-prisar/heritage-web/internal/pkg/storage"
)

// Handler serves model assets and thumbnails
type Handler struct {
	store      storage.Storage
	thumbnails *Thumbnails
	dataset    *catalog.Dataset
}

// NewHandler creates media handler
func NewHandler(store storage.Storage, thumbnails *Thumbnails, dataset *catalog.Dataset) *Handler {
	return &Handler{store: store, thumbnails: thumbnails, dataset: dataset}
}

// Asset handles GET /assets/*
func (h *Handler) Asset(w http.ResponseWriter, r *http.Request) {
	key, err := storage.KeyFromPath(chi.URLParam(r, "*"))
	if err != nil {
		response.BadRequest(w, "Invalid asset path")
		return
	}

	info, err := h.store.GetInfo(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.LogDebug(r.Context(), "asset not found", "key", key)
			response.NotFound(w, "Asset not found")
			return
		}
		errorhandler.LogStorageError(r.Context(), "stat", key, err)
		response.InternalError(w)
		return
	}

	rc, err := h.store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.NotFound(w, "Asset not found")
			return
		}
		errorhandler.LogStorageError(r.Context(), "get", key, err)
		response.InternalError(w)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		logger.LogDebug(r.Context(), "asset copy interrupted", "key", key, "error", err.Error())
	}
}

// Thumbnail handles GET /thumbnails/{slug}?w=&h=
func (h *Handler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	rec, ok := h.dataset.FindBySlug(slug)
	if !ok {
		logger.LogDebug(r.Context(), "model not found", "slug", slug)
		response.NotFound(w, catalog.ErrModelNotFound.Error())
		return
	}

	width, err := queryInt(r, "w")
	if err != nil {
		errorhandler.HandleValidationError(r.Context(), w, map[string]string{"w": "Must be a number"})
		return
	}
	height, err := queryInt(r, "h")
	if err != nil {
		errorhandler.HandleValidationError(r.Context(), w, map[string]string{"h": "Must be a number"})
		return
	}

	data, err := h.thumbnails.Get(r.Context(), rec, width, height)
	if err != nil {
		if errors.Is(err, ErrSourceMissing) {
			logger.LogWarn(r.Context(), "thumbnail source missing", "slug", slug, "path", rec.Thumbnail)
			response.NotFound(w, "Thumbnail not found")
			return
		}
		if errors.Is(err, ErrUnsupportedSource) {
			logger.LogWarn(r.Context(), "thumbnail source is not an image", "slug", slug, "path", rec.Thumbnail)
			response.NotFound(w, "Thumbnail not found")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "THUMBNAIL_FAILED", "Failed to render thumbnail", err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func queryInt(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
