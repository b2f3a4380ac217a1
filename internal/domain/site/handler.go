package site

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mcu-prisar/heritage-web/internal/domain/catalog"
	"github.com/mcu-prisar/heritage-web/internal/domain/share"
	"github.com/mcu-prisar/heritage-web/internal/pkg/logger"
	"github.com/mcu-prisar/heritage-web/internal/pkg/response"
)

// Config holds page rendering settings
type Config struct {
	PublicBaseURL string
	QRSize        int
}

// Handler renders the HTML pages
type Handler struct {
	dataset *catalog.Dataset
	panels  *share.Panels
	urls    catalog.URLResolver
	config  Config
	pages   pages
}

// NewHandler parses the page templates and creates site handler
func NewHandler(dataset *catalog.Dataset, qr share.Rasterizer, urls catalog.URLResolver, cfg Config) (*Handler, error) {
	p, err := parsePages()
	if err != nil {
		return nil, err
	}
	if cfg.QRSize <= 0 {
		cfg.QRSize = share.DefaultSize
	}
	return &Handler{dataset: dataset, panels: share.NewPanels(qr, share.DefaultMaxPanels), urls: urls, config: cfg, pages: p}, nil
}

// Gallery handles GET /
func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	records := h.dataset.All()
	cards := make([]cardView, 0, len(records))
	for _, rec := range records {
		cards = append(cards, toCard(rec))
	}

	page := galleryPage{
		basePage: basePage{Title: "3D Model Gallery", Active: "home"},
		Models:   cards,
	}
	if len(cards) > 0 {
		page.Hero = &cards[0]
	}
	h.render(w, r, http.StatusOK, "gallery", page)
}

// About handles GET /about
func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "about", aboutPage{
		basePage:   basePage{Title: "About", Active: "about"},
		ModelCount: h.dataset.Len(),
	})
}

// Detail handles GET /model/{slug}
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	rec, ok := h.dataset.FindBySlug(slug)
	if !ok {
		logger.LogDebug(r.Context(), "model not found", "slug", slug)
		h.render(w, r, http.StatusNotFound, "detail", detailPage{
			basePage: basePage{Title: "Model not found"},
		})
		return
	}

	related := h.dataset.Related(slug)
	cards := make([]cardView, 0, len(related))
	for _, other := range related {
		cards = append(cards, toCard(other))
	}

	model := &modelView{cardView: toCard(rec), AssetURL: rec.ModelPath}
	if h.urls != nil {
		model.AssetURL = h.urls.AssetURL(rec.ModelPath)
	}

	pageURL := share.PageURL(r, h.config.PublicBaseURL, catalog.PagePath(rec.Slug))
	page := detailPage{
		basePage:      basePage{Title: rec.Title},
		Model:         model,
		Related:       cards,
		QRSize:        h.config.QRSize,
		QRDownloadURL: qrDownloadURL(pageURL, h.config.QRSize),
		PageURL:       pageURL,
		Features:      Features,
	}

	if png, err := h.panels.For(pageURL, h.config.QRSize).Render(r.Context(), pageURL, h.config.QRSize); err != nil {
		logger.LogError(r.Context(), err, "QR render failed", "slug", slug)
	} else {
		page.QRCode = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
	}

	h.render(w, r, http.StatusOK, "detail", page)
}

// NotFound handles every unmatched route
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	logger.LogWarn(r.Context(), "404: non-existent route", "path", r.URL.Path)
	h.render(w, r, http.StatusNotFound, "notfound", notFoundPage{
		basePage: basePage{Title: "Page not found"},
		Path:     r.URL.Path,
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.LogError(r.Context(), err, "template render failed", "page", name)
		response.InternalError(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func toCard(rec catalog.ModelRecord) cardView {
	return cardView{
		Slug:         rec.Slug,
		Title:        rec.Title,
		Description:  rec.Description,
		Category:     rec.Category,
		Location:     rec.Location,
		PageURL:      catalog.PagePath(rec.Slug),
		ThumbnailURL: catalog.ThumbnailPath(rec.Slug),
	}
}

func qrDownloadURL(pageURL string, size int) string {
	q := url.Values{}
	q.Set("data", pageURL)
	q.Set("size", strconv.Itoa(size))
	q.Set("download", "1")
	return "/api/v1/qr?" + q.Encode()
}
