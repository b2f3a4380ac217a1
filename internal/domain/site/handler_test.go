package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mcu-prisar/heritage-web/internal/domain/catalog"
	"github.com/mcu-prisar/heritage-web/internal/domain/share"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	ds, err := catalog.Load(context.Background(), catalog.EmbeddedSource{})
	if err != nil {
		t.Fatalf("load dataset: %v", err)
	}
	h, err := NewHandler(ds, share.NewService(nil, time.Hour, 0), nil, Config{PublicBaseURL: "https://example.com"})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestGalleryListsModelsInOrder(t *testing.T) {
	rr := get(t, newRouter(t), "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()

	statue := strings.Index(body, `href="/model/statue"`)
	building := strings.Index(body, `href="/model/main-building"`)
	garden := strings.Index(body, `href="/model/garden"`)
	if statue < 0 || building < 0 || garden < 0 {
		t.Fatal("gallery is missing a card")
	}
	if !(statue < building && building < garden) {
		t.Fatalf("cards out of dataset order: %d %d %d", statue, building, garden)
	}
}

func TestDetailGarden(t *testing.T) {
	rr := get(t, newRouter(t), "/model/garden")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()

	if !strings.Contains(body, "<h1>Heritage Garden</h1>") {
		t.Fatal("detail page does not show the garden title")
	}

	related := body[strings.Index(body, `class="related"`):]
	for _, slug := range []string{"statue", "main-building"} {
		if !strings.Contains(related, `data-slug="`+slug+`"`) {
			t.Fatalf("related list missing %q", slug)
		}
	}
	if strings.Contains(related, `data-slug="garden"`) {
		t.Fatal("related list contains the current model")
	}
	if strings.Count(related, `class="card"`) != 2 {
		t.Fatalf("related list should have exactly two cards")
	}

	if !strings.Contains(body, `src="data:image/png;base64,`) {
		t.Fatal("QR panel not rendered")
	}
	if !strings.Contains(body, "download=1") || !strings.Contains(body, "https%3A%2F%2Fexample.com%2Fmodel%2Fgarden") {
		t.Fatal("QR download link does not point at the page URL")
	}
	if !strings.Contains(body, `rel="preload" href="/models/garden.glb"`) {
		t.Fatal("asset preload hint missing")
	}
}

type countingRasterizer struct {
	mu    sync.Mutex
	calls int
	inner share.Rasterizer
}

func (c *countingRasterizer) Rasterize(ctx context.Context, payload string, size int) ([]byte, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Rasterize(ctx, payload, size)
}

func TestDetailReusesQRRaster(t *testing.T) {
	ds, err := catalog.Load(context.Background(), catalog.EmbeddedSource{})
	if err != nil {
		t.Fatalf("load dataset: %v", err)
	}
	qr := &countingRasterizer{inner: share.NewService(nil, time.Hour, 0)}
	h, err := NewHandler(ds, qr, nil, Config{PublicBaseURL: "https://example.com"})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	r := chi.NewRouter()
	h.Routes(r)

	for i := 0; i < 3; i++ {
		if rr := get(t, r, "/model/garden"); rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
	}
	if qr.calls != 1 {
		t.Fatalf("rasterized %d times, want 1", qr.calls)
	}

	get(t, r, "/model/statue")
	if qr.calls != 2 {
		t.Fatalf("another page must get its own raster (calls=%d)", qr.calls)
	}
}

func TestDetailUnknownSlug(t *testing.T) {
	rr := get(t, newRouter(t), "/model/does-not-exist")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Model not found") {
		t.Fatal("not-found branch not rendered")
	}
	if !strings.Contains(body, `<a class="button primary" href="/">`) {
		t.Fatal("missing link back to /")
	}
	if strings.Contains(body, "viewer.js") {
		t.Fatal("viewer must not load on the not-found branch")
	}
}

func TestAboutShowsModelCount(t *testing.T) {
	rr := get(t, newRouter(t), "/about")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<strong>3</strong><span>3D Models</span>") {
		t.Fatal("model count missing")
	}
	if !strings.Contains(body, `href="/about" class="active"`) {
		t.Fatal("about nav item not active")
	}
}

func TestUnknownRoute(t *testing.T) {
	rr := get(t, newRouter(t), "/no/such/page")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Go Home") {
		t.Fatal("404 page not rendered")
	}
}

func TestStaticAssets(t *testing.T) {
	rr := get(t, newRouter(t), "/static/viewer.js")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "fullscreen_changed") {
		t.Fatalf("status = %d", rr.Code)
	}
}
