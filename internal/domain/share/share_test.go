package share

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type countingRasterizer struct {
	mu    sync.Mutex
	calls int
	inner Rasterizer
}

func (c *countingRasterizer) Rasterize(ctx context.Context, payload string, size int) ([]byte, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Rasterize(ctx, payload, size)
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = value
	m.sets++
	return nil
}

const gardenURL = "https://example.com/model/garden"

func TestPanelRenderAndDownload(t *testing.T) {
	panel := NewPanel(NewService(nil, time.Hour, DefaultSize))

	raster, err := panel.Render(context.Background(), gardenURL, 200)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(raster) == 0 {
		t.Fatal("empty raster")
	}
	img, err := png.Decode(bytes.NewReader(raster))
	if err != nil {
		t.Fatalf("raster is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Fatalf("raster size = %dx%d", b.Dx(), b.Dy())
	}

	name, data, err := panel.Download()
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if name != "qr-code.png" {
		t.Fatalf("filename = %q", name)
	}
	if !bytes.Equal(data, raster) {
		t.Fatal("download differs from the rendered raster")
	}
}

func TestPanelDownloadBeforeRender(t *testing.T) {
	panel := NewPanel(NewService(nil, time.Hour, DefaultSize))
	if _, _, err := panel.Download(); !errors.Is(err, ErrNothingRendered) {
		t.Fatalf("err = %v, want ErrNothingRendered", err)
	}
}

func TestPanelMemoizes(t *testing.T) {
	r := &countingRasterizer{inner: NewService(nil, time.Hour, DefaultSize)}
	panel := NewPanel(r)
	ctx := context.Background()

	first, _ := panel.Render(ctx, gardenURL, 200)
	_, _ = panel.Render(ctx, gardenURL, 200)
	if r.calls != 1 {
		t.Fatalf("calls = %d, want 1", r.calls)
	}

	resized, _ := panel.Render(ctx, gardenURL, 300)
	if r.calls != 2 || bytes.Equal(first, resized) {
		t.Fatalf("size change must re-render (calls=%d)", r.calls)
	}

	_, _ = panel.Render(ctx, "https://example.com/model/statue", 300)
	if r.calls != 3 || panel.Payload() != "https://example.com/model/statue" {
		t.Fatalf("payload change must re-render (calls=%d)", r.calls)
	}

	_, data, _ := panel.Download()
	latest, _ := panel.Render(ctx, "https://example.com/model/statue", 300)
	if !bytes.Equal(data, latest) {
		t.Fatal("download must export the most recent raster")
	}
}

func TestServiceUsesCache(t *testing.T) {
	mc := &memoryCache{}
	svc := NewService(mc, time.Hour, DefaultSize)
	ctx := context.Background()

	a, err := svc.Rasterize(ctx, gardenURL, 0)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	b, err := svc.Rasterize(ctx, gardenURL, 0)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if mc.sets != 1 || !bytes.Equal(a, b) {
		t.Fatalf("sets = %d", mc.sets)
	}

	if _, err := svc.Rasterize(ctx, "", 100); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("err = %v, want ErrEmptyPayload", err)
	}
}

func TestServiceSize(t *testing.T) {
	svc := NewService(nil, time.Hour, 0)
	tests := map[int]int{0: DefaultSize, 10: MinSize, 5000: MaxSize, 256: 256}
	for in, want := range tests {
		if got := svc.Size(in); got != want {
			t.Fatalf("Size(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestPageURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://heritage.local:8080/model/garden", nil)
	if got := PageURL(r, "", "/model/garden"); got != "http://heritage.local:8080/model/garden" {
		t.Fatalf("PageURL = %q", got)
	}

	r.Header.Set("X-Forwarded-Proto", "https")
	r.Header.Set("X-Forwarded-Host", "example.com")
	if got := PageURL(r, "", "/model/garden"); got != gardenURL {
		t.Fatalf("PageURL = %q", got)
	}

	if got := PageURL(r, "https://mcu.example.org/", "/model/garden"); got != "https://mcu.example.org/model/garden" {
		t.Fatalf("PageURL = %q", got)
	}
}

func TestPanelsHoldOnePanelPerPage(t *testing.T) {
	r := &countingRasterizer{inner: NewService(nil, time.Hour, DefaultSize)}
	panels := NewPanels(r, 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := panels.For(gardenURL, 200).Render(ctx, gardenURL, 200); err != nil {
			t.Fatalf("Render: %v", err)
		}
	}
	if r.calls != 1 {
		t.Fatalf("calls = %d, want 1", r.calls)
	}
	if panels.For(gardenURL, 200) != panels.For(gardenURL, 200) {
		t.Fatal("same page must share a panel")
	}
	if panels.For(gardenURL, 300) == panels.For(gardenURL, 200) {
		t.Fatal("different sizes must not share a panel")
	}

	panels.For("https://example.com/model/statue", 200)
	if panels.Len() != 2 {
		t.Fatalf("Len = %d, want 2", panels.Len())
	}
}

func TestHandlerQRReusesRaster(t *testing.T) {
	r := &countingRasterizer{inner: NewService(nil, time.Hour, DefaultSize)}
	h := NewHandler(NewService(nil, time.Hour, DefaultSize))
	h.panels = NewPanels(r, DefaultMaxPanels)

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.QR(rr, httptest.NewRequest(http.MethodGet, "/api/v1/qr?data="+gardenURL+"&size=128", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
	}
	if r.calls != 1 {
		t.Fatalf("calls = %d, want 1", r.calls)
	}
}

func TestHandlerQR(t *testing.T) {
	h := NewHandler(NewService(nil, time.Hour, DefaultSize))

	rr := httptest.NewRecorder()
	h.QR(rr, httptest.NewRequest(http.MethodGet, "/api/v1/qr?data="+gardenURL+"&size=128", nil))
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("status=%d type=%q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if rr.Header().Get("Content-Disposition") != "" {
		t.Fatal("inline render must not be an attachment")
	}
	if _, err := png.Decode(bytes.NewReader(rr.Body.Bytes())); err != nil {
		t.Fatalf("body is not a PNG: %v", err)
	}

	rr = httptest.NewRecorder()
	h.QR(rr, httptest.NewRequest(http.MethodGet, "/api/v1/qr?data="+gardenURL+"&download=1", nil))
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="qr-code.png"` {
		t.Fatalf("Content-Disposition = %q", got)
	}
}

func TestHandlerQRValidation(t *testing.T) {
	h := NewHandler(NewService(nil, time.Hour, DefaultSize))

	for _, target := range []string{"/api/v1/qr", "/api/v1/qr?data=not-a-url", "/api/v1/qr?data=" + gardenURL + "&size=big"} {
		rr := httptest.NewRecorder()
		h.QR(rr, httptest.NewRequest(http.MethodGet, target, nil))
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: status = %d", target, rr.Code)
		}
	}
}
