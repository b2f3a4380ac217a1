package viewer

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func newTestRouter(t *testing.T) (http.Handler, *Registry, *Hub) {
	t.Helper()
	hub := NewHub(time.Hour)
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	reg := NewRegistry(testFinder(), Options{Loader: okLoader(), Publisher: hub}, time.Minute)
	h := NewHandler(reg, hub, nil, nil)

	r := chi.NewRouter()
	r.Mount("/api/v1/viewers", h.Routes())
	r.Mount("/ws/viewers", h.WSRoutes())
	return r, reg, hub
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env apiEnvelope
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("unmarshal %q: %v", rr.Body.String(), err)
		}
	}
	return rr, env
}

func mountViewer(t *testing.T, h http.Handler, slug string) Snapshot {
	t.Helper()
	rr, env := doJSON(t, h, http.MethodPost, "/api/v1/viewers", `{"slug":"`+slug+`"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("mount status = %d body=%s", rr.Code, rr.Body.String())
	}
	var snap Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	return snap
}

func TestHandlerMountAndCommand(t *testing.T) {
	router, _, _ := newTestRouter(t)

	snap := mountViewer(t, router, "garden")
	if snap.Slug != "garden" || !snap.State.AutoRotate {
		t.Fatalf("unexpected snapshot %#v", snap)
	}

	base := "/api/v1/viewers/" + snap.ID.String()

	rr, env := doJSON(t, router, http.MethodPost, base+"/commands", `{"command":"set_lighting","value":9}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("command status = %d body=%s", rr.Code, rr.Body.String())
	}
	var after Snapshot
	if err := json.Unmarshal(env.Data, &after); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if after.State.LightingIntensity != MaxLightingIntensity {
		t.Fatalf("lighting = %v", after.State.LightingIntensity)
	}

	rr, _ = doJSON(t, router, http.MethodPost, base+"/commands", `{"command":"rotate_toggle"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("rotate status = %d", rr.Code)
	}
	rr, env = doJSON(t, router, http.MethodGet, base, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	if err := json.Unmarshal(env.Data, &after); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if after.State.AutoRotate {
		t.Fatal("autoRotate should be off")
	}
}

func TestHandlerCommandErrors(t *testing.T) {
	router, _, _ := newTestRouter(t)
	base := "/api/v1/viewers/" + mountViewer(t, router, "statue").ID.String()

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"unknown command", `{"command":"explode"}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"bad environment", `{"command":"set_environment","environment":"forest"}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"missing value", `{"command":"set_scale"}`, http.StatusUnprocessableEntity, "INVALID_COMMAND"},
		{"unknown field", `{"command":"zoom_in","speed":2}`, http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, env := doJSON(t, router, http.MethodPost, base+"/commands", tt.body)
			if rr.Code != tt.status || env.Error == nil || env.Error.Code != tt.code {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandlerMountErrors(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr, env := doJSON(t, router, http.MethodPost, "/api/v1/viewers", `{"slug":"does-not-exist"}`)
	if rr.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != "MODEL_NOT_FOUND" {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr, env = doJSON(t, router, http.MethodPost, "/api/v1/viewers", `{"slug":"Not A Slug"}`)
	if rr.Code != http.StatusUnprocessableEntity || env.Error == nil || env.Error.Details["slug"] == "" {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr, _ = doJSON(t, router, http.MethodGet, "/api/v1/viewers/not-a-uuid", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHandlerMountLimits(t *testing.T) {
	hub := NewHub(time.Hour)
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	t.Run("per client rate", func(t *testing.T) {
		reg := NewRegistry(testFinder(), Options{Loader: okLoader(), Publisher: hub}, time.Minute)
		h := NewHandler(reg, hub, NewMountLimiter(nil, 2, time.Minute), nil)
		router := chi.NewRouter()
		router.Mount("/api/v1/viewers", h.Routes())

		mountViewer(t, router, "garden")
		mountViewer(t, router, "statue")

		rr, env := doJSON(t, router, http.MethodPost, "/api/v1/viewers", `{"slug":"garden"}`)
		if rr.Code != http.StatusTooManyRequests || env.Error == nil || env.Error.Code != "RATE_LIMITED" {
			t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
		}
		if reg.Count() != 2 {
			t.Fatalf("Count = %d, want 2", reg.Count())
		}
	})

	t.Run("registry cap", func(t *testing.T) {
		reg := NewRegistry(testFinder(), Options{Loader: okLoader(), Publisher: hub}, time.Minute)
		reg.SetMaxViewers(1)
		h := NewHandler(reg, hub, nil, nil)
		router := chi.NewRouter()
		router.Mount("/api/v1/viewers", h.Routes())

		mountViewer(t, router, "garden")

		rr, env := doJSON(t, router, http.MethodPost, "/api/v1/viewers", `{"slug":"statue"}`)
		if rr.Code != http.StatusTooManyRequests || env.Error == nil || env.Error.Code != "TOO_MANY_VIEWERS" {
			t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
		}
	})
}

func TestHandlerUnmount(t *testing.T) {
	router, reg, _ := newTestRouter(t)
	base := "/api/v1/viewers/" + mountViewer(t, router, "garden").ID.String()

	rr, _ := doJSON(t, router, http.MethodDelete, base, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("unmount status = %d", rr.Code)
	}
	if reg.Count() != 0 {
		t.Fatalf("Count = %d", reg.Count())
	}

	rr, env := doJSON(t, router, http.MethodPost, base+"/commands", `{"command":"zoom_in"}`)
	if rr.Code != http.StatusGone || env.Error == nil || env.Error.Code != "VIEWER_GONE" {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestWebSocketSession(t *testing.T) {
	router, _, _ := newTestRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	snap := mountViewer(t, router, "garden")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/viewers/" + snap.ID.String()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	next := func(want FrameType) Frame {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		for {
			var f Frame
			if err := conn.ReadJSON(&f); err != nil {
				t.Fatalf("read: %v", err)
			}
			if f.Type == want {
				return f
			}
		}
	}

	first := next(FrameState)
	if first.Snapshot == nil || first.Snapshot.ID != snap.ID {
		t.Fatalf("unexpected first frame %#v", first)
	}

	if err := conn.WriteJSON(map[string]interface{}{"type": "command", "command": "toggle_fullscreen"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	req := next(FrameFullscreenRequest)
	if req.Enter == nil || !*req.Enter {
		t.Fatalf("unexpected request %#v", req)
	}

	if err := conn.WriteJSON(map[string]interface{}{"type": "fullscreen_changed", "active": true}); err != nil {
		t.Fatalf("write: %v", err)
	}
	for {
		f := next(FrameState)
		if f.Snapshot != nil && f.Snapshot.State.IsFullscreen {
			break
		}
	}

	if err := conn.WriteJSON(map[string]interface{}{"type": "command", "command": "set_environment", "environment": "sunset"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	for {
		f := next(FrameState)
		if f.Snapshot != nil && f.Snapshot.State.Environment == EnvironmentSunset {
			break
		}
	}

	if err := conn.WriteJSON(map[string]interface{}{"type": "teleport"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if f := next(FrameError); f.Error == "" {
		t.Fatal("expected error message")
	}
}

func TestWebSocketUnknownViewer(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws/viewers/00000000-0000-0000-0000-000000000000", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}
