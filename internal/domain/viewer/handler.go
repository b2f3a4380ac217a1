package viewer

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcu-prisar/heritage-web/internal/pkg/errorhandler"
	"github.com/mcu-prisar/heritage-web/internal/pkg/response"
	"github.com/mcu-prisar/heritage-web/internal/pkg/validator"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Handler serves the viewer command surface over REST and WebSocket
type Handler struct {
	registry *Registry
	hub      *Hub
	limiter  *MountLimiter
	upgrader websocket.Upgrader
}

// NewHandler creates viewer handler. A nil limiter lets every mount through.
func NewHandler(registry *Registry, hub *Hub, limiter *MountLimiter, allowedOrigins []string) *Handler {
	return &Handler{
		registry: registry,
		hub:      hub,
		limiter:  limiter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")

				// Allow all in development
				if len(allowedOrigins) == 0 || origin == "" {
					return true
				}

				// The site's own pages always connect
				if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
					return true
				}

				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}

				log.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
				return false
			},
		},
	}
}

// Mount handles POST /api/v1/viewers
func (h *Handler) Mount(w http.ResponseWriter, r *http.Request) {
	var req MountRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		errorhandler.HandleValidationError(r.Context(), w, errs)
		return
	}

	if !h.limiter.Allow(r.Context(), clientIP(r)) {
		h.handleError(w, r, ErrMountRateLimited)
		return
	}

	v, err := h.registry.Mount(r.Context(), req.Slug)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Created(w, v.Snapshot())
}

// Get handles GET /api/v1/viewers/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewerFromPath(w, r)
	if !ok {
		return
	}
	response.OK(w, v.Snapshot())
}

// Command handles POST /api/v1/viewers/{id}/commands
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewerFromPath(w, r)
	if !ok {
		return
	}

	var cmd Command
	if err := response.DecodeJSON(r.Body, &cmd); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&cmd); errs != nil {
		errorhandler.HandleValidationError(r.Context(), w, errs)
		return
	}

	if err := v.Apply(cmd); err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, v.Snapshot())
}

// Unmount handles DELETE /api/v1/viewers/{id}
func (h *Handler) Unmount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid viewer ID")
		return
	}

	if err := h.registry.Unmount(id); err != nil {
		h.handleError(w, r, err)
		return
	}

	response.NoContent(w)
}

// WebSocket handles WS /ws/viewers/{id}
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewerFromPath(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &Connection{
		ViewerID: v.ID(),
		Viewer:   v,
		Conn:     conn,
		Send:     make(chan []byte, 256),
	}

	// First frame carries the full state
	snap := v.Snapshot()
	if data, err := json.Marshal(&Frame{Type: FrameState, Snapshot: &snap}); err == nil {
		client.Send <- data
	}

	h.registry.Attach(v.ID())
	h.hub.Register(client)

	go h.wsReader(client)
	go h.wsWriter(client)
}

func (h *Handler) wsReader(client *Connection) {
	defer func() {
		h.hub.Unregister(client)
		h.registry.Detach(client.ViewerID)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("viewer_id", client.ViewerID.String()).Msg("WebSocket read error")
			}
			break
		}

		var in inboundFrame
		if err := json.Unmarshal(message, &in); err != nil {
			h.hub.SendTo(client, &Frame{Type: FrameError, Error: "invalid frame"})
			continue
		}

		if err := h.dispatch(client, in); err != nil {
			h.hub.SendTo(client, &Frame{Type: FrameError, Error: err.Error()})
		}
	}
}

func (h *Handler) dispatch(client *Connection, in inboundFrame) error {
	if _, err := h.registry.Get(client.ViewerID); err != nil {
		return err
	}

	switch in.Type {
	case inboundCommand:
		return client.Viewer.Apply(Command{Command: in.Command, Value: in.Value, Environment: in.Environment})
	case inboundFullscreenChanged:
		client.Viewer.FullscreenChanged(in.Active)
	case inboundOrbit:
		client.Viewer.Orbit(in.Azimuth, in.Polar)
	default:
		return errors.New("unknown frame type")
	}
	return nil
}

func (h *Handler) wsWriter(client *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			// Send ping for heartbeat
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) viewerFromPath(w http.ResponseWriter, r *http.Request) (*Viewer, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid viewer ID")
		return nil, false
	}

	v, err := h.registry.Get(id)
	if err != nil {
		h.handleError(w, r, err)
		return nil, false
	}
	return v, true
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, ErrModelNotFound):
		errorhandler.HandleError(ctx, w, http.StatusNotFound, "MODEL_NOT_FOUND", "Model not found", err)
	case errors.Is(err, ErrViewerNotFound):
		errorhandler.HandleError(ctx, w, http.StatusNotFound, "VIEWER_NOT_FOUND", "Viewer not found", err)
	case errors.Is(err, ErrViewerGone):
		errorhandler.HandleError(ctx, w, http.StatusGone, "VIEWER_GONE", "Viewer was unmounted", err)
	case errors.Is(err, ErrTooManyViewers):
		errorhandler.HandleError(ctx, w, http.StatusTooManyRequests, "TOO_MANY_VIEWERS", "Too many viewers are open, try again later", err)
	case errors.Is(err, ErrMountRateLimited):
		errorhandler.HandleError(ctx, w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many viewers opened, slow down", err)
	case errors.Is(err, ErrMissingValue), errors.Is(err, ErrInvalidEnvironment):
		errorhandler.HandleError(ctx, w, http.StatusUnprocessableEntity, "INVALID_COMMAND", err.Error(), err)
	case errors.Is(err, ErrUnknownCommand):
		errorhandler.HandleError(ctx, w, http.StatusBadRequest, "UNKNOWN_COMMAND", err.Error(), err)
	default:
		errorhandler.HandleError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
	}
}

// clientIP is the mount limiter key. RealIP has already rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
