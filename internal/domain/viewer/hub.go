package viewer

import (
	"context"
	"encoding/json"
	"expvar"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// FrameType for WebSocket messages
type FrameType string

const (
	FrameState             FrameType = "state"
	FrameCamera            FrameType = "camera"
	FrameFullscreenRequest FrameType = "fullscreen_request"
	FrameClosed            FrameType = "closed"
	FrameError             FrameType = "error"
)

var (
	wsConnectionsGauge   = expvar.NewInt("viewer_ws_connections")
	wsFramesSentTotal    = expvar.NewInt("viewer_ws_frames_sent_total")
	wsFramesDroppedTotal = expvar.NewInt("viewer_ws_frames_dropped_total")
)

// Frame is one outgoing WebSocket message
type Frame struct {
	Type     FrameType `json:"type"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Camera   *Pose     `json:"camera,omitempty"`
	Enter    *bool     `json:"enter,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Connection represents a WebSocket connection attached to one viewer
type Connection struct {
	ViewerID uuid.UUID
	Viewer   *Viewer
	Conn     *websocket.Conn
	Send     chan []byte
}

// Hub fans viewer frames out to the connections watching each viewer
// and drives auto-rotation for viewers that are being watched.
type Hub struct {
	connections map[uuid.UUID]map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection

	tick time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a hub that advances rotating cameras every tick
func NewHub(tick time.Duration) *Hub {
	if tick <= 0 {
		tick = 50 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		connections: make(map[uuid.UUID]map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		tick:        tick,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run starts the hub (call in goroutine)
func (h *Hub) Run() {
	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-h.ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.connections[conn.ViewerID] == nil {
				h.connections[conn.ViewerID] = make(map[*Connection]bool)
			}
			h.connections[conn.ViewerID][conn] = true
			h.mu.Unlock()
			wsConnectionsGauge.Add(1)
			log.Debug().Str("viewer_id", conn.ViewerID.String()).Msg("Client connected to viewer")

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.connections[conn.ViewerID]; ok {
				if _, exists := conns[conn]; exists {
					delete(conns, conn)
					close(conn.Send)
					wsConnectionsGauge.Add(-1)
				}
				if len(conns) == 0 {
					delete(h.connections, conn.ViewerID)
				}
			}
			h.mu.Unlock()
			log.Debug().Str("viewer_id", conn.ViewerID.String()).Msg("Client disconnected from viewer")

		case now := <-ticker.C:
			h.advance(now.Sub(last))
			last = now
		}
	}
}

// advance rotates every watched viewer and pushes the new camera pose
func (h *Hub) advance(dt time.Duration) {
	h.mu.RLock()
	watched := make([]*Viewer, 0, len(h.connections))
	for _, conns := range h.connections {
		for conn := range conns {
			if conn.Viewer != nil {
				watched = append(watched, conn.Viewer)
			}
			break
		}
	}
	h.mu.RUnlock()

	for _, v := range watched {
		if pose, moved := v.Advance(dt); moved {
			h.Publish(v.ID(), &Frame{Type: FrameCamera, Camera: &pose})
		}
	}
}

// Publish sends a frame to every connection of a viewer
func (h *Hub) Publish(viewerID uuid.UUID, frame *Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal viewer frame")
		return
	}

	h.sendLocal(viewerID, data)

	if frame.Type == FrameClosed {
		go h.disconnectViewer(viewerID)
	}
}

// SendTo writes a frame to a single connection
func (h *Hub) SendTo(conn *Connection, frame *Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal viewer frame")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.connections[conn.ViewerID][conn] {
		return
	}
	h.enqueue(conn, data)
}

func (h *Hub) sendLocal(viewerID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections[viewerID] {
		h.enqueue(conn, data)
	}
}

// enqueue must be called with h.mu held so Send is not closed underneath it
func (h *Hub) enqueue(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
		wsFramesSentTotal.Add(1)
	default:
		// Buffer full, skip this frame
		wsFramesDroppedTotal.Add(1)
		log.Warn().Str("viewer_id", conn.ViewerID.String()).Msg("WebSocket send buffer full")
	}
}

func (h *Hub) disconnectViewer(viewerID uuid.UUID) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.connections[viewerID]))
	for conn := range h.connections[viewerID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.Unregister(conn)
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.ctx.Done():
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.ctx.Done():
	}
}

// ConnectionCount returns the number of connections watching a viewer
func (h *Hub) ConnectionCount(viewerID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[viewerID])
}

// Shutdown stops the hub loop
func (h *Hub) Shutdown() {
	h.cancel()
}
