package viewer

// MountRequest is the body of POST /api/v1/viewers
type MountRequest struct {
	Slug string `json:"slug" validate:"required,slug"`
}

// inboundFrame is a message read from a viewer WebSocket
type inboundFrame struct {
	Type        string   `json:"type"`
	Command     string   `json:"command,omitempty"`
	Value       *float64 `json:"value,omitempty"`
	Environment string   `json:"environment,omitempty"`
	Active      bool     `json:"active,omitempty"`
	Azimuth     float64  `json:"azimuth,omitempty"`
	Polar       float64  `json:"polar,omitempty"`
}

const (
	inboundCommand           = "command"
	inboundFullscreenChanged = "fullscreen_changed"
	inboundOrbit             = "orbit"
)
