package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Publisher receives frames produced by a viewer
type Publisher interface {
	Publish(viewerID uuid.UUID, frame *Frame)
}

type nopPublisher struct{}

func (nopPublisher) Publish(uuid.UUID, *Frame) {}

// Options configures a viewer instance
type Options struct {
	Loader      Loader
	Publisher   Publisher
	LoadTimeout time.Duration
	Background  string
	Logger      *zerolog.Logger
}

// Snapshot is everything a client needs to draw the viewer
type Snapshot struct {
	ID          uuid.UUID       `json:"id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Status      LoadStatus      `json:"status"`
	State       ViewerState     `json:"state"`
	Camera      Pose            `json:"camera"`
	Lights      SceneLights     `json:"lights"`
	Look        EnvironmentLook `json:"environmentLook"`
	Background  string          `json:"background"`
	Asset       *Asset          `json:"asset,omitempty"`
	Placeholder *Placeholder    `json:"placeholder,omitempty"`
}

// Viewer owns the state, camera and lights of one mounted 3D view.
// All methods are safe for concurrent use; commands apply in arrival order.
type Viewer struct {
	id    uuid.UUID
	slug  string
	title string

	loader      Loader
	publisher   Publisher
	loadTimeout time.Duration
	background  string
	log         zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   ViewerState
	camera  *OrbitCamera
	status  LoadStatus
	asset   *Asset
	closed  bool
	settled chan struct{}
}

// New creates an unmounted-on-close viewer for one model
func New(slug, title string, opts Options) *Viewer {
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 20 * time.Second
	}
	if opts.Background == "" {
		opts.Background = "#0f172a"
	}
	base := log.Logger
	if opts.Logger != nil {
		base = *opts.Logger
	}

	id := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())

	return &Viewer{
		id:          id,
		slug:        slug,
		title:       title,
		loader:      opts.Loader,
		publisher:   opts.Publisher,
		loadTimeout: opts.LoadTimeout,
		background:  opts.Background,
		log:         base.With().Str("viewer_id", id.String()).Str("slug", slug).Logger(),
		ctx:         ctx,
		cancel:      cancel,
		state:       DefaultState(),
		camera:      NewOrbitCamera(),
		status:      StatusIdle,
		settled:     make(chan struct{}),
	}
}

// ID of the viewer
func (v *Viewer) ID() uuid.UUID { return v.id }

// Slug of the model being viewed
func (v *Viewer) Slug() string { return v.slug }

// Settled is closed once the asset load has succeeded or failed
func (v *Viewer) Settled() <-chan struct{} { return v.settled }

// Initialize starts loading the asset in the background. Later calls are ignored.
// A failed load switches the viewer to the placeholder for good.
func (v *Viewer) Initialize(assetPath string) {
	v.mu.Lock()
	if v.closed || v.status != StatusIdle {
		v.mu.Unlock()
		return
	}
	v.status = StatusLoading
	v.mu.Unlock()

	v.publishState()

	go v.load(assetPath)
}

func (v *Viewer) load(assetPath string) {
	ctx, cancel := context.WithTimeout(v.ctx, v.loadTimeout)
	defer cancel()

	var (
		asset *Asset
		err   error
	)
	if v.loader == nil {
		err = errors.New("no asset loader configured")
	} else {
		asset, err = v.loader.Load(ctx, assetPath)
	}

	v.mu.Lock()
	if v.closed {
		// unmounted while loading, drop the result
		close(v.settled)
		v.mu.Unlock()
		return
	}
	if err != nil {
		v.status = StatusFailed
		v.state.HasError = true
	} else {
		v.status = StatusReady
		v.asset = asset
	}
	close(v.settled)
	v.mu.Unlock()

	if err != nil {
		v.log.Warn().Err(err).Str("asset_path", assetPath).Msg("Model asset failed to load, showing placeholder")
	} else {
		v.log.Debug().Str("asset_path", assetPath).Int64("size", asset.Size).Msg("Model asset loaded")
	}
	v.publishState()
}

// RotateToggle flips auto-rotation
func (v *Viewer) RotateToggle() {
	v.update(func() { v.state.AutoRotate = !v.state.AutoRotate })
}

// ZoomIn moves the camera closer by one step
func (v *Viewer) ZoomIn() {
	v.update(func() { v.camera.Dolly(ZoomStep) })
}

// ZoomOut moves the camera away by one step
func (v *Viewer) ZoomOut() {
	v.update(func() { v.camera.Dolly(1 / ZoomStep) })
}

// ResetView restores the default controls and the initial camera pose.
// The error flag and fullscreen mirror are left alone.
func (v *Viewer) ResetView() {
	v.update(func() {
		def := DefaultState()
		v.state.AutoRotate = def.AutoRotate
		v.state.LightingIntensity = def.LightingIntensity
		v.state.ModelScale = def.ModelScale
		v.state.Environment = def.Environment
		v.camera.Reset()
	})
}

// SetFrontView moves the camera to the front pose
func (v *Viewer) SetFrontView() {
	v.update(func() { v.camera.Front() })
}

// SetLightingIntensity clamps and applies a lighting level
func (v *Viewer) SetLightingIntensity(value float64) {
	v.update(func() {
		v.state.LightingIntensity = clamp(value, MinLightingIntensity, MaxLightingIntensity)
	})
}

// CycleLighting steps to the next preset lighting level
func (v *Viewer) CycleLighting() {
	v.update(func() {
		v.state.LightingIntensity = nextStep(LightingSteps, v.state.LightingIntensity)
	})
}

// SetEnvironment swaps the environment preset
func (v *Viewer) SetEnvironment(env Environment) error {
	if !env.Valid() {
		return ErrInvalidEnvironment
	}
	v.update(func() { v.state.Environment = env })
	return nil
}

// CycleEnvironment steps to the next environment preset
func (v *Viewer) CycleEnvironment() {
	v.update(func() { v.state.Environment = v.state.Environment.Next() })
}

// SetModelScale clamps and applies the model scale
func (v *Viewer) SetModelScale(value float64) {
	v.update(func() {
		v.state.ModelScale = clamp(value, MinModelScale, MaxModelScale)
	})
}

// ToggleFullscreen asks the client to enter or leave fullscreen.
// The state only changes when the client reports back through FullscreenChanged.
func (v *Viewer) ToggleFullscreen() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	enter := !v.state.IsFullscreen
	v.mu.Unlock()

	v.publisher.Publish(v.id, &Frame{Type: FrameFullscreenRequest, Enter: &enter})
}

// FullscreenChanged records the fullscreen state reported by the client
func (v *Viewer) FullscreenChanged(active bool) {
	v.update(func() { v.state.IsFullscreen = active })
}

// Orbit applies a manual drag in radians
func (v *Viewer) Orbit(azimuth, polar float64) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.camera.Orbit(azimuth, polar)
	pose := v.camera.Pose()
	v.mu.Unlock()

	v.publisher.Publish(v.id, &Frame{Type: FrameCamera, Camera: &pose})
}

// Advance moves an auto-rotating camera by dt and reports whether it moved
func (v *Viewer) Advance(dt time.Duration) (Pose, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || !v.state.AutoRotate || dt <= 0 {
		return v.camera.Pose(), false
	}
	v.camera.Orbit(-AutoRotateSpeed*dt.Seconds(), 0)
	return v.camera.Pose(), true
}

// State returns a copy of the viewer state
func (v *Viewer) State() ViewerState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Snapshot returns the full client view
func (v *Viewer) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *Viewer) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:         v.id,
		Slug:       v.slug,
		Title:      v.title,
		Status:     v.status,
		State:      v.state,
		Camera:     v.camera.Pose(),
		Lights:     LightsFor(v.state.LightingIntensity),
		Look:       v.state.Environment.Look(),
		Background: v.background,
	}
	if v.asset != nil {
		asset := *v.asset
		snap.Asset = &asset
	}
	if v.state.HasError {
		ph := DefaultPlaceholder
		snap.Placeholder = &ph
	}
	return snap
}

// Close cancels in-flight loading and stops accepting commands
func (v *Viewer) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.cancel()
}

// Closed reports whether the viewer was unmounted
func (v *Viewer) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

func (v *Viewer) update(fn func()) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	fn()
	snap := v.snapshotLocked()
	v.mu.Unlock()

	v.publisher.Publish(v.id, &Frame{Type: FrameState, Snapshot: &snap})
}

func (v *Viewer) publishState() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	snap := v.snapshotLocked()
	v.mu.Unlock()

	v.publisher.Publish(v.id, &Frame{Type: FrameState, Snapshot: &snap})
}
