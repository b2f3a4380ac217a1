package viewer

// Environment is an image-based lighting preset
type Environment string

const (
	EnvironmentCity   Environment = "city"
	EnvironmentStudio Environment = "studio"
	EnvironmentSunset Environment = "sunset"
	EnvironmentDawn   Environment = "dawn"
)

// Environments in cycle order
var Environments = []Environment{
	EnvironmentCity,
	EnvironmentStudio,
	EnvironmentSunset,
	EnvironmentDawn,
}

// Valid reports whether e is one of the known presets
func (e Environment) Valid() bool {
	for _, known := range Environments {
		if e == known {
			return true
		}
	}
	return false
}

// Next returns the preset after e, wrapping around
func (e Environment) Next() Environment {
	for i, known := range Environments {
		if e == known {
			return Environments[(i+1)%len(Environments)]
		}
	}
	return Environments[0]
}

// EnvironmentLook is the image-based light a preset produces.
// Sky and Ground are the gradient the environment map is baked from.
type EnvironmentLook struct {
	Sky       string  `json:"sky"`
	Ground    string  `json:"ground"`
	Tint      string  `json:"tint"`
	Intensity float64 `json:"intensity"`
}

var environmentLooks = map[Environment]EnvironmentLook{
	EnvironmentCity:   {Sky: "#9fb4d1", Ground: "#4a4f57", Tint: "#8ea4c8", Intensity: 1.0},
	EnvironmentStudio: {Sky: "#ffffff", Ground: "#d4d4d8", Tint: "#ffffff", Intensity: 0.8},
	EnvironmentSunset: {Sky: "#ffb07a", Ground: "#3b2a3f", Tint: "#ffb07a", Intensity: 1.2},
	EnvironmentDawn:   {Sky: "#d9c2ff", Ground: "#6b6f8f", Tint: "#d9c2ff", Intensity: 0.9},
}

// Look returns the lighting of e, falling back to the default preset
func (e Environment) Look() EnvironmentLook {
	if look, ok := environmentLooks[e]; ok {
		return look
	}
	return environmentLooks[DefaultEnvironment]
}

const (
	DefaultLightingIntensity = 0.6
	MinLightingIntensity     = 0.1
	MaxLightingIntensity     = 2.0

	DefaultModelScale = 1.0
	MinModelScale     = 0.5
	MaxModelScale     = 3.0

	DefaultEnvironment = EnvironmentCity
)

// LightingSteps is the ordered set cycled by the lighting button
var LightingSteps = []float64{0.3, 0.6, 1.0, 1.5}

// ViewerState is the user-adjustable state of one mounted viewer.
// It lives as long as the viewer and is never persisted.
type ViewerState struct {
	AutoRotate        bool        `json:"autoRotate"`
	LightingIntensity float64     `json:"lightingIntensity"`
	ModelScale        float64     `json:"modelScale"`
	Environment       Environment `json:"environment"`
	HasError          bool        `json:"hasError"`
	IsFullscreen      bool        `json:"isFullscreen"`
}

// DefaultState returns the state of a freshly mounted viewer
func DefaultState() ViewerState {
	return ViewerState{
		AutoRotate:        true,
		LightingIntensity: DefaultLightingIntensity,
		ModelScale:        DefaultModelScale,
		Environment:       DefaultEnvironment,
	}
}

// LoadStatus tracks the asset load
type LoadStatus string

const (
	StatusIdle    LoadStatus = "idle"
	StatusLoading LoadStatus = "loading"
	StatusReady   LoadStatus = "ready"
	StatusFailed  LoadStatus = "failed"
)

// Placeholder is drawn in place of an asset that failed to load
type Placeholder struct {
	Label  string  `json:"label"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
	Color  string  `json:"color"`
}

// DefaultPlaceholder is the labeled box shown after a load failure
var DefaultPlaceholder = Placeholder{
	Label:  "3D Model Preview",
	Width:  2,
	Height: 3,
	Depth:  1,
	Color:  "#8B5CF6",
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// nextStep returns the first step strictly above v, wrapping to the lowest
func nextStep(steps []float64, v float64) float64 {
	for _, s := range steps {
		if s > v+1e-9 {
			return s
		}
	}
	return steps[0]
}
