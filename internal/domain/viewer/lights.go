package viewer

// Per-light multipliers of the lighting intensity
const (
	ambientFactor     = 0.4
	spotFactor        = 1.0
	pointFactor       = 0.5
	directionalFactor = 0.8
)

// SceneLights are the light intensities derived from the lighting control
type SceneLights struct {
	Ambient     float64 `json:"ambient"`
	Spot        float64 `json:"spot"`
	Point       float64 `json:"point"`
	Directional float64 `json:"directional"`
}

// LightsFor scales every light by intensity
func LightsFor(intensity float64) SceneLights {
	return SceneLights{
		Ambient:     ambientFactor * intensity,
		Spot:        spotFactor * intensity,
		Point:       pointFactor * intensity,
		Directional: directionalFactor * intensity,
	}
}
