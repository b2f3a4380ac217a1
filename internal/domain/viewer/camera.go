package viewer

import "math"

// Vec3 is a point in scene space
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }
func (v Vec3) Len() float64         { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

const (
	MinDistance = 3.0
	MaxDistance = 8.0

	// ZoomStep is the distance factor applied by one zoom-in
	ZoomStep = 0.9

	FieldOfView = 75.0

	// AutoRotateSpeed in radians per second; one full turn every two minutes
	AutoRotateSpeed = 2 * math.Pi / 60 * 0.5

	// polar angle stays strictly between the poles
	polarEpsilon = 1e-3
)

var (
	InitialPosition = Vec3{X: 0, Y: 0, Z: 5}
	FrontPosition   = Vec3{X: 0, Y: 0, Z: 5}
	Origin          = Vec3{}
)

// Pose is a camera position looking at a target
type Pose struct {
	Position Vec3    `json:"position"`
	Target   Vec3    `json:"target"`
	Distance float64 `json:"distance"`
	FOV      float64 `json:"fov"`
}

// OrbitCamera orbits a target at a bounded distance
type OrbitCamera struct {
	position Vec3
	target   Vec3
}

// NewOrbitCamera returns a camera in the initial pose
func NewOrbitCamera() *OrbitCamera {
	c := &OrbitCamera{}
	c.Reset()
	return c
}

// Reset restores the initial pose
func (c *OrbitCamera) Reset() {
	c.SetPose(InitialPosition, Origin)
}

// Front moves to the canonical front pose
func (c *OrbitCamera) Front() {
	c.SetPose(FrontPosition, Origin)
}

// SetPose places the camera, pulling it back into the distance bounds
func (c *OrbitCamera) SetPose(position, target Vec3) {
	c.position = position
	c.target = target
	c.setDistance(c.Distance())
}

// Distance to the target
func (c *OrbitCamera) Distance() float64 {
	return c.position.Sub(c.target).Len()
}

// Dolly multiplies the distance by factor and clamps it
func (c *OrbitCamera) Dolly(factor float64) {
	c.setDistance(c.Distance() * factor)
}

func (c *OrbitCamera) setDistance(d float64) {
	offset := c.position.Sub(c.target)
	cur := offset.Len()
	if cur == 0 {
		offset = Vec3{Z: 1}
		cur = 1
	}
	d = clamp(d, MinDistance, MaxDistance)
	c.position = c.target.Add(offset.Scale(d / cur))
}

// Orbit rotates around the target by azimuth (around the vertical axis) and polar deltas in radians
func (c *OrbitCamera) Orbit(azimuth, polar float64) {
	offset := c.position.Sub(c.target)
	r := offset.Len()
	if r == 0 {
		return
	}

	theta := math.Atan2(offset.X, offset.Z) + azimuth
	phi := math.Acos(clamp(offset.Y/r, -1, 1)) + polar
	phi = clamp(phi, polarEpsilon, math.Pi-polarEpsilon)

	c.position = c.target.Add(Vec3{
		X: r * math.Sin(phi) * math.Sin(theta),
		Y: r * math.Cos(phi),
		Z: r * math.Sin(phi) * math.Cos(theta),
	})
}

// Pose returns the current pose
func (c *OrbitCamera) Pose() Pose {
	return Pose{
		Position: c.position,
		Target:   c.target,
		Distance: c.Distance(),
		FOV:      FieldOfView,
	}
}
