package animation

import (
	"math"
	"sync"

	"github.com/charmbracelet/harmonica"

	"github.com/tejashwikalptaru/soundscape/internal/ports"
	"github.com/tejashwikalptaru/soundscape/internal/render"
)

const (
	defaultDistance = 450
	minDistance     = 50
	maxDistance     = 2000
	minPolar        = 0.01
	maxPolar        = math.Pi - 0.01

	springFrequency = 6.0
	springDamping   = 1.0
	maxSpringSteps  = 4
)

// axis is one damped degree of freedom.
type axis struct {
	pos, vel, target float64
}

func (a *axis) step(s harmonica.Spring) {
	a.pos, a.vel = s.Update(a.pos, a.vel, a.target)
}

func (a *axis) snap(v float64) {
	a.pos, a.vel, a.target = v, 0, v
}

// OrbitControls orbits a camera around a target point. Input moves the
// targets and Update lets harmonica springs ease the camera towards them.
// The rig starts behind the scene looking down +z.
type OrbitControls struct {
	spring harmonica.Spring
	step   float64

	azimuth, polar, distance axis
	panX, panY               axis

	rotateEnabled bool
	panEnabled    bool
	zoomEnabled   bool

	mu sync.Mutex
}

// NewOrbitControls creates controls stepped at fps. All inputs start enabled.
func NewOrbitControls(fps int) *OrbitControls {
	if fps <= 0 {
		fps = DefaultFPS
	}
	c := &OrbitControls{
		spring:        harmonica.NewSpring(harmonica.FPS(fps), springFrequency, springDamping),
		step:          1 / float64(fps),
		rotateEnabled: true,
		panEnabled:    true,
		zoomEnabled:   true,
	}
	c.azimuth.snap(math.Pi)
	c.polar.snap(math.Pi / 2)
	c.distance.snap(defaultDistance)
	return c
}

func (c *OrbitControls) SetRotateEnabled(enabled bool) {
	c.mu.Lock()
	c.rotateEnabled = enabled
	c.mu.Unlock()
}

func (c *OrbitControls) SetPanEnabled(enabled bool) {
	c.mu.Lock()
	c.panEnabled = enabled
	c.mu.Unlock()
}

func (c *OrbitControls) SetZoomEnabled(enabled bool) {
	c.mu.Lock()
	c.zoomEnabled = enabled
	c.mu.Unlock()
}

// Rotate turns the orbit by the given radians. Ignored while rotation is disabled.
func (c *OrbitControls) Rotate(dAzimuth, dPolar float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.rotateEnabled {
		return
	}
	c.azimuth.target += dAzimuth
	c.polar.target = clamp(c.polar.target+dPolar, minPolar, maxPolar)
}

// Pan shifts the orbit target. Ignored while panning is disabled.
func (c *OrbitControls) Pan(dx, dy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.panEnabled {
		return
	}
	c.panX.target += dx
	c.panY.target += dy
}

// Zoom multiplies the orbit distance. factor < 1 moves closer.
// Ignored while zoom is disabled or for non-positive factors.
func (c *OrbitControls) Zoom(factor float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.zoomEnabled || factor <= 0 {
		return
	}
	c.distance.target = clamp(c.distance.target*factor, minDistance, maxDistance)
}

// Update advances the springs by dt seconds in fixed steps.
func (c *OrbitControls) Update(dt float64) {
	steps := int(math.Round(dt / c.step))
	steps = max(1, min(steps, maxSpringSteps))

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < steps; i++ {
		c.azimuth.step(c.spring)
		c.polar.step(c.spring)
		c.distance.step(c.spring)
		c.panX.step(c.spring)
		c.panY.step(c.spring)
	}
}

// Camera returns the current viewpoint.
func (c *OrbitControls) Camera() render.Camera {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := render.Vec3{X: c.panX.pos, Y: c.panY.pos}
	sp, cp := math.Sincos(c.polar.pos)
	sa, ca := math.Sincos(c.azimuth.pos)
	return render.Camera{
		Target: target,
		Position: render.Vec3{
			X: target.X + c.distance.pos*sp*sa,
			Y: target.Y + c.distance.pos*cp,
			Z: target.Z + c.distance.pos*sp*ca,
		},
	}
}

// Reset snaps the camera back to its starting pose.
func (c *OrbitControls) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth.snap(math.Pi)
	c.polar.snap(math.Pi / 2)
	c.distance.snap(defaultDistance)
	c.panX.snap(0)
	c.panY.snap(0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

var (
	_ ports.CameraControls = (*OrbitControls)(nil)
	_ Controls             = (*OrbitControls)(nil)
)
