package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/brachisim/internal/dynamo"
	"github.com/san-kum/brachisim/internal/ramp"
)

// Camera is an orthographic view of the scene. Yaw and Pitch of zero look
// straight down -Z, which is the side view of the race.
type Camera struct {
	Yaw, Pitch float64
	Zoom       float64
	Center     dynamo.Vec3
	// Scale is canvas sub-pixels per metre at Zoom 1.
	Scale float64
}

func NewCamera() *Camera {
	return &Camera{Zoom: 1, Scale: 1}
}

func (c *Camera) RotateYaw(a float64) { c.Yaw += a }
func (c *Camera) RotatePitch(a float64) {
	c.Pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.Pitch+a))
}
func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Side resets the orientation to the side view.
func (c *Camera) Side() {
	c.Yaw, c.Pitch, c.Zoom = 0, 0, 1
}

// Oblique tilts the view so the three lanes separate on screen.
func (c *Camera) Oblique() {
	c.Yaw, c.Pitch = -0.45, 0.35
}

func (c *Camera) rotation() mgl64.Mat3 {
	return mgl64.Rotate3DX(c.Pitch).Mul3(mgl64.Rotate3DY(c.Yaw))
}

// Fit centres the camera on the track bounding box and chooses a scale so
// it fills a canvas of sw x sh sub-pixels.
func (c *Camera) Fit(cfg ramp.Config, sw, sh int) {
	minP := dynamo.Vec3{cfg.A.X() - 3.5, cfg.B.Y() - 0.5, 0}
	maxP := dynamo.Vec3{cfg.B.X() + 0.5, cfg.PlatformHeight() + 0.5, 0}
	c.Center = minP.Add(maxP).Mul(0.5)
	size := maxP.Sub(minP)
	c.Scale = math.Min(float64(sw)/size.X(), float64(sh)/size.Y())
}

// Project maps a world point to canvas sub-pixel coordinates.
func (c *Camera) Project(p dynamo.Vec3, sw, sh int) (int, int) {
	q := c.rotation().Mul3x1(p.Sub(c.Center))
	k := c.Scale * c.Zoom
	x := float64(sw)/2 + q.X()*k
	y := float64(sh)/2 - q.Y()*k
	return int(math.Round(x)), int(math.Round(y))
}
