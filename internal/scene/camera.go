package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is the preview (non-immersive) viewpoint. During a session the
// runtime supplies the head pose instead.
type Camera struct {
	*Node
	Fov  float64 // vertical, degrees
	Near float64
	Far  float64
	Zoom float64
}

func NewCamera(fov, near, far float64) *Camera {
	return &Camera{
		Node: NewNode("camera", KindGroup),
		Fov:  fov,
		Near: near,
		Far:  far,
		Zoom: 1,
	}
}

// LookAt orients the camera so its -Z axis points at target.
func (c *Camera) LookAt(target mgl64.Vec3) {
	dir := target.Sub(c.Position)
	if dir.Len() == 0 {
		return
	}
	up := mgl64.Vec3{0, 1, 0}
	if math.Abs(dir.Normalize().Dot(up)) > 1-1e-9 {
		up = mgl64.Vec3{0, 0, -1}
	}
	// The view matrix maps world to eye space; its inverse is the camera pose.
	view := mgl64.LookAtV(c.Position, target, up)
	c.Rotation = mgl64.Mat4ToQuat(view.Inv()).Normalize()
}

// AutoRotateSpeed converts an auto-rotate rate, where 2 completes one orbit
// every 30 seconds, to radians per second.
func AutoRotateSpeed(rate float64) float64 {
	return rate * 2 * math.Pi / 60
}

// Orbit auto-rotates a camera around a target on the horizontal plane,
// keeping its distance and height.
type Orbit struct {
	Target     mgl64.Vec3
	AutoRotate bool
	// Speed is in radians per second.
	Speed float64
}

// Update advances the orbit by dt seconds and re-aims the camera.
func (o *Orbit) Update(c *Camera, dt float64) {
	if o.AutoRotate && o.Speed != 0 && dt > 0 {
		offset := c.Position.Sub(o.Target)
		angle := o.Speed * dt
		sin, cos := math.Sincos(angle)
		x := offset.X()*cos + offset.Z()*sin
		z := -offset.X()*sin + offset.Z()*cos
		c.Position = o.Target.Add(mgl64.Vec3{x, offset.Y(), z})
	}
	c.LookAt(o.Target)
}
