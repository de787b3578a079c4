package scene

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Orbit limits and speeds.
const (
	MinDistance float32 = 1.2
	MaxDistance float32 = 6.2
	MinPolar    float32 = 0.25
	MaxPolar            = math32.Pi/2 - 0.07

	// AutoRotateSpeed is the idle spin in radians per second.
	AutoRotateSpeed float32 = 2 * math32.Pi / 60 * 0.85

	rotatePerPixel float32 = 0.006
	zoomPerNotch   float32 = 0.9
)

// Orbit is a turntable camera around Target: Azimuth around +Y, Polar
// measured from +Y, Distance from Target.
type Orbit struct {
	Target     rl.Vector3
	Azimuth    float32
	Polar      float32
	Distance   float32
	AutoRotate bool
}

// OrbitFrom derives an orbit from a camera position looking at target.
func OrbitFrom(position, target rl.Vector3) Orbit {
	d := rl.Vector3Subtract(position, target)
	dist := rl.Vector3Length(d)
	o := Orbit{Target: target, Distance: dist, AutoRotate: true}
	if dist > 0 {
		o.Polar = math32.Acos(rl.Clamp(d.Y/dist, -1, 1))
		o.Azimuth = math32.Atan2(d.X, d.Z)
	}
	o.clamp()
	return o
}

func (o *Orbit) clamp() {
	o.Distance = rl.Clamp(o.Distance, MinDistance, MaxDistance)
	o.Polar = rl.Clamp(o.Polar, MinPolar, MaxPolar)
}

// Rotate turns the orbit by a pointer drag of dx, dy pixels.
func (o *Orbit) Rotate(dx, dy float32) {
	o.Azimuth -= dx * rotatePerPixel
	o.Polar -= dy * rotatePerPixel
	o.clamp()
}

// Zoom moves the camera in for positive wheel notches and out for negative.
func (o *Orbit) Zoom(notches float32) {
	o.Distance *= math32.Pow(zoomPerNotch, notches)
	o.clamp()
}

// Advance applies the idle spin for dt seconds.
func (o *Orbit) Advance(dt float32) {
	if o.AutoRotate {
		o.Azimuth += AutoRotateSpeed * dt
	}
}

// Position returns the camera position for the current orbit.
func (o Orbit) Position() rl.Vector3 {
	sp, cp := math32.Sincos(o.Polar)
	sa, ca := math32.Sincos(o.Azimuth)
	return rl.NewVector3(
		o.Target.X+o.Distance*sp*sa,
		o.Target.Y+o.Distance*cp,
		o.Target.Z+o.Distance*sp*ca,
	)
}

// Apply writes position and target into cam.
func (o Orbit) Apply(cam *rl.Camera3D) {
	cam.Position = o.Position()
	cam.Target = o.Target
	cam.Up = rl.NewVector3(0, 1, 0)
}
