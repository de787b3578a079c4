// Package particles runs the ambient snow: a fixed pool of flakes falling
// inside a cylinder above the stand, swirling lazily around the vertical axis
// and recycled when they leave the volume.
package particles

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Config controls the snow volume. Zero values are replaced by defaults in NewField.
type Config struct {
	Count     int
	Radius    float32 // max planar distance of a respawned flake
	Height    float32 // spawn band above Floor
	Floor     float32 // flakes below Floor+FloorMargin respawn
	FallSpeed float32
	Swirl     float32 // angular speed at the center, radians per second
	Drift     float32 // max lateral speed
	Blend     float32 // per-step pull toward the orbit target
}

// FloorMargin is the height above Floor at which a flake counts as landed.
const FloorMargin float32 = 0.02

// EscapeFactor times Radius is the planar distance at which a flake is recycled.
const EscapeFactor float32 = 1.15

// DefaultConfig returns the stock snow settings.
func DefaultConfig() Config {
	return Config{
		Count:     1200,
		Radius:    3.0,
		Height:    3.2,
		Floor:     0.22,
		FallSpeed: 0.55,
		Swirl:     0.65,
		Drift:     0.22,
		Blend:     0.03,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Count <= 0 {
		c.Count = d.Count
	}
	if c.Radius <= 0 {
		c.Radius = d.Radius
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.FallSpeed <= 0 {
		c.FallSpeed = d.FallSpeed
	}
	if c.Blend <= 0 {
		c.Blend = d.Blend
	}
	return c
}

// Particle is one flake. Angle and Orbit describe the point on the swirl
// circle the flake is pulled toward; they are independent of Vel.
type Particle struct {
	Pos   [3]float32
	Vel   [3]float32
	Angle float32
	Orbit float32
}

// Field owns a fixed set of particles. Not safe for concurrent use; step it
// from the render loop.
type Field struct {
	Config    Config
	Particles []Particle
	rng       *rand.Rand
	respawns  uint64
}

// NewField returns a field with every particle freshly spawned. rng may be
// nil, in which case a time-independent default seed is used.
func NewField(cfg Config, rng *rand.Rand) *Field {
	if rng == nil {
		rng = rand.New(rand.NewPCG(0x5eed, 0x5170))
	}
	cfg = cfg.withDefaults()
	f := &Field{Config: cfg, Particles: make([]Particle, cfg.Count), rng: rng}
	for i := range f.Particles {
		f.respawn(&f.Particles[i])
	}
	f.respawns = 0
	return f
}

func (f *Field) uniform(a, b float32) float32 {
	return a + f.rng.Float32()*(b-a)
}

// respawn places p at a random point of the spawn band. The radius is
// sqrt(u)·Radius so flakes are uniform over the disk area.
func (f *Field) respawn(p *Particle) {
	c := &f.Config
	r := math32.Sqrt(f.rng.Float32()) * c.Radius
	a := f.rng.Float32() * 2 * math32.Pi
	s, co := math32.Sincos(a)

	p.Pos = [3]float32{co * r, c.Floor + f.uniform(0.5, c.Height), s * r}
	p.Vel = [3]float32{
		f.uniform(-c.Drift, c.Drift),
		-f.uniform(0.25, 1.0) * c.FallSpeed,
		f.uniform(-c.Drift, c.Drift),
	}
	p.Angle = a
	p.Orbit = r
	f.respawns++
}

// Step advances every particle by dt seconds. It does not allocate.
func (f *Field) Step(dt float32) {
	if dt <= 0 {
		return
	}
	c := &f.Config
	swirl := c.Swirl * dt
	escape := c.Radius * EscapeFactor
	landed := c.Floor + FloorMargin
	for i := range f.Particles {
		p := &f.Particles[i]
		p.Pos[0] += p.Vel[0] * dt
		p.Pos[1] += p.Vel[1] * dt
		p.Pos[2] += p.Vel[2] * dt

		p.Angle += swirl * (0.35 + 0.65*(1-p.Orbit/c.Radius))
		s, co := math32.Sincos(p.Angle)
		p.Pos[0] = rl.Lerp(p.Pos[0], co*p.Orbit, c.Blend)
		p.Pos[2] = rl.Lerp(p.Pos[2], s*p.Orbit, c.Blend)

		if math32.Hypot(p.Pos[0], p.Pos[2]) > escape || p.Pos[1] < landed {
			f.respawn(p)
		}
	}
}

// Respawns returns how many particles were recycled by Step so far.
func (f *Field) Respawns() uint64 { return f.respawns }

// Len returns the particle count.
func (f *Field) Len() int { return len(f.Particles) }

// Position returns particle i's position as a raylib vector.
func (f *Field) Position(i int) rl.Vector3 {
	p := f.Particles[i].Pos
	return rl.NewVector3(p[0], p[1], p[2])
}
