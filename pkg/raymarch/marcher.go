// Package raymarch intersects rays with signed distance fields by sphere tracing.
package raymarch

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
	"github.com/df07/go-sdf-pathtracer/pkg/sdf"
)

// Config controls the precision and cost of a march
type Config struct {
	MaxSteps        int     // step budget before a march is NonConvergent
	Epsilon         float64 // absolute hit tolerance
	RelativeEpsilon float64 // tolerance growth per unit of distance travelled
	NormalEpsilon   float64 // central-difference half width for normals
	OverRelaxation  float64 // step scale in [1, 2); 1 disables over-relaxation
}

// DefaultConfig returns settings suited to analytic primitives and shallow fractals
func DefaultConfig() Config {
	return Config{
		MaxSteps:        512,
		Epsilon:         1e-4,
		RelativeEpsilon: 1e-5,
		NormalEpsilon:   1e-4,
		OverRelaxation:  1.2,
	}
}

// ErrInvalidConfig is returned by Config.Validate
var ErrInvalidConfig = errors.New("invalid raymarch config")

// Validate checks the config for values that would stall or corrupt a march
func (c Config) Validate() error {
	var errs []error
	if c.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("max steps %d must be positive", c.MaxSteps))
	}
	if c.Epsilon <= 0 {
		errs = append(errs, fmt.Errorf("epsilon %g must be positive", c.Epsilon))
	}
	if c.RelativeEpsilon < 0 {
		errs = append(errs, fmt.Errorf("relative epsilon %g must not be negative", c.RelativeEpsilon))
	}
	if c.NormalEpsilon <= 0 {
		errs = append(errs, fmt.Errorf("normal epsilon %g must be positive", c.NormalEpsilon))
	}
	if c.OverRelaxation < 1 || c.OverRelaxation >= 2 {
		errs = append(errs, fmt.Errorf("over-relaxation %g must be in [1, 2)", c.OverRelaxation))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Status is the outcome of a march
type Status uint8

const (
	Miss Status = iota
	Hit
	NonConvergent
)

func (s Status) String() string {
	switch s {
	case Miss:
		return "miss"
	case Hit:
		return "hit"
	case NonConvergent:
		return "non-convergent"
	}
	return fmt.Sprintf("status(%d)", s)
}

// Intersection describes where a march ended
type Intersection struct {
	Status    Status
	T         float64    // ray parameter of the hit
	Point     core.Vec3  // world-space hit point
	Normal    core.Vec3  // outward unit normal (gradient of the field)
	Primitive sdf.NodeID // primitive nearest to the hit point
	Steps     int        // distance evaluations spent on the march
	Tolerance float64    // hit tolerance at T
}

// SpawnOrigin offsets the hit point off the surface toward the side dir leaves on,
// far enough that a new march from it does not immediately re-hit the surface.
func (h Intersection) SpawnOrigin(dir core.Vec3) core.Vec3 {
	offset := 2 * h.Tolerance
	if dir.Dot(h.Normal) < 0 {
		offset = -offset
	}
	return h.Point.Add(h.Normal.Multiply(offset))
}

// Marcher sphere-traces rays against one SDF scene. It holds no per-ray state
// and is safe for concurrent use.
type Marcher struct {
	scene  *sdf.Scene
	config Config
}

// NewMarcher creates a marcher over scene
func NewMarcher(scene *sdf.Scene, config Config) *Marcher {
	return &Marcher{scene: scene, config: config}
}

// Config returns the marcher's settings
func (m *Marcher) Config() Config { return m.config }

func (m *Marcher) tolerance(t float64) float64 {
	return m.config.Epsilon + m.config.RelativeEpsilon*t
}

// Intersect marches ray from t=0 up to tMax at the ray's time.
//
// The side of the surface is fixed by the sign of the field at the origin, so
// a ray that starts inside a solid finds the exit point. Over-relaxed steps
// are undone whenever the unbounding spheres of two consecutive points stop
// overlapping, after which the march continues without over-relaxation.
func (m *Marcher) Intersect(ray core.Ray, tMax float64) Intersection {
	sign := 1.0
	if m.scene.Distance(ray.Origin, ray.Time) < 0 {
		sign = -1
	}

	omega := m.config.OverRelaxation
	t := 0.0
	step := 0.0
	prevRadius := 0.0

	for steps := 1; steps <= m.config.MaxSteps; steps++ {
		p := ray.At(t)
		d, id := m.scene.Nearest(p, ray.Time)
		signed := sign * d
		radius := math.Abs(signed)

		if omega > 1 && step > 0 && (signed < 0 || radius+prevRadius < step) {
			t -= step
			step = prevRadius
			t += step
			omega = 1
			continue
		}

		tol := m.tolerance(t)
		if signed < tol {
			return Intersection{
				Status:    Hit,
				T:         t,
				Point:     p,
				Normal:    m.Normal(p, ray.Time),
				Primitive: id,
				Steps:     steps,
				Tolerance: tol,
			}
		}
		if t > tMax {
			return Intersection{Status: Miss, T: math.Inf(1), Steps: steps, Primitive: sdf.NoNode}
		}

		step = signed * omega
		prevRadius = radius
		t += step
	}

	return Intersection{Status: NonConvergent, T: math.Inf(1), Steps: m.config.MaxSteps, Primitive: sdf.NoNode}
}

// Occluded reports whether a surface lies on ray before tMax. Non-convergent
// marches count as unoccluded, matching their treatment as misses.
func (m *Marcher) Occluded(ray core.Ray, tMax float64) bool {
	hit := m.Intersect(ray, tMax)
	return hit.Status == Hit && hit.T < tMax
}

// Normal estimates the outward surface normal at p by central differences
func (m *Marcher) Normal(p core.Vec3, time float64) core.Vec3 {
	h := m.config.NormalEpsilon
	dx := m.scene.Distance(core.NewVec3(p.X+h, p.Y, p.Z), time) - m.scene.Distance(core.NewVec3(p.X-h, p.Y, p.Z), time)
	dy := m.scene.Distance(core.NewVec3(p.X, p.Y+h, p.Z), time) - m.scene.Distance(core.NewVec3(p.X, p.Y-h, p.Z), time)
	dz := m.scene.Distance(core.NewVec3(p.X, p.Y, p.Z+h), time) - m.scene.Distance(core.NewVec3(p.X, p.Y, p.Z-h), time)
	n := core.NewVec3(dx, dy, dz)
	if n.IsZero() || !n.IsFinite() {
		return core.NewVec3(0, 1, 0)
	}
	return n.Normalize()
}
