// Package medium models participating media filling a region of the scene.
package medium

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
)

// IsotropicPhase is the phase function value for uniform scattering
const IsotropicPhase = 1 / (4 * math.Pi)

// Event is the outcome of a free-flight sample
type Event uint8

const (
	// SurfaceReached means the path crossed the whole segment without interacting
	SurfaceReached Event = iota
	// Scattered means the path scattered inside the medium
	Scattered
)

// Interaction is the result of SampleInteraction
type Interaction struct {
	Event     Event
	T         float64   // ray parameter of the scatter vertex
	Point     core.Vec3 // scatter vertex
	Direction core.Vec3 // new unit direction after scattering
	Weight    core.Vec3 // throughput multiplier
}

// Homogeneous is a medium with constant grey extinction and coloured albedo,
// confined to Bounds (or filling all space when Bounds is nil).
type Homogeneous struct {
	SigmaT float64    // extinction coefficient per unit length
	Albedo core.Vec3  // single-scatter albedo σs/σt per channel
	Bounds *core.AABB // region holding the medium; nil means unbounded
}

// ErrInvalidMedium is returned by Validate
var ErrInvalidMedium = errors.New("invalid medium")

// Validate checks the medium parameters
func (m *Homogeneous) Validate() error {
	if m.SigmaT <= 0 || math.IsInf(m.SigmaT, 0) || math.IsNaN(m.SigmaT) {
		return fmt.Errorf("%w: sigma_t %g must be positive and finite", ErrInvalidMedium, m.SigmaT)
	}
	if !m.Albedo.IsValidRadiance() || m.Albedo.MaxComponent() > 1 {
		return fmt.Errorf("%w: albedo %v must lie in [0, 1]", ErrInvalidMedium, m.Albedo)
	}
	if m.Bounds != nil && !m.Bounds.IsValid() {
		return fmt.Errorf("%w: bounds %v are inverted", ErrInvalidMedium, *m.Bounds)
	}
	return nil
}

// Contains reports whether p lies in the medium
func (m *Homogeneous) Contains(p core.Vec3) bool {
	return m.Bounds == nil || m.Bounds.Contains(p)
}

// Overlap clips the ray segment [0, length] to the medium region
func (m *Homogeneous) Overlap(ray core.Ray, length float64) (float64, float64, bool) {
	if m.Bounds == nil {
		return 0, length, length > 0
	}
	t0, t1, ok := m.Bounds.Clip(ray, 0, length)
	return t0, t1, ok && t1 > t0
}

// SampleInteraction samples a free-flight distance along the segment [0, length].
//
// Passing through returns weight 1, because the probability of reaching the
// end of the segment equals its transmittance. A scatter returns weight albedo
// and an isotropic direction.
func (m *Homogeneous) SampleInteraction(ray core.Ray, length float64, sampler core.Sampler) Interaction {
	pass := Interaction{Event: SurfaceReached, T: length, Weight: core.NewVec3(1, 1, 1)}

	t0, t1, ok := m.Overlap(ray, length)
	if !ok {
		return pass
	}

	tScatter := t0 - math.Log(1-sampler.Get1D())/m.SigmaT
	if tScatter >= t1 {
		return pass
	}

	return Interaction{
		Event:     Scattered,
		T:         tScatter,
		Point:     ray.At(tScatter),
		Direction: core.SampleOnUnitSphere(sampler.Get2D()),
		Weight:    m.Albedo,
	}
}

// Transmittance is the fraction of light crossing the segment [0, length]
func (m *Homogeneous) Transmittance(ray core.Ray, length float64) float64 {
	t0, t1, ok := m.Overlap(ray, length)
	if !ok {
		return 1
	}
	return math.Exp(-m.SigmaT * (t1 - t0))
}
