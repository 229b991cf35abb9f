// Package material implements the closed set of surface materials as a tagged
// variant. Every operation switches on Kind, so a Material is a plain value
// that can be stored in a slice and indexed by SDF primitives.
package material

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
)

// Kind tags the variant held by a Material
type Kind uint8

const (
	Diffuse Kind = iota
	Specular
	Dielectric
	Emissive
)

func (k Kind) String() string {
	switch k {
	case Diffuse:
		return "diffuse"
	case Specular:
		return "specular"
	case Dielectric:
		return "dielectric"
	case Emissive:
		return "emissive"
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Material is a surface response. Only the fields used by Kind are meaningful.
type Material struct {
	Kind            Kind
	Albedo          core.Vec3 // diffuse reflectance or specular tint
	Fuzz            float64   // specular perturbation radius in [0, 1]
	RefractiveIndex float64   // dielectric index of refraction
	Emission        core.Vec3 // emitted radiance
}

// NewDiffuse creates a Lambertian material
func NewDiffuse(albedo core.Vec3) Material {
	return Material{Kind: Diffuse, Albedo: albedo}
}

// NewSpecular creates a mirror-like metal. Fuzz is clamped to [0, 1].
func NewSpecular(albedo core.Vec3, fuzz float64) Material {
	return Material{Kind: Specular, Albedo: albedo, Fuzz: math.Max(0, math.Min(1, fuzz))}
}

// NewDielectric creates a clear refracting material such as glass
func NewDielectric(refractiveIndex float64) Material {
	return Material{Kind: Dielectric, RefractiveIndex: refractiveIndex}
}

// NewEmissive creates a material that emits light and absorbs everything it receives
func NewEmissive(emission core.Vec3) Material {
	return Material{Kind: Emissive, Emission: emission}
}

// ErrInvalidMaterial is returned by Validate
var ErrInvalidMaterial = errors.New("invalid material")

// Validate checks the parameters for the material's kind
func (m Material) Validate() error {
	switch m.Kind {
	case Diffuse, Specular:
		if !m.Albedo.IsValidRadiance() || m.Albedo.MaxComponent() > 1 {
			return fmt.Errorf("%w: %s albedo %v must lie in [0, 1]", ErrInvalidMaterial, m.Kind, m.Albedo)
		}
	case Dielectric:
		if m.RefractiveIndex <= 0 {
			return fmt.Errorf("%w: refractive index %g must be positive", ErrInvalidMaterial, m.RefractiveIndex)
		}
	case Emissive:
		if !m.Emission.IsValidRadiance() {
			return fmt.Errorf("%w: emission %v must be finite and non-negative", ErrInvalidMaterial, m.Emission)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidMaterial, m.Kind)
	}
	return nil
}

// IsDelta reports whether the material scatters only into discrete directions,
// so light sampling cannot contribute through it
func (m Material) IsDelta() bool {
	return m.Kind == Specular || m.Kind == Dielectric
}

// SurfaceInteraction is the local geometry at a shading point
type SurfaceInteraction struct {
	Point     core.Vec3 // Point of intersection
	Normal    core.Vec3 // Normal facing the incoming ray
	FrontFace bool      // Whether the ray arrived from outside the surface
}

// NewSurfaceInteraction orients the outward normal against the incoming direction
func NewSurfaceInteraction(point, outwardNormal, incoming core.Vec3) SurfaceInteraction {
	si := SurfaceInteraction{Point: point, FrontFace: incoming.Dot(outwardNormal) < 0}
	if si.FrontFace {
		si.Normal = outwardNormal
	} else {
		si.Normal = outwardNormal.Negate()
	}
	return si
}

// ScatterResult is a sampled continuation direction
type ScatterResult struct {
	Direction core.Vec3 // unit outgoing direction
	Weight    core.Vec3 // f·cosθ/pdf, the throughput multiplier
	PDF       float64   // solid-angle density; zero for delta lobes
}

// IsSpecular returns true if this is specular scattering (no PDF)
func (s ScatterResult) IsSpecular() bool {
	return s.PDF <= 0
}

// Sample draws a continuation direction for a ray travelling along incoming.
// It returns false when the path is absorbed.
func (m Material) Sample(incoming core.Vec3, si SurfaceInteraction, sampler core.Sampler) (ScatterResult, bool) {
	switch m.Kind {
	case Diffuse:
		dir := core.SampleCosineHemisphere(si.Normal, sampler.Get2D())
		cosTheta := dir.Dot(si.Normal)
		if cosTheta <= 0 {
			return ScatterResult{}, false
		}
		// f·cos/pdf = (ρ/π)·cos / (cos/π)
		return ScatterResult{Direction: dir, Weight: m.Albedo, PDF: cosTheta / math.Pi}, true

	case Specular:
		dir := incoming.Reflect(si.Normal)
		if m.Fuzz > 0 {
			inSphere := core.SampleOnUnitSphere(sampler.Get2D()).Multiply(math.Cbrt(sampler.Get1D()))
			dir = dir.Add(inSphere.Multiply(m.Fuzz))
		}
		if dir.Dot(si.Normal) <= 0 || dir.IsZero() {
			return ScatterResult{}, false
		}
		return ScatterResult{Direction: dir.Normalize(), Weight: m.Albedo}, true

	case Dielectric:
		return ScatterResult{Direction: m.sampleDielectric(incoming, si, sampler.Get1D()), Weight: core.NewVec3(1, 1, 1)}, true
	}
	return ScatterResult{}, false
}

func (m Material) sampleDielectric(incoming core.Vec3, si SurfaceInteraction, u float64) core.Vec3 {
	ratio := m.RefractiveIndex
	if si.FrontFace {
		ratio = 1 / m.RefractiveIndex
	}

	unit := incoming.Normalize()
	cosTheta := math.Min(-unit.Dot(si.Normal), 1)
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))

	if ratio*sinTheta > 1 || Reflectance(cosTheta, ratio) > u {
		return unit.Reflect(si.Normal)
	}
	return refract(unit, si.Normal, ratio).Normalize()
}

// Eval returns the BSDF value for light arriving along -outgoing and leaving
// toward -incoming. Delta lobes evaluate to zero.
func (m Material) Eval(incoming, outgoing core.Vec3, si SurfaceInteraction) core.Vec3 {
	if m.Kind != Diffuse {
		return core.Vec3{}
	}
	if outgoing.Dot(si.Normal) <= 0 {
		return core.Vec3{}
	}
	return m.Albedo.Multiply(1 / math.Pi)
}

// PDF returns the density Sample would assign to outgoing and whether the
// lobe is a delta distribution.
func (m Material) PDF(incoming, outgoing core.Vec3, si SurfaceInteraction) (float64, bool) {
	switch m.Kind {
	case Diffuse:
		cosTheta := outgoing.Dot(si.Normal)
		if cosTheta <= 0 {
			return 0, false
		}
		return cosTheta / math.Pi, false
	case Specular, Dielectric:
		return 0, true
	}
	return 0, false
}

// Emit returns the radiance emitted by the surface
func (m Material) Emit() core.Vec3 {
	if m.Kind != Emissive {
		return core.Vec3{}
	}
	return m.Emission
}
