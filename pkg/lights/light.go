// Package lights implements the emitters used for next-event estimation and
// the policy that picks one of them per shading point.
package lights

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
	"github.com/df07/go-sdf-pathtracer/pkg/sdf"
)

// Kind tags the variant held by a Light
type Kind uint8

const (
	// Sphere is a standalone spherical emitter. It is not part of the SDF
	// scene, so camera and bounce rays never see it.
	Sphere Kind = iota
	// Point is an infinitesimal emitter with intensity in Emission
	Point
	// EmissivePrimitive samples an emissive sphere primitive of the SDF scene
	EmissivePrimitive
)

func (k Kind) String() string {
	switch k {
	case Sphere:
		return "sphere"
	case Point:
		return "point"
	case EmissivePrimitive:
		return "emissive-primitive"
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Light is one emitter. Only the fields used by Kind are meaningful.
type Light struct {
	Kind      Kind
	Center    core.Vec3  // sphere centre or point position
	Radius    float64    // sphere radius
	Emission  core.Vec3  // radiance for spheres, intensity for points
	Primitive sdf.NodeID // SDF sphere for EmissivePrimitive
}

// NewSphereLight creates a spherical area light
func NewSphereLight(center core.Vec3, radius float64, emission core.Vec3) Light {
	return Light{Kind: Sphere, Center: center, Radius: radius, Emission: emission, Primitive: sdf.NoNode}
}

// NewPointLight creates a point light with the given radiant intensity
func NewPointLight(position, intensity core.Vec3) Light {
	return Light{Kind: Point, Center: position, Emission: intensity, Primitive: sdf.NoNode}
}

// NewEmissivePrimitive makes an emissive SDF sphere available to light sampling
func NewEmissivePrimitive(primitive sdf.NodeID, emission core.Vec3) Light {
	return Light{Kind: EmissivePrimitive, Emission: emission, Primitive: primitive}
}

// ErrInvalidLight is returned by Validate
var ErrInvalidLight = errors.New("invalid light")

// Validate checks the light against the scene it will be sampled in
func (l Light) Validate(scene *sdf.Scene) error {
	if !l.Emission.IsValidRadiance() {
		return fmt.Errorf("%w: %s emission %v must be finite and non-negative", ErrInvalidLight, l.Kind, l.Emission)
	}
	switch l.Kind {
	case Sphere:
		if l.Radius <= 0 {
			return fmt.Errorf("%w: sphere radius %g must be positive", ErrInvalidLight, l.Radius)
		}
	case Point:
	case EmissivePrimitive:
		if scene == nil {
			return fmt.Errorf("%w: emissive primitive %d without a scene", ErrInvalidLight, l.Primitive)
		}
		if _, _, ok := scene.SphereAt(l.Primitive, 0); !ok {
			return fmt.Errorf("%w: emissive primitive %d is not a sphere", ErrInvalidLight, l.Primitive)
		}
		if scene.UnderTransform(l.Primitive) {
			return fmt.Errorf("%w: emissive primitive %d sits below a transform node", ErrInvalidLight, l.Primitive)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidLight, l.Kind)
	}
	return nil
}

// Power is the selection weight used by power-proportional selection:
// emission luminance times emitting area (4π for points)
func (l Light) Power(scene *sdf.Scene) float64 {
	lum := l.Emission.Luminance()
	switch l.Kind {
	case Sphere:
		return lum * 4 * math.Pi * l.Radius * l.Radius
	case Point:
		return lum * 4 * math.Pi
	case EmissivePrimitive:
		_, r, ok := scene.SphereAt(l.Primitive, 0)
		if !ok {
			return 0
		}
		return lum * 4 * math.Pi * r * r
	}
	return 0
}

// sphereAt returns the light's sphere at the given time
func (l Light) sphereAt(scene *sdf.Scene, time float64) (core.Vec3, float64, bool) {
	if l.Kind == EmissivePrimitive {
		return scene.SphereAt(l.Primitive, time)
	}
	return l.Center, l.Radius, l.Kind == Sphere
}

// sampleSphere picks a direction uniformly inside the cone subtended by the
// sphere and returns the distance to the visible surface point along it.
// It fails when p is inside the sphere.
func sampleSphere(center core.Vec3, radius float64, p core.Vec3, sample core.Vec2) (dir core.Vec3, dist, pdf float64, ok bool) {
	toCenter := center.Subtract(p)
	dist2 := toCenter.LengthSquared()
	r2 := radius * radius
	if dist2 <= r2 {
		return core.Vec3{}, 0, 0, false
	}

	distCenter := math.Sqrt(dist2)
	cosThetaMax := math.Sqrt(math.Max(0, 1-r2/dist2))
	w := toCenter.Multiply(1 / distCenter)
	dir = core.SampleCone(w, cosThetaMax, sample)

	// Nearest root of |p + s·dir - center| = radius
	cosTheta := dir.Dot(w)
	sin2 := math.Max(0, 1-cosTheta*cosTheta)
	dist = distCenter*cosTheta - math.Sqrt(math.Max(0, r2-dist2*sin2))

	return dir, dist, core.UniformConePDF(cosThetaMax), true
}
