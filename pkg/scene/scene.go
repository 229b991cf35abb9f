package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-sdf-pathtracer/pkg/camera"
	"github.com/df07/go-sdf-pathtracer/pkg/core"
	"github.com/df07/go-sdf-pathtracer/pkg/lights"
	"github.com/df07/go-sdf-pathtracer/pkg/material"
	"github.com/df07/go-sdf-pathtracer/pkg/medium"
	"github.com/df07/go-sdf-pathtracer/pkg/raymarch"
	"github.com/df07/go-sdf-pathtracer/pkg/sdf"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name           string
	SDF            *sdf.Scene          // Geometry
	Materials      []material.Material // Indexed by sdf.Node.Material
	Lights         []lights.Light      // Emitters available to light sampling
	LightSelection lights.Selection    // Policy for picking one light per shading point
	Medium         *medium.Homogeneous // Optional participating medium
	CameraConfig   camera.Config
	MarchConfig    raymarch.Config
	TopColor       core.Vec3 // Sky colour straight up
	BottomColor    core.Vec3 // Sky colour straight down
	MaxDistance    float64   // Rays travelling further than this escape to the sky
	SamplingConfig SamplingConfig

	// Filled in by Preprocess
	Camera       *camera.Camera
	Marcher      *raymarch.Marcher
	LightSampler *lights.Sampler
}

// SamplingConfig holds the render settings a scene suggests for itself
type SamplingConfig struct {
	SamplesPerPixel           int // Number of rays per pixel
	MaxDepth                  int // Maximum path vertices
	RussianRouletteMinBounces int // Minimum bounces before Russian Roulette can activate
}

// DefaultMaxDistance bounds camera and bounce rays
const DefaultMaxDistance = 100.0

// New creates an empty scene with an arena ready for geometry
func New(name string) *Scene {
	return &Scene{
		Name:        name,
		SDF:         sdf.NewScene(),
		MarchConfig: raymarch.DefaultConfig(),
		MaxDistance: DefaultMaxDistance,
		TopColor:    core.NewVec3(0.5, 0.7, 1.0),
		BottomColor: core.NewVec3(1.0, 1.0, 1.0),
		SamplingConfig: SamplingConfig{
			SamplesPerPixel:           64,
			MaxDepth:                  8,
			RussianRouletteMinBounces: 3,
		},
	}
}

// AddMaterial appends a material and returns its index
func (s *Scene) AddMaterial(m material.Material) int {
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1
}

// AddSphereLight adds a spherical light. It is only reached through light
// sampling and does not occlude anything.
func (s *Scene) AddSphereLight(center core.Vec3, radius float64, emission core.Vec3) {
	s.Lights = append(s.Lights, lights.NewSphereLight(center, radius, emission))
}

// AddPointLight adds a point light with the given intensity
func (s *Scene) AddPointLight(position, intensity core.Vec3) {
	s.Lights = append(s.Lights, lights.NewPointLight(position, intensity))
}

// AddEmissiveSphere adds a visible emissive sphere, possibly moving, and
// registers it for light sampling. The returned node must not be placed under
// a transform.
func (s *Scene) AddEmissiveSphere(center, velocity core.Vec3, radius float64, emission core.Vec3) sdf.NodeID {
	mat := s.AddMaterial(material.NewEmissive(emission))
	id := s.SDF.MovingSphere(center, velocity, radius, mat)
	s.Lights = append(s.Lights, lights.NewEmissivePrimitive(id, emission))
	return id
}

// Background returns the sky radiance seen along dir
func (s *Scene) Background(dir core.Vec3) core.Vec3 {
	t := 0.5 * (dir.Normalize().Y + 1.0)
	return s.BottomColor.Multiply(1.0 - t).Add(s.TopColor.Multiply(t))
}

// ErrInvalidScene wraps every error returned by Validate and Preprocess
var ErrInvalidScene = errors.New("invalid scene")

// Validate checks that the scene is self-consistent
func (s *Scene) Validate() error {
	var errs []error
	if s.SDF == nil {
		errs = append(errs, errors.New("no geometry"))
	} else {
		if err := s.SDF.Validate(); err != nil {
			errs = append(errs, err)
		}
		for i := 0; i < s.SDF.Len(); i++ {
			n := s.SDF.Node(sdf.NodeID(i))
			if n.Kind.IsPrimitive() && n.Material >= len(s.Materials) {
				errs = append(errs, fmt.Errorf("node %d uses material %d of %d", i, n.Material, len(s.Materials)))
			}
		}
	}
	for i, m := range s.Materials {
		if err := m.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("material %d: %w", i, err))
		}
	}
	if s.Medium != nil {
		if err := s.Medium.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.MarchConfig.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := s.CameraConfig.Validate(); err != nil {
		errs = append(errs, err)
	}
	if s.MaxDistance <= 0 {
		errs = append(errs, fmt.Errorf("max distance %g must be positive", s.MaxDistance))
	}
	if !s.TopColor.IsValidRadiance() || !s.BottomColor.IsValidRadiance() {
		errs = append(errs, fmt.Errorf("sky colours %v, %v must be finite and non-negative", s.TopColor, s.BottomColor))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %w", ErrInvalidScene, s.Name, errors.Join(errs...))
	}
	return nil
}

// Preprocess validates the scene and builds the camera, marcher and light
// sampler used during rendering
func (s *Scene) Preprocess() error {
	if err := s.Validate(); err != nil {
		return err
	}

	cam, err := camera.New(s.CameraConfig)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidScene, s.Name, err)
	}
	sampler, err := lights.NewSampler(s.Lights, s.SDF, s.LightSelection)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidScene, s.Name, err)
	}

	s.Camera = cam
	s.LightSampler = sampler
	s.Marcher = raymarch.NewMarcher(s.SDF, s.MarchConfig)
	return nil
}

// MaterialAt returns the material of a primitive node
func (s *Scene) MaterialAt(id sdf.NodeID) material.Material {
	return s.Materials[s.SDF.Material(id)]
}
