package lights

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
	"github.com/df07/go-sdf-pathtracer/pkg/sdf"
)

// Selection is the policy for choosing one light per shading point
type Selection uint8

const (
	// SelectUniform picks every light with equal probability
	SelectUniform Selection = iota
	// SelectPower picks lights in proportion to Light.Power
	SelectPower
)

func (s Selection) String() string {
	if s == SelectPower {
		return "power"
	}
	return "uniform"
}

// LightSample is a sampled direction toward a light
type LightSample struct {
	Direction core.Vec3 // unit direction from the shading point to the light
	Distance  float64   // distance to the sampled point on the light
	Radiance  core.Vec3 // radiance arriving along Direction (intensity/d² for points)
	PDF       float64   // solid-angle density times selection probability; 1·selection for delta lights
	Light     int       // index of the selected light
	Delta     bool      // true for point lights
}

// Sampler selects and samples lights for next-event estimation. It is
// immutable after construction and safe for concurrent use.
type Sampler struct {
	lights []Light
	scene  *sdf.Scene
	pmf    []float64 // selection probability per light
	cdf    []float64 // running sum of pmf, last entry 1
	byNode map[sdf.NodeID]int
}

// NewSampler builds a sampler over lights. Emissive primitives are resolved
// against scene. An empty light list is valid and never yields samples.
func NewSampler(lights []Light, scene *sdf.Scene, selection Selection) (*Sampler, error) {
	var errs []error
	for i, l := range lights {
		if err := l.Validate(scene); err != nil {
			errs = append(errs, fmt.Errorf("light %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	weights := make([]float64, len(lights))
	total := 0.0
	for i, l := range lights {
		w := 1.0
		if selection == SelectPower {
			w = l.Power(scene)
		}
		weights[i] = w
		total += w
	}

	s := &Sampler{
		lights: lights,
		scene:  scene,
		pmf:    make([]float64, len(lights)),
		cdf:    make([]float64, len(lights)),
		byNode: make(map[sdf.NodeID]int),
	}

	running := 0.0
	for i := range lights {
		if total > 0 {
			s.pmf[i] = weights[i] / total
		} else {
			// All weights are zero, use uniform distribution
			s.pmf[i] = 1 / float64(len(lights))
		}
		running += s.pmf[i]
		s.cdf[i] = running
		if lights[i].Kind == EmissivePrimitive {
			s.byNode[lights[i].Primitive] = i
		}
	}
	if n := len(s.cdf); n > 0 {
		s.cdf[n-1] = 1
	}
	return s, nil
}

// Len returns the number of lights
func (s *Sampler) Len() int { return len(s.lights) }

// Light returns the light at index i
func (s *Sampler) Light(i int) Light { return s.lights[i] }

// Probability returns the selection probability of light i
func (s *Sampler) Probability(i int) float64 {
	if i < 0 || i >= len(s.pmf) {
		return 0
	}
	return s.pmf[i]
}

// Samples reports whether hits on primitive are already accounted for by
// light sampling, so their emission must not be added again after a
// non-specular bounce.
func (s *Sampler) Samples(primitive sdf.NodeID) bool {
	_, ok := s.byNode[primitive]
	return ok
}

// Select picks a light index with u in [0, 1)
func (s *Sampler) Select(u float64) (int, bool) {
	if len(s.cdf) == 0 {
		return -1, false
	}
	i := sort.Search(len(s.cdf), func(i int) bool { return u < s.cdf[i] })
	if i == len(s.cdf) {
		i = len(s.cdf) - 1
	}
	return i, true
}

// Sample selects a light with u and samples a direction toward it from point
// at the given time. It returns false when there are no lights or the sample
// has zero density (for example when point lies inside a sphere light).
func (s *Sampler) Sample(point core.Vec3, time float64, u float64, u2 core.Vec2) (LightSample, bool) {
	i, ok := s.Select(u)
	if !ok || s.pmf[i] <= 0 {
		return LightSample{}, false
	}
	l := &s.lights[i]

	if l.Kind == Point {
		toLight := l.Center.Subtract(point)
		dist2 := toLight.LengthSquared()
		if dist2 == 0 {
			return LightSample{}, false
		}
		dist := toLight.Length()
		return LightSample{
			Direction: toLight.Multiply(1 / dist),
			Distance:  dist,
			Radiance:  l.Emission.Multiply(1 / dist2),
			PDF:       s.pmf[i],
			Light:     i,
			Delta:     true,
		}, true
	}

	center, radius, ok := l.sphereAt(s.scene, time)
	if !ok {
		return LightSample{}, false
	}
	dir, dist, pdf, ok := sampleSphere(center, radius, point, u2)
	if !ok || pdf <= 0 {
		return LightSample{}, false
	}
	return LightSample{
		Direction: dir,
		Distance:  dist,
		Radiance:  l.Emission,
		PDF:       pdf * s.pmf[i],
		Light:     i,
	}, true
}

// String returns a string representation for debugging
func (s *Sampler) String() string {
	if len(s.lights) == 0 {
		return "Sampler{no lights}"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Sampler{%d lights:\n", len(s.lights))
	for i, l := range s.lights {
		fmt.Fprintf(&b, "  [%d] %s: %.1f%%\n", i, l.Kind, s.pmf[i]*100)
	}
	b.WriteString("}")
	return b.String()
}
