// Package integrator traces camera paths through a scene in wavefront order:
// a fixed set of lanes advances stage by stage, and finished lanes are
// refilled from a tile's work queue.
package integrator

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
)

// Settings controls path construction
type Settings struct {
	MaxDepth                  int    // Maximum path vertices
	RussianRouletteMinBounces int    // Bounces before Russian Roulette can activate
	DisableRussianRoulette    bool   // Trace every path to MaxDepth
	DisableNEE                bool   // Count emission only where paths hit it
	LaneCount                 int    // Paths in flight per wavefront
	Seed                      uint64 // Seed of every per-path random stream

	// Light samples averaged at each surface and volume vertex
	LightSamples       int
	VolumeLightSamples int
}

// MaxLightSamples bounds LightSamples and VolumeLightSamples
const MaxLightSamples = 4

// DefaultSettings returns settings for general scenes
func DefaultSettings() Settings {
	return Settings{
		MaxDepth:                  8,
		RussianRouletteMinBounces: 3,
		LaneCount:                 256,
		LightSamples:              1,
		VolumeLightSamples:        1,
	}
}

// Validate checks the settings
func (s Settings) Validate() error {
	var errs []error
	if s.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("max depth %d must be positive", s.MaxDepth))
	}
	if s.RussianRouletteMinBounces < 0 {
		errs = append(errs, fmt.Errorf("russian roulette min bounces %d must not be negative", s.RussianRouletteMinBounces))
	}
	if s.LaneCount <= 0 {
		errs = append(errs, fmt.Errorf("lane count %d must be positive", s.LaneCount))
	}
	if s.LightSamples < 1 || s.LightSamples > MaxLightSamples {
		errs = append(errs, fmt.Errorf("light samples %d must be in [1, %d]", s.LightSamples, MaxLightSamples))
	}
	if s.VolumeLightSamples < 1 || s.VolumeLightSamples > MaxLightSamples {
		errs = append(errs, fmt.Errorf("volume light samples %d must be in [1, %d]", s.VolumeLightSamples, MaxLightSamples))
	}
	return errors.Join(errs...)
}

// SurvivalProbability is the Russian Roulette continuation probability for a
// path carrying throughput
func SurvivalProbability(throughput core.Vec3) float64 {
	return math.Min(0.95, math.Max(0.05, throughput.Luminance()))
}

// Stats counts the work done by a wavefront
type Stats struct {
	Paths         int64             // Paths retired into the film
	Vertices      int64             // Shading vertices
	MarchSteps    int64             // Distance evaluations on camera and bounce rays
	NonConvergent int64             // Marches that ran out of steps
	ShadowRays    int64             // Visibility tests for light samples
	Retired       [NumReasons]int64 // Paths per termination reason
}

// Merge adds other into s
func (s *Stats) Merge(other Stats) {
	s.Paths += other.Paths
	s.Vertices += other.Vertices
	s.MarchSteps += other.MarchSteps
	s.NonConvergent += other.NonConvergent
	s.ShadowRays += other.ShadowRays
	for i := range s.Retired {
		s.Retired[i] += other.Retired[i]
	}
}
