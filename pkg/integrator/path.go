package integrator

import (
	"fmt"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
	"github.com/df07/go-sdf-pathtracer/pkg/film"
	"github.com/df07/go-sdf-pathtracer/pkg/material"
	"github.com/df07/go-sdf-pathtracer/pkg/medium"
	"github.com/df07/go-sdf-pathtracer/pkg/raymarch"
)

// Status is the stage a path has reached in the current generation
type Status uint8

const (
	Spawned Status = iota
	Tracing
	Shading
	Terminated
)

// Reason records why a path retired
type Reason uint8

const (
	Alive Reason = iota
	Miss
	RRKill
	MaxDepth
	LightHit
	Absorbed
	NumReasons
)

func (r Reason) String() string {
	switch r {
	case Alive:
		return "alive"
	case Miss:
		return "miss"
	case RRKill:
		return "russian-roulette"
	case MaxDepth:
		return "max-depth"
	case LightHit:
		return "light-hit"
	case Absorbed:
		return "absorbed"
	}
	return fmt.Sprintf("reason(%d)", r)
}

type vertexKind uint8

const (
	vertexNone vertexKind = iota
	vertexSurface
	vertexVolume
)

// PathState is one lane of the wavefront: a camera path in flight
type PathState struct {
	Ray        core.Ray
	Throughput core.Vec3
	Radiance   core.Vec3
	Bounce     int                // scattering events so far
	Sampler    core.StreamSampler // owned exclusively by this path
	Pixel      int
	Sample     int
	Status     Status
	Reason     Reason
	AOV        film.AOV

	// previous vertex was a delta lobe, or this is the camera ray
	specular bool

	// scratch carried between stages of one generation
	vertex   vertexKind
	hit      raymarch.Intersection
	volume   medium.Interaction
	si       material.SurfaceInteraction
	material material.Material
}

func (p *PathState) terminate(r Reason) {
	p.Status = Terminated
	p.Reason = r
}
