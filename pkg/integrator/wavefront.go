package integrator

import (
	"github.com/df07/go-sdf-pathtracer/pkg/core"
	"github.com/df07/go-sdf-pathtracer/pkg/film"
	"github.com/df07/go-sdf-pathtracer/pkg/lights"
	"github.com/df07/go-sdf-pathtracer/pkg/material"
	"github.com/df07/go-sdf-pathtracer/pkg/medium"
	"github.com/df07/go-sdf-pathtracer/pkg/raymarch"
	"github.com/df07/go-sdf-pathtracer/pkg/scene"
)

// shadowEpsilon keeps shadow rays from reaching the light surface itself
const shadowEpsilon = 1e-3

// Wavefront advances a fixed pool of lanes through the path tracing stages.
// A Wavefront is owned by one goroutine; the scene it reads is shared.
type Wavefront struct {
	scene    *scene.Scene
	settings Settings
	lanes    []PathState
	active   []int32 // lanes in flight, in generation order
	spare    []int32 // compaction target, swapped with active
	free     []int32 // stack of idle lanes
	stats    Stats
}

// NewWavefront allocates settings.LaneCount lanes over a preprocessed scene
func NewWavefront(sc *scene.Scene, settings Settings) *Wavefront {
	n := settings.LaneCount
	w := &Wavefront{
		scene:    sc,
		settings: settings,
		lanes:    make([]PathState, n),
		active:   make([]int32, 0, n),
		spare:    make([]int32, 0, n),
		free:     make([]int32, n),
	}
	for i := range w.free {
		w.free[i] = int32(n - 1 - i)
	}
	return w
}

// Run traces every pair in queue and accumulates the results into region.
// It returns the statistics of this run only.
func (w *Wavefront) Run(queue *WorkQueue, region *film.Region) Stats {
	w.stats = Stats{}
	w.refill(queue)
	for len(w.active) > 0 {
		w.intersect()
		w.shade()
		w.bounce()
		w.roulette()
		w.compact(region)
		w.refill(queue)
	}
	return w.stats
}

// refill starts new camera paths on idle lanes
func (w *Wavefront) refill(queue *WorkQueue) {
	for len(w.free) > 0 {
		x, y, pixel, sample, ok := queue.Next()
		if !ok {
			return
		}
		lane := w.free[len(w.free)-1]
		w.free = w.free[:len(w.free)-1]

		p := &w.lanes[lane]
		*p = PathState{
			Throughput: core.NewVec3(1, 1, 1),
			Pixel:      pixel,
			Sample:     sample,
			Status:     Spawned,
			specular:   true,
		}
		p.Sampler.Reset(w.settings.Seed, pixel, sample)
		p.Ray = w.scene.Camera.GetRay(x, y, &p.Sampler)
		w.active = append(w.active, lane)
	}
}

// intersect marches every active ray and samples the medium along it
func (w *Wavefront) intersect() {
	sc := w.scene
	for _, i := range w.active {
		p := &w.lanes[i]
		p.Status = Tracing

		p.hit = sc.Marcher.Intersect(p.Ray, sc.MaxDistance)
		w.stats.MarchSteps += int64(p.hit.Steps)
		p.vertex = vertexNone
		switch p.hit.Status {
		case raymarch.Hit:
			p.vertex = vertexSurface
		case raymarch.NonConvergent:
			w.stats.NonConvergent++
		}

		if sc.Medium != nil {
			length := sc.MaxDistance
			if p.vertex == vertexSurface {
				length = p.hit.T
			}
			p.volume = sc.Medium.SampleInteraction(p.Ray, length, &p.Sampler)
			p.Throughput = p.Throughput.MultiplyVec(p.volume.Weight)
			if p.volume.Event == medium.Scattered {
				p.vertex = vertexVolume
			}
		}
		p.Status = Shading
	}
}

// shade adds emission, sky and next-event estimates at every vertex
func (w *Wavefront) shade() {
	for _, i := range w.active {
		p := &w.lanes[i]
		switch p.vertex {
		case vertexNone:
			w.shadeMiss(p)
		case vertexSurface:
			w.stats.Vertices++
			w.shadeSurface(p)
		case vertexVolume:
			w.stats.Vertices++
			w.shadeVolume(p)
		}
	}
}

func (w *Wavefront) shadeMiss(p *PathState) {
	sky := w.scene.Background(p.Ray.Direction)
	if p.Bounce == 0 {
		p.AOV.Background = sky
	}
	p.Radiance = p.Radiance.Add(p.Throughput.MultiplyVec(sky))
	p.terminate(Miss)
}

func (w *Wavefront) shadeSurface(p *PathState) {
	sc := w.scene
	hit := &p.hit
	p.material = sc.MaterialAt(hit.Primitive)
	if p.Bounce == 0 {
		p.AOV.Alpha = 1
		p.AOV.Normal = hit.Normal
	}

	if p.material.Kind == material.Emissive {
		// Light sampling already covered this emitter after diffuse bounces
		if p.specular || w.settings.DisableNEE || !sc.LightSampler.Samples(hit.Primitive) {
			p.Radiance = p.Radiance.Add(p.Throughput.MultiplyVec(p.material.Emit()))
		}
		p.terminate(LightHit)
		return
	}

	p.si = material.NewSurfaceInteraction(hit.Point, hit.Normal, p.Ray.Direction)
	if w.settings.DisableNEE || p.material.IsDelta() || w.lastVertex(p) {
		return
	}

	var sum core.Vec3
	for range w.settings.LightSamples {
		sum = sum.Add(w.surfaceLight(p))
	}
	p.Radiance = p.Radiance.Add(p.Throughput.MultiplyVec(sum).Multiply(1 / float64(w.settings.LightSamples)))
}

// surfaceLight is one light sample at the surface vertex of p, without the
// path throughput
func (w *Wavefront) surfaceLight(p *PathState) core.Vec3 {
	sc := w.scene
	ls, ok := sc.LightSampler.Sample(p.hit.Point, p.Ray.Time, p.Sampler.Get1D(), p.Sampler.Get2D())
	if !ok {
		return core.Vec3{}
	}
	cosTheta := ls.Direction.Dot(p.si.Normal)
	if cosTheta <= 0 {
		return core.Vec3{}
	}
	f := p.material.Eval(p.Ray.Direction, ls.Direction, p.si)
	if f.IsZero() {
		return core.Vec3{}
	}
	tr := w.visibility(p.hit.SpawnOrigin(ls.Direction), ls, p.Ray.Time)
	if tr <= 0 {
		return core.Vec3{}
	}
	return f.MultiplyVec(ls.Radiance).Multiply(cosTheta * tr / ls.PDF)
}

func (w *Wavefront) shadeVolume(p *PathState) {
	if w.settings.DisableNEE || w.lastVertex(p) {
		return
	}

	var sum core.Vec3
	for range w.settings.VolumeLightSamples {
		sum = sum.Add(w.volumeLight(p))
	}
	p.Radiance = p.Radiance.Add(p.Throughput.MultiplyVec(sum).Multiply(1 / float64(w.settings.VolumeLightSamples)))
}

// volumeLight is one light sample at the scatter vertex of p, without the
// path throughput
func (w *Wavefront) volumeLight(p *PathState) core.Vec3 {
	sc := w.scene
	ls, ok := sc.LightSampler.Sample(p.volume.Point, p.Ray.Time, p.Sampler.Get1D(), p.Sampler.Get2D())
	if !ok {
		return core.Vec3{}
	}
	tr := w.visibility(p.volume.Point, ls, p.Ray.Time)
	if tr <= 0 {
		return core.Vec3{}
	}
	return ls.Radiance.Multiply(medium.IsotropicPhase * tr / ls.PDF)
}

// lastVertex reports whether p may not extend past its current vertex. A
// light sample there would be a vertex beyond MaxDepth.
func (w *Wavefront) lastVertex(p *PathState) bool {
	return p.Bounce+1 >= w.settings.MaxDepth
}

// visibility returns the transmittance from origin to the sampled light
// point, zero when a surface blocks it
func (w *Wavefront) visibility(origin core.Vec3, ls lights.LightSample, time float64) float64 {
	sc := w.scene
	w.stats.ShadowRays++
	ray := core.NewRayAt(origin, ls.Direction, time)

	light := sc.LightSampler.Light(ls.Light)
	if light.Kind == lights.EmissivePrimitive {
		// The emitter is part of the field, so reaching it is not a blocker
		hit := sc.Marcher.Intersect(ray, ls.Distance+shadowEpsilon)
		if hit.Status == raymarch.Hit && hit.Primitive != light.Primitive {
			return 0
		}
	} else if sc.Marcher.Occluded(ray, ls.Distance-shadowEpsilon) {
		return 0
	}

	if sc.Medium != nil {
		return sc.Medium.Transmittance(ray, ls.Distance)
	}
	return 1
}

// bounce samples the continuation direction of every surviving path
func (w *Wavefront) bounce() {
	for _, i := range w.active {
		p := &w.lanes[i]
		if p.Status == Terminated {
			continue
		}
		if w.lastVertex(p) {
			p.terminate(MaxDepth)
			continue
		}

		switch p.vertex {
		case vertexVolume:
			// Isotropic phase sampling: phase/pdf is 1
			p.Ray = core.NewRayAt(p.volume.Point, p.volume.Direction, p.Ray.Time)
			p.specular = false
		case vertexSurface:
			scatter, ok := p.material.Sample(p.Ray.Direction, p.si, &p.Sampler)
			if !ok {
				p.terminate(Absorbed)
				continue
			}
			p.Throughput = p.Throughput.MultiplyVec(scatter.Weight)
			p.Ray = core.NewRayAt(p.hit.SpawnOrigin(scatter.Direction), scatter.Direction, p.Ray.Time)
			p.specular = scatter.IsSpecular()
		}
		p.Bounce++

		if !p.Throughput.IsValidRadiance() || p.Throughput.IsZero() {
			p.terminate(Absorbed)
			continue
		}
		p.Status = Spawned
	}
}

// roulette randomly retires low-throughput paths and reweights survivors
func (w *Wavefront) roulette() {
	if w.settings.DisableRussianRoulette {
		return
	}
	for _, i := range w.active {
		p := &w.lanes[i]
		if p.Status == Terminated || p.Bounce < w.settings.RussianRouletteMinBounces {
			continue
		}
		q := SurvivalProbability(p.Throughput)
		if p.Sampler.Get1D() >= q {
			p.terminate(RRKill)
			continue
		}
		p.Throughput = p.Throughput.Multiply(1 / q)
	}
}

// compact retires finished paths into the film and packs the survivors
func (w *Wavefront) compact(region *film.Region) {
	w.spare = w.spare[:0]
	for _, i := range w.active {
		p := &w.lanes[i]
		if p.Status != Terminated {
			w.spare = append(w.spare, i)
			continue
		}
		region.Accumulate(p.Pixel, p.Radiance, p.AOV)
		w.stats.Paths++
		w.stats.Retired[p.Reason]++
		w.free = append(w.free, i)
	}
	w.active, w.spare = w.spare, w.active
}
