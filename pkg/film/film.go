// Package film accumulates path radiance per pixel. Workers write through
// exclusively owned Regions, so accumulation needs no locking.
package film

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"sync/atomic"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
)

// AOV carries the auxiliary channels recorded with each sample
type AOV struct {
	Alpha      float64   // 1 when the camera ray hit a surface
	Normal     core.Vec3 // world normal at the first hit
	Background core.Vec3 // sky radiance seen directly by the camera ray
}

// Pixel is the running state of one pixel
type Pixel struct {
	Sum        core.Vec3
	Count      int
	Alpha      float64
	Normal     core.Vec3
	Background core.Vec3
}

// Mean returns the average radiance, or black before any sample arrives
func (p *Pixel) Mean() core.Vec3 {
	if p.Count == 0 {
		return core.Vec3{}
	}
	return p.Sum.Multiply(1.0 / float64(p.Count))
}

// ErrRegionConflict is returned when a region overlaps one already claimed
var ErrRegionConflict = errors.New("film region already claimed")

// Film is a width×height accumulation buffer
type Film struct {
	width, height int
	pixels        []Pixel
	clamped       atomic.Int64

	mu      sync.Mutex
	claimed map[*Region]struct{}
}

// New creates an empty film
func New(width, height int) *Film {
	return &Film{
		width:   width,
		height:  height,
		pixels:  make([]Pixel, width*height),
		claimed: make(map[*Region]struct{}),
	}
}

// Width returns the film width in pixels
func (f *Film) Width() int { return f.width }

// Height returns the film height in pixels
func (f *Film) Height() int { return f.height }

// PixelIndex maps image coordinates to a pixel index
func (f *Film) PixelIndex(x, y int) int { return y*f.width + x }

// Region claims exclusive write access to bounds until Release is called
func (f *Film) Region(bounds image.Rectangle) (*Region, error) {
	full := image.Rect(0, 0, f.width, f.height)
	if bounds.Empty() || !bounds.In(full) {
		return nil, fmt.Errorf("region %v outside film %v", bounds, full)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for other := range f.claimed {
		if other.bounds.Overlaps(bounds) {
			return nil, fmt.Errorf("%w: %v overlaps %v", ErrRegionConflict, bounds, other.bounds)
		}
	}
	r := &Region{film: f, bounds: bounds}
	f.claimed[r] = struct{}{}
	return r, nil
}

// Finalize returns the mean radiance of pixel
func (f *Film) Finalize(pixel int) core.Vec3 {
	return f.pixels[pixel].Mean()
}

// Clamped returns how many sample components were non-finite or negative
func (f *Film) Clamped() int64 { return f.clamped.Load() }

// Snapshot copies the film into a read-only Buffer. Call it only after every
// writer has released its region.
func (f *Film) Snapshot() *Buffer {
	n := len(f.pixels)
	b := &Buffer{
		Width:      f.width,
		Height:     f.height,
		Color:      make([]core.Vec3, n),
		Alpha:      make([]float64, n),
		Normal:     make([]core.Vec3, n),
		Background: make([]core.Vec3, n),
		Counts:     make([]int, n),
		Clamped:    f.clamped.Load(),
	}
	for i := range f.pixels {
		p := &f.pixels[i]
		b.Color[i] = p.Mean()
		b.Counts[i] = p.Count
		if p.Count > 0 {
			inv := 1.0 / float64(p.Count)
			b.Alpha[i] = p.Alpha * inv
			b.Normal[i] = p.Normal.Multiply(inv)
			b.Background[i] = p.Background.Multiply(inv)
		}
	}
	return b
}

// Region is an exclusively owned rectangle of the film
type Region struct {
	film     *Film
	bounds   image.Rectangle
	clamped  int64
	released bool
}

// Bounds returns the rectangle owned by the region
func (r *Region) Bounds() image.Rectangle { return r.bounds }

// Accumulate adds a sample to pixel. Non-finite or negative radiance
// components are replaced by zero and counted. Writing outside the region
// panics.
func (r *Region) Accumulate(pixel int, radiance core.Vec3, aov AOV) {
	x, y := pixel%r.film.width, pixel/r.film.width
	if r.released || !image.Pt(x, y).In(r.bounds) {
		panic(fmt.Sprintf("film: pixel (%d, %d) written through region %v", x, y, r.bounds))
	}

	radiance, n := sanitize(radiance)
	r.clamped += int64(n)

	p := &r.film.pixels[pixel]
	p.Sum = p.Sum.Add(radiance)
	p.Count++
	p.Alpha += aov.Alpha
	p.Normal = p.Normal.Add(aov.Normal)
	p.Background = p.Background.Add(aov.Background)
}

// Clamped returns how many components this region has clamped so far
func (r *Region) Clamped() int64 { return r.clamped }

// Release gives the rectangle back to the film
func (r *Region) Release() {
	if r.released {
		return
	}
	r.released = true
	r.film.clamped.Add(r.clamped)
	r.film.mu.Lock()
	delete(r.film.claimed, r)
	r.film.mu.Unlock()
}

func sanitize(v core.Vec3) (core.Vec3, int) {
	n := 0
	fix := func(c float64) float64 {
		if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
			n++
			return 0
		}
		return c
	}
	out := core.NewVec3(fix(v.X), fix(v.Y), fix(v.Z))
	return out, n
}
