// Package animation samples rigid transforms over time from keyframes.
package animation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	mgl "github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
)

// Transform is a rigid placement: rotate by Orientation, then move to Position
type Transform struct {
	Position    mgl.Vec3
	Orientation mgl.Quat
}

// Identity is the transform that leaves points unchanged
func Identity() Transform {
	return Transform{Orientation: mgl.QuatIdent()}
}

// LookAt places an observer at eye facing target. Local -Z maps to the
// viewing direction, +Y to the projection of up and +X to the right.
func LookAt(eye, target, up core.Vec3) Transform {
	forward := target.Subtract(eye).Normalize()
	right := forward.Cross(up).Normalize()
	trueUp := right.Cross(forward)
	back := forward.Negate()

	basis := mgl.Mat4{
		right.X, right.Y, right.Z, 0,
		trueUp.X, trueUp.Y, trueUp.Z, 0,
		back.X, back.Y, back.Z, 0,
		0, 0, 0, 1,
	}
	return Transform{Position: ToVec(eye), Orientation: mgl.Mat4ToQuat(basis).Normalize()}
}

// PointToWorld maps a point from local to world space
func (t Transform) PointToWorld(p core.Vec3) core.Vec3 {
	return fromMgl(t.Orientation.Rotate(ToVec(p)).Add(t.Position))
}

// DirToWorld rotates a direction from local to world space
func (t Transform) DirToWorld(d core.Vec3) core.Vec3 {
	return fromMgl(t.Orientation.Rotate(ToVec(d)))
}

// Keyframe pins a transform to a point in time
type Keyframe struct {
	Time      float64
	Transform Transform
}

// Track interpolates between keyframes: positions linearly, orientations by
// spherical interpolation along the shortest arc. Times outside the keyed
// range clamp to the first or last keyframe.
type Track struct {
	keys []Keyframe
}

// ErrInvalidTrack is returned by NewTrack
var ErrInvalidTrack = errors.New("invalid animation track")

// NewTrack builds a track from keyframes in any order
func NewTrack(keys ...Keyframe) (*Track, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no keyframes", ErrInvalidTrack)
	}
	sorted := make([]Keyframe, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	for i := range sorted {
		if math.IsNaN(sorted[i].Time) || math.IsInf(sorted[i].Time, 0) {
			return nil, fmt.Errorf("%w: keyframe %d has non-finite time", ErrInvalidTrack, i)
		}
		if i > 0 && sorted[i].Time == sorted[i-1].Time {
			return nil, fmt.Errorf("%w: duplicate keyframe time %g", ErrInvalidTrack, sorted[i].Time)
		}
		sorted[i].Transform.Orientation = sorted[i].Transform.Orientation.Normalize()
	}
	return &Track{keys: sorted}, nil
}

// Static returns a track that holds a single transform at all times
func Static(t Transform) *Track {
	t.Orientation = t.Orientation.Normalize()
	return &Track{keys: []Keyframe{{Transform: t}}}
}

// At samples the track at time t
func (tr *Track) At(t float64) Transform {
	keys := tr.keys
	if len(keys) == 1 || t <= keys[0].Time {
		return keys[0].Transform
	}
	last := len(keys) - 1
	if t >= keys[last].Time {
		return keys[last].Transform
	}

	// First keyframe strictly after t
	i := sort.Search(len(keys), func(i int) bool { return keys[i].Time > t })
	a, b := keys[i-1], keys[i]
	amount := (t - a.Time) / (b.Time - a.Time)

	qa, qb := a.Transform.Orientation, b.Transform.Orientation
	if qa.Dot(qb) < 0 {
		qb = qb.Scale(-1)
	}

	return Transform{
		Position:    a.Transform.Position.Add(b.Transform.Position.Sub(a.Transform.Position).Mul(amount)),
		Orientation: mgl.QuatSlerp(qa, qb, amount).Normalize(),
	}
}

func fromMgl(v mgl.Vec3) core.Vec3 { return core.NewVec3(v[0], v[1], v[2]) }

// ToVec converts a core vector for use in keyframes
func ToVec(v core.Vec3) mgl.Vec3 { return mgl.Vec3{v.X, v.Y, v.Z} }
