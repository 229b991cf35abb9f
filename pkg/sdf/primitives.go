package sdf

import (
	"math"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
)

func primitiveDistance(n *Node, p core.Vec3, t float64) float64 {
	local := p.Subtract(n.Center.Add(n.Velocity.Multiply(t)))
	switch n.Kind {
	case KindSphere:
		return local.Length() - n.Radius
	case KindBox:
		return boxDistance(local, n.HalfExtents)
	case KindPlane:
		return p.Dot(n.Normal) - n.Offset
	case KindTorus:
		qx := math.Hypot(local.X, local.Z) - n.Radius
		return math.Hypot(qx, local.Y) - n.MinorRadius
	case KindCylinder:
		dx := math.Hypot(local.X, local.Z) - n.Radius
		dy := math.Abs(local.Y) - n.HalfHeight
		outside := math.Hypot(math.Max(dx, 0), math.Max(dy, 0))
		return math.Min(math.Max(dx, dy), 0) + outside
	case KindMandelbulb:
		s := n.HalfSize
		return mandelbulbDistance(local.Multiply(1/s), n.Power, n.Iterations) * s
	case KindMenger:
		s := n.HalfSize
		return mengerDistance(local.Multiply(1/s), n.Iterations) * s
	}
	return math.Inf(1)
}

// boxDistance is the exact distance to a box centred at the origin
func boxDistance(p, b core.Vec3) float64 {
	q := p.Abs().Subtract(b)
	outside := q.Max(core.Vec3{}).Length()
	inside := math.Min(math.Max(q.X, math.Max(q.Y, q.Z)), 0)
	return outside + inside
}

// smoothMin is the polynomial smooth minimum with blend radius k
func smoothMin(a, b, k float64) float64 {
	h := math.Max(k-math.Abs(a-b), 0) / k
	return math.Min(a, b) - h*h*k*0.25
}

func rotateY(p core.Vec3, angle float64) core.Vec3 {
	s, c := math.Sincos(angle)
	return core.NewVec3(c*p.X+s*p.Z, p.Y, -s*p.X+c*p.Z)
}
