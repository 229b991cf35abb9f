// Package sdf holds the signed-distance scene graph. Nodes live in a flat
// arena and refer to their children by index, so subtrees can be shared
// without pointer cycles and the whole graph is a single contiguous slice.
package sdf

import (
	"errors"
	"fmt"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
)

// NodeID addresses a node in a Scene arena
type NodeID int32

// NoNode marks an absent child or an unset root
const NoNode NodeID = -1

// Kind tags the variant stored in a Node
type Kind uint8

const (
	KindSphere Kind = iota
	KindBox
	KindPlane
	KindTorus
	KindCylinder
	KindMandelbulb
	KindMenger
	KindUnion
	KindIntersection
	KindSubtraction
	KindSmoothUnion
	KindTranslate
	KindRotateY
	KindScale
)

var kindNames = [...]string{
	KindSphere:       "sphere",
	KindBox:          "box",
	KindPlane:        "plane",
	KindTorus:        "torus",
	KindCylinder:     "cylinder",
	KindMandelbulb:   "mandelbulb",
	KindMenger:       "menger",
	KindUnion:        "union",
	KindIntersection: "intersection",
	KindSubtraction:  "subtraction",
	KindSmoothUnion:  "smooth-union",
	KindTranslate:    "translate",
	KindRotateY:      "rotate-y",
	KindScale:        "scale",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// IsPrimitive reports whether nodes of this kind are leaves carrying a material
func (k Kind) IsPrimitive() bool {
	return k <= KindMenger
}

// Node is one arena entry. Only the fields relevant to Kind are meaningful.
type Node struct {
	Kind Kind
	A, B NodeID // children of operators and transforms

	Center   core.Vec3 // primitive centre, or translation offset
	Velocity core.Vec3 // linear motion per unit time

	HalfExtents core.Vec3 // box
	Normal      core.Vec3 // plane (unit length)
	Offset      float64   // plane offset along Normal

	Radius      float64 // sphere, torus major, cylinder
	MinorRadius float64 // torus
	HalfHeight  float64 // cylinder
	HalfSize    float64 // menger sponge, mandelbulb scale

	Power      float64 // mandelbulb exponent
	Iterations int     // fractal iteration count

	K               float64 // smooth-union blend radius
	Factor          float64 // uniform scale
	Angle           float64 // rotate-y base angle (radians)
	AngularVelocity float64 // rotate-y radians per unit time

	Material int // material index for primitives
}

// ErrInvalidGraph is returned by Validate for malformed arenas
var ErrInvalidGraph = errors.New("invalid sdf graph")

// Scene is an arena of primitive and operator nodes with a single root
type Scene struct {
	nodes []Node
	root  NodeID
}

// NewScene creates an empty scene with no root
func NewScene() *Scene {
	return &Scene{root: NoNode}
}

func (s *Scene) add(n Node) NodeID {
	s.nodes = append(s.nodes, n)
	return NodeID(len(s.nodes) - 1)
}

// Len returns the number of nodes in the arena
func (s *Scene) Len() int { return len(s.nodes) }

// Node returns a copy of the node with the given id
func (s *Scene) Node(id NodeID) Node { return s.nodes[id] }

// Root returns the root node id
func (s *Scene) Root() NodeID { return s.root }

// SetRoot selects the node evaluated by Distance
func (s *Scene) SetRoot(id NodeID) { s.root = id }

// Sphere adds a static sphere primitive
func (s *Scene) Sphere(center core.Vec3, radius float64, material int) NodeID {
	return s.add(Node{Kind: KindSphere, Center: center, Radius: radius, Material: material, A: NoNode, B: NoNode})
}

// MovingSphere adds a sphere whose centre moves linearly with time
func (s *Scene) MovingSphere(center, velocity core.Vec3, radius float64, material int) NodeID {
	return s.add(Node{Kind: KindSphere, Center: center, Velocity: velocity, Radius: radius, Material: material, A: NoNode, B: NoNode})
}

// Box adds an axis-aligned box primitive
func (s *Scene) Box(center, halfExtents core.Vec3, material int) NodeID {
	return s.add(Node{Kind: KindBox, Center: center, HalfExtents: halfExtents, Material: material, A: NoNode, B: NoNode})
}

// Plane adds the half-space dot(p, normal) <= offset
func (s *Scene) Plane(normal core.Vec3, offset float64, material int) NodeID {
	return s.add(Node{Kind: KindPlane, Normal: normal.Normalize(), Offset: offset, Material: material, A: NoNode, B: NoNode})
}

// Torus adds a torus lying in the XZ plane
func (s *Scene) Torus(center core.Vec3, major, minor float64, material int) NodeID {
	return s.add(Node{Kind: KindTorus, Center: center, Radius: major, MinorRadius: minor, Material: material, A: NoNode, B: NoNode})
}

// Cylinder adds a capped cylinder along the Y axis
func (s *Scene) Cylinder(center core.Vec3, radius, halfHeight float64, material int) NodeID {
	return s.add(Node{Kind: KindCylinder, Center: center, Radius: radius, HalfHeight: halfHeight, Material: material, A: NoNode, B: NoNode})
}

// Mandelbulb adds a power-N Mandelbulb fitted into a sphere of radius ~scale
func (s *Scene) Mandelbulb(center core.Vec3, scale, power float64, iterations, material int) NodeID {
	return s.add(Node{Kind: KindMandelbulb, Center: center, HalfSize: scale, Power: power, Iterations: iterations, Material: material, A: NoNode, B: NoNode})
}

// Menger adds a Menger sponge filling the cube of the given half size
func (s *Scene) Menger(center core.Vec3, halfSize float64, iterations, material int) NodeID {
	return s.add(Node{Kind: KindMenger, Center: center, HalfSize: halfSize, Iterations: iterations, Material: material, A: NoNode, B: NoNode})
}

// Union combines nodes with a hard minimum. Extra operands chain left to right.
func (s *Scene) Union(a, b NodeID, rest ...NodeID) NodeID {
	id := s.add(Node{Kind: KindUnion, A: a, B: b})
	for _, r := range rest {
		id = s.add(Node{Kind: KindUnion, A: id, B: r})
	}
	return id
}

// Intersection keeps the region inside both a and b
func (s *Scene) Intersection(a, b NodeID) NodeID {
	return s.add(Node{Kind: KindIntersection, A: a, B: b})
}

// Subtraction carves b out of a
func (s *Scene) Subtraction(a, b NodeID) NodeID {
	return s.add(Node{Kind: KindSubtraction, A: a, B: b})
}

// SmoothUnion blends a and b with blend radius k
func (s *Scene) SmoothUnion(a, b NodeID, k float64) NodeID {
	return s.add(Node{Kind: KindSmoothUnion, A: a, B: b, K: k})
}

// Translate moves child by offset + velocity*time
func (s *Scene) Translate(child NodeID, offset, velocity core.Vec3) NodeID {
	return s.add(Node{Kind: KindTranslate, A: child, B: NoNode, Center: offset, Velocity: velocity})
}

// RotateY spins child about the Y axis by angle + angularVelocity*time
func (s *Scene) RotateY(child NodeID, angle, angularVelocity float64) NodeID {
	return s.add(Node{Kind: KindRotateY, A: child, B: NoNode, Angle: angle, AngularVelocity: angularVelocity})
}

// Scale uniformly scales child about the origin
func (s *Scene) Scale(child NodeID, factor float64) NodeID {
	return s.add(Node{Kind: KindScale, A: child, B: NoNode, Factor: factor})
}

// Validate checks that the root is set, that every child refers to an earlier
// node (which makes the graph acyclic) and that primitive parameters are sane.
func (s *Scene) Validate() error {
	if s.root == NoNode || int(s.root) >= len(s.nodes) {
		return fmt.Errorf("%w: root %d not in arena of %d nodes", ErrInvalidGraph, s.root, len(s.nodes))
	}

	var errs []error
	for i, n := range s.nodes {
		id := NodeID(i)
		switch {
		case n.Kind.IsPrimitive():
			if err := validatePrimitive(n); err != nil {
				errs = append(errs, fmt.Errorf("node %d (%s): %w", id, n.Kind, err))
			}
		case n.Kind == KindTranslate || n.Kind == KindRotateY || n.Kind == KindScale:
			if n.A < 0 || n.A >= id {
				errs = append(errs, fmt.Errorf("node %d (%s): child %d must precede it", id, n.Kind, n.A))
			}
			if n.Kind == KindScale && n.Factor <= 0 {
				errs = append(errs, fmt.Errorf("node %d (scale): factor %g must be positive", id, n.Factor))
			}
		default:
			if n.A < 0 || n.A >= id || n.B < 0 || n.B >= id {
				errs = append(errs, fmt.Errorf("node %d (%s): children %d, %d must precede it", id, n.Kind, n.A, n.B))
			}
			if n.Kind == KindSmoothUnion && n.K <= 0 {
				errs = append(errs, fmt.Errorf("node %d (smooth-union): k %g must be positive", id, n.K))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidGraph, errors.Join(errs...))
	}
	return nil
}

func validatePrimitive(n Node) error {
	switch n.Kind {
	case KindSphere, KindCylinder:
		if n.Radius <= 0 {
			return fmt.Errorf("radius %g must be positive", n.Radius)
		}
	case KindBox:
		if n.HalfExtents.X < 0 || n.HalfExtents.Y < 0 || n.HalfExtents.Z < 0 {
			return fmt.Errorf("negative half extents %v", n.HalfExtents)
		}
	case KindPlane:
		if n.Normal.IsZero() {
			return errors.New("zero normal")
		}
	case KindTorus:
		if n.Radius <= 0 || n.MinorRadius <= 0 {
			return fmt.Errorf("radii %g, %g must be positive", n.Radius, n.MinorRadius)
		}
	case KindMandelbulb, KindMenger:
		if n.HalfSize <= 0 || n.Iterations <= 0 {
			return fmt.Errorf("size %g and iterations %d must be positive", n.HalfSize, n.Iterations)
		}
	}
	if n.Material < 0 {
		return fmt.Errorf("material %d must be non-negative", n.Material)
	}
	return nil
}

// Distance evaluates the scene distance at p and time t
func (s *Scene) Distance(p core.Vec3, t float64) float64 {
	d, _ := s.eval(s.root, p, t)
	return d
}

// Nearest evaluates the scene distance and reports which primitive produced it
func (s *Scene) Nearest(p core.Vec3, t float64) (float64, NodeID) {
	return s.eval(s.root, p, t)
}

// Material returns the material index of a primitive node
func (s *Scene) Material(id NodeID) int {
	return s.nodes[id].Material
}

// SphereAt returns the world centre and radius of a sphere primitive at time t.
// ok is false for other kinds.
func (s *Scene) SphereAt(id NodeID, t float64) (center core.Vec3, radius float64, ok bool) {
	if id < 0 || int(id) >= len(s.nodes) {
		return core.Vec3{}, 0, false
	}
	n := &s.nodes[id]
	if n.Kind != KindSphere {
		return core.Vec3{}, 0, false
	}
	return n.Center.Add(n.Velocity.Multiply(t)), n.Radius, true
}

// UnderTransform reports whether id is reachable from the root only through a
// transform node, in which case its own Center is not its world position.
func (s *Scene) UnderTransform(id NodeID) bool {
	var walk func(n NodeID, transformed bool) bool
	walk = func(n NodeID, transformed bool) bool {
		if n == NoNode {
			return false
		}
		if n == id {
			return transformed
		}
		node := &s.nodes[n]
		switch {
		case node.Kind.IsPrimitive():
			return false
		case node.Kind == KindTranslate || node.Kind == KindRotateY || node.Kind == KindScale:
			return walk(node.A, true)
		default:
			return walk(node.A, transformed) || walk(node.B, transformed)
		}
	}
	return walk(s.root, false)
}

func (s *Scene) eval(id NodeID, p core.Vec3, t float64) (float64, NodeID) {
	n := &s.nodes[id]
	switch n.Kind {
	case KindUnion:
		da, ia := s.eval(n.A, p, t)
		db, ib := s.eval(n.B, p, t)
		if db < da {
			return db, ib
		}
		return da, ia
	case KindIntersection:
		da, ia := s.eval(n.A, p, t)
		db, ib := s.eval(n.B, p, t)
		if db > da {
			return db, ib
		}
		return da, ia
	case KindSubtraction:
		da, ia := s.eval(n.A, p, t)
		db, ib := s.eval(n.B, p, t)
		if -db > da {
			return -db, ib
		}
		return da, ia
	case KindSmoothUnion:
		da, ia := s.eval(n.A, p, t)
		db, ib := s.eval(n.B, p, t)
		d := smoothMin(da, db, n.K)
		if db < da {
			return d, ib
		}
		return d, ia
	case KindTranslate:
		offset := n.Center.Add(n.Velocity.Multiply(t))
		return s.eval(n.A, p.Subtract(offset), t)
	case KindRotateY:
		return s.eval(n.A, rotateY(p, -(n.Angle+n.AngularVelocity*t)), t)
	case KindScale:
		d, i := s.eval(n.A, p.Multiply(1/n.Factor), t)
		return d * n.Factor, i
	default:
		return primitiveDistance(n, p, t), id
	}
}
