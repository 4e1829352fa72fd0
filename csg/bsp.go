// Package csg implements boolean operations on polyhedral solids using
// binary space partitioning trees of convex polygons.
package csg

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/polycsg/solid"
)

// DefaultEpsilon is the distance within which a vertex is considered to
// lie on a splitting plane.
const DefaultEpsilon = 1e-5

var ErrStepBudget = errors.New("bsp step budget exhausted")

// Config controls numeric tolerances and work limits for BSP operations.
type Config struct {
	// Epsilon is the vertex classification tolerance.
	// If zero, DefaultEpsilon is used.
	Epsilon float64

	// MaxSteps, if non-zero, limits the number of polygon classifications
	// performed by a BSP and everything derived from it. Once the budget
	// is exhausted, operations stop early and ToSolidGeometry fails with
	// ErrStepBudget.
	MaxSteps int
}

func (c *Config) epsilon() float64 {
	if c == nil || c.Epsilon == 0 {
		return DefaultEpsilon
	}
	return c.Epsilon
}

type budget struct {
	max  int
	used int
}

func (b *budget) step() bool {
	if b.max == 0 {
		return true
	}
	b.used++
	return b.used <= b.max
}

func (b *budget) exhausted() bool {
	return b.max != 0 && b.used > b.max
}

// A BSP is a solid represented as a tree of polygon fragments.
//
// Operations never modify their operands. Results share the step budget of
// the receiver.
type BSP struct {
	root    *Node
	epsilon float64
	budget  *budget
}

// FromSolidGeometry uses a default Config to create a BSP.
func FromSolidGeometry(g *solid.SolidGeometry, m *solid.Matrix4) *BSP {
	var c Config
	return c.FromSolidGeometry(g, m)
}

// FromSolidGeometry flattens the faces of g into world space polygons
// using the transform m, and partitions them into a tree.
//
// Convex faces without holes are kept whole, and all other faces are
// split into their triangles.
func (c *Config) FromSolidGeometry(g *solid.SolidGeometry, m *solid.Matrix4) *BSP {
	if m == nil {
		m = solid.Identity4()
	}
	var polygons []*Polygon
	for _, f := range g.Faces {
		var rings [][]int
		if len(f.Holes) == 0 && isConvexLoop(g.Vertices, f.Outer, f.Normal()) {
			rings = append(rings, f.Outer)
		} else {
			for _, t := range g.FaceTriangles(f) {
				rings = append(rings, []int{t[0], t[1], t[2]})
			}
		}
		for _, ring := range rings {
			points := make([]model3d.Coord3D, len(ring))
			for i, idx := range ring {
				points[i] = m.Apply(g.Vertices[idx])
			}
			if p := NewPolygon(points); p != nil {
				polygons = append(polygons, p)
			}
		}
	}
	return c.FromPolygons(polygons)
}

// FromPolygons creates a BSP from convex polygons. The polygons are owned
// by the resulting tree.
func (c *Config) FromPolygons(polygons []*Polygon) *BSP {
	res := &BSP{
		root:    &Node{},
		epsilon: c.epsilon(),
		budget:  &budget{},
	}
	if c != nil {
		res.budget.max = c.MaxSteps
	}
	res.build(res.root, polygons)
	return res
}

// Root returns the root node of the tree.
func (b *BSP) Root() *Node {
	return b.root
}

// Err returns ErrStepBudget if the step budget was exhausted while
// producing b.
func (b *BSP) Err() error {
	if b.budget.exhausted() {
		return ErrStepBudget
	}
	return nil
}

func (b *BSP) minArea() float64 {
	return b.epsilon * b.epsilon
}

func (b *BSP) clone() *BSP {
	return &BSP{root: b.root.Clone(), epsilon: b.epsilon, budget: b.budget}
}

// Invert returns the complement of b.
func (b *BSP) Invert() *BSP {
	res := b.clone()
	res.root.invert()
	return res
}

// Union returns a solid covering both b and other.
func (b *BSP) Union(other *BSP) *BSP {
	x := b.clone()
	y := other.clone()
	y.budget = x.budget
	x.clipTo(y)
	y.clipTo(x)
	y.root.invert()
	y.clipTo(x)
	y.root.invert()
	x.build(x.root, y.root.AllPolygons())
	return x
}

// Intersect returns the volume shared by b and other.
func (b *BSP) Intersect(other *BSP) *BSP {
	return b.Invert().Union(other.Invert()).Invert()
}

// Subtract returns the part of b outside of other.
func (b *BSP) Subtract(other *BSP) *BSP {
	return b.Intersect(other.Invert())
}

// Clip returns the surface of b which lies outside of other. Unlike
// Subtract, no surface of other is added, so the result is an open shell.
func (b *BSP) Clip(other *BSP) *BSP {
	x := b.clone()
	y := &BSP{root: other.root, epsilon: b.epsilon, budget: x.budget}
	x.clipTo(y)
	return x
}

// Contains checks if a point is inside the solid.
func (b *BSP) Contains(c model3d.Coord3D) bool {
	return b.root.Contains(c)
}

// Bounds computes the bounding box of all polygons.
func (b *BSP) Bounds() (min, max model3d.Coord3D) {
	first := true
	for _, p := range b.root.AllPolygons() {
		for _, v := range p.Vertices {
			if first {
				min, max = v, v
				first = false
			} else {
				min = min.Min(v)
				max = max.Max(v)
			}
		}
	}
	return
}

// Solid exposes b as a model3d.Solid.
func (b *BSP) Solid() model3d.Solid {
	min, max := b.Bounds()
	return model3d.CheckedFuncSolid(min, max, b.Contains)
}

// ToSolidGeometry collects every polygon fragment into a new geometry.
//
// Vertices with identical coordinates are shared. The result is unmerged
// polygon soup, which should usually be cleaned up by an optimizer.
func (b *BSP) ToSolidGeometry() (*solid.SolidGeometry, error) {
	if err := b.Err(); err != nil {
		return nil, errors.Wrap(err, "bsp to solid geometry")
	}
	res := solid.NewSolidGeometry()
	indices := map[model3d.Coord3D]int{}
	for _, p := range b.root.AllPolygons() {
		loop := make([]int, 0, len(p.Vertices))
		for _, v := range p.Vertices {
			idx, ok := indices[v]
			if !ok {
				idx = res.AddVertex(v)
				indices[v] = idx
			}
			if len(loop) == 0 || loop[len(loop)-1] != idx {
				loop = append(loop, idx)
			}
		}
		for len(loop) > 1 && loop[0] == loop[len(loop)-1] {
			loop = loop[:len(loop)-1]
		}
		if len(loop) < 3 {
			continue
		}
		if _, err := res.AddFace(loop...); err != nil {
			return nil, errors.Wrap(err, "bsp to solid geometry")
		}
	}
	return res, nil
}

// build inserts polygons into the tree rooted at root, splitting nodes by
// the plane of their first polygon.
func (b *BSP) build(root *Node, polygons []*Polygon) {
	stack := []nodeWork{{root, polygons}}
	for len(stack) > 0 {
		work := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(work.polygons) == 0 {
			continue
		}
		node := work.node
		polys := work.polygons
		if node.Plane == nil {
			plane := polys[0].Plane
			node.Plane = &plane
			// The first polygon defines the plane, so it always belongs
			// to this node even if rounding puts it off the plane.
			node.Polygons = append(node.Polygons, polys[0])
			polys = polys[1:]
		}
		var frontPolys, backPolys []*Polygon
		for _, p := range polys {
			if !b.budget.step() {
				return
			}
			node.Plane.splitPolygon(p, b.epsilon, b.minArea(),
				&node.Polygons, &node.Polygons, &frontPolys, &backPolys)
		}
		if len(frontPolys) > 0 {
			if node.Front == nil {
				node.Front = &Node{}
			}
			stack = append(stack, nodeWork{node.Front, frontPolys})
		}
		if len(backPolys) > 0 {
			if node.Back == nil {
				node.Back = &Node{}
			}
			stack = append(stack, nodeWork{node.Back, backPolys})
		}
	}
}

// clipPolygons removes the parts of polygons that are inside the tree
// rooted at root.
func (b *BSP) clipPolygons(root *Node, polygons []*Polygon) []*Polygon {
	if root.Plane == nil {
		return append([]*Polygon{}, polygons...)
	}
	var res []*Polygon
	stack := []nodeWork{{root, polygons}}
	for len(stack) > 0 {
		work := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := work.node
		var frontPolys, backPolys []*Polygon
		for _, p := range work.polygons {
			if !b.budget.step() {
				return res
			}
			node.Plane.splitPolygon(p, b.epsilon, b.minArea(),
				&frontPolys, &backPolys, &frontPolys, &backPolys)
		}
		// Children without a plane were never built and act like missing
		// children.
		if node.Front != nil && node.Front.Plane != nil {
			stack = append(stack, nodeWork{node.Front, frontPolys})
		} else {
			res = append(res, frontPolys...)
		}
		if node.Back != nil && node.Back.Plane != nil {
			stack = append(stack, nodeWork{node.Back, backPolys})
		}
	}
	return res
}

// clipTo removes every polygon fragment of b that is inside other.
func (b *BSP) clipTo(other *BSP) {
	b.root.walk(func(node *Node) {
		node.Polygons = b.clipPolygons(other.root, node.Polygons)
	})
}

func isConvexLoop(vertices []model3d.Coord3D, loop solid.Loop, normal model3d.Coord3D) bool {
	n := len(loop)
	for i := range loop {
		a := vertices[loop[i]]
		b := vertices[loop[(i+1)%n]]
		c := vertices[loop[(i+2)%n]]
		if b.Sub(a).Cross(c.Sub(b)).Dot(normal) < -1e-12 {
			return false
		}
	}
	return true
}
