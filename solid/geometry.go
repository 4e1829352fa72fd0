// Package solid implements a polyhedral boundary representation.
//
// A SolidGeometry owns a flat array of vertices and a list of faces.
// Faces and loops refer to vertices only by index, so copying a geometry
// is a matter of copying flat arrays.
package solid

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

var (
	ErrInvalidFace = errors.New("invalid face: fewer than 3 vertices")
	ErrInvalidHole = errors.New("invalid hole: fewer than 3 vertices")
)

// A Loop is a closed planar boundary given as an ordered list of vertex
// indices. Outer loops are counter-clockwise with respect to the face
// normal, and holes are clockwise.
type Loop []int

// Reversed returns a copy of l with the opposite winding.
func (l Loop) Reversed() Loop {
	res := make(Loop, len(l))
	for i, x := range l {
		res[len(l)-i-1] = x
	}
	return res
}

// A Face is an outer loop plus zero or more hole loops.
type Face struct {
	Outer Loop
	Holes []Loop

	normal    model3d.Coord3D
	triangles [][3]int
}

// Normal returns the cached unit normal of the outer loop.
func (f *Face) Normal() model3d.Coord3D {
	return f.normal
}

func (f *Face) invalidate() {
	f.triangles = nil
}

func (f *Face) copy() *Face {
	res := &Face{
		Outer:  append(Loop{}, f.Outer...),
		Holes:  make([]Loop, len(f.Holes)),
		normal: f.normal,
	}
	for i, h := range f.Holes {
		res.Holes[i] = append(Loop{}, h...)
	}
	if f.triangles != nil {
		res.triangles = append([][3]int{}, f.triangles...)
	}
	return res
}

// A SolidGeometry is a vertex array plus a list of faces.
//
// IsManifold is a diagnostic derived by FixEdges. It is never enforced
// while faces are being added.
type SolidGeometry struct {
	Vertices []model3d.Coord3D
	Faces    []*Face

	IsManifold bool

	// SmoothAngle is a dihedral tolerance in degrees. When it is zero,
	// render buffers are flat shaded.
	SmoothAngle float64

	buffers *Buffers

	boundsValid bool
	min, max    model3d.Coord3D
}

func NewSolidGeometry() *SolidGeometry {
	return &SolidGeometry{IsManifold: true}
}

// IsValid checks if the geometry has enough faces to enclose a volume.
func (g *SolidGeometry) IsValid() bool {
	return len(g.Faces) > 3
}

// AddVertex appends a vertex and returns its index.
func (g *SolidGeometry) AddVertex(c model3d.Coord3D) int {
	g.Vertices = append(g.Vertices, c)
	g.boundsValid = false
	return len(g.Vertices) - 1
}

// AddFace creates a face whose outer loop is made of existing vertices.
func (g *SolidGeometry) AddFace(indices ...int) (*Face, error) {
	if len(indices) < 3 {
		return nil, errors.Wrapf(ErrInvalidFace, "add face with %d vertices", len(indices))
	}
	if err := g.checkIndices(indices); err != nil {
		return nil, errors.Wrap(ErrInvalidFace, err.Error())
	}
	f := &Face{Outer: append(Loop{}, indices...)}
	f.normal = newellNormal(g.Vertices, f.Outer)
	g.Faces = append(g.Faces, f)
	g.buffers = nil
	return f, nil
}

// AddFacePoints is like AddFace, but appends the points as new vertices.
func (g *SolidGeometry) AddFacePoints(points ...model3d.Coord3D) (*Face, error) {
	if len(points) < 3 {
		return nil, errors.Wrapf(ErrInvalidFace, "add face with %d vertices", len(points))
	}
	return g.AddFace(g.appendPoints(points)...)
}

// AddHole adds a hole loop to a face of g.
func (g *SolidGeometry) AddHole(f *Face, indices ...int) error {
	if len(indices) < 3 {
		return errors.Wrapf(ErrInvalidHole, "add hole with %d vertices", len(indices))
	}
	if err := g.checkIndices(indices); err != nil {
		return errors.Wrap(ErrInvalidHole, err.Error())
	}
	f.Holes = append(f.Holes, append(Loop{}, indices...))
	f.invalidate()
	g.buffers = nil
	return nil
}

// AddHolePoints is like AddHole, but appends the points as new vertices.
func (g *SolidGeometry) AddHolePoints(f *Face, points ...model3d.Coord3D) error {
	if len(points) < 3 {
		return errors.Wrapf(ErrInvalidHole, "add hole with %d vertices", len(points))
	}
	return g.AddHole(f, g.appendPoints(points)...)
}

func (g *SolidGeometry) appendPoints(points []model3d.Coord3D) []int {
	indices := make([]int, len(points))
	for i, p := range points {
		indices[i] = g.AddVertex(p)
	}
	return indices
}

func (g *SolidGeometry) checkIndices(indices []int) error {
	for _, idx := range indices {
		if idx < 0 || idx >= len(g.Vertices) {
			return errors.Errorf("vertex index %d out of range [0, %d)", idx, len(g.Vertices))
		}
	}
	return nil
}

// ApplyMatrix4 transforms every vertex in place.
//
// Mirroring transforms reverse every loop so that faces keep pointing
// outward.
func (g *SolidGeometry) ApplyMatrix4(m *Matrix4) {
	for i, v := range g.Vertices {
		g.Vertices[i] = m.Apply(v)
	}
	mirror := m.Linear().Det() < 0
	for _, f := range g.Faces {
		if mirror {
			f.Outer = f.Outer.Reversed()
			for i, h := range f.Holes {
				f.Holes[i] = h.Reversed()
			}
		}
		f.normal = newellNormal(g.Vertices, f.Outer)
		f.invalidate()
	}
	g.boundsValid = false
	g.buffers = nil
}

// Copy creates a structural copy of g. Render buffers are not copied.
func (g *SolidGeometry) Copy() *SolidGeometry {
	res := &SolidGeometry{
		Vertices:    append([]model3d.Coord3D{}, g.Vertices...),
		Faces:       make([]*Face, len(g.Faces)),
		IsManifold:  g.IsManifold,
		SmoothAngle: g.SmoothAngle,
		boundsValid: g.boundsValid,
		min:         g.min,
		max:         g.max,
	}
	for i, f := range g.Faces {
		res.Faces[i] = f.copy()
	}
	return res
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (g *SolidGeometry) Bounds() (min, max model3d.Coord3D) {
	if !g.boundsValid {
		if len(g.Vertices) > 0 {
			g.min, g.max = g.Vertices[0], g.Vertices[0]
			for _, v := range g.Vertices[1:] {
				g.min = g.min.Min(v)
				g.max = g.max.Max(v)
			}
		} else {
			g.min, g.max = model3d.Origin, model3d.Origin
		}
		g.boundsValid = true
	}
	return g.min, g.max
}

// Volume computes the signed enclosed volume, which is only meaningful for
// closed and consistently oriented geometry.
func (g *SolidGeometry) Volume() float64 {
	var res float64
	for _, f := range g.Faces {
		for _, t := range g.FaceTriangles(f) {
			a, b, c := g.Vertices[t[0]], g.Vertices[t[1]], g.Vertices[t[2]]
			res += a.Dot(b.Cross(c))
		}
	}
	return res / 6
}

// Area computes the total surface area.
func (g *SolidGeometry) Area() float64 {
	var res float64
	for _, f := range g.Faces {
		for _, t := range g.FaceTriangles(f) {
			tri := model3d.Triangle{g.Vertices[t[0]], g.Vertices[t[1]], g.Vertices[t[2]]}
			res += tri.Area()
		}
	}
	return res
}

// FaceArea computes the area of a face, with holes subtracted.
func (g *SolidGeometry) FaceArea(f *Face) float64 {
	res := newellVector(g.Vertices, f.Outer).Norm() / 2
	for _, h := range f.Holes {
		res -= newellVector(g.Vertices, h).Norm() / 2
	}
	return math.Max(0, res)
}

func newellVector(vertices []model3d.Coord3D, loop Loop) model3d.Coord3D {
	var n model3d.Coord3D
	for i, idx := range loop {
		cur := vertices[idx]
		next := vertices[loop[(i+1)%len(loop)]]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return n
}

// newellNormal computes the unit normal of a possibly non-convex loop.
// Degenerate loops produce a zero normal.
func newellNormal(vertices []model3d.Coord3D, loop Loop) model3d.Coord3D {
	n := newellVector(vertices, loop)
	norm := n.Norm()
	if norm == 0 {
		return n
	}
	return n.Scale(1 / norm)
}

// LoopNormal computes the Newell normal of an arbitrary ring of points.
func LoopNormal(points []model3d.Coord3D) model3d.Coord3D {
	loop := make(Loop, len(points))
	for i := range loop {
		loop[i] = i
	}
	return newellNormal(points, loop)
}
