package csg

import (
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/polycsg/solid"
)

// A Plane is the set of points x where Normal.Dot(x) == W.
type Plane struct {
	Normal model3d.Coord3D
	W      float64
}

func (p *Plane) Flip() {
	p.Normal = p.Normal.Scale(-1)
	p.W = -p.W
}

// Eval returns the signed distance from c to the plane.
func (p *Plane) Eval(c model3d.Coord3D) float64 {
	return p.Normal.Dot(c) - p.W
}

// A Polygon is a convex planar polygon fragment in world space.
//
// Fragments created by splitting keep the plane of the polygon they came
// from, rather than re-deriving it from their own vertices.
type Polygon struct {
	Vertices []model3d.Coord3D
	Plane    Plane
}

// NewPolygon creates a polygon whose plane is derived from its vertices.
// It returns nil if the vertices are degenerate.
func NewPolygon(vertices []model3d.Coord3D) *Polygon {
	if len(vertices) < 3 {
		return nil
	}
	normal := solid.LoopNormal(vertices)
	if normal.Norm() == 0 {
		return nil
	}
	var center model3d.Coord3D
	for _, v := range vertices {
		center = center.Add(v)
	}
	center = center.Scale(1 / float64(len(vertices)))
	return &Polygon{
		Vertices: vertices,
		Plane:    Plane{Normal: normal, W: normal.Dot(center)},
	}
}

func (p *Polygon) Clone() *Polygon {
	return &Polygon{
		Vertices: append([]model3d.Coord3D{}, p.Vertices...),
		Plane:    p.Plane,
	}
}

// Flip reverses the winding and the plane of p.
func (p *Polygon) Flip() {
	for i := 0; i < len(p.Vertices)/2; i++ {
		j := len(p.Vertices) - i - 1
		p.Vertices[i], p.Vertices[j] = p.Vertices[j], p.Vertices[i]
	}
	p.Plane.Flip()
}

func (p *Polygon) Area() float64 {
	var sum model3d.Coord3D
	for i := 1; i+1 < len(p.Vertices); i++ {
		a := p.Vertices[i].Sub(p.Vertices[0])
		b := p.Vertices[i+1].Sub(p.Vertices[0])
		sum = sum.Add(a.Cross(b))
	}
	return sum.Norm() / 2
}

const (
	coplanar = 0
	front    = 1
	back     = 2
	spanning = 3
)

// splitPolygon classifies a polygon against the plane p and appends it, or
// its fragments, to the matching list.
//
// Spanning polygons are cut along the plane. Fragments with an area below
// minArea are dropped.
func (p *Plane) splitPolygon(poly *Polygon, epsilon, minArea float64,
	coplanarFront, coplanarBack, frontList, backList *[]*Polygon) {
	polygonType := 0
	types := make([]int, len(poly.Vertices))
	for i, v := range poly.Vertices {
		t := p.Eval(v)
		var vType int
		if t < -epsilon {
			vType = back
		} else if t > epsilon {
			vType = front
		}
		polygonType |= vType
		types[i] = vType
	}

	switch polygonType {
	case coplanar:
		if p.Normal.Dot(poly.Plane.Normal) > 0 {
			*coplanarFront = append(*coplanarFront, poly)
		} else {
			*coplanarBack = append(*coplanarBack, poly)
		}
	case front:
		*frontList = append(*frontList, poly)
	case back:
		*backList = append(*backList, poly)
	case spanning:
		var f, b []model3d.Coord3D
		n := len(poly.Vertices)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := poly.Vertices[i], poly.Vertices[j]
			if ti != back {
				f = append(f, vi)
			}
			if ti != front {
				b = append(b, vi)
			}
			if ti|tj == spanning {
				// x = vi + t*(vj-vi) with n*x = w
				// => t = (w - n*vi) / (n*(vj-vi))
				r := vj.Sub(vi)
				t := (p.W - p.Normal.Dot(vi)) / p.Normal.Dot(r)
				mid := vi.Add(r.Scale(t))
				f = append(f, mid)
				b = append(b, mid)
			}
		}
		if frag := (&Polygon{Vertices: f, Plane: poly.Plane}); len(f) >= 3 && frag.Area() > minArea {
			*frontList = append(*frontList, frag)
		}
		if frag := (&Polygon{Vertices: b, Plane: poly.Plane}); len(b) >= 3 && frag.Area() > minArea {
			*backList = append(*backList, frag)
		}
	}
}
