package solid

import (
	"math"

	"github.com/ByteArena/poly2tri-go"
	"github.com/unixpickle/model3d/model2d"
	"github.com/unixpickle/model3d/model3d"
	"golang.org/x/exp/slices"
)

// FaceTriangles returns the memoized triangulation of a face as triples of
// geometry vertex indices. Triangles are wound counter-clockwise with
// respect to the face normal.
func (g *SolidGeometry) FaceTriangles(f *Face) [][3]int {
	if f.triangles == nil {
		f.triangles = triangulateFace(g.Vertices, f)
	}
	return f.triangles
}

// Triangles returns the triangles of every face in order.
func (g *SolidGeometry) Triangles() [][3]int {
	var res [][3]int
	for _, f := range g.Faces {
		res = append(res, g.FaceTriangles(f)...)
	}
	return res
}

func triangulateFace(vertices []model3d.Coord3D, f *Face) [][3]int {
	if len(f.Holes) == 0 && len(f.Outer) == 3 {
		return [][3]int{{f.Outer[0], f.Outer[1], f.Outer[2]}}
	}

	normal := f.normal
	if normal.Norm() == 0 {
		return fanTriangles(f.Outer)
	}

	// Project every loop into a right-handed 2D basis of the face plane,
	// where the outer loop is counter-clockwise.
	u, v := planeBasis(normal)
	var indices []int
	var points []model2d.Coord
	project := func(loop Loop) []int {
		local := make([]int, len(loop))
		for i, idx := range loop {
			local[i] = len(indices)
			indices = append(indices, idx)
			c := vertices[idx]
			points = append(points, model2d.Coord{X: c.Dot(u), Y: c.Dot(v)})
		}
		return local
	}
	outer := project(f.Outer)
	if signedArea(points, outer) < 0 {
		reverseInts(outer)
	}
	holes := make([][]int, len(f.Holes))
	for i, h := range f.Holes {
		holes[i] = project(h)
		if signedArea(points, holes[i]) > 0 {
			reverseInts(holes[i])
		}
	}

	var local [][3]int
	if len(holes) == 0 {
		local = earClip(points, outer)
	} else if tris, ok := sweepTriangulate(points, outer, holes); ok {
		local = tris
	} else {
		local = earClip(points, bridgeHoles(points, outer, holes))
	}

	res := make([][3]int, len(local))
	for i, t := range local {
		res[i] = [3]int{indices[t[0]], indices[t[1]], indices[t[2]]}
	}
	return res
}

// planeBasis returns two axes spanning the plane orthogonal to normal,
// such that u x v points along normal.
func planeBasis(normal model3d.Coord3D) (u, v model3d.Coord3D) {
	u, v = normal.OrthoBasis()
	if u.Cross(v).Dot(normal) < 0 {
		u, v = v, u
	}
	return
}

func reverseInts(s []int) {
	for i := 0; i < len(s)/2; i++ {
		s[i], s[len(s)-i-1] = s[len(s)-i-1], s[i]
	}
}

func fanTriangles(loop Loop) [][3]int {
	res := make([][3]int, 0, len(loop)-2)
	for i := 1; i+1 < len(loop); i++ {
		res = append(res, [3]int{loop[0], loop[i], loop[i+1]})
	}
	return res
}

func cross2(a, b, c model2d.Coord) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func signedArea(points []model2d.Coord, ring []int) float64 {
	var res float64
	for i, idx := range ring {
		p1 := points[idx]
		p2 := points[ring[(i+1)%len(ring)]]
		res += p1.X*p2.Y - p2.X*p1.Y
	}
	return res / 2
}

func pointInTriangle(p, a, b, c model2d.Coord) bool {
	d1 := cross2(a, b, p)
	d2 := cross2(b, c, p)
	d3 := cross2(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// earClip triangulates a counter-clockwise ring, which may be concave and
// may contain repeated indices from hole bridges.
func earClip(points []model2d.Coord, ring []int) [][3]int {
	if len(ring) < 3 {
		return nil
	}
	ring = append([]int{}, ring...)
	res := make([][3]int, 0, len(ring)-2)

	i := 0
	failures := 0
	for len(ring) > 3 {
		n := len(ring)
		i %= n
		prev, cur, next := ring[(i+n-1)%n], ring[i], ring[(i+1)%n]
		if failures >= n {
			// Only degenerate or self-intersecting corners remain, so we
			// clip anyway to guarantee termination.
			res = append(res, [3]int{prev, cur, next})
			ring = slices.Delete(ring, i, i+1)
			failures = 0
			continue
		}
		if isEar(points, ring, prev, cur, next) {
			res = append(res, [3]int{prev, cur, next})
			ring = slices.Delete(ring, i, i+1)
			failures = 0
			if i > 0 {
				i--
			}
		} else {
			i++
			failures++
		}
	}
	return append(res, [3]int{ring[0], ring[1], ring[2]})
}

func isEar(points []model2d.Coord, ring []int, prev, cur, next int) bool {
	a, b, c := points[prev], points[cur], points[next]
	if cross2(a, b, c) <= 0 {
		return false
	}
	for _, idx := range ring {
		p := points[idx]
		if p == a || p == b || p == c {
			continue
		}
		if pointInTriangle(p, a, b, c) {
			return false
		}
	}
	return true
}

// bridgeHoles joins clockwise holes into a counter-clockwise outer ring by
// cutting a zero-width channel to each hole.
func bridgeHoles(points []model2d.Coord, outer []int, holes [][]int) []int {
	holes = append([][]int{}, holes...)
	rightmost := func(ring []int) int {
		best := 0
		for i, idx := range ring {
			if points[idx].X > points[ring[best]].X {
				best = i
			}
		}
		return best
	}
	slices.SortFunc(holes, func(h1, h2 []int) bool {
		return points[h1[rightmost(h1)]].X > points[h2[rightmost(h2)]].X
	})

	ring := append([]int{}, outer...)
	for _, hole := range holes {
		hi := rightmost(hole)
		bridge := findBridge(points, ring, points[hole[hi]])

		joined := make([]int, 0, len(ring)+len(hole)+2)
		joined = append(joined, ring[:bridge+1]...)
		joined = append(joined, hole[hi:]...)
		joined = append(joined, hole[:hi]...)
		joined = append(joined, hole[hi], ring[bridge])
		joined = append(joined, ring[bridge+1:]...)
		ring = joined
	}
	return ring
}

// findBridge finds the index in ring of a vertex visible from m, which is
// the rightmost point of a hole.
func findBridge(points []model2d.Coord, ring []int, m model2d.Coord) int {
	best := -1
	bestX := math.Inf(1)
	for i, idx := range ring {
		a := points[idx]
		b := points[ring[(i+1)%len(ring)]]
		if a.Y == b.Y || (a.Y > m.Y) == (b.Y > m.Y) {
			continue
		}
		x := a.X + (m.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
		if x >= m.X && x < bestX {
			bestX = x
			if a.X > b.X {
				best = i
			} else {
				best = (i + 1) % len(ring)
			}
		}
	}
	if best == -1 {
		// No edge crosses the ray; use the nearest vertex.
		bestDist := math.Inf(1)
		for i, idx := range ring {
			if d := points[idx].Dist(m); d < bestDist {
				bestDist = d
				best = i
			}
		}
		return best
	}

	// A vertex inside the triangle (m, hit, candidate) may block the
	// channel; pick the one with the smallest angle to the ray instead.
	hit := model2d.Coord{X: bestX, Y: m.Y}
	candidate := points[ring[best]]
	minTan := math.Inf(1)
	result := best
	for i, idx := range ring {
		p := points[idx]
		if p.X < m.X || p == candidate || !pointInTriangle(p, m, hit, candidate) {
			continue
		}
		if p.X == m.X {
			continue
		}
		tan := math.Abs(p.Y-m.Y) / (p.X - m.X)
		if tan < minTan || (tan == minTan && p.X > points[ring[result]].X) {
			minTan = tan
			result = i
		}
	}
	return result
}

// sweepTriangulate uses a constrained Delaunay sweep for faces with holes.
// It reports false if the sweep fails or covers the wrong area, which
// happens for touching or duplicate vertices.
func sweepTriangulate(points []model2d.Coord, outer []int, holes [][]int) (res [][3]int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			res, ok = nil, false
		}
	}()

	lookup := map[*poly2tri.Point]int{}
	seen := map[model2d.Coord]bool{}
	convert := func(ring []int) []*poly2tri.Point {
		res := make([]*poly2tri.Point, len(ring))
		for i, idx := range ring {
			p := poly2tri.NewPoint(points[idx].X, points[idx].Y)
			lookup[p] = idx
			res[i] = p
		}
		return res
	}
	for _, ring := range append([][]int{outer}, holes...) {
		for _, idx := range ring {
			if seen[points[idx]] {
				return nil, false
			}
			seen[points[idx]] = true
		}
	}

	swctx := poly2tri.NewSweepContext(convert(outer), false)
	for _, h := range holes {
		swctx.AddHole(convert(h))
	}
	swctx.Triangulate()

	expectedArea := signedArea(points, outer)
	for _, h := range holes {
		expectedArea += signedArea(points, h)
	}
	var actualArea float64
	for _, t := range swctx.GetTriangles() {
		var tri [3]int
		for i := 0; i < 3; i++ {
			idx, found := lookup[t.Points[i]]
			if !found {
				return nil, false
			}
			tri[i] = idx
		}
		area := cross2(points[tri[0]], points[tri[1]], points[tri[2]])
		if area < 0 {
			tri[1], tri[2] = tri[2], tri[1]
			area = -area
		}
		actualArea += area / 2
		res = append(res, tri)
	}
	if math.Abs(actualArea-expectedArea) > 1e-8*math.Max(1, math.Abs(expectedArea)) {
		return nil, false
	}
	return res, true
}
