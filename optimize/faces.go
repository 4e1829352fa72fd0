package optimize

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/polycsg/solid"
	"golang.org/x/exp/slices"
)

func (o *optimizer) find(idx int) int {
	for o.polygons[idx].parent != idx {
		p := o.polygons[idx]
		p.parent = o.polygons[p.parent].parent
		idx = p.parent
	}
	return idx
}

// mergePolygons joins the polygons on both sides of every internal edge
// whose normals are nearly parallel.
func (o *optimizer) mergePolygons() {
	for _, e := range o.edgeList {
		if e.dead || e.n != 2 {
			continue
		}
		p1, p2 := e.polygons[0], e.polygons[1]
		r1, r2 := o.find(p1), o.find(p2)
		if r1 == r2 {
			continue
		}
		dot := o.polygons[p1].normal.Dot(o.polygons[p2].normal)
		if math.Abs(dot) <= o.cfg.NormalLimit {
			continue
		}
		if r2 < r1 {
			r1, r2 = r2, r1
		}
		o.polygons[r2].parent = r1
		o.polygons[r1].faces = append(o.polygons[r1].faces, o.polygons[r2].faces...)
		o.polygons[r2].faces = nil
		o.stats.MergedPolygons++
	}
}

// boundaryGroups returns the distinct groups for which e is a boundary
// edge. Edges between two polygons of one group are interior.
func (o *optimizer) boundaryGroups(e *edge) []int {
	if e.dead {
		return nil
	}
	if e.n == 1 {
		return []int{o.find(e.polygons[0])}
	}
	g1, g2 := o.find(e.polygons[0]), o.find(e.polygons[1])
	if g1 == g2 {
		return nil
	}
	return []int{g1, g2}
}

// createVertexMap marks the vertices which must survive ring
// simplification: those on a border, and those not touching exactly two
// polygon groups.
func (o *optimizer) createVertexMap() {
	for _, e := range o.edgeList {
		groups := o.boundaryGroups(e)
		for _, v := range [2]int{e.v1, e.v2} {
			vert := o.vertices[v]
			if e.n == 1 && !e.dead {
				vert.border = true
			}
			for _, g := range groups {
				if !slices.Contains(vert.groups, g) {
					vert.groups = append(vert.groups, g)
				}
			}
		}
	}
	for _, v := range o.vertices {
		v.hard = v.border || len(v.groups) != 2
	}
}

// createFaces extracts the rings of every polygon group and builds the
// resulting geometry. Groups whose rings cannot be extracted are emitted
// as their original faces.
func (o *optimizer) createFaces() *solid.SolidGeometry {
	groupEdges := map[int][]*edge{}
	for _, e := range o.edgeList {
		for _, g := range o.boundaryGroups(e) {
			groupEdges[g] = append(groupEdges[g], e)
		}
	}

	res := solid.NewSolidGeometry()
	outputIndex := func(v int) int {
		vert := o.vertices[v]
		if vert.output == -1 {
			vert.output = res.AddVertex(vert.pos)
		}
		return vert.output
	}
	outputLoop := func(loop solid.Loop) []int {
		out := make([]int, len(loop))
		for i, v := range loop {
			out[i] = outputIndex(v)
		}
		return out
	}
	addFace := func(outer solid.Loop, holes []solid.Loop) {
		f, err := res.AddFace(outputLoop(outer)...)
		if err != nil {
			panic(err)
		}
		for _, h := range holes {
			if err := res.AddHole(f, outputLoop(h)...); err != nil {
				panic(err)
			}
		}
	}

	for i, p := range o.polygons {
		if p.parent != i {
			continue
		}
		rings, ok := o.extractRings(groupEdges[i])
		if ok {
			var outer solid.Loop
			var holes []solid.Loop
			outer, holes, ok = o.classifyRings(p.normal, rings)
			if ok {
				addFace(outer, holes)
				continue
			}
		}
		o.stats.UnmergedFaces += len(p.faces)
		o.isManifold = false
		for _, f := range p.faces {
			addFace(f.Outer, f.Holes)
		}
	}
	res.IsManifold = o.isManifold
	return res
}

// extractRings walks the boundary edges of a group into closed rings,
// dropping soft vertices along straight runs.
func (o *optimizer) extractRings(edges []*edge) ([]solid.Loop, bool) {
	if len(edges) < 3 {
		return nil, false
	}
	adjacency := map[int][]*edge{}
	for _, e := range edges {
		adjacency[e.v1] = append(adjacency[e.v1], e)
		adjacency[e.v2] = append(adjacency[e.v2], e)
	}
	for _, es := range adjacency {
		if len(es) != 2 {
			return nil, false
		}
	}

	used := map[*edge]bool{}
	var rings []solid.Loop
	for _, start := range edges {
		if used[start] {
			continue
		}
		var ring solid.Loop
		cur := start
		v := start.v1
		for !used[cur] {
			used[cur] = true
			ring = append(ring, v)
			v = cur.other(v)
			next := adjacency[v]
			if next[0] == cur {
				cur = next[1]
			} else {
				cur = next[0]
			}
		}
		if v != start.v1 {
			return nil, false
		}
		ring = o.simplifyRing(ring)
		if len(ring) < 3 {
			return nil, false
		}
		rings = append(rings, ring)
	}
	return rings, true
}

// simplifyRing removes soft vertices lying on the segment between their
// neighbors.
func (o *optimizer) simplifyRing(ring solid.Loop) solid.Loop {
	res := append(solid.Loop{}, ring...)
	for changed := true; changed && len(res) > 3; {
		changed = false
		for i := 0; i < len(res) && len(res) > 3; i++ {
			v := res[i]
			if o.vertices[v].hard {
				continue
			}
			prev := o.vertices[res[(i+len(res)-1)%len(res)]].pos
			next := o.vertices[res[(i+1)%len(res)]].pos
			if o.onSegment(o.vertices[v].pos, prev, next) {
				res = slices.Delete(res, i, i+1)
				i--
				changed = true
			}
		}
	}
	return res
}

func (o *optimizer) onSegment(c, p1, p2 model3d.Coord3D) bool {
	dir := p2.Sub(p1)
	length := dir.Norm()
	if length == 0 {
		return false
	}
	dir = dir.Scale(1 / length)
	offset := c.Sub(p1)
	t := offset.Dot(dir)
	return t > 0 && t < length && offset.Sub(dir.Scale(t)).Norm() <= o.cfg.EdgeDistance
}

// classifyRings picks the outer ring of a group and orients every ring
// relative to the group normal: counter-clockwise for the outer ring and
// clockwise for holes.
func (o *optimizer) classifyRings(normal model3d.Coord3D,
	rings []solid.Loop) (solid.Loop, []solid.Loop, bool) {
	if normal.Norm() == 0 {
		return nil, nil, false
	}

	// Project away the dominant axis of the normal, and take the ring
	// holding the extreme vertex of the remaining plane.
	axis := 0
	arr := normal.Array()
	for i := 1; i < 3; i++ {
		if math.Abs(arr[i]) > math.Abs(arr[axis]) {
			axis = i
		}
	}
	u, w := (axis+1)%3, (axis+2)%3
	outerIdx := -1
	var best [2]float64
	for i, ring := range rings {
		for _, v := range ring {
			c := o.vertices[v].pos.Array()
			p := [2]float64{c[u], c[w]}
			if outerIdx == -1 || p[0] < best[0] || (p[0] == best[0] && p[1] < best[1]) {
				outerIdx = i
				best = p
			}
		}
	}

	var outer solid.Loop
	var holes []solid.Loop
	for i, ring := range rings {
		points := make([]model3d.Coord3D, len(ring))
		for j, v := range ring {
			points[j] = o.vertices[v].pos
		}
		ccw := solid.LoopNormal(points).Dot(normal) > 0
		if i == outerIdx {
			if !ccw {
				ring = ring.Reversed()
			}
			outer = ring
		} else {
			if ccw {
				ring = ring.Reversed()
			}
			holes = append(holes, ring)
		}
	}
	return outer, holes, true
}
