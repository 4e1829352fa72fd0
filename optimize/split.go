package optimize

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
)

// splitEdges resolves T-junctions. A border edge which passes through the
// endpoint of another collinear border edge is split at that endpoint, and
// the halves are re-paired with existing edges. New border edges are fed
// back into the work list until nothing changes.
func (o *optimizer) splitEdges(border []*edge) {
	buckets := map[[3]int64][]*edge{}
	for _, e := range border {
		key := o.directionKey(e)
		buckets[key] = append(buckets[key], e)
	}

	work := append([]*edge{}, border...)
	for len(work) > 0 {
		e := work[len(work)-1]
		work = work[:len(work)-1]
		if e.dead || e.n != 1 {
			continue
		}
		v3 := o.findSplitVertex(e, buckets)
		if v3 == -1 {
			continue
		}
		polyIdx := e.polygons[0]
		o.removeEdge(e)
		o.stats.SplitEdges++
		for _, half := range [2][2]int{{e.v1, v3}, {v3, e.v2}} {
			h := o.claimEdge(half[0], half[1], polyIdx)
			if h.n == 1 {
				key := o.directionKey(h)
				buckets[key] = append(buckets[key], h)
				work = append(work, h)
			}
		}
	}
}

// findSplitVertex finds the endpoint of a collinear border edge that lies
// strictly inside e and is closest to e.v1. It returns -1 if there is none.
func (o *optimizer) findSplitVertex(e *edge, buckets map[[3]int64][]*edge) int {
	p1 := o.vertices[e.v1].pos
	p2 := o.vertices[e.v2].pos
	dir := p2.Sub(p1)
	length := dir.Norm()
	if length == 0 {
		return -1
	}
	dir = dir.Scale(1 / length)

	best := -1
	bestT := math.Inf(1)
	key := o.directionKey(e)
	// Directions with two components of equal magnitude may be stored with
	// either orientation.
	negKey := [3]int64{-key[0], -key[1], -key[2]}
	for _, center := range [2][3]int64{key, negKey} {
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					neighbor := [3]int64{center[0] + dx, center[1] + dy, center[2] + dz}
					for _, other := range buckets[neighbor] {
						if other == e || other.dead || other.n != 1 {
							continue
						}
						for _, v := range [2]int{other.v1, other.v2} {
							if v == e.v1 || v == e.v2 {
								continue
							}
							t, ok := o.projectOnEdge(o.vertices[v].pos, p1, dir, length)
							if ok && t < bestT {
								best = v
								bestT = t
							}
						}
					}
				}
			}
		}
	}
	return best
}

// projectOnEdge returns the distance of c along the edge starting at p1,
// and whether c lies within EdgeDistance of the interior of the edge.
func (o *optimizer) projectOnEdge(c, p1, dir model3d.Coord3D, length float64) (float64, bool) {
	offset := c.Sub(p1)
	t := offset.Dot(dir)
	if t <= o.cfg.EdgeDistance || t >= length-o.cfg.EdgeDistance {
		return 0, false
	}
	if offset.Sub(dir.Scale(t)).Norm() > o.cfg.EdgeDistance {
		return 0, false
	}
	return t, true
}

// directionKey hashes the undirected unit direction of an edge.
func (o *optimizer) directionKey(e *edge) [3]int64 {
	d := o.vertices[e.v2].pos.Sub(o.vertices[e.v1].pos).Normalize()
	// Orient by the sign of the largest component so that nearly equal
	// directions land in nearby cells.
	arr := d.Array()
	largest := arr[0]
	for _, x := range arr[1:] {
		if math.Abs(x) > math.Abs(largest) {
			largest = x
		}
	}
	if largest < 0 {
		d = d.Scale(-1)
	}
	f := o.cfg.DirectionHashFactor
	return [3]int64{
		int64(math.Round(d.X * f)),
		int64(math.Round(d.Y * f)),
		int64(math.Round(d.Z * f)),
	}
}
