// Package optimize rebuilds clean polygonal faces from the fragmented
// polygon soup produced by boolean operations.
package optimize

import (
	"log"
	"math"

	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/polycsg/solid"
)

const (
	DefaultVertexDistance      = 1e-4
	DefaultVertexHashFactor    = 1e4
	DefaultEdgeDistance        = 1e-4
	DefaultDirectionHashFactor = 1e3
	DefaultMinFaceArea         = 1e-8
	DefaultNormalLimit         = 0.999
)

// Config holds the tolerances of an optimizer. Zero fields are replaced
// by their defaults.
type Config struct {
	// VertexDistance is the distance within which two vertices are merged.
	VertexDistance float64

	// VertexHashFactor scales coordinates before they are rounded into
	// vertex hash cells.
	VertexHashFactor float64

	// EdgeDistance is the distance from an edge within which a vertex is
	// considered to lie on the edge.
	EdgeDistance float64

	// DirectionHashFactor scales unit edge directions before they are
	// rounded into direction hash cells.
	DirectionHashFactor float64

	// MinFaceArea is the area at or below which input faces are dropped.
	MinFaceArea float64

	// NormalLimit is the minimum absolute cosine between the normals of
	// two adjacent polygons for them to be merged.
	NormalLimit float64

	// Verbose, if true, enables logging of statistics.
	Verbose bool
}

// Statistics summarizes the work of a single optimization.
type Statistics struct {
	InputFaces     int
	InputVertices  int
	OutputFaces    int
	OutputVertices int

	// DegenerateFaces counts input faces dropped for having too little
	// area.
	DegenerateFaces int

	// Edges3Faces counts edge claims beyond the second polygon.
	Edges3Faces int

	BorderEdges int
	SplitEdges  int

	// MergedPolygons counts polygons absorbed into a neighbor.
	MergedPolygons int

	// UnmergedFaces counts input faces emitted as-is because ring
	// extraction for their polygon failed.
	UnmergedFaces int
}

// Optimize uses a default Config to optimize g.
func Optimize(g *solid.SolidGeometry) (*solid.SolidGeometry, *Statistics) {
	var c Config
	return c.Optimize(g)
}

// Optimize merges adjacent coplanar faces of g, repairs T-junctions, and
// removes redundant collinear vertices.
//
// The input is not modified. The result never has more faces than g, and
// its IsManifold flag reflects the repaired topology.
func (c *Config) Optimize(g *solid.SolidGeometry) (*solid.SolidGeometry, *Statistics) {
	o := &optimizer{
		cfg:        c.withDefaults(),
		stats:      &Statistics{InputFaces: len(g.Faces), InputVertices: len(g.Vertices)},
		vertexHash: map[[3]int64][]int{},
		edges:      map[solid.EdgeKey]*edge{},
		isManifold: true,
	}
	o.createPolygonsAndEdges(g)
	border := o.findBorderEdges()
	o.splitEdges(border)
	o.updateManifold()
	o.mergePolygons()
	o.createVertexMap()
	res := o.createFaces()
	res.SmoothAngle = g.SmoothAngle

	o.stats.OutputFaces = len(res.Faces)
	o.stats.OutputVertices = len(res.Vertices)
	if o.cfg.Verbose {
		s := o.stats
		log.Printf(
			"optimize: faces=%d->%d vertices=%d->%d degenerate=%d edges3=%d border=%d split=%d merged=%d unmerged=%d manifold=%v",
			s.InputFaces, s.OutputFaces, s.InputVertices, s.OutputVertices,
			s.DegenerateFaces, s.Edges3Faces, s.BorderEdges, s.SplitEdges,
			s.MergedPolygons, s.UnmergedFaces, res.IsManifold,
		)
	}
	return res, o.stats
}

func (c *Config) withDefaults() Config {
	var res Config
	if c != nil {
		res = *c
	}
	setDefault := func(x *float64, d float64) {
		if *x == 0 {
			*x = d
		}
	}
	setDefault(&res.VertexDistance, DefaultVertexDistance)
	setDefault(&res.VertexHashFactor, DefaultVertexHashFactor)
	setDefault(&res.EdgeDistance, DefaultEdgeDistance)
	setDefault(&res.DirectionHashFactor, DefaultDirectionHashFactor)
	setDefault(&res.MinFaceArea, DefaultMinFaceArea)
	setDefault(&res.NormalLimit, DefaultNormalLimit)
	return res
}

type vertex struct {
	pos model3d.Coord3D

	// groups lists the distinct polygon groups whose boundary passes
	// through the vertex.
	groups []int
	border bool
	hard   bool

	// output is the index in the result geometry, or -1.
	output int
}

type edge struct {
	v1, v2   int
	polygons [2]int
	n        int
	dead     bool
}

func (e *edge) other(v int) int {
	if e.v1 == v {
		return e.v2
	}
	return e.v1
}

// A polygon is a group of input faces. After merging, parent links a
// polygon to the representative of its group.
type polygon struct {
	normal model3d.Coord3D
	faces  []*solid.Face
	parent int
}

type optimizer struct {
	cfg   Config
	stats *Statistics

	vertices   []*vertex
	vertexHash map[[3]int64][]int

	polygons []*polygon

	edges    map[solid.EdgeKey]*edge
	edgeList []*edge

	isManifold bool
}

// createPolygonsAndEdges merges nearby vertices, seeds one polygon per
// non-degenerate face, and records which polygons claim every edge.
func (o *optimizer) createPolygonsAndEdges(g *solid.SolidGeometry) {
	mapping := make([]int, len(g.Vertices))
	for i, v := range g.Vertices {
		mapping[i] = o.addVertex(v)
	}
	for _, f := range g.Faces {
		if g.FaceArea(f) <= o.cfg.MinFaceArea {
			o.stats.DegenerateFaces++
			continue
		}
		face := &solid.Face{Outer: remapLoop(mapping, f.Outer)}
		if len(face.Outer) < 3 {
			o.stats.DegenerateFaces++
			continue
		}
		for _, h := range f.Holes {
			if hole := remapLoop(mapping, h); len(hole) >= 3 {
				face.Holes = append(face.Holes, hole)
			}
		}
		polyIdx := len(o.polygons)
		o.polygons = append(o.polygons, &polygon{
			normal: f.Normal(),
			faces:  []*solid.Face{face},
			parent: polyIdx,
		})
		for _, loop := range append([]solid.Loop{face.Outer}, face.Holes...) {
			for i, v1 := range loop {
				o.claimEdge(v1, loop[(i+1)%len(loop)], polyIdx)
			}
		}
	}
}

// addVertex returns the index of an existing vertex within VertexDistance
// of c, or adds a new one.
func (o *optimizer) addVertex(c model3d.Coord3D) int {
	key := o.vertexKey(c)
	radius := int64(math.Ceil(o.cfg.VertexDistance * o.cfg.VertexHashFactor))
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			for dz := -radius; dz <= radius; dz++ {
				neighbor := [3]int64{key[0] + dx, key[1] + dy, key[2] + dz}
				for _, idx := range o.vertexHash[neighbor] {
					if o.vertices[idx].pos.Dist(c) <= o.cfg.VertexDistance {
						return idx
					}
				}
			}
		}
	}
	idx := len(o.vertices)
	o.vertices = append(o.vertices, &vertex{pos: c, output: -1})
	o.vertexHash[key] = append(o.vertexHash[key], idx)
	return idx
}

func (o *optimizer) vertexKey(c model3d.Coord3D) [3]int64 {
	f := o.cfg.VertexHashFactor
	return [3]int64{
		int64(math.Round(c.X * f)),
		int64(math.Round(c.Y * f)),
		int64(math.Round(c.Z * f)),
	}
}

func remapLoop(mapping []int, loop solid.Loop) solid.Loop {
	res := make(solid.Loop, 0, len(loop))
	for _, idx := range loop {
		v := mapping[idx]
		if len(res) == 0 || res[len(res)-1] != v {
			res = append(res, v)
		}
	}
	for len(res) > 1 && res[0] == res[len(res)-1] {
		res = res[:len(res)-1]
	}
	return res
}

// claimEdge records that a polygon is bounded by the edge (v1, v2) and
// returns the edge.
func (o *optimizer) claimEdge(v1, v2, polyIdx int) *edge {
	key := solid.NewEdgeKey(v1, v2)
	e, ok := o.edges[key]
	if !ok {
		e = &edge{v1: key[0], v2: key[1]}
		o.edges[key] = e
		o.edgeList = append(o.edgeList, e)
	}
	if e.n < 2 {
		e.polygons[e.n] = polyIdx
		e.n++
	} else {
		o.stats.Edges3Faces++
		if o.cfg.Verbose {
			log.Printf("optimize: edge %d-%d has more than two polygons", e.v1, e.v2)
		}
	}
	return e
}

func (o *optimizer) removeEdge(e *edge) {
	e.dead = true
	delete(o.edges, solid.NewEdgeKey(e.v1, e.v2))
}

func (o *optimizer) findBorderEdges() []*edge {
	var res []*edge
	for _, e := range o.edgeList {
		if e.n == 1 {
			res = append(res, e)
		}
	}
	o.stats.BorderEdges = len(res)
	return res
}

func (o *optimizer) updateManifold() {
	if o.stats.Edges3Faces > 0 {
		o.isManifold = false
		return
	}
	for _, e := range o.edgeList {
		if !e.dead && e.n == 1 {
			o.isManifold = false
			return
		}
	}
}
