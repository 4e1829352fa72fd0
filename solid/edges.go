package solid

import (
	"log"
	"math"
)

// DefaultEdgeAngle is the dihedral angle, in degrees, below which
// EdgesGeometry treats two faces as one surface.
const DefaultEdgeAngle = 5.0

// An EdgeKey is an unordered pair of vertex indices, stored with the
// smaller index first.
type EdgeKey [2]int

func NewEdgeKey(v1, v2 int) EdgeKey {
	if v1 > v2 {
		v1, v2 = v2, v1
	}
	return EdgeKey{v1, v2}
}

// An Edge records the faces adjacent to an edge.
type Edge struct {
	Key EdgeKey

	// Face1 and Face2 are face indices, or -1 if absent.
	Face1 int
	Face2 int

	// Claims counts every face loop that referenced the edge, including
	// claims beyond the second one.
	Claims int
}

func (e *Edge) IsBorder() bool {
	return e.Face2 == -1
}

// An EdgeMap maps every edge of a geometry to its adjacent faces.
type EdgeMap struct {
	edges map[EdgeKey]*Edge
	order []*Edge

	// NonManifoldEdges counts edges claimed by more than two faces.
	NonManifoldEdges int

	// BorderEdges counts edges with only one adjacent face.
	BorderEdges int
}

// NewEdgeMap builds the edge adjacency of g. If verbose is set, edges
// claimed by a third face are logged.
func NewEdgeMap(g *SolidGeometry, verbose bool) *EdgeMap {
	res := &EdgeMap{edges: map[EdgeKey]*Edge{}}
	for faceIdx, f := range g.Faces {
		for _, loop := range append([]Loop{f.Outer}, f.Holes...) {
			for i, v1 := range loop {
				v2 := loop[(i+1)%len(loop)]
				if v1 == v2 {
					continue
				}
				res.add(NewEdgeKey(v1, v2), faceIdx, verbose)
			}
		}
	}
	for _, e := range res.order {
		if e.IsBorder() {
			res.BorderEdges++
		}
	}
	return res
}

func (e *EdgeMap) add(key EdgeKey, faceIdx int, verbose bool) {
	edge, ok := e.edges[key]
	if !ok {
		edge = &Edge{Key: key, Face1: faceIdx, Face2: -1, Claims: 1}
		e.edges[key] = edge
		e.order = append(e.order, edge)
		return
	}
	edge.Claims++
	if edge.Face2 == -1 {
		edge.Face2 = faceIdx
	} else {
		e.NonManifoldEdges++
		if verbose {
			log.Printf("non-manifold edge %v: faces %d, %d and %d",
				key, edge.Face1, edge.Face2, faceIdx)
		}
	}
}

// Edge looks up the edge between two vertices.
func (e *EdgeMap) Edge(v1, v2 int) (*Edge, bool) {
	res, ok := e.edges[NewEdgeKey(v1, v2)]
	return res, ok
}

func (e *EdgeMap) Len() int {
	return len(e.order)
}

// Edges returns all edges in the order they were first seen.
func (e *EdgeMap) Edges() []*Edge {
	return append([]*Edge{}, e.order...)
}

// BadEdges returns edges that do not have exactly two faces.
func (e *EdgeMap) BadEdges() []*Edge {
	var res []*Edge
	for _, edge := range e.order {
		if edge.IsBorder() || edge.Claims > 2 {
			res = append(res, edge)
		}
	}
	return res
}

// FixEdges rebuilds edge adjacency and updates IsManifold.
//
// Non-manifold edges are counted and optionally logged, but never cause a
// failure.
func (g *SolidGeometry) FixEdges(verbose bool) *EdgeMap {
	em := NewEdgeMap(g, verbose)
	g.IsManifold = em.BorderEdges == 0 && em.NonManifoldEdges == 0
	if verbose && !g.IsManifold {
		log.Printf("geometry is not manifold: border_edges=%d non_manifold_edges=%d",
			em.BorderEdges, em.NonManifoldEdges)
	}
	return em
}

// EdgesGeometry returns line segments, as pairs of 3-float positions, for
// every edge shared by two faces whose normals differ by more than
// angleThreshold degrees.
//
// If angleThreshold is 0, DefaultEdgeAngle is used.
func (g *SolidGeometry) EdgesGeometry(angleThreshold float64) []float32 {
	if angleThreshold == 0 {
		angleThreshold = DefaultEdgeAngle
	}
	cosThreshold := math.Cos(degreesToRadians(angleThreshold))
	var res []float32
	for _, e := range NewEdgeMap(g, false).order {
		if e.IsBorder() {
			continue
		}
		n1 := g.Faces[e.Face1].normal
		n2 := g.Faces[e.Face2].normal
		if n1.Dot(n2) > cosThreshold {
			continue
		}
		res = g.appendEdge(res, e)
	}
	return res
}

// BorderEdgesGeometry returns line segments for every edge with only one
// adjacent face, in the layout of EdgesGeometry.
func (g *SolidGeometry) BorderEdgesGeometry() []float32 {
	var res []float32
	for _, e := range NewEdgeMap(g, false).order {
		if e.IsBorder() {
			res = g.appendEdge(res, e)
		}
	}
	return res
}

func (g *SolidGeometry) appendEdge(res []float32, e *Edge) []float32 {
	for _, v := range e.Key {
		c := g.Vertices[v]
		res = append(res, float32(c.X), float32(c.Y), float32(c.Z))
	}
	return res
}
