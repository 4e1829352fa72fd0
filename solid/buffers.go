package solid

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
)

// Buffers holds flat per-triangle render arrays. Every triangle corner is
// stored separately, with three floats per position and per normal.
type Buffers struct {
	Positions []float32
	Normals   []float32

	disposed bool
}

// Dispose releases the arrays. A disposed buffer must not be used again.
func (b *Buffers) Dispose() {
	b.Positions = nil
	b.Normals = nil
	b.disposed = true
}

func (b *Buffers) Disposed() bool {
	return b.disposed
}

func (b *Buffers) TriangleCount() int {
	return len(b.Positions) / 9
}

// Buffers returns the buffers from the last UpdateBuffers call, or nil if
// the geometry changed since then.
func (g *SolidGeometry) Buffers() *Buffers {
	return g.buffers
}

// UpdateBuffers regenerates the render arrays of g.
//
// When SmoothAngle is positive, the faces around each vertex are grouped by
// normal similarity and each group shares one averaged normal, so that
// hard edges keep distinct normals.
func (g *SolidGeometry) UpdateBuffers() *Buffers {
	var cornerNormals map[[2]int]model3d.Coord3D
	if g.SmoothAngle > 0 {
		cornerNormals = g.smoothNormals()
	}

	res := &Buffers{}
	addCoord := func(arr []float32, c model3d.Coord3D) []float32 {
		return append(arr, float32(c.X), float32(c.Y), float32(c.Z))
	}
	for faceIdx, f := range g.Faces {
		for _, t := range g.FaceTriangles(f) {
			for _, vIdx := range t {
				res.Positions = addCoord(res.Positions, g.Vertices[vIdx])
				normal := f.normal
				if cornerNormals != nil {
					normal = cornerNormals[[2]int{vIdx, faceIdx}]
				}
				res.Normals = addCoord(res.Normals, normal)
			}
		}
	}
	g.buffers = res
	return res
}

// smoothNormals maps (vertex, face) pairs to shaded normals.
func (g *SolidGeometry) smoothNormals() map[[2]int]model3d.Coord3D {
	vertexFaces := make([][]int, len(g.Vertices))
	for faceIdx, f := range g.Faces {
		seen := map[int]bool{}
		for _, loop := range append([]Loop{f.Outer}, f.Holes...) {
			for _, v := range loop {
				if !seen[v] {
					seen[v] = true
					vertexFaces[v] = append(vertexFaces[v], faceIdx)
				}
			}
		}
	}

	threshold := math.Cos(degreesToRadians(g.SmoothAngle))
	res := map[[2]int]model3d.Coord3D{}
	for vIdx, faces := range vertexFaces {
		groups := newUnionFind(len(faces))
		for i := 0; i < len(faces); i++ {
			n1 := g.Faces[faces[i]].normal
			for j := i + 1; j < len(faces); j++ {
				if n1.Dot(g.Faces[faces[j]].normal) > threshold {
					groups.Union(i, j)
				}
			}
		}
		sums := map[int]model3d.Coord3D{}
		for i, faceIdx := range faces {
			root := groups.Find(i)
			sums[root] = sums[root].Add(g.Faces[faceIdx].normal)
		}
		for i, faceIdx := range faces {
			sum := sums[groups.Find(i)]
			if norm := sum.Norm(); norm > 0 {
				sum = sum.Scale(1 / norm)
			}
			res[[2]int{vIdx, faceIdx}] = sum
		}
	}
	return res
}

type unionFind []int

func newUnionFind(n int) unionFind {
	res := make(unionFind, n)
	for i := range res {
		res[i] = i
	}
	return res
}

func (u unionFind) Find(i int) int {
	for u[i] != i {
		u[i] = u[u[i]]
		i = u[i]
	}
	return i
}

func (u unionFind) Union(i, j int) {
	u[u.Find(i)] = u.Find(j)
}
