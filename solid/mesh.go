package solid

import "github.com/unixpickle/model3d/model3d"

// FromTriangles creates a geometry with one face per triangle. Vertices
// with identical coordinates are shared.
func FromTriangles(tris []*model3d.Triangle) *SolidGeometry {
	res := NewSolidGeometry()
	indices := map[model3d.Coord3D]int{}
	vertex := func(c model3d.Coord3D) int {
		if idx, ok := indices[c]; ok {
			return idx
		}
		idx := res.AddVertex(c)
		indices[c] = idx
		return idx
	}
	for _, t := range tris {
		// Three vertices always form a valid face.
		res.AddFace(vertex(t[0]), vertex(t[1]), vertex(t[2]))
	}
	return res
}

func FromMesh(m *model3d.Mesh) *SolidGeometry {
	return FromTriangles(m.TriangleSlice())
}

// Mesh converts the triangulated faces of g into a model3d mesh.
func (g *SolidGeometry) Mesh() *model3d.Mesh {
	res := model3d.NewMesh()
	for _, t := range g.Triangles() {
		res.Add(&model3d.Triangle{g.Vertices[t[0]], g.Vertices[t[1]], g.Vertices[t[2]]})
	}
	return res
}
