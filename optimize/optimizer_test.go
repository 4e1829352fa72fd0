package optimize

import (
	"math"
	"testing"

	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/polycsg/csg"
	"github.com/unixpickle/polycsg/solid"
)

func TestOptimizeIdempotent(t *testing.T) {
	box := solid.NewBox(model3d.Origin, model3d.XYZ(1, 2, 3))
	res, stats := Optimize(box)
	checkCounts(t, res, 6, 8)
	if !res.IsManifold {
		t.Error("box should be manifold")
	}
	if stats.MergedPolygons != 0 || stats.UnmergedFaces != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	res2, _ := Optimize(res)
	checkCounts(t, res2, len(res.Faces), len(res.Vertices))
	checkVolume(t, res2, 6)
}

func TestOptimizeMergeTriangles(t *testing.T) {
	mesh := model3d.NewMeshRect(model3d.Origin, model3d.XYZ(1, 1, 1))
	g := solid.FromMesh(mesh)
	if len(g.Faces) != 12 {
		t.Fatalf("expected 12 input faces but got %d", len(g.Faces))
	}
	res, stats := Optimize(g)
	checkCounts(t, res, 6, 8)
	checkVolume(t, res, 1)
	if stats.MergedPolygons != 6 {
		t.Errorf("expected 6 merges but got %d", stats.MergedPolygons)
	}
	for _, f := range res.Faces {
		if len(f.Outer) != 4 || len(f.Holes) != 0 {
			t.Errorf("unexpected face: %v", f.Outer)
		}
	}
}

func TestOptimizeTJunctions(t *testing.T) {
	g := solid.NewSolidGeometry()
	faces := [][]model3d.Coord3D{
		// Top, split in two.
		{model3d.XYZ(0, 0, 1), model3d.XYZ(1, 0, 1), model3d.XYZ(1, 1, 1), model3d.XYZ(0, 1, 1)},
		{model3d.XYZ(1, 0, 1), model3d.XYZ(2, 0, 1), model3d.XYZ(2, 1, 1), model3d.XYZ(1, 1, 1)},
		// Bottom.
		{model3d.XYZ(0, 0, 0), model3d.XYZ(0, 1, 0), model3d.XYZ(2, 1, 0), model3d.XYZ(2, 0, 0)},
		// Front and back, each with a T-junction on the top edge.
		{model3d.XYZ(0, 0, 0), model3d.XYZ(2, 0, 0), model3d.XYZ(2, 0, 1), model3d.XYZ(0, 0, 1)},
		{model3d.XYZ(0, 1, 0), model3d.XYZ(0, 1, 1), model3d.XYZ(2, 1, 1), model3d.XYZ(2, 1, 0)},
		// Left and right.
		{model3d.XYZ(0, 0, 0), model3d.XYZ(0, 0, 1), model3d.XYZ(0, 1, 1), model3d.XYZ(0, 1, 0)},
		{model3d.XYZ(2, 0, 0), model3d.XYZ(2, 1, 0), model3d.XYZ(2, 1, 1), model3d.XYZ(2, 0, 1)},
	}
	for _, f := range faces {
		if _, err := g.AddFacePoints(f...); err != nil {
			t.Fatal(err)
		}
	}
	if g.FixEdges(false); g.IsManifold {
		t.Fatal("input should have open T-junctions")
	}

	res, stats := Optimize(g)
	if stats.SplitEdges != 2 {
		t.Errorf("expected 2 split edges but got %d", stats.SplitEdges)
	}
	checkCounts(t, res, 6, 8)
	checkVolume(t, res, 2)
	if !res.IsManifold {
		t.Error("result should be manifold")
	}
	res.FixEdges(false)
	if !res.IsManifold {
		t.Error("result should have a manifold edge map")
	}
}

func TestOptimizeDegenerate(t *testing.T) {
	g := solid.NewBox(model3d.Origin, model3d.XYZ(1, 1, 1))
	if _, err := g.AddFacePoints(model3d.XYZ(0, 0, 0), model3d.XYZ(0.5, 0, 0),
		model3d.XYZ(1, 0, 0)); err != nil {
		t.Fatal(err)
	}
	res, stats := Optimize(g)
	if stats.DegenerateFaces != 1 {
		t.Errorf("expected 1 degenerate face but got %d", stats.DegenerateFaces)
	}
	checkCounts(t, res, 6, 8)
}

func TestOptimizeUnmerged(t *testing.T) {
	g := solid.NewSolidGeometry()
	a := g.AddVertex(model3d.XYZ(0, 0, 0))
	b := g.AddVertex(model3d.XYZ(1, 0, 0))
	for _, c := range []model3d.Coord3D{
		model3d.XYZ(0.5, 1, 0),
		model3d.XYZ(0.5, 0, 1),
		model3d.XYZ(0.5, -1, 0.5),
	} {
		if _, err := g.AddFace(a, b, g.AddVertex(c)); err != nil {
			t.Fatal(err)
		}
	}
	res, stats := Optimize(g)
	if stats.Edges3Faces != 1 {
		t.Errorf("expected 1 extra edge claim but got %d", stats.Edges3Faces)
	}
	if stats.UnmergedFaces != 1 {
		t.Errorf("expected 1 unmerged face but got %d", stats.UnmergedFaces)
	}
	if res.IsManifold {
		t.Error("result should not be manifold")
	}
	if len(res.Faces) != 3 {
		t.Errorf("expected 3 faces but got %d", len(res.Faces))
	}
}

func TestOptimizeSubtractOverlap(t *testing.T) {
	a := csg.FromSolidGeometry(solid.NewBox(model3d.Origin, model3d.XYZ(1, 1, 1)), nil)
	b := csg.FromSolidGeometry(solid.NewBox(model3d.X(0.5), model3d.XYZ(1.5, 1, 1)), nil)
	raw, err := a.Subtract(b).ToSolidGeometry()
	if err != nil {
		t.Fatal(err)
	}
	res, stats := Optimize(raw)
	checkCounts(t, res, 6, 8)
	checkVolume(t, res, 0.5)
	if !res.IsManifold {
		t.Errorf("result should be manifold: %+v", stats)
	}
	if len(res.Faces) > len(raw.Faces) {
		t.Errorf("face count grew from %d to %d", len(raw.Faces), len(res.Faces))
	}

	again, _ := Optimize(res)
	checkCounts(t, again, len(res.Faces), len(res.Vertices))
}

func TestOptimizeSubtractCavity(t *testing.T) {
	a := csg.FromSolidGeometry(solid.NewBox(model3d.Origin, model3d.XYZ(2, 2, 2)), nil)
	b := csg.FromSolidGeometry(solid.NewBox(model3d.XYZ(0.5, 0.5, 0.5), model3d.XYZ(1, 1, 1)), nil)
	raw, err := a.Subtract(b).ToSolidGeometry()
	if err != nil {
		t.Fatal(err)
	}
	res, _ := Optimize(raw)
	checkCounts(t, res, 12, 16)
	checkVolume(t, res, 8-0.125)
	if !res.IsManifold {
		t.Error("result should be manifold")
	}
	for _, f := range res.Faces {
		if len(f.Holes) != 0 {
			t.Error("cavity should not produce holes")
		}
	}
}

func TestOptimizeThroughHole(t *testing.T) {
	a := csg.FromSolidGeometry(solid.NewBox(model3d.Origin, model3d.XYZ(3, 3, 1)), nil)
	b := csg.FromSolidGeometry(solid.NewBox(model3d.XYZ(1, 1, -1), model3d.XYZ(2, 2, 2)), nil)
	raw, err := a.Subtract(b).ToSolidGeometry()
	if err != nil {
		t.Fatal(err)
	}
	res, _ := Optimize(raw)
	checkCounts(t, res, 10, 16)
	checkVolume(t, res, 8)
	var numHoles int
	for _, f := range res.Faces {
		numHoles += len(f.Holes)
		for _, h := range f.Holes {
			points := make([]model3d.Coord3D, len(h))
			for i, idx := range h {
				points[i] = res.Vertices[idx]
			}
			if solid.LoopNormal(points).Dot(f.Normal()) > 0 {
				t.Error("hole should wind clockwise")
			}
		}
	}
	if numHoles != 2 {
		t.Errorf("expected 2 holes but got %d", numHoles)
	}
}

func TestHoledFacesThroughBSP(t *testing.T) {
	a := csg.FromSolidGeometry(solid.NewBox(model3d.Origin, model3d.XYZ(3, 3, 1)), nil)
	b := csg.FromSolidGeometry(solid.NewBox(model3d.XYZ(1, 1, -1), model3d.XYZ(2, 2, 2)), nil)
	raw, err := a.Subtract(b).ToSolidGeometry()
	if err != nil {
		t.Fatal(err)
	}
	holed, _ := Optimize(raw)

	tree := csg.FromSolidGeometry(holed, nil)
	again, err := tree.ToSolidGeometry()
	if err != nil {
		t.Fatal(err)
	}
	checkVolume(t, again, 8)

	plug := csg.FromSolidGeometry(solid.NewBox(model3d.XYZ(1, 1, 0), model3d.XYZ(2, 2, 1)), nil)
	filled, err := tree.Union(plug).ToSolidGeometry()
	if err != nil {
		t.Fatal(err)
	}
	checkVolume(t, filled, 9)
	merged, _ := Optimize(filled)
	checkVolume(t, merged, 9)

	top := csg.FromSolidGeometry(solid.NewBox(model3d.XYZ(-1, -1, 0.5), model3d.XYZ(4, 4, 2)), nil)
	lowered, err := tree.Subtract(top).ToSolidGeometry()
	if err != nil {
		t.Fatal(err)
	}
	checkVolume(t, lowered, 4)
}

func BenchmarkOptimize(b *testing.B) {
	x := csg.FromSolidGeometry(solid.NewBox(model3d.Origin, model3d.XYZ(1, 1, 1)), nil)
	y := csg.FromSolidGeometry(solid.NewBox(model3d.XYZ(0.3, 0.2, 0.1), model3d.XYZ(1.3, 1.2, 1.1)), nil)
	raw, err := x.Union(y).ToSolidGeometry()
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Optimize(raw)
	}
}

func checkCounts(t *testing.T, g *solid.SolidGeometry, faces, vertices int) {
	t.Helper()
	if len(g.Faces) != faces {
		t.Errorf("expected %d faces but got %d", faces, len(g.Faces))
	}
	if len(g.Vertices) != vertices {
		t.Errorf("expected %d vertices but got %d", vertices, len(g.Vertices))
	}
}

func checkVolume(t *testing.T, g *solid.SolidGeometry, expected float64) {
	t.Helper()
	if v := g.Volume(); math.Abs(v-expected) > 1e-6 {
		t.Errorf("expected volume %f but got %f", expected, v)
	}
}
