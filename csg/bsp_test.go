package csg

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model2d"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/polycsg/solid"
)

func TestSplitPolygonBasic(t *testing.T) {
	poly := NewPolygon([]model3d.Coord3D{
		model3d.XYZ(-1, -1, 0.0),
		model3d.XYZ(1, -1, 0.1),
		model3d.XYZ(1, 1, -0.1),
	})
	normal := model3d.XYZ(0.01, 0.9, 0.01).Normalize()
	plane := &Plane{Normal: normal, W: 0.1}

	var coplanarFront, coplanarBack, frontList, backList []*Polygon
	plane.splitPolygon(poly, DefaultEpsilon, 0, &coplanarFront, &coplanarBack, &frontList, &backList)
	if len(coplanarFront)+len(coplanarBack) != 0 || len(frontList) != 1 || len(backList) != 1 {
		t.Fatalf("expected one front and one back fragment but got %d %d",
			len(frontList), len(backList))
	}
	totalArea := frontList[0].Area() + backList[0].Area()
	if math.Abs(totalArea-poly.Area()) > 1e-8 {
		t.Fatalf("total area should be %f but got %f", poly.Area(), totalArea)
	}
	for _, frag := range append(frontList, backList...) {
		fragNormal := solid.LoopNormal(frag.Vertices)
		if fragNormal.Dot(poly.Plane.Normal) < 1-1e-8 {
			t.Fatalf("fragment normal should be %v but got %v", poly.Plane.Normal, fragNormal)
		}
		for _, v := range frag.Vertices {
			if math.Abs(poly.Plane.Eval(v)) > 1e-8 {
				t.Fatalf("fragment vertex %v left the polygon plane", v)
			}
		}
	}
	for _, v := range frontList[0].Vertices {
		if plane.Eval(v) < -DefaultEpsilon {
			t.Fatalf("front vertex %v is behind the plane", v)
		}
	}
}

func TestSplitPolygonCoplanar(t *testing.T) {
	poly := NewPolygon([]model3d.Coord3D{
		model3d.XYZ(0, 0, 1),
		model3d.XYZ(1, 0, 1),
		model3d.XYZ(0, 1, 1),
	})
	up := &Plane{Normal: model3d.Z(1), W: 1}
	down := &Plane{Normal: model3d.Z(-1), W: -1}
	for i, plane := range []*Plane{up, down} {
		var coplanarFront, coplanarBack, other []*Polygon
		plane.splitPolygon(poly, DefaultEpsilon, 0, &coplanarFront, &coplanarBack, &other, &other)
		if len(other) != 0 {
			t.Fatalf("case %d: coplanar polygon was classified as front or back", i)
		}
		if (len(coplanarFront) == 1) != (i == 0) || (len(coplanarBack) == 1) != (i == 1) {
			t.Fatalf("case %d: wrong coplanar bucket", i)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	l, err := solid.Extrude([]model2d.Coord{
		{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 2}, {X: 0, Y: 2},
	}, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i, g := range []*solid.SolidGeometry{unitBox(model3d.Origin), l} {
		result, err := FromSolidGeometry(g, solid.Identity4()).ToSolidGeometry()
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(result.Volume()-g.Volume()) > 1e-8 {
			t.Errorf("case %d: volume should be %f but got %f", i, g.Volume(), result.Volume())
		}
		if math.Abs(result.Area()-g.Area()) > 1e-8 {
			t.Errorf("case %d: area should be %f but got %f", i, g.Area(), result.Area())
		}
	}
}

func TestFromSolidGeometryTransform(t *testing.T) {
	bsp := FromSolidGeometry(unitBox(model3d.Origin), solid.Translation4(model3d.XYZ(5, 0, 0)))
	min, max := bsp.Bounds()
	if min != model3d.XYZ(5, 0, 0) || max != model3d.XYZ(6, 1, 1) {
		t.Errorf("unexpected bounds %v %v", min, max)
	}
	if !bsp.Contains(model3d.XYZ(5.5, 0.5, 0.5)) || bsp.Contains(model3d.XYZ(0.5, 0.5, 0.5)) {
		t.Error("unexpected containment")
	}
}

func TestContains(t *testing.T) {
	bsp := FromSolidGeometry(unitBox(model3d.Origin), nil)
	for _, c := range []model3d.Coord3D{
		model3d.XYZ(0.5, 0.5, 0.5),
		model3d.XYZ(0.01, 0.99, 0.5),
	} {
		if !bsp.Contains(c) {
			t.Errorf("point %v should be inside", c)
		}
	}
	for _, c := range []model3d.Coord3D{
		model3d.XYZ(1.5, 0.5, 0.5),
		model3d.XYZ(0.5, -0.01, 0.5),
		model3d.XYZ(-3, -3, -3),
	} {
		if bsp.Contains(c) {
			t.Errorf("point %v should be outside", c)
		}
	}
	if (&Config{}).FromPolygons(nil).Contains(model3d.Origin) {
		t.Error("empty tree should contain nothing")
	}

	s := bsp.Solid()
	if !s.Contains(model3d.XYZ(0.5, 0.5, 0.5)) || s.Contains(model3d.XYZ(2, 2, 2)) {
		t.Error("solid adapter disagrees with tree")
	}
}

func TestInvert(t *testing.T) {
	bsp := FromSolidGeometry(unitBox(model3d.Origin), nil)
	inv := bsp.Invert()
	if inv.Contains(model3d.XYZ(0.5, 0.5, 0.5)) || !inv.Contains(model3d.XYZ(3, 3, 3)) {
		t.Error("inverted tree should swap inside and outside")
	}
	g, err := inv.ToSolidGeometry()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(g.Volume()+1) > 1e-8 {
		t.Errorf("inverted volume should be -1 but got %f", g.Volume())
	}
	// The operand must be left untouched.
	if !bsp.Contains(model3d.XYZ(0.5, 0.5, 0.5)) {
		t.Error("Invert modified its receiver")
	}
}

func TestBooleanAlgebra(t *testing.T) {
	a := FromSolidGeometry(unitBox(model3d.Origin), nil)
	b := FromSolidGeometry(unitBox(model3d.XYZ(0.3, 0.4, 0.2)), nil)
	volA := bspVolume(t, a)
	volB := bspVolume(t, b)

	if v := bspVolume(t, a.Union(a)); math.Abs(v-volA) > 1e-6 {
		t.Errorf("union(A, A) should have volume %f but got %f", volA, v)
	}
	if v := bspVolume(t, a.Subtract(a)); math.Abs(v) > 1e-6 {
		t.Errorf("subtract(A, A) should have no volume but got %f", v)
	}

	ab := bspVolume(t, a.Union(b))
	ba := bspVolume(t, b.Union(a))
	if math.Abs(ab-ba) > 1e-6 {
		t.Errorf("union should commute: %f != %f", ab, ba)
	}
	expectedUnion := 2 - 0.7*0.6*0.8
	if math.Abs(ab-expectedUnion) > 1e-6 {
		t.Errorf("union volume should be %f but got %f", expectedUnion, ab)
	}

	if v := bspVolume(t, a.Union(b).Subtract(b)); v > volA+1e-6 {
		t.Errorf("subtract(union(A, B), B) = %f exceeds volume(A) = %f", v, volA)
	}

	intersection := bspVolume(t, a.Intersect(b))
	if intersection > math.Min(volA, volB)+1e-6 {
		t.Errorf("intersection volume %f is too large", intersection)
	}
	if math.Abs(intersection-0.7*0.6*0.8) > 1e-6 {
		t.Errorf("intersection volume should be %f but got %f", 0.7*0.6*0.8, intersection)
	}
}

func TestSubtractOverlapping(t *testing.T) {
	a := FromSolidGeometry(unitBox(model3d.Origin), nil)
	b := FromSolidGeometry(unitBox(model3d.X(0.5)), nil)
	if v := bspVolume(t, a.Subtract(b)); math.Abs(v-0.5) > 1e-6 {
		t.Errorf("expected volume 0.5 but got %f", v)
	}
	if v := bspVolume(t, a.Intersect(b)); math.Abs(v-0.5) > 1e-6 {
		t.Errorf("expected intersection volume 0.5 but got %f", v)
	}
}

func TestSubtractCavity(t *testing.T) {
	outer := solid.NewBox(model3d.XYZ(0, 0, 0), model3d.XYZ(2, 2, 2))
	inner := solid.NewBox(model3d.XYZ(0.5, 0.5, 0.5), model3d.XYZ(1, 1, 1))
	result := FromSolidGeometry(outer, nil).Subtract(FromSolidGeometry(inner, nil))
	if v := bspVolume(t, result); math.Abs(v-(8-0.125)) > 1e-6 {
		t.Errorf("expected volume %f but got %f", 8-0.125, v)
	}
	g, err := result.ToSolidGeometry()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(g.Area()-(24+1.5)) > 1e-6 {
		t.Errorf("expected area %f but got %f", 24+1.5, g.Area())
	}
}

func TestClip(t *testing.T) {
	a := FromSolidGeometry(unitBox(model3d.Origin), nil)
	cutter := FromSolidGeometry(solid.NewBox(model3d.XYZ(0.5, -1, -1), model3d.XYZ(1.5, 2, 2)), nil)
	g, err := a.Clip(cutter).ToSolidGeometry()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(g.Area()-3) > 1e-6 {
		t.Errorf("expected shell area 3 but got %f", g.Area())
	}
	g.FixEdges(false)
	if g.IsManifold {
		t.Error("clipped shell should be open")
	}
}

func TestStepBudget(t *testing.T) {
	cfg := &Config{MaxSteps: 10}
	a := cfg.FromSolidGeometry(unitBox(model3d.Origin), nil)
	b := cfg.FromSolidGeometry(unitBox(model3d.XYZ(0.5, 0.5, 0.5)), nil)
	_, err := a.Union(b).ToSolidGeometry()
	if !errors.Is(err, ErrStepBudget) {
		t.Fatalf("expected ErrStepBudget but got %v", err)
	}

	cfg.MaxSteps = 1000000
	a = cfg.FromSolidGeometry(unitBox(model3d.Origin), nil)
	b = cfg.FromSolidGeometry(unitBox(model3d.XYZ(0.5, 0.5, 0.5)), nil)
	if _, err := a.Union(b).ToSolidGeometry(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestContainsUnbuiltNodes(t *testing.T) {
	leafy := &Node{
		Plane: &Plane{Normal: model3d.Z(1)},
		Front: &Node{},
		Back:  &Node{},
	}
	if leafy.Contains(model3d.Z(1)) {
		t.Error("point in front of the plane should be outside")
	}
	if !leafy.Contains(model3d.Z(-1)) {
		t.Error("point behind the plane should be inside")
	}

	// The first box lies behind the root plane and the second in front of
	// it. The budget runs out inside the back subtree, before the front
	// child receives a plane.
	polys := FromSolidGeometry(unitBox(model3d.Origin), nil).Root().AllPolygons()
	below := FromSolidGeometry(unitBox(model3d.Z(-3)), nil).Root().AllPolygons()
	cut := (&Config{MaxSteps: 13}).FromPolygons(append(polys, below...))
	if !errors.Is(cut.Err(), ErrStepBudget) {
		t.Fatalf("expected ErrStepBudget but got %v", cut.Err())
	}
	var unbuilt int
	cut.Root().walk(func(n *Node) {
		if n != cut.Root() && n.Plane == nil {
			unbuilt++
		}
	})
	if unbuilt == 0 {
		t.Fatal("expected a child without a plane")
	}
	for _, c := range []model3d.Coord3D{
		model3d.XYZ(0.5, 0.5, 0.5),
		model3d.XYZ(0.5, 0.5, -2.5),
		model3d.XYZ(5, 5, -5),
	} {
		cut.Contains(c)
	}
	if cut.Contains(model3d.XYZ(0.5, 0.5, -2.5)) {
		t.Error("unbuilt front cell should be outside")
	}

	clipped := FromSolidGeometry(unitBox(model3d.Z(-2.5)), nil).Clip(cut)
	if err := clipped.Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(clipped.Root().AllPolygons()) == 0 {
		t.Error("polygons in the unbuilt cell should be kept")
	}
}

func TestDeepTree(t *testing.T) {
	// A fine cylinder produces a tall, narrow tree.
	var profile []model2d.Coord
	for i := 0; i < 500; i++ {
		theta := float64(i) * 2 * math.Pi / 500
		profile = append(profile, model2d.Coord{X: math.Cos(theta), Y: math.Sin(theta)})
	}
	g, err := solid.Extrude(profile, 1)
	if err != nil {
		t.Fatal(err)
	}
	bsp := FromSolidGeometry(g, nil)
	if bsp.Root().Depth() < 100 {
		t.Errorf("expected a deep tree, got depth %d", bsp.Root().Depth())
	}
	if v := bspVolume(t, bsp); math.Abs(v-g.Volume()) > 1e-6 {
		t.Errorf("expected volume %f but got %f", g.Volume(), v)
	}
}

func BenchmarkUnion(b *testing.B) {
	var profile []model2d.Coord
	for i := 0; i < 64; i++ {
		theta := float64(i) * 2 * math.Pi / 64
		profile = append(profile, model2d.Coord{X: math.Cos(theta), Y: math.Sin(theta)})
	}
	g, err := solid.Extrude(profile, 1)
	if err != nil {
		b.Fatal(err)
	}
	x := FromSolidGeometry(g, nil)
	y := FromSolidGeometry(g, solid.Translation4(model3d.XYZ(0.5, 0.3, 0.2)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x.Union(y)
	}
}

func unitBox(origin model3d.Coord3D) *solid.SolidGeometry {
	return solid.NewBox(origin, origin.Add(model3d.XYZ(1, 1, 1)))
}

func bspVolume(t *testing.T, b *BSP) float64 {
	g, err := b.ToSolidGeometry()
	if err != nil {
		t.Fatal(err)
	}
	return g.Volume()
}
