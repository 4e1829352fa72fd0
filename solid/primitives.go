package solid

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model2d"
	"github.com/unixpickle/model3d/model3d"
)

var ErrExtrusion = errors.New("extrusion failed")

// NewBox creates an axis-aligned box with six quad faces.
func NewBox(min, max model3d.Coord3D) *SolidGeometry {
	res := NewSolidGeometry()
	for i := 0; i < 8; i++ {
		c := min
		if i&1 != 0 {
			c.X = max.X
		}
		if i&2 != 0 {
			c.Y = max.Y
		}
		if i&4 != 0 {
			c.Z = max.Z
		}
		res.AddVertex(c)
	}
	for _, quad := range [6][4]int{
		{0, 2, 3, 1},
		{4, 5, 7, 6},
		{0, 1, 5, 4},
		{2, 6, 7, 3},
		{0, 4, 6, 2},
		{1, 3, 7, 5},
	} {
		res.AddFace(quad[:]...)
	}
	return res
}

// Extrude sweeps a closed profile in the XY plane along the Z axis.
//
// The profile may be concave and may be given in either winding order.
func Extrude(profile []model2d.Coord, depth float64) (*SolidGeometry, error) {
	if len(profile) < 3 {
		return nil, errors.Wrapf(ErrExtrusion, "profile has %d points", len(profile))
	}
	if depth == 0 || math.IsNaN(depth) || math.IsInf(depth, 0) {
		return nil, errors.Wrapf(ErrExtrusion, "invalid depth %f", depth)
	}

	points := append([]model2d.Coord{}, profile...)
	ring := make([]int, len(points))
	for i := range ring {
		ring[i] = i
	}
	area := signedArea(points, ring)
	if math.Abs(area) < 1e-12 {
		return nil, errors.Wrap(ErrExtrusion, "profile has zero area")
	}
	if area < 0 {
		for i := 0; i < len(points)/2; i++ {
			points[i], points[len(points)-i-1] = points[len(points)-i-1], points[i]
		}
	}

	base := 0.0
	if depth < 0 {
		base, depth = depth, -depth
	}

	res := NewSolidGeometry()
	n := len(points)
	for _, z := range []float64{base, base + depth} {
		for _, p := range points {
			res.AddVertex(model3d.XYZ(p.X, p.Y, z))
		}
	}
	bottom := make([]int, n)
	top := make([]int, n)
	for i := 0; i < n; i++ {
		bottom[i] = n - 1 - i
		top[i] = n + i
	}
	if _, err := res.AddFace(bottom...); err != nil {
		return nil, errors.Wrap(err, "extrude")
	}
	if _, err := res.AddFace(top...); err != nil {
		return nil, errors.Wrap(err, "extrude")
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		if _, err := res.AddFace(i, j, n+j, n+i); err != nil {
			return nil, errors.Wrap(err, "extrude")
		}
	}
	return res, nil
}
