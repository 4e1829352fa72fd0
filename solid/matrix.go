package solid

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
)

// Matrix4 is a 4x4 affine transform stored in row-major order.
// The last row is expected to be (0, 0, 0, 1).
type Matrix4 [16]float64

func Identity4() *Matrix4 {
	return &Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func Translation4(offset model3d.Coord3D) *Matrix4 {
	m := Identity4()
	m[3], m[7], m[11] = offset.X, offset.Y, offset.Z
	return m
}

func Scale4(scale model3d.Coord3D) *Matrix4 {
	m := Identity4()
	m[0], m[5], m[10] = scale.X, scale.Y, scale.Z
	return m
}

// Rotation4 creates a rotation of theta radians around an axis.
func Rotation4(axis model3d.Coord3D, theta float64) *Matrix4 {
	return NewMatrix4(model3d.NewMatrix3Rotation(axis, theta), model3d.Origin)
}

// NewMatrix4 creates an affine transform from a linear part and an offset.
func NewMatrix4(linear *model3d.Matrix3, offset model3d.Coord3D) *Matrix4 {
	return &Matrix4{
		linear[0], linear[1], linear[2], offset.X,
		linear[3], linear[4], linear[5], offset.Y,
		linear[6], linear[7], linear[8], offset.Z,
		0, 0, 0, 1,
	}
}

// Linear returns the upper-left 3x3 block.
func (m *Matrix4) Linear() *model3d.Matrix3 {
	return &model3d.Matrix3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

func (m *Matrix4) Offset() model3d.Coord3D {
	return model3d.XYZ(m[3], m[7], m[11])
}

// Mul computes m*other, which applies other first.
func (m *Matrix4) Mul(other *Matrix4) *Matrix4 {
	var res Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[i*4+k] * other[k*4+j]
			}
			res[i*4+j] = sum
		}
	}
	return &res
}

// Apply transforms a point.
func (m *Matrix4) Apply(c model3d.Coord3D) model3d.Coord3D {
	return model3d.XYZ(
		m[0]*c.X+m[1]*c.Y+m[2]*c.Z+m[3],
		m[4]*c.X+m[5]*c.Y+m[6]*c.Z+m[7],
		m[8]*c.X+m[9]*c.Y+m[10]*c.Z+m[11],
	)
}

// Inverse computes the inverse of an affine transform.
func (m *Matrix4) Inverse() *Matrix4 {
	inv := m.Linear().Inverse()
	return NewMatrix4(inv, inv.MulColumn(m.Offset()).Scale(-1))
}

func (m *Matrix4) IsIdentity() bool {
	return *m == *Identity4()
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}
