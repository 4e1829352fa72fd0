// Package compose combines solids with boolean operations and rebuilds
// objects whose geometry is derived from other objects.
package compose

import (
	"log"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/polycsg/csg"
	"github.com/unixpickle/polycsg/solid"
)

var ErrNoValidOperands = errors.New("no valid operands")

type Operation int

const (
	Union Operation = iota
	Intersect
	Subtract
	Clip
)

func (o Operation) String() string {
	switch o {
	case Union:
		return "union"
	case Intersect:
		return "intersect"
	case Subtract:
		return "subtract"
	case Clip:
		return "clip"
	}
	return "unknown"
}

// ParseOperation parses the result of Operation.String().
func ParseOperation(s string) (Operation, error) {
	for _, op := range []Operation{Union, Intersect, Subtract, Clip} {
		if strings.EqualFold(s, op.String()) {
			return op, nil
		}
	}
	return 0, errors.Errorf("unknown operation: %s", s)
}

func (o Operation) apply(b1, b2 *csg.BSP) *csg.BSP {
	switch o {
	case Union:
		return b1.Union(b2)
	case Intersect:
		return b1.Intersect(b2)
	case Subtract:
		return b1.Subtract(b2)
	case Clip:
		return b1.Clip(b2)
	}
	panic("unknown operation: " + o.String())
}

// An Operand is a geometry placed in world space by Matrix. A nil Matrix
// is the identity.
type Operand struct {
	Geometry *solid.SolidGeometry
	Matrix   *solid.Matrix4
}

// Compose folds the valid operands from left to right with op and returns
// the raw, unmerged result in world space.
//
// Operands that fail IsValid() are skipped. The result's SmoothAngle is the
// largest SmoothAngle of the valid operands.
func Compose(op Operation, operands []Operand, c *csg.Config, verbose bool) (*solid.SolidGeometry, error) {
	var result *csg.BSP
	var smoothAngle float64
	for i, operand := range operands {
		if operand.Geometry == nil || !operand.Geometry.IsValid() {
			if verbose {
				log.Printf("compose: skipping invalid operand %d", i)
			}
			continue
		}
		smoothAngle = math.Max(smoothAngle, operand.Geometry.SmoothAngle)
		b := c.FromSolidGeometry(operand.Geometry, operand.Matrix)
		if result == nil {
			result = b
		} else {
			result = op.apply(result, b)
		}
		if err := result.Err(); err != nil {
			return nil, errors.Wrapf(err, "%s operand %d", op, i)
		}
	}
	if result == nil {
		return nil, ErrNoValidOperands
	}
	res, err := result.ToSolidGeometry()
	if err != nil {
		return nil, errors.Wrap(err, op.String())
	}
	res.SmoothAngle = smoothAngle
	if verbose {
		log.Printf("compose: %s produced %d faces", op, len(res.Faces))
	}
	return res, nil
}
