package compose

import (
	"log"

	"github.com/unixpickle/polycsg/solid"
)

// An Object owns a geometry and the render buffers derived from it.
type Object struct {
	Name string

	// Matrix places the object's local geometry in world space. A nil
	// Matrix is the identity.
	Matrix *solid.Matrix4

	// Builder, if non-nil, derives the geometry of the object.
	Builder Builder

	geometry *solid.SolidGeometry
	buffers  *solid.Buffers
}

// NewObject creates an object and builds its render buffers.
func NewObject(name string, g *solid.SolidGeometry) *Object {
	res := &Object{Name: name}
	if g != nil {
		res.UpdateGeometry(g, true, false)
	}
	return res
}

func (o *Object) Geometry() *solid.SolidGeometry {
	return o.geometry
}

func (o *Object) Buffers() *solid.Buffers {
	return o.buffers
}

func (o *Object) WorldMatrix() *solid.Matrix4 {
	if o.Matrix == nil {
		return solid.Identity4()
	}
	return o.Matrix
}

// Operand returns the geometry of o placed in world space.
func (o *Object) Operand() Operand {
	return Operand{Geometry: o.geometry, Matrix: o.WorldMatrix()}
}

// UpdateGeometry installs g as the geometry of o.
//
// The previous buffers are disposed first. If fix is set, the edge map of
// g is rebuilt to update its IsManifold flag. If debug is set, edge
// diagnostics are logged.
func (o *Object) UpdateGeometry(g *solid.SolidGeometry, fix, debug bool) {
	if o.buffers != nil {
		o.buffers.Dispose()
		o.buffers = nil
	}
	if fix {
		edges := g.FixEdges(debug)
		if debug {
			log.Printf("%s: edges=%d border=%d non_manifold=%d", o.Name, edges.Len(),
				edges.BorderEdges, edges.NonManifoldEdges)
		}
	}
	o.geometry = g
	o.buffers = g.UpdateBuffers()
}
