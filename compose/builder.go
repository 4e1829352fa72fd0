package compose

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model2d"
	"github.com/unixpickle/polycsg/csg"
	"github.com/unixpickle/polycsg/optimize"
	"github.com/unixpickle/polycsg/solid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var ErrUnknownBuilder = errors.New("unknown builder")

// A Builder derives the geometry of an object.
//
// Builders call into the geometry kernel and install their result with
// Object.UpdateGeometry. A builder which fails must leave its target
// untouched.
type Builder interface {
	// PerformBuild rebuilds target and reports whether its geometry
	// changed.
	PerformBuild(target *Object) (bool, error)

	// TraverseDependencies calls visit for every object whose geometry
	// the build of target reads.
	TraverseDependencies(target *Object, visit func(*Object))

	// Copy creates an independent copy of the builder.
	Copy() Builder
}

// DefaultBuild is the build behavior of objects without a Builder. It
// leaves the geometry unchanged.
func DefaultBuild(target *Object) (bool, error) {
	return false, nil
}

// Build runs the builder of o, or DefaultBuild if it has none.
func Build(o *Object) (bool, error) {
	if o.Builder == nil {
		return DefaultBuild(o)
	}
	return o.Builder.PerformBuild(o)
}

// A Registry creates builders by name.
type Registry struct {
	lock      sync.RWMutex
	factories map[string]func() Builder
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]func() Builder{}}
}

// DefaultRegistry creates a registry with the builders of this package.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("boolean", func() Builder { return &BooleanBuilder{} })
	r.Register("extrude", func() Builder { return &ExtrudeBuilder{} })
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, factory func() Builder) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.factories[name] = factory
}

func (r *Registry) New(name string) (Builder, error) {
	r.lock.RLock()
	factory, ok := r.factories[name]
	r.lock.RUnlock()
	if !ok {
		return nil, errors.Wrap(ErrUnknownBuilder, name)
	}
	return factory(), nil
}

// Names returns the sorted names of all registered builders.
func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	names := maps.Keys(r.factories)
	slices.Sort(names)
	return names
}

// A BooleanBuilder combines the world space geometry of other objects.
// The optimized result is mapped back into the local space of the target.
type BooleanBuilder struct {
	Operation Operation
	Operands  []*Object

	// CSG and Optimize configure the boolean engine and the optimizer.
	// Nil values use the defaults.
	CSG      *csg.Config
	Optimize *optimize.Config

	// Raw disables optimization of the result.
	Raw bool

	Verbose bool
}

func (b *BooleanBuilder) PerformBuild(target *Object) (bool, error) {
	operands := make([]Operand, len(b.Operands))
	for i, o := range b.Operands {
		operands[i] = o.Operand()
	}
	result, err := Compose(b.Operation, operands, b.CSG, b.Verbose)
	if err != nil {
		return false, errors.Wrap(err, "boolean build")
	}
	if !b.Raw {
		result, _ = b.Optimize.Optimize(result)
	}
	if m := target.WorldMatrix(); !m.IsIdentity() {
		result.ApplyMatrix4(m.Inverse())
	}
	target.UpdateGeometry(result, true, b.Verbose)
	return true, nil
}

func (b *BooleanBuilder) TraverseDependencies(target *Object, visit func(*Object)) {
	for _, o := range b.Operands {
		visit(o)
	}
}

func (b *BooleanBuilder) Copy() Builder {
	res := *b
	res.Operands = append([]*Object{}, b.Operands...)
	return &res
}

// An ExtrudeBuilder sweeps a planar profile along the z axis.
type ExtrudeBuilder struct {
	Profile     []model2d.Coord
	Depth       float64
	SmoothAngle float64
}

func (e *ExtrudeBuilder) PerformBuild(target *Object) (bool, error) {
	g, err := solid.Extrude(e.Profile, e.Depth)
	if err != nil {
		return false, errors.Wrap(err, "extrude build")
	}
	g.SmoothAngle = e.SmoothAngle
	target.UpdateGeometry(g, true, false)
	return true, nil
}

func (e *ExtrudeBuilder) TraverseDependencies(target *Object, visit func(*Object)) {
}

func (e *ExtrudeBuilder) Copy() Builder {
	res := *e
	res.Profile = append([]model2d.Coord{}, e.Profile...)
	return &res
}
