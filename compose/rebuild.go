package compose

import (
	"fmt"
	"log"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
)

// A BuildError records the failure of one object's builder.
type BuildError struct {
	Object *Object
	Err    error
}

func (b *BuildError) Error() string {
	return b.Object.Name + ": " + b.Err.Error()
}

func (b *BuildError) Unwrap() error {
	return b.Err
}

// BuildErrors collects every failure of a Rebuild.
type BuildErrors []*BuildError

func (b BuildErrors) Error() string {
	if len(b) == 1 {
		return b[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", b[0].Error(), len(b)-1)
}

// Rebuild runs the builders of objects and of everything they depend on,
// dependencies first.
//
// Objects which do not depend on each other are built concurrently. When
// a builder fails, its object keeps its previous geometry and dependent
// objects are still built from it. All failures are returned as a
// BuildErrors.
func Rebuild(objects []*Object, verbose bool) error {
	levels, err := dependencyLevels(objects)
	if err != nil {
		return err
	}

	// Operand geometry is read concurrently, so lazily computed caches
	// must be filled beforehand.
	for _, level := range levels {
		for _, o := range level {
			if g := o.Geometry(); g != nil {
				g.Triangles()
			}
		}
	}

	var failures BuildErrors
	for depth, level := range levels {
		errs := make([]error, len(level))
		changed := make([]bool, len(level))
		essentials.ConcurrentMap(0, len(level), func(i int) {
			changed[i], errs[i] = Build(level[i])
		})
		for i, err := range errs {
			if err != nil {
				failures = append(failures, &BuildError{Object: level[i], Err: err})
				if verbose {
					log.Printf("rebuild: %s failed: %v", level[i].Name, err)
				}
			} else if verbose && changed[i] {
				log.Printf("rebuild: level %d: built %s", depth, level[i].Name)
			}
		}
	}
	if len(failures) > 0 {
		return failures
	}
	return nil
}

// dependencyLevels groups the objects and their transitive dependencies
// so that every object comes after all of its dependencies.
func dependencyLevels(objects []*Object) ([][]*Object, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := map[*Object]int{}
	depth := map[*Object]int{}
	var order []*Object

	type frame struct {
		object *Object
		deps   []*Object
		next   int
	}
	for _, root := range objects {
		if state[root] != unvisited {
			continue
		}
		stack := []*frame{{object: root, deps: dependencies(root)}}
		state[root] = visiting
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			if f.next < len(f.deps) {
				dep := f.deps[f.next]
				f.next++
				switch state[dep] {
				case visiting:
					return nil, errors.Errorf("dependency cycle through %s", dep.Name)
				case unvisited:
					state[dep] = visiting
					stack = append(stack, &frame{object: dep, deps: dependencies(dep)})
				}
				continue
			}
			stack = stack[:len(stack)-1]
			d := 0
			for _, dep := range f.deps {
				d = essentials.MaxInt(d, depth[dep]+1)
			}
			depth[f.object] = d
			state[f.object] = done
			order = append(order, f.object)
		}
	}

	var levels [][]*Object
	for _, o := range order {
		d := depth[o]
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], o)
	}
	return levels, nil
}

func dependencies(o *Object) []*Object {
	if o.Builder == nil {
		return nil
	}
	var res []*Object
	o.Builder.TraverseDependencies(o, func(dep *Object) {
		res = append(res, dep)
	})
	return res
}
