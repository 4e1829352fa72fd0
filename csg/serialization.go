package csg

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
)

const (
	hasFront = 1 << iota
	hasBack
)

const maxPrealloc = 1 << 10

// WriteBSP serializes the tree of b in a 64-bit precision binary format.
func WriteBSP(w io.Writer, b *BSP) error {
	if err := writeTree(w, b.root); err != nil {
		return errors.Wrap(err, "write bsp tree")
	}
	return nil
}

func writeTree(w io.Writer, root *Node) error {
	var err error
	write := func(data any) {
		if err == nil {
			err = binary.Write(w, binary.LittleEndian, data)
		}
	}
	writePlane := func(p Plane) {
		write([4]float64{p.Normal.X, p.Normal.Y, p.Normal.Z, p.W})
	}
	root.walk(func(node *Node) {
		if node.Plane == nil {
			writePlane(Plane{})
		} else {
			if node.Plane.Normal == model3d.Origin {
				panic("cannot encode zero normal for splitting plane")
			}
			writePlane(*node.Plane)
		}
		var flags uint8
		if node.Front != nil {
			flags |= hasFront
		}
		if node.Back != nil {
			flags |= hasBack
		}
		write(flags)
		write(uint32(len(node.Polygons)))
		for _, p := range node.Polygons {
			writePlane(p.Plane)
			write(uint32(len(p.Vertices)))
			for _, v := range p.Vertices {
				write([3]float64{v.X, v.Y, v.Z})
			}
		}
	})
	return err
}

// ReadBSP reads the output of WriteBSP using a default Config.
func ReadBSP(r io.Reader) (*BSP, error) {
	var c Config
	return c.ReadBSP(r)
}

// ReadBSP reads the output of WriteBSP.
func (c *Config) ReadBSP(r io.Reader) (*BSP, error) {
	root, err := readTree(r)
	if err != nil {
		return nil, errors.Wrap(err, "read bsp tree")
	}
	res := &BSP{root: root, epsilon: c.epsilon(), budget: &budget{}}
	if c != nil {
		res.budget.max = c.MaxSteps
	}
	return res, nil
}

func readTree(r io.Reader) (*Node, error) {
	readPlane := func() (Plane, error) {
		var values [4]float64
		if err := binary.Read(r, binary.LittleEndian, &values); err != nil {
			return Plane{}, err
		}
		return Plane{Normal: model3d.XYZ(values[0], values[1], values[2]), W: values[3]}, nil
	}

	var root *Node
	// Nodes are written parents first with front subtrees before back
	// subtrees, so pending child slots are kept on a stack.
	slots := []**Node{&root}
	for len(slots) > 0 {
		slot := slots[len(slots)-1]
		slots = slots[:len(slots)-1]

		node := &Node{}
		*slot = node
		plane, err := readPlane()
		if err != nil {
			return nil, err
		}
		if plane.Normal != model3d.Origin {
			node.Plane = &plane
		}
		var flags uint8
		if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
			return nil, err
		}
		var numPolygons uint32
		if err := binary.Read(r, binary.LittleEndian, &numPolygons); err != nil {
			return nil, err
		}
		for i := 0; i < int(numPolygons); i++ {
			polyPlane, err := readPlane()
			if err != nil {
				return nil, err
			}
			var numVertices uint32
			if err := binary.Read(r, binary.LittleEndian, &numVertices); err != nil {
				return nil, err
			}
			if numVertices < 3 {
				return nil, errors.Errorf("polygon has %d vertices", numVertices)
			}
			// Counts are untrusted, so vertices are read one at a time
			// instead of being allocated up front.
			poly := &Polygon{
				Plane:    polyPlane,
				Vertices: make([]model3d.Coord3D, 0, essentials.MinInt(int(numVertices), maxPrealloc)),
			}
			for j := 0; j < int(numVertices); j++ {
				var v [3]float64
				if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
					return nil, err
				}
				poly.Vertices = append(poly.Vertices, model3d.NewCoord3DArray(v))
			}
			node.Polygons = append(node.Polygons, poly)
		}
		if flags&hasBack != 0 {
			slots = append(slots, &node.Back)
		}
		if flags&hasFront != 0 {
			slots = append(slots, &node.Front)
		}
	}
	return root, nil
}
