package csg

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

func TestReadWriteBSP(t *testing.T) {
	a := FromSolidGeometry(unitBox(model3d.Origin), nil)
	b := FromSolidGeometry(unitBox(model3d.XYZ(0.5, 0.25, 0)), nil)
	tree := a.Subtract(b)

	var buf bytes.Buffer
	if err := WriteBSP(&buf, tree); err != nil {
		t.Fatal(err)
	}
	result, err := ReadBSP(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(flattenTree(result.Root()), flattenTree(tree.Root())) {
		t.Fatal("decoded tree does not match")
	}
	if buf.Len() != 0 {
		t.Errorf("%d trailing bytes", buf.Len())
	}

	if _, err := ReadBSP(bytes.NewReader([]byte{1, 2, 3})); err == nil {
		t.Error("expected error for truncated data")
	}
}

func TestReadBSPHugeCounts(t *testing.T) {
	var buf bytes.Buffer
	write := func(data any) {
		if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
			t.Fatal(err)
		}
	}
	write([4]float64{0, 0, 1, 0})
	write(uint8(0))
	write(uint32(1))
	write([4]float64{0, 0, 1, 0})
	write(uint32(0xffffffff))
	write([2][3]float64{{0, 0, 0}, {1, 0, 0}})
	if _, err := ReadBSP(&buf); err == nil {
		t.Error("expected error for missing vertices")
	}

	buf.Reset()
	write([4]float64{0, 0, 1, 0})
	write(uint8(0))
	write(uint32(0xffffffff))
	if _, err := ReadBSP(&buf); err == nil {
		t.Error("expected error for missing polygons")
	}
}

type flatNode struct {
	Plane    *Plane
	Front    bool
	Back     bool
	Polygons []Polygon
}

func flattenTree(n *Node) []flatNode {
	var res []flatNode
	n.walk(func(node *Node) {
		flat := flatNode{Plane: node.Plane, Front: node.Front != nil, Back: node.Back != nil}
		for _, p := range node.Polygons {
			flat.Polygons = append(flat.Polygons, *p)
		}
		res = append(res, flat)
	})
	return res
}
