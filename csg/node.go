package csg

import "github.com/unixpickle/model3d/model3d"

// A Node is a node of a BSP tree. Its polygons lie in its plane, and its
// children hold the polygons in front of and behind that plane.
//
// An empty root has a nil Plane. A nil Front child is an outside cell and
// a nil Back child is an inside cell.
//
// All tree walks use explicit stacks so that deep trees cannot overflow the
// goroutine stack.
type Node struct {
	Plane    *Plane
	Polygons []*Polygon
	Front    *Node
	Back     *Node
}

type nodeWork struct {
	node     *Node
	polygons []*Polygon
}

// walk calls f for every node in the tree, parents before children.
func (n *Node) walk(f func(*Node)) {
	stack := []*Node{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		f(node)
		if node.Back != nil {
			stack = append(stack, node.Back)
		}
		if node.Front != nil {
			stack = append(stack, node.Front)
		}
	}
}

// NumNodes counts the nodes in the tree.
func (n *Node) NumNodes() int {
	var count int
	n.walk(func(*Node) {
		count++
	})
	return count
}

// Depth computes the length of the longest root-to-leaf path.
func (n *Node) Depth() int {
	type entry struct {
		node  *Node
		depth int
	}
	var maxDepth int
	stack := []entry{{n, 1}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e.depth > maxDepth {
			maxDepth = e.depth
		}
		for _, child := range []*Node{e.node.Front, e.node.Back} {
			if child != nil {
				stack = append(stack, entry{child, e.depth + 1})
			}
		}
	}
	return maxDepth
}

// AllPolygons collects the polygons of every node.
func (n *Node) AllPolygons() []*Polygon {
	var res []*Polygon
	n.walk(func(node *Node) {
		res = append(res, node.Polygons...)
	})
	return res
}

// Clone deep-copies the tree, including its polygons.
func (n *Node) Clone() *Node {
	type pair struct {
		src, dst *Node
	}
	root := &Node{}
	stack := []pair{{n, root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.src.Plane != nil {
			plane := *p.src.Plane
			p.dst.Plane = &plane
		}
		p.dst.Polygons = make([]*Polygon, len(p.src.Polygons))
		for i, poly := range p.src.Polygons {
			p.dst.Polygons[i] = poly.Clone()
		}
		if p.src.Front != nil {
			p.dst.Front = &Node{}
			stack = append(stack, pair{p.src.Front, p.dst.Front})
		}
		if p.src.Back != nil {
			p.dst.Back = &Node{}
			stack = append(stack, pair{p.src.Back, p.dst.Back})
		}
	}
	return root
}

// invert swaps solid and empty space throughout the tree.
func (n *Node) invert() {
	n.walk(func(node *Node) {
		for _, p := range node.Polygons {
			p.Flip()
		}
		if node.Plane != nil {
			node.Plane.Flip()
		}
		node.Front, node.Back = node.Back, node.Front
	})
}

// Contains checks if a point lies in an inside cell of the tree. Points
// on a splitting plane are treated as being in front of it.
//
// A node without a plane is a cell whose side is decided by the last plane
// above it, like a missing child. This covers empty trees and trees whose
// construction was cut short by a step budget.
func (n *Node) Contains(c model3d.Coord3D) bool {
	inside := false
	node := n
	for node != nil && node.Plane != nil {
		if node.Plane.Eval(c) >= 0 {
			inside = false
			node = node.Front
		} else {
			inside = true
			node = node.Back
		}
	}
	return inside
}
