package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/polycsg/csg"
	"github.com/unixpickle/polycsg/solid"
)

func main() {
	var edgeAngle float64
	flag.Float64Var(&edgeAngle, "edge-angle", solid.DefaultEdgeAngle,
		"dihedral angle in degrees below which edges are not drawn")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: geometry_info [flags] <input.stl | input.bsp>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}
	inputPath := args[0]

	var g *solid.SolidGeometry
	if strings.ToLower(filepath.Ext(inputPath)) == ".bsp" {
		log.Println("Loading tree...")
		tree, err := solid.Load(inputPath, csg.ReadBSP)
		essentials.Must(err)
		fmt.Println("Tree nodes:", tree.Root().NumNodes())
		fmt.Println("Tree depth:", tree.Root().Depth())
		g, err = tree.ToSolidGeometry()
		essentials.Must(err)
	} else {
		log.Println("Loading mesh...")
		tris, err := solid.Load(inputPath, model3d.ReadSTL)
		essentials.Must(err)
		g = solid.FromTriangles(tris)
	}

	edges := g.FixEdges(false)
	min, max := g.Bounds()
	fmt.Println("Vertices:", len(g.Vertices))
	fmt.Println("Faces:", len(g.Faces))
	fmt.Println("Triangles:", len(g.Triangles()))
	fmt.Println("Edges:", edges.Len())
	fmt.Println("Border edges:", edges.BorderEdges)
	fmt.Println("Non-manifold edges:", edges.NonManifoldEdges)
	fmt.Println("Manifold:", g.IsManifold)
	fmt.Println("Feature edges:", len(g.EdgesGeometry(edgeAngle))/6)
	fmt.Println("Border edge segments:", len(g.BorderEdgesGeometry())/6)
	fmt.Println("Bounds:", min, max)
	fmt.Printf("Volume: %f\n", g.Volume())
	fmt.Printf("Area: %f\n", g.Area())
}
