package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/polycsg/compose"
	"github.com/unixpickle/polycsg/csg"
	"github.com/unixpickle/polycsg/optimize"
	"github.com/unixpickle/polycsg/solid"
)

func main() {
	var opName string
	var epsilon float64
	var maxSteps int
	var raw bool
	var bspPath string
	var verbose bool
	flag.StringVar(&opName, "op", "union", "operation (union, intersect, subtract, clip)")
	flag.Float64Var(&epsilon, "epsilon", csg.DefaultEpsilon, "plane classification tolerance")
	flag.IntVar(&maxSteps, "max-steps", 0, "maximum polygon classifications (0 is unlimited)")
	flag.BoolVar(&raw, "raw", false, "skip optimization of the result")
	flag.StringVar(&bspPath, "bsp", "", "optional path to save the combined BSP tree")
	flag.BoolVar(&verbose, "verbose", false, "log statistics")
	flag.Parse()

	args := flag.Args()
	if len(args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: csg_stl [flags] <output.stl> <input1.stl> <input2.stl> ...")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}
	outputPath, inputPaths := args[0], args[1:]

	op, err := compose.ParseOperation(opName)
	essentials.Must(err)
	config := &csg.Config{Epsilon: epsilon, MaxSteps: maxSteps}

	log.Println("Loading meshes...")
	operands := make([]compose.Operand, len(inputPaths))
	for i, path := range inputPaths {
		tris, err := solid.Load(path, model3d.ReadSTL)
		essentials.Must(err)
		operands[i] = compose.Operand{Geometry: solid.FromTriangles(tris)}
	}

	log.Printf("Computing %s...", op)
	result, err := compose.Compose(op, operands, config, verbose)
	essentials.Must(err)
	log.Printf("Raw result has %d faces", len(result.Faces))

	if bspPath != "" {
		log.Println("Saving BSP tree...")
		tree := config.FromSolidGeometry(result, nil)
		essentials.Must(solid.Save(bspPath, tree, csg.WriteBSP))
	}

	if !raw {
		log.Println("Optimizing...")
		var stats *optimize.Statistics
		result, stats = (&optimize.Config{Verbose: verbose}).Optimize(result)
		log.Printf("Optimized to %d faces (%d unmerged)", stats.OutputFaces, stats.UnmergedFaces)
	}
	edges := result.FixEdges(verbose)
	if !result.IsManifold {
		log.Printf("Result is not manifold: %d border edges, %d non-manifold edges",
			edges.BorderEdges, edges.NonManifoldEdges)
	}

	log.Println("Saving mesh...")
	essentials.Must(result.Mesh().SaveGroupedSTL(outputPath))
}
