package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/polycsg/optimize"
	"github.com/unixpickle/polycsg/solid"
)

func main() {
	var config optimize.Config
	flag.Float64Var(&config.VertexDistance, "vertex-distance", optimize.DefaultVertexDistance,
		"distance within which vertices are merged")
	flag.Float64Var(&config.EdgeDistance, "edge-distance", optimize.DefaultEdgeDistance,
		"distance within which a vertex lies on an edge")
	flag.Float64Var(&config.MinFaceArea, "min-face-area", optimize.DefaultMinFaceArea,
		"area at or below which faces are dropped")
	flag.Float64Var(&config.NormalLimit, "normal-limit", optimize.DefaultNormalLimit,
		"minimum normal cosine for merging polygons")
	flag.BoolVar(&config.Verbose, "verbose", false, "log statistics")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: optimize_stl [flags] <input.stl> <output.stl>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}
	inputPath, outputPath := args[0], args[1]

	log.Println("Loading mesh...")
	tris, err := solid.Load(inputPath, model3d.ReadSTL)
	essentials.Must(err)
	g := solid.FromTriangles(tris)

	log.Println("Optimizing...")
	result, stats := config.Optimize(g)
	log.Printf(
		"Faces went from %d => %d (%d merged, %d unmerged, %d split edges)",
		stats.InputFaces,
		stats.OutputFaces,
		stats.MergedPolygons,
		stats.UnmergedFaces,
		stats.SplitEdges,
	)

	log.Println("Saving mesh...")
	essentials.Must(result.Mesh().SaveGroupedSTL(outputPath))
}
