// Command fittest runs the fitting pipeline on scan+prosthetic OBJ files and
// prints results.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"handfit/internal/fitting"
	"handfit/internal/landmark"
	"handfit/internal/meshio"
	"handfit/internal/scene"
	"handfit/pkg/geometry"
)

func main() {
	scanPath := flag.String("scan", "", "Path to hand scan OBJ")
	prosPath := flag.String("prosthetic", "", "Path to prosthetic OBJ")
	strategy := flag.String("strategy", "projection", "Conformance strategy: projection or subtraction")
	offsetMM := flag.Float64("offset", 3.0, "Clearance offset in millimeters")
	outPath := flag.String("out", "", "Write the baked prosthetic OBJ here")
	bake := flag.Bool("bake", false, "Bake the deformation before writing")

	var marks [6]string
	flagNames := []string{"hwl", "hwr", "hp", "pwl", "pwr", "pp"}
	for i, name := range landmark.AllNames() {
		flag.StringVar(&marks[i], flagNames[i], "", name+" position as x,y,z (meters)")
	}
	flag.Parse()

	if *scanPath == "" || *prosPath == "" {
		fmt.Println("Usage: fittest -scan <obj> -prosthetic <obj> -hwl x,y,z -hwr x,y,z -hp x,y,z -pwl x,y,z -pwr x,y,z -pp x,y,z")
		os.Exit(1)
	}

	sc := scene.New()
	s := fitting.NewSession(sc)
	defer s.Close()

	fmt.Printf("=== Loading scan: %s ===\n", *scanPath)
	scanMesh, err := meshio.LoadFile(*scanPath)
	if err != nil {
		fatal("Failed to load scan: %v", err)
	}
	fmt.Printf("%d vertices, %d faces\n", len(scanMesh.Vertices), len(scanMesh.Faces))
	sc.AddOrReplace(scene.NewObject(landmark.HandScanName, scanMesh))

	fmt.Printf("\n=== Loading prosthetic: %s ===\n", *prosPath)
	prosMesh, err := meshio.LoadFile(*prosPath)
	if err != nil {
		fatal("Failed to load prosthetic: %v", err)
	}
	fmt.Printf("%d vertices, %d faces\n", len(prosMesh.Vertices), len(prosMesh.Faces))
	sc.AddOrReplace(scene.NewObject(landmark.ProstheticName, prosMesh))

	for i, name := range landmark.AllNames() {
		if marks[i] == "" {
			fatal("Missing landmark flag -%s (%s)", flagNames[i], name)
		}
		p, err := parseVec3(marks[i])
		if err != nil {
			fatal("Bad -%s: %v", flagNames[i], err)
		}
		sc.AddOrReplace(scene.NewEmpty(name, p))
	}

	strat := fitting.StrategyProjection
	if *strategy == "subtraction" {
		strat = fitting.StrategySubtraction
	} else if *strategy != "projection" {
		fatal("Unknown strategy %q", *strategy)
	}

	fmt.Printf("\n=== Running fitting process (%s) ===\n", strat)
	h, err := s.RunFittingProcess(strat)
	if err != nil {
		fatal("Fitting failed: %v", err)
	}
	if err := h.SetOffset(*offsetMM / 1000); err != nil {
		fatal("Offset: %v", err)
	}

	prosthetic, _ := sc.FindObject(landmark.ProstheticName)
	tracker := fitting.TrackerStateOf(prosthetic)
	fmt.Printf("Scale: X=%.1f%% Y=%.1f%% Z=%.1f%%\n",
		tracker.PercentX(), tracker.PercentY(), tracker.PercentZ())
	fmt.Printf("Baseline: wrist=%.1f mm palm=%.1f mm\n",
		tracker.BaselineWrist*1000, tracker.BaselinePalm*1000)

	fmt.Printf("\n=== Clearance report (offset %.1f mm) ===\n", *offsetMM)
	report, err := h.Report()
	if err != nil {
		fatal("Report failed: %v", err)
	}
	fmt.Printf("Samples: %d\n", report.Samples)
	fmt.Printf("Min: %.2f mm  Mean: %.2f mm  Max: %.2f mm  SD: %.2f mm\n",
		report.Min*1000, report.Mean*1000, report.Max*1000, report.StdDev*1000)
	fmt.Printf("At or above offset: %.1f%%\n", report.WithinTolerance*100)

	if *bake {
		fmt.Printf("\n=== Baking ===\n")
		if err := h.Bake(); err != nil {
			fatal("Bake failed: %v", err)
		}
		fmt.Printf("State: %s\n", h.State())
	}

	if *outPath != "" {
		obj, err := sc.FindObject(exportName(strat))
		if err != nil {
			fatal("Nothing to export: %v", err)
		}
		if err := meshio.SaveFile(*outPath, obj.WorldMesh()); err != nil {
			fatal("Export failed: %v", err)
		}
		fmt.Printf("\nWrote %s\n", *outPath)
	}
}

// exportName picks the artifact worth writing for each strategy: the
// conformed prosthetic for projection, the cut filler for subtraction.
func exportName(strat fitting.Strategy) string {
	if strat == fitting.StrategySubtraction {
		return fitting.FillerName
	}
	return landmark.ProstheticName
}

func parseVec3(s string) (geometry.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return geometry.Vec3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var c [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.Vec3{}, fmt.Errorf("bad coordinate %q", p)
		}
		c[i] = f
	}
	return geometry.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
