package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"filmdose/pkg/config"
	"filmdose/pkg/edt"
	"filmdose/pkg/filmio"
	"filmdose/pkg/noise"
	"filmdose/pkg/phantom"
	"filmdose/pkg/roi"
	"filmdose/pkg/visualization"
)

func main() {
	// Parse command line arguments
	inputPath := flag.String("input", "", "Film scan image (PNG, JPEG or TIFF)")
	configPath := flag.String("config", "filmdose.yaml", "YAML configuration file")
	outputPath := flag.String("output", "", "Rendered distance map output (overrides config)")
	threshold := flag.Float64("threshold", -1, "Mask threshold override (negative: use config)")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use (0: use config)")
	demoPhantom := flag.String("phantom", "", "Generate a phantom instead of loading a scan: disk, rectangle or edge")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration file and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	// Load configuration and apply flag overrides
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *numCores > 0 {
		cfg.Processing.NumCores = *numCores
	}
	if *threshold >= 0 {
		cfg.Processing.MaskThreshold = *threshold
	}
	if *outputPath != "" {
		cfg.Output.DistanceMapFile = *outputPath
	}

	// Validate inputs
	if *inputPath == "" && *demoPhantom == "" {
		flag.Usage()
		os.Exit(1)
	}

	fmt.Println("================================")
	fmt.Println("RADIOCHROMIC FILM MASK ANALYSIS")
	fmt.Println("Squared Euclidean distance transform and region-of-interest statistics")
	fmt.Println("================================")

	// Step 1: Load the scan or generate a phantom
	var data []float64
	var rows, cols int
	var source string

	if *demoPhantom != "" {
		fmt.Printf("Step 1: Generating %s phantom...\n", *demoPhantom)
		ph, err := generatePhantom(cfg, *demoPhantom)
		if err != nil {
			log.Fatalf("Phantom generation failed: %v", err)
		}
		data, rows, cols = ph.Dose, ph.Rows, ph.Cols
		source = fmt.Sprintf("%s phantom", *demoPhantom)
	} else {
		fmt.Printf("Step 1: Loading scan %s...\n", *inputPath)
		scan, err := filmio.LoadScan(*inputPath)
		if err != nil {
			log.Fatalf("Failed to load scan: %v", err)
		}
		data, rows, cols = filmio.ToFloat(scan.Image)
		source = scan.Filename
	}
	fmt.Printf("Loaded %s with dimensions %dx%d\n", source, cols, rows)

	// Step 2: Estimate scan noise
	fmt.Println("Step 2: Estimating noise...")
	if est, err := noise.EstimateNoise(data, rows, cols); err != nil {
		fmt.Printf("Warning: noise estimation skipped: %v\n", err)
	} else {
		fmt.Printf("Noise sigma: %.5f (MAD: %.5f), SNR: %.1f\n", est.Sigma, est.SigmaMAD, est.SNR)
	}

	// Step 3: Threshold the scan into a binary mask
	fmt.Printf("Step 3: Thresholding at %.3f...\n", cfg.Processing.MaskThreshold)
	mask, err := filmio.BinaryMask(data, rows, cols, cfg.Processing.MaskThreshold)
	if err != nil {
		log.Fatalf("Thresholding failed: %v", err)
	}

	// Step 4: Run the distance transform
	fmt.Printf("Step 4: Computing squared distance transform on %d cores...\n", cfg.Processing.NumCores)
	startTime := time.Now()
	transform := edt.NewParallelTransform(cfg.Processing.NumCores)
	dist, err := transform.DistanceMap(mask, rows, cols)
	if err != nil {
		log.Fatalf("Distance transform failed: %v", err)
	}
	fmt.Printf("Transform completed in %.3f seconds\n", time.Since(startTime).Seconds())

	// Step 5: Derive region-of-interest statistics
	fmt.Println("Step 5: Analyzing region of interest...")
	region, err := roi.FromMask(mask, rows, cols)
	if err != nil {
		log.Fatalf("ROI construction failed: %v", err)
	}
	reportRegion(cfg, region)

	// Step 6: Render and save the distance map
	if cfg.Output.SaveDistanceMap {
		fmt.Printf("Step 6: Saving distance map to %s...\n", cfg.Output.DistanceMapFile)
		renderer, err := visualization.NewRenderer(dist, rows, cols)
		if err != nil {
			log.Fatalf("Renderer setup failed: %v", err)
		}
		if err := renderer.Save(cfg.Output.DistanceMapFile); err != nil {
			log.Fatalf("Failed to save distance map: %v", err)
		}
	}

	fmt.Println("\nAnalysis completed successfully!")
}

// generatePhantom builds the demo phantom selected on the command
// line, sized and seeded from the configuration.
func generatePhantom(cfg *config.Config, kind string) (*phantom.Phantom, error) {
	params := phantom.Params{
		Rows:  cfg.Phantom.Rows,
		Cols:  cfg.Phantom.Cols,
		Noise: cfg.Phantom.NoiseSigma,
		Seed:  cfg.Phantom.Seed,
	}

	switch kind {
	case "disk":
		centerRow := float64(params.Rows-1) / 2
		centerCol := float64(params.Cols-1) / 2
		radius := float64(minInt(params.Rows, params.Cols)) / 4
		return phantom.Disk(params, centerRow, centerCol, radius)
	case "rectangle":
		return phantom.Rectangle(params,
			params.Rows/4, params.Cols/4,
			3*params.Rows/4, 3*params.Cols/4)
	case "edge":
		return phantom.FieldEdge(params, params.Cols/2)
	default:
		return nil, fmt.Errorf("unknown phantom kind %q (want disk, rectangle or edge)", kind)
	}
}

// reportRegion prints the ROI statistics, converting pixel figures to
// physical units using the configured pixel size.
func reportRegion(cfg *config.Config, region *roi.ROI) {
	pixelArea := cfg.Processing.PixelSize * cfg.Processing.PixelSize

	area := region.Area()
	fmt.Printf("Foreground area: %d px (%.1f mm2)\n", area, float64(area)*pixelArea)

	if minRow, minCol, maxRow, maxCol, ok := region.BoundingBox(); ok {
		fmt.Printf("Bounding box: (%d,%d)-(%d,%d)\n", minRow, minCol, maxRow, maxCol)
	} else {
		fmt.Println("No exposed region found")
		return
	}

	if row, col, ok := region.Centroid(); ok {
		fmt.Printf("Centroid: (%.1f, %.1f)\n", row, col)
	}
	if angle, ok := region.Orientation(); ok {
		fmt.Printf("Principal axis: %.1f deg from the row axis\n", angle*180/math.Pi)
	}

	// Strip the configured safety margin and report what survives.
	marginPx := cfg.Processing.ErodeMargin / cfg.Processing.PixelSize
	eroded, err := region.Erode(marginPx)
	if err != nil {
		fmt.Printf("Warning: margin erosion failed: %v\n", err)
		return
	}
	remaining := 0
	for _, v := range eroded {
		if v == 1 {
			remaining++
		}
	}
	fmt.Printf("Area after %.1f mm margin: %d px (%.1f mm2)\n",
		cfg.Processing.ErodeMargin, remaining, float64(remaining)*pixelArea)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
