package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"i3d-treeplant/internal/batch"
	"i3d-treeplant/internal/config"
)

const defaultOutputDir = "treeplant-out"

// resolveOutputDir returns the batch output directory: -output, else the
// config's output, else defaultOutputDir.
func resolveOutputDir(cfg config.Config) string {
	if cfg.Output != "" {
		return cfg.Output
	}
	return defaultOutputDir
}

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to a YAML or JSON config file")
	root := flag.String("root", ".", "Directory searched for map .i3d files (with a map.xml)")
	outputDir := flag.String("output", "", "Output directory (default: "+defaultOutputDir+")")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	gameData := flag.String("game-data", "", "Game data folder, for base tree types")
	treeTypesFile := flag.String("tree-types", "", "treeTypes.xml loaded for every map")
	treeParent := flag.String("tree-parent", "", "Only extract trees under nodes with this name")
	previewSize := flag.Int("preview-size", 0, "Preview image size (default: 1024)")
	noPreview := flag.Bool("no-preview", false, "Skip preview images")
	quiet := flag.Bool("quiet", false, "Suppress loader diagnostics")

	flag.Parse()

	logger := log.New(os.Stderr, "", 0)
	if *quiet {
		logger.SetOutput(io.Discard)
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		Output:      *outputDir,
		GameData:    *gameData,
		TreeTypes:   *treeTypesFile,
		TreeParent:  *treeParent,
		PreviewSize: *previewSize,
		Workers:     *workers,
	})

	outDir := resolveOutputDir(cfg)

	jobs, err := batch.Discover(*root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(jobs) == 0 {
		fmt.Println("No maps found.")
		os.Exit(0)
	}

	fmt.Printf("Static trees -> treePlant.xml (batch)\n")
	fmt.Printf("Maps: %d, Workers: %d\n", len(jobs), cfg.Workers)
	fmt.Printf("Output: %s\n", outDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	batchCfg := batch.Config{
		OutputDir:   outDir,
		TreeTypes:   cfg.TreeTypes,
		GameData:    cfg.GameData,
		TreeParent:  cfg.TreeParent,
		PreviewSize: cfg.PreviewSize,
		Supersample: cfg.Supersample,
		Workers:     cfg.Workers,
		Logger:      logger,
		Progress:    os.Stdout,
	}
	if *noPreview {
		batchCfg.PreviewSize = 0
	}

	results := batch.Run(batchCfg, jobs)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	failed := batch.Failed(results)
	totalTrees := 0
	for _, r := range results {
		if r.Success {
			totalTrees += r.Trees
			fmt.Printf("  %s: %d trees (%d final, %d growing)\n", r.Name, r.Trees, r.Final, r.Growing)
		}
	}
	fmt.Printf("Converted: %d/%d maps, %d trees\n", len(results)-len(failed), len(results), totalTrees)

	if len(failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failed))
		limit := 20
		if len(failed) < limit {
			limit = len(failed)
		}
		for _, e := range failed[:limit] {
			fmt.Printf("  %s: %s\n", e.Name, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(outDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if len(failed) > 0 {
		os.Exit(1)
	}
}
