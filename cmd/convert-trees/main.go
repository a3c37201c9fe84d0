package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"i3d-treeplant/internal/backup"
	"i3d-treeplant/internal/config"
	"i3d-treeplant/internal/extract"
	"i3d-treeplant/internal/i3d"
	"i3d-treeplant/internal/preview"
	"i3d-treeplant/internal/report"
	"i3d-treeplant/internal/resolver"
	"i3d-treeplant/internal/treeplant"
	"i3d-treeplant/internal/treetypes"
)

const usageText = `Convert static trees placed in a map .i3d into a savegame treePlant.xml.

Usage:
  convert-trees [flags] map.i3d

Examples:
  # Preview what would be extracted
  convert-trees -preview map.i3d

  # Extract trees, then remove them from the i3d (creates a backup)
  convert-trees -o treePlant.xml -remove-from-i3d map.i3d

  # Only trees under the "trees" node, with the map's own tree types
  convert-trees -o treePlant.xml -tree-parent trees -map-xml map.xml map.i3d

  # Undo a removal
  convert-trees -restore map.i3d.backup map.i3d

Flags must come before the .i3d path.

Flags:
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usageText)
		flag.PrintDefaults()
	}

	// CLI flags
	configFile := flag.String("config", "", "Path to a YAML or JSON config file")
	var output string
	flag.StringVar(&output, "output", "", "Output treePlant.xml path")
	flag.StringVar(&output, "o", "", "Shorthand for -output")
	previewOnly := flag.Bool("preview", false, "Show found trees without writing files")
	removeFromI3D := flag.Bool("remove-from-i3d", false, "Remove converted trees from the i3d (creates a backup)")
	compressBackup := flag.Bool("compress-backup", false, "zstd-compress the i3d backup")
	treeParent := flag.String("tree-parent", "", "Only extract trees under nodes with this name")
	listNodes := flag.Bool("list-nodes", false, "List top-level Scene nodes (to find the tree parent) and exit")
	mapXML := flag.String("map-xml", "", "map.xml to load the map's treeTypes.xml from (default: auto-detect)")
	gameData := flag.String("game-data", "", "Game data folder, for base tree types")
	treeTypesFile := flag.String("tree-types", "", "A specific treeTypes.xml file")
	listTreeTypes := flag.Bool("list-tree-types", false, "List loaded tree types and exit")
	previewImage := flag.String("preview-image", "", "Write a top-down preview image (.webp, .tga or .png)")
	previewSize := flag.Int("preview-size", 0, "Preview image size in pixels (default: 1024)")
	supersample := flag.Int("supersample", 0, "Preview supersampling factor (default: 2)")
	reportDB := flag.String("report-db", "", "Append the run to this SQLite report database")
	restoreFrom := flag.String("restore", "", "Restore the i3d from this backup (.backup or .backup.zst) and exit")
	quiet := flag.Bool("quiet", false, "Suppress loader diagnostics")

	flag.Parse()

	input, err := inputArg(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "", 0)
	if *quiet {
		logger.SetOutput(io.Discard)
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		I3D:            input,
		Output:         output,
		MapXML:         *mapXML,
		GameData:       *gameData,
		TreeTypes:      *treeTypesFile,
		ReportDB:       *reportDB,
		TreeParent:     *treeParent,
		RemoveFromI3D:  *removeFromI3D,
		CompressBackup: *compressBackup,
		PreviewImage:   *previewImage,
		PreviewSize:    *previewSize,
		Supersample:    *supersample,
	})

	os.Exit(run(cfg, runOptions{
		previewOnly:   *previewOnly,
		listNodes:     *listNodes,
		listTreeTypes: *listTreeTypes,
		restore:       *restoreFrom,
	}, logger))
}

// inputArg returns the .i3d path. The flag package stops parsing at the
// first non-flag argument, so anything after it would be silently ignored.
func inputArg(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return args[0], nil
	}
	return "", fmt.Errorf("unexpected arguments after %s: %s (flags must come before the .i3d path)",
		args[0], strings.Join(args[1:], " "))
}

type runOptions struct {
	previewOnly   bool
	listNodes     bool
	listTreeTypes bool
	restore       string // backup to restore cfg.I3D from
}

func run(cfg config.Config, opts runOptions, logger *log.Logger) int {
	if cfg.I3D == "" && !opts.listTreeTypes {
		fmt.Fprintln(os.Stderr, "Error: no input .i3d. Pass it as an argument or set i3d in the config.")
		flag.Usage()
		return 1
	}
	if opts.restore != "" {
		if cfg.I3D == "" {
			fmt.Fprintln(os.Stderr, "Error: -restore needs the .i3d to restore")
			return 1
		}
		if err := backup.Restore(opts.restore, cfg.I3D); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("Restored %s from %s\n", cfg.I3D, opts.restore)
		return 0
	}
	if cfg.I3D != "" {
		if _, err := os.Stat(cfg.I3D); err != nil {
			fmt.Fprintf(os.Stderr, "Error: File not found: %s\n", cfg.I3D)
			return 1
		}
	}
	if cfg.RemoveFromI3D && cfg.Output == "" && !opts.previewOnly {
		fmt.Fprintln(os.Stderr, "Error: -remove-from-i3d requires -output")
		return 1
	}

	cat := loadCatalog(cfg, logger)

	if opts.listTreeTypes {
		report.PrintTreeTypes(os.Stdout, cat)
		return 0
	}

	fmt.Printf("Parsing %s...\n", cfg.I3D)
	doc, err := i3d.Open(cfg.I3D)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	scene, ok := doc.Scene()
	if !ok {
		logger.Printf("Warning: No Scene element found in %s", cfg.I3D)
	}

	if opts.listNodes {
		report.PrintTopLevel(os.Stdout, scene)
		return 0
	}

	reg := resolver.BuildFileRegistry(doc.Files(), cat)
	res := extract.Find(scene, reg, extract.Options{TreeParent: cfg.TreeParent})
	if res.ReferenceMode {
		fmt.Printf("Tree assets referenced: %d\n", reg.Len())
	}
	if cfg.TreeParent != "" {
		fmt.Printf("Matched %d '%s' parent node(s)\n", len(res.Parents), cfg.TreeParent)
	}

	trees := res.Instances
	if len(trees) == 0 {
		fmt.Println("No trees found!")
		if cfg.TreeParent != "" {
			fmt.Printf("  (searched only under '%s' nodes)\n", cfg.TreeParent)
		}
		fmt.Println("  Try -list-nodes to see available parent nodes")
		return 1
	}

	report.Print(os.Stdout, report.Summarize(trees, cat))

	if opts.previewOnly {
		fmt.Println("\n[Preview mode - no files modified]")
		return 0
	}

	// Generate treePlant.xml
	if cfg.Output != "" {
		out := treeplant.Emit(trees, cat)
		if err := out.WriteFile(cfg.Output); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		final, growing := out.Counts()
		fmt.Printf("  Final stage (isGrowing=false): %d\n", final)
		fmt.Printf("  Growing (isGrowing=true): %d\n", growing)
		fmt.Printf("\nGenerated: %s\n", cfg.Output)
	} else if cfg.PreviewImage == "" && cfg.ReportDB == "" {
		fmt.Println("\nNo output written. Use -output to write treePlant.xml")
	}

	if cfg.PreviewImage != "" {
		img := preview.Render(trees, cat, preview.Options{
			Size:        cfg.PreviewSize,
			Supersample: cfg.Supersample,
			Legend:      true,
		})
		if err := preview.Save(cfg.PreviewImage, img); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			fmt.Printf("Preview: %s\n", cfg.PreviewImage)
		}
	}

	if cfg.ReportDB != "" {
		runID, err := report.ExportSQLite(cfg.ReportDB, cfg.I3D, trees, cat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			fmt.Printf("Report: %s (run %d)\n", cfg.ReportDB, runID)
		}
	}

	// Remove from i3d if requested
	if cfg.RemoveFromI3D {
		backupPath, err := backup.Create(cfg.I3D, cfg.CompressBackup)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("Created backup: %s\n", backupPath)

		removed := doc.Remove(extract.NodeIDs(trees))
		if err := doc.Save(cfg.I3D); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("Removed %d trees from %s\n", removed, cfg.I3D)
	}

	return 0
}

// loadCatalog fills the tree-type catalog: an explicit treeTypes.xml first,
// then the game's base types and the map's own, each replacing same-named
// types from before.
func loadCatalog(cfg config.Config, logger *log.Logger) *treetypes.Catalog {
	cat := treetypes.New(logger)

	if cfg.TreeTypes != "" {
		if _, err := os.Stat(cfg.TreeTypes); err == nil {
			n := cat.Load(cfg.TreeTypes, filepath.Dir(cfg.TreeTypes))
			logger.Printf("Loaded %d tree types from %s", n, cfg.TreeTypes)
		} else {
			logger.Printf("Warning: Tree types file not found: %s", cfg.TreeTypes)
		}
	}

	if cfg.MapXML != "" {
		if _, err := os.Stat(cfg.MapXML); err == nil {
			cat.LoadFromMap(cfg.MapXML, cfg.GameData)
		} else {
			logger.Printf("Warning: Map XML not found: %s", cfg.MapXML)
		}
	}
	return cat
}
