package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"i3d-treeplant/internal/report"
	"i3d-treeplant/internal/treetypes"
)

// Lists tree types from a treeTypes.xml or a map.xml, and optionally
// classifies asset file names against them.
func main() {
	mapXML := flag.String("map-xml", "", "map.xml referencing the map's treeTypes.xml")
	gameData := flag.String("game-data", "", "Game data folder, for base tree types")
	file := flag.String("tree-types", "", "A specific treeTypes.xml file")
	flag.Parse()

	if *mapXML == "" && *file == "" {
		fmt.Fprintln(os.Stderr, "usage: treetypes [-tree-types file.xml | -map-xml map.xml [-game-data dir]] [asset.i3d ...]")
		os.Exit(1)
	}

	cat := treetypes.New(log.New(os.Stderr, "", 0))
	if *file != "" {
		n := cat.Load(*file, filepath.Dir(*file))
		fmt.Printf("Loaded %d tree types from %s\n", n, *file)
	}
	if *mapXML != "" {
		cat.LoadFromMap(*mapXML, *gameData)
	}

	report.PrintTreeTypes(os.Stdout, cat)

	if flag.NArg() == 0 {
		return
	}
	fmt.Println("\nAssets:")
	for _, asset := range flag.Args() {
		name, stage, variation, ok := cat.LookupFilename(asset)
		src := "catalog"
		if !ok {
			m, found := treetypes.Classify(filepath.Base(asset))
			if !found {
				fmt.Printf("  %s: NO MATCH\n", asset)
				continue
			}
			name = m.Type
			stage, variation = cat.FindStageAndVariation(name, asset)
			src = "pattern"
		}
		fmt.Printf("  %s: type=%s stage=%d/%d var=%d src=%s\n",
			asset, name, stage, cat.MaxStage(name), variation, src)
	}
}
