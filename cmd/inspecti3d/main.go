package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"i3d-treeplant/internal/extract"
	"i3d-treeplant/internal/i3d"
	"i3d-treeplant/internal/resolver"
	"i3d-treeplant/internal/treetypes"
)

// Dumps the File registry of an i3d, how each tree asset resolves, and
// every tree instance with its world transform.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: inspecti3d map.i3d [treeParent]")
		os.Exit(1)
	}
	path := os.Args[1]
	parent := ""
	if len(os.Args) > 2 {
		parent = os.Args[2]
	}

	doc, err := i3d.Open(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	files := doc.Files()
	cat := treetypes.New(nil)
	reg := resolver.BuildFileRegistry(files, cat)
	fmt.Printf("Files: %d, tree assets: %d\n", len(files), reg.Len())
	for _, f := range files {
		r, ok := reg.Resolve(f.ID)
		if !ok {
			if strings.Contains(strings.ToLower(f.Filename), "tree") {
				fmt.Printf("  [%s] %s (unresolved)\n", f.ID, f.Filename)
			}
			continue
		}
		fmt.Printf("  [%s] %s -> %s stage=%d var=%d\n", f.ID, f.Filename, r.Type, r.Stage, r.Variation)
	}

	scene, ok := doc.Scene()
	if !ok {
		fmt.Println("No Scene element")
		os.Exit(1)
	}
	kinds := map[string]int{}
	for _, n := range scene.Nodes[1:] {
		kinds[n.Kind]++
	}
	var names []string
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	fmt.Printf("\nScene nodes: %d\n", len(scene.Nodes)-1)
	for _, k := range names {
		fmt.Printf("  %-16s %d\n", k, kinds[k])
	}

	res := extract.Find(scene, reg, extract.Options{TreeParent: parent})
	fmt.Printf("\nTrees: %d (reference mode: %v, parents matched: %d)\n",
		len(res.Instances), res.ReferenceMode, len(res.Parents))
	for _, t := range res.Instances {
		n := scene.Node(t.Node)
		fmt.Printf("  %-24s %-14s st=%d v=%d pos=(%.2f, %.2f, %.2f) rot=(%.1f, %.1f, %.1f) scale=(%.2f, %.2f, %.2f) slot=%d\n",
			t.NodeName, t.Type, t.Stage, t.Variation,
			t.Position[0], t.Position[1], t.Position[2],
			t.Rotation[0], t.Rotation[1], t.Rotation[2],
			t.Scale[0], t.Scale[1], t.Scale[2], n.Slot)
	}
}
