package report

import (
	"fmt"
	"io"
	"path"
	"strings"

	"i3d-treeplant/internal/i3d"
	"i3d-treeplant/internal/treetypes"
)

// PrintTreeTypes lists every loaded type with the file stems of each stage.
func PrintTreeTypes(w io.Writer, cat *treetypes.Catalog) {
	if cat.Len() == 0 {
		fmt.Fprintln(w, "No tree types loaded. Use -map-xml or -tree-types to load tree type definitions.")
		return
	}
	fmt.Fprintf(w, "\nLoaded %d tree types:\n", cat.Len())
	for _, name := range cat.Names() {
		d, ok := cat.Get(name)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %s\n", d)
		for _, st := range d.Stages {
			stems := make([]string, 0, len(st.Variations))
			for _, v := range st.Variations {
				if v.Filename == "" {
					continue
				}
				base := path.Base(strings.ReplaceAll(v.Filename, "\\", "/"))
				stems = append(stems, strings.TrimSuffix(base, path.Ext(base)))
			}
			fmt.Fprintf(w, "    Stage %d: %s\n", st.Index, strings.Join(stems, ", "))
		}
	}
}

// PrintTopLevel lists the direct children of the Scene element, the usual
// candidates for a tree parent filter.
func PrintTopLevel(w io.Writer, scene *i3d.Scene) {
	fmt.Fprintln(w, "\nTop-level nodes in Scene:")
	if len(scene.Nodes) == 0 {
		return
	}
	for _, id := range scene.Root().Children {
		n := scene.Node(id)
		name := n.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(w, "  %s (%s)\n", name, n.Kind)
	}
}
