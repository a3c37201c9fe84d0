package resolver

import (
	"path"
	"strings"

	"i3d-treeplant/internal/i3d"
	"i3d-treeplant/internal/treetypes"
)

// treeDirMarker and treeExt identify tree assets among <File> entries,
// e.g. "$data/maps/trees/oak/oak_stage05.i3d".
const (
	treeDirMarker = "/trees/"
	treeExt       = ".i3d"
)

// Resolution is the tree type, stage and variation of a referenced asset.
type Resolution struct {
	Type      string
	Stage     int
	Variation int
	Filename  string
}

// Registry maps i3d fileId to a resolved tree asset.
type Registry map[string]Resolution

// BuildFileRegistry resolves every tree asset referenced by files. When the
// catalog has loaded types it decides stage and variation; otherwise the
// numbers are read from the file name.
func BuildFileRegistry(files []i3d.FileEntry, cat *treetypes.Catalog) Registry {
	reg := make(Registry)
	for _, f := range files {
		if f.ID == "" {
			continue
		}
		p := strings.ReplaceAll(f.Filename, "\\", "/")
		if !strings.Contains(p, treeDirMarker) || !strings.HasSuffix(p, treeExt) {
			continue
		}
		base := strings.TrimSuffix(path.Base(p), treeExt)

		if res, ok := resolve(base, cat); ok {
			res.Filename = f.Filename
			reg[f.ID] = res
		}
	}
	return reg
}

func resolve(base string, cat *treetypes.Catalog) (Resolution, bool) {
	m, ok := treetypes.Classify(base)
	if !ok {
		// Map-local species the name patterns don't know.
		if cat == nil {
			return Resolution{}, false
		}
		name, stage, variation, found := cat.LookupFilename(base)
		if !found {
			return Resolution{}, false
		}
		return Resolution{Type: name, Stage: stage, Variation: variation}, true
	}

	if cat != nil && cat.Len() > 0 {
		stage, variation := cat.FindStageAndVariation(m.Type, base)
		return Resolution{Type: m.Type, Stage: stage, Variation: variation}, true
	}

	stage, variation, hasStage, hasVar := treetypes.StageTokens(base)
	if !hasStage {
		stage = m.MaxStage
	}
	if !hasVar {
		variation = 1
	}
	return Resolution{Type: m.Type, Stage: stage, Variation: variation}, true
}

// Resolve looks up a ReferenceNode's referenceId.
func (r Registry) Resolve(id string) (Resolution, bool) {
	res, ok := r[id]
	return res, ok
}

// Len returns the number of resolved tree assets.
func (r Registry) Len() int {
	return len(r)
}
