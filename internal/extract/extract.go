package extract

import (
	"strings"

	"i3d-treeplant/internal/i3d"
	"i3d-treeplant/internal/mathutil"
	"i3d-treeplant/internal/resolver"
	"i3d-treeplant/internal/treetypes"
)

// TreeInstance is one tree found in the scene, in world space.
type TreeInstance struct {
	NodeName  string
	Type      string
	Position  mathutil.Vec3
	Rotation  mathutil.Vec3 // degrees
	Scale     mathutil.Vec3 // local scale of the node, for reference
	Stage     int
	Variation int
	Node      i3d.NodeID
}

// Options control which part of the scene is searched.
type Options struct {
	// TreeParent restricts collection to subtrees rooted at nodes with this
	// name (case-insensitive). Empty searches the whole scene.
	TreeParent string
}

// Result of a scene search.
type Result struct {
	Instances []TreeInstance
	// Parents are the nodes whose name matched Options.TreeParent.
	Parents []i3d.NodeID
	// ReferenceMode is set when the file registry had tree assets, i.e. trees
	// are expected as ReferenceNodes rather than inline geometry.
	ReferenceMode bool
}

type walker struct {
	scene  *i3d.Scene
	reg    resolver.Registry
	parent string
	res    Result
}

// Find walks the scene depth-first from the Scene element, composing world
// transforms, and collects every ReferenceNode that resolves to a tree asset
// plus every TransformGroup/Shape whose name looks like a tree.
func Find(scene *i3d.Scene, reg resolver.Registry, opts Options) Result {
	w := &walker{
		scene:  scene,
		reg:    reg,
		parent: opts.TreeParent,
		res:    Result{ReferenceMode: reg.Len() > 0},
	}
	if len(scene.Nodes) == 0 {
		return w.res
	}

	identity := mathutil.Mat4Identity()
	// Every top-level element is scanned; below that only node kinds.
	for _, id := range scene.Root().Children {
		w.scan(id, identity, w.parent == "")
	}
	return w.res
}

func (w *walker) scan(id i3d.NodeID, parentWorld mathutil.Mat4, collecting bool) {
	n := w.scene.Node(id)

	if w.parent != "" && strings.EqualFold(n.Name, w.parent) {
		collecting = true
		w.res.Parents = append(w.res.Parents, id)
	}

	local := mathutil.LocalTransform(n.Translation, n.Rotation, n.Scale)
	world := mathutil.Mat4Mul(parentWorld, local)

	if collecting {
		switch n.Kind {
		case i3d.TagReferenceNode:
			if r, ok := w.reg.Resolve(n.ReferenceID); ok && n.ReferenceID != "" {
				w.add(n, world, r.Type, r.Stage, r.Variation)
			}
		case i3d.TagTransformGroup, i3d.TagShape:
			if m, ok := treetypes.Classify(n.Name); ok {
				stage, variation, hasStage, hasVar := treetypes.StageTokens(n.Name)
				if !hasStage {
					stage = m.MaxStage
				}
				if !hasVar {
					variation = 1
				}
				w.add(n, world, m.Type, stage, variation)
			}
		}
	}

	for _, cid := range n.Children {
		if isSceneNode(w.scene.Node(cid).Kind) {
			w.scan(cid, world, collecting)
		}
	}
}

func (w *walker) add(n *i3d.Node, world mathutil.Mat4, typ string, stage, variation int) {
	pos, rot := mathutil.DecomposeWorld(world)
	w.res.Instances = append(w.res.Instances, TreeInstance{
		NodeName:  n.Name,
		Type:      typ,
		Position:  pos,
		Rotation:  rot,
		Scale:     n.Scale,
		Stage:     stage,
		Variation: variation,
		Node:      n.ID,
	})
}

func isSceneNode(kind string) bool {
	switch kind {
	case i3d.TagTransformGroup, i3d.TagShape, i3d.TagReferenceNode:
		return true
	}
	return false
}

// NodeIDs returns the scene nodes of the given instances, for removal.
func NodeIDs(instances []TreeInstance) []i3d.NodeID {
	ids := make([]i3d.NodeID, len(instances))
	for i, t := range instances {
		ids[i] = t.Node
	}
	return ids
}
