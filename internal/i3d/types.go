package i3d

import "i3d-treeplant/internal/mathutil"

// Element tags the converter cares about.
const (
	TagScene          = "Scene"
	TagFile           = "File"
	TagTransformGroup = "TransformGroup"
	TagShape          = "Shape"
	TagReferenceNode  = "ReferenceNode"
)

// NodeID indexes Scene.Nodes.
type NodeID int

// NoNode is the parent of the scene root.
const NoNode NodeID = -1

// Node is one element below (and including) the Scene element.
type Node struct {
	ID          NodeID
	Kind        string // local element tag, namespace prefix stripped
	Name        string
	Translation mathutil.Vec3
	Rotation    mathutil.Vec3 // degrees
	Scale       mathutil.Vec3
	ReferenceID string

	Parent   NodeID
	Slot     int // position in the parent element's child token list
	Children []NodeID

	removed bool
}

// IsReference reports whether the node instantiates an external i3d file.
func (n *Node) IsReference() bool {
	return n.Kind == TagReferenceNode
}

// FileEntry is a <File> registry entry.
type FileEntry struct {
	ID       string
	Filename string
}
