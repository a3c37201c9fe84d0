package i3d

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/ianaindex"

	"i3d-treeplant/internal/mathutil"
)

// Document is a parsed i3d file. Scene nodes are kept in an arena; each node
// records its slot within its parent so matched nodes can be removed after
// traversal without holding element pointers outside this package.
type Document struct {
	doc   *etree.Document
	scene *Scene
	elems []*etree.Element // parallel to scene.Nodes
}

// Scene is the node arena. Nodes[0] is the Scene element itself.
type Scene struct {
	Nodes []Node
}

// Root returns the Scene element node.
func (s *Scene) Root() *Node {
	return &s.Nodes[0]
}

// Node returns the node with the given id.
func (s *Scene) Node(id NodeID) *Node {
	return &s.Nodes[id]
}

// Open reads and parses an i3d file.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("i3d: open %s: %w", path, err)
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("i3d: parse %s: %w", path, err)
	}
	return d, nil
}

// Parse reads an i3d document from r.
func Parse(r io.Reader) (*Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("no root element")
	}
	d := &Document{doc: doc}
	if se := findFirst(doc.Root(), TagScene); se != nil {
		d.buildScene(se)
	}
	return d, nil
}

// Scene returns the scene arena; ok is false when the document has no Scene
// element.
func (d *Document) Scene() (*Scene, bool) {
	if d.scene == nil {
		return &Scene{}, false
	}
	return d.scene, true
}

// Files lists every <File> element in document order.
func (d *Document) Files() []FileEntry {
	var out []FileEntry
	walkElements(d.doc.Root(), func(e *etree.Element) {
		if e.Tag != TagFile {
			return
		}
		out = append(out, FileEntry{
			ID:       e.SelectAttrValue("fileId", ""),
			Filename: e.SelectAttrValue("filename", ""),
		})
	})
	return out
}

func (d *Document) buildScene(se *etree.Element) {
	d.scene = &Scene{}
	d.addNode(se, NoNode)
}

func (d *Document) addNode(e *etree.Element, parent NodeID) NodeID {
	id := NodeID(len(d.scene.Nodes))
	d.scene.Nodes = append(d.scene.Nodes, Node{
		ID:          id,
		Kind:        e.Tag,
		Name:        e.SelectAttrValue("name", ""),
		Translation: mathutil.ParseVec3(e.SelectAttrValue("translation", ""), mathutil.Vec3Zero),
		Rotation:    mathutil.ParseVec3(e.SelectAttrValue("rotation", ""), mathutil.Vec3Zero),
		Scale:       mathutil.ParseVec3(e.SelectAttrValue("scale", ""), mathutil.Vec3One),
		ReferenceID: e.SelectAttrValue("referenceId", ""),
		Parent:      parent,
		Slot:        e.Index(),
	})
	d.elems = append(d.elems, e)

	for _, c := range e.ChildElements() {
		cid := d.addNode(c, id)
		// The slice may have grown; index, don't keep pointers across calls.
		d.scene.Nodes[id].Children = append(d.scene.Nodes[id].Children, cid)
	}
	return id
}

// Remove detaches the given nodes from the document. Removal is resolved per
// parent in descending slot order so the recorded slots stay valid while
// siblings are removed. Returns the number of nodes removed; nodes already
// removed are skipped.
func (d *Document) Remove(ids []NodeID) int {
	if d.scene == nil {
		return 0
	}

	byParent := make(map[NodeID][]NodeID)
	var parents []NodeID
	for _, id := range ids {
		if id <= 0 || int(id) >= len(d.scene.Nodes) {
			continue
		}
		n := &d.scene.Nodes[id]
		if n.removed || n.Parent == NoNode {
			continue
		}
		if _, seen := byParent[n.Parent]; !seen {
			parents = append(parents, n.Parent)
		}
		byParent[n.Parent] = append(byParent[n.Parent], id)
	}
	sortIDs(parents)

	removed := 0
	for _, p := range parents {
		children := byParent[p]
		sortBySlotDesc(d.scene, children)
		for _, id := range children {
			if d.removeAt(p, id) {
				removed++
			}
		}
	}
	return removed
}

func (d *Document) removeAt(parent, id NodeID) bool {
	n := &d.scene.Nodes[id]
	if n.removed {
		return false
	}
	pe := d.elems[parent]
	slot := n.Slot
	if slot < 0 || slot >= len(pe.Child) || pe.Child[slot] != etree.Token(d.elems[id]) {
		return false
	}

	pe.RemoveChildAt(slot)
	shift := 1
	// Drop the whitespace that followed the element, like the element's
	// tail in the original file.
	if slot < len(pe.Child) {
		if cd, ok := pe.Child[slot].(*etree.CharData); ok && cd.IsWhitespace() {
			pe.RemoveChildAt(slot)
			shift++
		}
	}
	n.removed = true

	for _, sid := range d.scene.Nodes[parent].Children {
		s := &d.scene.Nodes[sid]
		if !s.removed && s.Slot > slot {
			s.Slot -= shift
		}
	}
	return true
}

// Save writes the document to path as UTF-8, rewriting the XML declaration
// to match.
func (d *Document) Save(path string) error {
	d.setUTF8Declaration()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("i3d: save %s: %w", path, err)
	}
	if err := d.doc.WriteToFile(path); err != nil {
		return fmt.Errorf("i3d: save %s: %w", path, err)
	}
	return nil
}

// WriteTo serializes the document as UTF-8.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	d.setUTF8Declaration()
	return d.doc.WriteTo(w)
}

const utf8Declaration = `version="1.0" encoding="utf-8"`

func (d *Document) setUTF8Declaration() {
	for _, t := range d.doc.Child {
		if pi, ok := t.(*etree.ProcInst); ok && pi.Target == "xml" {
			pi.Inst = utf8Declaration
			return
		}
	}
	d.doc.InsertChildAt(0, etree.NewProcInst("xml", utf8Declaration))
	d.doc.InsertChildAt(1, etree.NewCharData("\n"))
}

// charsetReader decodes legacy encodings (i3d exports are usually
// iso-8859-1) to UTF-8 for the XML decoder.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q: unsupported", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

func findFirst(root *etree.Element, tag string) *etree.Element {
	var found *etree.Element
	walkElements(root, func(e *etree.Element) {
		if found == nil && e.Tag == tag {
			found = e
		}
	})
	return found
}

// walkElements visits e and its descendants in document order.
func walkElements(e *etree.Element, fn func(*etree.Element)) {
	if e == nil {
		return
	}
	fn(e)
	for _, c := range e.ChildElements() {
		walkElements(c, fn)
	}
}
