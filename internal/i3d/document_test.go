package i3d

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"i3d-treeplant/internal/mathutil"
)

const sampleI3D = `<?xml version="1.0" encoding="iso-8859-1"?>
<i3D name="map" version="1.6" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <Files>
    <File fileId="10" filename="$data/maps/trees/oak/oak_stage05.i3d"/>
    <File fileId="11" filename="textures/grass.dds"/>
  </Files>
  <Scene>
    <TransformGroup name="groupA" translation="5 0 0" nodeId="1">
      <ReferenceNode name="tree1" translation="10 0 20" rotation="0 45 0" referenceId="10" nodeId="2"/>
      <ReferenceNode name="tree2" translation="bogus" scale="2 2" referenceId="10" nodeId="3"/>
      <Shape name="rock" nodeId="4"/>
    </TransformGroup>
    <Light name="sun" nodeId="5"/>
  </Scene>
</i3D>
`

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	d, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return d
}

func findNode(t *testing.T, s *Scene, name string) *Node {
	t.Helper()
	for i := range s.Nodes {
		if s.Nodes[i].Name == name {
			return &s.Nodes[i]
		}
	}
	t.Fatalf("node %q not found", name)
	return nil
}

func TestParseFiles(t *testing.T) {
	d := mustParse(t, sampleI3D)
	files := d.Files()
	if len(files) != 2 {
		t.Fatalf("Files = %d, want 2", len(files))
	}
	if files[0].ID != "10" || files[0].Filename != "$data/maps/trees/oak/oak_stage05.i3d" {
		t.Errorf("files[0] = %+v", files[0])
	}
}

func TestParseSceneArena(t *testing.T) {
	d := mustParse(t, sampleI3D)
	s, ok := d.Scene()
	if !ok {
		t.Fatal("Scene not found")
	}
	root := s.Root()
	if root.Kind != TagScene || root.Parent != NoNode || len(root.Children) != 2 {
		t.Fatalf("root = %+v", root)
	}

	group := s.Node(root.Children[0])
	if group.Name != "groupA" || group.Translation != (mathutil.Vec3{5, 0, 0}) || group.Scale != mathutil.Vec3One {
		t.Errorf("group = %+v", group)
	}
	if len(group.Children) != 3 {
		t.Fatalf("group children = %d", len(group.Children))
	}

	tree1 := findNode(t, s, "tree1")
	if !tree1.IsReference() || tree1.ReferenceID != "10" || tree1.Rotation != (mathutil.Vec3{0, 45, 0}) {
		t.Errorf("tree1 = %+v", tree1)
	}
	if tree1.Parent != group.ID {
		t.Errorf("tree1 parent = %d, want %d", tree1.Parent, group.ID)
	}

	tree2 := findNode(t, s, "tree2")
	if tree2.Translation != mathutil.Vec3Zero || tree2.Scale != mathutil.Vec3One {
		t.Errorf("malformed vectors should fall back: %+v", tree2)
	}
}

func TestParseNamespaced(t *testing.T) {
	src := `<i3D xmlns="http://i3d.giants.ch/schema"><Scene><TransformGroup name="trees"/></Scene></i3D>`
	d := mustParse(t, src)
	s, ok := d.Scene()
	if !ok || len(s.Nodes) != 2 || s.Nodes[1].Kind != TagTransformGroup {
		t.Fatalf("namespaced scene = %+v ok=%v", s, ok)
	}
}

func TestParseNoScene(t *testing.T) {
	d := mustParse(t, `<i3D><Files/></i3D>`)
	s, ok := d.Scene()
	if ok || len(s.Nodes) != 0 {
		t.Errorf("Scene = %+v, %v", s, ok)
	}
	if n := d.Remove([]NodeID{1}); n != 0 {
		t.Errorf("Remove without scene = %d", n)
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse(strings.NewReader(`<i3D><Scene>`)); err == nil {
		t.Error("expected error for truncated document")
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing.i3d")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRemoveSiblingsBySlot(t *testing.T) {
	d := mustParse(t, sampleI3D)
	s, _ := d.Scene()
	tree1 := findNode(t, s, "tree1").ID
	tree2 := findNode(t, s, "tree2").ID
	rock := findNode(t, s, "rock")

	if n := d.Remove([]NodeID{tree1, tree2}); n != 2 {
		t.Fatalf("Remove = %d, want 2", n)
	}
	// Remaining sibling slot is kept in sync so a later removal still works.
	if n := d.Remove([]NodeID{rock.ID}); n != 1 {
		t.Fatalf("second Remove = %d, want 1", n)
	}
	// Already removed.
	if n := d.Remove([]NodeID{tree1}); n != 0 {
		t.Errorf("repeat Remove = %d", n)
	}

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	out := buf.String()
	for _, name := range []string{"tree1", "tree2", "rock"} {
		if strings.Contains(out, `name="`+name+`"`) {
			t.Errorf("%s still present:\n%s", name, out)
		}
	}
	for _, keep := range []string{`name="groupA"`, `name="sun"`, `fileId="10"`} {
		if !strings.Contains(out, keep) {
			t.Errorf("%s missing:\n%s", keep, out)
		}
	}
}

func TestRemoveNested(t *testing.T) {
	src := `<i3D><Scene>
  <TransformGroup name="outerTree">
    <TransformGroup name="innerTree"/>
  </TransformGroup>
  <TransformGroup name="keep"/>
</Scene></i3D>`
	d := mustParse(t, src)
	s, _ := d.Scene()
	outer := findNode(t, s, "outerTree").ID
	inner := findNode(t, s, "innerTree").ID

	if n := d.Remove([]NodeID{outer, inner}); n != 2 {
		t.Errorf("Remove nested = %d, want 2", n)
	}
	var buf bytes.Buffer
	d.WriteTo(&buf)
	if strings.Contains(buf.String(), "Tree") || !strings.Contains(buf.String(), `name="keep"`) {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestSaveRoundTrip(t *testing.T) {
	d := mustParse(t, sampleI3D)
	path := filepath.Join(t.TempDir(), "out", "map.i3d")
	if err := d.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	d2, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s, ok := d2.Scene()
	if !ok || len(s.Nodes) != len(d.scene.Nodes) {
		t.Errorf("round trip lost nodes: %d vs %d", len(s.Nodes), len(d.scene.Nodes))
	}
}

func TestParseLatin1(t *testing.T) {
	// "Bäume" with 0xE4 as a single Latin-1 byte.
	src := "<?xml version=\"1.0\" encoding=\"iso-8859-1\"?>\n<i3D><Scene><TransformGroup name=\"B\xe4ume\"/></Scene></i3D>\n"
	d := mustParse(t, src)
	s, _ := d.Scene()
	findNode(t, s, "Bäume")

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="utf-8"?>`) {
		t.Errorf("declaration not rewritten:\n%s", out)
	}
	if !strings.Contains(out, `name="Bäume"`) {
		t.Errorf("name not written as UTF-8:\n%s", out)
	}
}

func TestParseUnknownCharset(t *testing.T) {
	src := `<?xml version="1.0" encoding="no-such-charset"?><i3D/>`
	if _, err := Parse(strings.NewReader(src)); err == nil {
		t.Fatal("expected error")
	}
}

func TestWriteAddsDeclaration(t *testing.T) {
	d := mustParse(t, `<i3D><Scene/></i3D>`)
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	want := "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<i3D><Scene/></i3D>"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}
