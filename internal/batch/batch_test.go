package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const mapScene = `<i3D>
  <Files><File fileId="1" filename="$data/maps/trees/birch/birch_stage02.i3d"/></Files>
  <Scene>
    <TransformGroup name="trees">
      <ReferenceNode name="b1" translation="1 0 2" referenceId="1"/>
      <ReferenceNode name="b2" translation="3 0 4" referenceId="1"/>
    </TransformGroup>
  </Scene>
</i3D>`

const mapTreeTypes = `<map><treeTypes>
  <treeType name="birch">
    <stage filename="trees/birch_stage01.i3d"/>
    <stage filename="trees/birch_stage02.i3d"/>
  </treeType>
</treeTypes></map>`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// modTree lays out two map mods plus tree assets that must not be picked up.
func modTree(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "FS_MapA", "maps", "map", "map.i3d"), mapScene)
	writeFile(t, filepath.Join(root, "FS_MapA", "maps", "map.xml"), `<map><treeTypes filename="map/config/treeTypes.xml"/></map>`)
	writeFile(t, filepath.Join(root, "FS_MapA", "maps", "config", "treeTypes.xml"), mapTreeTypes)
	// maps/map.xml sits one level up, where FindMapXML also looks.
	writeFile(t, filepath.Join(root, "FS_MapA", "maps", "trees", "birch_stage02.i3d"), `<i3D><Scene/></i3D>`)

	writeFile(t, filepath.Join(root, "FS_MapB", "map.i3d"), `<i3D><Scene><TransformGroup name="empty"/></Scene></i3D>`)
	writeFile(t, filepath.Join(root, "FS_MapB", "map.xml"), `<map/>`)

	writeFile(t, filepath.Join(root, "FS_Trees", "trees", "oak.i3d"), `<i3D><Scene/></i3D>`)
	return root
}

func TestDiscover(t *testing.T) {
	root := modTree(t)
	jobs, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("jobs = %+v, want 2", jobs)
	}
	if jobs[0].Name != "FS_MapA_maps_map_map" || jobs[1].Name != "FS_MapB_map" {
		t.Errorf("names = %s, %s", jobs[0].Name, jobs[1].Name)
	}
	if jobs[0].MapXML != filepath.Join(root, "FS_MapA", "maps", "map.xml") {
		t.Errorf("MapXML = %s", jobs[0].MapXML)
	}
}

func TestRun(t *testing.T) {
	root := modTree(t)
	jobs, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "out")
	results := Run(Config{OutputDir: out, Workers: 2, PreviewSize: 32, Supersample: 1}, jobs)

	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	a := results[0]
	if !a.Success || a.Trees != 2 {
		t.Fatalf("map A = %+v", a)
	}
	// The map's treeTypes.xml has two birch stages, so stage 2 is final.
	if a.Final != 2 || a.Growing != 0 {
		t.Errorf("map A final/growing = %d/%d", a.Final, a.Growing)
	}
	data, err := os.ReadFile(a.Output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `treeType="BIRCH"`) {
		t.Errorf("treePlant.xml:\n%s", data)
	}
	if _, err := os.Stat(a.Preview); err != nil {
		t.Errorf("preview: %v", err)
	}

	b := results[1]
	if b.Success || b.Error != "no trees found" {
		t.Errorf("map B = %+v", b)
	}
	if f := Failed(results); len(f) != 1 || f[0].Name != b.Name {
		t.Errorf("Failed = %+v", f)
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	results := []Result{
		{Name: "a", I3D: "/maps/a.i3d", Trees: 3, Final: 1, Growing: 2,
			Output: filepath.Join(dir, "a", "treePlant.xml"), Success: true},
		{Name: "b", I3D: "/maps/b.i3d", Error: "no trees found"},
	}
	path := filepath.Join(dir, "manifest.json")
	if err := WriteManifest(path, results); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Output != "a/treePlant.xml" || entries[0].Preview != "" {
		t.Errorf("entries = %+v", entries)
	}
	if entries[1].Error != "no trees found" || entries[1].Output != "" {
		t.Errorf("entry b = %+v", entries[1])
	}

	// Key names are part of the manifest format.
	var generic []map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatal(err)
	}
	if generic[0]["output"] != "a/treePlant.xml" || generic[0]["success"] != true {
		t.Errorf("entry a keys = %v", generic[0])
	}
	if generic[1]["success"] != false {
		t.Errorf("entry b keys = %v", generic[1])
	}
	if _, ok := generic[0]["tree_plant"]; ok {
		t.Errorf("unexpected tree_plant key: %v", generic[0])
	}
}
