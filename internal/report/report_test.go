package report

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"i3d-treeplant/internal/extract"
	"i3d-treeplant/internal/mathutil"
	"i3d-treeplant/internal/treetypes"
)

func sampleTrees() []extract.TreeInstance {
	return []extract.TreeInstance{
		{NodeName: "oak1", Type: "oak", Position: mathutil.Vec3{-10, 0, 5}, Stage: 5, Variation: 1},
		{NodeName: "oak2", Type: "oak", Position: mathutil.Vec3{20, 3, -7}, Stage: 2, Variation: 2},
		{NodeName: "birch1", Type: "birch", Position: mathutil.Vec3{4, 0, 30}, Stage: 5, Variation: 1},
		{NodeName: "aspen1", Type: "aspen", Position: mathutil.Vec3{0, 0, 0}, Stage: 3, Variation: 1},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleTrees(), treetypes.New(nil))

	if s.Total != 4 || s.Final != 2 || s.Growing != 2 {
		t.Fatalf("totals = %d/%d/%d, want 4/2/2", s.Total, s.Final, s.Growing)
	}
	if len(s.Types) != 3 {
		t.Fatalf("types = %d, want 3", len(s.Types))
	}
	if s.Types[0].Type != "aspen" || s.Types[1].Type != "birch" || s.Types[2].Type != "oak" {
		t.Errorf("type order = %s, %s, %s", s.Types[0].Type, s.Types[1].Type, s.Types[2].Type)
	}
	oak := s.Types[2]
	if oak.Count != 2 || oak.MaxStage != 5 || oak.Final != 1 || oak.Growing != 1 {
		t.Errorf("oak = %+v", oak)
	}
	if got := oak.SortedStages(); len(got) != 2 || got[0] != 2 || got[1] != 5 {
		t.Errorf("oak stages = %v", got)
	}
	if aspen := s.Types[0]; aspen.MaxStage != 6 || aspen.Growing != 1 {
		t.Errorf("aspen = %+v", aspen)
	}
	if s.MinX != -10 || s.MaxX != 20 || s.MinZ != -7 || s.MaxZ != 30 {
		t.Errorf("bounds = X[%v,%v] Z[%v,%v]", s.MinX, s.MaxX, s.MinZ, s.MaxZ)
	}
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, Summarize(sampleTrees(), treetypes.New(nil)))
	out := buf.String()

	for _, want := range []string{
		"Found 4 trees:",
		"  oak: 2 (max stage: 5)",
		"    (stage 2: 1, stage 5: 1)",
		"    -> 1 final stage, 1 growing",
		"  Final stage (isGrowing=false): 2 (50.0%)",
		"  Growing (isGrowing=true): 2 (50.0%)",
		"Bounding box: X [-10.0, 20.0], Z [-7.0, 30.0]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// Single-stage types print no distribution line.
	if strings.Contains(out, "(stage 5: 1)") {
		t.Errorf("unexpected distribution for birch:\n%s", out)
	}
}

func TestPrintEmpty(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, Summarize(nil, treetypes.New(nil)))
	if strings.Contains(buf.String(), "Bounding box") {
		t.Errorf("empty summary printed bounds:\n%s", buf.String())
	}
}

func TestExportSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "trees.db")
	cat := treetypes.New(nil)

	id1, err := ExportSQLite(path, "map.i3d", sampleTrees(), cat)
	if err != nil {
		t.Fatalf("ExportSQLite: %v", err)
	}
	id2, err := ExportSQLite(path, "map.i3d", sampleTrees()[:1], cat)
	if err != nil {
		t.Fatalf("ExportSQLite second run: %v", err)
	}
	if id2 <= id1 {
		t.Fatalf("run ids = %d, %d", id1, id2)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var total, final, growing int
	if err := db.QueryRow(`SELECT total,final,growing FROM runs WHERE id=?`, id1).Scan(&total, &final, &growing); err != nil {
		t.Fatalf("Scan run: %v", err)
	}
	if total != 4 || final != 2 || growing != 2 {
		t.Fatalf("run row = %d/%d/%d", total, final, growing)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM trees WHERE run_id=?`, id1).Scan(&n); err != nil {
		t.Fatalf("count trees: %v", err)
	}
	if n != 4 {
		t.Fatalf("trees rows = %d, want 4", n)
	}

	var (
		name      string
		x, z      float64
		stage     int
		variation int
		grow      int
	)
	row := db.QueryRow(`SELECT node_name,x,z,stage,variation,growing FROM trees WHERE run_id=? AND seq=1`, id1)
	if err := row.Scan(&name, &x, &z, &stage, &variation, &grow); err != nil {
		t.Fatalf("Scan tree: %v", err)
	}
	if name != "oak2" || x != 20 || z != -7 || stage != 2 || variation != 2 || grow != 1 {
		t.Fatalf("tree row = %s %v %v %d %d %d", name, x, z, stage, variation, grow)
	}

	var count, maxStage int
	if err := db.QueryRow(`SELECT count,max_stage FROM type_counts WHERE run_id=? AND tree_type='oak'`, id1).Scan(&count, &maxStage); err != nil {
		t.Fatalf("Scan type_counts: %v", err)
	}
	if count != 2 || maxStage != 5 {
		t.Fatalf("oak counts = %d, %d", count, maxStage)
	}
}

func TestExportSQLiteEmptyPath(t *testing.T) {
	if _, err := ExportSQLite("", "map.i3d", nil, treetypes.New(nil)); err == nil {
		t.Fatal("expected error for empty path")
	}
}
