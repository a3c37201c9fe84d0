package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"i3d-treeplant/internal/extract"
	"i3d-treeplant/internal/treetypes"
)

// ExportSQLite appends one conversion run to the report database at path:
// a row in runs, one row per tree and one per type. It returns the run id.
func ExportSQLite(path, source string, instances []extract.TreeInstance, cat *treetypes.Catalog) (int64, error) {
	if path == "" {
		return 0, fmt.Errorf("report: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("report: open %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, fmt.Errorf("report: open %s: %w", path, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := initPragmas(db); err != nil {
		return 0, fmt.Errorf("report: init %s: %w", path, err)
	}
	if err := initSchema(db); err != nil {
		return 0, fmt.Errorf("report: init %s: %w", path, err)
	}

	runID, err := writeRun(db, source, instances, cat)
	if err != nil {
		return 0, fmt.Errorf("report: write %s: %w", path, err)
	}
	return runID, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			created_at TEXT NOT NULL,
			total INTEGER NOT NULL,
			final INTEGER NOT NULL,
			growing INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS trees (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			seq INTEGER NOT NULL,
			node_name TEXT NOT NULL,
			tree_type TEXT NOT NULL,
			x REAL NOT NULL, y REAL NOT NULL, z REAL NOT NULL,
			rx REAL NOT NULL, ry REAL NOT NULL, rz REAL NOT NULL,
			stage INTEGER NOT NULL,
			variation INTEGER NOT NULL,
			growing INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS type_counts (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			tree_type TEXT NOT NULL,
			count INTEGER NOT NULL,
			max_stage INTEGER NOT NULL,
			final INTEGER NOT NULL,
			growing INTEGER NOT NULL,
			PRIMARY KEY (run_id, tree_type)
		);`,
		`CREATE INDEX IF NOT EXISTS trees_type_idx ON trees(tree_type);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func writeRun(db *sql.DB, source string, instances []extract.TreeInstance, cat *treetypes.Catalog) (int64, error) {
	sum := Summarize(instances, cat)

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO runs(source,created_at,total,final,growing) VALUES(?,?,?,?,?)`,
		source, time.Now().UTC().Format(time.RFC3339), sum.Total, sum.Final, sum.Growing)
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	treeStmt, err := tx.Prepare(`INSERT INTO trees(run_id,seq,node_name,tree_type,x,y,z,rx,ry,rz,stage,variation,growing)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer treeStmt.Close()
	for i, t := range instances {
		growing := 0
		if !cat.IsFinalStage(t.Type, t.Stage) {
			growing = 1
		}
		if _, err := treeStmt.Exec(runID, i, t.NodeName, t.Type,
			t.Position[0], t.Position[1], t.Position[2],
			t.Rotation[0], t.Rotation[1], t.Rotation[2],
			t.Stage, t.Variation, growing); err != nil {
			return 0, err
		}
	}

	for _, ts := range sum.Types {
		if _, err := tx.Exec(`INSERT INTO type_counts(run_id,tree_type,count,max_stage,final,growing) VALUES(?,?,?,?,?,?)`,
			runID, ts.Type, ts.Count, ts.MaxStage, ts.Final, ts.Growing); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}
