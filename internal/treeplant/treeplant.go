package treeplant

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"i3d-treeplant/internal/extract"
	"i3d-treeplant/internal/mathutil"
	"i3d-treeplant/internal/treetypes"
)

// noSplitShape is written to splitShapeFileId: planted trees carry no split
// shape until the game cuts them.
const noSplitShape = -1

// Record is one <tree> entry of treePlant.xml.
type Record struct {
	TreeType         string
	Position         string
	Rotation         string
	GrowthState      int
	VariationIndex   int // 1 is the default and is not written
	IsGrowing        bool
	SplitShapeFileID int
}

// Document is a treePlant.xml savegame file.
type Document struct {
	Records []Record
}

// Emit converts instances, in order, to treePlant records. A tree keeps
// growing unless its stage has reached the type's last stage.
func Emit(instances []extract.TreeInstance, cat *treetypes.Catalog) Document {
	doc := Document{Records: make([]Record, 0, len(instances))}
	for _, t := range instances {
		doc.Records = append(doc.Records, Record{
			TreeType:         strings.ToUpper(t.Type),
			Position:         formatVec(t.Position),
			Rotation:         formatVec(t.Rotation),
			GrowthState:      t.Stage,
			VariationIndex:   t.Variation,
			IsGrowing:        !cat.IsFinalStage(t.Type, t.Stage),
			SplitShapeFileID: noSplitShape,
		})
	}
	return doc
}

func formatVec(v mathutil.Vec3) string {
	return fmt.Sprintf("%.4f %.4f %.4f", noNegZero(v[0]), noNegZero(v[1]), noNegZero(v[2]))
}

// noNegZero maps values that round to zero at 4 decimals to +0 so they are
// not written as "-0.0000".
func noNegZero(f float64) float64 {
	if math.Abs(f) < 0.00005 {
		return 0
	}
	return f
}

// Counts returns how many trees are fully grown and how many still grow.
func (d Document) Counts() (final, growing int) {
	for _, r := range d.Records {
		if r.IsGrowing {
			growing++
		} else {
			final++
		}
	}
	return final, growing
}

func (d Document) build() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8" standalone="no"`)
	root := doc.CreateElement("treePlant")
	for _, r := range d.Records {
		e := root.CreateElement("tree")
		e.CreateAttr("treeType", r.TreeType)
		e.CreateAttr("position", r.Position)
		e.CreateAttr("rotation", r.Rotation)
		e.CreateAttr("growthStateI", strconv.Itoa(r.GrowthState))
		if r.VariationIndex != 1 {
			e.CreateAttr("variationIndex", strconv.Itoa(r.VariationIndex))
		}
		e.CreateAttr("isGrowing", strconv.FormatBool(r.IsGrowing))
		e.CreateAttr("splitShapeFileId", strconv.Itoa(r.SplitShapeFileID))
	}
	doc.Indent(4)
	return doc
}

// WriteTo writes the XML document.
func (d Document) WriteTo(w io.Writer) (int64, error) {
	return d.build().WriteTo(w)
}

// WriteFile writes the XML document to path, creating parent directories.
func (d Document) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("treeplant: write %s: %w", path, err)
		}
	}
	if err := d.build().WriteToFile(path); err != nil {
		return fmt.Errorf("treeplant: write %s: %w", path, err)
	}
	return nil
}
