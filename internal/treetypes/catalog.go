package treetypes

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// dataMacro prefixes paths relative to the game's data directory.
const dataMacro = "$data/"

// Catalog holds tree type descriptors keyed by uppercase name. A catalog is
// built once per conversion run and passed to every stage that classifies or
// grades trees.
type Catalog struct {
	types map[string]*Descriptor
	log   *log.Logger
}

// New returns an empty catalog. Warnings go to logger; nil discards them.
func New(logger *log.Logger) *Catalog {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Catalog{
		types: make(map[string]*Descriptor),
		log:   logger,
	}
}

// Load reads a treeTypes.xml file. Each type replaces any loaded type with
// the same name; stages are never merged across files. "$data/" filenames
// are resolved against baseDir when it is set. Returns the number of types
// read from this file; 0 when the file is missing or malformed.
func (c *Catalog) Load(path, baseDir string) int {
	if _, err := os.Stat(path); err != nil {
		c.log.Printf("Warning: treeTypes.xml not found: %s", path)
		return 0
	}

	root, err := readRoot(path)
	if err != nil {
		c.log.Printf("Warning: parse %s: %v", path, err)
		return 0
	}

	parsed := parseTreeTypes(root, baseDir)
	for _, d := range parsed {
		c.types[strings.ToUpper(d.Name)] = d
	}
	return len(parsed)
}

// readRoot parses an XML file that must hold exactly one document element.
// etree accepts trailing elements; a well-formed XML document does not.
func readRoot(path string) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, err
	}
	roots := doc.ChildElements()
	switch len(roots) {
	case 0:
		return nil, errors.New("no root element")
	case 1:
		return roots[0], nil
	}
	return nil, fmt.Errorf("junk after document element <%s>", roots[0].Tag)
}

func parseTreeTypes(root *etree.Element, baseDir string) []*Descriptor {
	// treeTypes is usually nested under <map>; fall back to the root itself.
	container := root.FindElement(".//treeTypes")
	if container == nil {
		container = root
	}

	var out []*Descriptor
	for _, te := range container.SelectElements("treeType") {
		name := te.SelectAttrValue("name", "")
		if name == "" {
			continue
		}

		var stages []Stage
		for _, se := range te.SelectElements("stage") {
			var vars []Variation
			if fn := se.SelectAttrValue("filename", ""); fn != "" {
				vars = append(vars, Variation{Filename: resolveDataPath(fn, baseDir)})
			} else {
				for _, ve := range se.SelectElements("variation") {
					vars = append(vars, Variation{
						Filename: resolveDataPath(ve.SelectAttrValue("filename", ""), baseDir),
						Name:     ve.SelectAttrValue("name", ""),
					})
				}
			}
			if len(vars) == 0 {
				continue
			}
			stages = append(stages, Stage{Index: len(stages) + 1, Variations: vars})
		}
		if len(stages) == 0 {
			continue
		}

		out = append(out, &Descriptor{
			Name:      name,
			SplitType: te.SelectAttrValue("splitType", strings.ToUpper(name)),
			Title:     te.SelectAttrValue("title", name),
			Stages:    stages,
		})
	}
	return out
}

func resolveDataPath(fn, baseDir string) string {
	if baseDir == "" || !strings.HasPrefix(fn, dataMacro) {
		return fn
	}
	return filepath.Join(baseDir, filepath.FromSlash(fn[len(dataMacro):]))
}

// LoadFromMap loads types the way the game does: base types from
// <gameData>/maps/maps_treeTypes.xml (when gameData is set), then the
// map-local file referenced by map.xml, which replaces same-named base types.
func (c *Catalog) LoadFromMap(mapXML, gameData string) int {
	total := 0
	mapDir := filepath.Dir(mapXML)

	if gameData != "" {
		base := filepath.Join(gameData, "maps", "maps_treeTypes.xml")
		if _, err := os.Stat(base); err == nil {
			n := c.Load(base, gameData)
			c.log.Printf("Loaded %d base tree types from %s", n, base)
			total += n
		}
	}

	root, err := readRoot(mapXML)
	if err != nil {
		c.log.Printf("Warning: parse map.xml %s: %v", mapXML, err)
		return total
	}
	ref := root.FindElement(".//treeTypes")
	if ref == nil {
		return total
	}
	filename := ref.SelectAttrValue("filename", "")
	if filename == "" {
		return total
	}

	// modDesc-style paths carry a leading "map/" that is not part of the
	// on-disk layout next to map.xml.
	candidates := []string{filepath.Join(mapDir, filepath.FromSlash(filename))}
	if strings.HasPrefix(filename, "map/") {
		candidates = append(candidates, filepath.Join(mapDir, filepath.FromSlash(filename[len("map/"):])))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		n := c.Load(p, mapDir)
		c.log.Printf("Loaded %d map tree types from %s", n, p)
		return total + n
	}
	c.log.Printf("Warning: map tree types not found at any of: %s", strings.Join(candidates, ", "))
	return total
}

// Get returns the descriptor for name (case-insensitive).
func (c *Catalog) Get(name string) (*Descriptor, bool) {
	d, ok := c.types[strings.ToUpper(name)]
	return d, ok
}

// Len returns the number of loaded types.
func (c *Catalog) Len() int {
	return len(c.types)
}

// Names returns the loaded type names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.types))
	for _, d := range c.types {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// MaxStage returns the number of growth stages of a type: the loaded
// descriptor's, else the built-in table's, else DefaultMaxStage.
func (c *Catalog) MaxStage(name string) int {
	if d, ok := c.Get(name); ok {
		return d.MaxStage()
	}
	if n, ok := fallbackMaxStages[strings.ToUpper(name)]; ok {
		return n
	}
	return DefaultMaxStage
}

// IsFinalStage reports whether a tree at stage has stopped growing.
func (c *Catalog) IsFinalStage(name string, stage int) bool {
	return stage >= c.MaxStage(name)
}

// FindStageAndVariation maps an asset filename to a 1-based stage and
// variation of the given type.
func (c *Catalog) FindStageAndVariation(name, filename string) (stage, variation int) {
	if d, ok := c.Get(name); ok {
		return d.findByFilename(filename)
	}
	stage, variation, hasStage, hasVar := StageTokens(filename)
	if !hasStage {
		stage = c.MaxStage(name)
	}
	if !hasVar {
		variation = 1
	}
	return stage, variation
}

// findByFilename returns the first stage/variation whose filename has the
// same base name as filename, or whose full path contains it. Unmatched
// names are treated as fully grown.
func (d *Descriptor) findByFilename(filename string) (stage, variation int) {
	base := stem(filename)
	for _, s := range d.Stages {
		for i, v := range s.Variations {
			if stem(v.Filename) == base || strings.Contains(strings.ToLower(v.Filename), base) {
				return s.Index, i + 1
			}
		}
	}
	return d.MaxStage(), 1
}

// LookupFilename finds the type whose variation list contains an asset with
// the same base name as path. Used for map-local species the name patterns
// do not know. Types are searched in name order so the result is stable.
func (c *Catalog) LookupFilename(path string) (name string, stage, variation int, ok bool) {
	base := stem(path)
	keys := make([]string, 0, len(c.types))
	for k := range c.types {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d := c.types[k]
		for _, s := range d.Stages {
			for i, v := range s.Variations {
				if stem(v.Filename) == base {
					return d.Name, s.Index, i + 1, true
				}
			}
		}
	}
	return "", 0, 0, false
}

// stem returns the lowercase file name without directory or extension.
// Both slash styles are accepted since i3d and XML paths use '/'.
func stem(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if i := strings.LastIndex(p, "."); i > 0 {
		p = p[:i]
	}
	return strings.ToLower(p)
}

// String summarizes a descriptor for listings.
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s (%s): %d stages", d.Name, d.SplitType, d.MaxStage())
}
