package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("config.schema.json", schemaJSON)

// Config holds the inputs, outputs and options of a conversion run.
type Config struct {
	// Paths
	I3D        string `yaml:"i3d"`
	Output     string `yaml:"output"`
	MapXML     string `yaml:"map_xml"`
	GameData   string `yaml:"game_data"`
	TreeTypes  string `yaml:"tree_types"`
	ReportDB   string `yaml:"report_db"`
	TreeParent string `yaml:"tree_parent"`

	// i3d rewrite
	RemoveFromI3D  bool `yaml:"remove_from_i3d"`
	CompressBackup bool `yaml:"compress_backup"`

	// Preview image
	PreviewImage string `yaml:"preview_image"`
	PreviewSize  int    `yaml:"preview_size"`
	Supersample  int    `yaml:"supersample"`

	// Batch conversion
	Workers int `yaml:"workers"`

	// dir is the config file's directory; relative paths in the file are
	// resolved against it.
	dir string
}

// Load reads a YAML (or JSON) config file, validates it against the
// embedded schema and returns Config. Fields not set in the file keep their
// zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	if err := schema.Validate(doc); err != nil {
		return Config{}, fmt.Errorf("config: validate %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		cfg.dir = filepath.Dir(abs)
	} else {
		cfg.dir = filepath.Dir(path)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
// Boolean flags can only switch an option on.
type Flags struct {
	I3D            string
	Output         string
	MapXML         string
	GameData       string
	TreeTypes      string
	ReportDB       string
	TreeParent     string
	RemoveFromI3D  bool
	CompressBackup bool
	PreviewImage   string
	PreviewSize    int
	Supersample    int
	Workers        int
}

// Resolve makes paths from the config file absolute, applies CLI flags,
// auto-detects map.xml next to the i3d and fills in defaults.
func (c *Config) Resolve(flags Flags) {
	// Config-file paths are relative to the file; flag paths to the cwd.
	if c.dir != "" {
		for _, p := range c.paths() {
			if *p != "" && !filepath.IsAbs(*p) {
				*p = filepath.Join(c.dir, *p)
			}
		}
	}

	// CLI flags override config file
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&c.I3D, flags.I3D)
	override(&c.Output, flags.Output)
	override(&c.MapXML, flags.MapXML)
	override(&c.GameData, flags.GameData)
	override(&c.TreeTypes, flags.TreeTypes)
	override(&c.ReportDB, flags.ReportDB)
	override(&c.TreeParent, flags.TreeParent)
	override(&c.PreviewImage, flags.PreviewImage)
	if flags.RemoveFromI3D {
		c.RemoveFromI3D = true
	}
	if flags.CompressBackup {
		c.CompressBackup = true
	}
	if flags.PreviewSize > 0 {
		c.PreviewSize = flags.PreviewSize
	}
	if flags.Supersample > 0 {
		c.Supersample = flags.Supersample
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.MapXML == "" && c.I3D != "" {
		c.MapXML = FindMapXML(c.I3D)
	}

	if c.PreviewSize <= 0 {
		c.PreviewSize = 1024
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

func (c *Config) paths() []*string {
	return []*string{&c.I3D, &c.Output, &c.MapXML, &c.GameData, &c.TreeTypes, &c.ReportDB, &c.PreviewImage}
}

// FindMapXML checks the usual mod layouts for the descriptor of the map
// stored in i3dPath: beside the i3d, one level up, or in a sibling xml/ or
// map/ folder. It returns "" when none exists.
func FindMapXML(i3dPath string) string {
	i3dDir := filepath.Dir(i3dPath)
	parent := filepath.Dir(i3dDir)
	candidates := []string{
		filepath.Join(i3dDir, "map.xml"),
		filepath.Join(parent, "map.xml"),
		filepath.Join(parent, "xml", "map.xml"),
		filepath.Join(parent, "map", "map.xml"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
