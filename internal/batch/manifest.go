package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ManifestEntry represents one map in the output manifest.
type ManifestEntry struct {
	Name    string `json:"name"`
	I3D     string `json:"i3d"`
	Trees   int    `json:"trees"`
	Final   int    `json:"final"`
	Growing int    `json:"growing"`
	Output  string `json:"output,omitempty"`
	Preview string `json:"preview,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// WriteManifest writes the run's results as JSON. Output paths are stored
// relative to the manifest's directory.
func WriteManifest(path string, results []Result) error {
	base := filepath.Dir(path)
	rel := func(p string) string {
		if p == "" {
			return ""
		}
		if r, err := filepath.Rel(base, p); err == nil {
			return filepath.ToSlash(r)
		}
		return p
	}

	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Name:    r.Name,
			I3D:     r.I3D,
			Trees:   r.Trees,
			Final:   r.Final,
			Growing: r.Growing,
			Output:  rel(r.Output),
			Preview: rel(r.Preview),
			Success: r.Success,
			Error:   r.Error,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
