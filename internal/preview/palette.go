package preview

import (
	"image/color"
	"sort"
	"strings"
)

// Distinct hues for up to a dozen species; further types wrap around.
var palette = []color.NRGBA{
	{R: 76, G: 175, B: 80, A: 255},
	{R: 255, G: 193, B: 7, A: 255},
	{R: 33, G: 150, B: 243, A: 255},
	{R: 233, G: 30, B: 99, A: 255},
	{R: 0, G: 188, B: 212, A: 255},
	{R: 255, G: 87, B: 34, A: 255},
	{R: 156, G: 39, B: 176, A: 255},
	{R: 205, G: 220, B: 57, A: 255},
	{R: 121, G: 85, B: 72, A: 255},
	{R: 0, G: 150, B: 136, A: 255},
	{R: 244, G: 143, B: 177, A: 255},
	{R: 158, G: 158, B: 158, A: 255},
}

var background = color.NRGBA{R: 34, G: 40, B: 30, A: 255}

// coniferMarkers lists name fragments of needle trees, drawn as triangles.
var coniferMarkers = []string{"pine", "pinus", "spruce", "fir", "larch"}

func isConifer(typ string) bool {
	t := strings.ToLower(typ)
	for _, m := range coniferMarkers {
		if strings.Contains(t, m) {
			return true
		}
	}
	return false
}

// assignColors gives each type a palette entry in sorted name order so the
// same set of types always gets the same colors.
func assignColors(types []string) map[string]color.NRGBA {
	sorted := append([]string(nil), types...)
	sort.Strings(sorted)
	out := make(map[string]color.NRGBA, len(sorted))
	for i, t := range sorted {
		out[t] = palette[i%len(palette)]
	}
	return out
}
