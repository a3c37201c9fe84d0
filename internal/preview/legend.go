package preview

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type legendEntry struct {
	label string
	color color.NRGBA
}

func legendEntries(types []string, counts map[string]int, colors map[string]color.NRGBA) []legendEntry {
	sorted := append([]string(nil), types...)
	sort.Strings(sorted)
	out := make([]legendEntry, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, legendEntry{
			label: fmt.Sprintf("%s (%d)", t, counts[t]),
			color: colors[t],
		})
	}
	return out
}

func newFace(size float64) (font.Face, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// drawLegend paints a swatch and label per entry on a translucent panel in
// the top-left corner. The panel is skipped if the font cannot be loaded.
func drawLegend(img *image.NRGBA, entries []legendEntry) {
	edge := img.Bounds().Dx()
	fontSize := float64(edge) / 64
	if fontSize < 10 {
		fontSize = 10
	}
	face, err := newFace(fontSize)
	if err != nil {
		return
	}
	defer face.Close()

	lineH := int(fontSize * 1.4)
	pad := lineH / 2
	swatch := int(fontSize * 0.8)

	textW := 0
	for _, e := range entries {
		if w := font.MeasureString(face, e.label).Ceil(); w > textW {
			textW = w
		}
	}
	panel := image.Rect(pad, pad, pad+pad+swatch+pad+textW+pad, pad+pad+lineH*len(entries)+pad/2)
	draw.Draw(img, panel, image.NewUniform(color.NRGBA{A: 160}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
	}
	ascent := face.Metrics().Ascent.Ceil()
	for i, e := range entries {
		top := panel.Min.Y + pad + i*lineH
		sw := image.Rect(panel.Min.X+pad, top, panel.Min.X+pad+swatch, top+swatch)
		draw.Draw(img, sw, image.NewUniform(e.color), image.Point{}, draw.Src)

		d.Dot = fixed.Point26_6{
			X: fixed.I(sw.Max.X + pad),
			Y: fixed.I(top + ascent*3/4),
		}
		d.DrawString(e.label)
	}
}
