package preview

import (
	"image"
	"math"

	"i3d-treeplant/internal/extract"
	"i3d-treeplant/internal/mathutil"
	"i3d-treeplant/internal/raster"
	"i3d-treeplant/internal/treetypes"
)

const (
	// DefaultSize is the output edge length in pixels.
	DefaultSize = 1024
	// DefaultSupersample is the render scale factor before downsampling.
	DefaultSupersample = 2

	// crownRadius is the drawn radius, in meters, of a fully grown tree.
	crownRadius = 4.0
	// minSpan keeps a single tree from filling the whole image.
	minSpan = 50.0
	// growingShade darkens trees that are still growing.
	growingShade = 0.55
)

// Options control preview rendering.
type Options struct {
	Size        int  // output edge length, default DefaultSize
	Supersample int  // default DefaultSupersample
	Legend      bool // draw a per-type legend in the top-left corner
}

func (o Options) withDefaults() Options {
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if o.Supersample <= 0 {
		o.Supersample = DefaultSupersample
	}
	return o
}

// Render draws a top-down map of the trees: world X to the right, world Z
// down, one marker per tree sized by growth stage. Conifers are triangles,
// broadleaf trees discs. Higher trees are drawn over lower ones.
func Render(instances []extract.TreeInstance, cat *treetypes.Catalog, opts Options) *image.NRGBA {
	opts = opts.withDefaults()
	renderSize := opts.Size * opts.Supersample

	fb := raster.NewFrameBuffer(renderSize, renderSize)
	fb.Clear(background)

	counts := make(map[string]int)
	var types []string
	minX, maxX := math.Inf(1), math.Inf(-1)
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for _, t := range instances {
		if counts[t.Type] == 0 {
			types = append(types, t.Type)
		}
		counts[t.Type]++
		minX = math.Min(minX, t.Position[0])
		maxX = math.Max(maxX, t.Position[0])
		minZ = math.Min(minZ, t.Position[2])
		maxZ = math.Max(maxZ, t.Position[2])
	}
	colors := assignColors(types)

	if len(instances) > 0 {
		span := math.Max(math.Max(maxX-minX, maxZ-minZ), minSpan)
		margin := float64(16 * opts.Supersample)
		scale := (float64(renderSize) - 2*margin) / span
		center := mathutil.Vec3{(minX + maxX) / 2, 0, (minZ + maxZ) / 2}
		view := topDownView(center, scale, float64(renderSize)/2)
		minR := 1.5 * float64(opts.Supersample)

		for _, t := range instances {
			p := view.MulPoint(t.Position)

			maxStage := cat.MaxStage(t.Type)
			growth := float64(t.Stage) / float64(maxStage)
			if growth > 1 {
				growth = 1
			}
			r := math.Max(crownRadius*growth*scale, minR)

			c := colors[t.Type]
			if t.Stage < maxStage {
				c = raster.Shade(c, growingShade)
			}
			// Taller trees cover lower ones at the same spot.
			z := p[2] + float64(t.Stage)

			if isConifer(t.Type) {
				// Upward triangle inscribed in the crown circle.
				a := p.Add(mathutil.Vec3{0, -r, 0})
				b := p.Add(mathutil.Vec3{-r * 0.866, r * 0.5, 0})
				d := p.Add(mathutil.Vec3{r * 0.866, r * 0.5, 0})
				raster.FillTriangle(fb, a[0], a[1], b[0], b[1], d[0], d[1], z, c)
			} else {
				raster.FillDisc(fb, p[0], p[1], r, z, c)
			}
		}
	}

	img := fb.Image()
	if opts.Supersample > 1 {
		img = Downsample(img, opts.Size)
	}
	if opts.Legend && len(types) > 0 {
		drawLegend(img, legendEntries(types, counts, colors))
	}
	return img
}

// topDownView maps world space to render pixels: X to the right, Z down,
// both scaled about center to the image middle. The third component of a
// projected point is the world height.
func topDownView(center mathutil.Vec3, scale, half float64) mathutil.Mat4 {
	axes := mathutil.Mat3{
		scale, 0, 0,
		0, 0, scale,
		0, 1, 0,
	}
	offset := mathutil.Vec3{half, half, 0}.Sub(axes.MulVec3(center))
	return mathutil.FromMat3Translation(axes, offset)
}
