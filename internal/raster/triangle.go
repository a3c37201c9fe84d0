package raster

import (
	"image/color"
	"math"
)

// FillTriangle rasterizes a flat-colored triangle at height z.
// Winding does not matter. Degenerate triangles draw nothing.
func FillTriangle(fb *FrameBuffer, x0, y0, x1, y1, x2, y2, z float64, c color.NRGBA) {
	minX, minY, maxX, maxY, ok := fb.clipRect(
		math.Min(math.Min(x0, x1), x2),
		math.Min(math.Min(y0, y1), y2),
		math.Max(math.Max(x0, x1), x2),
		math.Max(math.Max(y0, y1), y2),
	)
	if !ok {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	// Sample at pixel centers.
	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}
			fb.plot(sx, sy, z, c)
		}
	}
}

// FillDisc rasterizes a filled circle of radius r centered at (cx, cy).
func FillDisc(fb *FrameBuffer, cx, cy, r, z float64, c color.NRGBA) {
	if r <= 0 {
		return
	}
	minX, minY, maxX, maxY, ok := fb.clipRect(cx-r, cy-r, cx+r, cy+r)
	if !ok {
		return
	}
	r2 := r * r
	for sy := minY; sy <= maxY; sy++ {
		dy := float64(sy) + 0.5 - cy
		for sx := minX; sx <= maxX; sx++ {
			dx := float64(sx) + 0.5 - cx
			if dx*dx+dy*dy > r2 {
				continue
			}
			fb.plot(sx, sy, z, c)
		}
	}
}
