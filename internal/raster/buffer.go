package raster

import (
	"image"
	"image/color"
	"math"
)

// FrameBuffer holds the rendering target as flat slices for cache locality.
// ZBuf stores world height: a splat only lands where it is higher than what
// was drawn before, so tall trees cover the ground cover beneath them.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8   // RGBA interleaved, len = W*H*4
	ZBuf   []float64 // height per pixel, len = W*H, initialized to -inf
}

// NewFrameBuffer allocates a zeroed color buffer and -inf z-buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	n := w * h
	zbuf := make([]float64, n)
	for i := range zbuf {
		zbuf[i] = math.Inf(-1)
	}
	return &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, n*4),
		ZBuf:   zbuf,
	}
}

// Clear fills the color buffer with bg. Depth is left untouched.
func (fb *FrameBuffer) Clear(bg color.NRGBA) {
	for i := 0; i < len(fb.Color); i += 4 {
		fb.Color[i] = bg.R
		fb.Color[i+1] = bg.G
		fb.Color[i+2] = bg.B
		fb.Color[i+3] = bg.A
	}
}

// Image copies the color buffer into a new NRGBA image.
func (fb *FrameBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	copy(img.Pix, fb.Color)
	return img
}

// plot writes c at (x, y) if z is above the stored depth.
func (fb *FrameBuffer) plot(x, y int, z float64, c color.NRGBA) {
	i := y*fb.Width + x
	if z <= fb.ZBuf[i] {
		return
	}
	fb.ZBuf[i] = z
	p := i * 4
	fb.Color[p] = c.R
	fb.Color[p+1] = c.G
	fb.Color[p+2] = c.B
	fb.Color[p+3] = c.A
}

// clipRect clamps a float bounding box to the buffer, returning ok=false
// when nothing remains.
func (fb *FrameBuffer) clipRect(x0, y0, x1, y1 float64) (minX, minY, maxX, maxY int, ok bool) {
	minX = int(math.Floor(x0))
	minY = int(math.Floor(y0))
	maxX = int(math.Ceil(x1))
	maxY = int(math.Ceil(y1))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	return minX, minY, maxX, maxY, minX <= maxX && minY <= maxY
}
