package raster

import (
	"image/color"
	"math"
)

const (
	srgbGamma = 2.2
	invGamma  = 1.0 / srgbGamma
)

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, srgbGamma)
	}
}

// Shade scales a color's brightness by k in linear space and re-encodes it
// to sRGB. Alpha is kept.
func Shade(c color.NRGBA, k float64) color.NRGBA {
	return color.NRGBA{
		R: clamp255(math.Pow(srgbToLinear[c.R]*k, invGamma) * 255),
		G: clamp255(math.Pow(srgbToLinear[c.G]*k, invGamma) * 255),
		B: clamp255(math.Pow(srgbToLinear[c.B]*k, invGamma) * 255),
		A: c.A,
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
