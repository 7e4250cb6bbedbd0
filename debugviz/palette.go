package debugviz

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// Stencil value colors for references 1..8, chosen to stay distinct for
// common color-vision deficiencies.
var valuePalette = [8]colorful.Color{
	{R: 1.0, G: 0.2, B: 0.2}, // red
	{R: 0.2, G: 1.0, B: 0.2}, // green
	{R: 0.2, G: 0.4, B: 1.0}, // blue
	{R: 1.0, G: 1.0, B: 0.2}, // yellow
	{R: 1.0, G: 0.2, B: 1.0}, // magenta
	{R: 0.2, G: 1.0, B: 1.0}, // cyan
	{R: 1.0, G: 0.6, B: 0.2}, // orange
	{R: 0.6, G: 0.2, B: 1.0}, // purple
}

// One color per stencil bit.
var bitPalette = [8]colorful.Color{
	{R: 1, G: 0, B: 0},
	{R: 0, G: 1, B: 0},
	{R: 0, G: 0, B: 1},
	{R: 1, G: 1, B: 0},
	{R: 1, G: 0, B: 1},
	{R: 0, G: 1, B: 1},
	{R: 1, G: 0.5, B: 0},
	{R: 0.5, G: 0, B: 1},
}

const (
	valueAlpha   = 0.7
	bitAlpha     = 0.5
	nonzeroAlpha = 0.6
	debugAlpha   = 0.5
)

// ValueColor returns the overlay color for stencil reference ref, with the
// alpha scaled by overlayAlpha. References past the palette get a color
// generated from their hue slot.
func ValueColor(ref int, overlayAlpha float32) mgl32.Vec4 {
	if ref <= 0 {
		return mgl32.Vec4{}
	}
	if ref <= len(valuePalette) {
		return rgba(valuePalette[ref-1], valueAlpha*overlayAlpha)
	}
	hue := float64(ref%8) / 8
	c := colorful.Color{
		R: 0.5 + 0.5*math.Sin(hue*6.28318),
		G: 0.5 + 0.5*math.Sin((hue+0.333)*6.28318),
		B: 0.5 + 0.5*math.Sin((hue+0.666)*6.28318),
	}
	return rgba(c, valueAlpha*overlayAlpha)
}

// BitColor returns the overlay color for stencil bit 0..7.
func BitColor(bit int, overlayAlpha float32) mgl32.Vec4 {
	if bit < 0 || bit >= len(bitPalette) {
		return mgl32.Vec4{}
	}
	return rgba(bitPalette[bit], bitAlpha*overlayAlpha)
}

// NonzeroColor returns the red not-equal-zero overlay, or cyan for the
// always-pass diagnostic.
func NonzeroColor(alwaysPass bool, overlayAlpha float32) mgl32.Vec4 {
	if alwaysPass {
		return mgl32.Vec4{0, 1, 1, debugAlpha * overlayAlpha}
	}
	return mgl32.Vec4{1, 0.3, 0.3, nonzeroAlpha * overlayAlpha}
}
