package debugviz

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// Stencil reference bounds for the values overlay.
const (
	MinStencilRef     = 1
	MaxStencilRef     = 32
	defaultStencilRef = 8
)

// Config tunes the visualizer. The zero value is not useful; start from
// DefaultConfig.
type Config struct {
	// Depth views.
	MaxDepthDistance float32 // world units mapped to the far color
	LogScale         float32 // curve steepness of the logarithmic view
	DepthBrightness  float32
	SkyThreshold     float32 // raw depth at or above this is sky
	NearColor        colorful.Color
	FarColor         colorful.Color
	SkyColor         colorful.Color

	// UseDualDepthBuffers samples the far-scene depth as well and shows the
	// closer of the two.
	UseDualDepthBuffers bool
	// ViewFarsceneOnly shows only the far-scene depth.
	ViewFarsceneOnly bool

	// Stencil overlays.
	StencilMaxRef       int
	CombinedStencil     CombinedSubMode
	StencilOverlayAlpha float32
	// StencilAlwaysPass replaces the not-equal-zero test with one that
	// always passes, tinting the whole frame to prove the overlay path works.
	StencilAlwaysPass bool
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		MaxDepthDistance:    500,
		LogScale:            0.01,
		DepthBrightness:     0.85,
		SkyThreshold:        0.9999,
		NearColor:           colorful.Color{R: 1, G: 1, B: 1},
		FarColor:            colorful.Color{R: 0, G: 0, B: 0},
		SkyColor:            colorful.Color{R: 0, G: 0, B: 0.1},
		StencilMaxRef:       defaultStencilRef,
		CombinedStencil:     SubModeValues,
		StencilOverlayAlpha: 0.6,
	}
}

// Normalized returns c with every field forced into its usable range.
func (c Config) Normalized() Config {
	d := DefaultConfig()
	if c.MaxDepthDistance <= 0 {
		c.MaxDepthDistance = d.MaxDepthDistance
	}
	if c.LogScale <= 0 {
		c.LogScale = d.LogScale
	}
	c.DepthBrightness = clampf(c.DepthBrightness, 0, 1)
	c.SkyThreshold = clampf(c.SkyThreshold, 0, 1)
	c.StencilOverlayAlpha = clampf(c.StencilOverlayAlpha, 0, 1)
	c.StencilMaxRef = min(max(c.StencilMaxRef, MinStencilRef), MaxStencilRef)
	if c.CombinedStencil > SubModeBitmask {
		c.CombinedStencil = d.CombinedStencil
	}
	c.NearColor = c.NearColor.Clamped()
	c.FarColor = c.FarColor.Clamped()
	c.SkyColor = c.SkyColor.Clamped()
	return c
}

// ViewSource selects the depth source in the shader: 0 near scene only,
// 1 closest of both, 2 far scene only.
func (c Config) ViewSource() uint32 {
	switch {
	case c.ViewFarsceneOnly:
		return 2
	case c.UseDualDepthBuffers:
		return 1
	default:
		return 0
	}
}

// SetColors parses hex colors ("#rrggbb" or "#rgb") into the depth colors.
// Empty strings leave a color unchanged.
func (c *Config) SetColors(near, far, sky string) error {
	for _, f := range []struct {
		hex string
		dst *colorful.Color
	}{{near, &c.NearColor}, {far, &c.FarColor}, {sky, &c.SkyColor}} {
		if f.hex == "" {
			continue
		}
		col, err := colorful.Hex(f.hex)
		if err != nil {
			return fmt.Errorf("debugviz: color %q: %w", f.hex, err)
		}
		*f.dst = col
	}
	return nil
}

func rgba(c colorful.Color, a float32) mgl32.Vec4 {
	return mgl32.Vec4{float32(c.R), float32(c.G), float32(c.B), a}
}

func clampf(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
