// Package fog applies height and distance fog over a rendered frame.
//
// The pass reconstructs each pixel's world position from the scene depth
// buffer and the inverse view-projection, then blends the fog color over
// the frame with an opacity that grows with distance and falls off with
// height. Two debug views show the linearized depth and the world height
// bands instead.
package fog

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// DebugMode replaces the fog output with a diagnostic view.
type DebugMode uint8

const (
	// DebugNone renders fog.
	DebugNone DebugMode = iota
	// DebugDepth shows linear depth as grayscale up to DebugMaxDistance.
	DebugDepth
	// DebugWorldY shows world height in 100-unit red bands.
	DebugWorldY

	debugModeCount
)

var debugModeNames = [...]string{"none", "depth", "world_y"}

// String returns the mode name.
func (m DebugMode) String() string {
	if m >= debugModeCount {
		return fmt.Sprintf("DebugMode(%d)", uint8(m))
	}
	return debugModeNames[m]
}

// ParseDebugMode parses a mode name as returned by String.
func ParseDebugMode(s string) (DebugMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range debugModeNames {
		if name == s {
			return DebugMode(i), nil
		}
	}
	return DebugNone, fmt.Errorf("fog: unknown debug mode %q", s)
}

// Params controls the fog pass. The zero value is disabled.
type Params struct {
	Enabled bool

	Color colorful.Color
	// MaxOpacity caps the fog amount.
	MaxOpacity float32
	// Density scales the exponential distance falloff.
	Density float32
	// HeightFalloff thins the fog above BaseHeight.
	HeightFalloff float32
	// Start is the distance at which fog begins.
	Start      float32
	BaseHeight float32

	// SkyThreshold is the raw depth at or beyond which a pixel is sky and
	// left untouched.
	SkyThreshold float32
	// DebugMaxDistance maps to white in DebugDepth.
	DebugMaxDistance float32
	Debug            DebugMode
}

// DefaultParams returns a light gray ground fog, disabled.
func DefaultParams() Params {
	return Params{
		Color:            colorful.Color{R: 0.6, G: 0.65, B: 0.7},
		MaxOpacity:       1,
		Density:          0.002,
		HeightFalloff:    0.05,
		Start:            10,
		SkyThreshold:     0.9999,
		DebugMaxDistance: 1000,
	}
}

// Normalized clamps every field into its valid range.
func (p Params) Normalized() Params {
	p.MaxOpacity = clamp(p.MaxOpacity, 0, 1)
	p.Density = max(p.Density, 0)
	p.HeightFalloff = max(p.HeightFalloff, 0)
	p.Start = max(p.Start, 0)
	if p.SkyThreshold <= 0 || p.SkyThreshold > 1 {
		p.SkyThreshold = DefaultParams().SkyThreshold
	}
	if p.DebugMaxDistance <= 0 {
		p.DebugMaxDistance = DefaultParams().DebugMaxDistance
	}
	if p.Debug >= debugModeCount {
		p.Debug = DebugNone
	}
	p.Color = p.Color.Clamped()
	return p
}

// SetColor parses a "#rrggbb" or "#rgb" fog color.
func (p *Params) SetColor(hex string) error {
	c, err := colorful.Hex(hex)
	if err != nil {
		return fmt.Errorf("fog: color: %w", err)
	}
	p.Color = c
	return nil
}

// Amount is the fog opacity at view distance dist and world height y. It
// matches the shader.
func (p Params) Amount(dist, y float32) float32 {
	d := max(dist-p.Start, 0)
	h := math.Exp(-float64(max(y-p.BaseHeight, 0) * p.HeightFalloff))
	a := 1 - math.Exp(-float64(d*p.Density)*h)
	return clamp(float32(a), 0, p.MaxOpacity)
}

// DistanceAmount is Amount without the height term, as applied to
// transparent layers whose world position is unknown.
func (p Params) DistanceAmount(dist float32) float32 {
	d := max(dist-p.Start, 0)
	a := 1 - math.Exp(-float64(d*p.Density))
	return clamp(float32(a), 0, p.MaxOpacity)
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
