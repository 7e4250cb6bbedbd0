// Package sky composites an atmosphere cubemap behind the rendered scene.
//
// The pass only touches pixels that both depth ranges leave at the far
// plane. Each such pixel looks up the cubemap along its view ray, with a
// horizon ring fade and a fade by camera height so the dome appears as the
// viewer climbs.
package sky

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// Params controls the sky pass. The zero value is disabled.
type Params struct {
	Enabled bool

	// AtmosphereTexture names the cubemap to sample. The built-in name
	// sky_atmosphere is tried after it.
	AtmosphereTexture string
	// Density scales the cubemap color.
	Density float32

	// HorizonShift pulls lookups toward the horizon, 0..1.
	HorizonShift float32
	// HorizonStart is the ray elevation (sine) at which the ring fades.
	HorizonStart float32
	// HorizonBlend widens the ring: 0 is a sharp ring, 1 full coverage.
	HorizonBlend float32

	// The dome fades in between these camera heights.
	FadeStartHeight float32
	FadeEndHeight   float32

	Tint colorful.Color

	// Cubemap alignment: Euler angles in degrees (pitch, yaw, roll), then
	// scale and offset applied to the rotated direction.
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
	Offset   mgl32.Vec3

	// SkyThreshold is the raw depth at or beyond which a pixel is sky.
	SkyThreshold float32
}

// DefaultParams returns the neutral dome, disabled.
func DefaultParams() Params {
	return Params{
		Density:         1,
		HorizonShift:    0.1,
		HorizonStart:    0.3,
		FadeStartHeight: 100,
		FadeEndHeight:   500,
		Tint:            colorful.Color{R: 1, G: 1, B: 1},
		Scale:           mgl32.Vec3{1, 1, 1},
		SkyThreshold:    0.9999,
	}
}

// Normalized clamps every field into its valid range.
func (p Params) Normalized() Params {
	p.Density = max(p.Density, 0)
	p.HorizonShift = clamp(p.HorizonShift, 0, 1)
	p.HorizonStart = clamp(p.HorizonStart, 0, 1)
	p.HorizonBlend = clamp(p.HorizonBlend, 0, 1)
	if p.FadeEndHeight < p.FadeStartHeight {
		p.FadeEndHeight = p.FadeStartHeight
	}
	if p.Scale == (mgl32.Vec3{}) {
		p.Scale = mgl32.Vec3{1, 1, 1}
	}
	if p.SkyThreshold <= 0 || p.SkyThreshold > 1 {
		p.SkyThreshold = DefaultParams().SkyThreshold
	}
	p.Tint = p.Tint.Clamped()
	return p
}

// SetTint parses a "#rrggbb" or "#rgb" tint.
func (p *Params) SetTint(hex string) error {
	c, err := colorful.Hex(hex)
	if err != nil {
		return fmt.Errorf("sky: tint: %w", err)
	}
	p.Tint = c
	return nil
}

// CubemapRotation is the yaw, pitch, roll rotation of the cubemap lookup.
func (p Params) CubemapRotation() mgl32.Mat3 {
	yaw := mgl32.DegToRad(p.Rotation[1])
	pitch := mgl32.DegToRad(p.Rotation[0])
	roll := mgl32.DegToRad(p.Rotation[2])
	return mgl32.Rotate3DY(yaw).Mul3(mgl32.Rotate3DX(pitch)).Mul3(mgl32.Rotate3DZ(roll))
}

// LookupY is the vertical component of the lookup direction for a ray with
// vertical component y, before renormalization.
func (p Params) LookupY(y float32) float32 {
	return y * (1 - p.HorizonShift)
}

// Opacity is the dome coverage for a unit ray with vertical component y seen
// from camera height camY. It matches the shader.
func (p Params) Opacity(y, camY float32) float32 {
	e := y
	if e < 0 {
		e = -e
	}
	ring := 1 - smoothstep(p.HorizonStart, 1, e)
	ring += (1 - ring) * p.HorizonBlend
	return ring * smoothstep(p.FadeStartHeight, p.FadeEndHeight, camY)
}

func smoothstep(lo, hi, x float32) float32 {
	if hi <= lo {
		if x < lo {
			return 0
		}
		return 1
	}
	t := clamp((x-lo)/(hi-lo), 0, 1)
	return t * t * (3 - 2*t)
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
